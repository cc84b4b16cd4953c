// Package batch analyzes a set of solver solution files with a fixed pool
// of workers, sharing one vehicle roster across the files.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mobilityroute/routekpi/internal/fleet"
	"github.com/mobilityroute/routekpi/internal/kpi"
	"github.com/mobilityroute/routekpi/internal/solution"
)

// JobConfig holds configuration for creating a Job.
type JobConfig struct {
	// Workers is the number of files analyzed at once (default: 3).
	Workers  int
	Logger   zerolog.Logger
	Analyzer *fleet.Analyzer
	Vehicles kpi.CapacityResolver
}

// Job runs batch analyses and keeps cumulative statistics across runs.
type Job struct {
	workers  int
	logger   zerolog.Logger
	analyzer *fleet.Analyzer
	vehicles kpi.CapacityResolver

	metrics *Metrics
}

// Metrics tracks batch job statistics across runs.
type Metrics struct {
	mu sync.RWMutex

	TotalRuns     int64
	FilesAnalyzed int64
	FilesFailed   int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// NewJob creates a new batch job.
func NewJob(cfg JobConfig) *Job {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 3
	}

	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = fleet.NewAnalyzer(fleet.AnalyzerConfig{Logger: cfg.Logger})
	}

	return &Job{
		workers:  workers,
		logger:   cfg.Logger,
		analyzer: analyzer,
		vehicles: cfg.Vehicles,
		metrics:  &Metrics{},
	}
}

// FileResult is the outcome for one solution file.
type FileResult struct {
	Path     string          `json:"path"`
	Analysis *fleet.Analysis `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`

	Err error `json:"-"`
}

// Result is the outcome of one batch run. Files follow the input order.
type Result struct {
	JobID      string        `json:"jobId"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime"`
	Duration   time.Duration `json:"duration"`
	TotalFiles int           `json:"totalFiles"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Files      []FileResult  `json:"files"`
}

type fileTask struct {
	index int
	path  string
}

// Run analyzes every file in paths. A failing file is recorded in its
// FileResult and does not stop the others. Files not yet started when ctx
// is cancelled fail with the context error.
func (j *Job) Run(ctx context.Context, paths []string) *Result {
	startTime := time.Now()
	result := &Result{
		JobID:      uuid.NewString(),
		StartTime:  startTime,
		TotalFiles: len(paths),
		Files:      make([]FileResult, len(paths)),
	}

	logger := j.logger.With().Str("job_id", result.JobID).Logger()
	logger.Info().
		Int("total_files", result.TotalFiles).
		Int("workers", j.workers).
		Msg("starting batch analysis")

	tasks := make(chan fileTask, len(paths))
	var wg sync.WaitGroup
	for i := 0; i < j.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.worker(ctx, tasks, result.Files)
		}()
	}

	for i, p := range paths {
		tasks <- fileTask{index: i, path: p}
	}
	close(tasks)
	wg.Wait()

	for _, fr := range result.Files {
		if fr.Err != nil {
			result.Failed++
			logger.Error().
				Err(fr.Err).
				Str("path", fr.Path).
				Msg("solution analysis failed")
			continue
		}
		result.Successful++
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("batch analysis completed")

	return result
}

// worker writes each outcome to its own slot of files, so no locking is needed.
func (j *Job) worker(ctx context.Context, tasks <-chan fileTask, files []FileResult) {
	for task := range tasks {
		fr := FileResult{Path: task.path}
		if err := ctx.Err(); err != nil {
			fr.Err = err
		} else {
			fr.Analysis, fr.Err = j.analyzeFile(ctx, task.path)
		}
		if fr.Err != nil {
			fr.Error = fr.Err.Error()
		}
		files[task.index] = fr
	}
}

func (j *Job) analyzeFile(ctx context.Context, path string) (*fleet.Analysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open solution: %w", err)
	}
	defer f.Close()

	sol, err := solution.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	return j.analyzer.Analyze(ctx, path, sol, j.vehicles)
}

func (j *Job) updateMetrics(result *Result) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.FilesAnalyzed += int64(result.Successful)
	j.metrics.FilesFailed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// MetricsSnapshot is a point-in-time copy of the job statistics.
type MetricsSnapshot struct {
	TotalRuns       int64
	FilesAnalyzed   int64
	FilesFailed     int64
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// GetMetrics returns a snapshot of the job statistics.
func (j *Job) GetMetrics() MetricsSnapshot {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return MetricsSnapshot{
		TotalRuns:       j.metrics.TotalRuns,
		FilesAnalyzed:   j.metrics.FilesAnalyzed,
		FilesFailed:     j.metrics.FilesFailed,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// Discover lists the .json files directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read solution dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
