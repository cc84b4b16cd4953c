package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/mobilityroute/routekpi/internal/batch"
	"github.com/mobilityroute/routekpi/internal/capacity"
	"github.com/mobilityroute/routekpi/internal/config"
	"github.com/mobilityroute/routekpi/internal/fleet"
	"github.com/mobilityroute/routekpi/internal/solution"
	"github.com/mobilityroute/routekpi/internal/telemetry"
)

const serviceName = "routekpi"

// exitMalformedRoutes is the exit code of check when any route is malformed.
const exitMalformedRoutes = 2

// runtime is the state shared by commands once the app's Before hook has run.
type runtime struct {
	cfg       config.Config
	logger    zerolog.Logger
	telemetry *telemetry.Provider
	metrics   *telemetry.AnalysisMetrics
}

func newApp(stdout, stderr io.Writer) *cli.App {
	rt := &runtime{logger: zerolog.Nop()}

	return &cli.App{
		Name:        serviceName,
		Usage:       "analyze vehicle-routing solver output for fleet efficiency KPIs",
		Description: "Derives per-route and fleet-wide revenue/empty mileage, load, passenger and throughput metrics",
		Version:     Version,
		Writer:      stdout,
		ErrWriter:   stderr,
		// exit codes are handled in main so tests can run the app in-process
		ExitErrHandler: func(*cli.Context, error) {},

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"ROUTEKPI_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "path to a .env file (default: ./.env when present)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level override (debug, info, warn, error)",
			},
		},

		Before: func(c *cli.Context) error {
			return rt.setup(c, stderr)
		},
		After: func(*cli.Context) error {
			return rt.shutdown()
		},

		Commands: []*cli.Command{
			rt.analyzeCommand(),
			rt.checkCommand(),
			rt.batchCommand(),
		},
	}
}

func (rt *runtime) setup(c *cli.Context, stderr io.Writer) error {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	rt.cfg = cfg
	rt.logger = cfg.NewLogger(stderr, serviceName, Version)
	// main reports fatal errors through the global logger
	log.Logger = rt.logger

	rt.logger.Debug().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting routekpi")

	tp, err := telemetry.Init(c.Context, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	rt.telemetry = tp

	if cfg.Telemetry.Enabled {
		rt.logger.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Dur("export_interval", tp.Settings.ExportInterval).
			Float64("sample_ratio", tp.Settings.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := telemetry.NewAnalysisMetrics(tp.Meter)
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}
	rt.metrics = metrics
	return nil
}

func telemetryConfig(cfg config.Config) telemetry.Config {
	return telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		Secure:         cfg.Telemetry.Secure,
		ExportInterval: cfg.Telemetry.ExportInterval,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	}
}

func (rt *runtime) shutdown() error {
	if rt.telemetry == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.telemetry.Shutdown(ctx); err != nil {
		rt.logger.Error().Err(err).Msg("failed to shutdown telemetry")
	}
	return nil
}

func (rt *runtime) analyzer(concurrency int) *fleet.Analyzer {
	if concurrency <= 0 {
		concurrency = rt.cfg.Concurrency
	}
	return fleet.NewAnalyzer(fleet.AnalyzerConfig{
		Logger:      rt.logger,
		Concurrency: concurrency,
		Metrics:     rt.metrics,
		Tracer:      rt.telemetry.Tracer,
	})
}

// analysisOutput is the document written by the analyze command.
type analysisOutput struct {
	Timestamp         time.Time       `json:"timestamp"`
	Solution          string          `json:"solution"`
	Analysis          *fleet.Analysis `json:"analysis"`
	VehicleCapacities capacity.Map    `json:"vehicleCapacities"`
}

func (rt *runtime) analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "compute route KPI records and the fleet summary for one solution",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "solution", Aliases: []string{"s"}, Usage: "solver solution JSON file", Required: true},
			&cli.StringFlag{Name: "vehicles", Aliases: []string{"v"}, Usage: "vehicle roster (.json or .csv)", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "-", Usage: "output file, - for stdout"},
			&cli.IntFlag{Name: "concurrency", Usage: "routes scanned at once (default: from config)"},
		},
		Action: func(c *cli.Context) error {
			vehicles, err := capacity.LoadFile(c.String("vehicles"))
			if err != nil {
				return err
			}
			rt.logger.Info().
				Int("vehicles", len(vehicles)).
				Msg("loaded vehicle capacities")

			path := c.String("solution")
			sol, err := readSolution(path)
			if err != nil {
				return err
			}

			analysis, err := rt.analyzer(c.Int("concurrency")).Analyze(c.Context, path, sol, vehicles)
			if err != nil {
				return err
			}

			return writeJSON(c, c.String("output"), analysisOutput{
				Timestamp:         time.Now().UTC(),
				Solution:          path,
				Analysis:          analysis,
				VehicleCapacities: vehicles,
			})
		},
	}
}

func (rt *runtime) checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "list routes whose steps are not an ordered sequence",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "solution", Aliases: []string{"s"}, Usage: "solver solution JSON file", Required: true},
		},
		Action: func(c *cli.Context) error {
			sol, err := readSolution(c.String("solution"))
			if err != nil {
				return err
			}

			malformed, err := solution.Validate(sol)
			if err != nil {
				return err
			}

			if err := writeJSON(c, "-", struct {
				Routes    int                       `json:"routes"`
				Malformed []solution.MalformedRoute `json:"malformed"`
			}{len(sol.Routes), malformed}); err != nil {
				return err
			}

			if len(malformed) > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d routes are malformed", len(malformed), len(sol.Routes)), exitMalformedRoutes)
			}
			rt.logger.Info().Int("routes", len(sol.Routes)).Msg("all routes have valid steps arrays")
			return nil
		},
	}
}

func (rt *runtime) batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "analyze every solution JSON file in a directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "directory of solver solution JSON files", Required: true},
			&cli.StringFlag{Name: "vehicles", Aliases: []string{"v"}, Usage: "vehicle roster (.json or .csv)", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "-", Usage: "output file, - for stdout"},
			&cli.IntFlag{Name: "workers", Usage: "files analyzed at once (default: from config)"},
		},
		Action: func(c *cli.Context) error {
			vehicles, err := capacity.LoadFile(c.String("vehicles"))
			if err != nil {
				return err
			}

			paths, err := batch.Discover(c.String("dir"))
			if err != nil {
				return err
			}

			workers := c.Int("workers")
			if workers <= 0 {
				workers = rt.cfg.BatchWorkers
			}

			job := batch.NewJob(batch.JobConfig{
				Workers:  workers,
				Logger:   rt.logger,
				Analyzer: rt.analyzer(0),
				Vehicles: vehicles,
			})

			result := job.Run(c.Context, paths)

			m := job.GetMetrics()
			rt.logger.Info().
				Str("job_id", result.JobID).
				Int64("runs", m.TotalRuns).
				Int64("files_analyzed", m.FilesAnalyzed).
				Int64("files_failed", m.FilesFailed).
				Dur("last_run_duration", m.LastRunDuration).
				Msg("batch metrics")

			return writeJSON(c, c.String("output"), result)
		},
	}
}

func readSolution(path string) (*solution.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open solution: %w", err)
	}
	defer f.Close()
	return solution.Decode(f)
}

func writeJSON(c *cli.Context, output string, v any) error {
	var w io.Writer = c.App.Writer
	if output != "-" && output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
