package fleet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mobilityroute/routekpi/internal/kpi"
	"github.com/mobilityroute/routekpi/internal/solution"
	"github.com/mobilityroute/routekpi/internal/telemetry"
)

const tracerName = "github.com/mobilityroute/routekpi/internal/fleet"

// AnalyzerConfig holds configuration for the fleet analyzer.
type AnalyzerConfig struct {
	// Logger for analysis runs.
	Logger zerolog.Logger

	// Concurrency bounds the number of routes scanned at once (default: 4).
	Concurrency int

	// Metrics records per-run instruments. Optional.
	Metrics *telemetry.AnalysisMetrics

	// Tracer for run spans (default: the global tracer).
	Tracer trace.Tracer
}

// Analyzer produces KPI records and the fleet summary for a solution.
// It holds no per-run state and is safe for concurrent use.
type Analyzer struct {
	logger      zerolog.Logger
	concurrency int
	metrics     *telemetry.AnalysisMetrics
	tracer      trace.Tracer
}

// NewAnalyzer creates a new fleet analyzer.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Analyzer{
		logger:      cfg.Logger,
		concurrency: concurrency,
		metrics:     cfg.Metrics,
		tracer:      tracer,
	}
}

// Analyze computes a KPI record for every well-formed route of sol and the
// summary over them. Malformed routes are reported in Analysis.Malformed and
// do not stop the run; only a solution without routes is an error.
// source labels the run in logs, spans and metrics.
func (a *Analyzer) Analyze(ctx context.Context, source string, sol *solution.Solution, vehicles kpi.CapacityResolver) (*Analysis, error) {
	ctx, span := a.tracer.Start(ctx, "fleet.Analyze",
		trace.WithAttributes(attribute.String("routekpi.source", source)))
	defer span.End()

	start := time.Now()
	runID := uuid.NewString()
	logger := a.logger.With().
		Str("run_id", runID).
		Str("source", source).
		Logger()

	malformed, err := solution.Validate(sol)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for _, m := range malformed {
		logger.Warn().
			Int("route_index", m.Index).
			Str("vehicle", string(m.Vehicle)).
			Str("reason", m.Reason).
			Msg("skipping malformed route")
	}

	valid := make([]int, 0, len(sol.Routes))
	for i, route := range sol.Routes {
		if route.WellFormed() {
			valid = append(valid, i)
		}
	}

	records := make([]kpi.Record, len(valid))
	p := pool.New().WithMaxGoroutines(a.concurrency)
	for slot, routeIndex := range valid {
		slot, routeIndex := slot, routeIndex
		p.Go(func() {
			records[slot] = kpi.Calculate(sol.Routes[routeIndex], routeIndex, vehicles)
		})
	}
	p.Wait()

	for _, r := range records {
		logger.Debug().
			Str("route", r.RouteDescription).
			Float64("total_miles", r.TotalMiles).
			Float64("revenue_miles", r.RevenueMiles).
			Float64("empty_miles", r.EmptyMiles).
			Float64("load_pct", r.LoadPercentage).
			Int("vehicle_capacity", r.VehicleCapacity).
			Int("passengers", r.TotalPassengers).
			Float64("passengers_per_hour", r.PassengersPerHour).
			Str("duration", r.TotalDuration).
			Str("wait", r.WaitTime).
			Msg("route analyzed")
	}

	summary := Summarize(records, len(sol.Unassigned))
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.String("routekpi.run_id", runID),
		attribute.Int("routekpi.routes", len(records)),
		attribute.Int("routekpi.malformed", len(malformed)),
		attribute.Int("routekpi.passengers", summary.TotalPassengers),
	)

	a.metrics.RecordRun(ctx, telemetry.RunStats{
		Source:          source,
		Duration:        elapsed,
		RoutesAnalyzed:  len(records),
		RoutesMalformed: len(malformed),
		Passengers:      summary.TotalPassengers,
		UnassignedTrips: summary.UnassignedTrips,
	})

	logger.Info().
		Dur("duration", elapsed).
		Int("routes", summary.TotalRoutes).
		Int("malformed", len(malformed)).
		Int("unassigned_trips", summary.UnassignedTrips).
		Int("trips", summary.TotalTrips).
		Float64("total_miles", summary.TotalMiles).
		Float64("avg_load_pct", kpi.Round2(summary.AverageLoadPercentage)).
		Int("passengers", summary.TotalPassengers).
		Float64("passengers_per_hour", kpi.Round2(summary.PassengersPerHour)).
		Msg("analysis completed")

	return &Analysis{
		RunID:     runID,
		Records:   records,
		Summary:   summary,
		Malformed: malformed,
	}, nil
}
