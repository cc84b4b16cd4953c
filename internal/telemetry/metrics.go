package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/mobilityroute/routekpi/internal/telemetry"

// AnalysisMetrics holds the instruments recorded for each analysis run.
// A nil *AnalysisMetrics records nothing.
type AnalysisMetrics struct {
	runDuration      metric.Float64Histogram
	routesAnalyzed   metric.Int64Counter
	routesMalformed  metric.Int64Counter
	passengersServed metric.Int64Counter
	unassignedTrips  metric.Int64Counter
}

// RunStats is what a finished analysis run reports to the instruments.
type RunStats struct {
	Source          string
	Duration        time.Duration
	RoutesAnalyzed  int
	RoutesMalformed int
	Passengers      int
	UnassignedTrips int
}

// NewAnalysisMetrics creates the instruments on meter, or on the global
// meter provider when meter is nil.
func NewAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	runDuration, err := meter.Float64Histogram(
		"routekpi.analysis.duration",
		metric.WithDescription("Duration of route KPI analysis runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	routesAnalyzed, err := meter.Int64Counter(
		"routekpi.routes.analyzed",
		metric.WithDescription("Routes that produced a KPI record"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return nil, err
	}

	routesMalformed, err := meter.Int64Counter(
		"routekpi.routes.malformed",
		metric.WithDescription("Routes skipped because their steps were not an ordered sequence"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return nil, err
	}

	passengersServed, err := meter.Int64Counter(
		"routekpi.passengers.served",
		metric.WithDescription("Passengers attributed across analyzed routes"),
		metric.WithUnit("{passenger}"),
	)
	if err != nil {
		return nil, err
	}

	unassignedTrips, err := meter.Int64Counter(
		"routekpi.trips.unassigned",
		metric.WithDescription("Trips the solver could not schedule"),
		metric.WithUnit("{trip}"),
	)
	if err != nil {
		return nil, err
	}

	return &AnalysisMetrics{
		runDuration:      runDuration,
		routesAnalyzed:   routesAnalyzed,
		routesMalformed:  routesMalformed,
		passengersServed: passengersServed,
		unassignedTrips:  unassignedTrips,
	}, nil
}

// RecordRun records the outcome of one analysis run.
func (m *AnalysisMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("source", stats.Source))

	m.runDuration.Record(ctx, stats.Duration.Seconds(), attrs)
	m.routesAnalyzed.Add(ctx, int64(stats.RoutesAnalyzed), attrs)
	m.routesMalformed.Add(ctx, int64(stats.RoutesMalformed), attrs)
	m.passengersServed.Add(ctx, int64(stats.Passengers), attrs)
	m.unassignedTrips.Add(ctx, int64(stats.UnassignedTrips), attrs)
}
