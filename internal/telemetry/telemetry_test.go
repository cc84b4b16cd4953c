package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/mobilityroute/routekpi/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "routekpi-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestInit_SettingsDefaults(t *testing.T) {
	provider, err := telemetry.Init(context.Background(), telemetry.Config{ServiceName: "routekpi-test"})
	require.NoError(t, err)

	assert.Equal(t, telemetry.DefaultExportInterval, provider.Settings.ExportInterval)
	assert.InDelta(t, telemetry.DefaultSampleRatio, provider.Settings.SampleRatio, 1e-9)
	assert.False(t, provider.Settings.Secure)
}

func TestInit_SettingsKeepConfiguredValues(t *testing.T) {
	provider, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName:    "routekpi-test",
		ExportInterval: 30 * time.Second,
		SampleRatio:    0.25,
		Secure:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, provider.Settings.ExportInterval)
	assert.InDelta(t, 0.25, provider.Settings.SampleRatio, 1e-9)
	assert.True(t, provider.Settings.Secure)
}

func TestInit_Enabled(t *testing.T) {
	ctx := context.Background()

	// gRPC dials lazily, so Init succeeds without a collector.
	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "routekpi-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "127.0.0.1:4317",
		Enabled:        true,
		ExportInterval: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx) // no collector is listening
	})

	assert.NotNil(t, provider.TracerProvider)
	assert.NotNil(t, provider.MeterProvider)
	assert.Equal(t, time.Minute, provider.Settings.ExportInterval)
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestAnalysisMetrics_RecordRun(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := telemetry.NewAnalysisMetrics(mp.Meter("test"))
	require.NoError(t, err)

	metrics.RecordRun(context.Background(), telemetry.RunStats{
		Source:          "solution.json",
		Duration:        250 * time.Millisecond,
		RoutesAnalyzed:  3,
		RoutesMalformed: 1,
		Passengers:      8,
		UnassignedTrips: 2,
	})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	sums := map[string]int64{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}

	assert.Equal(t, int64(3), sums["routekpi.routes.analyzed"])
	assert.Equal(t, int64(1), sums["routekpi.routes.malformed"])
	assert.Equal(t, int64(8), sums["routekpi.passengers.served"])
	assert.Equal(t, int64(2), sums["routekpi.trips.unassigned"])
}

func TestAnalysisMetrics_NilIsNoop(t *testing.T) {
	var metrics *telemetry.AnalysisMetrics
	assert.NotPanics(t, func() {
		metrics.RecordRun(context.Background(), telemetry.RunStats{RoutesAnalyzed: 1})
	})
}

func TestNewAnalysisMetrics_GlobalMeter(t *testing.T) {
	metrics, err := telemetry.NewAnalysisMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, metrics)
}
