// Package telemetry sets up OpenTelemetry tracing and metrics for the
// route KPI engine and defines the analysis instruments.
package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Export defaults applied by Init when the corresponding field is zero.
const (
	DefaultExportInterval = 15 * time.Second
	DefaultSampleRatio    = 1.0
)

// Config holds configuration for telemetry setup.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	Enabled        bool

	// Secure dials the collector over TLS instead of plaintext.
	Secure bool

	// ExportInterval is how often metrics are pushed. A CLI run usually ends
	// before the first tick; Shutdown flushes whatever is pending.
	ExportInterval time.Duration

	// SampleRatio is the fraction of analysis runs traced, in (0, 1].
	// Spans whose parent is sampled are always kept.
	SampleRatio float64
}

func (c Config) withDefaults() Config {
	if c.ExportInterval <= 0 {
		c.ExportInterval = DefaultExportInterval
	}
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		c.SampleRatio = DefaultSampleRatio
	}
	return c
}

// Provider holds the initialized telemetry providers.
// TracerProvider and MeterProvider are nil when telemetry is disabled.
type Provider struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter

	// Settings is the configuration Init ran with, defaults included.
	Settings Config
}

// Shutdown flushes pending spans and metric points and stops both providers.
// Both are always shut down; their errors are joined.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		errs = append(errs, p.TracerProvider.Shutdown(ctx))
	}
	if p.MeterProvider != nil {
		errs = append(errs, p.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Init wires OTLP gRPC exporters and installs them as the global providers.
// When cfg.Enabled is false the global noop providers are used.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	cfg = cfg.withDefaults()

	if !cfg.Enabled {
		return &Provider{
			Tracer:   otel.Tracer(cfg.ServiceName),
			Meter:    otel.Meter(cfg.ServiceName),
			Settings: cfg,
		}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	spanExporter, err := otlptracegrpc.New(ctx, traceOptions(cfg)...)
	if err != nil {
		return nil, err
	}
	metricExporter, err := otlpmetricgrpc.New(ctx, metricOptions(cfg)...)
	if err != nil {
		_ = spanExporter.Shutdown(ctx) //nolint:errcheck // nothing was exported yet
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(cfg.ExportInterval),
		)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Tracer:         tracerProvider.Tracer(cfg.ServiceName),
		Meter:          meterProvider.Meter(cfg.ServiceName),
		Settings:       cfg,
	}, nil
}

func traceOptions(cfg Config) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.Secure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return opts
}

func metricOptions(cfg Config) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.Secure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return opts
}
