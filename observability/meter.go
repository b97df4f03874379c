package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/glmkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the engine's metric instruments.
type Metrics struct {
	invocationTotal    metric.Int64Counter
	invocationDuration metric.Float64Histogram
	invocationActive   metric.Int64UpDownCounter
	pollAttempts       metric.Int64Histogram
	streamFragments    metric.Int64Counter
	errorTotal         metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	invocationTotal, err := meter.Int64Counter("glm.invocation.total",
		metric.WithDescription("Total number of invocations by mode and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glm.invocation.total counter: %w", err)
	}

	invocationDuration, err := meter.Float64Histogram("glm.invocation.duration",
		metric.WithDescription("Duration of invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glm.invocation.duration histogram: %w", err)
	}

	invocationActive, err := meter.Int64UpDownCounter("glm.invocation.active",
		metric.WithDescription("Number of invocations in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glm.invocation.active gauge: %w", err)
	}

	pollAttempts, err := meter.Int64Histogram("glm.poll.attempts",
		metric.WithDescription("Result checks needed per async task"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glm.poll.attempts histogram: %w", err)
	}

	streamFragments, err := meter.Int64Counter("glm.stream.fragments",
		metric.WithDescription("Stream fragments delivered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glm.stream.fragments counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("glm.error.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glm.error.total counter: %w", err)
	}

	return &Metrics{
		invocationTotal:    invocationTotal,
		invocationDuration: invocationDuration,
		invocationActive:   invocationActive,
		pollAttempts:       pollAttempts,
		streamFragments:    streamFragments,
		errorTotal:         errorTotal,
	}, nil
}

// RecordInvocationStart increments the in-flight count.
func (m *Metrics) RecordInvocationStart(ctx context.Context) {
	m.invocationActive.Add(ctx, 1)
}

// RecordInvocationEnd decrements the in-flight count and records the finished invocation.
func (m *Metrics) RecordInvocationEnd(ctx context.Context, mode, status string, duration time.Duration) {
	m.invocationActive.Add(ctx, -1)
	m.invocationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status),
	))
	m.invocationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

// RecordPollAttempts records how many checks an async task needed.
func (m *Metrics) RecordPollAttempts(ctx context.Context, attempts int) {
	m.pollAttempts.Record(ctx, int64(attempts))
}

// RecordFragments counts delivered stream fragments.
func (m *Metrics) RecordFragments(ctx context.Context, mode string, n int) {
	m.streamFragments.Add(ctx, int64(n), metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
