package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/glmkit/config"
	apperrors "github.com/kbukum/glmkit/errors"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("glmchat")

	if cfg.ServiceName != "glmchat" {
		t.Errorf("expected ServiceName 'glmchat', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("glmchat")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordInvocationStart(ctx)
	metrics.RecordInvocationEnd(ctx, "sync", StatusOK, 100*time.Millisecond)
	metrics.RecordPollAttempts(ctx, 3)
	metrics.RecordFragments(ctx, "stream", 5)
	metrics.RecordError(ctx, "TIMEOUT", "poller")
}

func TestInvocation_SpanAndMetrics(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	inv := NewInvocation("glmchat", "async", "sess-1", metrics)
	ctx, span := tp.Tracer("test").Start(context.Background(), SpanInvoke)
	ctx = WithInvocation(ctx, inv)
	if InvocationFromContext(ctx) != inv {
		t.Fatal("invocation not stored in context")
	}
	inv.Metrics.RecordInvocationStart(ctx)
	inv.End(ctx, span, apperrors.PollTimeout("t1", 600))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d", len(spans))
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[AttrStatus] != "TIMEOUT" || attrs[AttrErrorCode] != "TIMEOUT" {
		t.Errorf("attributes = %v", attrs)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	for _, want := range []string{"glm.invocation.total", "glm.invocation.duration", "glm.error.total"} {
		if !names[want] {
			t.Errorf("metric %s not recorded, got %v", want, names)
		}
	}
}

func TestInvocation_StartWithGlobalNoop(t *testing.T) {
	inv := NewInvocation("glmchat", "sync", "", nil)
	ctx, span := inv.Start(context.Background())
	if InvocationFromContext(ctx) == nil {
		t.Error("Start must store the invocation")
	}
	inv.End(ctx, span, nil)
}

func TestInvocationFromContext_NotSet(t *testing.T) {
	if InvocationFromContext(context.Background()) != nil {
		t.Error("expected nil when invocation not set")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, StatusOK},
		{apperrors.TaskFailed("t", "FAIL"), "TASK_FAILED"},
		{errors.New("plain"), "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSetupFromConfig_Disabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	p, err := SetupFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p.Tracer != nil || p.Meter != nil {
		t.Error("disabled telemetry must not create providers")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	var nilProviders *Providers
	if err := nilProviders.Shutdown(context.Background()); err != nil {
		t.Errorf("nil Shutdown: %v", err)
	}
}

func TestSpanHelpers(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()
	SetSpanAttribute(ctx, AttrMode, "sync")
	SetSpanAttribute(ctx, AttrFragments, 3)
	SetSpanError(ctx, errors.New("x"))
	if SpanFromContext(ctx) == nil {
		t.Fatal("expected span")
	}
}
