package observability

import (
	"context"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/glmkit/config"
)

// Providers holds the SDK providers created by Setup. A zero Providers is
// valid and shuts down as a no-op.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Setup installs OTLP/HTTP tracer and meter providers. A nil meter config
// disables metric export.
func Setup(ctx context.Context, tc TracerConfig, mc *MeterConfig) (*Providers, error) {
	p := &Providers{}

	tp, err := InitTracer(ctx, tc)
	if err != nil {
		return nil, err
	}
	p.Tracer = tp

	if mc != nil {
		mp, err := InitMeter(ctx, mc)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, err
		}
		p.Meter = mp
	}
	return p, nil
}

// SetupFromConfig installs providers when telemetry is enabled in cfg and
// returns an empty Providers otherwise.
func SetupFromConfig(ctx context.Context, cfg *config.Config) (*Providers, error) {
	if !cfg.Telemetry.Enabled {
		return &Providers{}, nil
	}

	tc := DefaultTracerConfig(cfg.Name)
	tc.Environment = cfg.Environment
	tc.Insecure = cfg.Telemetry.Insecure
	tc.SampleRate = cfg.Telemetry.SampleRate
	if cfg.Telemetry.Endpoint != "" {
		tc.Endpoint = cfg.Telemetry.Endpoint
	}

	mc := DefaultMeterConfig(cfg.Name)
	mc.Environment = tc.Environment
	mc.Endpoint = tc.Endpoint
	mc.Insecure = tc.Insecure

	return Setup(ctx, tc, &mc)
}

// Shutdown flushes and stops both providers concurrently.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if p.Tracer != nil {
		g.Go(func() error { return p.Tracer.Shutdown(ctx) })
	}
	if p.Meter != nil {
		g.Go(func() error { return p.Meter.Shutdown(ctx) })
	}
	return g.Wait()
}
