package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/glmkit/errors"
)

// StatusOK is the status recorded for a successful invocation.
const StatusOK = "ok"

// Invocation tracks one engine call across its span and metrics.
type Invocation struct {
	ServiceName string
	Mode        string
	SessionID   string
	StartTime   time.Time
	Metrics     *Metrics
}

// NewInvocation creates an invocation tracker.
// If metrics is nil, metric recording is silently skipped.
func NewInvocation(serviceName, mode, sessionID string, metrics *Metrics) *Invocation {
	return &Invocation{
		ServiceName: serviceName,
		Mode:        mode,
		SessionID:   sessionID,
		StartTime:   time.Now(),
		Metrics:     metrics,
	}
}

type invocationKey struct{}

// WithInvocation stores inv in ctx.
func WithInvocation(ctx context.Context, inv *Invocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFromContext returns the Invocation stored in ctx, or nil.
func InvocationFromContext(ctx context.Context) *Invocation {
	if inv, ok := ctx.Value(invocationKey{}).(*Invocation); ok {
		return inv
	}
	return nil
}

// Start opens the invocation span and records the start metric. The returned
// context carries both the span and the invocation.
func (inv *Invocation) Start(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanInvoke)
	span.SetAttributes(
		attribute.String(AttrServiceName, inv.ServiceName),
		attribute.String(AttrMode, inv.Mode),
	)
	if inv.SessionID != "" {
		span.SetAttributes(attribute.String(AttrSessionID, inv.SessionID))
	}
	if inv.Metrics != nil {
		inv.Metrics.RecordInvocationStart(ctx)
	}
	return WithInvocation(ctx, inv), span
}

// End closes the span and records the outcome. The status is "ok" or the
// error's code.
func (inv *Invocation) End(ctx context.Context, span trace.Span, err error) {
	duration := time.Since(inv.StartTime)
	status := Status(err)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(
			attribute.String(AttrErrorCode, status),
			attribute.String(AttrErrorMessage, err.Error()),
		)
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if inv.Metrics != nil {
		inv.Metrics.RecordInvocationEnd(ctx, inv.Mode, status, duration)
		if err != nil {
			inv.Metrics.RecordError(ctx, status, "engine")
		}
	}
}

// Duration returns the elapsed time since the invocation started.
func (inv *Invocation) Duration() time.Duration {
	return time.Since(inv.StartTime)
}

// Status maps an error to the status label used on spans and metrics.
func Status(err error) string {
	if err == nil {
		return StatusOK
	}
	return string(errors.CodeOf(err))
}
