// Package observability wires OpenTelemetry tracing and metrics into the
// invocation engine.
//
// Without Setup every helper works against the global no-op providers, so
// the engine can always create spans and record metrics.
//
//	providers, err := observability.Setup(ctx, observability.DefaultTracerConfig("glmchat"), nil)
//	defer providers.Shutdown(ctx)
//
//	inv := observability.NewInvocation("glmchat", "stream", sessionID, metrics)
//	ctx, span := inv.Start(ctx)
//	defer inv.End(ctx, span, err)
package observability
