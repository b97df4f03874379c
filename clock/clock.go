// Package clock provides the time sources used to stamp authentication tokens.
package clock

import (
	"context"
	"time"
)

// Source supplies the current time. Implementations may block on the
// network and must honour ctx.
type Source interface {
	Now(ctx context.Context) (time.Time, error)
}

// Func adapts a function to a Source.
type Func func(ctx context.Context) (time.Time, error)

// Now calls f.
func (f Func) Now(ctx context.Context) (time.Time, error) { return f(ctx) }

// System reads the local clock.
type System struct{}

// Now returns time.Now.
func (System) Now(context.Context) (time.Time, error) { return time.Now(), nil }

// Fixed always returns the same instant. Used for deterministic tokens.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now(context.Context) (time.Time, error) { return time.Time(f), nil }

// FixedMillis returns a Fixed source at the given Unix millisecond timestamp.
func FixedMillis(ms int64) Fixed { return Fixed(time.UnixMilli(ms)) }
