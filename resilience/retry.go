package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures Retry. Exponential settings suit flaky reads; a
// BackoffFactor of 1 turns Retry into a fixed-interval poll loop.
type RetryConfig struct {
	// MaxAttempts counts every call to fn, the first included.
	MaxAttempts int
	// InitialBackoff is the wait after the first failed attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the wait.
	MaxBackoff time.Duration
	BackoffFactor float64
	// Jitter spreads each wait by up to ±Jitter of its length (0.0 to 1.0).
	Jitter float64
	// RetryIf reports whether an error means "try again". Any other error
	// is returned at once.
	RetryIf func(error) bool
	// OnRetry sees the failed attempt number and the wait before the next.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetryConfig retries any error three times with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// FixedRetryConfig polls every interval, with no growth and no jitter, for
// at most maxAttempts calls. Async task polling runs on it: 600 attempts
// 100ms apart is the one-minute budget of a bigmodel task.
func FixedRetryConfig(maxAttempts int, interval time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: interval,
		MaxBackoff:     interval,
		BackoffFactor:  1.0,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// RetryOnly retries errors matching one of targets and nothing else. A
// poller returns a "still pending" sentinel from fn and uses
// RetryOnly(sentinel), so transport and decode failures end the loop on the
// attempt that produced them.
func RetryOnly(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// Retry calls fn until it succeeds, RetryIf rejects its error, MaxAttempts
// is used up or ctx ends. On exhaustion the last error from fn is returned,
// so a caller can tell "gave up while pending" from other failures.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	cfg = withRetryDefaults(cfg)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !cfg.RetryIf(err) {
			return zero, err
		}
		lastErr = err
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := calculateBackoff(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func withRetryDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 2.0
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}
	return cfg
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateBackoff returns InitialBackoff * BackoffFactor^(attempt-1),
// jittered and capped at MaxBackoff.
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	wait := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.Jitter > 0 {
		wait += (rand.Float64()*2 - 1) * wait * cfg.Jitter
	}
	switch {
	case wait > float64(cfg.MaxBackoff):
		wait = float64(cfg.MaxBackoff)
	case wait < 0:
		wait = float64(cfg.InitialBackoff)
	}
	return time.Duration(wait)
}
