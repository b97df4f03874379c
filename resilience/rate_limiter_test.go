package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(rate float64, burst int) (*RateLimiter, *fakeNow) {
	clk := &fakeNow{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(RateLimiterConfig{Name: "test", Rate: rate, Burst: burst})
	rl.now = clk.now
	rl.lastRefill = clk.t
	return rl, clk
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl, _ := newTestLimiter(1, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow() {
		t.Error("fourth request should be limited")
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, clk := newTestLimiter(2, 2)
	rl.Allow()
	rl.Allow()
	if rl.Allow() {
		t.Fatal("bucket should be empty")
	}
	clk.advance(500 * time.Millisecond)
	if !rl.Allow() {
		t.Error("one token should have refilled after 500ms at 2/s")
	}
	clk.advance(10 * time.Second)
	if got := rl.Tokens(); got != 2 {
		t.Errorf("tokens should cap at burst, got %v", got)
	}
}

func TestRateLimiter_WaitImmediate(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("expected immediate token, got %v", err)
	}
}

func TestRateLimiter_WaitBlocksAndReportsLimit(t *testing.T) {
	var limited atomic.Int32
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "api",
		Rate:  100,
		Burst: 1,
		OnLimit: func(name string, wait time.Duration) {
			if name == "api" && wait > 0 {
				limited.Add(1)
			}
		},
	})
	ctx := context.Background()
	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("second wait should have blocked for about 10ms")
	}
	if limited.Load() != 1 {
		t.Errorf("OnLimit calls = %d, want 1", limited.Load())
	}
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl, _ := newTestLimiter(0.1, 1)
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if got := rl.Tokens(); got != 0 {
		t.Errorf("cancelled wait should give its token back, tokens = %v", got)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	if rl.config.Rate != 10 || rl.config.Burst != 10 {
		t.Errorf("defaults = %+v", rl.config)
	}
	low := NewRateLimiter(RateLimiterConfig{Rate: 0.5})
	if low.config.Burst != 1 {
		t.Errorf("burst for sub-1 rate = %d", low.config.Burst)
	}
}
