package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFixed(t *testing.T) {
	src := FixedMillis(1_700_000_000_123)
	got, err := src.Now(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.UnixMilli() != 1_700_000_000_123 {
		t.Errorf("UnixMilli = %d", got.UnixMilli())
	}
}

func TestSystem(t *testing.T) {
	before := time.Now()
	got, err := System{}.Now(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Before(before) {
		t.Error("system clock went backwards")
	}
}

func TestFunc(t *testing.T) {
	want := errors.New("no time")
	_, err := Func(func(context.Context) (time.Time, error) { return time.Time{}, want }).Now(context.Background())
	if !errors.Is(err, want) {
		t.Errorf("got %v", err)
	}
}

func stubNTP(n *NTP, offset time.Duration, err error) *int {
	calls := 0
	n.query = func(server string, timeout time.Duration) (time.Duration, error) {
		calls++
		return offset, err
	}
	return &calls
}

func TestNTP_AppliesOffsetAndCaches(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	n := NewNTP("", WithCacheFor(time.Minute))
	n.local = func() time.Time { return base }
	calls := stubNTP(n, 2*time.Second, nil)

	got, err := n.Now(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := base.Add(2 * time.Second); !got.Equal(want) {
		t.Errorf("Now = %v, want %v", got, want)
	}
	if _, err := n.Now(context.Background()); err != nil {
		t.Fatal(err)
	}
	if *calls != 1 {
		t.Errorf("offset should be cached, queries = %d", *calls)
	}
	if n.server != DefaultNTPServer {
		t.Errorf("server = %q", n.server)
	}
}

func TestNTP_FallbackOnFailure(t *testing.T) {
	n := NewNTP("ntp.invalid", WithFallback(FixedMillis(42)), WithTimeout(time.Millisecond))
	stubNTP(n, 0, errors.New("i/o timeout"))

	got, err := n.Now(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.UnixMilli() != 42 {
		t.Errorf("expected fallback time, got %d", got.UnixMilli())
	}
}

func TestNTP_NoFallback(t *testing.T) {
	n := NewNTP("ntp.invalid", WithFallback(nil), WithCacheFor(0))
	stubNTP(n, 0, errors.New("unreachable"))
	if _, err := n.Now(context.Background()); err == nil {
		t.Error("expected error without fallback")
	}
}

func TestNTP_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := NewNTP("")
	calls := stubNTP(n, 0, nil)
	if _, err := n.Now(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if *calls != 0 {
		t.Error("no query expected for a cancelled context")
	}
}
