package clock

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"github.com/kbukum/glmkit/logger"
)

// DefaultNTPServer is the SNTP server queried when none is configured.
const DefaultNTPServer = "ntp.aliyun.com"

// NTP reads network time over SNTP and falls back to another source when the
// server cannot be reached. The measured offset is cached for CacheFor so a
// chat session does not query the server on every request.
type NTP struct {
	server   string
	timeout  time.Duration
	cacheFor time.Duration
	fallback Source
	log      *logger.Logger

	// query is swapped in tests.
	query func(server string, timeout time.Duration) (time.Duration, error)
	local func() time.Time

	mu        sync.Mutex
	offset    time.Duration
	checkedAt time.Time
	valid     bool
}

// NTPOption configures an NTP source.
type NTPOption func(*NTP)

// WithTimeout bounds a single SNTP query.
func WithTimeout(d time.Duration) NTPOption {
	return func(n *NTP) { n.timeout = d }
}

// WithCacheFor sets how long a measured offset is reused. Zero queries every time.
func WithCacheFor(d time.Duration) NTPOption {
	return func(n *NTP) { n.cacheFor = d }
}

// WithFallback replaces the system clock used when the server is unreachable.
// A nil fallback makes query failures fatal.
func WithFallback(s Source) NTPOption {
	return func(n *NTP) { n.fallback = s }
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *logger.Logger) NTPOption {
	return func(n *NTP) {
		if l != nil {
			n.log = l.WithComponent("clock")
		}
	}
}

// NewNTP creates an SNTP source for server (DefaultNTPServer when empty).
func NewNTP(server string, opts ...NTPOption) *NTP {
	if server == "" {
		server = DefaultNTPServer
	}
	n := &NTP{
		server:   server,
		timeout:  3 * time.Second,
		cacheFor: 10 * time.Minute,
		fallback: System{},
		log:      logger.WithComponent("clock"),
		query:    queryOffset,
		local:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Now returns the local time corrected by the server's clock offset.
func (n *NTP) Now(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.local()
	if n.valid && n.cacheFor > 0 && now.Sub(n.checkedAt) < n.cacheFor {
		return now.Add(n.offset), nil
	}

	offset, err := n.measure(ctx)
	if err != nil {
		if n.fallback == nil {
			return time.Time{}, err
		}
		n.log.Warn("ntp query failed, using fallback clock",
			logger.Fields("server", n.server, logger.FieldError, err.Error()))
		return n.fallback.Now(ctx)
	}

	n.offset = offset
	n.checkedAt = now
	n.valid = true
	return n.local().Add(offset), nil
}

func (n *NTP) measure(ctx context.Context) (time.Duration, error) {
	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return n.query(n.server, timeout)
}

// queryOffset asks server for the local clock offset and rejects replies
// that are unsynchronized or too imprecise to trust.
func queryOffset(server string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}
