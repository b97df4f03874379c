package llm

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/logger"
	"github.com/kbukum/glmkit/resilience"
)

// Polling defaults.
const (
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultPollMaxAttempts = 600
)

// errPending marks a task that has not finished yet. It is the only error
// the poller retries.
var errPending = stderrors.New("task pending")

// FetchFunc reads the current result body of a task.
type FetchFunc func(ctx context.Context, handle TaskHandle) ([]byte, error)

// Poller waits for an async task to finish. It checks at a fixed interval and
// gives up after MaxAttempts checks or Deadline, whichever comes first.
type Poller struct {
	Fetch       FetchFunc
	Interval    time.Duration
	MaxAttempts int
	// Deadline bounds the whole poll when positive.
	Deadline time.Duration
	Log      *logger.Logger
}

// Poll returns the result body once task_status is SUCCESS. A FAIL status is
// TASK_FAILED, running out of attempts or time is TIMEOUT, and transport or
// shape errors end polling at once.
func (p *Poller) Poll(ctx context.Context, handle TaskHandle) ([]byte, error) {
	if p.Fetch == nil {
		return nil, errors.InvalidInput("poller has no fetch function")
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultPollMaxAttempts
	}
	log := p.Log
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("poller")

	pollCtx := ctx
	if p.Deadline > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, p.Deadline)
		defer cancel()
	}

	cfg := resilience.FixedRetryConfig(attempts, interval)
	cfg.RetryIf = resilience.RetryOnly(errPending)
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) {
		if attempt%50 == 0 {
			log.Debug("task still pending", logger.Fields(
				logger.FieldTaskID, handle.TaskID,
				logger.FieldAttempt, attempt,
			))
		}
	}

	body, err := resilience.Retry(pollCtx, cfg, func() ([]byte, error) {
		body, err := p.Fetch(pollCtx, handle)
		if err != nil {
			return nil, err
		}
		status, err := TaskStatus(body)
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(status) {
		case StatusSuccess:
			return body, nil
		case StatusFail:
			return nil, errors.TaskFailed(handle.TaskID, status)
		default:
			return nil, errPending
		}
	})
	if err == nil {
		return body, nil
	}

	switch {
	case stderrors.Is(err, errPending):
		return nil, errors.PollTimeout(handle.TaskID, attempts)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case pollCtx.Err() != nil:
		return nil, errors.PollTimeout(handle.TaskID, attempts).WithDetail("deadline", p.Deadline.String())
	}
	return nil, err
}
