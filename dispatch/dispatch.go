// Package dispatch decides which invocation mode handles a line of input.
//
// A line that is exactly a mode keyword switches the sticky mode. A line of
// the form "<keyword>:<payload>" (or the older "<keyword>#<payload>") runs
// the payload in that mode for one turn only. Anything else is a plain turn
// in the sticky mode.
package dispatch

import (
	"strings"
	"sync"

	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/logger"
)

// Mode is an invocation mode.
type Mode int

const (
	Sync Mode = iota
	Async
	Stream
	Vision
	Image
)

var modeNames = [...]string{
	Sync:   "sync",
	Async:  "async",
	Stream: "stream",
	Vision: "vision",
	Image:  "image",
}

// String returns the canonical keyword of m.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// Delimiters separating a one-turn mode prefix from its payload. ':' is the
// primary form; '#' is accepted for older inputs.
const (
	Delimiter       = ':'
	LegacyDelimiter = '#'
)

var keywords = map[string]Mode{
	"sync":     Sync,
	"async":    Async,
	"sse":      Stream,
	"stream":   Stream,
	"glm4v":    Vision,
	"vision":   Vision,
	"cogview3": Image,
	"image":    Image,
}

var exitWords = map[string]bool{"exit": true, "quit": true}

// ParseMode resolves a keyword, case-insensitively.
func ParseMode(s string) (Mode, bool) {
	m, ok := keywords[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// Command is the outcome of dispatching one line.
type Command struct {
	// Mode handles Payload. After a switch it is the new sticky mode.
	Mode    Mode
	Payload string
	// Switched is set when the line only changed the sticky mode.
	Switched bool
	// Exit is set when the line asked to end the session.
	Exit bool
	// Err is an INVALID_INPUT error when there is nothing to send.
	Err error
}

// Request reports whether the command should produce a remote call.
func (c Command) Request() bool {
	return !c.Switched && !c.Exit && c.Err == nil
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithInitial sets the sticky mode a dispatcher starts in.
func WithInitial(m Mode) Option {
	return func(d *Dispatcher) { d.current = m }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l.WithComponent("dispatch")
		}
	}
}

// Dispatcher holds the sticky mode. It is safe for concurrent use.
type Dispatcher struct {
	mu      sync.Mutex
	current Mode
	log     *logger.Logger
}

// New creates a dispatcher starting in Sync mode.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{current: Sync, log: logger.WithComponent("dispatch")}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Current returns the sticky mode.
func (d *Dispatcher) Current() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Set changes the sticky mode.
func (d *Dispatcher) Set(m Mode) {
	d.mu.Lock()
	d.current = m
	d.mu.Unlock()
}

// Dispatch classifies one line of input.
func (d *Dispatcher) Dispatch(input string) Command {
	trimmed := strings.TrimSpace(input)
	word := strings.ToLower(trimmed)

	d.mu.Lock()
	defer d.mu.Unlock()

	if m, ok := keywords[word]; ok {
		if m != d.current {
			d.log.Debug("mode switched", logger.Fields(
				"from", d.current.String(),
				logger.FieldMode, m.String(),
			))
		}
		d.current = m
		return Command{Mode: m, Switched: true}
	}
	if exitWords[word] {
		return Command{Mode: d.current, Exit: true}
	}

	if idx := strings.IndexAny(trimmed, string([]rune{Delimiter, LegacyDelimiter})); idx > 0 {
		if m, ok := ParseMode(trimmed[:idx]); ok {
			payload := strings.TrimSpace(trimmed[idx+1:])
			if payload == "" {
				return Command{Mode: m, Err: errors.InvalidInput("empty payload after " + m.String() + " prefix")}
			}
			return Command{Mode: m, Payload: payload}
		}
	}

	if trimmed == "" {
		return Command{Mode: d.current, Err: errors.InvalidInput("empty input")}
	}
	return Command{Mode: d.current, Payload: trimmed}
}
