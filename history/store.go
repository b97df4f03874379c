package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/logger"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New(errors.ErrCodeInternal, "history store is closed")

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for skipped lines and I/O diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l.WithComponent("history")
		}
	}
}

// Store is an append-only conversation log.
type Store struct {
	path string
	lock *flock.Flock
	log  *logger.Logger

	reqs      chan func()
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Open opens the log at path, creating it (and its parent directories) empty
// when it does not exist, and starts the owner goroutine.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.InvalidInput("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Internal(err).WithDetail("path", path)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, errors.Internal(err).WithDetail("path", path)
	}
	_ = f.Close()

	s := &Store{
		path:    path,
		lock:    flock.New(path + ".lock"),
		log:     logger.WithComponent("history"),
		reqs:    make(chan func()),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.loop()
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

func (s *Store) loop() {
	defer close(s.stopped)
	for {
		select {
		case fn := <-s.reqs:
			fn()
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the owner goroutine and waits for its result. A request
// already handed over still completes if ctx is cancelled while waiting.
func (s *Store) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case s.reqs <- func() { errc <- fn() }:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load returns every turn in file order. Lines that do not decode are skipped.
func (s *Store) Load(ctx context.Context) ([]Turn, error) {
	var turns []Turn
	err := s.do(ctx, func() error {
		var err error
		turns, err = s.read()
		return err
	})
	if err != nil {
		return nil, err
	}
	return turns, nil
}

// Last returns at most the n most recent turns.
func (s *Store) Last(ctx context.Context, n int) ([]Turn, error) {
	if n <= 0 {
		return []Turn{}, nil
	}
	turns, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns, nil
}

// Append writes a single turn.
func (s *Store) Append(ctx context.Context, role, content string) error {
	return s.write(ctx, Turn{Role: role, Content: content})
}

// AppendExchange writes the user turn and the assistant turn in one write,
// user first.
func (s *Store) AppendExchange(ctx context.Context, user, assistant Turn) error {
	return s.write(ctx, user, assistant)
}

// Close stops the owner goroutine. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.stopped
	return nil
}

func (s *Store) write(ctx context.Context, turns ...Turn) error {
	buf, err := encodeLines(turns)
	if err != nil {
		return errors.Internal(err)
	}
	return s.do(ctx, func() error {
		if err := s.lock.Lock(); err != nil {
			return errors.Internal(err).WithDetail("lock", s.lock.Path())
		}
		defer func() { _ = s.lock.Unlock() }()

		f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Internal(err).WithDetail("path", s.path)
		}
		if _, err := f.Write(buf); err != nil {
			_ = f.Close()
			return errors.Internal(err).WithDetail("path", s.path)
		}
		if err := f.Close(); err != nil {
			return errors.Internal(err).WithDetail("path", s.path)
		}
		return nil
	})
}

func (s *Store) read() ([]Turn, error) {
	if err := s.lock.RLock(); err != nil {
		return nil, errors.Internal(err).WithDetail("lock", s.lock.Path())
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []Turn{}, nil
	}
	if err != nil {
		return nil, errors.Internal(err).WithDetail("path", s.path)
	}
	return s.decodeLines(data), nil
}

func (s *Store) decodeLines(data []byte) []Turn {
	turns := []Turn{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimSuffix(line, ",")
		if line == "" {
			continue
		}
		var t Turn
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			s.log.Debug("skipping malformed history line", logger.Fields(
				logger.FieldPath, s.path,
				"line", lineNo,
				logger.FieldError, err.Error(),
			))
			continue
		}
		turns = append(turns, t)
	}
	return turns
}

func encodeLines(turns []Turn) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, t := range turns {
		if err := enc.Encode(t); err != nil {
			return nil, err
		}
		// Encode ends every value with '\n'; the log wants ",\n".
		buf.Truncate(buf.Len() - 1)
		buf.WriteString(",\n")
	}
	return buf.Bytes(), nil
}

// SessionPath returns the log file for a session inside dir.
func SessionPath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".jsonl")
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}
