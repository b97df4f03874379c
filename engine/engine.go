package engine

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/glmkit/auth/token"
	"github.com/kbukum/glmkit/clock"
	"github.com/kbukum/glmkit/config"
	"github.com/kbukum/glmkit/dispatch"
	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/history"
	"github.com/kbukum/glmkit/llm"
	"github.com/kbukum/glmkit/logger"
	"github.com/kbukum/glmkit/observability"
)

// defaultAssistantRole labels vision replies in the history log, since the
// vision section carries no assistant role of its own.
const defaultAssistantRole = "assistant"

// Options configures an Engine. Config and Credential are required.
type Options struct {
	Config     *config.Config
	Credential token.Credential
	// Family selects the chat section ("glm-3" or "glm-4"). Defaults to the
	// config's model setting.
	Family string
	// History overrides the store opened from Config.History. The caller
	// keeps ownership of a store passed here.
	History *history.Store
	// SessionID is attached to logs and spans.
	SessionID string
	// Clock overrides the token time source.
	Clock clock.Source
	// Transport overrides the HTTP round tripper.
	Transport http.RoundTripper
	// InitialMode is the dispatcher's starting sticky mode.
	InitialMode dispatch.Mode
	// OnFragment sees stream and vision fragments as they arrive.
	OnFragment func(string)
	Logger     *logger.Logger
	Metrics    *observability.Metrics
}

// Reply is the outcome of one invocation.
type Reply struct {
	Mode dispatch.Mode
	Text string
	// Switched reports a line that only changed the sticky mode.
	Switched bool
	// Exit reports a line asking to end the session.
	Exit bool
}

// Result pairs a Reply with its error for InvokeAsync.
type Result struct {
	Reply
	Err error
}

// Engine composes the dispatcher, authenticator, client and history store.
// Invocations may run concurrently.
type Engine struct {
	cfg        *config.Config
	cred       token.Credential
	family     string
	auth       *token.Authenticator
	client     *llm.Client
	dispatcher *dispatch.Dispatcher
	store      *history.Store
	ownsStore  bool
	sessionID  string
	onFragment func(string)
	metrics    *observability.Metrics
	log        *logger.Logger
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, errors.InvalidInput("engine config is required")
	}
	cfg := opts.Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Credential.ID == "" || len(opts.Credential.Secret) == 0 {
		return nil, errors.Auth("credential is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("engine")

	family := opts.Family
	if family == "" {
		family = cfg.DefaultFamily
	}
	family = strings.ToLower(strings.TrimSpace(family))
	if family != config.FamilyGLM3 && family != config.FamilyGLM4 {
		return nil, errors.ConfigRead("model family", fmt.Errorf("unknown model family %q", family))
	}

	src := opts.Clock
	if src == nil {
		src = ClockFromConfig(cfg, log)
	}

	lc := llm.ConfigFrom(cfg)
	lc.Transport = opts.Transport
	client, err := llm.NewClient(lc, log)
	if err != nil {
		return nil, err
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics, err = observability.NewMetrics(observability.Meter("github.com/kbukum/glmkit/engine"))
		if err != nil {
			return nil, errors.Internal(err)
		}
	}

	e := &Engine{
		cfg:        cfg,
		cred:       opts.Credential,
		family:     family,
		auth:       token.NewAuthenticator(src),
		client:     client,
		dispatcher: dispatch.New(dispatch.WithInitial(opts.InitialMode), dispatch.WithLogger(log)),
		store:      opts.History,
		sessionID:  opts.SessionID,
		onFragment: opts.OnFragment,
		metrics:    metrics,
		log:        log,
	}
	if e.store == nil {
		path := cfg.History.Path
		if cfg.History.Dir != "" && opts.SessionID != "" {
			path = history.SessionPath(cfg.History.Dir, opts.SessionID)
		}
		store, err := history.Open(path, history.WithLogger(log))
		if err != nil {
			return nil, err
		}
		e.store, e.ownsStore = store, true
	}
	return e, nil
}

// ClockFromConfig returns the token time source the config selects: SNTP
// with a system fallback, or the system clock.
func ClockFromConfig(cfg *config.Config, log *logger.Logger) clock.Source {
	if !cfg.Clock.UseNTP {
		return clock.System{}
	}
	return clock.NewNTP(cfg.Clock.NTPServer,
		clock.WithTimeout(cfg.Clock.Timeout),
		clock.WithLogger(log),
	)
}

// Dispatcher exposes the engine's mode state.
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.dispatcher }

// History returns the store the engine appends to.
func (e *Engine) History() *history.Store { return e.store }

// Family returns the chat model family in use.
func (e *Engine) Family() string { return e.family }

// Close releases the history store when the engine opened it.
func (e *Engine) Close() error {
	if e.ownsStore {
		return e.store.Close()
	}
	return nil
}

// Invoke runs one line of input to completion.
func (e *Engine) Invoke(ctx context.Context, input string) (Reply, error) {
	cmd := e.dispatcher.Dispatch(input)
	reply := Reply{Mode: cmd.Mode, Switched: cmd.Switched, Exit: cmd.Exit}
	if !cmd.Request() {
		return reply, cmd.Err
	}

	ctx = logger.ContextWithRequestID(ctx, uuid.NewString())
	if e.sessionID != "" {
		ctx = logger.ContextWithSessionID(ctx, e.sessionID)
	}
	inv := observability.NewInvocation(e.cfg.Name, cmd.Mode.String(), e.sessionID, e.metrics)
	ctx, span := inv.Start(ctx)
	observability.SetSpanAttribute(ctx, observability.AttrFamily, e.family)

	text, err := e.run(ctx, cmd)
	inv.End(ctx, span, err)

	log := e.log.WithContext(ctx)
	if err != nil {
		log.Error("invocation failed", logger.MergeWithError(logger.Fields(
			logger.FieldMode, cmd.Mode.String(),
			logger.FieldStatus, observability.Status(err),
		), err))
		return reply, err
	}
	log.Debug("invocation finished", logger.Fields(
		logger.FieldMode, cmd.Mode.String(),
		logger.FieldDuration, inv.Duration().Milliseconds(),
	))
	reply.Text = text
	return reply, nil
}

// Chat is Invoke for callers that only want text: any failure yields "" and
// is logged.
func (e *Engine) Chat(ctx context.Context, input string) string {
	reply, err := e.Invoke(ctx, input)
	if err != nil {
		return ""
	}
	return reply.Text
}

// InvokeAsync runs Invoke on its own goroutine. The channel receives exactly
// one Result and is then closed.
func (e *Engine) InvokeAsync(ctx context.Context, input string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		reply, err := e.Invoke(ctx, input)
		ch <- Result{Reply: reply, Err: err}
	}()
	return ch
}

func (e *Engine) run(ctx context.Context, cmd dispatch.Command) (string, error) {
	tok, err := e.issueToken(ctx)
	if err != nil {
		return "", err
	}

	switch cmd.Mode {
	case dispatch.Image:
		return e.generateImage(ctx, tok, cmd.Payload)
	case dispatch.Vision:
		return e.describeImage(ctx, tok, cmd.Payload)
	default:
		return e.chat(ctx, tok, cmd)
	}
}

// issueToken signs a token for this invocation and checks it before any
// network traffic.
func (e *Engine) issueToken(ctx context.Context) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanToken)
	defer span.End()

	tok, err := e.auth.Issue(ctx, e.cred)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return "", err
	}
	if !e.auth.Verify(tok, e.cred) {
		err := errors.Auth("issued token failed verification")
		observability.SetSpanError(ctx, err)
		return "", err
	}
	return tok, nil
}
