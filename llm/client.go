package llm

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/httpclient"
	"github.com/kbukum/glmkit/logger"
	"github.com/kbukum/glmkit/version"
)

// Client sends bigmodel requests. Every call takes the bearer token to use,
// since tokens are issued per invocation.
type Client struct {
	http *httpclient.Client
	cfg  Config
	log  *logger.Logger
}

// NewClient creates a Client. A nil logger uses the global one.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.applyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	headers := httpclient.JSONHeaders()
	headers["User-Agent"] = version.UserAgent()
	hc, err := httpclient.New(httpclient.Config{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		Headers:     headers,
		RateLimiter: cfg.RateLimiter,
		Transport:   cfg.Transport,
	})
	if err != nil {
		return nil, errors.ConfigRead("api", err)
	}
	return &Client{http: hc, cfg: cfg, log: log.WithComponent("llm")}, nil
}

// Complete posts a non-streaming chat body and returns the raw reply.
func (c *Client) Complete(ctx context.Context, token string, body ChatRequest) ([]byte, error) {
	return c.post(ctx, "chat", c.cfg.Paths.Chat, token, body)
}

// Submit posts an async chat body and returns the task it created.
func (c *Client) Submit(ctx context.Context, token string, body ChatRequest) (TaskHandle, error) {
	raw, err := c.post(ctx, "async submit", c.cfg.Paths.AsyncSubmit, token, body)
	if err != nil {
		return TaskHandle{}, err
	}
	return ParseTaskID(raw)
}

// Result fetches the current state of an async task.
func (c *Client) Result(ctx context.Context, token string, handle TaskHandle) ([]byte, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   c.cfg.Paths.AsyncResult + handle.TaskID,
		Auth:   httpclient.BearerAuth(token),
	})
	if err != nil {
		return nil, errors.Transport("async result", err).WithDetail(logger.FieldTaskID, handle.TaskID)
	}
	return resp.Body, nil
}

// Stream posts a streaming body (chat or vision) and decodes the SSE reply.
// onFragment sees each fragment as it arrives.
func (c *Client) Stream(ctx context.Context, token string, body any, onFragment func(string)) (string, error) {
	resp, err := c.http.DoStream(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    c.cfg.Paths.Chat,
		Headers: httpclient.StreamHeaders(),
		Body:    body,
		Auth:    httpclient.BearerAuth(token),
	})
	if err != nil {
		return "", errors.Transport("stream", err)
	}
	defer func() { _ = resp.Close() }()

	return ReadStream(ctx, resp.SSE, NewStreamDecoder(c.log), onFragment)
}

// Generate posts an image generation body and returns the image url.
func (c *Client) Generate(ctx context.Context, token string, body ImageRequest) (string, error) {
	raw, err := c.post(ctx, "image", c.cfg.Paths.Images, token, body)
	if err != nil {
		return "", err
	}
	return ParseImage(raw)
}

// Poller returns a poller reading this client's async results with token.
func (c *Client) Poller(token string, p Poller) *Poller {
	p.Fetch = func(ctx context.Context, handle TaskHandle) ([]byte, error) {
		return c.Result(ctx, token, handle)
	}
	if p.Log == nil {
		p.Log = c.log
	}
	return &p
}

func (c *Client) post(ctx context.Context, op, path, token string, body any) ([]byte, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
		Auth:   httpclient.BearerAuth(token),
	})
	if err != nil {
		appErr := errors.Transport(op, err)
		var he *httpclient.Error
		if stderrors.As(err, &he) {
			appErr = appErr.WithDetail("status", he.StatusCode)
			if he.RemoteCode != "" {
				appErr = appErr.WithDetail("remote_code", he.RemoteCode)
			}
		}
		switch {
		case httpclient.IsAuth(err):
			c.log.Warn("api rejected the token; check the API key", logger.Fields(logger.FieldOperation, op))
		case httpclient.IsRateLimit(err):
			c.log.Warn("api rate limit reached", logger.Fields(logger.FieldOperation, op))
		case httpclient.IsTimeout(err):
			c.log.Warn("api request timed out", logger.Fields(logger.FieldOperation, op))
		}
		return nil, appErr
	}
	return resp.Body, nil
}
