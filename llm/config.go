package llm

import (
	"net/http"
	"time"

	"github.com/kbukum/glmkit/config"
	"github.com/kbukum/glmkit/resilience"
)

// Config holds the transport settings of a Client.
type Config struct {
	// BaseURL is the API root; endpoint paths are resolved against it.
	BaseURL string
	// Timeout bounds non-streaming calls. Zero means no timeout.
	Timeout time.Duration
	// Paths locates the endpoints relative to BaseURL.
	Paths config.PathsConfig
	// RateLimiter throttles outgoing requests when set.
	RateLimiter *resilience.RateLimiterConfig
	// Transport overrides the HTTP round tripper, mostly for tests.
	Transport http.RoundTripper
}

// ConfigFrom derives a Client configuration from the loaded application
// config.
func ConfigFrom(cfg *config.Config) Config {
	c := Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Paths:   cfg.API.Paths,
	}
	if cfg.API.RateLimit > 0 {
		c.RateLimiter = &resilience.RateLimiterConfig{
			Name:  "bigmodel",
			Rate:  cfg.API.RateLimit,
			Burst: cfg.API.Burst,
		}
	}
	return c
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = config.DefaultBaseURL
	}
	if c.Paths.Chat == "" {
		c.Paths.Chat = "chat/completions"
	}
	if c.Paths.AsyncSubmit == "" {
		c.Paths.AsyncSubmit = "async/chat/completions"
	}
	if c.Paths.AsyncResult == "" {
		c.Paths.AsyncResult = "async-result/"
	}
	if c.Paths.Images == "" {
		c.Paths.Images = "images/generations"
	}
}
