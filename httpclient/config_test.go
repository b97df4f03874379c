package httpclient

import (
	"errors"
	"testing"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Headers["Content-Type"] != "application/json;charset=UTF-8" {
		t.Errorf("Content-Type default = %q", cfg.Headers["Content-Type"])
	}
	if cfg.Headers["Accept"] != "application/json" {
		t.Errorf("Accept default = %q", cfg.Headers["Accept"])
	}

	custom := Config{Headers: map[string]string{"X": "y"}}
	custom.ApplyDefaults()
	if len(custom.Headers) != 1 {
		t.Errorf("explicit headers should be kept, got %v", custom.Headers)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (&Config{}).Validate(); err != nil {
		t.Errorf("zero timeout is valid: %v", err)
	}
	if err := (&Config{Timeout: -1}).Validate(); err == nil {
		t.Error("negative timeout should fail")
	}
}

func TestStreamHeaders(t *testing.T) {
	h := StreamHeaders()
	if h["Accept"] != "text/event-stream" || h["Cache-Control"] != "no-cache" || h["Connection"] != "keep-alive" {
		t.Errorf("stream headers = %v", h)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.RetryIf == nil {
		t.Fatal("RetryIf must be set")
	}
	if !cfg.RetryIf(NewServerError(503, nil)) {
		t.Error("5xx should be retried")
	}
	if cfg.RetryIf(NewAuthError(401, nil)) {
		t.Error("401 must not be retried")
	}
	if cfg.RetryIf(errors.New("plain")) {
		t.Error("non-httpclient errors are not retried")
	}
}
