package httpclient

import (
	"net/http"

	"github.com/kbukum/glmkit/httpclient/sse"
)

// Request is one call against the API. Path is joined to Config.BaseURL, or
// used as an absolute URL when BaseURL is empty. Body may be an io.Reader,
// []byte or string; anything else is sent as JSON.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   map[string]string
	Body    any
	// Auth replaces Config.Auth for this call.
	Auth *AuthConfig
}

// Response holds a fully read reply. Headers keep the first value of each
// header.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// StreamResponse is an open streaming reply. Callers must Close it.
type StreamResponse struct {
	StatusCode int
	Headers    map[string]string
	// SSE reads the body as Server-Sent Events. The API does not always
	// label its streams text/event-stream, so every stream is read this way.
	SSE sse.Reader

	body *http.Response
}

// Close releases the connection. Closing the SSE reader closes the body.
func (r *StreamResponse) Close() error {
	switch {
	case r.SSE != nil:
		return r.SSE.Close()
	case r.body != nil && r.body.Body != nil:
		return r.body.Body.Close()
	}
	return nil
}
