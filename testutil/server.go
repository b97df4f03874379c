package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// APIPrefix is the path the fake serves the v4 API under.
const APIPrefix = "/api/paas/v4/"

// Behavior controls the fake's replies.
type Behavior struct {
	// ChatReply is the content of non-streaming completions.
	ChatReply string
	// Fragments are the delta contents of a streamed reply, in order.
	Fragments []string
	// TaskID is returned by async submit.
	TaskID string
	// PendingPolls is how many result polls answer PROCESSING before SUCCESS.
	PendingPolls int
	// FailTask makes result polls answer FAIL.
	FailTask bool
	// AsyncReply is the content of a finished async task.
	AsyncReply string
	// ImageURL is the url of generated images.
	ImageURL string
	// Status, when non-zero, is written instead of any reply.
	Status int
}

// DefaultBehavior is the fake's starting behavior.
func DefaultBehavior() Behavior {
	return Behavior{
		ChatReply:    "sync reply",
		Fragments:    []string{"A", "B"},
		TaskID:       "task-1",
		PendingPolls: 2,
		AsyncReply:   "async reply",
		ImageURL:     "https://img.example/fox.png",
	}
}

// Request is one recorded call.
type Request struct {
	Method        string
	Path          string // relative to APIPrefix
	Body          string
	Authorization string
	Accept        string
	UserAgent     string
}

// Server is a fake bigmodel API backed by httptest.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	behavior Behavior
	requests []Request
	polls    int
}

// NewServer starts a fake that is closed when the test ends.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{behavior: DefaultBehavior()}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	tb.Cleanup(s.srv.Close)
	return s
}

// URL is the server root.
func (s *Server) URL() string { return s.srv.URL }

// BaseURL is the API base to configure clients with.
func (s *Server) BaseURL() string { return s.srv.URL + APIPrefix }

// Set changes the behavior for subsequent requests.
func (s *Server) Set(fn func(*Behavior)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.behavior)
}

// Reset restores DefaultBehavior and forgets every recorded request.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.behavior = DefaultBehavior()
	s.requests = nil
	s.polls = 0
}

// Requests returns a snapshot of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Paths returns "<METHOD> <path>" for each recorded request.
func (s *Server) Paths() []string {
	reqs := s.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method + " " + r.Path
	}
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, APIPrefix)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          path,
		Body:          string(raw),
		Authorization: r.Header.Get("Authorization"),
		Accept:        r.Header.Get("Accept"),
		UserAgent:     r.Header.Get("User-Agent"),
	})
	b := s.behavior
	if strings.HasPrefix(path, "async-result/") {
		s.polls++
	}
	polls := s.polls
	s.mu.Unlock()

	if b.Status != 0 {
		w.WriteHeader(b.Status)
		_, _ = io.WriteString(w, `{"error":{"code":"1000","message":"fake failure"}}`)
		return
	}

	switch {
	case path == "chat/completions" && isStream(raw):
		writeStream(w, b.Fragments)
	case path == "chat/completions":
		writeJSON(w, map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": b.ChatReply}}},
		})
	case path == "async/chat/completions":
		writeJSON(w, map[string]any{"id": b.TaskID, "task_status": "PROCESSING"})
	case path == "async-result/"+b.TaskID:
		switch {
		case b.FailTask:
			writeJSON(w, map[string]any{"id": b.TaskID, "task_status": "FAIL"})
		case polls <= b.PendingPolls:
			writeJSON(w, map[string]any{"id": b.TaskID, "task_status": "PROCESSING"})
		default:
			writeJSON(w, map[string]any{
				"id":          b.TaskID,
				"task_status": "SUCCESS",
				"choices":     []any{map[string]any{"message": map[string]any{"content": b.AsyncReply}}},
			})
		}
	case path == "images/generations":
		writeJSON(w, map[string]any{"data": []any{map[string]any{"url": b.ImageURL}}})
	default:
		http.NotFound(w, r)
	}
}

func isStream(body []byte) bool {
	var req struct {
		Stream bool `json:"stream"`
	}
	return json.Unmarshal(body, &req) == nil && req.Stream
}

func writeStream(w http.ResponseWriter, fragments []string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)
	for _, f := range fragments {
		chunk, _ := json.Marshal(map[string]any{
			"choices": []any{map[string]any{"delta": map[string]any{"content": f}}},
		})
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		if flusher != nil {
			flusher.Flush()
		}
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
