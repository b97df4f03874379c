package sse

import (
	"io"
	"strings"
	"testing"
)

// mockReadCloser wraps a string reader as an io.ReadCloser.
type mockReadCloser struct {
	*strings.Reader
	closed bool
}

func (m *mockReadCloser) Close() error {
	m.closed = true
	return nil
}

func newMockBody(s string) *mockReadCloser {
	return &mockReadCloser{Reader: strings.NewReader(s)}
}

func collect(t *testing.T, r Reader) []string {
	t.Helper()
	var out []string
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, ev.Data)
	}
}

func TestReader_CompletionChunks(t *testing.T) {
	stream := `data: {"id":"1","choices":[{"index":0,"delta":{"role":"assistant","content":"A"}}]}

data: {"id":"1","choices":[{"index":0,"delta":{"role":"assistant","content":"B"}}]}

data: [DONE]

`
	got := collect(t, NewReader(newMockBody(stream)))
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d: %v", len(got), got)
	}
	if got[2] != "[DONE]" {
		t.Errorf("last event = %q", got[2])
	}
	if !strings.Contains(got[0], `"content":"A"`) {
		t.Errorf("first event = %q", got[0])
	}
}

func TestReader_CRLF(t *testing.T) {
	got := collect(t, NewReader(newMockBody("data: one\r\n\r\ndata: two\r\n\r\n")))
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("got %q", got)
	}
}

func TestReader_EventWithTypeAndID(t *testing.T) {
	r := NewReader(newMockBody("event: message\nid: 42\ndata: payload\n\n"))
	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Event != "message" || ev.ID != "42" || ev.Data != "payload" {
		t.Errorf("event = %+v", ev)
	}
}

func TestReader_MultiLineData(t *testing.T) {
	got := collect(t, NewReader(newMockBody("data: line1\ndata: line2\n\n")))
	if len(got) != 1 || got[0] != "line1\nline2" {
		t.Errorf("got %q", got)
	}
}

func TestReader_SkipsComments(t *testing.T) {
	got := collect(t, NewReader(newMockBody(": keep-alive\ndata: x\n\n")))
	if len(got) != 1 || got[0] != "x" {
		t.Errorf("got %q", got)
	}
}

func TestReader_EmptyStream(t *testing.T) {
	_, err := NewReader(newMockBody("")).Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReader_LastEventWithoutTrailingNewline(t *testing.T) {
	got := collect(t, NewReader(newMockBody("data: tail")))
	if len(got) != 1 || got[0] != "tail" {
		t.Errorf("got %q", got)
	}
}

func TestReader_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	got := collect(t, NewReader(newMockBody("data: "+long+"\n\n")))
	if len(got) != 1 || len(got[0]) != len(long) {
		t.Fatalf("long line not read intact")
	}
}

func TestReader_Close(t *testing.T) {
	body := newMockBody("data: x\n\n")
	r := NewReader(body)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !body.closed {
		t.Error("Close should close the body")
	}
}

func TestParseSSELine(t *testing.T) {
	tests := []struct {
		line, field, value string
	}{
		{"data: hello", "data", "hello"},
		{"data:hello", "data", "hello"},
		{"data:  two spaces", "data", " two spaces"},
		{"event: message", "event", "message"},
		{"retry", "retry", ""},
		{`data: {"a":"b:c"}`, "data", `{"a":"b:c"}`},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f, v := parseSSELine(tt.line)
			if f != tt.field || v != tt.value {
				t.Errorf("parseSSELine(%q) = (%q, %q), want (%q, %q)", tt.line, f, v, tt.field, tt.value)
			}
		})
	}
}
