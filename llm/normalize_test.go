package llm

import (
	"errors"
	"testing"

	apperrors "github.com/kbukum/glmkit/errors"
)

func TestParseCompletion(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"ok", `{"choices":[{"message":{"role":"assistant","content":"Hello"}}]}`, "Hello", nil},
		{"escaped quotes removed", `{"choices":[{"message":{"content":"say \"hi\""}}]}`, "say hi", nil},
		{"no choices", `{"id":"x"}`, "", ErrChoicesNotFound},
		{"empty choices", `{"choices":[]}`, "", ErrChoiceNotFound},
		{"no message", `{"choices":[{}]}`, "", ErrMessageNotFound},
		{"no content", `{"choices":[{"message":{"role":"assistant"}}]}`, "", ErrContentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCompletion([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if !apperrors.Is(err, apperrors.ErrCodeResponseShape) {
					t.Errorf("expected RESPONSE_SHAPE_ERROR, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ParseCompletion([]byte("not json")); !apperrors.Is(err, apperrors.ErrCodeResponseShape) {
		t.Errorf("invalid JSON: %v", err)
	}
}

func TestParseImage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"ok", `{"created":1,"data":[{"url":"https://img/1.png"}]}`, "https://img/1.png", nil},
		{"no data", `{}`, "", ErrDataNotFound},
		{"empty data", `{"data":[]}`, "", ErrImageNotFound},
		{"no url", `{"data":[{}]}`, "", ErrURLNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseImage([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got %q, %v", got, err)
			}
		})
	}
}

func TestParseTaskID(t *testing.T) {
	h, err := ParseTaskID([]byte(`{"id":"task-1","task_status":"PROCESSING"}`))
	if err != nil {
		t.Fatal(err)
	}
	if h.TaskID != "task-1" || h.Status != StatusProcessing {
		t.Errorf("handle = %+v", h)
	}

	_, err = ParseTaskID([]byte(`{"id":"req-9","task_status":"FAIL"}`))
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeResponseShape {
		t.Fatalf("expected RESPONSE_SHAPE_ERROR, got %v", err)
	}
	if appErr.Details["id"] != "req-9" || appErr.Details["task_status"] != "FAIL" {
		t.Errorf("details = %v", appErr.Details)
	}

	if _, err := ParseTaskID([]byte(`{}`)); !errors.Is(err, ErrTaskIDNotFound) {
		t.Errorf("missing id: %v", err)
	}
}

func TestTaskStatus(t *testing.T) {
	s, err := TaskStatus([]byte(`{"task_status":"success"}`))
	if err != nil || s != "success" {
		t.Errorf("got %q, %v", s, err)
	}
	if _, err := TaskStatus([]byte(`{"id":"x"}`)); !errors.Is(err, ErrTaskStatusNotFound) {
		t.Errorf("missing status: %v", err)
	}
}

func TestCleanup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "hello world", "hello world"},
		{"quotes", `"quoted"`, "quoted"},
		{"double escaped newline", `a\n\nb`, "a\nb"},
		{"nn pairs", `x\nn\nny`, "x\ny"},
		{"escaped backslash nn", `p\\nnq`, "p\nq"},
		{"single escaped newline", `a\nb`, "a\nb"},
		{"backslashes dropped", `a\\b`, "ab"},
		{"unicode", `\u4f60\u597d`, "你好"},
		{"real newlines kept", "line1\nline2", "line1\nline2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cleanup(tt.in); got != tt.want {
				t.Errorf("Cleanup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanup_IdempotentOnCleanInput(t *testing.T) {
	for _, in := range []string{"", "plain text", "你好, world!", "multi\nline\n"} {
		once := Cleanup(in)
		if once != in {
			t.Errorf("Cleanup(%q) = %q, want unchanged", in, once)
		}
		if Cleanup(once) != once {
			t.Errorf("Cleanup not idempotent on %q", in)
		}
	}
}

func TestDecodeUnicodeEscapes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`\u4f60\u597d`, "你好"},
		{`say \u0048i`, "say Hi"},
		{`\ud83d\ude00!`, "😀!"},
		{`lone \ud83d here`, `lone \ud83d here`},
		{`no escapes`, `no escapes`},
		{`\u12`, `\u12`},
	}
	for _, tt := range tests {
		if got := DecodeUnicodeEscapes(tt.in); got != tt.want {
			t.Errorf("DecodeUnicodeEscapes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanupFragment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "hello world", "hello world"},
		{"nn", `x\nny`, "x\ny"},
		{"doubled backslash newline", `a\\nb`, "a\nb"},
		{"escaped newline pair", `a\n\nb`, "a\nb"},
		{"single backslash removed", `a\b`, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanupFragment(tt.in); got != tt.want {
				t.Errorf("CleanupFragment(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
	// The whole-reply order keeps `\nny` intact where the fragment order does not.
	if got := Cleanup(`x\nny`); got != "x\nny" {
		t.Errorf("Cleanup(x\\nny) = %q", got)
	}
}
