package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/kbukum/glmkit/errors"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "history.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("new file should be empty, size=%d", info.Size())
	}
	turns, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if turns == nil || len(turns) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", turns)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open("  "); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestAppend_LineFormat(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.Append(ctx, "user", "hi"); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, "assistant", "a<b> & \"c\""); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"role":"user","content":"hi"},` + "\n" +
		`{"role":"assistant","content":"a<b> & \"c\""},` + "\n"
	if string(data) != want {
		t.Errorf("file =\n%s\nwant\n%s", data, want)
	}
}

func TestAppendExchange_Order(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := s.AppendExchange(ctx,
			Turn{Role: "user", Content: fmt.Sprintf("q%d", i)},
			Turn{Role: "assistant", Content: fmt.Sprintf("a%d", i)},
		)
		if err != nil {
			t.Fatal(err)
		}
	}
	turns, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 6 {
		t.Fatalf("len = %d", len(turns))
	}
	for i := 0; i < 3; i++ {
		u, a := turns[2*i], turns[2*i+1]
		if u.Role != "user" || u.Content != fmt.Sprintf("q%d", i) {
			t.Errorf("turn %d = %+v", 2*i, u)
		}
		if a.Role != "assistant" || a.Content != fmt.Sprintf("a%d", i) {
			t.Errorf("turn %d = %+v", 2*i+1, a)
		}
	}
}

func TestAppendExchange_ConcurrentPairsStayAdjacent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.AppendExchange(ctx,
				Turn{Role: "user", Content: fmt.Sprintf("%d", i)},
				Turn{Role: "assistant", Content: fmt.Sprintf("%d", i)},
			)
		}(i)
	}
	wg.Wait()

	turns, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 40 {
		t.Fatalf("len = %d", len(turns))
	}
	for i := 0; i < len(turns); i += 2 {
		if turns[i].Role != "user" || turns[i+1].Role != "assistant" || turns[i].Content != turns[i+1].Content {
			t.Fatalf("exchange split at %d: %+v %+v", i, turns[i], turns[i+1])
		}
	}
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	content := strings.Join([]string{
		`{"role":"user","content":"one"},`,
		`not json`,
		``,
		`{"role":"assistant","content":"two"}`,
		`{"role":"user",`,
		`  {"role":"user","content":"three"},  `,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	turns, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one", "two", "three"}
	if len(turns) != len(want) {
		t.Fatalf("turns = %+v", turns)
	}
	for i, w := range want {
		if turns[i].Content != w {
			t.Errorf("turn %d = %q, want %q", i, turns[i].Content, w)
		}
	}
}

func TestLast(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for _, c := range []string{"a", "b", "c"} {
		if err := s.Append(ctx, "user", c); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		n    int
		want []string
	}{
		{0, nil},
		{1, []string{"c"}},
		{2, []string{"b", "c"}},
		{10, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			got, err := s.Last(ctx, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %+v", got)
			}
			for i := range got {
				if got[i].Content != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i].Content, tt.want[i])
				}
			}
		})
	}
}

func TestClose(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "h.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal("second Close should be a no-op")
	}
	if err := s.Append(context.Background(), "user", "x"); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSessionPath(t *testing.T) {
	id := NewSessionID()
	if len(id) != 36 {
		t.Errorf("session id %q is not a uuid", id)
	}
	if got := SessionPath("sessions", id); got != filepath.Join("sessions", id+".jsonl") {
		t.Errorf("SessionPath = %q", got)
	}
	if NewSessionID() == id {
		t.Error("session ids must differ")
	}
}
