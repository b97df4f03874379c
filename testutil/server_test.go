package testutil_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/kbukum/glmkit/testutil"
)

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

func TestServer_Endpoints(t *testing.T) {
	api := testutil.NewServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   string
	}{
		{"sync", "POST", "chat/completions", `{"stream":false}`, `"content":"sync reply"`},
		{"stream", "POST", "chat/completions", `{"stream":true}`, "data: [DONE]"},
		{"submit", "POST", "async/chat/completions", `{}`, `"id":"task-1"`},
		{"image", "POST", "images/generations", `{}`, `"url":"https://img.example/fox.png"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, tt.method, api.BaseURL()+tt.path, tt.body)
			if code != http.StatusOK || !strings.Contains(body, tt.want) {
				t.Errorf("%d %s", code, body)
			}
		})
	}

	reqs := api.Requests()
	if len(reqs) != len(tests) || reqs[0].Authorization != "Bearer tok" {
		t.Errorf("recorded = %+v", reqs)
	}
}

func TestServer_PollSequence(t *testing.T) {
	api := testutil.NewServer(t)
	want := []string{"PROCESSING", "PROCESSING", "SUCCESS"}
	for i, status := range want {
		_, body := do(t, "GET", api.BaseURL()+"async-result/task-1", "")
		if !strings.Contains(body, status) {
			t.Errorf("poll %d = %s, want %s", i, body, status)
		}
	}

	api.Reset()
	api.Set(func(b *testutil.Behavior) { b.FailTask = true })
	if _, body := do(t, "GET", api.BaseURL()+"async-result/task-1", ""); !strings.Contains(body, "FAIL") {
		t.Errorf("poll = %s", body)
	}
	if n := len(api.Requests()); n != 1 {
		t.Errorf("Reset should forget requests, have %d", n)
	}
}

func TestServer_Status(t *testing.T) {
	api := testutil.NewServer(t)
	api.Set(func(b *testutil.Behavior) { b.Status = http.StatusTooManyRequests })
	if code, _ := do(t, "POST", api.BaseURL()+"chat/completions", "{}"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d", code)
	}
	api.Reset()
	if code, _ := do(t, "GET", api.URL()+"/elsewhere", ""); code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", code)
	}
}
