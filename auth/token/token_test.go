package token

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/glmkit/clock"
	apperrors "github.com/kbukum/glmkit/errors"
)

const issuedAt = int64(1_700_000_000_123)

func testCred(t *testing.T) Credential {
	t.Helper()
	cred, err := ParseCredential("abc123.s3cr3t")
	if err != nil {
		t.Fatal(err)
	}
	return cred
}

func decode(t *testing.T, seg string) string {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		t.Fatalf("segment %q is not base64url without padding: %v", seg, err)
	}
	return string(raw)
}

func TestParseCredential(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"abc.def", false},
		{"  abc.def\n", false},
		{"abc", true},
		{"a.b.c", true},
		{".def", true},
		{"abc.", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cred, err := ParseCredential(tt.in)
			if tt.wantErr {
				if !apperrors.Is(err, apperrors.ErrCodeAuth) {
					t.Fatalf("expected AUTH_ERROR, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cred.ID != "abc" || string(cred.Secret) != "def" {
				t.Errorf("cred = %+v", cred)
			}
		})
	}
}

func TestCredentialStrings(t *testing.T) {
	cred := testCred(t)
	if cred.String() != "abc123.s3cr3t" {
		t.Errorf("String = %q", cred.String())
	}
	if strings.Contains(cred.Redacted(), "s3cr3t") {
		t.Error("Redacted must hide the secret")
	}
}

func TestIssue_WireFormat(t *testing.T) {
	auth := NewAuthenticator(clock.FixedMillis(issuedAt))
	tok, err := auth.Issue(context.Background(), testCred(t))
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d parts", len(parts))
	}
	if got := decode(t, parts[0]); got != `{"alg":"HS256","sign_type":"SIGN"}` {
		t.Errorf("header = %s", got)
	}
	if got := decode(t, parts[1]); got != `{"api_key":"abc123","exp":5100000000369,"timestamp":1700000000123}` {
		t.Errorf("payload = %s", got)
	}
	if strings.ContainsAny(tok, "=+/") {
		t.Errorf("token must be base64url without padding: %s", tok)
	}
}

func TestIssue_Deterministic(t *testing.T) {
	auth := NewAuthenticator(clock.FixedMillis(issuedAt))
	a, _ := auth.Issue(context.Background(), testCred(t))
	b, _ := auth.Issue(context.Background(), testCred(t))
	if a != b {
		t.Error("same time and credential must give the same token")
	}
}

func TestIssue_Errors(t *testing.T) {
	failing := clock.Func(func(context.Context) (time.Time, error) {
		return time.Time{}, errors.New("ntp down")
	})
	if _, err := NewAuthenticator(failing).Issue(context.Background(), testCred(t)); !apperrors.Is(err, apperrors.ErrCodeAuth) {
		t.Errorf("clock failure: expected AUTH_ERROR, got %v", err)
	}
	if _, err := NewAuthenticator(nil).Issue(context.Background(), Credential{ID: "x"}); !apperrors.Is(err, apperrors.ErrCodeAuth) {
		t.Errorf("empty secret: expected AUTH_ERROR, got %v", err)
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	auth := NewAuthenticator(clock.FixedMillis(issuedAt))
	cred := testCred(t)
	tok, err := auth.Issue(context.Background(), cred)
	if err != nil {
		t.Fatal(err)
	}
	if !auth.Verify(tok, cred) {
		t.Error("issued token must verify")
	}
	if !auth.Verify("  "+tok+"\n", cred) {
		t.Error("surrounding whitespace is trimmed")
	}
	other, _ := ParseCredential("abc123.different")
	if auth.Verify(tok, other) {
		t.Error("token must not verify under another secret")
	}
}

func TestVerify_Tampering(t *testing.T) {
	auth := NewAuthenticator(clock.FixedMillis(issuedAt))
	cred := testCred(t)
	tok, _ := auth.Issue(context.Background(), cred)

	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			continue
		}
		replacement := byte('A')
		if tok[i] == 'A' {
			replacement = 'B'
		}
		tampered := tok[:i] + string(replacement) + tok[i+1:]
		if auth.Verify(tampered, cred) {
			t.Fatalf("tampered token verified (position %d): %s", i, tampered)
		}
	}
}

func TestVerify_Malformed(t *testing.T) {
	auth := NewAuthenticator(clock.FixedMillis(issuedAt))
	cred := testCred(t)
	tok, _ := auth.Issue(context.Background(), cred)
	parts := strings.Split(tok, ".")

	tests := map[string]string{
		"empty":      "",
		"one part":   parts[0],
		"two parts":  parts[0] + "." + parts[1],
		"four parts": tok + ".extra",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if auth.Verify(in, cred) {
				t.Errorf("Verify(%q) = true", in)
			}
		})
	}
	if auth.Verify(tok, Credential{ID: "abc123"}) {
		t.Error("empty secret never verifies")
	}
}

func TestClaims(t *testing.T) {
	auth := NewAuthenticator(clock.FixedMillis(issuedAt))
	tok, _ := auth.Issue(context.Background(), testCred(t))
	p, err := Claims(tok)
	if err != nil {
		t.Fatal(err)
	}
	if p.APIKey != "abc123" || p.Timestamp != issuedAt || p.Exp != 3*issuedAt {
		t.Errorf("claims = %+v", p)
	}
	if _, err := Claims("not-a-token"); !apperrors.Is(err, apperrors.ErrCodeAuth) {
		t.Errorf("expected AUTH_ERROR, got %v", err)
	}
}

func TestKeyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", DefaultKeyFile)

	if _, ok, err := ReadKeyFile(path); ok || err != nil {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}
	if err := WriteKeyFile(path, testCred(t)); err != nil {
		t.Fatal(err)
	}
	cred, ok, err := ReadKeyFile(path)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if cred.String() != "abc123.s3cr3t" {
		t.Errorf("cred = %q", cred.String())
	}
}
