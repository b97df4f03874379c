package httpclient

import "net/http"

// AuthConfig puts a credential on outgoing requests. Scheme and Token make
// up the Authorization header; Apply, when set, runs afterwards and may add
// or override headers.
type AuthConfig struct {
	// Scheme prefixes Token. Empty means "Bearer".
	Scheme string
	// Token is sent as-is. Empty skips the Authorization header.
	Token string
	Apply func(*http.Request)
}

// BearerAuth sends token as a bearer credential. Bigmodel tokens are
// short-lived JWTs, so callers build one per request.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Scheme: "Bearer", Token: token}
}

// CustomAuth runs fn on every request.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Apply: fn}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	if a.Token != "" {
		scheme := a.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}
		req.Header.Set("Authorization", scheme+" "+a.Token)
	}
	if a.Apply != nil {
		a.Apply(req)
	}
}
