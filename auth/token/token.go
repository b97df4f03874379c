package token

import (
	"context"
	"crypto/hmac"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/glmkit/clock"
	"github.com/kbukum/glmkit/errors"
)

// SignType is the non-standard header field the API requires.
const SignType = "SIGN"

// expFactor reproduces the API's historical exp = 3 * timestamp claim.
const expFactor = 3

// Payload is the token's claim set. Field order matches the wire format.
type Payload struct {
	APIKey    string `json:"api_key"`
	Exp       int64  `json:"exp"`
	Timestamp int64  `json:"timestamp"`
}

// The API ignores registered claims; Payload only satisfies gojwt.Claims so it
// can be signed and decoded by the library.

func (Payload) GetExpirationTime() (*gojwt.NumericDate, error) { return nil, nil }
func (Payload) GetIssuedAt() (*gojwt.NumericDate, error)       { return nil, nil }
func (Payload) GetNotBefore() (*gojwt.NumericDate, error)      { return nil, nil }
func (Payload) GetIssuer() (string, error)                     { return "", nil }
func (Payload) GetSubject() (string, error)                    { return "", nil }
func (Payload) GetAudience() (gojwt.ClaimStrings, error)       { return nil, nil }

// Authenticator issues and verifies tokens using a time source.
type Authenticator struct {
	clock  clock.Source
	method *gojwt.SigningMethodHMAC
}

// NewAuthenticator creates an Authenticator reading time from src.
func NewAuthenticator(src clock.Source) *Authenticator {
	if src == nil {
		src = clock.System{}
	}
	return &Authenticator{clock: src, method: gojwt.SigningMethodHS256}
}

// Issue builds and signs a token for cred at the current time.
func (a *Authenticator) Issue(ctx context.Context, cred Credential) (string, error) {
	if cred.ID == "" || len(cred.Secret) == 0 {
		return "", errors.Auth("credential id and secret are required")
	}
	now, err := a.clock.Now(ctx)
	if err != nil {
		return "", errors.Auth("time source unavailable").WithCause(err)
	}
	ts := now.UnixMilli()

	tok := gojwt.NewWithClaims(a.method, Payload{
		APIKey:    cred.ID,
		Exp:       ts * expFactor,
		Timestamp: ts,
	})
	tok.Header = map[string]interface{}{
		"alg":       a.method.Alg(),
		"sign_type": SignType,
	}
	signed, err := tok.SignedString(cred.Secret)
	if err != nil {
		return "", errors.Auth("sign token").WithCause(err)
	}
	return signed, nil
}

// Verify recomputes the signature over the first two segments and compares
// it with the third. It never checks exp and never fails loudly: anything
// malformed is simply not valid.
func (a *Authenticator) Verify(token string, cred Credential) bool {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || len(cred.Secret) == 0 {
		return false
	}
	sig, err := a.method.Sign(parts[0]+"."+parts[1], cred.Secret)
	if err != nil {
		return false
	}
	// Compare encoded forms: decoding first would accept variants that differ
	// only in unused trailing bits.
	expected := new(gojwt.Token).EncodeSegment(sig)
	return hmac.Equal([]byte(expected), []byte(parts[2]))
}

// Claims decodes a token's payload without checking the signature.
func Claims(token string) (Payload, error) {
	var p Payload
	if _, _, err := gojwt.NewParser().ParseUnverified(strings.TrimSpace(token), &p); err != nil {
		return Payload{}, errors.Auth("malformed token").WithCause(err)
	}
	return p, nil
}
