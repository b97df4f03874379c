package token

import (
	"strings"

	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/validation"
)

// Credential is an API key split into its public id and signing secret.
type Credential struct {
	ID     string
	Secret []byte
}

// ParseCredential splits "<id>.<secret>". Anything other than exactly two
// non-empty parts is an AUTH_ERROR.
func ParseCredential(s string) (Credential, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return Credential{}, errors.Auth("api key must have the form <id>.<secret>").
			WithDetail("parts", len(parts))
	}
	err := validation.NewWithCode(errors.ErrCodeAuth).
		Required("id", parts[0]).
		Required("secret", parts[1]).
		Err()
	if err != nil {
		return Credential{}, err
	}
	return Credential{ID: parts[0], Secret: []byte(parts[1])}, nil
}

// String returns the key in "<id>.<secret>" form.
func (c Credential) String() string {
	return c.ID + "." + string(c.Secret)
}

// Redacted returns the id with the secret masked, for logs.
func (c Credential) Redacted() string {
	return c.ID + ".****"
}
