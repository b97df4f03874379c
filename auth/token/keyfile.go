package token

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/glmkit/errors"
)

// DefaultKeyFile is where the CLI keeps the API key between runs.
const DefaultKeyFile = "chatglm_api_key.txt"

// ReadKeyFile returns the credential stored on the first line of path.
// A missing file reports ok=false without an error.
func ReadKeyFile(path string) (cred Credential, ok bool, err error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, errors.ConfigRead(path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Credential{}, false, errors.ConfigRead(path, err)
		}
		return Credential{}, false, nil
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return Credential{}, false, nil
	}
	cred, err = ParseCredential(line)
	if err != nil {
		return Credential{}, false, err
	}
	return cred, true, nil
}

// WriteKeyFile stores cred on a single line, readable only by the owner.
func WriteKeyFile(path string, cred Credential) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Internal(err)
		}
	}
	if err := os.WriteFile(path, []byte(cred.String()+"\n"), 0o600); err != nil {
		return errors.Internal(err)
	}
	return nil
}
