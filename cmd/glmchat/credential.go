package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kbukum/glmkit/auth/token"
	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/logger"
)

// EnvAPIKey names the variable consulted when the key file has no credential.
const EnvAPIKey = "GLM_API_KEY"

// resolveCredential finds the API credential: the key file first, then
// GLM_API_KEY, then an interactive prompt whose answer is saved to the key
// file for the next run. The prompt reads one line from in; anything after
// it stays buffered in in for the caller.
func resolveCredential(keyFile string, in *bufio.Reader, out io.Writer) (token.Credential, error) {
	log := logger.WithComponent("glmchat")

	cred, ok, err := token.ReadKeyFile(keyFile)
	if err != nil {
		return token.Credential{}, err
	}
	if ok {
		log.Debug("credential loaded", logger.Fields(logger.FieldPath, keyFile, "credential", cred.Redacted()))
		return cred, nil
	}

	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return token.ParseCredential(v)
	}

	fmt.Fprint(out, "API key (<id>.<secret>): ")
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return token.Credential{}, errors.Auth("no API key given")
	}
	cred, err = token.ParseCredential(strings.TrimSpace(line))
	if err != nil {
		return token.Credential{}, err
	}
	if err := token.WriteKeyFile(keyFile, cred); err != nil {
		log.Warn("could not save API key", logger.MergeWithError(logger.Fields(logger.FieldPath, keyFile), err))
	}
	return cred, nil
}
