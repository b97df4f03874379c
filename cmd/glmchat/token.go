package main

import (
	"bufio"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kbukum/glmkit/auth/token"
	"github.com/kbukum/glmkit/engine"
	"github.com/kbukum/glmkit/logger"
)

// newTokenCmd issues one token with the configured credential and prints it
// with its decoded claims. The API key secret is never printed.
func newTokenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token and show its claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			cred, err := resolveCredential(cfg.KeyFile, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
			if err != nil {
				return err
			}

			auth := token.NewAuthenticator(engine.ClockFromConfig(cfg, logger.GetGlobalLogger()))
			tok, err := auth.Issue(cmd.Context(), cred)
			if err != nil {
				return err
			}
			claims, err := token.Claims(tok)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Token    string        `json:"token"`
				Verified bool          `json:"verified"`
				Claims   token.Payload `json:"claims"`
			}{tok, auth.Verify(tok, cred), claims})
		},
	}
}
