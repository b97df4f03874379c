package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/glmkit/config"
	"github.com/kbukum/glmkit/dispatch"
	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/history"
	"github.com/kbukum/glmkit/logger"
	"github.com/kbukum/glmkit/observability"
	"github.com/kbukum/glmkit/version"
)

// options carries the persistent flags.
type options struct {
	configFile string
	envFile    string
	model      string
	session    string
	mode       string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "glmchat",
		Short:         "Chat with bigmodel v4 models from the terminal",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (searched for when empty)")
	flags.StringVar(&opts.envFile, "env-file", "", ".env file with GLM_* overrides")
	flags.StringVarP(&opts.model, "model", "m", "", `chat model family: "glm-3" or "glm-4"`)
	flags.StringVarP(&opts.session, "session", "s", "", `per-session history id under history.dir; "new" generates one`)
	root.Flags().StringVar(&opts.mode, "mode", "sync", "initial mode: sync, async, sse, glm4v or cogview3")

	root.AddCommand(newTokenCmd(opts), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.Get().String())
		},
	}
}

// loadConfig reads the config and initializes the global logger from it.
func loadConfig(opts *options) (*config.Config, error) {
	var loaderOpts []config.LoaderOption
	if opts.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(opts.envFile))
	}
	cfg, err := config.Load(opts.configFile, loaderOpts...)
	if err != nil {
		return nil, err
	}
	if opts.model != "" {
		cfg.DefaultFamily = opts.model
	}
	logger.Init(&cfg.Logging)
	return cfg, nil
}

// sessionID resolves the --session flag.
func sessionID(flag string) string {
	if flag == "new" {
		return history.NewSessionID()
	}
	return flag
}

// initialMode parses the --mode flag.
func initialMode(flag string) (dispatch.Mode, error) {
	m, ok := dispatch.ParseMode(flag)
	if !ok {
		return dispatch.Sync, errors.InvalidInput(fmt.Sprintf("unknown mode %q", flag))
	}
	return m, nil
}

func runChat(cmd *cobra.Command, opts *options) error {
	mode, err := initialMode(opts.mode)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	log := logger.WithComponent("glmchat")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := observability.SetupFromConfig(ctx, cfg)
	if err != nil {
		log.Warn("telemetry disabled", logger.Fields(logger.FieldError, err.Error()))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	// The key prompt and the input loop share one buffer.
	in := bufio.NewReader(cmd.InOrStdin())
	cred, err := resolveCredential(cfg.KeyFile, in, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	sh := &shell{
		cfg:       cfg,
		in:        in,
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
		log:       log,
		sessionID: sessionID(opts.session),
		mode:      mode,
	}
	return sh.run(ctx, cred)
}
