package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/kbukum/glmkit/auth/token"
	"github.com/kbukum/glmkit/config"
	"github.com/kbukum/glmkit/dispatch"
	"github.com/kbukum/glmkit/engine"
	"github.com/kbukum/glmkit/logger"
)

// shell reads lines from in and prints replies to out until EOF, an exit
// keyword or cancellation.
type shell struct {
	cfg       *config.Config
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	log       *logger.Logger
	sessionID string
	mode      dispatch.Mode

	// streaming is true once the assistant prefix for a live reply is out.
	streaming bool
}

func (s *shell) run(ctx context.Context, cred token.Credential) error {
	eng, err := engine.New(engine.Options{
		Config:      s.cfg,
		Credential:  cred,
		SessionID:   s.sessionID,
		InitialMode: s.mode,
		OnFragment:  s.fragment,
		Logger:      s.log,
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	s.log.Info("session started", logger.Fields(
		logger.FieldSessionID, s.sessionID,
		logger.FieldMode, eng.Dispatcher().Current().String(),
		logger.FieldFamily, eng.Family(),
		logger.FieldPath, eng.History().Path(),
	))

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		s.prompt(eng.Dispatcher().Current())
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		s.streaming = false
		reply, err := eng.Invoke(ctx, line)
		switch {
		case reply.Exit:
			return nil
		case err != nil:
			if s.streaming {
				fmt.Fprintln(s.out)
			}
			fmt.Fprintf(s.errOut, "error: %v\n", err)
		case reply.Switched:
			fmt.Fprintf(s.out, "mode: %s\n", reply.Mode)
		case s.streaming:
			fmt.Fprintln(s.out)
		default:
			fmt.Fprintf(s.out, "%s: %s\n", s.cfg.AssistantName, reply.Text)
		}
	}
}

// fragment prints a streamed fragment as it arrives.
func (s *shell) fragment(f string) {
	if !s.streaming {
		fmt.Fprintf(s.out, "%s: ", s.cfg.AssistantName)
		s.streaming = true
	}
	fmt.Fprint(s.out, f)
}

func (s *shell) prompt(m dispatch.Mode) {
	fmt.Fprintf(s.out, "[%s] > ", m)
}
