// Command glmchat is an interactive shell for the bigmodel v4 API.
//
// Each input line is dispatched to a mode: sync chat, async chat polled to
// completion, streamed chat, image understanding or image generation. A bare
// mode keyword switches the sticky mode; "<mode>:<text>" applies a mode to one
// line only; "exit" or "quit" ends the session.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
