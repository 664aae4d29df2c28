// Command notesctl is the command-line client for a Sticky Board server.
//
//	notesctl auth login
//	notesctl notes create --body "buy milk" --color color-yellow
//	notesctl notes move <id> --dx 40 --dy 0
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sakif/stickyboard/internal/cli"
)

// Set with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cli.NewRootCmd(version, buildDate)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
