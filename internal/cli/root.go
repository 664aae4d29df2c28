// Package cli implements notesctl, the command-line client for a Sticky
// Board server.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/stickyboard/internal/client"
)

const defaultServerURL = "http://localhost:8080"

// env is the state shared by every subcommand.
type env struct {
	serverURL string
	verbose   bool
}

func NewRootCmd(version, buildDate string) *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "notesctl",
		Short:         "Sticky Board CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.serverURL, "server", serverURLFromEnv(), "Server base URL")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(newVersionCmd(version, buildDate))
	root.AddCommand(newAuthCmd(e))
	root.AddCommand(newNotesCmd(e))
	root.AddCommand(newUsersCmd(e))
	root.AddCommand(newDashboardCmd(e))
	return root
}

func serverURLFromEnv() string {
	if v, ok := os.LookupEnv("NOTES_SERVER_URL"); ok && v != "" {
		return v
	}
	return defaultServerURL
}

func (e *env) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if e.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// api returns a client for the configured server carrying the saved token.
func (e *env) api() (*client.API, error) {
	token, err := loadToken()
	if err != nil {
		return nil, err
	}
	api := client.New(e.serverURL)
	api.SetToken(token)
	return api, nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newVersionCmd(version, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "notesctl %s (%s)\n", version, buildDate)
		},
	}
}
