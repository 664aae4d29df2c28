package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/stickyboard/internal/client"
	"github.com/sakif/stickyboard/internal/dashboard"
)

func newUsersCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Inspect accounts (admin only)"}
	cmd.AddCommand(&cobra.Command{Use: "list", Short: "List users", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		api, err := e.api()
		if err != nil {
			return err
		}
		users, err := api.ListUsers(ctxOf(cmd))
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, u.CreatedAt.Local().Format(time.DateOnly))
		}
		return tw.Flush()
	}})
	return cmd
}

func newDashboardCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show board statistics (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := e.api()
			if err != nil {
				return err
			}
			logger := e.logger(cmd)
			view := client.NewDashboardView(api, logger)
			defer view.Close()

			loadErr := view.Load(ctxOf(cmd))
			notes, users := view.NotesState(), view.UsersState()
			if notes.Err != nil && users.Err != nil {
				return loadErr
			}
			if notes.Err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", notes.Err)
			}
			if users.Err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", users.Err)
			}

			printStats(cmd.OutOrStdout(), view.Stats(time.Now()))
			return nil
		},
	}
}

func printStats(w io.Writer, s dashboard.Stats) {
	fmt.Fprintf(w, "Notes:   %d total, %d with text, %d empty\n", s.TotalNotes, s.WithBody, s.EmptyBody)
	fmt.Fprintf(w, "Created: %d today, %d this week (updated today: %d)\n", s.CreatedToday, s.CreatedThisWeek, s.UpdatedToday)
	fmt.Fprintf(w, "Users:   %d total, %d admins, %d new this week\n", s.TotalUsers, s.Admins, s.UsersCreatedThisWeek)
	if s.TopColor != "" {
		fmt.Fprintf(w, "Top color: %s\n", s.TopColor)
	}
	for _, id := range s.ColorOrder {
		fmt.Fprintf(w, "  %-14s %d\n", id, s.ColorsCount[id])
	}
	fmt.Fprint(w, "Last 7 days:")
	for i := dashboard.ActivityDays - 1; i >= 0; i-- {
		fmt.Fprintf(w, " %d", s.Activity[i])
	}
	fmt.Fprintln(w)
}
