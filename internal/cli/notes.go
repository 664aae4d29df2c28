package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/sakif/stickyboard/internal/apperror"
	"github.com/sakif/stickyboard/internal/client"
	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/notefmt"
	"github.com/sakif/stickyboard/internal/position"
)

type notesCmd struct {
	env *env

	search string
	all    bool
	body   string
	color  string
	dx, dy float64
	steps  int
}

func newNotesCmd(e *env) *cobra.Command {
	n := &notesCmd{env: e}
	cmd := &cobra.Command{Use: "notes", Short: "Manage sticky notes"}

	list := &cobra.Command{Use: "list", Short: "List notes", Args: cobra.NoArgs, RunE: n.list}
	list.Flags().StringVar(&n.search, "search", "", "Only show notes whose body contains this text")
	list.Flags().BoolVar(&n.all, "all", false, "List every user's notes (admin only)")

	create := &cobra.Command{Use: "create", Short: "Create a note", Args: cobra.NoArgs, RunE: n.create}
	create.Flags().StringVar(&n.body, "body", "", "Note text")
	create.Flags().StringVar(&n.color, "color", "", "Palette color id, e.g. color-blue (random if empty)")

	move := &cobra.Command{Use: "move ID", Short: "Drag a note by an offset", Args: cobra.ExactArgs(1), RunE: n.move}
	move.Flags().Float64Var(&n.dx, "dx", 0, "Horizontal distance")
	move.Flags().Float64Var(&n.dy, "dy", 0, "Vertical distance")
	move.Flags().IntVar(&n.steps, "steps", 5, "Pointer moves to replay")
	move.Flags().BoolVar(&n.all, "all", false, "Look the note up among every user's notes (admin only)")

	cmd.AddCommand(list, create, move)
	cmd.AddCommand(&cobra.Command{Use: "edit ID BODY", Short: "Replace a note's text", Args: cobra.ExactArgs(2), RunE: n.edit})
	cmd.AddCommand(&cobra.Command{Use: "delete ID", Short: "Delete a note", Args: cobra.ExactArgs(1), RunE: n.delete})
	return cmd
}

func (n *notesCmd) store(cmd *cobra.Command) (*client.Store, error) {
	api, err := n.env.api()
	if err != nil {
		return nil, err
	}
	return client.NewStore(api, n.env.logger(cmd)), nil
}

func (n *notesCmd) list(cmd *cobra.Command, args []string) error {
	s, err := n.store(cmd)
	if err != nil {
		return err
	}
	if _, err := s.List(ctxOf(cmd), client.ListQuery{All: n.all}); err != nil {
		return err
	}
	printNotes(cmd.OutOrStdout(), s.Search(n.search))
	return nil
}

func (n *notesCmd) create(cmd *cobra.Command, args []string) error {
	in := client.NewNote{Body: n.body}
	if n.color != "" {
		c, ok := notefmt.LookupColor(n.color)
		if !ok {
			return apperror.ValidationFailed("color", fmt.Sprintf("unknown color %q, want one of %s", n.color, paletteIDs()))
		}
		in.Colors = &c
	}

	s, err := n.store(cmd)
	if err != nil {
		return err
	}
	note, err := s.Create(ctxOf(cmd), in)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), note.ID)
	return nil
}

func (n *notesCmd) edit(cmd *cobra.Command, args []string) error {
	s, err := n.store(cmd)
	if err != nil {
		return err
	}
	body := args[1]
	note, err := s.Update(ctxOf(cmd), args[0], client.NotePatch{Body: &body})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", note.ID)
	return nil
}

func (n *notesCmd) delete(cmd *cobra.Command, args []string) error {
	s, err := n.store(cmd)
	if err != nil {
		return err
	}
	if err := s.Remove(ctxOf(cmd), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

// move replays a header drag of (dx, dy) split into steps pointer moves.
// Only the drop is persisted.
func (n *notesCmd) move(cmd *cobra.Command, args []string) error {
	if n.steps < 1 {
		return apperror.ValidationFailed("steps", "steps must be at least 1")
	}
	id := args[0]

	s, err := n.store(cmd)
	if err != nil {
		return err
	}
	if _, err := s.List(ctxOf(cmd), client.ListQuery{All: n.all}); err != nil {
		return err
	}
	surface, err := s.Surface(id)
	if err != nil {
		return err
	}

	const pointer = 1
	board := position.NewBoard()
	board.Attach(id, surface, s)

	start := surface.Offset()
	if _, err := board.PointerDown(pointer, id, start.X, start.Y, position.RegionHeader); err != nil {
		return err
	}
	for i := 1; i <= n.steps; i++ {
		f := float64(i) / float64(n.steps)
		board.PointerMove(pointer, start.X+n.dx*f, start.Y+n.dy*f)
	}
	if err := board.PointerUp(ctxOf(cmd), pointer); err != nil {
		return err
	}

	note, _ := s.Get(id)
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to (%g, %g)\n", id, note.Position.X, note.Position.Y)
	return nil
}

func paletteIDs() string {
	ids := make([]string, 0, len(notefmt.Palette))
	for _, c := range notefmt.Palette {
		ids = append(ids, c.ID)
	}
	return strings.Join(ids, ", ")
}

const previewLen = 40

func printNotes(w io.Writer, notes []model.ParsedNote) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOLOR\tPOSITION\tBODY")
	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\t%g,%g\t%s\n",
			n.ID,
			strings.TrimPrefix(n.Colors.ID, "color-"),
			n.Position.X, n.Position.Y,
			preview(n.Body),
		)
	}
	tw.Flush()
}

func preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= previewLen {
		return body
	}
	r := []rune(body)
	return string(r[:previewLen-1]) + "…"
}
