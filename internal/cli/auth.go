package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sakif/stickyboard/internal/client"
)

type authCmd struct {
	env *env
}

func newAuthCmd(e *env) *cobra.Command {
	a := &authCmd{env: e}
	cmd := &cobra.Command{Use: "auth", Short: "Authentication commands"}
	cmd.AddCommand(&cobra.Command{Use: "register", Short: "Register a new account and store its token", Args: cobra.NoArgs, RunE: a.register})
	cmd.AddCommand(&cobra.Command{Use: "login", Short: "Login and store token", Args: cobra.NoArgs, RunE: a.login})
	cmd.AddCommand(&cobra.Command{Use: "logout", Short: "Forget the stored token", Args: cobra.NoArgs, RunE: a.logout})
	return cmd
}

func (a *authCmd) register(cmd *cobra.Command, args []string) error {
	return a.authenticate(cmd, (*client.API).Register, "Registered")
}

func (a *authCmd) login(cmd *cobra.Command, args []string) error {
	return a.authenticate(cmd, (*client.API).Login, "Logged in")
}

type authFunc func(api *client.API, ctx context.Context, email, password string) (*client.AuthResult, error)

func (a *authCmd) authenticate(cmd *cobra.Command, call authFunc, done string) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprint(cmd.OutOrStdout(), "Email: ")
	email, err := readLine(reader)
	if err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	password, err := promptPassword(cmd, reader, "Password: ")
	if err != nil {
		return err
	}

	api := client.New(a.env.serverURL)
	res, err := call(api, ctxOf(cmd), email, password)
	if err != nil {
		return err
	}
	if err := saveToken(res.Token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s as %s (%s)\n", done, res.User.Email, res.User.Role)
	return nil
}

func (a *authCmd) logout(cmd *cobra.Command, args []string) error {
	if err := removeToken(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

// promptPassword reads without echo when stdin is a terminal, and a plain
// line otherwise so the command can be scripted.
func promptPassword(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pass, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		return string(pass), err
	}
	return readLine(reader)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
