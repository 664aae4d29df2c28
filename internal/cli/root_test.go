package cli

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/stickyboard/internal/apperror"
	"github.com/sakif/stickyboard/internal/config"
	"github.com/sakif/stickyboard/internal/server"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
	return dir
}

func startServer(t *testing.T) string {
	t.Helper()
	cfg := config.Config{
		DBPath:      ":memory:",
		JWTSecret:   "cli-test-secret-0123456789",
		AdminEmails: []string{"admin@example.com"},
	}
	srv, err := server.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts.URL
}

// run executes one notesctl invocation against serverURL.
func run(t *testing.T, serverURL, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test", "today")
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--server", serverURL))
	err := root.Execute()
	return out.String(), err
}

func TestRoot_Version(t *testing.T) {
	root := NewRootCmd("1.2.3", "2026-01-02")
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "notesctl 1.2.3 (2026-01-02)\n", out.String())
}

func TestRoot_ServerURLFromEnv(t *testing.T) {
	t.Setenv("NOTES_SERVER_URL", "http://notes.internal:9000")
	root := NewRootCmd("dev", "unknown")
	f := root.PersistentFlags().Lookup("server")
	require.NotNil(t, f)
	assert.Equal(t, "http://notes.internal:9000", f.DefValue)
}

func TestNotes_RequiresLogin(t *testing.T) {
	withTempHome(t)
	url := startServer(t)

	_, err := run(t, url, "", "notes", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_EndToEnd(t *testing.T) {
	home := withTempHome(t)
	url := startServer(t)

	out, err := run(t, url, "admin@example.com\npassword123\n", "auth", "register")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered as admin@example.com (admin)")

	info, err := os.Stat(filepath.Join(home, ".stickyboard_token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	out, err = run(t, url, "", "notes", "create", "--body", "buy milk", "--color", "color-blue")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = run(t, url, "", "notes", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "blue")
	assert.Contains(t, out, "buy milk")

	out, err = run(t, url, "", "notes", "move", id, "--dx", "30", "--dy", "15")
	require.NoError(t, err)
	assert.Equal(t, "Moved "+id+" to (40, 25)\n", out)

	out, err = run(t, url, "", "notes", "list")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(id+`\s+blue\s+40,25`), out)

	_, err = run(t, url, "", "notes", "edit", id, "call mom")
	require.NoError(t, err)
	out, err = run(t, url, "", "notes", "list", "--search", "MOM")
	require.NoError(t, err)
	assert.Contains(t, out, "call mom")
	out, err = run(t, url, "", "notes", "list", "--search", "milk")
	require.NoError(t, err)
	assert.NotContains(t, out, id)

	out, err = run(t, url, "", "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@example.com")

	out, err = run(t, url, "", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Notes:   1 total, 1 with text, 0 empty")
	assert.Contains(t, out, "Users:   1 total, 1 admins")

	_, err = run(t, url, "", "notes", "delete", id)
	require.NoError(t, err)
	out, err = run(t, url, "", "notes", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, id)

	_, err = run(t, url, "", "auth", "logout")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, ".stickyboard_token"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCLI_Errors(t *testing.T) {
	withTempHome(t)
	url := startServer(t)

	_, err := run(t, url, "bob@example.com\npassword123\n", "auth", "register")
	require.NoError(t, err)

	_, err = run(t, url, "", "notes", "create", "--color", "color-red")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = run(t, url, "", "users", "list")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = run(t, url, "", "notes", "move", "missing", "--dx", "5")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = run(t, url, "", "notes", "move", "missing", "--steps", "0")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = run(t, url, "bob@example.com\nwrong-password\n", "auth", "login")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = run(t, url, "bob@example.com\npassword123\n", "auth", "register")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
