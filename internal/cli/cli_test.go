package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chepyr/tareas/internal/models"
	"github.com/chepyr/tareas/internal/server/db"
	"github.com/chepyr/tareas/internal/server/handlers"
	"github.com/chepyr/tareas/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t           *testing.T
	url         string
	configPath  string
	sessionPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))

	srv := httptest.NewServer(handlers.NewRouter(&handlers.Handler{
		UserRepo:  db.NewUserRepository(conn),
		TaskRepo:  db.NewTaskRepository(conn),
		JWTSecret: []byte("cli-test-secret-0123456789abcdefgh"),
		Logger:    zerolog.Nop(),
	}, nil))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	h := &harness{
		t:           t,
		url:         srv.URL,
		configPath:  filepath.Join(dir, "config.yaml"),
		sessionPath: filepath.Join(dir, "session.json"),
	}
	content := fmt.Sprintf("api_url: %s\ntimeout: 5s\nsession_file: %s\n", h.url, h.sessionPath)
	require.NoError(t, os.WriteFile(h.configPath, []byte(content), 0o600))
	return h
}

// run executes one CLI invocation, answering prompts from stdin.
func (h *harness) run(stdin string, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	a := &app{in: strings.NewReader(stdin), out: &out, errOut: &errOut}
	root := newRootCmd(a)
	root.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, err := h.run(stdin, args...)
	require.NoError(h.t, err, "tareas %s", strings.Join(args, " "))
	return out
}

func (h *harness) listJSON() []models.Task {
	h.t.Helper()
	var tasks []models.Task
	require.NoError(h.t, json.Unmarshal([]byte(h.mustRun("", "list", "--format", "json")), &tasks))
	return tasks
}

func TestCLI_TaskCommandsRequireLogin(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{{"list"}, {"whoami"}, {"create", "-t", "Title", "-d", "description"}, {"toggle", "x"}} {
		_, err := h.run("", args...)
		assert.ErrorIs(t, err, errNotLoggedIn, "tareas %s", strings.Join(args, " "))
	}
}

func TestCLI_LoginCreatesAccountWhenConfirmed(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("y\n", "login", "new@example.com")
	assert.Contains(t, out, "No account found for new@example.com")
	assert.Contains(t, out, "account created")
	assert.Contains(t, out, "logged in as new@example.com")

	assert.Contains(t, h.mustRun("", "whoami"), "new@example.com")

	_, err := h.run("", "login", "other@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already logged in as new@example.com")

	h.mustRun("", "logout")
	out = h.mustRun("", "login", "new@example.com")
	assert.NotContains(t, out, "account created")
	assert.Contains(t, out, "logged in as new@example.com")
}

func TestCLI_LoginDeclined(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("n\n", "login", "new@example.com")
	assert.Contains(t, out, "login cancelled")

	_, err := h.run("", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_LoginInvalidEmail(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "login", "not-an-email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email: enter a valid email address")
}

func TestCLI_TaskLifecycle(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "login", "--yes", "owner@example.com")

	assert.Contains(t, h.mustRun("", "list"), "no tasks yet")
	assert.Contains(t, h.mustRun("", "create", "--title", "Buy milk", "--description", "two litres"), "task created")

	tasks := h.listJSON()
	require.Len(t, tasks, 1)
	id := tasks[0].ID
	assert.Equal(t, models.StatusPending, tasks[0].Status)

	assert.Contains(t, h.mustRun("", "toggle", id), "task marked completed")
	assert.Contains(t, h.mustRun("", "edit", id, "--title", "Buy oat milk"), "task updated")

	table := h.mustRun("", "list")
	assert.Contains(t, table, "Buy oat milk")
	assert.Contains(t, table, "completed")
	assert.Contains(t, table, "0 pending, 1 completed")

	yamlOut := h.mustRun("", "list", "-o", "yaml")
	assert.Contains(t, yamlOut, "title: Buy oat milk")
	assert.Contains(t, yamlOut, "description: two litres")

	assert.Contains(t, h.mustRun("n\n", "delete", id), "delete cancelled")
	assert.Len(t, h.listJSON(), 1)

	assert.Contains(t, h.mustRun("", "delete", id, "--yes"), "task deleted")
	assert.Empty(t, h.listJSON())
}

func TestCLI_InvalidTaskInput(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "login", "--yes", "owner@example.com")

	_, err := h.run("", "create", "--title", "ab", "--description", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title: minimum 3 characters")
	assert.Contains(t, err.Error(), "description: minimum 5 characters")

	_, err = h.run("", "edit", "some-id")
	assert.ErrorContains(t, err, "nothing to change")

	_, err = h.run("", "toggle", "missing-id")
	assert.ErrorContains(t, err, `no task with id "missing-id"`)

	_, err = h.run("", "list", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	assert.Empty(t, h.listJSON())
}

func TestCLI_RejectedSessionAsksForLogin(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "login", "--yes", "owner@example.com")

	session.NewFileStore(h.sessionPath, zerolog.Nop()).Save("revoked-token")

	_, err := h.run("", "list")
	assert.ErrorIs(t, err, errExpired)

	_, err = h.run("", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_ConfigShow(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("", "--api-url", "http://override.example.com", "config", "show")
	assert.Contains(t, out, h.configPath)
	assert.Contains(t, out, "api_url: http://override.example.com")
	assert.Contains(t, out, "timeout: 5s")
}
