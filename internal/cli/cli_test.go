package cli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nhle/taskdesk/internal/cli"
	"github.com/nhle/taskdesk/internal/credential"
	"github.com/nhle/taskdesk/internal/exitcode"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/testutil"
)

type harness struct {
	api    *testutil.FakeAPI
	tokens *credential.MemoryStore
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	f := testutil.NewFakeAPI(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &model.AppConfig{
		API:     model.APIConfig{BaseURL: f.URL(), TimeoutSec: 5},
		Display: model.DisplayConfig{Theme: model.DefaultTheme},
	}
	if err := model.SaveConfig(path, cfg); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	return &harness{api: f, tokens: credential.NewMemoryStore(), config: path}
}

// runCommand runs the CLI with args against the fake API.
func (h *harness) runCommand(t *testing.T, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	env := &cli.Env{
		Stdin:  strings.NewReader(stdin),
		Stdout: &outBuf,
		Stderr: &errBuf,
		Tokens: h.tokens,
	}

	full := append([]string{"--config", h.config}, args...)
	code = cli.Run(context.Background(), full, env)
	return outBuf.String(), errBuf.String(), code
}

func (h *harness) signIn(t *testing.T) string {
	t.Helper()
	id := h.api.AddUser("ann@example.com", "secret-pass")
	if err := h.tokens.Set(credential.AccessTokenKey, h.api.IssueToken(id)); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("ann@example.com", "secret-pass")

	stdout, stderr, code := h.runCommand(t, "secret-pass\n", "login", "--email", "ann@example.com")
	if code != exitcode.Success {
		t.Fatalf("code = %d, stderr = %q", code, stderr)
	}
	if stdout != "signed in as ann@example.com\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if tok, _ := credential.Token(h.tokens); tok == "" {
		t.Error("token not stored")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("ann@example.com", "secret-pass")

	_, stderr, code := h.runCommand(t, "", "login", "--email", "ann@example.com", "--password", "nope-nope")
	if code != exitcode.AuthError {
		t.Errorf("code = %d, want %d", code, exitcode.AuthError)
	}
	if !strings.Contains(stderr, "Incorrect email or password") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRegister_MismatchIsUserError(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.runCommand(t, "",
		"register", "--email", "bob@example.com", "--password", "Password1!", "--confirm", "Password2!")
	if code != exitcode.UserError {
		t.Errorf("code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(stderr, "Passwords do not match") {
		t.Errorf("stderr = %q", stderr)
	}
	if h.api.Count(testutil.RouteRegister) != 0 {
		t.Error("mismatch reached the API")
	}
}

func TestWhoami(t *testing.T) {
	h := newHarness(t)

	_, _, code := h.runCommand(t, "", "whoami")
	if code != exitcode.AuthError {
		t.Errorf("signed out code = %d, want %d", code, exitcode.AuthError)
	}

	id := h.signIn(t)
	stdout, _, code := h.runCommand(t, "", "whoami")
	if code != exitcode.Success {
		t.Fatalf("code = %d", code)
	}
	if stdout != id+"\tann@example.com\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestTasksLifecycle(t *testing.T) {
	h := newHarness(t)
	id := h.signIn(t)

	stdout, _, code := h.runCommand(t, "", "tasks", "list")
	if code != exitcode.Success || stdout != "no tasks\n" {
		t.Fatalf("empty list: code = %d, stdout = %q", code, stdout)
	}

	stdout, _, code = h.runCommand(t, "", "tasks", "add", "Buy", "milk")
	if code != exitcode.Success || !strings.Contains(stdout, "created") {
		t.Fatalf("add: code = %d, stdout = %q", code, stdout)
	}
	created := h.api.Tasks(id)
	if len(created) != 1 || created[0].Title != "Buy milk" {
		t.Fatalf("server tasks = %+v", created)
	}
	taskID := strings.TrimSpace(strings.Fields(stdout)[1])
	taskID = strings.TrimSuffix(taskID, ":")

	if _, stderr, code := h.runCommand(t, "", "tasks", "done", taskID); code != exitcode.Success {
		t.Fatalf("done: code = %d, stderr = %q", code, stderr)
	}
	if !h.api.Tasks(id)[0].Completed {
		t.Error("task not completed on server")
	}

	if _, stderr, code := h.runCommand(t, "", "tasks", "edit", taskID, "--title", "Buy oat milk"); code != exitcode.Success {
		t.Fatalf("edit: code = %d, stderr = %q", code, stderr)
	}
	got := h.api.Tasks(id)[0]
	if got.Title != "Buy oat milk" || !got.Completed {
		t.Errorf("after edit = %+v", got)
	}

	stdout, _, _ = h.runCommand(t, "", "tasks", "list")
	if !strings.Contains(stdout, "Buy oat milk") || !strings.Contains(stdout, "[x]") {
		t.Errorf("list = %q", stdout)
	}

	if _, stderr, code := h.runCommand(t, "", "tasks", "rm", taskID); code != exitcode.Success {
		t.Fatalf("rm: code = %d, stderr = %q", code, stderr)
	}
	if len(h.api.Tasks(id)) != 0 {
		t.Error("task survived rm")
	}
}

func TestTasks_ExitCodes(t *testing.T) {
	h := newHarness(t)

	if _, _, code := h.runCommand(t, "", "tasks", "list"); code != exitcode.AuthError {
		t.Errorf("signed out: code = %d, want %d", code, exitcode.AuthError)
	}

	h.signIn(t)
	if _, _, code := h.runCommand(t, "", "tasks", "done", "abc"); code != exitcode.UserError {
		t.Errorf("bad id: code = %d, want %d", code, exitcode.UserError)
	}
	if _, _, code := h.runCommand(t, "", "tasks", "add", "   "); code != exitcode.UserError {
		t.Errorf("blank title: code = %d, want %d", code, exitcode.UserError)
	}

	h.api.Fail(testutil.RouteList, 500, "")
	if _, _, code := h.runCommand(t, "", "tasks", "list"); code != exitcode.BackendError {
		t.Errorf("server error: code = %d, want %d", code, exitcode.BackendError)
	}
}

func TestChat(t *testing.T) {
	h := newHarness(t)

	stdout, _, code := h.runCommand(t, "", "chat", "hi")
	if code != exitcode.Success || stdout != "Hello there!\n" {
		t.Errorf("code = %d, stdout = %q", code, stdout)
	}

	h.api.Fail(testutil.RouteChat, 500, "")
	stdout, _, code = h.runCommand(t, "", "chat", "hi")
	if code != exitcode.BackendError {
		t.Errorf("code = %d, want %d", code, exitcode.BackendError)
	}
	if !strings.Contains(stdout, "Chatbot service error") || !strings.Contains(stdout, "500") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	h := newHarness(t)

	if _, stderr, code := h.runCommand(t, "", "config", "set", "display.theme", "green"); code != exitcode.Success {
		t.Fatalf("set: code = %d, stderr = %q", code, stderr)
	}
	if _, _, code := h.runCommand(t, "", "config", "set", "bogus.key", "x"); code != exitcode.UserError {
		t.Errorf("unknown key: code = %d", code)
	}

	stdout, _, code := h.runCommand(t, "", "config", "show")
	if code != exitcode.Success {
		t.Fatalf("show: code = %d", code)
	}
	if !strings.Contains(stdout, "display.theme: green") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stdout, "chat.url: "+h.api.URL()+"/api/chat") {
		t.Errorf("chat url missing: %q", stdout)
	}
}
