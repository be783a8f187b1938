package app

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskdesk/internal/credential"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/session"
	"github.com/nhle/taskdesk/internal/tasks"
	"github.com/nhle/taskdesk/internal/testutil"
	"github.com/nhle/taskdesk/internal/ui/tasklist"
)

func newApp(t *testing.T) (*testutil.FakeAPI, *credential.MemoryStore, Model) {
	t.Helper()

	f := testutil.NewFakeAPI(t)
	store := credential.NewMemoryStore()
	client := testutil.NewClient(t, f, store)
	cfg := &model.AppConfig{
		API:     model.APIConfig{BaseURL: f.URL(), TimeoutSec: 5},
		Display: model.DisplayConfig{Theme: model.DefaultTheme},
	}

	m := New(Deps{
		Client:     client,
		Sessions:   session.NewManager(client, store),
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
	})
	return f, store, m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out, cmd
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStartup_NoTokenShowsAuth(t *testing.T) {
	_, _, m := newApp(t)

	m, _ = update(t, m, m.Init()())
	if m.currentView != ViewAuth {
		t.Errorf("view = %v, want auth", m.currentView)
	}
	if m.account != nil {
		t.Error("account set without a session")
	}
}

func TestStartup_ValidTokenLoadsList(t *testing.T) {
	f, store, m := newApp(t)
	id := f.AddUser("ann@example.com", "secret-pass")
	f.SeedTask(id, "Buy milk", false)
	if err := store.Set(credential.AccessTokenKey, f.IssueToken(id)); err != nil {
		t.Fatal(err)
	}

	m, _ = update(t, m, m.Init()())
	if m.currentView != ViewList {
		t.Fatalf("view = %v, want list", m.currentView)
	}
	if m.account == nil || m.account.User.Email != "ann@example.com" {
		t.Fatalf("account = %+v", m.account)
	}

	m, _ = update(t, m, m.taskList.LoadTasks()())
	board := m.taskList.Board()
	if board.Status() != tasks.Ready || len(board.Tasks()) != 1 {
		t.Errorf("status = %v, tasks = %d", board.Status(), len(board.Tasks()))
	}
}

func TestUnauthenticatedReturnsToAuth(t *testing.T) {
	f, store, m := newApp(t)
	id := f.AddUser("ann@example.com", "secret-pass")
	_ = store.Set(credential.AccessTokenKey, f.IssueToken(id))
	m, _ = update(t, m, m.Init()())

	m, _ = update(t, m, tasklist.UnauthenticatedMsg{})
	if m.currentView != ViewAuth {
		t.Errorf("view = %v, want auth", m.currentView)
	}
	if m.errMsg != SessionExpiredMessage {
		t.Errorf("errMsg = %q", m.errMsg)
	}
}

func TestGlobalKeys_OnList(t *testing.T) {
	f, store, m := newApp(t)
	id := f.AddUser("ann@example.com", "secret-pass")
	_ = store.Set(credential.AccessTokenKey, f.IssueToken(id))
	m, _ = update(t, m, m.Init()())

	m, _ = update(t, m, keyMsg("a"))
	if m.currentView != ViewChat {
		t.Fatalf("view = %v, want chat", m.currentView)
	}

	// In the chat panel letters are text, not shortcuts.
	m, _ = update(t, m, keyMsg("c"))
	if m.currentView != ViewChat {
		t.Fatalf("view = %v, want chat", m.currentView)
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc produced no command")
	}
	m, _ = update(t, m, cmd())
	if m.currentView != ViewList {
		t.Errorf("view = %v, want list", m.currentView)
	}

	m, _ = update(t, m, keyMsg("?"))
	if m.currentView != ViewHelp {
		t.Errorf("view = %v, want help", m.currentView)
	}
	m, _ = update(t, m, keyMsg("?"))
	if m.currentView != ViewList {
		t.Errorf("view = %v, want list", m.currentView)
	}
}

func TestLogout(t *testing.T) {
	f, store, m := newApp(t)
	id := f.AddUser("ann@example.com", "secret-pass")
	_ = store.Set(credential.AccessTokenKey, f.IssueToken(id))
	m, _ = update(t, m, m.Init()())

	m, cmd := update(t, m, keyMsg("O"))
	if cmd == nil {
		t.Fatal("logout produced no command")
	}
	m, _ = update(t, m, cmd())

	if m.currentView != ViewAuth {
		t.Errorf("view = %v, want auth", m.currentView)
	}
	if tok, _ := credential.Token(store); tok != "" {
		t.Error("token survived logout")
	}
}

func TestLogout_ForgetsPreviousAccountTasks(t *testing.T) {
	f, store, m := newApp(t)
	id := f.AddUser("ann@example.com", "secret-pass")
	f.SeedTask(id, "Buy milk", false)
	_ = store.Set(credential.AccessTokenKey, f.IssueToken(id))
	m, _ = update(t, m, m.Init()())
	m, _ = update(t, m, m.taskList.LoadTasks()())

	// A refetch that was still running when the user signed out.
	stale := m.taskList.LoadTasks()()

	m, cmd := update(t, m, keyMsg("O"))
	m, _ = update(t, m, cmd())
	if m.currentView != ViewAuth {
		t.Fatalf("view = %v, want auth", m.currentView)
	}

	m, _ = update(t, m, stale)
	board := m.taskList.Board()
	if len(board.Tasks()) != 0 {
		t.Errorf("previous account's tasks kept: %v", board.Tasks())
	}
	if board.Status() != tasks.Loading {
		t.Errorf("status = %v, want loading", board.Status())
	}
}
