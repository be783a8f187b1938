package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  Refresh ": Refresh,
		"sync":       Refresh,
		"config":     Settings,
		"signout":    Logout,
		"q":          Quit,
		"whatever":   "whatever",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func typeAndEnter(m Model, text string) (Model, tea.Cmd) {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestEnter(t *testing.T) {
	m := New(80, 24)

	m, cmd := typeAndEnter(m, "ai")
	if cmd == nil {
		t.Fatal("known alias produced no command")
	}
	if got := cmd(); got != CommandMsg(Chat) {
		t.Errorf("msg = %#v, want %q", got, Chat)
	}

	m, cmd = typeAndEnter(m, "launch")
	if cmd != nil {
		t.Error("unknown command produced a message")
	}
	if m.err != "unknown command: launch" {
		t.Errorf("err = %q", m.err)
	}
}
