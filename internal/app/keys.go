package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// textEntry reports whether the active view owns typed characters, in
// which case only ctrl+c is global.
func (m Model) textEntry() bool {
	switch m.currentView {
	case ViewStartup, ViewList, ViewDetail, ViewHelp, ViewLegal:
		return m.currentView == ViewList && m.taskList.Confirming()
	default:
		return true
	}
}

// handleGlobalKey processes keys that work regardless of the current
// view. handled is false when the key belongs to the active view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (next tea.Model, cmd tea.Cmd, handled bool) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit, true
	}
	if m.textEntry() || m.account == nil {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.back()
			return m, nil, true
		}
		m.switchTo(ViewHelp)
		return m, nil, true

	case m.currentView == ViewHelp && key.Matches(msg, m.keys.Back):
		m.back()
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.switchTo(ViewCommand)
		return m, m.commandView.Focus(), true
	}

	// The remaining shortcuts only apply on the list.
	if m.currentView != ViewList {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.Chat):
		m.switchTo(ViewChat)
		return m, m.chatView.Focus(), true
	case key.Matches(msg, m.keys.Settings):
		m.settingsView.Open()
		m.switchTo(ViewSettings)
		return m, nil, true
	case key.Matches(msg, m.keys.Legal):
		m.switchTo(ViewLegal)
		return m, nil, true
	case key.Matches(msg, m.keys.Logout):
		return m, signOut(m.deps.Sessions), true
	}

	return m, nil, false
}
