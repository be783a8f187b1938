package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskdesk/internal/ui/command"
)

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch command.Normalize(cmd) {
	case command.Refresh:
		m.currentView = ViewList
		return m.taskList.Refresh()
	case command.NewTask:
		m.currentView = ViewList
		m.switchTo(ViewTaskForm)
		return m.taskForm.StartCreate()
	case command.Chat:
		m.switchTo(ViewChat)
		return m.chatView.Focus()
	case command.Settings:
		m.settingsView.Open()
		m.switchTo(ViewSettings)
		return nil
	case command.Legal:
		m.switchTo(ViewLegal)
		return nil
	case command.Help:
		m.switchTo(ViewHelp)
		return nil
	case command.Logout:
		return signOut(m.deps.Sessions)
	case command.Quit:
		return tea.Quit
	default:
		return nil
	}
}
