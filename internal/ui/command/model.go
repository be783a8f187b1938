package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdesk/internal/theme"
)

// Commands understood by the palette.
const (
	Refresh  = "refresh"
	NewTask  = "new"
	Chat     = "chat"
	Settings = "settings"
	Legal    = "legal"
	Logout   = "logout"
	Help     = "help"
	Quit     = "quit"
)

// Known lists every command, for tab completion.
var Known = []string{Refresh, NewTask, Chat, Settings, Legal, Logout, Help, Quit}

var aliases = map[string]string{
	"sync":    Refresh,
	"reload":  Refresh,
	"add":     NewTask,
	"task":    NewTask,
	"ai":      Chat,
	"config":  Settings,
	"terms":   Legal,
	"signout": Logout,
	"q":       Quit,
}

// CommandMsg is emitted when the user executes a command. Aliases are
// resolved to their canonical name.
type CommandMsg string

// CloseMsg is emitted when the palette is dismissed without a command.
type CloseMsg struct{}

// Normalize returns the canonical name of cmd.
func Normalize(cmd string) string {
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	if canonical, ok := aliases[cmd]; ok {
		return canonical
	}
	return cmd
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    string
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Known)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := Normalize(m.input.Value())
			m.input.Reset()
			if cmd == "" {
				return m, nil
			}
			if !isKnown(cmd) {
				m.err = "unknown command: " + cmd
				return m, nil
			}
			m.err = ""
			return m, func() tea.Msg {
				return CommandMsg(cmd)
			}
		case "esc":
			m.input.Reset()
			m.err = ""
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func isKnown(cmd string) bool {
	for _, k := range Known {
		if k == cmd {
			return true
		}
	}
	return false
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	parts := []string{title, m.input.View()}
	if m.err != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.err))
	}
	parts = append(parts, theme.HelpStyle.Render(strings.Join(Known, " · ")))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
