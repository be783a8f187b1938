package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdesk/internal/keys"
	"github.com/nhle/taskdesk/internal/theme"
	"github.com/nhle/taskdesk/internal/ui/command"
)

// Model is the help overlay. It lists the bindings by where they apply,
// the palette commands and the account in use.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	account string
	apiURL  string
	width   int
	height  int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   k,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetAccount records who is signed in and against which API. An empty
// email means signed out.
func (m *Model) SetAccount(email, apiURL string) {
	m.account = email
	m.apiURL = apiURL
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// sections groups the bindings by where they apply.
func (m Model) sections() []section {
	k := m.keys
	return []section{
		{"Navigation", []key.Binding{k.Up, k.Down, k.Select, k.Back}},
		{"Tasks", []key.Binding{k.New, k.Edit, k.Toggle, k.Delete, k.Refresh}},
		{"Anywhere", []key.Binding{k.Chat, k.Settings, k.Legal, k.Command, k.Help, k.Logout, k.Quit}},
	}
}

type section struct {
	title    string
	bindings []key.Binding
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	headingStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)

	m.help.Width = m.width - 4
	columns := make([]string, 0, 3)
	for _, s := range m.sections() {
		col := lipgloss.JoinVertical(lipgloss.Left,
			headingStyle.Render(s.title),
			m.help.FullHelpView([][]key.Binding{s.bindings}),
		)
		columns = append(columns, lipgloss.NewStyle().MarginRight(4).Render(col))
	}

	parts := []string{
		titleStyle.Render("Keyboard Shortcuts"),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
		headingStyle.Render("Commands"),
		theme.HelpStyle.Render(":" + strings.Join(command.Known, "  :")),
		"",
		theme.HelpStyle.Render(m.footer()),
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) footer() string {
	if m.account == "" {
		return "Not signed in. API: " + m.apiURL
	}
	return "Signed in as " + m.account + " on " + m.apiURL
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
