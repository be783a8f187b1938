package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdesk/internal/api"
	chatrelay "github.com/nhle/taskdesk/internal/chat"
	"github.com/nhle/taskdesk/internal/keys"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/theme"
)

// CloseMsg signals the parent to close the chat panel.
type CloseMsg struct{}

// ReplyMsg carries the chat endpoint's answer for the transcript that
// asked.
type ReplyMsg struct {
	Result api.Result[api.ChatReply]
	relay  *chatrelay.Relay
}

// Model is the chat panel. The transcript lives as long as the panel.
type Model struct {
	sender   chatrelay.Sender
	relay    *chatrelay.Relay
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new chat panel model.
func New(sender chatrelay.Sender, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about taskdesk..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vpHeight := height - 8 // space for input area + borders
	if vpHeight < 4 {
		vpHeight = 4
	}

	vp := viewport.New(width-4, vpHeight)
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		sender:   sender,
		relay:    chatrelay.NewRelay(sender),
		input:    ta,
		viewport: vp,
		spinner:  sp,
		keys:     k,
		width:    width,
		height:   height,
	}
	m.refreshViewport()
	return m
}

// Init returns the initial command for the chat panel.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Busy reports whether a message is awaiting its reply.
func (m Model) Busy() bool { return m.relay.Busy() }

// Update handles messages for the chat panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReplyMsg:
		// A reply for a transcript that was reset is dropped.
		if msg.relay != m.relay || !m.relay.Busy() {
			return m, nil
		}
		m.relay.Complete(msg.Result)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if m.relay.Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.refreshViewport()
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Delegate to textarea and viewport
	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the chat panel.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg {
			return CloseMsg{}
		}

	case "enter":
		text, ok := m.relay.Begin(m.input.Value())
		if !ok {
			return m, nil
		}
		m.input.Reset()
		m.refreshViewport()
		return m, tea.Batch(m.spinner.Tick, m.sendMessage(text))

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Let textarea handle other keys
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sendMessage returns a command that posts the message and reports the
// reply.
func (m Model) sendMessage(text string) tea.Cmd {
	relay := m.relay
	do := relay.Do(text)
	return func() tea.Msg {
		return ReplyMsg{Result: do(context.Background()), relay: relay}
	}
}

// refreshViewport re-renders the conversation content and scrolls to bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// renderConversation builds the conversation display string.
func (m Model) renderConversation() string {
	var sections []string

	contentStyle := lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Width(max(m.width-8, 20))

	for _, msg := range m.relay.Transcript() {
		var label string
		switch msg.Role {
		case model.ChatRoleUser:
			label = theme.RoleStyle(string(msg.Role)).Render("You:")
		case model.ChatRoleAssistant:
			label = theme.RoleStyle(string(msg.Role)).Render("Assistant:")
		}

		sections = append(sections, label)
		sections = append(sections, contentStyle.Render(msg.Content))
		sections = append(sections, "")
	}

	if m.relay.Busy() {
		thinkingStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		sections = append(sections, thinkingStyle.Render(m.spinner.View()+" thinking..."))
	}

	return strings.Join(sections, "\n")
}

// View renders the chat panel.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Assistant")

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(
		strings.Repeat("─", max(min(m.width-6, 80), 0)),
	)

	input := m.input.View()
	if m.relay.Busy() {
		input = theme.HelpStyle.Render("Waiting for a reply...")
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
		separator,
		input,
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the chat panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)

	vpHeight := height - 8
	if vpHeight < 4 {
		vpHeight = 4
	}
	m.viewport.Width = width - 4
	m.viewport.Height = vpHeight
	m.refreshViewport()
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Reset starts a new transcript.
func (m *Model) Reset() {
	m.relay = chatrelay.NewRelay(m.sender)
	m.input.Reset()
	m.refreshViewport()
}
