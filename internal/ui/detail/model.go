package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdesk/internal/keys"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg asks the parent to run an action on the shown task.
type ActionMsg struct {
	Action Action
	Task   model.Task
}

// Action is a task operation started from the detail view.
type Action int

const (
	ActionToggle Action = iota
	ActionEdit
	ActionDelete
)

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	busy     bool
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// SetTask shows task. busy marks a request in flight for it.
func (m *Model) SetTask(task model.Task, busy bool) {
	scrolled := m.task != nil && m.task.ID == task.ID
	m.task = &task
	m.busy = busy
	m.viewport.SetContent(m.renderContent())
	if !scrolled {
		m.viewport.GotoTop()
	}
}

// Current returns the shown task.
func (m Model) Current() (model.Task, bool) {
	if m.task == nil {
		return model.Task{}, false
	}
	return *m.task, true
}

// Clear drops the shown task.
func (m *Model) Clear() {
	m.task = nil
	m.busy = false
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Toggle):
			return m, m.action(ActionToggle)

		case key.Matches(msg, m.keys.Edit):
			return m, m.action(ActionEdit)

		case key.Matches(msg, m.keys.Delete):
			return m, m.action(ActionDelete)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(a Action) tea.Cmd {
	if m.task == nil || m.busy {
		return nil
	}
	task := *m.task
	return func() tea.Msg { return ActionMsg{Action: a, Task: task} }
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No task selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))

	status := "Open"
	if task.Completed {
		status = "Completed"
	}
	statusLine := theme.CheckboxStyle(task.Completed).Render(status)
	if m.busy {
		statusLine += lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("  updating…")
	}
	sections = append(sections, statusLine)

	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	meta := []string{
		labelStyle.Render("ID:      ") + fmt.Sprintf("%d", task.ID),
		labelStyle.Render("Created: ") + task.CreatedAt.Local().Format("2006-01-02 15:04"),
		labelStyle.Render("Updated: ") + task.UpdatedAt.Local().Format("2006-01-02 15:04"),
	}
	sections = append(sections, strings.Join(meta, "\n"))

	desc := task.DescriptionText()
	if strings.TrimSpace(desc) == "" {
		desc = theme.HelpStyle.Render("No description.")
	} else {
		desc = lipgloss.NewStyle().Width(m.contentWidth()).Render(desc)
	}
	sections = append(sections, theme.BorderStyle.Padding(0, 1).Render(desc))

	return theme.DetailPanelStyle.Render(strings.Join(sections, "\n\n"))
}

func (m Model) contentWidth() int {
	w := m.width - 12
	if w < 20 {
		w = 20
	}
	return w
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
