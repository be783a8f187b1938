package taskform

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/keys"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/tasks"
	"github.com/nhle/taskdesk/internal/theme"
	"github.com/nhle/taskdesk/internal/validate"
)

// TaskSavedMsg is dispatched after the API accepted the form.
type TaskSavedMsg struct {
	Task    model.Task
	Created bool
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// UnauthenticatedMsg is dispatched when saving found no valid session.
type UnauthenticatedMsg struct{}

// saveResultMsg carries the API result back to the form.
type saveResultMsg struct {
	result api.Result[model.Task]
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	service  *tasks.Service
	keys     *keys.KeyMap
	spinner  spinner.Model
	editing  *model.Task
	saving   bool
	errorMsg string
	width    int
	height   int
}

// New creates a new task form model.
func New(s *tasks.Service, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		fb:      &formBindings{},
		service: s,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// StartCreate initializes the form for creating a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editing = nil
	m.fb.title = ""
	m.fb.description = ""
	return m.reset()
}

// StartEdit initializes the form for editing an existing task.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editing = &task
	m.fb.title = task.Title
	m.fb.description = task.DescriptionText()
	return m.reset()
}

func (m *Model) reset() tea.Cmd {
	m.saving = false
	m.errorMsg = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case saveResultMsg:
		m.saving = false
		if msg.result.Success && msg.result.Data != nil {
			created := m.editing == nil
			task := *msg.result.Data
			return m, func() tea.Msg { return TaskSavedMsg{Task: task, Created: created} }
		}
		if apperr.IsAuthError(msg.result.Err()) {
			return m, func() tea.Msg { return UnauthenticatedMsg{} }
		}
		// Keep what the user typed and let them retry.
		m.errorMsg = msg.result.Error
		m.form = m.buildForm()
		return m, m.form.Init()

	case spinner.TickMsg:
		if m.saving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return FormCancelMsg{} }
		}
	}

	if m.form == nil || m.saving {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.saving = true
		return m, tea.Batch(m.spinner.Tick, m.handleSubmit())
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return FormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editing != nil {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n"
	if m.errorMsg != "" {
		content += theme.ErrorStyle.Render(m.errorMsg) + "\n\n"
	}
	if m.saving {
		content += m.spinner.View() + " Saving..."
	} else {
		content += m.form.View()
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				CharLimit(model.MaxTitleLength).
				Value(&m.fb.title).
				Validate(validateTitle),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				CharLimit(model.MaxDescriptionLength).
				Value(&m.fb.description).
				Validate(validateDescription),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	svc := m.service
	title, description := m.fb.title, m.fb.description

	if m.editing != nil {
		task := *m.editing
		return func() tea.Msg {
			return saveResultMsg{result: svc.Update(context.Background(), task, title, description)}
		}
	}
	return func() tea.Msg {
		return saveResultMsg{result: svc.Create(context.Background(), title, description)}
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateTitle(s string) error {
	return validate.Task(s, "")
}

func validateDescription(s string) error {
	if utf8.RuneCountInString(s) > model.MaxDescriptionLength {
		return apperr.Invalid("description",
			fmt.Sprintf("Description must be %d characters or fewer", model.MaxDescriptionLength))
	}
	return nil
}
