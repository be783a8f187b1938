package tasklist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
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
)

// TasksLoadedMsg carries the result of a list fetch.
type TasksLoadedMsg struct {
	Result api.Result[model.TaskList]
	board  *tasks.Board
}

// SelectedTaskMsg is sent when a user opens a task's detail view.
type SelectedTaskMsg struct {
	Task model.Task
}

// NewTaskMsg asks the parent to open the create form.
type NewTaskMsg struct{}

// EditTaskMsg asks the parent to open the edit form for Task.
type EditTaskMsg struct {
	Task model.Task
}

// UnauthenticatedMsg tells the parent the session is gone.
type UnauthenticatedMsg struct{}

// toggleResultMsg carries the result of a completion patch.
type toggleResultMsg struct {
	board  *tasks.Board
	id     int64
	result api.Result[model.Task]
}

// deleteResultMsg carries the result of a delete request.
type deleteResultMsg struct {
	board  *tasks.Board
	id     int64
	result api.Result[struct{}]
}

// confirmBinding holds the confirm value on the heap so huh's pointer
// stays valid across model copies.
type confirmBinding struct {
	yes bool
}

// Model is the main task list view component.
type Model struct {
	list    list.Model
	service *tasks.Service
	board   *tasks.Board
	keys    *keys.KeyMap
	spinner spinner.Model

	confirm *huh.Form
	cb      *confirmBinding

	width  int
	height int
}

// New creates a new task list model.
func New(s *tasks.Service, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, TaskDelegate{}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		list:    l,
		service: s,
		board:   tasks.NewBoard(),
		keys:    k,
		spinner: sp,
		cb:      &confirmBinding{},
		width:   width,
		height:  height,
	}
}

// Init returns a command that loads the initial set of tasks.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.LoadTasks())
}

// Board exposes the view's list state.
func (m Model) Board() *tasks.Board { return m.board }

// Confirming reports whether the delete confirmation has focus.
func (m Model) Confirming() bool { return m.confirm != nil }

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		if msg.board != m.board {
			return m, nil
		}
		m.board.Loaded(msg.Result)
		if m.board.Status() == tasks.Unauthenticated {
			return m, func() tea.Msg { return UnauthenticatedMsg{} }
		}
		return m, m.syncItems()

	case toggleResultMsg:
		if msg.board != m.board {
			return m, nil
		}
		m.board.ResolveToggle(msg.id, msg.result)
		return m, m.afterMutation(msg.result.Err())

	case deleteResultMsg:
		if msg.board != m.board {
			return m, nil
		}
		m.board.ResolveDelete(msg.id, msg.result)
		return m, m.afterMutation(msg.result.Err())

	case spinner.TickMsg:
		if m.board.Status() == tasks.Loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		return m.handleKeys(msg)
	}

	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// afterMutation refreshes the rows, and hands an expired session to the
// parent.
func (m *Model) afterMutation(err error) tea.Cmd {
	cmd := m.syncItems()
	if apperr.IsAuthError(err) {
		return tea.Batch(cmd, func() tea.Msg { return UnauthenticatedMsg{} })
	}
	return cmd
}

// handleKeys processes key input in normal mode.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.board.ClearError()

	// Rows act only on a list the user can see.
	if m.board.Status() != tasks.Ready && rowAction(m.keys, msg) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Select):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedTaskMsg{Task: task} }

	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return NewTaskMsg{} }

	case key.Matches(msg, m.keys.Edit):
		task, ok := m.SelectedTask()
		if !ok || m.board.Busy(task.ID) {
			return m, nil
		}
		return m, func() tea.Msg { return EditTaskMsg{Task: task} }

	case key.Matches(msg, m.keys.Toggle):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, m.Toggle(task.ID)

	case key.Matches(msg, m.keys.Delete):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, m.RequestDelete(task)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Refresh()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Toggle flips a task optimistically and sends the patch. Toggles on a
// busy task are ignored.
func (m *Model) Toggle(id int64) tea.Cmd {
	patch, ok := m.board.BeginToggle(id)
	if !ok {
		return nil
	}
	svc, board := m.service, m.board
	completed := *patch.Completed
	send := func() tea.Msg {
		return toggleResultMsg{
			board:  board,
			id:     id,
			result: svc.SetCompleted(context.Background(), id, completed),
		}
	}
	return tea.Batch(m.syncItems(), send)
}

// RequestDelete opens the confirmation modal for task. Nothing happens
// while the task has a request in flight.
func (m *Model) RequestDelete(task model.Task) tea.Cmd {
	if !m.board.RequestDelete(task.ID) {
		return nil
	}
	m.cb.yes = false
	m.confirm = m.buildConfirmForm(task)
	return m.confirm.Init()
}

func (m *Model) buildConfirmForm(task model.Task) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete task %q?", task.Title)).
				Description("This cannot be undone.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.cb.yes),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Back) {
		m.confirm = nil
		m.board.CancelDelete()
		return m, nil
	}

	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		m.confirm = nil
		if !m.cb.yes {
			m.board.CancelDelete()
			return m, nil
		}
		id, ok := m.board.ConfirmDelete()
		if !ok {
			return m, nil
		}
		svc, board := m.service, m.board
		send := func() tea.Msg {
			return deleteResultMsg{board: board, id: id, result: svc.Delete(context.Background(), id)}
		}
		return m, tea.Batch(m.syncItems(), send)

	case huh.StateAborted:
		m.confirm = nil
		m.board.CancelDelete()
		return m, nil
	}

	return m, cmd
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return m.board.Find(item.Task.ID)
}

// Added records a task created elsewhere in the app.
func (m *Model) Added(task model.Task) tea.Cmd {
	m.board.Add(task)
	return m.syncItems()
}

// Replaced records a task edited elsewhere in the app.
func (m *Model) Replaced(task model.Task) tea.Cmd {
	m.board.Replace(task)
	return m.syncItems()
}

// syncItems rebuilds the list rows from the board.
func (m *Model) syncItems() tea.Cmd {
	visible := m.board.Tasks()
	items := make([]list.Item, len(visible))
	for i, task := range visible {
		items[i] = TaskItem{Task: task, Busy: m.board.Busy(task.ID)}
	}
	return m.list.SetItems(items)
}

// View renders the task list view.
func (m Model) View() string {
	if m.confirm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirm.View())
	}

	switch m.board.Status() {
	case tasks.Loading:
		if len(m.list.Items()) == 0 {
			return m.centered(m.spinner.View() + " Loading tasks...")
		}
	case tasks.Failed:
		return m.centered(
			theme.ErrorStyle.Render(m.board.LoadError()) +
				"\n\nPress r to try again.",
		)
	case tasks.Empty:
		return m.renderEmptyState()
	case tasks.Unauthenticated:
		return m.centered("Your session has ended. Please sign in again.")
	}

	view := m.list.View()
	if errMsg := m.board.LastError(); errMsg != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, view, theme.ErrorStyle.Render(errMsg))
	}
	return view
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

// renderEmptyState shows guidance text when the user has no tasks.
func (m Model) renderEmptyState() string {
	return m.centered(
		"No tasks yet.\n\n" +
			"Press n to create your first task.",
	)
}

// LoadTasks returns a tea.Cmd that fetches the list from the API.
func (m Model) LoadTasks() tea.Cmd {
	svc, board := m.service, m.board
	return func() tea.Msg {
		return TasksLoadedMsg{Result: svc.Load(context.Background()), board: board}
	}
}

// Refresh marks the board loading and refetches.
func (m Model) Refresh() tea.Cmd {
	m.board.SetLoading()
	return tea.Batch(m.spinner.Tick, m.LoadTasks())
}

// Reset drops the list and every pending result. Results of requests
// started before the reset are ignored when they arrive.
func (m *Model) Reset() tea.Cmd {
	m.board = tasks.NewBoard()
	m.confirm = nil
	m.cb.yes = false
	return m.list.SetItems(nil)
}

func rowAction(k *keys.KeyMap, msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Select, k.Edit, k.Toggle, k.Delete)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}
