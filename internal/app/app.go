package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/keys"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/session"
	"github.com/nhle/taskdesk/internal/tasks"
	"github.com/nhle/taskdesk/internal/theme"
	"github.com/nhle/taskdesk/internal/ui"
	authview "github.com/nhle/taskdesk/internal/ui/auth"
	chatview "github.com/nhle/taskdesk/internal/ui/chat"
	"github.com/nhle/taskdesk/internal/ui/command"
	"github.com/nhle/taskdesk/internal/ui/detail"
	helpview "github.com/nhle/taskdesk/internal/ui/help"
	"github.com/nhle/taskdesk/internal/ui/legal"
	"github.com/nhle/taskdesk/internal/ui/settings"
	"github.com/nhle/taskdesk/internal/ui/taskform"
	"github.com/nhle/taskdesk/internal/ui/tasklist"
)

// SessionExpiredMessage is shown when a protected call found no valid
// session.
const SessionExpiredMessage = "Your session has expired. Please sign in again."

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewStartup ViewState = iota
	ViewAuth
	ViewList
	ViewDetail
	ViewTaskForm
	ViewChat
	ViewHelp
	ViewCommand
	ViewSettings
	ViewLegal
)

// sessionCheckedMsg carries the outcome of the startup session check.
type sessionCheckedMsg struct {
	session *model.Session
}

// signedOutMsg is sent once the stored token was discarded.
type signedOutMsg struct{}

// Deps are the services the root model drives.
type Deps struct {
	Client     *api.Client
	Sessions   *session.Manager
	Config     *model.AppConfig
	ConfigPath string
}

// Model is the root Bubble Tea model that manages view routing, layout
// and the signed-in account.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	deps         Deps
	account      *model.Session
	errMsg       string
	ready        bool

	auth         authview.Model
	taskList     tasklist.Model
	detail       detail.Model
	taskForm     taskform.Model
	chatView     chatview.Model
	helpView     helpview.Model
	commandView  command.Model
	settingsView settings.Model
	legalView    legal.Model
}

// New creates the root model. Nothing touches the network until Init.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	svc := tasks.NewService(d.Client, d.Sessions)

	return Model{
		currentView:  ViewStartup,
		layout:       ui.NewLayout(80, 24).WithHeader(theme.ForName(d.Config.Display.Theme)),
		keys:         k,
		deps:         d,
		auth:         authview.New(d.Sessions, 80, 24),
		taskList:     tasklist.New(svc, k, 80, 24),
		detail:       detail.New(k, 80, 24),
		taskForm:     taskform.New(svc, k, 80, 24),
		chatView:     chatview.New(d.Client, k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		settingsView: settings.New(d.ConfigPath, d.Config, k, 80, 24),
		legalView:    legal.New(d.Config.Legal, k, 80, 24),
	}
}

// Init checks the stored session before showing anything.
func (m Model) Init() tea.Cmd {
	return checkSession(m.deps.Sessions)
}

func checkSession(sessions *session.Manager) tea.Cmd {
	return func() tea.Msg {
		return sessionCheckedMsg{session: sessions.GetSession(context.Background())}
	}
}

func signOut(sessions *session.Manager) tea.Cmd {
	return func() tea.Msg {
		sessions.SignOut(context.Background())
		return signedOutMsg{}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height).WithHeader(m.layout.Header)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.auth.SetSize(w, h)
		m.taskList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.taskForm.SetSize(w, h)
		m.chatView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.legalView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionCheckedMsg:
		if msg.session == nil {
			return m, m.showAuth()
		}
		return m, m.signedIn(*msg.session)

	case authview.AuthenticatedMsg:
		return m, m.signedIn(msg.Session)

	case tasklist.UnauthenticatedMsg, taskform.UnauthenticatedMsg:
		m.errMsg = SessionExpiredMessage
		return m, m.showAuth()

	case signedOutMsg:
		m.errMsg = ""
		return m, m.showAuth()

	case tasklist.SelectedTaskMsg:
		m.detail.SetTask(msg.Task, m.taskList.Board().Busy(msg.Task.ID))
		m.switchTo(ViewDetail)
		return m, nil

	case tasklist.NewTaskMsg:
		m.switchTo(ViewTaskForm)
		return m, m.taskForm.StartCreate()

	case tasklist.EditTaskMsg:
		m.switchTo(ViewTaskForm)
		return m, m.taskForm.StartEdit(msg.Task)

	case taskform.TaskSavedMsg:
		var cmd tea.Cmd
		if msg.Created {
			cmd = m.taskList.Added(msg.Task)
			m.currentView = ViewList
		} else {
			cmd = m.taskList.Replaced(msg.Task)
			m.back()
			m.syncDetail()
		}
		return m, cmd

	case taskform.FormCancelMsg:
		m.back()
		return m, nil

	case detail.BackMsg:
		m.detail.Clear()
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		return m, m.runDetailAction(msg)

	case chatview.CloseMsg:
		m.back()
		return m, nil

	case chatview.ReplyMsg:
		// Replies land even if the panel was closed meanwhile.
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd

	case command.CommandMsg:
		m.back()
		return m, m.executeCommand(string(msg))

	case command.CloseMsg:
		m.back()
		return m, nil

	case settings.SavedMsg:
		cfg := msg.Config
		*m.deps.Config = cfg
		m.layout = m.layout.WithHeader(theme.ForName(cfg.Display.Theme))
		m.legalView = legal.New(cfg.Legal, m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, nil

	case settings.DoneMsg:
		m.back()
		return m, nil

	case legal.BackMsg:
		m.back()
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
		return m.updateActiveView(msg)
	}

	// Results of list mutations arrive while another view is showing, so
	// the list sees every non-key message.
	return m.broadcast(msg)
}

// broadcast hands msg to the task list and, when it is not the list, to
// the active view as well.
func (m Model) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var listCmd tea.Cmd
	m.taskList, listCmd = m.taskList.Update(msg)
	m.syncDetail()
	if m.currentView == ViewList {
		return m, listCmd
	}

	next, cmd := m.updateActiveView(msg)
	return next, tea.Batch(listCmd, cmd)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.auth, cmd = m.auth.Update(msg)
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewTaskForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewChat:
		m.chatView, cmd = m.chatView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewLegal:
		m.legalView, cmd = m.legalView.Update(msg)
	}

	return m, cmd
}

// switchTo remembers the current view and activates v.
func (m *Model) switchTo(v ViewState) {
	if m.currentView != v {
		m.previousView = m.currentView
	}
	m.currentView = v
}

// back returns to the previous view. Overlays never become the previous
// view of each other, so this always lands somewhere useful.
func (m *Model) back() {
	switch m.previousView {
	case ViewStartup, ViewHelp, ViewCommand, m.currentView:
		m.currentView = ViewList
	default:
		m.currentView = m.previousView
	}
	if m.account == nil {
		m.currentView = ViewAuth
	}
	m.previousView = ViewList
}

// signedIn records the session and opens the task list.
func (m *Model) signedIn(s model.Session) tea.Cmd {
	m.account = &s
	m.errMsg = ""
	m.helpView.SetAccount(s.User.Email, m.deps.Client.BaseURL())
	m.currentView = ViewList
	m.previousView = ViewList
	return m.taskList.Refresh()
}

// showAuth forgets everything tied to the previous account.
func (m *Model) showAuth() tea.Cmd {
	m.account = nil
	m.detail.Clear()
	m.chatView.Reset()
	listCmd := m.taskList.Reset()
	m.helpView.SetAccount("", m.deps.Client.BaseURL())
	m.currentView = ViewAuth
	m.previousView = ViewAuth
	return tea.Batch(listCmd, m.auth.Reset())
}

// syncDetail refreshes the detail view from the board after list
// mutations. A task that vanished closes the view.
func (m *Model) syncDetail() {
	shown, ok := m.detail.Current()
	if !ok {
		return
	}
	board := m.taskList.Board()
	task, found := board.Find(shown.ID)
	if !found {
		m.detail.Clear()
		if m.currentView == ViewDetail {
			m.currentView = ViewList
		}
		return
	}
	m.detail.SetTask(task, board.Busy(task.ID))
}

func (m *Model) runDetailAction(msg detail.ActionMsg) tea.Cmd {
	switch msg.Action {
	case detail.ActionToggle:
		cmd := m.taskList.Toggle(msg.Task.ID)
		m.syncDetail()
		return cmd
	case detail.ActionEdit:
		m.switchTo(ViewTaskForm)
		return m.taskForm.StartEdit(msg.Task)
	case detail.ActionDelete:
		m.currentView = ViewList
		return m.taskList.RequestDelete(msg.Task)
	}
	return nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	account := "signed out"
	if m.account != nil {
		account = m.account.User.Email
	}
	header := m.layout.RenderHeader("TaskDesk", account)
	content := m.renderContent()

	statusBar := m.layout.RenderStatusBar(m.keyHints())
	if m.errMsg != "" {
		statusBar = m.layout.RenderErrorBar(m.errMsg)
	}

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewStartup:
		return "Checking session..."
	case ViewAuth:
		return m.auth.View()
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewTaskForm:
		return m.taskForm.View()
	case ViewChat:
		return m.chatView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewLegal:
		return m.legalView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewAuth:
		return "tab next field | enter submit | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "tab complete | enter execute | esc back"
	case ViewDetail:
		return "esc back | x toggle | e edit | d delete | j/k scroll"
	case ViewTaskForm:
		return "enter submit | esc cancel"
	case ViewChat:
		return "enter send | esc close"
	case ViewSettings, ViewLegal:
		return "esc back"
	case ViewList:
		if m.taskList.Confirming() {
			return "←/→ choose | enter confirm | esc cancel"
		}
		return "q quit | ? help | n new | x toggle | d delete | a chat | : command"
	default:
		return ""
	}
}
