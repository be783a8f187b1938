// Package auth holds the sign-in, register and forgot-password screens.
package auth

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/session"
	"github.com/nhle/taskdesk/internal/theme"
	"github.com/nhle/taskdesk/internal/validate"
)

// ResetSentMessage is shown after the forgot-password form is submitted.
const ResetSentMessage = "Password reset link sent! Check your email."

// Mode is the screen the auth view is showing.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
	ModeForgot
	ModeResetSent
)

func (m Mode) title() string {
	switch m {
	case ModeRegister:
		return "Create an account"
	case ModeForgot, ModeResetSent:
		return "Reset your password"
	default:
		return "Sign in"
	}
}

// AuthenticatedMsg is dispatched once sign-in or sign-up produced a
// validated session.
type AuthenticatedMsg struct {
	Session model.Session
}

// submitResultMsg carries the outcome of a sign-in or sign-up command.
type submitResultMsg struct {
	result  api.Result[model.User]
	session *model.Session
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string
	confirm  string
}

// keyMap holds the mode switches. They use ctrl chords so they never
// collide with text typed into the form.
type keyMap struct {
	Login    key.Binding
	Register key.Binding
	Forgot   key.Binding
	Back     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Login: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "sign in"),
		),
		Register: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "register"),
		),
		Forgot: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "forgot password"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "enter"),
			key.WithHelp("enter", "back to sign in"),
		),
	}
}

// Model is the Bubble Tea model for the auth screens.
type Model struct {
	mode       Mode
	sessions   *session.Manager
	form       *huh.Form
	fb         *formBindings
	keys       keyMap
	spinner    spinner.Model
	submitting bool
	errorMsg   string
	width      int
	height     int
}

// New creates the auth view in sign-in mode.
func New(sessions *session.Manager, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		sessions: sessions,
		fb:       &formBindings{},
		keys:     defaultKeyMap(),
		spinner:  sp,
		width:    width,
		height:   height,
	}
}

// Init builds the sign-in form.
func (m *Model) Init() tea.Cmd {
	return m.SetMode(ModeLogin)
}

// Mode reports the current screen.
func (m Model) Mode() Mode {
	return m.mode
}

// SetMode switches screens and rebuilds the form. The email survives the
// switch, passwords do not.
func (m *Model) SetMode(mode Mode) tea.Cmd {
	m.mode = mode
	m.submitting = false
	m.errorMsg = ""
	m.fb.password = ""
	m.fb.confirm = ""
	if mode == ModeResetSent {
		m.form = nil
		return nil
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Reset clears everything, including the email, and shows sign in.
func (m *Model) Reset() tea.Cmd {
	m.fb.email = ""
	return m.SetMode(ModeLogin)
}

// Update handles messages for the auth view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case submitResultMsg:
		m.submitting = false
		if msg.result.Success && msg.session != nil {
			s := *msg.session
			return m, func() tea.Msg { return AuthenticatedMsg{Session: s} }
		}
		// Rebuild the form on the same screen, keeping the email.
		mode, errMsg := m.mode, msg.result.Error
		if msg.result.Success {
			mode, errMsg = ModeLogin, "Could not verify the new session. Please sign in."
		}
		cmd := m.SetMode(mode)
		m.errorMsg = errMsg
		return m, cmd

	case spinner.TickMsg:
		if m.submitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		if m.mode == ModeResetSent {
			if key.Matches(msg, m.keys.Back) {
				return m, m.SetMode(ModeLogin)
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Login) && m.mode != ModeLogin:
			return m, m.SetMode(ModeLogin)
		case key.Matches(msg, m.keys.Register) && m.mode != ModeRegister:
			return m, m.SetMode(ModeRegister)
		case key.Matches(msg, m.keys.Forgot) && m.mode != ModeForgot:
			return m, m.SetMode(ModeForgot)
		}
	}

	if m.form == nil || m.submitting {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.submit()
	case huh.StateAborted:
		return m, m.SetMode(ModeLogin)
	}

	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.mode == ModeForgot {
		// There is no reset endpoint; the confirmation is local.
		m.mode = ModeResetSent
		m.form = nil
		return m, nil
	}

	m.submitting = true
	m.errorMsg = ""

	sessions := m.sessions
	email := strings.TrimSpace(m.fb.email)
	password, confirm := m.fb.password, m.fb.confirm
	register := m.mode == ModeRegister

	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx := context.Background()
		var res api.Result[model.User]
		if register {
			res = sessions.SignUp(ctx, email, password, confirm)
		} else {
			res = sessions.SignIn(ctx, email, password)
		}
		if !res.Success {
			return submitResultMsg{result: res}
		}
		return submitResultMsg{result: res, session: sessions.GetSession(ctx)}
	})
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	email := huh.NewInput().
		Title("Email").
		Placeholder("you@example.com").
		Value(&m.fb.email).
		Validate(validate.Email)

	var fields []huh.Field
	switch m.mode {
	case ModeRegister:
		fields = []huh.Field{
			email,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				DescriptionFunc(func() string {
					return StrengthMeter(fb.password)
				}, &fb.password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.confirm),
		}
	case ModeForgot:
		fields = []huh.Field{
			email,
			huh.NewNote().
				Description("We will email you a link to reset your password."),
		}
	default:
		fields = []huh.Field{
			email,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
		}
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(m.formWidth())
}

// StrengthMeter renders a five-cell bar and label for pw.
func StrengthMeter(pw string) string {
	if pw == "" {
		return "Password strength: -"
	}
	score := validate.PasswordStrength(pw)
	bar := strings.Repeat("■", score) + strings.Repeat("□", validate.MaxStrength-score)
	return theme.StrengthStyle(score).Render(bar + " " + validate.StrengthLabel(score))
}

// View renders the auth view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.mode.title()))
	b.WriteString("\n")

	if m.errorMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errorMsg))
		b.WriteString("\n\n")
	}

	switch {
	case m.mode == ModeResetSent:
		b.WriteString(theme.SuccessStyle.Render(ResetSentMessage))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("enter back to sign in"))
	case m.submitting:
		verb := "Signing in..."
		if m.mode == ModeRegister {
			verb = "Creating account..."
		}
		b.WriteString(m.spinner.View() + " " + verb)
	case m.form != nil:
		b.WriteString(m.form.View())
		b.WriteString("\n")
		b.WriteString(hintStyle.Render(m.modeHints()))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) modeHints() string {
	var hints []string
	for _, b := range []struct {
		binding key.Binding
		mode    Mode
	}{
		{m.keys.Login, ModeLogin},
		{m.keys.Register, ModeRegister},
		{m.keys.Forgot, ModeForgot},
	} {
		if b.mode == m.mode {
			continue
		}
		h := b.binding.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return strings.Join(hints, " | ")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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
