// Package settings is the in-app editor for the persisted configuration.
package settings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdesk/internal/keys"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/theme"
)

// Mode is the current state of the settings view.
type Mode int

const (
	ModeSummary Mode = iota // Show the effective values
	ModeForm                // Editing
	ModeSaving              // Writing the config file
)

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// SavedMsg carries the configuration that was written to disk.
type SavedMsg struct {
	Config model.AppConfig
}

// savedInternalMsg is sent after the config file was written.
type savedInternalMsg struct {
	cfg model.AppConfig
	err error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	baseURL string
	chatURL string
	timeout string
	theme   string
}

// Model is the Bubble Tea model for the settings view.
type Model struct {
	mode      Mode
	path      string
	cfg       model.AppConfig
	form      *huh.Form
	fb        *formBindings
	keys      *keys.KeyMap
	spinner   spinner.Model
	statusMsg string
	width     int
	height    int
}

// New creates a settings view editing the config file at path.
func New(path string, cfg *model.AppConfig, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		path:    path,
		cfg:     *cfg,
		fb:      &formBindings{},
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Open shows the summary with a clean status line.
func (m *Model) Open() {
	m.mode = ModeSummary
	m.statusMsg = ""
}

// Config returns the configuration as last saved.
func (m Model) Config() model.AppConfig {
	return m.cfg
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedInternalMsg:
		m.mode = ModeSummary
		if msg.err != nil {
			m.statusMsg = "Save failed: " + msg.err.Error()
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Saved. API changes apply after restart."
		cfg := msg.cfg
		return m, func() tea.Msg { return SavedMsg{Config: cfg} }

	case spinner.TickMsg:
		if m.mode == ModeSaving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeSummary:
			return m.handleSummaryKeys(msg)
		case ModeSaving:
			return m, nil
		}
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleSummaryKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DoneMsg{} }
	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Select):
		m.fb.baseURL = m.cfg.API.BaseURL
		m.fb.chatURL = m.cfg.Chat.URL
		m.fb.timeout = strconv.Itoa(m.cfg.API.TimeoutSec)
		m.fb.theme = m.cfg.Display.Theme
		if m.fb.theme == "" {
			m.fb.theme = model.DefaultTheme
		}
		m.form = m.buildForm()
		m.mode = ModeForm
		m.statusMsg = ""
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.mode = ModeSaving
		return m, tea.Batch(m.spinner.Tick, m.save(m.fromForm()))
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeSummary
		return m, nil
	}

	return m, cmd
}

func (m *Model) buildForm() *huh.Form {
	options := make([]huh.Option[string], 0, len(theme.Names))
	for _, name := range theme.Names {
		options = append(options, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Description("Root URL of the task API").
				Placeholder(model.DefaultBaseURL).
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Chat URL").
				Description("Leave empty to use <base URL>/api/chat").
				Value(&m.fb.chatURL).
				Validate(validateOptionalURL),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&m.fb.timeout).
				Validate(validateTimeout),
			huh.NewSelect[string]().
				Title("Theme").
				Options(options...).
				Value(&m.fb.theme),
		),
	).WithWidth(m.formWidth())
}

// fromForm applies the bound form values to a copy of the current config.
func (m Model) fromForm() model.AppConfig {
	cfg := m.cfg
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/")
	cfg.Chat.URL = strings.TrimSpace(m.fb.chatURL)
	if n, err := strconv.Atoi(strings.TrimSpace(m.fb.timeout)); err == nil && n > 0 {
		cfg.API.TimeoutSec = n
	}
	cfg.Display.Theme = m.fb.theme
	return cfg
}

func (m Model) save(cfg model.AppConfig) tea.Cmd {
	path := m.path
	return func() tea.Msg {
		err := model.SaveConfig(path, &cfg)
		return savedInternalMsg{cfg: cfg, err: err}
	}
}

// View renders the settings view.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeForm:
		if m.form == nil {
			return ""
		}
		return style.Render(m.form.View())
	case ModeSaving:
		return style.Render(m.spinner.View() + " Saving settings...")
	}

	return style.Render(m.viewSummary())
}

func (m Model) viewSummary() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	labelStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Width(16)

	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	chatURL := m.cfg.Chat.URL
	if chatURL == "" {
		chatURL = m.cfg.ChatURL() + " (derived)"
	}
	rows := []struct{ label, value string }{
		{"API base URL", m.cfg.API.BaseURL},
		{"Chat URL", chatURL},
		{"Timeout", fmt.Sprintf("%ds", m.cfg.API.TimeoutSec)},
		{"Theme", m.cfg.Display.Theme},
		{"Config file", m.path},
	}
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(r.value)
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true).
			Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("e edit | esc back"))

	return b.String()
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
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validateOptionalURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateURL(s)
}

func validateTimeout(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("timeout must be a positive number of seconds")
	}
	return nil
}
