// Package legal renders the terms of service and privacy policy pointers.
package legal

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdesk/internal/keys"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/theme"
)

// BackMsg signals the legal page should close.
type BackMsg struct{}

const notPublished = "not published"

// Model is the static legal page.
type Model struct {
	keys       *keys.KeyMap
	termsURL   string
	privacyURL string
	width      int
	height     int
}

// New creates the legal page from the configured URLs.
func New(cfg model.LegalConfig, k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:       k,
		termsURL:   cfg.TermsURL,
		privacyURL: cfg.PrivacyURL,
		width:      width,
		height:     height,
	}
}

// Update handles messages for the legal page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}
	return m, nil
}

// View renders the legal page.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	labelStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Width(18)
	linkStyle := lipgloss.NewStyle().
		Foreground(theme.ColorBlue).
		Underline(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Terms & Privacy"))
	b.WriteString("\n\n")
	b.WriteString("By using this client you agree to the terms of service\n")
	b.WriteString("and privacy policy of the task service you connect to.\n\n")

	for _, row := range []struct{ label, url string }{
		{"Terms of service", m.termsURL},
		{"Privacy policy", m.privacyURL},
	} {
		b.WriteString(labelStyle.Render(row.label))
		if row.url == "" {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render(notPublished))
		} else {
			b.WriteString(linkStyle.Render(row.url))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("esc back"))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
