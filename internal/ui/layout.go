package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdesk/internal/theme"
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int

	// Header is the style of the title bar, chosen by display.theme.
	Header lipgloss.Style
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
		Header:          theme.HeaderStyle,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// WithHeader returns a copy of l that renders the title bar in style.
func (l Layout) WithHeader(style lipgloss.Style) Layout {
	l.Header = style
	return l
}

// RenderHeader renders the top header bar with a title and the account
// status on the right.
func (l Layout) RenderHeader(title string, account string) string {
	titleRendered := l.Header.Render(title)

	statusRendered := l.Header.
		Align(lipgloss.Right).
		Render(account)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := l.Header.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(l.Header.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.renderBar(theme.StatusBarStyle, hints)
}

// RenderErrorBar renders the bottom bar in the error style.
func (l Layout) RenderErrorBar(msg string) string {
	return l.renderBar(theme.ErrorBarStyle, msg)
}

func (l Layout) renderBar(style lipgloss.Style, text string) string {
	rendered := style.Render(text)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
