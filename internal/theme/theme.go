package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBarStyle replaces the status bar while an error is shown.
var ErrorBarStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// CompletedStyle dims finished tasks.
var CompletedStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Strikethrough(true)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle renders inline error text.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// SuccessStyle renders inline confirmations.
var SuccessStyle = lipgloss.NewStyle().
	Foreground(ColorGreen)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// CheckboxStyle returns the style of the completion marker.
func CheckboxStyle(completed bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if completed {
		return base.Foreground(ColorGreen)
	}
	return base.Foreground(ColorBlue)
}

// StrengthStyle colors a password strength score from 0 to 5.
func StrengthStyle(score int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case score <= 1:
		return base.Foreground(ColorRed)
	case score == 2:
		return base.Foreground(ColorYellow)
	case score == 3:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGreen)
	}
}

// RoleStyle colors a chat speaker label.
func RoleStyle(role string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch role {
	case "user":
		return base.Foreground(ColorBlue)
	case "assistant":
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}

// ForName returns the header style for a configured theme name. Unknown
// names fall back to the default blue.
func ForName(name string) lipgloss.Style {
	switch name {
	case "green":
		return HeaderStyle.Background(ColorGreen)
	case "magenta":
		return HeaderStyle.Background(ColorMagenta)
	case "mono":
		return HeaderStyle.Background(ColorSubtle)
	default:
		return HeaderStyle
	}
}

// Names lists the theme names accepted by ForName.
var Names = []string{"default", "green", "magenta", "mono"}
