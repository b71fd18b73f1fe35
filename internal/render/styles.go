package render

import "github.com/charmbracelet/lipgloss"

// Styles used for terminal output.
type Styles struct {
	Banner  lipgloss.Style // code block start/end banners
	Header  lipgloss.Style // section headers such as "===== Project Files ====="
	Success lipgloss.Style
	Error   lipgloss.Style
	Subtle  lipgloss.Style
}

// NewStyles returns the default terminal styles.
func NewStyles() Styles {
	return Styles{
		Banner: lipgloss.NewStyle().Bold(true),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AD8CFF")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00E6B8")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true),
		Subtle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777")),
	}
}

// PlainStyles renders text unchanged. Used for non-terminal output and tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Banner: plain, Header: plain, Success: plain, Error: plain, Subtle: plain}
}
