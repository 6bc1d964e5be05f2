package report

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the report
var (
	ColorRed    = lipgloss.Color("#FF5F5F")
	ColorGreen  = lipgloss.Color("#5FD75F")
	ColorYellow = lipgloss.Color("#FFD75F")
	ColorCyan   = lipgloss.Color("#5FD7FF")
	ColorGray   = lipgloss.Color("#808080")
)

// styles are bound to one renderer so color follows the output writer
type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	dim     lipgloss.Style
	warn    lipgloss.Style
	pos     lipgloss.Style
	neg     lipgloss.Style
	bar     lipgloss.Style
	section lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(ColorCyan),
		header:  r.NewStyle().Bold(true),
		dim:     r.NewStyle().Foreground(ColorGray),
		warn:    r.NewStyle().Foreground(ColorYellow).Bold(true),
		pos:     r.NewStyle().Foreground(ColorGreen),
		neg:     r.NewStyle().Foreground(ColorRed),
		bar:     r.NewStyle().Foreground(ColorCyan),
		section: r.NewStyle().MarginTop(1),
	}
}
