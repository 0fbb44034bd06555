package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#2196F3")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorDanger  = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#8a94a6")
)

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	notice lipgloss.Style
	err    lipgloss.Style
	muted  lipgloss.Style
	accent lipgloss.Style
	card   lipgloss.Style
}

// newStyles binds styles to the output so color support is detected per writer
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(colorPrimary),
		header: r.NewStyle().Bold(true),
		notice: r.NewStyle().Foreground(colorWarning),
		err:    r.NewStyle().Foreground(colorDanger),
		muted:  r.NewStyle().Foreground(colorMuted),
		accent: r.NewStyle().Bold(true).Foreground(colorSuccess),
		card: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1),
	}
}
