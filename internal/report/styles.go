package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen  = lipgloss.Color("#4d9375")
	colorRed    = lipgloss.Color("#cb7676")
	colorYellow = lipgloss.Color("#e6cc77")
	colorMuted  = lipgloss.Color("#bfbaaa")
)

// styles are bound to one writer so color is dropped when it is not a
// terminal.
type styles struct {
	ok, fail, warn, muted, bold lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		ok:    r.NewStyle().Foreground(colorGreen),
		fail:  r.NewStyle().Foreground(colorRed),
		warn:  r.NewStyle().Foreground(colorYellow),
		muted: r.NewStyle().Foreground(colorMuted),
		bold:  r.NewStyle().Bold(true),
	}
}
