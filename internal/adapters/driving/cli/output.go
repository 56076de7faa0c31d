package cli

import (
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// palette holds the styles used for human-readable output. The zero value
// renders plain text.
type palette struct {
	heading lipgloss.Style
	channel lipgloss.Style
	muted   lipgloss.Style
	bar     lipgloss.Style
	warn    lipgloss.Style
}

func plainPalette() palette {
	s := lipgloss.NewStyle()
	return palette{heading: s, channel: s, muted: s, bar: s, warn: s}
}

func colourPalette() palette {
	return palette{
		heading: lipgloss.NewStyle().Bold(true),
		channel: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		bar:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// paletteFor enables colour only when w is a terminal.
func paletteFor(w io.Writer) palette {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return colourPalette()
	}
	return plainPalette()
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if n < 0 {
		neg, s = true, s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
