package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the pathquiz banner in an indigo to rose gradient.
func PrintBanner(w io.Writer, p termenv.Profile) {
	lines := []struct{ text, color string }{
		{"              _   _                   _     ", "#818cf8"},
		{"  _ __   __ _| |_| |__   __ _ _   _(_)___ ", "#a78bfa"},
		{" | '_ \\ / _` | __| '_ \\ / _` | | | | |_  /", "#c084fc"},
		{" | |_) | (_| | |_| | | | (_| | |_| | |/ / ", "#e879f9"},
		{" | .__/ \\__,_|\\__|_| |_|\\__, |\\__,_|_/___|", "#f472b6"},
		{" |_|                       |_|            ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
