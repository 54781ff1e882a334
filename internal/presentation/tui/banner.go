package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Quill ASCII art banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"   ____        _ _ _ ", "#818cf8"},
		{"  / __ \\__  __(_) | |", "#a78bfa"},
		{" / / / / / / / / | |", "#c084fc"},
		{"/ /_/ / /_/ / / | |_|", "#e879f9"},
		{"\\___\\_\\__,_/_/|_(_)", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
