package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the calbot banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	lines := []struct{ text, color string }{
		{"            _ _           _   ", "#818cf8"},
		{"   ___ __ _| | |__   ___ | |_ ", "#a78bfa"},
		{"  / __/ _` | | '_ \\ / _ \\| __|", "#c084fc"},
		{" | (_| (_| | | |_) | (_) | |_ ", "#e879f9"},
		{"  \\___\\__,_|_|_.__/ \\___/ \\__|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  Microsoft Graph calendar bot "+version).Faint())
	fmt.Fprintln(w)
}
