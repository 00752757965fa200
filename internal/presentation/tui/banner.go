package tui

import (
	"fmt"
	"io"
)

// PrintBanner outputs the sitenav ASCII art banner.
func PrintBanner(w io.Writer) {
	p := ProfileOf(w)
	lines := []struct {
		text  string
		color string
	}{
		{"       _ _                        ", "#818cf8"},
		{"  ___ (_) |_ ___ _ __   __ ___   __", "#a78bfa"},
		{" / __|| | __/ _ \\ '_ \\ / _` \\ \\ / /", "#c084fc"},
		{" \\__ \\| | ||  __/ | | | (_| |\\ V / ", "#e879f9"},
		{" |___/|_|\\__\\___|_| |_|\\__,_| \\_/  ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
