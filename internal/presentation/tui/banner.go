package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the canopy banner and version using profile p.
func PrintBanner(w io.Writer, p termenv.Profile, version string) {
	lines := []struct {
		text  string
		color string
	}{
		{`   ___ __ _ _ __   ___  _ __  _   _ `, "#34d399"},
		{`  / __/ _' | '_ \ / _ \| '_ \| | | |`, "#10b981"},
		{` | (_| (_| | | | | (_) | |_) | |_| |`, "#059669"},
		{`  \___\__,_|_| |_|\___/| .__/ \__, |`, "#047857"},
		{`                       |_|    |___/ `, "#065f46"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, p.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
