package bot

import (
	"fmt"
	"strings"

	"github.com/mazznoer/colorgrad"
)

// GetBanner returns a colorized ASCII art banner
func GetBanner(version string) string {
	banner := `
       _
  ___ | |__    ___   _ __  _   _  ___
 / __|| '_ \  / _ \ | '__|| | | |/ __|
| (__ | | | || (_) || |   | |_| |\__ \
 \___||_| |_| \___/ |_|    \__,_||___/
 .  .  .  one  voice,  many  messages  [v` + version + `]
`
	grad, _ := colorgrad.NewGradient().
		HtmlColors("#7b2ff7ff", "#f107a3ff", "#fdfdfdff").
		Build()

	lines := strings.Split(banner, "\n")

	maxLen := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > maxLen {
			maxLen = n
		}
	}

	colors := grad.Colors(uint(maxLen))
	var out strings.Builder

	for _, line := range lines {
		for i, ch := range []rune(line) {
			r, g, b, _ := colors[i].RGBA255()
			fmt.Fprintf(&out, "\x1b[38;2;%d;%d;%dm%c", r, g, b, ch)
		}
		out.WriteString("\x1b[0m\n")
	}

	return out.String()
}
