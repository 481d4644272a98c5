package prompt

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"pkdindustries/chorus/internal/core"
)

// Environment renders the "# Current Context" header: local time and where
// the conversation happens.
func Environment(ev *core.IncomingEvent, now time.Time) string {
	return fmt.Sprintf("# Current Context\nIt's %s. This conversation is happening %s.", formatDate(now), location(ev))
}

// formatDate renders t as "Sunday, November 3rd, 1:45PM"
func formatDate(t time.Time) string {
	return fmt.Sprintf("%s, %s %d%s, %s", t.Weekday(), t.Month(), t.Day(), ordinal(t.Day()), t.Format("3:04PM"))
}

func ordinal(day int) string {
	if day >= 10 && day <= 20 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

func location(ev *core.IncomingEvent) string {
	switch {
	case ev.IsDirect:
		return "in a DM"
	case ev.ChannelName != "":
		loc := "in #" + strings.TrimPrefix(ev.ChannelName, "#")
		if ev.ServerName != "" {
			loc += " on " + ev.ServerName
		}
		return loc
	case ev.Platform != "":
		return "in " + title(ev.Platform)
	}
	return "in a chat"
}

func title(s string) string {
	if strings.EqualFold(s, "irc") {
		return "IRC"
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
