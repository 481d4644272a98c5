// Package directive turns a raw completion into the ordered messages the bot sends.
//
// A completion is split on blank lines ("\n\n"). Each segment may start with
// bracket directives that address the message:
//
//	[reply:alice] sends the segment as a reply to alice's latest message
//	[@bob]        prepends a mention of bob
//
// Directives are only recognised at the very start of a segment. The same
// bracket text anywhere else is literal.
package directive

import (
	"strings"
	"unicode"

	"pkdindustries/chorus/internal/core"
)

// Separator delimits messages in a completion
const Separator = "\n\n"

const (
	replyPrefix   = "[reply:"
	mentionPrefix = "[@"
)

// Unit is one outgoing message
type Unit struct {
	Text string

	// Reply and Mention hold directive names as written by the model
	Reply   string
	Mention string

	// Targets are filled by Resolve; nil means the directive is not applied
	ReplyTarget   *core.MessageRef
	MentionTarget *core.User
}

// Split breaks text on the separator and drops blank segments. Kept segments are trimmed.
func Split(text string) []string {
	var segments []string
	for _, s := range strings.Split(text, Separator) {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// Parse splits text into units and extracts leading directives.
// Segments that hold nothing but directives produce no unit.
func Parse(text string) []Unit {
	var units []Unit
	for _, segment := range Split(text) {
		u := parseSegment(segment)
		if u.Text == "" {
			continue
		}
		units = append(units, u)
	}
	return units
}

func parseSegment(segment string) Unit {
	var u Unit
	rest := strings.TrimLeftFunc(segment, unicode.IsSpace)
	var haveReply, haveMention bool

	for {
		if name, n, ok := scan(rest, replyPrefix); ok {
			if haveReply {
				break
			}
			u.Reply, haveReply = name, true
			rest = strings.TrimLeftFunc(rest[n:], unicode.IsSpace)
			continue
		}
		if name, n, ok := scan(rest, mentionPrefix); ok {
			if haveMention {
				break
			}
			u.Mention, haveMention = name, true
			rest = strings.TrimLeftFunc(rest[n:], unicode.IsSpace)
			continue
		}
		break
	}

	u.Text = strings.TrimSpace(rest)
	return u
}

// scan matches prefix + name + "]" at the start of s and returns the name and
// the number of bytes consumed. The name must be non-empty and may not contain
// whitespace or a closing bracket.
func scan(s, prefix string) (string, int, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", 0, false
	}
	body := s[len(prefix):]
	for i, r := range body {
		if r == ']' {
			if i == 0 {
				return "", 0, false
			}
			return body[:i], len(prefix) + i + 1, true
		}
		if unicode.IsSpace(r) {
			return "", 0, false
		}
	}
	return "", 0, false
}
