package irc

import "strings"

// CheckAddressed returns true if message starts with botNick followed by a separator or end of string.
// An empty nick never matches.
func CheckAddressed(message, botNick string) bool {
	if botNick == "" || !strings.HasPrefix(message, botNick) {
		return false
	}
	if len(message) == len(botNick) {
		return true
	}
	next := message[len(botNick)]
	return next == ' ' || next == ':' || next == ','
}

// StripAddress removes a leading "nick:" or "nick," and the spaces after it
func StripAddress(message, botNick string) string {
	if !CheckAddressed(message, botNick) {
		return message
	}
	rest := strings.TrimPrefix(message, botNick)
	rest = strings.TrimLeft(rest, ":,")
	return strings.TrimSpace(rest)
}

// CheckPrivate returns true if target is not a channel (doesn't start with #).
func CheckPrivate(target string) bool {
	return !strings.HasPrefix(target, "#")
}

// replyPrefix addresses a line to nick the way IRC users do
func replyPrefix(nick string) string {
	return nick + ":"
}
