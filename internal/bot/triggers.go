package bot

import (
	"strings"

	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/irc"
)

// Reason says why an event triggered the pipeline
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMention
	ReasonReply
	ReasonDirect
)

func (r Reason) String() string {
	switch r {
	case ReasonMention:
		return "mention"
	case ReasonReply:
		return "reply"
	case ReasonDirect:
		return "direct"
	}
	return "none"
}

// MentionFunc reports whether text mentions the bot
type MentionFunc func(text string, self core.Identity) bool

// ContainsToken matches any of the bot's mention tokens anywhere in the text
func ContainsToken(text string, self core.Identity) bool {
	for _, token := range self.Tokens {
		if token != "" && strings.Contains(text, token) {
			return true
		}
	}
	return false
}

// Addressed matches text that starts with the bot's nick followed by a
// separator or the end of the text
func Addressed(text string, self core.Identity) bool {
	return irc.CheckAddressed(text, self.Name)
}

// Evaluator decides whether an event should run the pipeline.
// It only reads the event.
type Evaluator struct {
	Self  core.Identity
	Match MentionFunc
}

// Check returns the first matching reason. Direct messages win over mentions,
// mentions over replies. The bot's own messages never trigger.
func (e Evaluator) Check(ev *core.IncomingEvent) Reason {
	if e.Self.Is(ev.Author) {
		return ReasonNone
	}
	if ev.IsDirect {
		return ReasonDirect
	}
	if e.Match != nil && e.Match(ev.Content, e.Self) {
		return ReasonMention
	}
	if ev.ReplyTo != nil && e.Self.Is(ev.ReplyTo.Author) {
		return ReasonReply
	}
	return ReasonNone
}

func (e Evaluator) ShouldRespond(ev *core.IncomingEvent) bool {
	return e.Check(ev) != ReasonNone
}
