package core

import "context"

// HistorySource fetches the recent messages of the event's channel.
// Results are chronological (oldest first) and precede the event.
type HistorySource interface {
	History(ctx context.Context, ev *IncomingEvent, limit int) ([]HistoryMessage, error)
}

// Sender delivers outgoing messages
type Sender interface {
	Send(ctx context.Context, channelID, text string) error
	Reply(ctx context.Context, channelID string, to MessageRef, text string) error
	Typing(ctx context.Context, channelID string) error
	// MentionSyntax renders a mention of u in the platform's markup
	MentionSyntax(u User) string
}

// MemberLookup resolves a user name to an identity
type MemberLookup interface {
	LookupMember(ctx context.Context, ev *IncomingEvent, name string) (User, error)
}

// Platform is everything the pipeline needs from a chat client
type Platform interface {
	HistorySource
	Sender
	MemberLookup
	Name() string
	Self() Identity
}

// EventHandler receives each incoming message. Adapters call it on the
// goroutine the chat client gives the event.
type EventHandler func(ctx context.Context, ev *IncomingEvent)
