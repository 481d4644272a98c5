package core

// User is a chat participant as the platform reports it
type User struct {
	ID          string
	Name        string
	DisplayName string
	Bot         bool
}

// Label returns the name used when addressing the user in prompts
func (u User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// Identity is the bot's own account on a platform
type Identity struct {
	ID   string
	Name string
	// Tokens are the literal strings that mention the bot in message text
	Tokens []string
}

// Is reports whether u is the bot itself
func (i Identity) Is(u User) bool {
	if i.ID != "" && u.ID != "" {
		return i.ID == u.ID
	}
	return i.Name != "" && i.Name == u.Name
}

// HistoryMessage is one message of a channel's recent history
type HistoryMessage struct {
	ID      string
	Author  User
	Content string
	ReplyTo *User
}

// MessageRef points at a concrete message that can be replied to
type MessageRef struct {
	ID     string
	Author User
}

// IncomingEvent is a message delivered by a chat platform. It is handled once.
type IncomingEvent struct {
	ID          string
	Platform    string
	ChannelID   string
	ChannelName string
	// ServerID is the guild on Discord, empty for DMs and IRC
	ServerID    string
	ServerName  string
	Author      User
	Content     string
	ReplyTo     *HistoryMessage
	IsDirect    bool
}

// Ref returns a reference to the event's own message
func (e *IncomingEvent) Ref() MessageRef {
	return MessageRef{ID: e.ID, Author: e.Author}
}

// AsHistory returns the event as a history line
func (e *IncomingEvent) AsHistory() HistoryMessage {
	m := HistoryMessage{ID: e.ID, Author: e.Author, Content: e.Content}
	if e.ReplyTo != nil {
		author := e.ReplyTo.Author
		m.ReplyTo = &author
	}
	return m
}
