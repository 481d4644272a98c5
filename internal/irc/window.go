package irc

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexschlessinger/pollytool/messages"
	"github.com/alexschlessinger/pollytool/sessions"

	"pkdindustries/chorus/internal/core"
)

// Window remembers the recent lines of each channel or query, since IRC
// servers keep no history. Idle windows expire after the store's TTL.
type Window struct {
	store sessions.SessionStore
	size  int
	locks sync.Map // key -> *sync.Mutex
}

// NewWindow keeps at most size lines per key. The session store only trims
// by token count, so the line bound is enforced in Record.
func NewWindow(size int, ttl time.Duration) *Window {
	return &Window{
		store: sessions.NewSyncMapSessionStore(&sessions.Metadata{TTL: ttl}),
		size:  size,
	}
}

func (w *Window) lock(key string) *sync.Mutex {
	mu, _ := w.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Record appends m to the window for key
func (w *Window) Record(key string, m core.HistoryMessage) error {
	s, err := w.store.Get(key)
	if err != nil {
		return fmt.Errorf("window %s: %w", key, err)
	}
	role := messages.MessageRoleUser
	if m.Author.Bot {
		role = messages.MessageRoleAssistant
	}

	mu := w.lock(key)
	mu.Lock()
	defer mu.Unlock()

	s.AddMessage(messages.ChatMessage{Role: role, Content: encodeLine(m)})
	if w.size <= 0 {
		return nil
	}
	if history := s.GetHistory(); len(history) > w.size {
		s.Clear()
		for _, msg := range history[len(history)-w.size:] {
			s.AddMessage(msg)
		}
	}
	return nil
}

// Recent returns the window for key, oldest first
func (w *Window) Recent(key string) ([]core.HistoryMessage, error) {
	s, err := w.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", key, err)
	}
	mu := w.lock(key)
	mu.Lock()
	history := s.GetHistory()
	mu.Unlock()

	var out []core.HistoryMessage
	for _, msg := range history {
		if msg.Role != messages.MessageRoleUser && msg.Role != messages.MessageRoleAssistant {
			continue
		}
		if m, ok := decodeLine(msg.Content); ok {
			m.Author.Bot = msg.Role == messages.MessageRoleAssistant
			out = append(out, m)
		}
	}
	return out, nil
}

// encodeLine stores a message as "id <nick> text", or "id <nick:replyto> text"
// when it answers someone
func encodeLine(m core.HistoryMessage) string {
	who := m.Author.Name
	if m.ReplyTo != nil {
		who += ":" + m.ReplyTo.Name
	}
	return m.ID + " <" + who + "> " + m.Content
}

func decodeLine(line string) (core.HistoryMessage, bool) {
	id, rest, ok := strings.Cut(line, " <")
	if !ok {
		return core.HistoryMessage{}, false
	}
	who, text, ok := strings.Cut(rest, "> ")
	if !ok {
		return core.HistoryMessage{}, false
	}
	m := core.HistoryMessage{ID: id, Content: text}
	nick, to, replying := strings.Cut(who, ":")
	m.Author = core.User{Name: nick}
	if replying && to != "" {
		m.ReplyTo = &core.User{Name: to}
	}
	return m, true
}
