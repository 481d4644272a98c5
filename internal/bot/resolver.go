package bot

import (
	"context"
	"strings"

	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/prompt"
)

// resolver matches directive names for one trigger. Names are looked up in
// the prompt window first (login name, then display name, newest message
// first). Mentions fall back to the platform's member lookup; replies need a
// concrete message and so only come from the window.
type resolver struct {
	ev     *core.IncomingEvent
	window []core.HistoryMessage
	lookup core.MemberLookup
}

func newResolver(ev *core.IncomingEvent, pc *prompt.Context, lookup core.MemberLookup) *resolver {
	window := make([]core.HistoryMessage, 0, len(pc.History)+1)
	window = append(window, pc.History...)
	window = append(window, pc.Trigger)
	return &resolver{ev: ev, window: window, lookup: lookup}
}

func (r *resolver) User(ctx context.Context, name string) (core.User, error) {
	if m, ok := r.find(name); ok {
		return m.Author, nil
	}
	return r.lookup.LookupMember(ctx, r.ev, strings.TrimPrefix(name, "@"))
}

func (r *resolver) Message(_ context.Context, name string) (core.MessageRef, error) {
	if m, ok := r.find(name); ok && m.ID != "" {
		return core.MessageRef{ID: m.ID, Author: m.Author}, nil
	}
	return core.MessageRef{}, core.ErrNotFound
}

func (r *resolver) find(name string) (core.HistoryMessage, bool) {
	name = strings.TrimPrefix(name, "@")
	for i := len(r.window) - 1; i >= 0; i-- {
		if strings.EqualFold(r.window[i].Author.Name, name) {
			return r.window[i], true
		}
	}
	for i := len(r.window) - 1; i >= 0; i-- {
		if d := r.window[i].Author.DisplayName; d != "" && strings.EqualFold(d, name) {
			return r.window[i], true
		}
	}
	return core.HistoryMessage{}, false
}
