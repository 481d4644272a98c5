package prompt

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/llm"
)

// Context is the prompt for one trigger
type Context struct {
	Identity    string
	Guidelines  string
	Environment string
	// History is the bounded window before the trigger, oldest first
	History []core.HistoryMessage
	Trigger core.HistoryMessage
	Self    core.Identity
}

// Assembler builds prompt contexts from the static templates and channel history
type Assembler struct {
	templates *Templates
	limit     int
	now       func() time.Time
	logger    *zap.SugaredLogger
}

func NewAssembler(t *Templates, limit int, logger *zap.SugaredLogger) *Assembler {
	return &Assembler{templates: t, limit: limit, now: time.Now, logger: logger}
}

// Assemble fetches at most limit messages preceding ev. A failed fetch is
// logged and leaves the window empty.
func (a *Assembler) Assemble(ctx context.Context, ev *core.IncomingEvent, src core.HistorySource, self core.Identity) *Context {
	history, err := src.History(ctx, ev, a.limit)
	if err != nil {
		a.logger.Warnw("History fetch failed, continuing without it", "platform", ev.Platform, "channel", ev.ChannelID, "error", err)
		history = nil
	}

	return &Context{
		Identity:    a.templates.Identity,
		Guidelines:  a.templates.Guidelines,
		Environment: Environment(ev, a.now()),
		History:     window(history, ev.ID, a.limit),
		Trigger:     ev.AsHistory(),
		Self:        self,
	}
}

// window drops the trigger itself and keeps the newest limit messages
func window(history []core.HistoryMessage, triggerID string, limit int) []core.HistoryMessage {
	out := make([]core.HistoryMessage, 0, len(history))
	for _, m := range history {
		if triggerID != "" && m.ID == triggerID {
			continue
		}
		out = append(out, m)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// System is the system prompt: identity, guidelines and the environment header
func (c *Context) System() string {
	return joinBlocks(c.Identity, c.Guidelines, c.Environment)
}

// String renders the whole prompt as one text in fixed order: identity,
// guidelines, environment, history, then the trigger message.
func (c *Context) String() string {
	lines := make([]string, 0, len(c.History))
	for _, m := range c.History {
		lines = append(lines, c.line(m))
	}
	return joinBlocks(c.Identity, c.Guidelines, c.Environment, strings.Join(lines, "\n"), c.line(c.Trigger))
}

// Messages returns the window and trigger as chat turns. The bot's own
// messages are assistant turns; consecutive turns of one role are merged.
// Leading assistant turns are dropped so the conversation opens with a user.
func (c *Context) Messages() []llm.Message {
	var out []llm.Message
	add := func(m core.HistoryMessage) {
		role, content := llm.RoleUser, c.line(m)
		if c.Self.Is(m.Author) {
			role, content = llm.RoleAssistant, m.Content
		}
		if len(out) == 0 && role == llm.RoleAssistant {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n" + content
			return
		}
		out = append(out, llm.Message{Role: role, Content: content})
	}

	for _, m := range c.History {
		add(m)
	}
	add(c.Trigger)
	return out
}

// line formats a message as "[Display (@name), replying to ...]: text"
func (c *Context) line(m core.HistoryMessage) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(label(m.Author))
	if m.ReplyTo != nil {
		if c.Self.Is(*m.ReplyTo) {
			b.WriteString(", replying to you")
		} else {
			b.WriteString(", replying to ")
			b.WriteString(label(*m.ReplyTo))
		}
	}
	b.WriteString("]: ")
	b.WriteString(m.Content)
	return b.String()
}

func label(u core.User) string {
	return u.Label() + " (@" + u.Name + ")"
}

func joinBlocks(blocks ...string) string {
	kept := blocks[:0:0]
	for _, b := range blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n")
}
