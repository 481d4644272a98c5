// Package dispatch delivers parsed units to a chat platform, one message at a time.
package dispatch

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/directive"
)

// Pacing controls the simulated typing delay between units. A zero Cap disables it.
type Pacing struct {
	Base    time.Duration
	PerRune time.Duration
	Cap     time.Duration
}

// DefaultPacing waits half a second plus 10ms per character, at most 1.5s
var DefaultPacing = Pacing{Base: 500 * time.Millisecond, PerRune: 10 * time.Millisecond, Cap: 1500 * time.Millisecond}

// Delay returns the wait before sending text
func (p Pacing) Delay(text string) time.Duration {
	if p.Cap <= 0 {
		return 0
	}
	return min(p.Base+p.PerRune*time.Duration(utf8.RuneCountInString(text)), p.Cap)
}

// Report counts the outcome of one dispatch
type Report struct {
	Sent   int
	Failed int
}

type Dispatcher struct {
	sender         core.Sender
	pacing         Pacing
	showTyping     bool
	replyToTrigger bool
	logger         *zap.SugaredLogger
	sleep          func(ctx context.Context, d time.Duration) error
}

type Option func(*Dispatcher)

func WithPacing(p Pacing) Option { return func(d *Dispatcher) { d.pacing = p } }

func WithTyping(show bool) Option { return func(d *Dispatcher) { d.showTyping = show } }

// WithReplyToTrigger makes the first unit without a reply target answer the triggering message
func WithReplyToTrigger(reply bool) Option { return func(d *Dispatcher) { d.replyToTrigger = reply } }

func New(sender core.Sender, logger *zap.SugaredLogger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		pacing: DefaultPacing,
		logger: logger,
		sleep:  sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends units in order. A failed send is logged and the next unit
// is still attempted. Dispatch returns early only when ctx ends.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *core.IncomingEvent, units []directive.Unit) Report {
	var report Report

	for i, u := range units {
		if i > 0 {
			if err := d.sleep(ctx, d.pacing.Delay(u.Text)); err != nil {
				report.Failed += len(units) - i
				d.logger.Warnw("Dispatch interrupted", "sent", report.Sent, "dropped", len(units)-i, "error", err)
				return report
			}
		}

		if d.showTyping {
			if err := d.sender.Typing(ctx, ev.ChannelID); err != nil {
				d.logger.Debugw("Typing indicator failed", "error", err)
			}
		}

		if err := d.send(ctx, ev, i, u); err != nil {
			report.Failed++
			d.logger.Errorw("Failed to send message", "unit", i, "error", err)
			continue
		}
		report.Sent++
	}
	return report
}

func (d *Dispatcher) send(ctx context.Context, ev *core.IncomingEvent, i int, u directive.Unit) error {
	text := u.Text
	if u.MentionTarget != nil {
		text = d.sender.MentionSyntax(*u.MentionTarget) + " " + text
	}

	var err error
	switch {
	case u.ReplyTarget != nil:
		err = d.sender.Reply(ctx, ev.ChannelID, *u.ReplyTarget, text)
	case i == 0 && d.replyToTrigger && ev.ID != "":
		err = d.sender.Reply(ctx, ev.ChannelID, ev.Ref(), text)
	default:
		err = d.sender.Send(ctx, ev.ChannelID, text)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrSend, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
