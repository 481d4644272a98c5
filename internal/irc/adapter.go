// Package irc connects the pipeline to an IRC network through girc.
package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/girc"
	"go.uber.org/zap"

	"pkdindustries/chorus/internal/commands"
	"pkdindustries/chorus/internal/config"
	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/dispatch"
)

const (
	maxRetries     = 5
	reconnectDelay = 5 * time.Second
)

// Adapter implements core.Platform on a girc client
type Adapter struct {
	client   *girc.Client
	server   *config.ServerConfig
	admins   []string
	chunkMax int
	window   *Window
	logger   *zap.SugaredLogger

	// sendMu keeps the lines of one message together on the wire
	sendMu sync.Mutex
}

var _ core.Platform = (*Adapter)(nil)

func New(cfg *config.Configuration, logger *zap.SugaredLogger) *Adapter {
	client := girc.New(girc.Config{
		Server:    cfg.Server.Server,
		Port:      cfg.Server.Port,
		Nick:      cfg.Server.Nick,
		User:      "chorus",
		Name:      "chorus",
		SSL:       cfg.Server.SSL,
		TLSConfig: &tls.Config{InsecureSkipVerify: cfg.Server.TLSInsecure},
	})

	if cfg.Server.SASLNick != "" && cfg.Server.SASLPass != "" {
		client.Config.SASL = &girc.SASLPlain{
			User: cfg.Server.SASLNick,
			Pass: cfg.Server.SASLPass,
		}
	}

	// one extra line so the trigger itself never pushes out history
	return &Adapter{
		client:   client,
		server:   cfg.Server,
		admins:   cfg.Bot.Admins,
		chunkMax: cfg.Server.ChunkMax,
		window:   NewWindow(cfg.Prompt.HistoryLimit+1, cfg.Server.WindowTTL),
		logger:   logger,
	}
}

func (a *Adapter) Name() string { return config.PlatformIRC }

// Self reads the live nick since the server may have changed it
func (a *Adapter) Self() core.Identity {
	return core.Identity{Name: a.nick()}
}

func (a *Adapter) nick() string {
	if n := a.client.GetNick(); n != "" {
		return n
	}
	return a.server.Nick
}

// Run connects with bounded retries and delivers PRIVMSGs until ctx ends
func (a *Adapter) Run(ctx context.Context, onMessage core.EventHandler, registry *commands.Registry) error {
	go func() {
		<-ctx.Done()
		a.client.Quit("Shutting down...")
		a.logger.Info("IRC client closed")
	}()

	a.client.Handlers.AddBg(girc.CONNECTED, func(client *girc.Client, e girc.Event) {
		a.logger.Infof("Joining channel: %s", a.server.Channel)
		client.Cmd.Join(a.server.Channel)
	})

	a.client.Handlers.AddBg(girc.PRIVMSG, func(client *girc.Client, e girc.Event) {
		a.handle(ctx, e, onMessage, registry)
	})

	for i := range maxRetries {
		if ctx.Err() != nil {
			return nil
		}

		a.logger.Infow("Connecting to server",
			"server", a.client.Config.Server,
			"port", a.client.Config.Port,
			"tls", a.client.Config.SSL,
			"sasl", a.client.Config.SASL != nil,
		)

		if err := a.client.Connect(); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			a.logger.Errorw("Connection failed", "error", err)
			a.logger.Infof("Reconnecting in %s (attempt %d/%d)", reconnectDelay, i+1, maxRetries)

			select {
			case <-time.After(reconnectDelay):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	}

	return fmt.Errorf("failed to connect after %d attempts", maxRetries)
}

// handle records the line and routes it to the command registry or the pipeline
func (a *Adapter) handle(ctx context.Context, e girc.Event, onMessage core.EventHandler, registry *commands.Registry) {
	if e.Source == nil || len(e.Params) == 0 {
		return
	}
	nick := a.nick()
	if e.Source.Name == nick {
		return
	}

	ev := a.toEvent(e, nick)
	body := StripAddress(ev.Content, nick)

	if (ev.IsDirect || CheckAddressed(ev.Content, nick)) && commands.IsCommand(body) {
		a.runCommand(ctx, e, ev, body, registry)
		return
	}

	line := ev.AsHistory()
	if CheckAddressed(ev.Content, nick) {
		line.ReplyTo = &core.User{Name: nick, Bot: true}
	}
	if err := a.window.Record(ev.ChannelID, line); err != nil {
		a.logger.Warnw("Failed to record line", "channel", ev.ChannelID, "error", err)
	}

	onMessage(ctx, ev)
}

func (a *Adapter) runCommand(ctx context.Context, e girc.Event, ev *core.IncomingEvent, body string, registry *commands.Registry) {
	cc := core.NewChatContext(ctx, core.CommandInvocation{
		Platform: config.PlatformIRC,
		Text:     body,
		Source:   e.Source.Name,
		AdminID:  e.Source.String(),
		Admins:   a.admins,
		Private:  ev.IsDirect,
		Reply: func(text string) {
			for _, line := range dispatch.Lines(text, a.chunkMax) {
				a.client.Cmd.Reply(e, line)
			}
		},
	})
	cc.GetLogger().Infof(">> %s", body)
	registry.Dispatch(cc)
}

// toEvent converts a PRIVMSG. Queries use the sender's nick as the channel.
func (a *Adapter) toEvent(e girc.Event, nick string) *core.IncomingEvent {
	target := e.Params[0]
	private := CheckPrivate(target)

	ev := &core.IncomingEvent{
		ID:         uuid.NewString(),
		Platform:   config.PlatformIRC,
		ChannelID:  target,
		ServerName: a.network(),
		Author:     core.User{Name: e.Source.Name},
		Content:    e.Last(),
		IsDirect:   private,
	}
	if private {
		ev.ChannelID = e.Source.Name
	} else {
		ev.ChannelName = target
	}
	return ev
}

func (a *Adapter) network() string {
	if n := a.client.NetworkName(); n != "" {
		return n
	}
	return a.server.Server
}

// History returns the remembered lines of the event's channel before the
// event. Once the event has left the window nothing older is known, so the
// result is empty.
func (a *Adapter) History(_ context.Context, ev *core.IncomingEvent, limit int) ([]core.HistoryMessage, error) {
	recent, err := a.window.Recent(ev.ChannelID)
	if err != nil {
		return nil, err
	}
	at := slices.IndexFunc(recent, func(m core.HistoryMessage) bool { return m.ID == ev.ID })
	if at < 0 {
		return nil, nil
	}
	out := recent[:at]
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Send splits text into lines of at most chunkmax characters
func (a *Adapter) Send(_ context.Context, channelID, text string) error {
	return a.send(channelID, text, nil)
}

// Reply prefixes the text with the author's nick; IRC has no threaded replies
func (a *Adapter) Reply(_ context.Context, channelID string, to core.MessageRef, text string) error {
	return a.send(channelID, replyPrefix(to.Author.Name)+" "+text, &core.User{Name: to.Author.Name})
}

func (a *Adapter) send(channelID, text string, replyTo *core.User) error {
	if !a.client.IsConnected() {
		return fmt.Errorf("%w: not connected", core.ErrSend)
	}

	a.sendMu.Lock()
	for _, line := range dispatch.Lines(text, a.chunkMax) {
		a.client.Cmd.Message(channelID, line)
	}
	a.sendMu.Unlock()

	self := core.User{Name: a.nick(), Bot: true}
	if err := a.window.Record(channelID, core.HistoryMessage{ID: uuid.NewString(), Author: self, Content: text, ReplyTo: replyTo}); err != nil {
		a.logger.Warnw("Failed to record own line", "channel", channelID, "error", err)
	}
	return nil
}

// Typing is a no-op on IRC
func (a *Adapter) Typing(context.Context, string) error { return nil }

func (a *Adapter) MentionSyntax(u core.User) string {
	return replyPrefix(u.Name)
}

// LookupMember finds a nick the client currently tracks
func (a *Adapter) LookupMember(_ context.Context, _ *core.IncomingEvent, name string) (core.User, error) {
	name = strings.TrimPrefix(name, "@")
	if u := a.client.LookupUser(name); u != nil {
		return core.User{Name: u.Nick}, nil
	}
	return core.User{}, core.ErrNotFound
}
