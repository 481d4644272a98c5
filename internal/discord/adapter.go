// Package discord connects the pipeline to Discord through a bot gateway session.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"pkdindustries/chorus/internal/commands"
	"pkdindustries/chorus/internal/config"
	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/dispatch"
)

const (
	// MaxMessage is Discord's per-message character limit
	MaxMessage = 2000

	memberSearchLimit = 5
)

// Adapter implements core.Platform on a discordgo session
type Adapter struct {
	session *discordgo.Session
	guildID string
	admins  []string
	logger  *zap.SugaredLogger

	mu   sync.RWMutex
	self core.Identity
}

var _ core.Platform = (*Adapter)(nil)

func New(cfg *config.Configuration, logger *zap.SugaredLogger) (*Adapter, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers

	return &Adapter{
		session: session,
		guildID: cfg.Discord.GuildID,
		admins:  cfg.Bot.Admins,
		logger:  logger,
	}, nil
}

func (a *Adapter) Name() string { return config.PlatformDiscord }

func (a *Adapter) Self() core.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.self
}

// Run opens the gateway connection, registers the slash commands and blocks until ctx ends
func (a *Adapter) Run(ctx context.Context, onMessage core.EventHandler, registry *commands.Registry) error {
	a.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.mu.Lock()
		a.self = identity(r.User)
		a.mu.Unlock()
		a.logger.Infow("Connected to Discord", "user", r.User.Username, "id", r.User.ID, "guilds", len(r.Guilds))
	})

	a.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if s.State.User != nil && m.Author != nil && m.Author.ID == s.State.User.ID {
			return
		}
		if a.guildID != "" && m.GuildID != "" && m.GuildID != a.guildID {
			return
		}
		onMessage(ctx, a.event(m.Message))
	})

	a.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		a.handleCommand(ctx, i, registry)
	})

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	a.mu.Lock()
	if a.self.ID == "" && a.session.State.User != nil {
		a.self = identity(a.session.State.User)
	}
	a.mu.Unlock()

	a.registerCommands(registry)

	<-ctx.Done()
	a.logger.Info("Discord client closing")
	return a.session.Close()
}

// event converts a gateway message, filling channel and guild names from the state cache
func (a *Adapter) event(m *discordgo.Message) *core.IncomingEvent {
	ev := toEvent(m)
	if ch, err := a.session.State.Channel(m.ChannelID); err == nil {
		ev.ChannelName = ch.Name
		ev.IsDirect = ch.Type == discordgo.ChannelTypeDM || ch.Type == discordgo.ChannelTypeGroupDM
	} else if m.GuildID == "" {
		ev.IsDirect = true
	}
	if m.GuildID != "" {
		if g, err := a.session.State.Guild(m.GuildID); err == nil {
			ev.ServerName = g.Name
		}
	}
	return ev
}

// History returns up to limit messages before the trigger, oldest first
func (a *Adapter) History(ctx context.Context, ev *core.IncomingEvent, limit int) ([]core.HistoryMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	msgs, err := a.session.ChannelMessages(ev.ChannelID, min(limit, 100), ev.ID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("channel history: %w", err)
	}
	return toHistory(msgs), nil
}

func (a *Adapter) Send(ctx context.Context, channelID, text string) error {
	for _, chunk := range dispatch.Chunk(text, MaxMessage) {
		if _, err := a.session.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}

// Reply answers the referenced message with the first chunk; overflow follows as plain sends
func (a *Adapter) Reply(ctx context.Context, channelID string, to core.MessageRef, text string) error {
	chunks := dispatch.Chunk(text, MaxMessage)
	if len(chunks) == 0 {
		return nil
	}
	ref := &discordgo.MessageReference{MessageID: to.ID, ChannelID: channelID}
	if _, err := a.session.ChannelMessageSendReply(channelID, chunks[0], ref, discordgo.WithContext(ctx)); err != nil {
		return err
	}
	for _, chunk := range chunks[1:] {
		if _, err := a.session.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) Typing(ctx context.Context, channelID string) error {
	return a.session.ChannelTyping(channelID, discordgo.WithContext(ctx))
}

func (a *Adapter) MentionSyntax(u core.User) string {
	return "<@" + u.ID + ">"
}

// LookupMember searches the event's guild. DMs have no member list.
func (a *Adapter) LookupMember(ctx context.Context, ev *core.IncomingEvent, name string) (core.User, error) {
	if ev.ServerID == "" {
		return core.User{}, core.ErrNotFound
	}
	members, err := a.session.GuildMembersSearch(ev.ServerID, name, memberSearchLimit, discordgo.WithContext(ctx))
	if err != nil {
		return core.User{}, fmt.Errorf("member search: %w", err)
	}
	if u, ok := matchMember(members, name); ok {
		return u, nil
	}
	return core.User{}, core.ErrNotFound
}

// identity builds the bot's mention tokens; <@!id> is the legacy nickname form
func identity(u *discordgo.User) core.Identity {
	return core.Identity{
		ID:     u.ID,
		Name:   u.Username,
		Tokens: []string{"<@" + u.ID + ">", "<@!" + u.ID + ">"},
	}
}

func toUser(u *discordgo.User, m *discordgo.Member) core.User {
	if u == nil {
		return core.User{}
	}
	out := core.User{ID: u.ID, Name: u.Username, DisplayName: u.GlobalName, Bot: u.Bot}
	if m != nil && m.Nick != "" {
		out.DisplayName = m.Nick
	}
	return out
}

func toEvent(m *discordgo.Message) *core.IncomingEvent {
	ev := &core.IncomingEvent{
		ID:        m.ID,
		Platform:  config.PlatformDiscord,
		ChannelID: m.ChannelID,
		ServerID:  m.GuildID,
		Author:    toUser(m.Author, m.Member),
		Content:   m.Content,
	}
	if m.ReferencedMessage != nil {
		ref := toHistoryMessage(m.ReferencedMessage)
		ev.ReplyTo = &ref
	}
	return ev
}

func toHistoryMessage(m *discordgo.Message) core.HistoryMessage {
	h := core.HistoryMessage{ID: m.ID, Author: toUser(m.Author, m.Member), Content: m.Content}
	if m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil {
		to := toUser(m.ReferencedMessage.Author, m.ReferencedMessage.Member)
		h.ReplyTo = &to
	}
	return h
}

// toHistory reverses Discord's newest-first listing and skips messages without text
func toHistory(msgs []*discordgo.Message) []core.HistoryMessage {
	out := make([]core.HistoryMessage, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil || m.Author == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, toHistoryMessage(m))
	}
	return out
}

// matchMember prefers an exact username, then an exact nick or global name
func matchMember(members []*discordgo.Member, name string) (core.User, bool) {
	name = strings.TrimPrefix(name, "@")
	for _, m := range members {
		if m.User != nil && strings.EqualFold(m.User.Username, name) {
			return toUser(m.User, m), true
		}
	}
	for _, m := range members {
		if m.User == nil {
			continue
		}
		if strings.EqualFold(m.Nick, name) || strings.EqualFold(m.User.GlobalName, name) {
			return toUser(m.User, m), true
		}
	}
	return core.User{}, false
}
