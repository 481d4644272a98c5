package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"pkdindustries/chorus/internal/commands"
	"pkdindustries/chorus/internal/config"
	"pkdindustries/chorus/internal/core"
)

// registerCommands publishes the registry as slash commands, scoped to the
// configured guild when there is one
func (a *Adapter) registerCommands(registry *commands.Registry) {
	appID := a.session.State.User.ID
	for _, cmd := range slashCommands(registry) {
		if _, err := a.session.ApplicationCommandCreate(appID, a.guildID, cmd); err != nil {
			a.logger.Warnw("Failed to register slash command", "command", cmd.Name, "error", err)
		}
	}
}

// slashCommands describes each registry command. Every command takes an
// optional free-text argument.
func slashCommands(registry *commands.Registry) []*discordgo.ApplicationCommand {
	var out []*discordgo.ApplicationCommand
	for _, cmd := range registry.All() {
		out = append(out, &discordgo.ApplicationCommand{
			Name:        strings.TrimPrefix(cmd.Name(), "/"),
			Description: cmd.Description(),
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "args",
				Description: "Arguments",
				Required:    false,
			}},
		})
	}
	return out
}

// commandText rebuilds "/name args" from interaction data
func commandText(data discordgo.ApplicationCommandInteractionData) string {
	parts := []string{"/" + data.Name}
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			parts = append(parts, opt.StringValue())
		}
	}
	return strings.Join(parts, " ")
}

// interactionUser returns the invoking user; guild interactions carry a member, DMs a user
func interactionUser(i *discordgo.InteractionCreate) (*discordgo.User, bool) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User, false
	}
	return i.User, true
}

// handleCommand runs a slash command; replies are ephemeral
func (a *Adapter) handleCommand(ctx context.Context, i *discordgo.InteractionCreate, registry *commands.Registry) {
	user, private := interactionUser(i)
	if user == nil {
		return
	}

	replied := false
	cc := core.NewChatContext(ctx, core.CommandInvocation{
		Platform: config.PlatformDiscord,
		Text:     commandText(i.ApplicationCommandData()),
		Source:   user.Username,
		AdminID:  user.ID,
		Admins:   a.admins,
		Private:  private,
		Reply: func(text string) {
			resp := &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: text,
					Flags:   discordgo.MessageFlagsEphemeral,
				},
			}
			var err error
			if !replied {
				err = a.session.InteractionRespond(i.Interaction, resp)
				replied = true
			} else {
				_, err = a.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
					Content: text,
					Flags:   discordgo.MessageFlagsEphemeral,
				})
			}
			if err != nil {
				a.logger.Warnw("Failed to answer interaction", "error", err)
			}
		},
	})

	cc.GetLogger().Infof(">> %s", strings.Join(cc.GetArgs(), " "))
	registry.Dispatch(cc)
}
