package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"

	"pkdindustries/chorus/internal/commands"
	"pkdindustries/chorus/internal/core"
)

var (
	dAlice = &discordgo.User{ID: "1", Username: "alice", GlobalName: "Alice A"}
	dBob   = &discordgo.User{ID: "2", Username: "bob"}
	dBot   = &discordgo.User{ID: "99", Username: "chorus", Bot: true}
)

func TestToUser(t *testing.T) {
	tests := []struct {
		name   string
		user   *discordgo.User
		member *discordgo.Member
		want   core.User
	}{
		{"global name", dAlice, nil, core.User{ID: "1", Name: "alice", DisplayName: "Alice A"}},
		{"nick wins", dAlice, &discordgo.Member{Nick: "Al"}, core.User{ID: "1", Name: "alice", DisplayName: "Al"}},
		{"plain", dBob, &discordgo.Member{}, core.User{ID: "2", Name: "bob"}},
		{"bot flag", dBot, nil, core.User{ID: "99", Name: "chorus", Bot: true}},
		{"nil user", nil, nil, core.User{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, toUser(tt.user, tt.member)); diff != "" {
				t.Errorf("toUser mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToHistory_ChronologicalWithReplies(t *testing.T) {
	first := &discordgo.Message{ID: "m1", Author: dAlice, Content: "hi all"}
	newest := []*discordgo.Message{
		{ID: "m4", Author: dBob, Content: "yes", ReferencedMessage: first},
		{ID: "m3", Author: dBob, Content: "   "},
		{ID: "m2", Author: dBot, Content: "hello alice"},
		first,
	}

	got := toHistory(newest)

	aliceUser := toUser(dAlice, nil)
	want := []core.HistoryMessage{
		{ID: "m1", Author: aliceUser, Content: "hi all"},
		{ID: "m2", Author: core.User{ID: "99", Name: "chorus", Bot: true}, Content: "hello alice"},
		{ID: "m4", Author: core.User{ID: "2", Name: "bob"}, Content: "yes", ReplyTo: &aliceUser},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toHistory mismatch (-want +got):\n%s", diff)
	}
}

func TestToEvent(t *testing.T) {
	m := &discordgo.Message{
		ID:                "m9",
		ChannelID:         "c1",
		GuildID:           "g1",
		Author:            dAlice,
		Content:           "<@99> sure",
		ReferencedMessage: &discordgo.Message{ID: "m8", Author: dBot, Content: "want more?"},
	}
	ev := toEvent(m)

	if ev.ID != "m9" || ev.ChannelID != "c1" || ev.ServerID != "g1" || ev.Platform != "discord" {
		t.Errorf("event ids = %+v", ev)
	}
	if ev.ReplyTo == nil || ev.ReplyTo.ID != "m8" || ev.ReplyTo.Author.ID != "99" {
		t.Fatalf("ReplyTo = %+v", ev.ReplyTo)
	}
	self := identity(dBot)
	if !self.Is(ev.ReplyTo.Author) {
		t.Error("the referenced bot message should be recognised as the bot's")
	}
}

func TestIdentityTokens(t *testing.T) {
	want := core.Identity{ID: "99", Name: "chorus", Tokens: []string{"<@99>", "<@!99>"}}
	if diff := cmp.Diff(want, identity(dBot)); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchMember(t *testing.T) {
	members := []*discordgo.Member{
		{User: &discordgo.User{ID: "5", Username: "carolyn"}, Nick: "carol"},
		{User: &discordgo.User{ID: "6", Username: "carol"}},
		{Nick: "orphan"},
	}
	tests := []struct {
		name   string
		query  string
		wantID string
		found  bool
	}{
		{"username beats nick", "carol", "6", true},
		{"case insensitive", "CAROLYN", "5", true},
		{"at prefix", "@carolyn", "5", true},
		{"missing", "dave", "", false},
		{"member without user", "orphan", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := matchMember(members, tt.query)
			if ok != tt.found || u.ID != tt.wantID {
				t.Errorf("matchMember(%q) = %+v, %v; want id %q found %v", tt.query, u, ok, tt.wantID, tt.found)
			}
		})
	}
}

func TestCommandText(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "stats",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "args", Type: discordgo.ApplicationCommandOptionString, Value: "verbose"},
		},
	}
	if got := commandText(data); got != "/stats verbose" {
		t.Errorf("commandText = %q", got)
	}
	if got := commandText(discordgo.ApplicationCommandInteractionData{Name: "ping"}); got != "/ping" {
		t.Errorf("commandText = %q", got)
	}
}

func TestSlashCommands(t *testing.T) {
	reg := commands.NewRegistry()
	reg.Register(&commands.PingCommand{})
	reg.Register(&commands.VersionCommand{Version: "test"})
	reg.Register(&commands.UnknownCommand{})

	var names []string
	for _, c := range slashCommands(reg) {
		names = append(names, c.Name)
		if c.Description == "" {
			t.Errorf("command %s has no description", c.Name)
		}
	}
	if diff := cmp.Diff([]string{"ping", "version"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestInteractionUser(t *testing.T) {
	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Member: &discordgo.Member{User: dAlice}}}
	if u, private := interactionUser(guild); u != dAlice || private {
		t.Errorf("guild interaction = %v, %v", u, private)
	}
	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: dBob}}
	if u, private := interactionUser(dm); u != dBob || !private {
		t.Errorf("dm interaction = %v, %v", u, private)
	}
}
