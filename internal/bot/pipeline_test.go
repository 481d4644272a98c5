package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/llm"
	"pkdindustries/chorus/internal/prompt"
	mocktest "pkdindustries/chorus/internal/testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	bob   = core.User{ID: "2", Name: "bob", DisplayName: "Bobby"}
	carol = core.User{ID: "3", Name: "carol"}
)

func newTestPipeline(p *mocktest.MockPlatform, gw llm.Gateway) (*Pipeline, *Stats) {
	cfg := mocktest.DefaultTestConfig()
	cfg.Bot.ShowTyping = false
	stats := NewStats()
	pl := NewPipeline(p, ContainsToken, Deps{
		Config:    cfg,
		Templates: &prompt.Templates{Identity: "You are chorus.", Guidelines: "Be brief."},
		Gateway:   gw,
		Stats:     stats,
		Logger:    zap.NewNop().Sugar(),
	})
	return pl, stats
}

func channelEvent(content string) *core.IncomingEvent {
	return &core.IncomingEvent{
		ID:          "t1",
		Platform:    "mock",
		ChannelID:   "c1",
		ChannelName: "general",
		ServerName:  "Server",
		Author:      alice,
		Content:     content,
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	p := mocktest.NewMockPlatform().WithHistory(
		core.HistoryMessage{ID: "m1", Author: bob, Content: "cats are better"},
		core.HistoryMessage{ID: "m2", Author: alice, Content: "dogs are better"},
	)
	gw := &mocktest.MockGateway{Text: "[@alice] Hello!\n\nHow are you today?\n\n[reply:bob] Good point."}
	pl, stats := newTestPipeline(p, gw)

	pl.Process(context.Background(), channelEvent("<@b0t> hi"))

	bobMsg := core.MessageRef{ID: "m1", Author: bob}
	want := []mocktest.Delivery{
		{ChannelID: "c1", Text: "<@1> Hello!"},
		{ChannelID: "c1", Text: "How are you today?"},
		{ChannelID: "c1", ReplyTo: &bobMsg, Text: "Good point."},
	}
	if diff := cmp.Diff(want, p.Deliveries()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}

	reqs := gw.Requests()
	if len(reqs) != 1 {
		t.Fatalf("gateway calls = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Model != "test-model" || req.MaxTokens != 100 {
		t.Errorf("request model/tokens = %q/%d", req.Model, req.MaxTokens)
	}
	if !strings.HasPrefix(req.System, "You are chorus.\n\nBe brief.\n\n# Current Context") {
		t.Errorf("system prompt = %q", req.System)
	}
	if n := len(req.Messages); n == 0 || !strings.Contains(req.Messages[n-1].Content, "<@b0t> hi") {
		t.Errorf("last turn should be the trigger, got %+v", req.Messages)
	}
	if diff := cmp.Diff([]int{10}, p.HistoryLimits()); diff != "" {
		t.Errorf("history limits mismatch (-want +got):\n%s", diff)
	}

	if stats.Triggers.Load() != 1 || stats.Completions.Load() != 1 || stats.Sent.Load() != 3 {
		t.Errorf("stats = %s", stats.Summary())
	}
}

func TestPipeline_NonTriggerDoesNothing(t *testing.T) {
	p := mocktest.NewMockPlatform()
	gw := &mocktest.MockGateway{Text: "hello"}
	pl, stats := newTestPipeline(p, gw)

	pl.Process(context.Background(), channelEvent("just chatting"))

	if gw.CallCount() != 0 || len(p.Deliveries()) != 0 || len(p.HistoryLimits()) != 0 {
		t.Error("a non-triggering event must not touch history, gateway or sender")
	}
	if stats.Triggers.Load() != 0 {
		t.Errorf("triggers = %d, want 0", stats.Triggers.Load())
	}
}

func TestPipeline_GatewayFailureSendsNothing(t *testing.T) {
	p := mocktest.NewMockPlatform()
	gw := &mocktest.MockGateway{Err: &llm.Error{Kind: llm.KindAuth, Provider: "mock", StatusCode: 401, Err: errors.New("bad key")}}
	pl, stats := newTestPipeline(p, gw)

	pl.Process(context.Background(), channelEvent("<@b0t> hi"))

	if n := len(p.Deliveries()); n != 0 {
		t.Errorf("deliveries = %d, want none", n)
	}
	if stats.GatewayErrors.Load() != 1 {
		t.Errorf("gateway errors = %d, want 1", stats.GatewayErrors.Load())
	}
}

func TestPipeline_RecoversFromPanic(t *testing.T) {
	p := mocktest.NewMockPlatform()
	pl, stats := newTestPipeline(p, &mocktest.MockGateway{Panic: "boom"})

	pl.Process(context.Background(), channelEvent("<@b0t> hi"))

	if stats.Panics.Load() != 1 {
		t.Errorf("panics = %d, want 1", stats.Panics.Load())
	}
}

func TestPipeline_HistoryFailureStillAnswers(t *testing.T) {
	p := mocktest.NewMockPlatform()
	p.HistoryErr = errors.New("missing access")
	pl, _ := newTestPipeline(p, &mocktest.MockGateway{Text: "hi there"})

	pl.Process(context.Background(), channelEvent("<@b0t> hi"))

	if diff := cmp.Diff([]string{"hi there"}, p.Texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_DirectiveOnlyCompletionSendsNothing(t *testing.T) {
	p := mocktest.NewMockPlatform()
	pl, _ := newTestPipeline(p, &mocktest.MockGateway{Text: "[@alice]"})

	pl.Process(context.Background(), channelEvent("<@b0t> hi"))

	if n := len(p.Deliveries()); n != 0 {
		t.Errorf("deliveries = %d, want none", n)
	}
}

func TestPipeline_MentionFallsBackToMemberLookup(t *testing.T) {
	p := mocktest.NewMockPlatform().WithMember(carol)
	pl, _ := newTestPipeline(p, &mocktest.MockGateway{Text: "[@carol] welcome\n\n[reply:carol] no message to answer"})

	pl.Process(context.Background(), channelEvent("<@b0t> say hi to carol"))

	want := []mocktest.Delivery{
		{ChannelID: "c1", Text: "<@3> welcome"},
		{ChannelID: "c1", Text: "no message to answer"},
	}
	if diff := cmp.Diff(want, p.Deliveries()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_TimeoutCancelsGateway(t *testing.T) {
	p := mocktest.NewMockPlatform()
	gw := &mocktest.MockGateway{Text: "late", Delay: time.Minute}
	pl, stats := newTestPipeline(p, gw)
	pl.timeout = 20 * time.Millisecond

	pl.Process(context.Background(), channelEvent("<@b0t> hi"))

	if n := len(p.Deliveries()); n != 0 {
		t.Errorf("deliveries = %d, want none", n)
	}
	if stats.GatewayErrors.Load() != 1 {
		t.Errorf("gateway errors = %d, want 1", stats.GatewayErrors.Load())
	}
}

func TestPipeline_TypingKeepalive(t *testing.T) {
	p := mocktest.NewMockPlatform()
	pl, _ := newTestPipeline(p, &mocktest.MockGateway{Text: "ok", Delay: 50 * time.Millisecond})
	pl.showTyping = true
	pl.keepalive = 10 * time.Millisecond

	pl.Process(context.Background(), channelEvent("<@b0t> hi"))

	if got := p.TypingCount(); got < 2 {
		t.Errorf("typing count = %d, want the indicator refreshed during the call", got)
	}
}

func TestResolver(t *testing.T) {
	ev := channelEvent("<@b0t> hi")
	pc := &prompt.Context{
		History: []core.HistoryMessage{
			{ID: "m1", Author: bob, Content: "first"},
			{ID: "m2", Author: carol, Content: "hello"},
			{ID: "m3", Author: bob, Content: "second"},
		},
		Trigger: ev.AsHistory(),
	}
	dave := core.User{ID: "4", Name: "dave"}
	r := newResolver(ev, pc, mocktest.NewMockPlatform().WithMember(dave))
	ctx := context.Background()

	tests := []struct {
		name    string
		target  string
		wantMsg string
		wantErr bool
	}{
		{"most recent message wins", "bob", "m3", false},
		{"case insensitive", "CAROL", "m2", false},
		{"display name", "bobby", "m3", false},
		{"at prefix", "@carol", "m2", false},
		{"trigger author", "alice", "t1", false},
		{"lookup only user has no message", "dave", "", true},
		{"unknown", "zed", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := r.Message(ctx, tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Message(%q) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			}
			if ref.ID != tt.wantMsg {
				t.Errorf("Message(%q) = %q, want %q", tt.target, ref.ID, tt.wantMsg)
			}
		})
	}

	u, err := r.User(ctx, "dave")
	if err != nil || u.ID != "4" {
		t.Errorf("User(dave) = %+v, %v; want member lookup hit", u, err)
	}
	if _, err := r.User(ctx, "zed"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("User(zed) error = %v, want ErrNotFound", err)
	}
}

func TestStats_Summary(t *testing.T) {
	s := NewStats()
	s.Triggers.Add(3)
	s.Failed.Add(1)
	got := s.Summary()
	for _, want := range []string{"triggers: 3", "failed: 1", "panics: 0"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, missing %q", got, want)
		}
	}
}
