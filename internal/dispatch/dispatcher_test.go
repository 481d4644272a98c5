package dispatch

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
	"pkdindustries/chorus/internal/directive"
	mocktest "pkdindustries/chorus/internal/testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	alice   = core.User{ID: "1", Name: "alice"}
	bob     = core.User{ID: "2", Name: "bob"}
	trigger = &core.IncomingEvent{ID: "t1", ChannelID: "c1", Author: alice, Content: "<@b0t> hi"}
)

// newTestDispatcher records delays instead of sleeping
func newTestDispatcher(p *mocktest.MockPlatform, delays *[]time.Duration, opts ...Option) *Dispatcher {
	d := New(p, zap.NewNop().Sugar(), opts...)
	d.sleep = func(ctx context.Context, wait time.Duration) error {
		*delays = append(*delays, wait)
		return ctx.Err()
	}
	return d
}

func TestDispatch_OrderAndTargets(t *testing.T) {
	p := mocktest.NewMockPlatform()
	var delays []time.Duration
	d := newTestDispatcher(p, &delays)

	bobMsg := core.MessageRef{ID: "m7", Author: bob}
	units := []directive.Unit{
		{Text: "Hello!", Mention: "alice", MentionTarget: &alice},
		{Text: "How are you today?"},
		{Text: "Good point.", Reply: "bob", ReplyTarget: &bobMsg},
	}

	report := d.Dispatch(context.Background(), trigger, units)

	want := []mocktest.Delivery{
		{ChannelID: "c1", Text: "<@1> Hello!"},
		{ChannelID: "c1", Text: "How are you today?"},
		{ChannelID: "c1", ReplyTo: &bobMsg, Text: "Good point."},
	}
	if diff := cmp.Diff(want, p.Deliveries()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
	if report != (Report{Sent: 3}) {
		t.Errorf("report = %+v, want 3 sent", report)
	}
	if len(delays) != 2 {
		t.Errorf("delays = %v, want one between each pair of units", delays)
	}
}

func TestDispatch_UnresolvedDirectiveSendsPlainText(t *testing.T) {
	p := mocktest.NewMockPlatform()
	var delays []time.Duration
	d := newTestDispatcher(p, &delays)

	d.Dispatch(context.Background(), trigger, []directive.Unit{{Text: "still sent", Mention: "nosuchuser", Reply: "ghost"}})

	want := []mocktest.Delivery{{ChannelID: "c1", Text: "still sent"}}
	if diff := cmp.Diff(want, p.Deliveries()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_FailedSendDoesNotStopLaterUnits(t *testing.T) {
	p := mocktest.NewMockPlatform().WithFailingSend(2, errors.New("429 too many requests"))
	var delays []time.Duration
	d := newTestDispatcher(p, &delays)

	units := []directive.Unit{{Text: "one"}, {Text: "two"}, {Text: "three"}}
	report := d.Dispatch(context.Background(), trigger, units)

	if diff := cmp.Diff([]string{"one", "three"}, p.Texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
	if report != (Report{Sent: 2, Failed: 1}) {
		t.Errorf("report = %+v, want 2 sent 1 failed", report)
	}
}

func TestDispatch_ReplyToTrigger(t *testing.T) {
	p := mocktest.NewMockPlatform()
	var delays []time.Duration
	d := newTestDispatcher(p, &delays, WithReplyToTrigger(true))

	d.Dispatch(context.Background(), trigger, []directive.Unit{{Text: "first"}, {Text: "second"}})

	got := p.Deliveries()
	if len(got) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(got))
	}
	if got[0].ReplyTo == nil || got[0].ReplyTo.ID != "t1" {
		t.Errorf("first unit should reply to the trigger, got %+v", got[0].ReplyTo)
	}
	if got[1].ReplyTo != nil {
		t.Errorf("second unit should be a plain send, got reply to %+v", got[1].ReplyTo)
	}
}

func TestDispatch_Typing(t *testing.T) {
	units := []directive.Unit{{Text: "a"}, {Text: "b"}}
	for _, show := range []bool{true, false} {
		p := mocktest.NewMockPlatform()
		var delays []time.Duration
		newTestDispatcher(p, &delays, WithTyping(show)).Dispatch(context.Background(), trigger, units)

		want := 0
		if show {
			want = 2
		}
		if got := p.TypingCount(); got != want {
			t.Errorf("typing(show=%v) = %d, want %d", show, got, want)
		}
	}
}

func TestDispatch_CancelledContextStops(t *testing.T) {
	p := mocktest.NewMockPlatform()
	d := New(p, zap.NewNop().Sugar(), WithPacing(Pacing{Base: time.Hour, Cap: time.Hour}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	report := d.Dispatch(ctx, trigger, []directive.Unit{{Text: "a"}, {Text: "b"}, {Text: "c"}})

	if diff := cmp.Diff([]string{"a"}, p.Texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
	if report != (Report{Sent: 1, Failed: 2}) {
		t.Errorf("report = %+v, want 1 sent 2 failed", report)
	}
}

func TestPacing_Delay(t *testing.T) {
	tests := []struct {
		name string
		p    Pacing
		text string
		want time.Duration
	}{
		{"short", DefaultPacing, "hi", 520 * time.Millisecond},
		{"capped", DefaultPacing, strings.Repeat("x", 500), 1500 * time.Millisecond},
		{"runes not bytes", DefaultPacing, "héllo", 550 * time.Millisecond},
		{"disabled", Pacing{}, "anything", 0},
		{"custom cap", Pacing{Base: 100 * time.Millisecond, PerRune: time.Second, Cap: 300 * time.Millisecond}, "abc", 300 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Delay(tt.text); got != tt.want {
				t.Errorf("Delay(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{"fits", "Hello world", 400, []string{"Hello world"}},
		{"split at space", "Hello there friend", 15, []string{"Hello there", "friend"}},
		{"hard cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"space right after limit", "abcd efgh", 4, []string{"abcd", "efgh"}},
		{"unicode", "ééééé", 2, []string{"éé", "éé", "é"}},
		{"no limit", "abc", 0, []string{"abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.max)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Chunk mismatch (-want +got):\n%s", diff)
			}
			for _, c := range got {
				if tt.max > 0 && len([]rune(c)) > tt.max {
					t.Errorf("chunk %q longer than %d runes", c, tt.max)
				}
			}
		})
	}
}

func TestLines(t *testing.T) {
	got := Lines("first line\n\nsecond line is long\r\n", 12)
	want := []string{"first line", "second line", "is long"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Lines mismatch (-want +got):\n%s", diff)
	}
}
