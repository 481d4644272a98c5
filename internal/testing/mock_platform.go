package testing

import (
	"context"
	"strings"
	"sync"

	"pkdindustries/chorus/internal/core"
)

// Delivery records one outgoing message
type Delivery struct {
	ChannelID string
	// ReplyTo is the message answered, nil for a plain send
	ReplyTo *core.MessageRef
	Text    string
}

// MockPlatform implements core.Platform for testing
type MockPlatform struct {
	PlatformName string
	Identity     core.Identity

	// Window is returned by History, truncated to the newest limit messages
	Window     []core.HistoryMessage
	HistoryErr error

	// Members are found by LookupMember, keyed by lowercase name
	Members map[string]core.User

	// FailSends makes the n-th send (1-based) fail with the given error
	FailSends map[int]error

	mu          sync.Mutex
	sends       int
	deliveries  []Delivery
	typing      int
	historyAsks []int
}

// Verify MockPlatform implements core.Platform
var _ core.Platform = (*MockPlatform)(nil)

// NewMockPlatform creates a platform whose bot is "chorus" with id "b0t"
func NewMockPlatform() *MockPlatform {
	return &MockPlatform{
		PlatformName: "mock",
		Identity:     core.Identity{ID: "b0t", Name: "chorus", Tokens: []string{"<@b0t>"}},
		Members:      make(map[string]core.User),
		FailSends:    make(map[int]error),
	}
}

func (m *MockPlatform) WithHistory(msgs ...core.HistoryMessage) *MockPlatform {
	m.Window = msgs
	return m
}

func (m *MockPlatform) WithMember(u core.User) *MockPlatform {
	m.Members[strings.ToLower(u.Name)] = u
	return m
}

func (m *MockPlatform) WithFailingSend(n int, err error) *MockPlatform {
	m.FailSends[n] = err
	return m
}

func (m *MockPlatform) Name() string        { return m.PlatformName }
func (m *MockPlatform) Self() core.Identity { return m.Identity }

func (m *MockPlatform) History(_ context.Context, _ *core.IncomingEvent, limit int) ([]core.HistoryMessage, error) {
	m.mu.Lock()
	m.historyAsks = append(m.historyAsks, limit)
	m.mu.Unlock()

	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	h := m.Window
	if len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]core.HistoryMessage(nil), h...), nil
}

func (m *MockPlatform) Send(_ context.Context, channelID, text string) error {
	return m.deliver(Delivery{ChannelID: channelID, Text: text})
}

func (m *MockPlatform) Reply(_ context.Context, channelID string, to core.MessageRef, text string) error {
	return m.deliver(Delivery{ChannelID: channelID, ReplyTo: &to, Text: text})
}

func (m *MockPlatform) deliver(d Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends++
	if err := m.FailSends[m.sends]; err != nil {
		return err
	}
	m.deliveries = append(m.deliveries, d)
	return nil
}

func (m *MockPlatform) Typing(context.Context, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing++
	return nil
}

func (m *MockPlatform) MentionSyntax(u core.User) string {
	return "<@" + u.ID + ">"
}

func (m *MockPlatform) LookupMember(_ context.Context, _ *core.IncomingEvent, name string) (core.User, error) {
	if u, ok := m.Members[strings.ToLower(name)]; ok {
		return u, nil
	}
	return core.User{}, core.ErrNotFound
}

// Test helpers

// Deliveries returns the messages delivered so far, failed sends excluded
func (m *MockPlatform) Deliveries() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Delivery(nil), m.deliveries...)
}

// Texts returns the text of each delivered message
func (m *MockPlatform) Texts() []string {
	var out []string
	for _, d := range m.Deliveries() {
		out = append(out, d.Text)
	}
	return out
}

func (m *MockPlatform) TypingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typing
}

// HistoryLimits returns the limit passed to each History call
func (m *MockPlatform) HistoryLimits() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.historyAsks...)
}
