package testing

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pkdindustries/chorus/internal/core"
)

// MockChatContext implements core.CommandContext for testing
type MockChatContext struct {
	context.Context

	// Configurable return values
	Admin   bool
	Private bool
	Source  string
	Args    []string

	// Recorded calls (for assertions)
	mu      sync.Mutex
	Replies []string

	logger *zap.SugaredLogger
}

// Verify MockChatContext implements core.CommandContext
var _ core.CommandContext = (*MockChatContext)(nil)

// NewMockContext creates a new MockChatContext with sensible defaults
func NewMockContext() *MockChatContext {
	return &MockChatContext{
		Context: context.Background(),
		Source:  "testuser",
		Args:    []string{},
		Replies: []string{},
		logger:  zap.NewNop().Sugar(),
	}
}

// Builder methods for fluent test setup

func (m *MockChatContext) WithContext(ctx context.Context) *MockChatContext {
	m.Context = ctx
	return m
}

func (m *MockChatContext) WithAdmin(admin bool) *MockChatContext {
	m.Admin = admin
	return m
}

func (m *MockChatContext) WithPrivate(private bool) *MockChatContext {
	m.Private = private
	return m
}

func (m *MockChatContext) WithArgs(args ...string) *MockChatContext {
	m.Args = args
	return m
}

func (m *MockChatContext) WithSource(source string) *MockChatContext {
	m.Source = source
	return m
}

func (m *MockChatContext) WithLogger(logger *zap.SugaredLogger) *MockChatContext {
	m.logger = logger
	return m
}

func (m *MockChatContext) IsAdmin() bool   { return m.Admin }
func (m *MockChatContext) IsPrivate() bool { return m.Private }
func (m *MockChatContext) GetSource() string {
	return m.Source
}

func (m *MockChatContext) GetCommand() string {
	if len(m.Args) == 0 {
		return ""
	}
	return strings.ToLower(m.Args[0])
}

func (m *MockChatContext) GetArgs() []string { return m.Args }

func (m *MockChatContext) Reply(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replies = append(m.Replies, msg)
}

func (m *MockChatContext) GetLogger() *zap.SugaredLogger { return m.logger }

// Test helpers

// HasReply reports whether any reply contains substring
func (m *MockChatContext) HasReply(substring string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Replies {
		if strings.Contains(r, substring) {
			return true
		}
	}
	return false
}

func (m *MockChatContext) LastReply() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Replies) == 0 {
		return ""
	}
	return m.Replies[len(m.Replies)-1]
}

func (m *MockChatContext) ReplyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Replies)
}
