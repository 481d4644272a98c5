package testing

import (
	"context"
	"sync"
	"time"

	"pkdindustries/chorus/internal/llm"
)

// MockGateway implements llm.Gateway for testing
type MockGateway struct {
	Text  string        // Completion text to return
	Delay time.Duration // Delay before answering (0 = immediate)
	Err   error         // Error to return instead of text
	Panic any           // Value to panic with, if set

	mu       sync.Mutex
	requests []*llm.Request
}

// Verify MockGateway implements llm.Gateway
var _ llm.Gateway = (*MockGateway)(nil)

func (m *MockGateway) Complete(ctx context.Context, req *llm.Request) (*llm.Completion, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Panic != nil {
		panic(m.Panic)
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &llm.Completion{Text: m.Text, Model: req.Model}, nil
}

// Requests returns the requests received so far
func (m *MockGateway) Requests() []*llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*llm.Request(nil), m.requests...)
}

func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
