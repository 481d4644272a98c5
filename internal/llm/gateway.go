// Package llm sends prompts to a completion backend and returns the raw text.
package llm

import (
	"context"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to the model
type Message struct {
	Role    Role
	Content string
}

// Request is everything a backend needs for one completion
type Request struct {
	Model       string
	MaxTokens   int
	Temperature float32
	System      string
	Messages    []Message
}

// Completion is the raw model output for one request
type Completion struct {
	Text         string
	Model        string
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// Gateway produces a completion or fails with an *Error
type Gateway interface {
	Complete(ctx context.Context, req *Request) (*Completion, error)
}

// GatewayFunc adapts a function to the Gateway interface
type GatewayFunc func(ctx context.Context, req *Request) (*Completion, error)

func (f GatewayFunc) Complete(ctx context.Context, req *Request) (*Completion, error) {
	return f(ctx, req)
}

// finish rejects completions with no visible text
func finish(provider string, c *Completion) (*Completion, error) {
	if strings.TrimSpace(c.Text) == "" {
		return nil, &Error{Kind: KindInvalidResponse, Provider: provider, Err: errEmpty}
	}
	return c, nil
}
