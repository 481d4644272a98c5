package llm

import (
	"context"
	"strings"
	"time"

	"github.com/alexschlessinger/pollytool/llm"
	"github.com/alexschlessinger/pollytool/messages"
)

const providerPolly = "polly"

// PollyKeys are the API keys handed to pollytool, by provider prefix
type PollyKeys struct {
	OpenAI    string
	Anthropic string
	Gemini    string
	Ollama    string
}

// Polly routes "provider/model" names through pollytool's MultiPass
type Polly struct {
	client    *llm.MultiPass
	stream    *messages.StreamProcessor
	ollamaURL string
	timeout   time.Duration
}

func NewPolly(keys PollyKeys, ollamaURL string, timeout time.Duration) *Polly {
	return &Polly{
		client: llm.NewMultiPass(map[string]string{
			"openai":    keys.OpenAI,
			"anthropic": keys.Anthropic,
			"gemini":    keys.Gemini,
			"ollama":    keys.Ollama,
		}),
		stream:    messages.NewStreamProcessor(),
		ollamaURL: ollamaURL,
		timeout:   timeout,
	}
}

func (p *Polly) Complete(ctx context.Context, req *Request) (*Completion, error) {
	creq := &llm.CompletionRequest{
		Timeout:     p.timeout,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    toPollyMessages(req),
	}
	if strings.HasPrefix(req.Model, "ollama/") {
		creq.BaseURL = p.ollamaURL
	}

	collector := &collector{}
	events := p.client.ChatCompletionStream(ctx, creq, p.stream)
	response := messages.ProcessEventStream(ctx, events, collector)

	if collector.err != nil {
		return nil, classifyMessage(providerPolly, collector.err)
	}
	if err := ctx.Err(); err != nil {
		return nil, classify(providerPolly, 0, err)
	}

	text := response.Content
	if text == "" {
		text = collector.text.String()
	}
	return finish(providerPolly, &Completion{Text: text, Model: req.Model})
}

func toPollyMessages(req *Request) []messages.ChatMessage {
	out := make([]messages.ChatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, messages.ChatMessage{Role: messages.MessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := messages.MessageRoleUser
		if m.Role == RoleAssistant {
			role = messages.MessageRoleAssistant
		}
		out = append(out, messages.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}

// collector gathers a streamed completion into one text
type collector struct {
	text strings.Builder
	err  error
}

func (c *collector) OnReasoning(string, int) {}

func (c *collector) OnContent(content string, _ bool) {
	c.text.WriteString(content)
}

func (c *collector) OnToolCall(messages.ChatMessageToolCall) {}

func (c *collector) OnComplete(*messages.ChatMessage) {}

func (c *collector) OnError(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

func (c *collector) GetResponse() messages.ChatMessage {
	return messages.ChatMessage{Role: messages.MessageRoleAssistant, Content: c.text.String()}
}
