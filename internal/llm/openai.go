package llm

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const providerOpenAI = "openai"

// OpenAI calls the Chat Completions API of OpenAI or any compatible endpoint
type OpenAI struct {
	client openai.Client
}

func NewOpenAI(apiKey, baseURL string, timeout time.Duration) *OpenAI {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &OpenAI{client: openai.NewClient(opts...)}
}

func (o *OpenAI) Complete(ctx context.Context, req *Request) (*Completion, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, classify(providerOpenAI, apiErr.StatusCode, err)
		}
		return nil, classify(providerOpenAI, 0, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindInvalidResponse, Provider: providerOpenAI, Err: errors.New("no choices returned")}
	}

	choice := resp.Choices[0]
	return finish(providerOpenAI, &Completion{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		StopReason:   string(choice.FinishReason),
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	})
}
