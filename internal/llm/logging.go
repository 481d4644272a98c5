package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Logging records every call made through the wrapped gateway
type Logging struct {
	Next   Gateway
	Logger *zap.SugaredLogger
}

func (l *Logging) Complete(ctx context.Context, req *Request) (*Completion, error) {
	start := time.Now()
	c, err := l.Next.Complete(ctx, req)
	fields := []any{
		"model", req.Model,
		"messages", len(req.Messages),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		l.Logger.Errorw("Completion failed", append(fields, "kind", KindOf(err).String(), "error", err)...)
		return nil, err
	}
	l.Logger.Infow("Completion finished", append(fields,
		"chars", len(c.Text),
		"input_tokens", c.InputTokens,
		"output_tokens", c.OutputTokens,
		"stop_reason", c.StopReason,
	)...)
	return c, nil
}
