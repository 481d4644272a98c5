package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"pkdindustries/chorus/internal/config"
	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/directive"
	"pkdindustries/chorus/internal/dispatch"
	"pkdindustries/chorus/internal/llm"
	"pkdindustries/chorus/internal/prompt"
)

// typingInterval refreshes the indicator before platforms expire it (Discord: ~10s)
const typingInterval = 8 * time.Second

// promptLogLimit bounds the prompt text attached to failure logs
const promptLogLimit = 2000

// Deps are the shared pieces every platform pipeline is built from
type Deps struct {
	Config    *config.Configuration
	Templates *prompt.Templates
	Gateway   llm.Gateway
	Stats     *Stats
	Logger    *zap.SugaredLogger
}

// Pipeline answers triggering events on one platform
type Pipeline struct {
	platform   core.Platform
	match      MentionFunc
	assembler  *prompt.Assembler
	gateway    llm.Gateway
	dispatcher *dispatch.Dispatcher
	stats      *Stats
	logger     *zap.SugaredLogger

	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	showTyping  bool
	keepalive   time.Duration
}

func NewPipeline(platform core.Platform, match MentionFunc, deps Deps) *Pipeline {
	cfg := deps.Config
	logger := deps.Logger.With("platform", platform.Name())

	stats := deps.Stats
	if stats == nil {
		stats = NewStats()
	}

	pacing := dispatch.DefaultPacing
	pacing.Cap = cfg.Bot.TypingCap

	return &Pipeline{
		platform:  platform,
		match:     match,
		assembler: prompt.NewAssembler(deps.Templates, cfg.Prompt.HistoryLimit, logger),
		gateway:   deps.Gateway,
		dispatcher: dispatch.New(platform, logger,
			dispatch.WithPacing(pacing),
			dispatch.WithTyping(cfg.Bot.ShowTyping),
			dispatch.WithReplyToTrigger(cfg.Bot.ReplyToTrigger),
		),
		stats:       stats,
		logger:      logger,
		model:       cfg.Model.Model,
		maxTokens:   cfg.Model.MaxTokens,
		temperature: cfg.Model.Temperature,
		timeout:     cfg.API.Timeout,
		showTyping:  cfg.Bot.ShowTyping,
		keepalive:   typingInterval,
	}
}

// Process runs one event through the pipeline. Non-triggering events return
// immediately. Failures and panics are logged here and never reach the caller.
// The bot identity is read per event since adapters learn it on connect.
func (p *Pipeline) Process(ctx context.Context, ev *core.IncomingEvent) {
	reason := Evaluator{Self: p.platform.Self(), Match: p.match}.Check(ev)
	if reason == ReasonNone {
		return
	}

	logger := core.WithEvent(p.logger, ev).With("reason", reason.String())
	p.stats.Triggers.Add(1)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.stats.Panics.Add(1)
			logger.Errorw("Pipeline panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	logger.Infof(">> %s", core.Truncate(ev.Content, 200))
	if err := p.run(ctx, ev, logger); err != nil {
		fields := []any{"error", err}
		var perr *core.PipelineError
		if errors.As(err, &perr) {
			fields = append(fields, "stage", perr.Stage, "prompt", core.Truncate(perr.Prompt, promptLogLimit))
		}
		var lerr *llm.Error
		if errors.As(err, &lerr) {
			fields = append(fields, "kind", lerr.Kind.String(), "attempts", lerr.Attempts)
		}
		logger.Errorw("Trigger failed", fields...)
	}
}

func (p *Pipeline) run(ctx context.Context, ev *core.IncomingEvent, logger *zap.SugaredLogger) error {
	defer core.LogDuration(logger, "pipeline", time.Now())

	pc := p.assembler.Assemble(ctx, ev, p.platform, p.platform.Self())
	req := &llm.Request{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		System:      pc.System(),
		Messages:    pc.Messages(),
	}
	logger.Debugw("Prompt assembled", "history", len(pc.History), "turns", len(req.Messages))

	stop := p.keepTyping(ctx, ev.ChannelID, logger)
	defer stop()
	completion, err := p.gateway.Complete(ctx, req)
	stop()
	if err != nil {
		p.stats.GatewayErrors.Add(1)
		return &core.PipelineError{Stage: "gateway", Prompt: pc.String(), Err: err}
	}
	p.stats.Completions.Add(1)

	units := directive.Parse(completion.Text)
	if len(units) == 0 {
		logger.Warnw("Completion contained no deliverable text", "completion", core.Truncate(completion.Text, 200))
		return nil
	}
	units = directive.Resolve(ctx, units, newResolver(ev, pc, p.platform), logger)

	report := p.dispatcher.Dispatch(ctx, ev, units)
	p.stats.Sent.Add(int64(report.Sent))
	p.stats.Failed.Add(int64(report.Failed))
	if report.Failed > 0 {
		return &core.PipelineError{
			Stage:  "dispatch",
			Prompt: pc.String(),
			Err:    fmt.Errorf("%w: %d of %d messages", core.ErrSend, report.Failed, len(units)),
		}
	}

	logger.Infow("Trigger answered", "messages", report.Sent)
	return nil
}

// keepTyping refreshes the typing indicator until the returned func is called
func (p *Pipeline) keepTyping(ctx context.Context, channelID string, logger *zap.SugaredLogger) func() {
	if !p.showTyping {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.keepalive)
		defer ticker.Stop()
		for {
			if err := p.platform.Typing(ctx, channelID); err != nil {
				logger.Debugw("Typing indicator failed", "error", err)
			}
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		wg.Wait()
	}
}
