package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pkdindustries/chorus/internal/commands"
	"pkdindustries/chorus/internal/config"
	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/discord"
	"pkdindustries/chorus/internal/irc"
)

// Version is set at build time
var Version = "0.1.0"

// Adapter is a chat platform the bot can run on
type Adapter interface {
	core.Platform
	// Run connects and delivers events until ctx ends
	Run(ctx context.Context, onMessage core.EventHandler, registry *commands.Registry) error
}

// Run connects every configured platform and answers triggers on each
// until ctx ends. A platform that fails to connect stops the others.
func Run(ctx context.Context, deps Deps) error {
	cfg := deps.Config
	if deps.Stats == nil {
		deps.Stats = NewStats()
	}
	if deps.Logger == nil {
		deps.Logger = core.GetLogger()
	}
	defer zap.L().Sync()

	registry := commands.Defaults(Version, deps.Stats)

	adapters, err := buildAdapters(cfg, deps.Logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range adapters {
		pipeline := NewPipeline(a.adapter, a.match, deps)
		g.Go(func() error {
			if err := a.adapter.Run(gctx, pipeline.Process, registry); err != nil {
				return fmt.Errorf("%s: %w", a.adapter.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

type platformEntry struct {
	adapter Adapter
	match   MentionFunc
}

func buildAdapters(cfg *config.Configuration, logger *zap.SugaredLogger) ([]platformEntry, error) {
	var out []platformEntry
	for _, name := range cfg.Bot.Platforms {
		switch name {
		case config.PlatformDiscord:
			a, err := discord.New(cfg, logger.With("platform", name))
			if err != nil {
				return nil, err
			}
			out = append(out, platformEntry{adapter: a, match: ContainsToken})
		case config.PlatformIRC:
			a := irc.New(cfg, logger.With("platform", name))
			out = append(out, platformEntry{adapter: a, match: Addressed})
		default:
			return nil, fmt.Errorf("%w: unknown platform %q", core.ErrConfig, name)
		}
	}
	return out, nil
}
