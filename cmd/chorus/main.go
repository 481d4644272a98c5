package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"pkdindustries/chorus/internal/bot"
	"pkdindustries/chorus/internal/config"
	"pkdindustries/chorus/internal/core"
	"pkdindustries/chorus/internal/llm"
	"pkdindustries/chorus/internal/prompt"
)

func main() {
	fmt.Printf("%s\n", bot.GetBanner(bot.Version))

	cmd := &cli.Command{
		Name:    "chorus",
		Usage:   "a chat bot that answers in several short messages",
		Version: bot.Version,
		Flags:   config.GetFlags(),
		Action:  run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		// Print to stderr first in case logger isn't initialized
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		zap.S().Fatal(err)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	core.InitLogger(c.Bool("verbose"))

	cfg := config.NewConfiguration(c)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Bot.Verbose {
		cfg.PrintConfig()
	}

	templates, err := prompt.LoadTemplates(cfg.Prompt.IdentityPath, cfg.Prompt.GuidelinesPath)
	if err != nil {
		return err
	}

	logger := core.GetLogger()
	gateway, err := llm.New(cfg, core.WithFields("component", "llm", "provider", cfg.Model.Provider))
	if err != nil {
		return err
	}

	logger.Infow("Starting chorus",
		"version", bot.Version,
		"platforms", cfg.Bot.Platforms,
		"provider", cfg.Model.Provider,
		"model", cfg.Model.Model,
	)

	return bot.Run(ctx, bot.Deps{
		Config:    cfg,
		Templates: templates,
		Gateway:   gateway,
		Stats:     bot.NewStats(),
		Logger:    logger,
	})
}
