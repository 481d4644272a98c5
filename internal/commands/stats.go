package commands

import (
	"pkdindustries/chorus/internal/core"
)

// StatsSource summarises the pipeline counters in one line
type StatsSource interface {
	Summary() string
}

// StatsCommand handles the /stats command
type StatsCommand struct {
	Stats StatsSource
}

func (c *StatsCommand) Name() string        { return "/stats" }
func (c *StatsCommand) Description() string { return "Show pipeline counters" }
func (c *StatsCommand) AdminOnly() bool     { return true }

func (c *StatsCommand) Execute(ctx core.CommandContext) {
	if c.Stats == nil {
		ctx.Reply("no stats available")
		return
	}
	ctx.Reply(c.Stats.Summary())
}
