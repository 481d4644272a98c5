package commands

import (
	"pkdindustries/chorus/internal/core"
)

// VersionCommand handles the /version command
type VersionCommand struct {
	Version string
}

func (c *VersionCommand) Name() string        { return "/version" }
func (c *VersionCommand) Description() string { return "Show the running version" }
func (c *VersionCommand) AdminOnly() bool     { return false }

func (c *VersionCommand) Execute(ctx core.CommandContext) {
	ctx.Reply("chorus " + c.Version)
}

// PingCommand handles the /ping command
type PingCommand struct{}

func (c *PingCommand) Name() string        { return "/ping" }
func (c *PingCommand) Description() string { return "Check if the bot is responsive" }
func (c *PingCommand) AdminOnly() bool     { return false }

func (c *PingCommand) Execute(ctx core.CommandContext) {
	ctx.GetLogger().Infow("Ping", "source", ctx.GetSource())
	ctx.Reply("pong")
}
