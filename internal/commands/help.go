package commands

import (
	"strings"

	"pkdindustries/chorus/internal/core"
)

// HelpCommand handles the /help command
type HelpCommand struct {
	registry *Registry
}

// NewHelpCommand creates a help command that can list registered commands
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{registry: registry}
}

func (c *HelpCommand) Name() string        { return "/help" }
func (c *HelpCommand) Description() string { return "List the available commands" }
func (c *HelpCommand) AdminOnly() bool     { return false }

func (c *HelpCommand) Execute(ctx core.CommandContext) {
	var names []string
	isAdmin := ctx.IsAdmin()

	for _, cmd := range c.registry.All() {
		if cmd.AdminOnly() && !isAdmin {
			continue
		}
		names = append(names, cmd.Name())
	}

	ctx.Reply("Supported commands: " + strings.Join(names, ", "))
}

// UnknownCommand answers slash messages no other command claims
type UnknownCommand struct{}

func (c *UnknownCommand) Name() string        { return "" }
func (c *UnknownCommand) Description() string { return "" }
func (c *UnknownCommand) AdminOnly() bool     { return false }

func (c *UnknownCommand) Execute(ctx core.CommandContext) {
	ctx.Reply("Unknown command " + ctx.GetCommand() + ", try /help")
}
