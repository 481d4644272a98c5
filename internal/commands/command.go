package commands

import (
	"slices"
	"strings"

	"pkdindustries/chorus/internal/core"
)

// Command defines the interface for bot commands
type Command interface {
	Name() string
	Description() string
	Execute(ctx core.CommandContext)
	AdminOnly() bool
}

// Registry manages command registration and dispatch
type Registry struct {
	commands       map[string]Command
	defaultCommand Command
}

// NewRegistry creates a new command registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command to the registry
// Commands with empty name are registered as the default fallback
func (r *Registry) Register(cmd Command) {
	name := cmd.Name()
	if name == "" {
		r.defaultCommand = cmd
		return
	}
	r.commands[name] = cmd
}

// Get retrieves a command by name
func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Dispatch executes the appropriate command based on context
// Returns true if a command was executed, false otherwise
func (r *Registry) Dispatch(ctx core.CommandContext) bool {
	cmdName := ctx.GetCommand()

	cmd, ok := r.commands[cmdName]
	if !ok {
		if r.defaultCommand != nil {
			r.defaultCommand.Execute(ctx)
			return true
		}
		return false
	}

	if cmd.AdminOnly() && !ctx.IsAdmin() {
		ctx.GetLogger().Warnw("Rejected admin command", "command", cmdName)
		ctx.Reply("You don't have permission to perform this action.")
		return true
	}

	ctx.GetLogger().Infow("Executing command", "command", cmdName)
	cmd.Execute(ctx)
	return true
}

// All returns all registered commands (excluding default), sorted by name
func (r *Registry) All() []Command {
	cmds := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	slices.SortFunc(cmds, func(a, b Command) int { return strings.Compare(a.Name(), b.Name()) })
	return cmds
}

// IsCommand reports whether text is addressed to the registry rather than the model
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// Defaults registers the built-in commands
func Defaults(version string, stats StatsSource) *Registry {
	r := NewRegistry()
	r.Register(&PingCommand{})
	r.Register(NewHelpCommand(r))
	r.Register(&VersionCommand{Version: version})
	r.Register(&StatsCommand{Stats: stats})
	r.Register(&UnknownCommand{})
	return r
}
