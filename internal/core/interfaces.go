package core

import (
	"context"

	"go.uber.org/zap"
)

// CommandEvent describes one command invocation
type CommandEvent interface {
	IsAdmin() bool
	IsPrivate() bool
	GetCommand() string
	GetSource() string
	GetArgs() []string
}

type Responder interface {
	Reply(string)
}

type Runtime interface {
	GetLogger() *zap.SugaredLogger
}

// CommandContext is everything a command handler can see or do
type CommandContext interface {
	context.Context
	CommandEvent
	Responder
	Runtime
}
