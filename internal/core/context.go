package core

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// ChatContext is the CommandContext shared by the platform adapters
type ChatContext struct {
	context.Context
	args    []string
	source  string
	admin   bool
	private bool
	reply   func(string)
	logger  *zap.SugaredLogger
}

var _ CommandContext = (*ChatContext)(nil)

// CommandInvocation carries what an adapter knows about a command message
type CommandInvocation struct {
	Platform string
	Text     string
	Source   string
	// AdminID is matched against the admin list (discord user id or irc hostmask)
	AdminID string
	Admins  []string
	Private bool
	Reply   func(string)
}

func NewChatContext(parent context.Context, inv CommandInvocation) *ChatContext {
	logger := GetLogger().With(
		"request_id", NewRequestID(),
		"platform", inv.Platform,
		"source", inv.Source,
	)
	return &ChatContext{
		Context: parent,
		args:    strings.Fields(inv.Text),
		source:  inv.Source,
		admin:   IsAdmin(inv.AdminID, inv.Admins, logger),
		private: inv.Private,
		reply:   inv.Reply,
		logger:  logger,
	}
}

// IsAdmin reports whether id is on the admin list.
// An empty list makes nobody an admin.
func IsAdmin(id string, admins []string, logger *zap.SugaredLogger) bool {
	if len(admins) == 0 {
		logger.Debug("No admins configured; admin commands are disabled")
		return false
	}
	return slices.Contains(admins, id)
}

func (c *ChatContext) GetLogger() *zap.SugaredLogger { return c.logger }
func (c *ChatContext) GetArgs() []string             { return c.args }
func (c *ChatContext) GetSource() string             { return c.source }
func (c *ChatContext) IsAdmin() bool                 { return c.admin }
func (c *ChatContext) IsPrivate() bool               { return c.private }

func (c *ChatContext) GetCommand() string {
	if len(c.args) == 0 {
		return ""
	}
	return strings.ToLower(c.args[0])
}

func (c *ChatContext) Reply(message string) {
	c.reply(message)
}
