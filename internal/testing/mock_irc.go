package testing

import (
	"github.com/lrstanley/girc"
)

// NewMockIRCClient creates a girc.Client that is never connected. It is
// enough for code that reads the nick or builds events, but cannot send.
func NewMockIRCClient(nick string) *girc.Client {
	return girc.New(girc.Config{
		Server: "mock.server",
		Port:   6667,
		Nick:   nick,
		User:   nick,
		Name:   "Test Bot",
	})
}
