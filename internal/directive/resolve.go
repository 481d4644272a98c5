package directive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pkdindustries/chorus/internal/core"
)

// Resolver matches directive names to concrete users and messages
type Resolver interface {
	// User resolves a [@name] directive
	User(ctx context.Context, name string) (core.User, error)
	// Message resolves a [reply:name] directive to the message being answered
	Message(ctx context.Context, name string) (core.MessageRef, error)
}

// Resolve fills the targets of each unit. A name that does not resolve leaves
// its target nil; the unit's text is kept either way.
func Resolve(ctx context.Context, units []Unit, r Resolver, logger *zap.SugaredLogger) []Unit {
	out := make([]Unit, len(units))
	for i, u := range units {
		if u.Reply != "" {
			ref, err := r.Message(ctx, u.Reply)
			if err != nil {
				logger.Warnw("Dropping reply directive", "name", u.Reply, "error", unresolved(u.Reply, err))
			} else {
				u.ReplyTarget = &ref
			}
		}
		if u.Mention != "" {
			user, err := r.User(ctx, u.Mention)
			if err != nil {
				logger.Warnw("Dropping mention directive", "name", u.Mention, "error", unresolved(u.Mention, err))
			} else {
				u.MentionTarget = &user
			}
		}
		out[i] = u
	}
	return out
}

func unresolved(name string, err error) error {
	return fmt.Errorf("%w: %q: %w", core.ErrResolution, name, err)
}
