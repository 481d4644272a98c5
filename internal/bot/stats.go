package bot

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats counts pipeline outcomes since startup
type Stats struct {
	started time.Time

	Triggers      atomic.Int64
	Completions   atomic.Int64
	GatewayErrors atomic.Int64
	Sent          atomic.Int64
	Failed        atomic.Int64
	Panics        atomic.Int64
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// Summary renders the counters on one line
func (s *Stats) Summary() string {
	return fmt.Sprintf("uptime: %s, triggers: %d, completions: %d, gateway errors: %d, sent: %d, failed: %d, panics: %d",
		time.Since(s.started).Truncate(time.Second),
		s.Triggers.Load(),
		s.Completions.Load(),
		s.GatewayErrors.Load(),
		s.Sent.Load(),
		s.Failed.Load(),
		s.Panics.Load(),
	)
}
