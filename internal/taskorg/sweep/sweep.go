// Package sweep removes expired KV entries in the background.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper deletes expired entries and reports how many were removed.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Start periodically sweeps expired KV entries.
// It blocks until the context is cancelled.
func Start(ctx context.Context, s Sweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				log.Debug().Err(err).Msg("kv sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("kv sweep")
			}
		}
	}
}
