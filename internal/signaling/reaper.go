package signaling

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reaper periodically evicts rooms whose peers have been gone past the
// grace period, bounding memory growth from crashed or abandoned sessions.
type Reaper struct {
	coord    *Coordinator
	interval time.Duration
	log      zerolog.Logger
}

func NewReaper(coord *Coordinator, interval time.Duration, log zerolog.Logger) *Reaper {
	return &Reaper{
		coord:    coord,
		interval: interval,
		log:      log.With().Str("component", "reaper").Logger(),
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. A failing tick is
// logged and swallowed; it never stops the next tick.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("reap scheduler started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reap scheduler stopped")
			return
		case now := <-ticker.C:
			r.tick(now)
		}
	}
}

func (r *Reaper) tick(now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("reap tick panicked")
		}
	}()
	r.coord.ReapStale(now)
}
