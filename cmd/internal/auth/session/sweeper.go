package session

import (
	"context"
	"log/slog"
	"time"

	"passage/cmd/internal/metrics"
)

// Sweeper periodically evicts tokens that have been idle longer than the
// configured horizon. It is a coarse janitor: Verify's window check stays the
// authoritative per-call gate, so a token that is stale but not yet swept is
// still rejected.
//
// Exactly one sweeper runs per process; it is owned by the app runtime and
// stopped via context cancellation on shutdown. Each tick is one bounded
// batch delete, so cancellation never leaves a write half-applied.
type Sweeper struct {
	store      Store
	log        *slog.Logger
	interval   time.Duration
	staleAfter time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// NewSweeper constructs a Sweeper from the session config.
func NewSweeper(store Store, log *slog.Logger, cfg Config) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store:      store,
		log:        log,
		interval:   cfg.SweepInterval,
		staleAfter: cfg.SweepStaleAfter,
		now:        time.Now,
	}
}

// Run blocks, sweeping every interval, until ctx is cancelled. A failed tick
// is logged and retried on the next one; the sweeper never terminates the
// process.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("sweep.start", "interval", s.interval, "stale_after", s.staleAfter)

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweep.stop")
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	now := s.now()
	n, err := s.store.DeleteStale(ctx, now.Add(-s.staleAfter))
	if err != nil {
		metrics.SweepFailures.Inc()
		s.log.Error("sweep.fail", "err", err)
		return
	}

	if n > 0 {
		metrics.SweepDeleted.Add(float64(n))
		s.log.Info("sweep.done", "deleted", n)
	}
}
