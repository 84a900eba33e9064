package sched

import (
	"context"
	"time"

	"everypay-integration/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Purger drops expired entries and reports how many were removed.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// NonceSweeper periodically purges expired nonces from a process-local store.
type NonceSweeper struct {
	interval time.Duration
	store    Purger
	log      *zerolog.Logger
}

func NewNonceSweeper(interval time.Duration, store Purger, logger *zerolog.Logger) *NonceSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	swLog := logger.With().Str("component", "NonceSweeper").Logger()
	return &NonceSweeper{
		interval: interval,
		store:    store,
		log:      &swLog,
	}
}

// Run blocks until ctx is cancelled.
func (w *NonceSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting nonce sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping nonce sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *NonceSweeper) sweep(ctx context.Context) {
	n, err := w.store.Purge(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("nonce sweep error")
		return
	}
	if n > 0 {
		metrics.AddNoncesPurged(n)
		w.log.Debug().Int("count", n).Msg("expired nonces purged")
	}
}
