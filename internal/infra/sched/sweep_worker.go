package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"household-module-ledger/internal/infra/metrics"
	"household-module-ledger/internal/usecase"
)

// SweepWorker periodically expires overdue module activations via the
// entitlement use case. Expiry never refunds; it only flips rows off.
type SweepWorker struct {
	interval time.Duration
	entUC    usecase.EntitlementUseCase
	log      *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, entUC usecase.EntitlementUseCase, logger *zerolog.Logger) *SweepWorker {
	l := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval: interval,
		entUC:    entUC,
		log:      &l,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry sweep worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.entUC.SweepExpirations(ctx, time.Now().UTC())
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
			}
			if n > 0 {
				metrics.IncActivationsExpired(n)
				w.log.Info().Int("count", n).Msg("activations expired")
			}
		}
	}
}
