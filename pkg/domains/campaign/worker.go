package campaign

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Worker polls for due campaigns. A campaign is only ever run by the
// worker or request that moved it out of pending.
type Worker struct {
	service   Service
	interval  time.Duration
	batchSize int
	log       zerolog.Logger
}

func NewWorker(s Service, interval time.Duration, batchSize int, log zerolog.Logger) *Worker {
	return &Worker{
		service:   s,
		interval:  interval,
		batchSize: batchSize,
		log:       log.With().Str("component", "campaign_worker").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info().Dur("interval", w.interval).Msg("campaign worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("campaign worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	n, err := w.service.RunDue(ctx, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("campaign poll failed")
		return
	}
	if n > 0 {
		w.log.Info().Int("campaigns", n).Msg("due campaigns processed")
	}
}
