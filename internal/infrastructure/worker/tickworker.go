package worker

import (
	"context"
	"errors"
	"time"

	"holdings-pricer/internal/application"

	"go.uber.org/zap"
)

var _ application.Worker = (*TickWorker)(nil)

// TickWorker refreshes the whole portfolio on a fixed interval.
type TickWorker struct {
	Svc        PortfolioRefresher
	Every      time.Duration
	RunOnStart bool
	Timeout    time.Duration
	Log        *zap.Logger
}

func (w *TickWorker) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.Every <= 0 {
		log.Info("tick_worker.disabled")
		return
	}

	t := time.NewTicker(w.Every)
	defer t.Stop()

	log.Info("tick_worker.started", zap.Duration("every", w.Every))
	if w.RunOnStart {
		w.tick(ctx, log)
	}
	for {
		select {
		case <-ctx.Done():
			log.Info("tick_worker.stopped")
			return
		case <-t.C:
			w.tick(ctx, log)
		}
	}
}

func (w *TickWorker) tick(ctx context.Context, log *zap.Logger) {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	report, err := w.Svc.RefreshAll(ctx, false)
	switch {
	case errors.Is(err, application.ErrRefreshInProgress):
		log.Info("tick_worker.skipped_in_progress")
	case err != nil:
		log.Warn("tick_worker.refresh_failed", zap.Error(err))
	default:
		log.Info("tick_worker.refresh_done",
			zap.String("batch_id", report.BatchID),
			zap.Int("updated", report.Updated),
			zap.Int("cache_hits", report.CacheHits),
			zap.Int("failed", len(report.Failures)),
		)
	}
}
