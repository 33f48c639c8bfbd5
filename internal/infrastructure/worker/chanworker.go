package worker

import (
	"context"
	"errors"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
	infraconfig "holdings-pricer/internal/infrastructure/config"
	"holdings-pricer/internal/infrastructure/logx"

	"go.uber.org/zap"
)

// PortfolioRefresher is the part of the portfolio service workers drive.
type PortfolioRefresher interface {
	RefreshAll(ctx context.Context, force bool) (domain.RefreshReport, error)
}

var _ application.Worker = (*ChanWorker)(nil)

// ChanWorker runs one refresh batch per request taken from a Queue. A
// request rejected because another batch is running goes back to the queue
// and is retried after retryDelay.
type ChanWorker struct {
	svc        PortfolioRefresher
	queue      *Queue
	timeout    time.Duration
	retryDelay time.Duration
	log        *zap.Logger
}

func NewChanWorker(svc PortfolioRefresher, queue *Queue, timeout time.Duration) *ChanWorker {
	if timeout <= 0 {
		timeout = infraconfig.DefaultRunTimeout
	}
	return &ChanWorker{
		svc:        svc,
		queue:      queue,
		timeout:    timeout,
		retryDelay: infraconfig.DefaultBusyRetryDelay,
		log:        logx.L().With(zap.String("worker", "chan")),
	}
}

func (w *ChanWorker) Start(ctx context.Context) {
	for {
		req, ok := w.queue.Next(ctx)
		if !ok {
			w.log.Info("chan_worker.stop")
			return
		}
		if w.processOne(ctx, req) {
			continue
		}
		w.queue.Enqueue(req)
		t := time.NewTimer(w.retryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			w.log.Info("chan_worker.stop")
			return
		case <-t.C:
		}
	}
}

// processOne reports false when the request must be retried.
func (w *ChanWorker) processOne(ctx context.Context, req RefreshRequest) (done bool) {
	done = true
	log := w.log.With(zap.Bool("force", req.Force), zap.String("trace_id", req.TraceID))
	defer func() {
		if r := recover(); r != nil {
			log.Error("chan_worker.panic", zap.Any("r", r))
		}
	}()
	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	report, err := w.svc.RefreshAll(c, req.Force)
	switch {
	case errors.Is(err, application.ErrRefreshInProgress):
		log.Info("chan_worker.busy_requeued", zap.Duration("retry_in", w.retryDelay))
		done = false
	case err != nil:
		log.Warn("chan_worker.refresh_failed", zap.Error(err))
	default:
		log.Info("chan_worker.refresh_done",
			zap.String("batch_id", report.BatchID),
			zap.Int("updated", report.Updated),
			zap.Int("failed", len(report.Failures)),
		)
	}
	return done
}
