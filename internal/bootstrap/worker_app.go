package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"holdings-pricer/internal/config"
)

var ErrNoSchedule = errors.New("REFRESH_EVERY_MS must be positive for the standalone worker")

type WorkerApp func(ctx context.Context) error

// InitWorkerApp builds the standalone refresher. It runs the same batch as the
// API process on a schedule, so it is only useful against shared storage.
func InitWorkerApp(ctx context.Context) (WorkerApp, func(), error) {
	cfg := config.Load()
	if cfg.RefreshEvery <= 0 {
		return nil, nil, ErrNoSchedule
	}
	if cfg.Storage != "pg" {
		return nil, nil, fmt.Errorf("standalone worker needs STORAGE=pg, got %q", cfg.Storage)
	}

	w, cleanup, err := InitWorker(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init tick worker: %w", err)
	}
	runner := func(ctx context.Context) error {
		w.Start(ctx)
		return nil
	}
	return runner, cleanup, nil
}
