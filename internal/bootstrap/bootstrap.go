package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"holdings-pricer/internal/application"
	httpserver "holdings-pricer/internal/infrastructure/http"
	"holdings-pricer/internal/infrastructure/worker"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

func unknownBackend(key, value string) error {
	return fmt.Errorf("unsupported %s=%q", key, value)
}

// Stores groups the persistence ports of one storage backend.
type Stores struct {
	Holdings application.HoldingRepo
	History  application.QuoteHistoryRepo
	UoW      application.UnitOfWork
	Ping     func(ctx context.Context) error
}

// API is everything cmd/api runs: the HTTP handler plus the workers that
// execute refresh batches behind it.
type API struct {
	Server  *httpserver.Server
	Handler http.Handler
	Queue   *worker.Queue
	Worker  *worker.ChanWorker
	Ticker  *worker.TickWorker
}
