//go:build wireinject

package bootstrap

import (
	"context"

	"holdings-pricer/internal/infrastructure/worker"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvideStores,
	ProvideRedisClient,
	ProvideQuoteClient,
	ProvidePriceCache,
	ProvideRefreshLock,
	ProvideMetrics,
	ProvideRefresher,
	ProvidePortfolioService,
)

// API injector: HTTP handler, trigger queue and refresh workers + Cleanup
func InitAPI(ctx context.Context) (*API, func(), error) {
	wire.Build(
		infraSet,
		ProvideQueue,
		ProvideChanWorker,
		ProvideTickWorker,
		ProvideServer,
		ProvideAPI,
	)
	return nil, nil, nil
}

// Worker injector: scheduled refresher for cmd/worker + Cleanup
func InitWorker(ctx context.Context) (*worker.TickWorker, func(), error) {
	wire.Build(
		infraSet,
		ProvideTickWorker,
	)
	return nil, nil, nil
}
