package bootstrap

import (
	"context"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/config"
	"holdings-pricer/internal/domain"
	"holdings-pricer/internal/infrastructure/cache"
	infraconfig "holdings-pricer/internal/infrastructure/config"
	httpserver "holdings-pricer/internal/infrastructure/http"
	"holdings-pricer/internal/infrastructure/httpx"
	"holdings-pricer/internal/infrastructure/logx"
	"holdings-pricer/internal/infrastructure/memstore"
	"holdings-pricer/internal/infrastructure/metrics"
	"holdings-pricer/internal/infrastructure/pg"
	"holdings-pricer/internal/infrastructure/provider"
	redisstore "holdings-pricer/internal/infrastructure/redis"
	"holdings-pricer/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

// ProvideStores opens the backend selected by STORAGE. The in-memory store is
// seeded from HOLDINGS_SEED when set.
func ProvideStores(ctx context.Context, log *zap.Logger, cfg config.Config) (Stores, func(), error) {
	switch cfg.Storage {
	case "", "memory":
		var seed []domain.Holding
		if cfg.HoldingsSeed != "" {
			hs, err := memstore.LoadSeed(cfg.HoldingsSeed, time.Now().UTC())
			if err != nil {
				return Stores{}, func() {}, err
			}
			log.Info("holdings seeded", zap.String("path", cfg.HoldingsSeed), zap.Int("count", len(hs)))
			seed = hs
		}
		repo := memstore.NewHoldingRepo(seed...)
		return Stores{
			Holdings: repo,
			History:  memstore.NewHistoryRepo(infraconfig.DefaultHistoryCap),
			UoW:      application.NoopUoW{},
			Ping:     repo.Ping,
		}, func() {}, nil
	case "pg":
		if cfg.DatabaseURL == "" {
			return Stores{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Stores{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return Stores{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return Stores{
			Holdings: pg.NewHoldingRepo(db),
			History:  pg.NewHistoryRepo(db),
			UoW:      pg.NewUnitOfWork(db),
			Ping:     db.Ping,
		}, cleanup, nil
	default:
		return Stores{}, func() {}, unknownBackend("STORAGE", cfg.Storage)
	}
}

// ProvideRedisClient connects only when the cache or the refresh lock lives
// in redis; otherwise it returns nil.
func ProvideRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, func(), error) {
	if cfg.CacheBackend != "redis" && cfg.RefreshLock != "redis" {
		return nil, func() {}, nil
	}
	client, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, func() {}, err
	}
	return client, func() { _ = client.Close() }, nil
}

func ProvideQuoteClient(cfg config.Config) (application.QuoteClient, error) {
	switch cfg.Provider {
	case "twelvedata":
		return provider.NewTwelveData(cfg.TwelveDataBase, cfg.TwelveDataKey, httpx.New(cfg.RequestTimeout)), nil
	case "", "fake":
		return provider.NewFake(100), nil
	default:
		return nil, unknownBackend("PROVIDER", cfg.Provider)
	}
}

func ProvidePriceCache(cfg config.Config, client *redis.Client) (application.PriceCache, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return cache.NewMemory(cfg.CacheTTL), nil
	case "redis":
		return redisstore.NewPriceCache(client, cfg.CacheTTL), nil
	default:
		return nil, unknownBackend("CACHE_BACKEND", cfg.CacheBackend)
	}
}

func ProvideRefreshLock(cfg config.Config, client *redis.Client) (application.RefreshLock, error) {
	switch cfg.RefreshLock {
	case "", "none":
		return application.NoopLock{}, nil
	case "redis":
		return redisstore.NewLock(client, cfg.LockTTL), nil
	default:
		return nil, unknownBackend("REFRESH_LOCK", cfg.RefreshLock)
	}
}

func ProvideMetrics() *metrics.Recorder { return metrics.New() }

func ProvideRefresher(
	cfg config.Config,
	quotes application.QuoteClient,
	priceCache application.PriceCache,
	lock application.RefreshLock,
	rec *metrics.Recorder,
	log *zap.Logger,
) *application.Refresher {
	return application.NewRefresher(quotes, priceCache,
		application.WithPacingInterval(cfg.Pacing),
		application.WithRefreshLock(lock),
		application.WithMetrics(rec),
		application.WithRefresherLogger(log),
	)
}

func ProvidePortfolioService(stores Stores, r *application.Refresher, log *zap.Logger) *application.PortfolioService {
	return application.NewPortfolioService(stores.Holdings, r,
		application.WithHistory(stores.History),
		application.WithUnitOfWork(stores.UoW),
		application.WithLogger(log),
	)
}

func ProvideQueue() *worker.Queue { return worker.NewQueue() }

func ProvideChanWorker(svc *application.PortfolioService, q *worker.Queue) *worker.ChanWorker {
	return worker.NewChanWorker(svc, q, infraconfig.DefaultRunTimeout)
}

func ProvideTickWorker(cfg config.Config, svc *application.PortfolioService, log *zap.Logger) *worker.TickWorker {
	return &worker.TickWorker{
		Svc:        svc,
		Every:      cfg.RefreshEvery,
		RunOnStart: true,
		Timeout:    infraconfig.DefaultRunTimeout,
		Log:        log.With(zap.String("worker", "tick")),
	}
}

func ProvideServer(svc *application.PortfolioService, q *worker.Queue, stores Stores, rec *metrics.Recorder) *httpserver.Server {
	s := httpserver.NewServer(svc, q)
	s.SetReadyCheck(stores.Ping)
	s.SetMetrics(rec)
	return s
}

func ProvideAPI(s *httpserver.Server, q *worker.Queue, w *worker.ChanWorker, t *worker.TickWorker) *API {
	return &API{Server: s, Handler: httpserver.NewRouter(s), Queue: q, Worker: w, Ticker: t}
}
