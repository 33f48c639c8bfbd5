package application

import (
	"context"
	"time"

	"holdings-pricer/internal/domain"
)

type HoldingRepo interface {
	List(ctx context.Context) ([]domain.Holding, error)
	Get(ctx context.Context, id string) (domain.Holding, error)
	Create(ctx context.Context, h domain.Holding) error
	Update(ctx context.Context, h domain.Holding) error
	Delete(ctx context.Context, id string) error
	SavePrice(ctx context.Context, id string, price float64, at time.Time) error
}

type QuoteHistoryRepo interface {
	AppendHistory(ctx context.Context, q domain.QuoteHistory) error
	// Recent returns up to limit entries for symbol, newest first.
	Recent(ctx context.Context, symbol string, limit int) ([]domain.QuoteHistory, error)
}

// PriceCache maps a normalized symbol to its last fetched price.
// Lookup reports a miss for entries older than the cache TTL.
type PriceCache interface {
	Lookup(ctx context.Context, symbol string) (float64, bool, error)
	Store(ctx context.Context, symbol string, price float64, at time.Time) error
	Clear(ctx context.Context) error
}

// Metrics receives refresh telemetry. All methods must be cheap and non-blocking.
type Metrics interface {
	ObserveFetch(symbol string, d time.Duration, err error)
	ObserveCache(hit bool)
	ObserveBatch(report domain.RefreshReport)
}

type noopMetrics struct{}

func (noopMetrics) ObserveFetch(string, time.Duration, error) {}
func (noopMetrics) ObserveCache(bool)                         {}
func (noopMetrics) ObserveBatch(domain.RefreshReport)         {}
