package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"holdings-pricer/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	// DefaultPacing is the delay between two holdings of one batch.
	DefaultPacing = 500 * time.Millisecond

	refreshLockKey = "pricer:refresh"
)

// Refresher updates the prices of a batch of holdings one symbol at a time.
// It serves prices from the cache when fresh, fetches misses from the quote
// client and paces consecutive holdings. A failing symbol is recorded in the
// published state and never aborts the batch.
type Refresher struct {
	quotes  QuoteClient
	cache   PriceCache
	lock    RefreshLock
	metrics Metrics
	clock   Clock
	idgen   IDGen
	pacing  backoff.BackOff
	log     *zap.Logger

	running sync.Mutex
	hub     *StateHub
}

type RefresherOption func(*Refresher)

// WithPacing sets the delay policy between holdings. backoff.Stop disables it.
func WithPacing(b backoff.BackOff) RefresherOption { return func(r *Refresher) { r.pacing = b } }

func WithPacingInterval(d time.Duration) RefresherOption {
	if d <= 0 {
		return WithPacing(&backoff.ZeroBackOff{})
	}
	return WithPacing(backoff.NewConstantBackOff(d))
}

func WithRefreshLock(l RefreshLock) RefresherOption { return func(r *Refresher) { r.lock = l } }
func WithMetrics(m Metrics) RefresherOption         { return func(r *Refresher) { r.metrics = m } }
func WithRefresherClock(c Clock) RefresherOption    { return func(r *Refresher) { r.clock = c } }
func WithRefresherLogger(l *zap.Logger) RefresherOption {
	return func(r *Refresher) { r.log = l }
}

func NewRefresher(quotes QuoteClient, cache PriceCache, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		quotes: quotes,
		cache:  cache,
		hub:    NewStateHub(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.lock == nil {
		r.lock = NoopLock{}
	}
	if r.metrics == nil {
		r.metrics = noopMetrics{}
	}
	if r.clock == nil {
		r.clock = realClock{}
	}
	if r.idgen == nil {
		r.idgen = defaultIDGen{}
	}
	if r.pacing == nil {
		r.pacing = backoff.NewConstantBackOff(DefaultPacing)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

// Refresh runs one batch over holdings in order. Per-symbol failures end up
// in the report and in State().LastError; the returned error is only set when
// the batch could not start (ErrRefreshInProgress, lock failure) or was
// cancelled through ctx. Holdings processed before a cancellation keep their
// new prices.
func (r *Refresher) Refresh(ctx context.Context, holdings []domain.Priceable) (domain.RefreshReport, error) {
	return r.run(ctx, holdings, false)
}

// ForceRefresh is Refresh with an empty cache. The cache is only cleared once
// the batch owns the refresher, so a rejected call leaves it untouched.
func (r *Refresher) ForceRefresh(ctx context.Context, holdings []domain.Priceable) (domain.RefreshReport, error) {
	return r.run(ctx, holdings, true)
}

func (r *Refresher) run(ctx context.Context, holdings []domain.Priceable, clearCache bool) (report domain.RefreshReport, err error) {
	if !r.running.TryLock() {
		return domain.RefreshReport{}, ErrRefreshInProgress
	}
	defer r.running.Unlock()

	release, ok, err := r.lock.TryAcquire(ctx, refreshLockKey)
	if err != nil {
		return domain.RefreshReport{}, fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !ok {
		return domain.RefreshReport{}, ErrRefreshInProgress
	}
	defer release()

	if clearCache {
		if err := r.clearCache(ctx); err != nil {
			return domain.RefreshReport{}, err
		}
	}

	began := time.Now()
	report = domain.RefreshReport{BatchID: r.idgen.NewID(), Failures: map[string]error{}}
	log := r.log.With(zap.String("batch_id", report.BatchID), zap.Int("holdings", len(holdings)))

	startedAt := r.clock.Now()
	r.hub.Update(func(s *domain.RefreshState) {
		*s = domain.RefreshState{IsLoading: true, BatchID: report.BatchID, StartedAt: startedAt}
	})
	log.Info("refresh.start")

	defer func() {
		report.Duration = time.Since(began)
		finishedAt := r.clock.Now()
		r.hub.Update(func(s *domain.RefreshState) {
			s.IsLoading = false
			s.FinishedAt = finishedAt
		})
		r.metrics.ObserveBatch(report)
		log.Info("refresh.done",
			zap.Int("updated", report.Updated),
			zap.Int("cache_hits", report.CacheHits),
			zap.Int("failed", len(report.Failures)),
			zap.Duration("duration", report.Duration),
			zap.Error(err),
		)
	}()

	r.pacing.Reset()
	for i, h := range holdings {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r.refreshOne(ctx, log, h, &report)
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if i < len(holdings)-1 {
			if err := r.pace(ctx); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

func (r *Refresher) refreshOne(ctx context.Context, log *zap.Logger, h domain.Priceable, report *domain.RefreshReport) {
	symbol := domain.NormalizeSymbol(h.Symbol())

	if price, ok := r.lookup(ctx, log, symbol); ok {
		h.SetPrice(price, r.clock.Now())
		report.CacheHits++
		report.Updated++
		return
	}

	began := time.Now()
	q, err := r.quotes.Fetch(ctx, symbol)
	r.metrics.ObserveFetch(symbol, time.Since(began), err)
	if err != nil {
		if ctx.Err() != nil {
			// cancelled mid-request: not a symbol failure
			return
		}
		report.Failures[symbol] = err
		r.hub.Update(func(s *domain.RefreshState) { s.LastError = err })
		log.Warn("refresh.symbol_failed",
			zap.String("symbol", symbol),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		return
	}

	now := r.clock.Now()
	h.SetPrice(q.Price, now)
	report.Updated++
	report.Fetched = append(report.Fetched, q)
	if err := r.cache.Store(ctx, symbol, q.Price, now); err != nil {
		log.Warn("refresh.cache_store_failed", zap.String("symbol", symbol), zap.Error(err))
	}
}

func (r *Refresher) lookup(ctx context.Context, log *zap.Logger, symbol string) (float64, bool) {
	price, ok, err := r.cache.Lookup(ctx, symbol)
	if err != nil {
		log.Warn("refresh.cache_lookup_failed", zap.String("symbol", symbol), zap.Error(err))
		ok = false
	}
	r.metrics.ObserveCache(ok)
	return price, ok
}

func (r *Refresher) pace(ctx context.Context) error {
	d := r.pacing.NextBackOff()
	if d == backoff.Stop || d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Refresher) State() domain.RefreshState { return r.hub.Snapshot() }

func (r *Refresher) Subscribe() (<-chan domain.RefreshState, func()) { return r.hub.Subscribe() }

// ClearCache drops every cached price so the next batch hits the provider.
func (r *Refresher) ClearCache(ctx context.Context) error { return r.clearCache(ctx) }

func (r *Refresher) clearCache(ctx context.Context) error {
	if err := r.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear price cache: %w", err)
	}
	r.log.Info("refresh.cache_cleared")
	return nil
}
