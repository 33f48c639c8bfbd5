package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
)

var errStore = errors.New("store unavailable")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type seqIDs struct {
	mu     sync.Mutex
	n      int
	prefix string
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}

type cacheEntry struct {
	price float64
	at    time.Time
}

// memCache mirrors the production cache semantics on top of fakeClock.
type memCache struct {
	mu      sync.Mutex
	clock   *fakeClock
	ttl     time.Duration
	items   map[string]cacheEntry
	lookErr error
	cleared int
}

func newMemCache(clock *fakeClock) *memCache {
	return &memCache{clock: clock, ttl: time.Minute, items: map[string]cacheEntry{}}
}

func (c *memCache) Lookup(_ context.Context, symbol string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookErr != nil {
		return 0, false, c.lookErr
	}
	e, ok := c.items[domain.NormalizeSymbol(symbol)]
	if !ok || c.clock.Now().Sub(e.at) >= c.ttl {
		return 0, false, nil
	}
	return e.price, true, nil
}

func (c *memCache) Store(_ context.Context, symbol string, price float64, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[domain.NormalizeSymbol(symbol)] = cacheEntry{price: price, at: at}
	return nil
}

func (c *memCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]cacheEntry{}
	c.cleared++
	return nil
}

type fakeHoldingRepo struct {
	mu      sync.Mutex
	items   map[string]domain.Holding
	saved   map[string]float64
	saveErr error
}

func newFakeHoldingRepo(hs ...domain.Holding) *fakeHoldingRepo {
	r := &fakeHoldingRepo{items: map[string]domain.Holding{}, saved: map[string]float64{}}
	for _, h := range hs {
		r.items[h.ID] = h
	}
	return r
}

func (r *fakeHoldingRepo) List(context.Context) ([]domain.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Holding, 0, len(r.items))
	for _, h := range r.items {
		out = append(out, h)
	}
	return out, nil
}

func (r *fakeHoldingRepo) Get(_ context.Context, id string) (domain.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.items[id]
	if !ok {
		return domain.Holding{}, application.ErrNotFound
	}
	return h, nil
}

func (r *fakeHoldingRepo) Create(_ context.Context, h domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[h.ID] = h
	return nil
}

func (r *fakeHoldingRepo) Update(_ context.Context, h domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[h.ID]; !ok {
		return application.ErrNotFound
	}
	r.items[h.ID] = h
	return nil
}

func (r *fakeHoldingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return application.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeHoldingRepo) SavePrice(_ context.Context, id string, price float64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	h := r.items[id]
	h.SetPrice(price, at)
	r.items[id] = h
	r.saved[id] = price
	return nil
}

type fakeHistory struct {
	mu   sync.Mutex
	recs []domain.QuoteHistory
}

func (f *fakeHistory) AppendHistory(_ context.Context, q domain.QuoteHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, q)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, symbol string, limit int) ([]domain.QuoteHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.QuoteHistory
	for i := len(f.recs) - 1; i >= 0 && len(out) < limit; i-- {
		if string(f.recs[i].Symbol) == symbol {
			out = append(out, f.recs[i])
		}
	}
	return out, nil
}

type denyLock struct{}

func (denyLock) TryAcquire(context.Context, string) (func(), bool, error) {
	return nil, false, nil
}

func priceable(hs []*domain.Holding) []domain.Priceable {
	out := make([]domain.Priceable, len(hs))
	for i, h := range hs {
		out[i] = h
	}
	return out
}

func quote(symbol string, price float64) domain.Quote {
	return domain.Quote{Symbol: domain.Symbol(symbol), Price: price}
}
