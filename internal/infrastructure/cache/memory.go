package cache

import (
	"context"
	"sync"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
)

// DefaultTTL is how long a fetched price is served without a network call.
const DefaultTTL = 60 * time.Second

var _ application.PriceCache = (*Memory)(nil)

type entry struct {
	price     float64
	fetchedAt time.Time
}

// Memory is a process-local price cache keyed by normalized symbol.
// There is no size bound: expired entries stay in the map and are reported
// as misses until overwritten or cleared.
type Memory struct {
	TTL time.Duration
	Now func() time.Time

	mu    sync.RWMutex
	items map[string]entry
}

type Option func(*Memory)

func WithNow(now func() time.Time) Option { return func(m *Memory) { m.Now = now } }

func NewMemory(ttl time.Duration, opts ...Option) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{TTL: ttl, items: map[string]entry{}}
	for _, opt := range opts {
		opt(m)
	}
	if m.Now == nil {
		m.Now = time.Now
	}
	return m
}

func (m *Memory) Lookup(_ context.Context, symbol string) (float64, bool, error) {
	key := domain.NormalizeSymbol(symbol)
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || m.Now().Sub(e.fetchedAt) >= m.TTL {
		return 0, false, nil
	}
	return e.price, true, nil
}

func (m *Memory) Store(_ context.Context, symbol string, price float64, at time.Time) error {
	key := domain.NormalizeSymbol(symbol)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = entry{price: price, fetchedAt: at}
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.items = map[string]entry{}
	m.mu.Unlock()
	return nil
}

// Len reports the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
