package memstore

import (
	"context"
	"sync"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
)

var _ application.HoldingRepo = (*HoldingRepo)(nil)

// HoldingRepo keeps holdings in process memory. Values are copied on the
// way in and out so callers never share pointers with the store.
type HoldingRepo struct {
	mu    sync.RWMutex
	items map[string]domain.Holding
}

func NewHoldingRepo(seed ...domain.Holding) *HoldingRepo {
	r := &HoldingRepo{items: make(map[string]domain.Holding, len(seed))}
	for _, h := range seed {
		r.items[h.ID] = clone(h)
	}
	return r
}

func clone(h domain.Holding) domain.Holding {
	if h.CurrentPrice != nil {
		p := *h.CurrentPrice
		h.CurrentPrice = &p
	}
	if h.LastUpdated != nil {
		t := *h.LastUpdated
		h.LastUpdated = &t
	}
	if h.PurchaseDate != nil {
		t := *h.PurchaseDate
		h.PurchaseDate = &t
	}
	return h
}

func (r *HoldingRepo) List(context.Context) ([]domain.Holding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Holding, 0, len(r.items))
	for _, h := range r.items {
		out = append(out, clone(h))
	}
	return out, nil
}

func (r *HoldingRepo) Get(_ context.Context, id string) (domain.Holding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.items[id]
	if !ok {
		return domain.Holding{}, application.ErrNotFound
	}
	return clone(h), nil
}

func (r *HoldingRepo) Create(_ context.Context, h domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[h.ID]; ok {
		return application.ErrConflict
	}
	r.items[h.ID] = clone(h)
	return nil
}

func (r *HoldingRepo) Update(_ context.Context, h domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[h.ID]; !ok {
		return application.ErrNotFound
	}
	r.items[h.ID] = clone(h)
	return nil
}

func (r *HoldingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return application.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *HoldingRepo) SavePrice(_ context.Context, id string, price float64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.items[id]
	if !ok {
		return application.ErrNotFound
	}
	h.SetPrice(price, at)
	r.items[id] = h
	return nil
}

// Ping always succeeds; it lets the memory store back the readiness probe.
func (r *HoldingRepo) Ping(context.Context) error { return nil }
