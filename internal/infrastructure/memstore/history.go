package memstore

import (
	"context"
	"sync"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
)

var _ application.QuoteHistoryRepo = (*HistoryRepo)(nil)

// HistoryRepo keeps the last Cap quotes per symbol.
type HistoryRepo struct {
	Cap int

	mu     sync.Mutex
	nextID int64
	bySym  map[domain.Symbol][]domain.QuoteHistory
}

func NewHistoryRepo(capacity int) *HistoryRepo {
	if capacity <= 0 {
		capacity = 100
	}
	return &HistoryRepo{Cap: capacity, bySym: map[domain.Symbol][]domain.QuoteHistory{}}
}

func (r *HistoryRepo) AppendHistory(_ context.Context, q domain.QuoteHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.bySym[q.Symbol]
	for _, e := range list {
		if e.QuotedAt.Equal(q.QuotedAt) && e.Source == q.Source {
			return nil
		}
	}
	r.nextID++
	q.ID = r.nextID
	q.InsertedAt = time.Now().UTC()
	list = append(list, q)
	if len(list) > r.Cap {
		list = list[len(list)-r.Cap:]
	}
	r.bySym[q.Symbol] = list
	return nil
}

func (r *HistoryRepo) Recent(_ context.Context, symbol string, limit int) ([]domain.QuoteHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.bySym[domain.Symbol(domain.NormalizeSymbol(symbol))]
	out := make([]domain.QuoteHistory, 0, min(limit, len(list)))
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}
