package pg

import (
	"context"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
)

var _ application.QuoteHistoryRepo = (*HistoryRepo)(nil)

type HistoryRepo struct{ db *DB }

func NewHistoryRepo(db *DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) AppendHistory(ctx context.Context, h domain.QuoteHistory) error {
	_, err := r.db.q(ctx).Exec(ctx, `
        INSERT INTO quote_history(symbol, price, quoted_at, source, batch_id)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (symbol, quoted_at, source) DO NOTHING
    `, string(h.Symbol), h.Price, h.QuotedAt, h.Source, h.BatchID)
	return err
}

// Recent returns the newest entries for symbol, newest first.
func (r *HistoryRepo) Recent(ctx context.Context, symbol string, limit int) ([]domain.QuoteHistory, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
        SELECT id, symbol, price::float8, quoted_at, source, batch_id, inserted_at
        FROM quote_history WHERE symbol=$1
        ORDER BY quoted_at DESC LIMIT $2`, domain.NormalizeSymbol(symbol), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.QuoteHistory
	for rows.Next() {
		var h domain.QuoteHistory
		var sym string
		if err := rows.Scan(&h.ID, &sym, &h.Price, &h.QuotedAt, &h.Source, &h.BatchID, &h.InsertedAt); err != nil {
			return nil, err
		}
		h.Symbol = domain.Symbol(sym)
		out = append(out, h)
	}
	return out, rows.Err()
}
