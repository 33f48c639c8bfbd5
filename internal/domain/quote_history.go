package domain

import "time"

// QuoteHistory is one fetched price kept for auditing refresh batches.
type QuoteHistory struct {
	ID         int64
	Symbol     Symbol
	Price      float64
	QuotedAt   time.Time
	Source     string
	BatchID    *string
	InsertedAt time.Time
}
