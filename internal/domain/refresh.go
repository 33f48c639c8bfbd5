package domain

import "time"

// RefreshState is what observers of the price refresher see.
type RefreshState struct {
	IsLoading  bool
	LastError  error
	BatchID    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// RefreshReport summarizes one completed (or cancelled) batch.
type RefreshReport struct {
	BatchID   string
	Updated   int
	CacheHits int
	Failures  map[string]error
	Fetched   []Quote
	Duration  time.Duration
}
