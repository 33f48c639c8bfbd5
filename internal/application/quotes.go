package application

//go:generate mockgen -package=application_test -destination=mock_quotes_test.go -source=quotes.go QuoteClient

import (
	"context"

	"holdings-pricer/internal/domain"
)

// QuoteClient fetches the current quote for one symbol. Every failure is
// returned as a *domain.QuoteError; it never caches.
type QuoteClient interface {
	Fetch(ctx context.Context, symbol string) (domain.Quote, error)
}
