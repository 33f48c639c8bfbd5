package provider

import (
	"context"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
)

// Ensure Fake implements application.QuoteClient.
var _ application.QuoteClient = (*Fake)(nil)

// Fake serves fixed prices without network access. Symbols missing from
// the table get the default price, or InvalidSymbol when it is zero.
type Fake struct {
	prices map[string]float64
	price  float64
}

func NewFake(price float64) *Fake { return &Fake{price: price, prices: map[string]float64{}} }

// WithPrice pins the price of one symbol.
func (f *Fake) WithPrice(symbol string, price float64) *Fake {
	f.prices[domain.NormalizeSymbol(symbol)] = price
	return f
}

func (f *Fake) Fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return domain.Quote{}, domain.NewNetworkError(err)
	}
	symbol = domain.NormalizeSymbol(symbol)
	price, ok := f.prices[symbol]
	if !ok {
		price = f.price
	}
	if price == 0 {
		return domain.Quote{}, domain.NewInvalidSymbol(symbol)
	}
	return domain.Quote{
		Symbol:   domain.Symbol(symbol),
		Price:    price,
		QuotedAt: time.Now().UTC(),
	}, nil
}
