package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Priceable is the view of a holding the price refresher works with.
// Implementations must only change the current price and last-updated
// timestamp in SetPrice.
type Priceable interface {
	Symbol() string
	SetPrice(price float64, at time.Time)
}

// Holding is a position in one security.
type Holding struct {
	ID            string
	Ticker        Symbol
	Quantity      float64
	PurchasePrice float64
	PurchaseDate  *time.Time
	CurrentPrice  *float64
	LastUpdated   *time.Time
	CreatedAt     time.Time
}

var _ Priceable = (*Holding)(nil)

// NewHolding normalizes the symbol and rounds the quantity to 4 decimals.
func NewHolding(id, symbol string, quantity, purchasePrice float64, purchaseDate *time.Time, now time.Time) Holding {
	return Holding{
		ID:            id,
		Ticker:        Symbol(NormalizeSymbol(symbol)),
		Quantity:      RoundQuantity(quantity),
		PurchasePrice: purchasePrice,
		PurchaseDate:  purchaseDate,
		CreatedAt:     now,
	}
}

func RoundQuantity(q float64) float64 {
	return decimal.NewFromFloat(q).Round(4).InexactFloat64()
}

func (h *Holding) Symbol() string { return string(h.Ticker) }

func (h *Holding) SetPrice(price float64, at time.Time) {
	h.CurrentPrice = &price
	h.LastUpdated = &at
}

func (h Holding) CostBasis() float64 { return h.Quantity * h.PurchasePrice }

func (h Holding) MarketValue() (float64, bool) {
	if h.CurrentPrice == nil {
		return 0, false
	}
	return h.Quantity * *h.CurrentPrice, true
}

func (h Holding) GainLoss() (float64, bool) {
	v, ok := h.MarketValue()
	if !ok {
		return 0, false
	}
	return v - h.CostBasis(), true
}

func (h Holding) GainLossPercent() (float64, bool) {
	g, ok := h.GainLoss()
	cb := h.CostBasis()
	if !ok || cb <= 0 {
		return 0, false
	}
	return g / cb * 100, true
}
