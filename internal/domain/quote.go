package domain

import "time"

// Quote is a single point-in-time price for one symbol as returned by the
// quote provider.
type Quote struct {
	Symbol        Symbol
	Name          string
	Price         float64
	PreviousClose *float64
	Change        *float64
	PercentChange *float64
	QuotedAt      time.Time
}
