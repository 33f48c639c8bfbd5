package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	require.Equal(t, "AAPL", NormalizeSymbol(" aapl "))
	require.True(t, ValidateSymbol("brk.b"))
	require.False(t, ValidateSymbol("   "))
	require.False(t, ValidateSymbol("NOT A SYMBOL"))
}

func TestNewHolding_NormalizesAndRounds(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	h := NewHolding("h1", " msft ", 1.234567, 100, nil, now)
	require.Equal(t, Symbol("MSFT"), h.Ticker)
	require.InDelta(t, 1.2346, h.Quantity, 1e-9)
	require.Nil(t, h.CurrentPrice)

	_, ok := h.MarketValue()
	require.False(t, ok)

	h.SetPrice(120, now)
	gl, ok := h.GainLoss()
	require.True(t, ok)
	require.InDelta(t, 1.2346*20, gl, 1e-9)
	pct, ok := h.GainLossPercent()
	require.True(t, ok)
	require.InDelta(t, 20, pct, 1e-9)
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	a := NewHolding("a", "AAPL", 2, 100, nil, now)
	b := NewHolding("b", "MSFT", 1, 50, nil, now)
	a.SetPrice(150, now)

	s := Summarize([]Holding{a, b})
	require.InDelta(t, 250, s.TotalCostBasis, 1e-9)
	require.Nil(t, s.TotalMarketValue, "market value needs every holding priced")

	b.SetPrice(25, now)
	s = Summarize([]Holding{a, b})
	require.NotNil(t, s.TotalMarketValue)
	require.InDelta(t, 325, *s.TotalMarketValue, 1e-9)
	require.InDelta(t, 75, *s.TotalGainLoss, 1e-9)
	require.InDelta(t, 30, *s.TotalGainLossPercent, 1e-9)

	empty := Summarize(nil)
	require.Nil(t, empty.TotalMarketValue)
}
