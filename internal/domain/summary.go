package domain

// Summary aggregates a portfolio. Market value and gains are only set when
// every holding has a price.
type Summary struct {
	Holdings             int
	TotalCostBasis       float64
	TotalMarketValue     *float64
	TotalGainLoss        *float64
	TotalGainLossPercent *float64
}

func Summarize(holdings []Holding) Summary {
	s := Summary{Holdings: len(holdings)}
	var mv float64
	priced := 0
	for _, h := range holdings {
		s.TotalCostBasis += h.CostBasis()
		if v, ok := h.MarketValue(); ok {
			mv += v
			priced++
		}
	}
	if len(holdings) == 0 || priced != len(holdings) {
		return s
	}
	gl := mv - s.TotalCostBasis
	s.TotalMarketValue = &mv
	s.TotalGainLoss = &gl
	if s.TotalCostBasis > 0 {
		pct := gl / s.TotalCostBasis * 100
		s.TotalGainLossPercent = &pct
	}
	return s
}
