package httpserver

import (
	"fmt"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
)

type holdingRequest struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	PurchaseDate  *string `json:"purchase_date,omitempty"`
}

func (r holdingRequest) input() (application.HoldingInput, error) {
	in := application.HoldingInput{
		Symbol:        r.Symbol,
		Quantity:      r.Quantity,
		PurchasePrice: r.PurchasePrice,
	}
	if r.PurchaseDate != nil && *r.PurchaseDate != "" {
		t, err := parseDate(*r.PurchaseDate)
		if err != nil {
			return in, err
		}
		in.PurchaseDate = &t
	}
	return in, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("purchase_date %q: want YYYY-MM-DD or RFC3339", s)
	}
	return t.UTC(), nil
}

type holdingResponse struct {
	ID              string     `json:"id"`
	Symbol          string     `json:"symbol"`
	Quantity        float64    `json:"quantity"`
	PurchasePrice   float64    `json:"purchase_price"`
	PurchaseDate    *string    `json:"purchase_date,omitempty"`
	CurrentPrice    *float64   `json:"current_price"`
	LastUpdated     *time.Time `json:"last_updated"`
	CostBasis       float64    `json:"cost_basis"`
	MarketValue     *float64   `json:"market_value"`
	GainLoss        *float64   `json:"gain_loss"`
	GainLossPercent *float64   `json:"gain_loss_percent"`
	CreatedAt       time.Time  `json:"created_at"`
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func toHoldingResponse(h domain.Holding) holdingResponse {
	out := holdingResponse{
		ID:              h.ID,
		Symbol:          string(h.Ticker),
		Quantity:        h.Quantity,
		PurchasePrice:   h.PurchasePrice,
		CurrentPrice:    h.CurrentPrice,
		LastUpdated:     h.LastUpdated,
		CostBasis:       h.CostBasis(),
		MarketValue:     optional(h.MarketValue()),
		GainLoss:        optional(h.GainLoss()),
		GainLossPercent: optional(h.GainLossPercent()),
		CreatedAt:       h.CreatedAt,
	}
	if h.PurchaseDate != nil {
		d := h.PurchaseDate.Format(time.DateOnly)
		out.PurchaseDate = &d
	}
	return out
}

type summaryResponse struct {
	Holdings             int      `json:"holdings"`
	TotalCostBasis       float64  `json:"total_cost_basis"`
	TotalMarketValue     *float64 `json:"total_market_value"`
	TotalGainLoss        *float64 `json:"total_gain_loss"`
	TotalGainLossPercent *float64 `json:"total_gain_loss_percent"`
}

func toSummaryResponse(s domain.Summary) summaryResponse {
	return summaryResponse{
		Holdings:             s.Holdings,
		TotalCostBasis:       s.TotalCostBasis,
		TotalMarketValue:     s.TotalMarketValue,
		TotalGainLoss:        s.TotalGainLoss,
		TotalGainLossPercent: s.TotalGainLossPercent,
	}
}

type refreshStateResponse struct {
	IsLoading     bool       `json:"is_loading"`
	LastError     *string    `json:"last_error"`
	LastErrorKind *string    `json:"last_error_kind"`
	BatchID       string     `json:"batch_id,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

func toRefreshStateResponse(s domain.RefreshState) refreshStateResponse {
	out := refreshStateResponse{IsLoading: s.IsLoading, BatchID: s.BatchID}
	if s.LastError != nil {
		msg := s.LastError.Error()
		out.LastError = &msg
		if kind := domain.KindOf(s.LastError); kind != "" {
			k := string(kind)
			out.LastErrorKind = &k
		}
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		out.StartedAt = &t
	}
	if !s.FinishedAt.IsZero() {
		t := s.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

type refreshAccepted struct {
	Status    string `json:"status"`
	Force     bool   `json:"force"`
	Coalesced bool   `json:"coalesced"`
	TraceID   string `json:"trace_id,omitempty"`
}

type historyResponse struct {
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	QuotedAt time.Time `json:"quoted_at"`
	Source   string    `json:"source"`
	BatchID  *string   `json:"batch_id,omitempty"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
