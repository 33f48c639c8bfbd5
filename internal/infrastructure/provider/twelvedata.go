package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
	"holdings-pricer/internal/infrastructure/httpx"

	"github.com/shopspring/decimal"
)

const twelveDataQuotePath = "/quote"

// TwelveData fetches real-time quotes from the Twelve Data REST API.
type TwelveData struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
	Now     func() time.Time
}

var _ application.QuoteClient = (*TwelveData)(nil)

type tdQuoteResp struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Close         *string `json:"close"`
	PreviousClose *string `json:"previous_close"`
	Change        *string `json:"change"`
	PercentChange *string `json:"percent_change"`
	Timestamp     int64   `json:"timestamp"`

	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewTwelveData(baseURL, apiKey string, client *httpx.Client) *TwelveData {
	return &TwelveData{BaseURL: baseURL, APIKey: apiKey, Client: client}
}

// Fetch returns the latest quote for symbol. Every failure is a
// *domain.QuoteError.
func (p *TwelveData) Fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	u, err := p.quoteURL(symbol)
	if err != nil {
		return domain.Quote{}, domain.NewInvalidRequest(err)
	}

	client := p.Client
	if client == nil {
		client = &httpx.Client{}
	}
	resp, err := client.Get(ctx, u)
	var reqErr *httpx.RequestError
	if errors.As(err, &reqErr) {
		return domain.Quote{}, domain.NewInvalidRequest(err)
	}
	if err != nil {
		return domain.Quote{}, domain.NewNetworkError(err)
	}
	if resp.Status == http.StatusTooManyRequests {
		return domain.Quote{}, domain.NewRateLimited()
	}

	var body tdQuoteResp
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		if resp.Status >= http.StatusInternalServerError {
			return domain.Quote{}, domain.NewNetworkError(fmt.Errorf("upstream status %d", resp.Status))
		}
		return domain.Quote{}, domain.NewDecodingError(err)
	}

	if body.Status == "error" {
		switch {
		case body.Code == http.StatusTooManyRequests:
			return domain.Quote{}, domain.NewRateLimited()
		case strings.Contains(strings.ToLower(body.Message), "not found"):
			return domain.Quote{}, domain.NewInvalidSymbol(symbol)
		default:
			return domain.Quote{}, domain.NewAPIError(body.Message)
		}
	}

	price, ok := parseDecimal(body.Close)
	if !ok {
		return domain.Quote{}, domain.NewNoData(symbol)
	}

	q := domain.Quote{
		Symbol: domain.Symbol(symbol),
		Name:   body.Name,
		Price:  price,
	}
	if v, ok := parseDecimal(body.PreviousClose); ok {
		q.PreviousClose = &v
	}
	if v, ok := parseDecimal(body.Change); ok {
		q.Change = &v
	}
	if v, ok := parseDecimal(body.PercentChange); ok {
		q.PercentChange = &v
	}
	if body.Timestamp > 0 {
		q.QuotedAt = time.Unix(body.Timestamp, 0).UTC()
	} else {
		q.QuotedAt = p.now()
	}
	return q, nil
}

func (p *TwelveData) quoteURL(symbol string) (string, error) {
	if p.APIKey == "" {
		return "", errors.New("twelvedata: missing api key")
	}
	if symbol == "" {
		return "", errors.New("twelvedata: empty symbol")
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return "", fmt.Errorf("twelvedata: invalid base url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("twelvedata: base url %q is not absolute", p.BaseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + twelveDataQuotePath
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("apikey", p.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *TwelveData) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

func parseDecimal(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
