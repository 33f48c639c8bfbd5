package provider_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"holdings-pricer/internal/domain"
	"holdings-pricer/internal/infrastructure/httpx"
	"holdings-pricer/internal/infrastructure/provider"

	"github.com/stretchr/testify/require"
)

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func httpClient(resBody string, code int) *httpx.Client {
	return &httpx.Client{HTTP: &http.Client{
		Timeout: 2 * time.Second,
		Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: code,
				Body:       io.NopCloser(strings.NewReader(resBody)),
				Header:     make(http.Header),
				Request:    r,
			}, nil
		}),
	}}
}

func newProvider(body string, code int) *provider.TwelveData {
	return provider.NewTwelveData("https://api.twelvedata.com", "test", httpClient(body, code))
}

const sampleAAPL = `{
  "symbol": "AAPL",
  "name": "Apple Inc",
  "close": "150.00",
  "previous_close": "148.50",
  "change": "1.50",
  "percent_change": "1.01010",
  "timestamp": 1731240000
}`

func TestFetch_HappyPath(t *testing.T) {
	var gotURL string
	p := provider.NewTwelveData("https://api.twelvedata.com", "secret", &httpx.Client{HTTP: &http.Client{
		Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
			gotURL = r.URL.String()
			return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(sampleAAPL)), Header: make(http.Header), Request: r}, nil
		}),
	}})

	q, err := p.Fetch(context.Background(), " aapl ")
	require.NoError(t, err)
	require.Equal(t, "https://api.twelvedata.com/quote?apikey=secret&symbol=AAPL", gotURL)
	require.Equal(t, domain.Symbol("AAPL"), q.Symbol)
	require.Equal(t, "Apple Inc", q.Name)
	require.InDelta(t, 150.00, q.Price, 1e-9)
	require.InDelta(t, 148.50, *q.PreviousClose, 1e-9)
	require.InDelta(t, 1.50, *q.Change, 1e-9)
	require.Equal(t, time.Unix(1731240000, 0).UTC(), q.QuotedAt)
}

func TestFetch_OptionalFieldsMissing(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newProvider(`{"symbol":"MSFT","close":"410.2"}`, 200)
	p.Now = func() time.Time { return now }

	q, err := p.Fetch(context.Background(), "MSFT")
	require.NoError(t, err)
	require.InDelta(t, 410.2, q.Price, 1e-9)
	require.Nil(t, q.PreviousClose)
	require.Equal(t, now, q.QuotedAt)
}

func TestFetch_Classification(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
		kind error
		msg  string
	}{
		{"http 429", `{}`, 429, domain.ErrRateLimited, "API rate limit exceeded. Please wait a moment."},
		{"body code 429", `{"status":"error","code":429,"message":"You have run out of API credits"}`, 200, domain.ErrRateLimited, ""},
		{"symbol not found", `{"status":"error","code":404,"message":"**symbol** not found: ZZZZINVALID"}`, 200, domain.ErrInvalidSymbol, "Invalid symbol: ZZZZINVALID"},
		{"not found case-insensitive", `{"status":"error","code":400,"message":"Symbol Not Found"}`, 400, domain.ErrInvalidSymbol, ""},
		{"api error", `{"status":"error","code":401,"message":"apikey is invalid"}`, 401, domain.ErrAPI, "apikey is invalid"},
		{"api error no message", `{"status":"error","code":500}`, 200, domain.ErrAPI, "Unknown API error"},
		{"unparsable close", `{"symbol":"ZZZZINVALID","close":"abc"}`, 200, domain.ErrNoData, "No price data available"},
		{"missing close", `{"symbol":"ZZZZINVALID"}`, 200, domain.ErrNoData, ""},
		{"invalid json", `{x`, 200, domain.ErrDecoding, "Failed to parse response"},
		{"wrong field type", `{"close": 150}`, 200, domain.ErrDecoding, ""},
		{"5xx html body", `<html>bad gateway</html>`, 502, domain.ErrNetwork, ""},
		{"error status ignores stray close", `{"status":"error","code":404,"message":"symbol not found","close":"150.00"}`, 200, domain.ErrInvalidSymbol, "Invalid symbol: ZZZZINVALID"},
		{"rate limit ignores stray close", `{"status":"error","code":429,"close":"1"}`, 200, domain.ErrRateLimited, ""},
		{"api error ignores stray close", `{"status":"error","code":401,"message":"apikey is invalid","close":"1"}`, 200, domain.ErrAPI, "apikey is invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newProvider(tc.body, tc.code).Fetch(context.Background(), "ZZZZINVALID")
			require.ErrorIs(t, err, tc.kind)
			if tc.msg != "" {
				require.Equal(t, tc.msg, err.Error())
			}
		})
	}
}

func TestFetch_ErrorClasses(t *testing.T) {
	_, err := newProvider(`{}`, 429).Fetch(context.Background(), "AAPL")
	require.True(t, domain.IsTransient(err))

	_, err = newProvider(`{"close":"x"}`, 200).Fetch(context.Background(), "AAPL")
	require.True(t, domain.IsPermanent(err))
}

func TestFetch_InvalidRequest(t *testing.T) {
	ok := httpClient(sampleAAPL, 200)
	cases := map[string]*provider.TwelveData{
		"missing key":       provider.NewTwelveData("https://api.twelvedata.com", "", ok),
		"relative base url": provider.NewTwelveData("/quote", "k", ok),
		"garbage base url":  provider.NewTwelveData("://nope", "k", ok),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Fetch(context.Background(), "AAPL")
			require.ErrorIs(t, err, domain.ErrInvalidRequest)
			require.Equal(t, "Invalid request URL", err.Error())
		})
	}

	_, err := newProvider(sampleAAPL, 200).Fetch(context.Background(), "   ")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestFetch_RequestConstructionIsInvalidRequest(t *testing.T) {
	var calls int
	p := provider.NewTwelveData("https://api.twelvedata.com", "k", &httpx.Client{HTTP: &http.Client{
		Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("unreachable")
		}),
	}})
	var noCtx context.Context
	_, err := p.Fetch(noCtx, "AAPL")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	require.False(t, domain.IsTransient(err))
	require.Zero(t, calls)
}

func TestFetch_NetworkError(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	p := provider.NewTwelveData("https://api.twelvedata.com", "k", &httpx.Client{HTTP: &http.Client{
		Transport: rtFunc(func(*http.Request) (*http.Response, error) { return nil, boom }),
	}})
	_, err := p.Fetch(context.Background(), "AAPL")
	require.ErrorIs(t, err, domain.ErrNetwork)
	require.ErrorIs(t, err, boom)
	require.True(t, strings.HasPrefix(err.Error(), "Network error: "))
}

func TestFake(t *testing.T) {
	f := provider.NewFake(0).WithPrice("aapl", 150)
	q, err := f.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	require.InDelta(t, 150, q.Price, 1e-9)

	_, err = f.Fetch(context.Background(), "MSFT")
	require.ErrorIs(t, err, domain.ErrInvalidSymbol)

	q, err = provider.NewFake(42).Fetch(context.Background(), "MSFT")
	require.NoError(t, err)
	require.InDelta(t, 42, q.Price, 1e-9)
}
