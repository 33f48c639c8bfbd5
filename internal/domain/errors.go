package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	ErrInvalidRequest = &QuoteError{Kind: KindInvalidRequest}
	ErrNetwork        = &QuoteError{Kind: KindNetwork}
	ErrRateLimited    = &QuoteError{Kind: KindRateLimited}
	ErrDecoding       = &QuoteError{Kind: KindDecoding}
	ErrInvalidSymbol  = &QuoteError{Kind: KindInvalidSymbol}
	ErrAPI            = &QuoteError{Kind: KindAPI}
	ErrNoData         = &QuoteError{Kind: KindNoData}
)

// ErrorKind tags the variant of a QuoteError.
type ErrorKind string

const (
	KindInvalidRequest ErrorKind = "invalid_request"
	KindNetwork        ErrorKind = "network_error"
	KindRateLimited    ErrorKind = "rate_limited"
	KindDecoding       ErrorKind = "decoding_error"
	KindInvalidSymbol  ErrorKind = "invalid_symbol"
	KindAPI            ErrorKind = "api_error"
	KindNoData         ErrorKind = "no_data"
)

// ErrorClass groups kinds by how a caller should react to them.
type ErrorClass int

const (
	ClassInvalidRequest ErrorClass = iota
	ClassTransient
	ClassPermanent
)

func (c ErrorClass) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassPermanent:
		return "permanent"
	default:
		return "invalid_request"
	}
}

// QuoteError is the classified failure of a single quote fetch.
// Symbol is set for InvalidSymbol and NoData, Message for ApiError,
// Err carries the underlying cause for network, decoding and request errors.
type QuoteError struct {
	Kind    ErrorKind
	Symbol  string
	Message string
	Err     error
}

func (e *QuoteError) Error() string {
	switch e.Kind {
	case KindInvalidRequest:
		return "Invalid request URL"
	case KindNetwork:
		if e.Err != nil {
			return fmt.Sprintf("Network error: %v", e.Err)
		}
		return "Network error"
	case KindDecoding:
		return "Failed to parse response"
	case KindAPI:
		return e.Message
	case KindRateLimited:
		return "API rate limit exceeded. Please wait a moment."
	case KindInvalidSymbol:
		return "Invalid symbol: " + e.Symbol
	case KindNoData:
		return "No price data available"
	default:
		return string(e.Kind)
	}
}

func (e *QuoteError) Unwrap() error { return e.Err }

// Is matches any QuoteError of the same kind, so the package sentinels
// can be used with errors.Is.
func (e *QuoteError) Is(target error) bool {
	t, ok := target.(*QuoteError)
	return ok && t.Kind == e.Kind
}

func (e *QuoteError) Class() ErrorClass {
	switch e.Kind {
	case KindNetwork, KindRateLimited:
		return ClassTransient
	case KindInvalidRequest:
		return ClassInvalidRequest
	default:
		return ClassPermanent
	}
}

func NewInvalidRequest(err error) *QuoteError {
	return &QuoteError{Kind: KindInvalidRequest, Err: err}
}

func NewNetworkError(err error) *QuoteError {
	return &QuoteError{Kind: KindNetwork, Err: err}
}

func NewRateLimited() *QuoteError { return &QuoteError{Kind: KindRateLimited} }

func NewDecodingError(err error) *QuoteError {
	return &QuoteError{Kind: KindDecoding, Err: err}
}

func NewInvalidSymbol(symbol string) *QuoteError {
	return &QuoteError{Kind: KindInvalidSymbol, Symbol: symbol}
}

func NewAPIError(message string) *QuoteError {
	if message == "" {
		message = "Unknown API error"
	}
	return &QuoteError{Kind: KindAPI, Message: message}
}

func NewNoData(symbol string) *QuoteError {
	return &QuoteError{Kind: KindNoData, Symbol: symbol}
}

// KindOf returns the kind of the first QuoteError in err's chain,
// or "" when there is none.
func KindOf(err error) ErrorKind {
	var qe *QuoteError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}

func IsTransient(err error) bool {
	var qe *QuoteError
	return errors.As(err, &qe) && qe.Class() == ClassTransient
}

func IsPermanent(err error) bool {
	var qe *QuoteError
	return errors.As(err, &qe) && qe.Class() == ClassPermanent
}
