package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("fetch AAPL: %w", NewInvalidSymbol("AAPL"))
	require.ErrorIs(t, err, ErrInvalidSymbol)
	require.NotErrorIs(t, err, ErrNoData)
	require.Equal(t, KindInvalidSymbol, KindOf(err))
	require.Equal(t, "Invalid symbol: AAPL", NewInvalidSymbol("AAPL").Error())
}

func TestQuoteError_Classes(t *testing.T) {
	require.True(t, IsTransient(NewRateLimited()))
	require.True(t, IsTransient(NewNetworkError(errors.New("dial"))))
	require.True(t, IsPermanent(NewDecodingError(errors.New("eof"))))
	require.True(t, IsPermanent(NewAPIError("boom")))
	require.True(t, IsPermanent(NewNoData("X")))
	require.True(t, IsPermanent(NewInvalidSymbol("X")))
	require.Equal(t, ClassInvalidRequest, NewInvalidRequest(nil).Class())
	require.False(t, IsTransient(errors.New("plain")))
	require.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestQuoteError_UnwrapsCause(t *testing.T) {
	err := NewNetworkError(context.Canceled)
	require.ErrorIs(t, err, context.Canceled)
	require.Contains(t, err.Error(), "Network error")
}

func TestNewAPIError_DefaultMessage(t *testing.T) {
	require.Equal(t, "Unknown API error", NewAPIError("").Error())
}
