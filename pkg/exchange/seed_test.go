package exchange

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dexgo/dexchange/pkg/exchange/book"
)

func TestSeed(t *testing.T) {
	ex, err := New(Config{
		QuoteTicker: "DAI",
		Owner:       owner,
		Custody:     custody,
	}, nil, nil, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, Seed(ex, zap.NewNop()))

	require.Len(t, ex.Tokens(), 4)
	for _, ticker := range []string{"DAI", "BAT", "ZRX", "REP"} {
		require.True(t, ex.HasToken(ticker))
	}

	// Every non-quote market ends up with depth on both sides.
	for _, ticker := range []string{"BAT", "ZRX", "REP"} {
		require.NotEmpty(t, ex.GetOrders(ticker, book.Buy), ticker)
		require.NotEmpty(t, ex.GetOrders(ticker, book.Sell), ticker)
	}

	// Seeding twice would double-register tokens.
	require.ErrorIs(t, Seed(ex, zap.NewNop()), ErrDuplicateTicker)
}
