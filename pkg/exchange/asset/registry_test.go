package asset

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/dexgo/dexchange/pkg/token"
)

var (
	owner    = common.BytesToAddress([]byte("owner"))
	intruder = common.BytesToAddress([]byte("intruder"))
)

func TestRegisterOwnerOnly(t *testing.T) {
	r := NewRegistry(owner)

	err := r.Register(intruder, "REP", token.NewMock("REP"))
	require.ErrorIs(t, err, ErrNotOwner)
	require.False(t, r.Exists("REP"))

	require.NoError(t, r.Register(owner, "REP", token.NewMock("REP")))
	require.True(t, r.Exists("REP"))
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(owner)
	require.NoError(t, r.Register(owner, "REP", token.NewMock("REP")))

	err := r.Register(owner, "REP", token.NewMock("REP"))
	require.ErrorIs(t, err, ErrDuplicateTicker)
	require.Equal(t, 1, r.Count())
}

func TestResolve(t *testing.T) {
	r := NewRegistry(owner)
	mock := token.NewMock("REP")
	require.NoError(t, r.Register(owner, "REP", mock))

	tok, err := r.Resolve("REP")
	require.NoError(t, err)
	require.Equal(t, mock.Address(), tok.Address())

	_, err = r.Resolve("ZRX")
	require.ErrorIs(t, err, ErrUnknownTicker)
}

func TestListSorted(t *testing.T) {
	r := NewRegistry(owner)
	for _, ticker := range []string{"ZRX", "BAT", "REP", "DAI"} {
		require.NoError(t, r.Register(owner, ticker, token.NewMock(ticker)))
	}

	assets := r.List()
	require.Len(t, assets, 4)

	tickers := make([]string, len(assets))
	for i, a := range assets {
		tickers[i] = a.Ticker
	}
	require.Equal(t, []string{"BAT", "DAI", "REP", "ZRX"}, tickers)
}
