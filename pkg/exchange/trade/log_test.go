package trade

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleTrade(id uint64, ticker string) Trade {
	return Trade{
		ID:        id,
		OrderID:   id * 10,
		Ticker:    ticker,
		Trader1:   common.BytesToAddress([]byte("maker")),
		Trader2:   common.BytesToAddress([]byte("taker")),
		Matched:   uint256.NewInt(5),
		Price:     10,
		Timestamp: 1700000000000 + int64(id),
	}
}

func TestSubscribeReceivesTicker(t *testing.T) {
	l := NewLog(nil, zap.NewNop())

	rep, cancelRep := l.Subscribe("REP")
	defer cancelRep()
	bat, cancelBat := l.Subscribe("BAT")
	defer cancelBat()

	l.Append(sampleTrade(1, "REP"))

	got := <-rep
	require.Equal(t, uint64(1), got.ID)

	select {
	case unexpected := <-bat:
		t.Fatalf("BAT subscriber got trade %d for REP", unexpected.ID)
	default:
	}
}

func TestSubscribeAllTickers(t *testing.T) {
	l := NewLog(nil, zap.NewNop())

	all, cancel := l.Subscribe(AllTickers)
	defer cancel()

	l.Append(sampleTrade(1, "REP"))
	l.Append(sampleTrade(2, "BAT"))

	first := <-all
	second := <-all
	require.Equal(t, "REP", first.Ticker)
	require.Equal(t, "BAT", second.Ticker)
}

func TestCancelStopsDelivery(t *testing.T) {
	l := NewLog(nil, zap.NewNop())

	ch, cancel := l.Subscribe("REP")
	cancel()
	cancel() // idempotent

	// Closed channel reads zero value immediately.
	_, open := <-ch
	require.False(t, open)

	// Appending after cancel must not panic on the closed channel.
	l.Append(sampleTrade(1, "REP"))
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	l := NewLog(nil, zap.NewNop())

	_, cancel := l.Subscribe("REP")
	defer cancel()

	// Overfill the subscriber buffer; Append must keep returning.
	for i := 0; i < subscriberBuffer+10; i++ {
		l.Append(sampleTrade(uint64(i+1), "REP"))
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	defer store.Close()

	l := NewLog(store, zap.NewNop())
	for i := uint64(1); i <= 5; i++ {
		l.Append(sampleTrade(i, "REP"))
	}
	l.Append(sampleTrade(6, "BAT"))

	got, err := l.History("REP", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, uint64(5), got[0].ID)
	require.Equal(t, uint64(4), got[1].ID)
	require.Equal(t, uint64(3), got[2].ID)

	all, err := l.History("REP", 100)
	require.NoError(t, err)
	require.Len(t, all, 5)

	empty, err := l.History("ZRX", 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestHistoryWithoutStore(t *testing.T) {
	l := NewLog(nil, zap.NewNop())
	l.Append(sampleTrade(1, "REP"))

	got, err := l.History("REP", 10)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMaxIDAcrossTickers(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	defer store.Close()

	l := NewLog(store, zap.NewNop())

	id, err := l.MaxID()
	require.NoError(t, err)
	require.Zero(t, id)

	l.Append(sampleTrade(3, "REP"))
	l.Append(sampleTrade(7, "BAT"))
	l.Append(sampleTrade(5, "REP"))

	id, err = l.MaxID()
	require.NoError(t, err)
	require.Equal(t, uint64(7), id)
}
