package book

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.BytesToAddress([]byte("alice"))
	bob   = common.BytesToAddress([]byte("bob"))
)

func newOrder(id uint64, trader common.Address, side Side, amount, price, ts uint64) *Order {
	return &Order{
		ID:        id,
		Trader:    trader,
		Ticker:    "REP",
		Side:      side,
		Amount:    uint256.NewInt(amount),
		Filled:    uint256.NewInt(0),
		Price:     price,
		Timestamp: ts,
	}
}

func TestSideString(t *testing.T) {
	require.Equal(t, "buy", Buy.String())
	require.Equal(t, "sell", Sell.String())
	require.Equal(t, Sell, Buy.Opposite())
	require.Equal(t, Buy, Sell.Opposite())
}

func TestBidPriority(t *testing.T) {
	b := New("REP")
	b.Insert(newOrder(1, alice, Buy, 100, 10, 1))
	b.Insert(newOrder(2, alice, Buy, 100, 11, 2))
	b.Insert(newOrder(3, alice, Buy, 100, 9, 3))

	got := b.Orders(Buy)
	require.Len(t, got, 3)
	require.Equal(t, uint64(11), got[0].Price)
	require.Equal(t, uint64(10), got[1].Price)
	require.Equal(t, uint64(9), got[2].Price)

	best := b.Best(Buy)
	require.NotNil(t, best)
	require.Equal(t, uint64(2), best.ID)
}

func TestAskPriority(t *testing.T) {
	b := New("REP")
	b.Insert(newOrder(1, alice, Sell, 100, 21, 1))
	b.Insert(newOrder(2, alice, Sell, 100, 23, 2))
	b.Insert(newOrder(3, alice, Sell, 100, 22, 3))

	got := b.Orders(Sell)
	require.Len(t, got, 3)
	require.Equal(t, uint64(21), got[0].Price)
	require.Equal(t, uint64(22), got[1].Price)
	require.Equal(t, uint64(23), got[2].Price)

	best := b.Best(Sell)
	require.NotNil(t, best)
	require.Equal(t, uint64(1), best.ID)
}

func TestTimePriorityWithinLevel(t *testing.T) {
	b := New("REP")
	b.Insert(newOrder(1, alice, Buy, 100, 10, 1))
	b.Insert(newOrder(2, bob, Buy, 100, 10, 2))
	b.Insert(newOrder(3, alice, Buy, 100, 10, 3))

	got := b.Orders(Buy)
	require.Len(t, got, 3)
	require.Equal(t, uint64(1), got[0].ID)
	require.Equal(t, uint64(2), got[1].ID)
	require.Equal(t, uint64(3), got[2].ID)
}

func TestBestEmpty(t *testing.T) {
	b := New("REP")
	require.Nil(t, b.Best(Buy))
	require.Nil(t, b.Best(Sell))
	require.Empty(t, b.Orders(Buy))
	require.Zero(t, b.Depth(Sell))
}

func TestRemove(t *testing.T) {
	b := New("REP")
	b.Insert(newOrder(1, alice, Buy, 100, 10, 1))
	b.Insert(newOrder(2, bob, Buy, 100, 10, 2))
	b.Insert(newOrder(3, alice, Sell, 100, 20, 3))

	require.True(t, b.Remove(1))
	require.False(t, b.Remove(1)) // already gone
	require.False(t, b.Remove(99))

	got := b.Orders(Buy)
	require.Len(t, got, 1)
	require.Equal(t, uint64(2), got[0].ID)

	// Emptying a price level must not leave a stale best.
	require.True(t, b.Remove(3))
	require.Nil(t, b.Best(Sell))
}

func TestRemoveClearsLevel(t *testing.T) {
	b := New("REP")
	b.Insert(newOrder(1, alice, Buy, 100, 11, 1))
	b.Insert(newOrder(2, bob, Buy, 100, 10, 2))

	require.True(t, b.Remove(1))

	best := b.Best(Buy)
	require.NotNil(t, best)
	require.Equal(t, uint64(10), best.Price)
}

func TestSnapshotIsACopy(t *testing.T) {
	b := New("REP")
	b.Insert(newOrder(1, alice, Buy, 100, 10, 1))

	snap := b.Snapshot(Buy)
	require.Len(t, snap, 1)

	snap[0].Filled.SetUint64(100)
	snap[0].Price = 999

	live := b.Orders(Buy)
	require.True(t, live[0].Filled.IsZero())
	require.Equal(t, uint64(10), live[0].Price)
}

func TestRemaining(t *testing.T) {
	o := newOrder(1, alice, Buy, 100, 10, 1)
	require.Equal(t, uint256.NewInt(100), o.Remaining())
	require.False(t, o.IsFilled())

	o.Filled.SetUint64(40)
	require.Equal(t, uint256.NewInt(60), o.Remaining())

	o.Filled.SetUint64(100)
	require.True(t, o.IsFilled())
	require.True(t, o.Remaining().IsZero())
}

func TestDepth(t *testing.T) {
	b := New("REP")
	require.Zero(t, b.Depth(Buy))

	b.Insert(newOrder(1, alice, Buy, 100, 10, 1))
	b.Insert(newOrder(2, bob, Buy, 100, 10, 2))
	b.Insert(newOrder(3, alice, Sell, 100, 20, 3))

	require.Equal(t, 2, b.Depth(Buy))
	require.Equal(t, 1, b.Depth(Sell))
}
