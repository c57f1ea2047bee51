package exchange

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dexgo/dexchange/pkg/exchange/book"
	"github.com/dexgo/dexchange/pkg/token"
)

// Seed populates a fresh devnet exchange with mock tokens, funded traders,
// a short trade history and a spread of resting orders, so the API serves
// something worth looking at on first boot. Not for use against a data dir
// that already has state.
func Seed(e *Exchange, logger *zap.Logger) error {
	owner := e.Owner()
	custody := e.cfg.Custody

	traders := []common.Address{
		common.BytesToAddress([]byte("trader:1")),
		common.BytesToAddress([]byte("trader:2")),
		common.BytesToAddress([]byte("trader:3")),
		common.BytesToAddress([]byte("trader:4")),
	}
	t1, t2, t3, t4 := traders[0], traders[1], traders[2], traders[3]

	// The quote asset registers like any other token; only trading it is
	// barred, not holding it.
	tickers := []string{"DAI", "BAT", "ZRX", "REP"}
	mocks := make(map[string]*token.Mock, len(tickers))
	for _, ticker := range tickers {
		mock := token.NewMock(ticker)
		mocks[ticker] = mock
		if err := e.RegisterToken(owner, ticker, mock); err != nil {
			return errors.Wrapf(err, "register %s", ticker)
		}
	}

	// 1000 whole units at 18 decimals, per trader per token.
	grant := uint256.MustFromDecimal("1000000000000000000000")
	for _, ticker := range tickers {
		mock := mocks[ticker]
		for _, trader := range traders {
			mock.Faucet(trader, grant)
			mock.Approve(trader, custody, grant)
			if err := e.Deposit(trader, ticker, grant); err != nil {
				return errors.Wrapf(err, "seed deposit %s for %s", ticker, trader.Hex())
			}
		}
	}

	// Trade history: trader1 bids, trader2 immediately sells into the bid.
	crosses := []struct {
		ticker string
		amount uint64
		price  uint64
	}{
		{"BAT", 1000, 10},
		{"BAT", 1200, 11},
		{"BAT", 1200, 15},
		{"BAT", 1500, 14},
		{"BAT", 2000, 12},
		{"REP", 1000, 2},
		{"REP", 500, 4},
		{"REP", 800, 2},
		{"REP", 1200, 6},
	}
	for _, c := range crosses {
		amount := uint256.NewInt(c.amount)
		if _, err := e.CreateLimitOrder(t1, c.ticker, amount, c.price, book.Buy); err != nil {
			return errors.Wrapf(err, "seed bid %s", c.ticker)
		}
		if _, err := e.CreateMarketOrder(t2, c.ticker, amount, book.Sell); err != nil {
			return errors.Wrapf(err, "seed cross %s", c.ticker)
		}
	}

	// Resting depth on both sides of each market.
	resting := []struct {
		trader common.Address
		ticker string
		amount uint64
		price  uint64
		side   book.Side
	}{
		{t1, "BAT", 1400, 10, book.Buy},
		{t2, "BAT", 1200, 11, book.Buy},
		{t2, "BAT", 1000, 12, book.Buy},
		{t1, "REP", 3000, 4, book.Buy},
		{t1, "REP", 2000, 5, book.Buy},
		{t2, "REP", 500, 6, book.Buy},
		{t1, "ZRX", 4000, 12, book.Buy},
		{t1, "ZRX", 3000, 13, book.Buy},
		{t2, "ZRX", 500, 14, book.Buy},
		{t3, "BAT", 2000, 16, book.Sell},
		{t4, "BAT", 3000, 15, book.Sell},
		{t4, "BAT", 500, 14, book.Sell},
		{t3, "REP", 4000, 10, book.Sell},
		{t3, "REP", 2000, 9, book.Sell},
		{t4, "REP", 800, 8, book.Sell},
		{t3, "ZRX", 1500, 23, book.Sell},
		{t3, "ZRX", 1200, 22, book.Sell},
		{t4, "ZRX", 900, 21, book.Sell},
	}
	for _, r := range resting {
		if _, err := e.CreateLimitOrder(r.trader, r.ticker, uint256.NewInt(r.amount), r.price, r.side); err != nil {
			return errors.Wrapf(err, "seed resting %s order %s", r.side, r.ticker)
		}
	}

	logger.Info("seeded devnet state",
		zap.Int("tokens", len(tickers)),
		zap.Int("traders", len(traders)),
	)
	return nil
}
