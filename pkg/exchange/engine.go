package exchange

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/dexgo/dexchange/pkg/exchange/book"
	"github.com/dexgo/dexchange/pkg/exchange/trade"
)

// CreateLimitOrder validates the order, checks affordability against the
// live balance, and rests it in the book. A limit order always rests, even
// if its price crosses the opposite book: resting liquidity is only ever
// consumed by market orders. Nothing is escrowed; affordability is
// re-validated when the order matches.
func (e *Exchange) CreateLimitOrder(trader common.Address, ticker string, amount *uint256.Int, price uint64, side book.Side) (*book.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateOrderLocked(ticker, amount); err != nil {
		return nil, err
	}
	if price == 0 {
		return nil, ErrInvalidPrice
	}

	if side == book.Sell {
		if e.ledger.BalanceOf(trader, ticker).Lt(amount) {
			return nil, ErrInsufficientAssetBalance
		}
	} else {
		cost, err := mulPrice(amount, price)
		if err != nil {
			return nil, err
		}
		if e.ledger.BalanceOf(trader, e.cfg.QuoteTicker).Lt(cost) {
			return nil, ErrInsufficientQuoteBalance
		}
	}

	o := &book.Order{
		ID:        e.nextOrderID,
		Trader:    trader,
		Ticker:    ticker,
		Side:      side,
		Amount:    amount.Clone(),
		Filled:    uint256.NewInt(0),
		Price:     price,
		Timestamp: e.tick(),
	}
	e.nextOrderID++

	b := e.getBookLocked(ticker)
	b.Insert(o)

	ordersCreated.WithLabelValues(ticker, side.String(), "limit").Inc()
	bookDepth.WithLabelValues(ticker, side.String()).Set(float64(b.Depth(side)))

	e.logger.Info("limit order resting",
		zap.Uint64("order_id", o.ID),
		zap.String("trader", trader.Hex()),
		zap.String("ticker", ticker),
		zap.String("side", side.String()),
		zap.String("amount", amount.Dec()),
		zap.Uint64("price", price),
	)

	return o.Clone(), nil
}

// fill is one planned settlement step of a market order.
type fill struct {
	resting *book.Order
	step    *uint256.Int
	cost    *uint256.Int // step * resting price
}

// CreateMarketOrder matches the requested amount against the opposite book
// in price/time priority, settling each step at the resting order's price.
// Market orders never rest: whatever liquidity cannot be found is discarded.
//
// The match is planned first against shadow balances and applied only if
// every step clears, so a mid-match insolvency aborts the whole call with
// no side effects.
func (e *Exchange) CreateMarketOrder(trader common.Address, ticker string, amount *uint256.Int, side book.Side) ([]trade.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateOrderLocked(ticker, amount); err != nil {
		return nil, err
	}

	// A market sell disposes of a fixed asset quantity, so the full amount
	// must be on the ledger up front. A market buy's quote requirement
	// depends on matched prices and is checked per step below.
	if side == book.Sell {
		if e.ledger.BalanceOf(trader, ticker).Lt(amount) {
			return nil, ErrInsufficientAssetBalance
		}
	}

	b := e.getBookLocked(ticker)
	resting := b.Orders(side.Opposite())

	fills, err := e.planMarketLocked(trader, ticker, amount, side, resting)
	if err != nil {
		return nil, err
	}

	trades := e.applyFillsLocked(trader, ticker, side, b, fills)

	e.logger.Info("market order done",
		zap.String("trader", trader.Hex()),
		zap.String("ticker", ticker),
		zap.String("side", side.String()),
		zap.String("amount", amount.Dec()),
		zap.Int("fills", len(trades)),
	)

	return trades, nil
}

// planMarketLocked walks the resting side and settles each step against
// shadow balances. It mutates nothing; an error means the caller must abort
// with the book and ledger untouched.
func (e *Exchange) planMarketLocked(trader common.Address, ticker string, amount *uint256.Int, side book.Side, resting []*book.Order) ([]fill, error) {
	var (
		quote     = e.cfg.QuoteTicker
		remaining = amount.Clone()
		shadow    = newShadow(e.ledger)
		fills     []fill
	)

	for _, o := range resting {
		if remaining.IsZero() {
			break
		}

		step := uint256Min(remaining, o.Remaining())
		cost, err := mulPrice(step, o.Price)
		if err != nil {
			return nil, err
		}

		if side == book.Sell {
			// Market sell meets resting buy: seller gives step of the asset
			// for cost of quote; the resting buyer pays the quote.
			if !shadow.debit(trader, ticker, step) {
				return nil, ErrInsufficientBalance
			}
			shadow.credit(trader, quote, cost)
			if !shadow.debit(o.Trader, quote, cost) {
				return nil, ErrInsufficientBalance
			}
			shadow.credit(o.Trader, ticker, step)
		} else {
			// Market buy meets resting sell: buyer pays cost of quote for
			// step of the asset; the resting seller gives the asset.
			if !shadow.debit(trader, quote, cost) {
				return nil, ErrInsufficientQuoteBalance
			}
			shadow.credit(trader, ticker, step)
			if !shadow.debit(o.Trader, ticker, step) {
				return nil, ErrInsufficientBalance
			}
			shadow.credit(o.Trader, quote, cost)
		}

		fills = append(fills, fill{resting: o, step: step, cost: cost})
		remaining.Sub(remaining, step)
	}

	return fills, nil
}

// applyFillsLocked commits a validated plan: moves ledger balances, advances
// fill counters, removes exhausted orders and appends trades in commit
// order. The plan was settled against live balances under this same write
// lock, so ledger debits cannot fail here.
func (e *Exchange) applyFillsLocked(trader common.Address, ticker string, side book.Side, b *book.Book, fills []fill) []trade.Trade {
	quote := e.cfg.QuoteTicker
	now := time.Now().UnixMilli()

	var trades []trade.Trade
	for _, f := range fills {
		if side == book.Sell {
			mustDebit(e, trader, ticker, f.step)
			e.ledger.Credit(trader, quote, f.cost)
			mustDebit(e, f.resting.Trader, quote, f.cost)
			e.ledger.Credit(f.resting.Trader, ticker, f.step)
		} else {
			mustDebit(e, trader, quote, f.cost)
			e.ledger.Credit(trader, ticker, f.step)
			mustDebit(e, f.resting.Trader, ticker, f.step)
			e.ledger.Credit(f.resting.Trader, quote, f.cost)
		}

		f.resting.Filled.Add(f.resting.Filled, f.step)
		if f.resting.IsFilled() {
			b.Remove(f.resting.ID)
		}

		t := trade.Trade{
			ID:        e.nextTradeID,
			OrderID:   f.resting.ID,
			Ticker:    ticker,
			Trader1:   f.resting.Trader,
			Trader2:   trader,
			Matched:   f.step.Clone(),
			Price:     f.resting.Price,
			Timestamp: now,
		}
		e.nextTradeID++

		e.trades.Append(t)
		trades = append(trades, t)
		tradesTotal.WithLabelValues(ticker).Inc()
	}

	ordersCreated.WithLabelValues(ticker, side.String(), "market").Inc()
	opp := side.Opposite()
	bookDepth.WithLabelValues(ticker, opp.String()).Set(float64(b.Depth(opp)))

	return trades
}

func (e *Exchange) validateOrderLocked(ticker string, amount *uint256.Int) error {
	if ticker == e.cfg.QuoteTicker {
		return ErrQuoteNotTradable
	}
	if !e.registry.Exists(ticker) {
		return ErrUnknownTicker
	}
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

// mustDebit applies a debit the plan already cleared. Failure here means the
// serialization invariant broke; fail loudly rather than settle partially.
func mustDebit(e *Exchange, trader common.Address, ticker string, amount *uint256.Int) {
	if err := e.ledger.Debit(trader, ticker, amount); err != nil {
		panic(fmt.Sprintf("settlement debit failed after plan cleared: trader=%s ticker=%s: %v", trader.Hex(), ticker, err))
	}
}

// mulPrice widens amount by an integer price, failing closed on overflow.
func mulPrice(amount *uint256.Int, price uint64) (*uint256.Int, error) {
	cost, overflow := new(uint256.Int).MulOverflow(amount, uint256.NewInt(price))
	if overflow {
		return nil, ErrAmountOverflow
	}
	return cost, nil
}

func uint256Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a.Clone()
	}
	return b.Clone()
}

// shadow overlays planned balance deltas on the live ledger without touching
// it. Reads fall through to the ledger on first use of a (trader, ticker).
type shadow struct {
	ledger interface {
		BalanceOf(trader common.Address, ticker string) *uint256.Int
	}
	balances map[shadowKey]*uint256.Int
}

type shadowKey struct {
	trader common.Address
	ticker string
}

func newShadow(l interface {
	BalanceOf(trader common.Address, ticker string) *uint256.Int
}) *shadow {
	return &shadow{ledger: l, balances: make(map[shadowKey]*uint256.Int)}
}

func (s *shadow) get(trader common.Address, ticker string) *uint256.Int {
	key := shadowKey{trader: trader, ticker: ticker}
	if bal, ok := s.balances[key]; ok {
		return bal
	}
	bal := s.ledger.BalanceOf(trader, ticker)
	s.balances[key] = bal
	return bal
}

func (s *shadow) credit(trader common.Address, ticker string, amount *uint256.Int) {
	bal := s.get(trader, ticker)
	bal.Add(bal, amount)
}

// debit returns false if the shadow balance cannot cover the amount.
func (s *shadow) debit(trader common.Address, ticker string, amount *uint256.Int) bool {
	bal := s.get(trader, ticker)
	if bal.Lt(amount) {
		return false
	}
	bal.Sub(bal, amount)
	return true
}
