// Package exchange is the on-ledger exchange core: it holds trader balances
// across registered tokens, keeps a per-ticker order book, and matches
// incoming orders against resting liquidity in price/time priority.
//
// Every mutating operation runs to completion under one write lock, so no
// caller ever observes intermediate state; that serialization is what makes
// the escrow-free affordability checks in the engine sound.
package exchange

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/dexgo/dexchange/pkg/exchange/asset"
	"github.com/dexgo/dexchange/pkg/exchange/book"
	"github.com/dexgo/dexchange/pkg/exchange/ledger"
	"github.com/dexgo/dexchange/pkg/exchange/trade"
	"github.com/dexgo/dexchange/pkg/token"
)

// Config fixes the quote ticker, the privileged owner and the custody
// address at construction. None of them change afterwards.
type Config struct {
	QuoteTicker string
	Owner       common.Address
	Custody     common.Address
}

// Exchange owns the registry, ledger, books and trade log. Mutating calls
// (RegisterToken, Deposit, Withdraw, CreateLimitOrder, CreateMarketOrder)
// take the write lock; reads take the read lock and never see a half-applied
// mutation.
type Exchange struct {
	mu sync.RWMutex

	cfg      Config
	registry *asset.Registry
	ledger   *ledger.Ledger
	books    map[string]*book.Book
	trades   *trade.Log

	// Monotonic sequences. Identical call sequences produce identical order
	// ids, timestamps, trade ids and fills.
	nextOrderID uint64
	nextTradeID uint64
	clock       uint64

	logger *zap.Logger
}

func New(cfg Config, ledgerStore *ledger.Store, tradeStore *trade.Store, logger *zap.Logger) (*Exchange, error) {
	registry := asset.NewRegistry(cfg.Owner)

	led, err := ledger.New(registry, ledgerStore, cfg.Custody, logger)
	if err != nil {
		return nil, err
	}

	trades := trade.NewLog(tradeStore, logger)
	maxTradeID, err := trades.MaxID()
	if err != nil {
		return nil, err
	}

	return &Exchange{
		cfg:         cfg,
		registry:    registry,
		ledger:      led,
		books:       make(map[string]*book.Book),
		trades:      trades,
		nextOrderID: 1,
		nextTradeID: maxTradeID + 1,
		logger:      logger,
	}, nil
}

// Quote returns the designated pricing ticker.
func (e *Exchange) Quote() string {
	return e.cfg.QuoteTicker
}

// Owner returns the only address allowed to register tokens.
func (e *Exchange) Owner() common.Address {
	return e.cfg.Owner
}

// Custody is the address external deposits are pulled into. Traders approve
// it as spender on the external token before depositing.
func (e *Exchange) Custody() common.Address {
	return e.cfg.Custody
}

// HasToken reports whether a ticker is registered.
func (e *Exchange) HasToken(ticker string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.registry.Exists(ticker)
}

// Token resolves a ticker to its external token handle.
func (e *Exchange) Token(ticker string) (token.Token, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.registry.Resolve(ticker)
}

// RegisterToken adds a ticker and its external token handle. Privileged:
// only the owner may call it.
func (e *Exchange) RegisterToken(caller common.Address, ticker string, tok token.Token) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.registry.Register(caller, ticker, tok); err != nil {
		return err
	}

	e.logger.Info("token registered",
		zap.String("ticker", ticker),
		zap.String("token", tok.Address().Hex()),
	)
	return nil
}

// Deposit pulls amount of ticker from the trader into custody and credits
// the ledger. Fails with ErrUnknownTicker for unregistered tickers.
func (e *Exchange) Deposit(trader common.Address, ticker string, amount *uint256.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ledger.Deposit(trader, ticker, amount)
}

// Withdraw debits the ledger and releases the external asset to the trader.
// Fails with ErrUnknownTicker or ErrInsufficientBalance.
func (e *Exchange) Withdraw(trader common.Address, ticker string, amount *uint256.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ledger.Withdraw(trader, ticker, amount)
}

// BalanceOf returns the trader's ledger balance for a ticker, zero for
// unknown entries.
func (e *Exchange) BalanceOf(trader common.Address, ticker string) *uint256.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.ledger.BalanceOf(trader, ticker)
}

// Balances returns all of a trader's ledger balances.
func (e *Exchange) Balances(trader common.Address) map[string]*uint256.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.ledger.Balances(trader)
}

// GetOrders returns one side of a ticker's book in priority order: buys
// descending by price, sells ascending, oldest first within a level.
// Partially filled orders are included. An unknown ticker has an empty book.
func (e *Exchange) GetOrders(ticker string, side book.Side) []*book.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	b, ok := e.books[ticker]
	if !ok {
		return nil
	}
	return b.Snapshot(side)
}

// Tokens returns all registered assets.
func (e *Exchange) Tokens() []asset.Asset {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.registry.List()
}

// Trades returns up to limit persisted trades for a ticker, newest first.
func (e *Exchange) Trades(ticker string, limit int) ([]trade.Trade, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.trades.History(ticker, limit)
}

// SubscribeTrades returns a forward-only stream of this ticker's trades in
// commit order, plus a cancel function. The core knows nothing about the
// subscriber beyond the channel.
func (e *Exchange) SubscribeTrades(ticker string) (<-chan trade.Trade, func()) {
	return e.trades.Subscribe(ticker)
}

// getBookLocked lazily creates the per-ticker book. Write lock held.
func (e *Exchange) getBookLocked(ticker string) *book.Book {
	if b, ok := e.books[ticker]; ok {
		return b
	}
	b := book.New(ticker)
	e.books[ticker] = b
	return b
}

// tick advances the monotonic timestamp sequence. Write lock held.
func (e *Exchange) tick() uint64 {
	e.clock++
	return e.clock
}
