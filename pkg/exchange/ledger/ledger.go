// Package ledger tracks per-(trader, ticker) balances held in exchange
// custody. Deposits pull the external asset in before crediting; withdrawals
// debit before releasing the external asset (checks-effects-interactions).
package ledger

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/dexgo/dexchange/pkg/token"
)

var (
	ErrInsufficientBalance = errors.New("balance too low")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Resolver maps a ticker to its external token handle.
type Resolver interface {
	Resolve(ticker string) (token.Token, error)
}

// Ledger owns the balance map. Balance entries are created lazily at first
// credit and never go negative. Nothing is escrowed at order creation; the
// matching engine settles against live balances via Credit/Debit.
type Ledger struct {
	mu       sync.RWMutex
	resolver Resolver
	store    *Store // nil means in-memory only
	custody  common.Address
	balances map[common.Address]map[string]*uint256.Int
	logger   *zap.Logger
}

func New(resolver Resolver, store *Store, custody common.Address, logger *zap.Logger) (*Ledger, error) {
	balances := make(map[common.Address]map[string]*uint256.Int)
	if store != nil {
		loaded, err := store.LoadAll()
		if err != nil {
			return nil, err
		}
		balances = loaded
	}

	return &Ledger{
		resolver: resolver,
		store:    store,
		custody:  custody,
		balances: balances,
		logger:   logger,
	}, nil
}

// Deposit pulls amount of ticker from the trader's external balance into
// custody, then credits the ledger. The credit only happens after the
// external transfer confirms; a failed transfer leaves the ledger untouched.
func (l *Ledger) Deposit(trader common.Address, ticker string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}

	tok, err := l.resolver.Resolve(ticker)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := tok.TransferFrom(l.custody, trader, l.custody, amount); err != nil {
		return err
	}

	l.creditLocked(trader, ticker, amount)
	l.persistLocked(trader)

	l.logger.Info("deposit",
		zap.String("trader", trader.Hex()),
		zap.String("ticker", ticker),
		zap.String("amount", amount.Dec()),
	)
	return nil
}

// Withdraw debits the ledger first, then releases the external asset. The
// debit committing before the external call closes the reentrancy window; if
// the external transfer still fails, the debit is compensated so the call is
// all-or-nothing.
func (l *Ledger) Withdraw(trader common.Address, ticker string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}

	tok, err := l.resolver.Resolve(ticker)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debitLocked(trader, ticker, amount); err != nil {
		return err
	}
	l.persistLocked(trader)

	if err := tok.Transfer(l.custody, trader, amount); err != nil {
		l.creditLocked(trader, ticker, amount)
		l.persistLocked(trader)
		return err
	}

	l.logger.Info("withdraw",
		zap.String("trader", trader.Hex()),
		zap.String("ticker", ticker),
		zap.String("amount", amount.Dec()),
	)
	return nil
}

// BalanceOf returns the ledger balance, zero for unknown entries.
func (l *Ledger) BalanceOf(trader common.Address, ticker string) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if byTicker, ok := l.balances[trader]; ok {
		if bal, ok := byTicker[ticker]; ok {
			return bal.Clone()
		}
	}
	return uint256.NewInt(0)
}

// Balances returns a copy of all of a trader's balances.
func (l *Ledger) Balances(trader common.Address) map[string]*uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]*uint256.Int)
	for ticker, bal := range l.balances[trader] {
		out[ticker] = bal.Clone()
	}
	return out
}

// Credit adds to a ledger balance without touching the external asset. Used
// by the matching engine to settle fills.
func (l *Ledger) Credit(trader common.Address, ticker string, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.creditLocked(trader, ticker, amount)
	l.persistLocked(trader)
}

// Debit removes from a ledger balance without touching the external asset.
// Fails if the balance would go negative.
func (l *Ledger) Debit(trader common.Address, ticker string, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debitLocked(trader, ticker, amount); err != nil {
		return err
	}
	l.persistLocked(trader)
	return nil
}

func (l *Ledger) creditLocked(trader common.Address, ticker string, amount *uint256.Int) {
	byTicker, ok := l.balances[trader]
	if !ok {
		byTicker = make(map[string]*uint256.Int)
		l.balances[trader] = byTicker
	}

	if bal, ok := byTicker[ticker]; ok {
		byTicker[ticker] = new(uint256.Int).Add(bal, amount)
		return
	}
	byTicker[ticker] = amount.Clone()
}

func (l *Ledger) debitLocked(trader common.Address, ticker string, amount *uint256.Int) error {
	byTicker, ok := l.balances[trader]
	if !ok {
		return ErrInsufficientBalance
	}

	bal, ok := byTicker[ticker]
	if !ok || bal.Lt(amount) {
		return ErrInsufficientBalance
	}

	byTicker[ticker] = new(uint256.Int).Sub(bal, amount)
	return nil
}

func (l *Ledger) persistLocked(trader common.Address) {
	if l.store == nil {
		return
	}
	if err := l.store.Save(trader, l.balances[trader]); err != nil {
		l.logger.Error("persist balance record",
			zap.String("trader", trader.Hex()),
			zap.Error(err),
		)
	}
}
