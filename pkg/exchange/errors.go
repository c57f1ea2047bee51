package exchange

import (
	"errors"

	"github.com/dexgo/dexchange/pkg/exchange/asset"
	"github.com/dexgo/dexchange/pkg/exchange/ledger"
)

// The failure taxonomy of the command surface. Reason strings are stable and
// caller-visible; callers match with errors.Is. Every failure leaves state
// unchanged. Registry and ledger failures propagate verbatim and are aliased
// here so callers need only this package.
var (
	ErrUnknownTicker   = asset.ErrUnknownTicker
	ErrDuplicateTicker = asset.ErrDuplicateTicker
	ErrNotOwner        = asset.ErrNotOwner

	// ErrInsufficientBalance covers withdrawals exceeding the ledger balance
	// and mid-match settlements that would drive a resting party negative.
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
	ErrInvalidAmount       = ledger.ErrInvalidAmount

	// ErrQuoteNotTradable rejects the quote ticker as the traded side of an
	// order. The quote asset only ever prices other assets.
	ErrQuoteNotTradable = errors.New("cannot trade the quote token")

	// ErrInsufficientAssetBalance is the sell-side affordability failure at
	// order creation.
	ErrInsufficientAssetBalance = errors.New("asset balance too low")

	// ErrInsufficientQuoteBalance is the buy-side affordability failure at
	// order creation, and the incoming buyer's per-step failure during a
	// market match.
	ErrInsufficientQuoteBalance = errors.New("quote balance too low")

	// ErrInvalidPrice rejects zero prices on limit orders.
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrAmountOverflow is returned when amount*price exceeds 256 bits.
	// Treated as a defect and surfaced loudly, never silently wrapped.
	ErrAmountOverflow = errors.New("amount overflow")
)
