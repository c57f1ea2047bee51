package book

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Order is a resting limit order. Amount and Price never change after
// creation; Filled grows until it reaches Amount, at which point the book
// removes the order. Timestamp is a monotonic sequence, not wall time, so
// time priority is exact.
type Order struct {
	ID        uint64         `json:"id"`
	Trader    common.Address `json:"trader"`
	Ticker    string         `json:"ticker"`
	Side      Side           `json:"side"`
	Amount    *uint256.Int   `json:"amount"`
	Filled    *uint256.Int   `json:"filled"`
	Price     uint64         `json:"price"`
	Timestamp uint64         `json:"timestamp"`
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() *uint256.Int {
	return new(uint256.Int).Sub(o.Amount, o.Filled)
}

// IsFilled reports whether the order is fully filled.
func (o *Order) IsFilled() bool {
	return o.Filled.Eq(o.Amount)
}

// Clone deep-copies an order for read-only export.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Amount = o.Amount.Clone()
	cp.Filled = o.Filled.Clone()
	return &cp
}
