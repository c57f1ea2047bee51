// Package trade is the append-only record of executed settlements and the
// notification stream the UI layer subscribes to.
package trade

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Trade records one settlement step between a resting order and an incoming
// trader. Immutable once appended.
type Trade struct {
	ID      uint64 `json:"tradeId"`
	OrderID uint64 `json:"orderId"`
	Ticker  string `json:"ticker"`

	// Trader1 owns the resting order; Trader2 sent the incoming order.
	Trader1 common.Address `json:"trader1"`
	Trader2 common.Address `json:"trader2"`

	Matched   *uint256.Int `json:"matched"`
	Price     uint64       `json:"price"`
	Timestamp int64        `json:"timestamp"` // unix milliseconds
}
