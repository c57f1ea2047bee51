package api

// Request and response types for the REST endpoints and WebSocket messages.

// ==============================
// REST Response Types
// ==============================

// TokenInfo is a registered token.
type TokenInfo struct {
	Ticker  string `json:"ticker"`
	Address string `json:"address"`
}

// OrderInfo is an order as served over the API. Amounts are decimal strings
// because ledger values are 256-bit.
type OrderInfo struct {
	ID        uint64 `json:"id"`
	Trader    string `json:"trader"`
	Ticker    string `json:"ticker"`
	Side      string `json:"side"` // "buy" or "sell"
	Amount    string `json:"amount"`
	Filled    string `json:"filled"`
	Remaining string `json:"remaining"`
	Price     uint64 `json:"price"`
	Timestamp uint64 `json:"timestamp"` // Placement sequence, not wall clock
}

// OrderbookSnapshot is both sides of a market's book in priority order.
type OrderbookSnapshot struct {
	Ticker    string      `json:"ticker"`
	Bids      []OrderInfo `json:"bids"` // Sorted high to low
	Asks      []OrderInfo `json:"asks"` // Sorted low to high
	Timestamp int64       `json:"timestamp"` // Unix milliseconds
}

// TradeInfo is an executed fill.
type TradeInfo struct {
	ID        uint64 `json:"id"`
	OrderID   uint64 `json:"orderId"` // Resting order that was hit
	Ticker    string `json:"ticker"`
	Maker     string `json:"maker"` // Resting order's owner
	Taker     string `json:"taker"` // Market order's owner
	Amount    string `json:"amount"`
	Price     uint64 `json:"price"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// BalancesResponse maps ticker to decimal balance string.
type BalancesResponse struct {
	Address  string            `json:"address"`
	Balances map[string]string `json:"balances"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// REST Request Types
// ==============================

// RegisterTokenRequest is the payload for POST /api/v1/tokens. Only the
// exchange owner may register; on devnet a mock token backs the ticker.
type RegisterTokenRequest struct {
	Caller string `json:"caller"`
	Ticker string `json:"ticker"`
}

// TransferRequest is the payload for POST /api/v1/deposit and
// POST /api/v1/withdraw.
type TransferRequest struct {
	Address string `json:"address"`
	Ticker  string `json:"ticker"`
	Amount  string `json:"amount"` // Decimal string
}

// OrderRequest is the payload for POST /api/v1/orders.
type OrderRequest struct {
	Address string `json:"address"`
	Ticker  string `json:"ticker"`
	Side    string `json:"side"`            // "buy" or "sell"
	Type    string `json:"type"`            // "limit" or "market"
	Amount  string `json:"amount"`          // Decimal string
	Price   uint64 `json:"price,omitempty"` // Required for limit orders
}

// OrderResponse is returned from order submission. Limit orders carry the
// resting order; market orders carry the fills.
type OrderResponse struct {
	Status string      `json:"status"` // "resting" or "filled"
	Order  *OrderInfo  `json:"order,omitempty"`
	Trades []TradeInfo `json:"trades,omitempty"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by clients to manage channel subscriptions,
// e.g. {"op":"subscribe","channels":["trades:BAT"]}.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// TradeUpdate is broadcast on the "trades:<ticker>" channel per fill.
type TradeUpdate struct {
	Type  string    `json:"type"` // "trade"
	Trade TradeInfo `json:"trade"`
}
