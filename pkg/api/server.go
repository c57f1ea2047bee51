package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/dexgo/dexchange/pkg/exchange"
	"github.com/dexgo/dexchange/pkg/exchange/book"
	"github.com/dexgo/dexchange/pkg/exchange/trade"
	"github.com/dexgo/dexchange/pkg/token"
)

const defaultTradeLimit = 50

// Server handles REST API and WebSocket connections.
type Server struct {
	ex         *exchange.Exchange
	router     *mux.Router
	hub        *Hub
	tradeLimit int // Hard cap on history query size
}

// NewServer creates a new API server over an exchange. tradeLimit caps the
// trades a single history query may return; zero applies the default.
func NewServer(ex *exchange.Exchange, tradeLimit int) *Server {
	if tradeLimit <= 0 {
		tradeLimit = defaultTradeLimit
	}

	s := &Server{
		ex:         ex,
		router:     mux.NewRouter(),
		hub:        NewHub(),
		tradeLimit: tradeLimit,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Market endpoints
	api.HandleFunc("/tokens", s.handleGetTokens).Methods("GET")
	api.HandleFunc("/markets/{ticker}/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/markets/{ticker}/trades", s.handleGetTrades).Methods("GET")

	// Account endpoints
	api.HandleFunc("/accounts/{address}/balances", s.handleGetBalances).Methods("GET")

	// Mutations
	api.HandleFunc("/tokens", s.handleRegisterToken).Methods("POST")
	api.HandleFunc("/tokens/{ticker}/faucet", s.handleFaucet).Methods("POST")
	api.HandleFunc("/deposit", s.handleDeposit).Methods("POST")
	api.HandleFunc("/withdraw", s.handleWithdraw).Methods("POST")
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub, bridges the trade stream to WebSocket channels, and
// serves HTTP on addr. Blocks until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	trades, cancel := s.ex.SubscribeTrades(trade.AllTickers)
	defer cancel()
	go func() {
		for t := range trades {
			s.hub.BroadcastToChannel("trades:"+t.Ticker, TradeUpdate{
				Type:  "trade",
				Trade: tradeInfo(t),
			})
		}
	}()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	log.Printf("[api] server starting on %s", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetTokens(w http.ResponseWriter, r *http.Request) {
	assets := s.ex.Tokens()

	response := make([]TokenInfo, len(assets))
	for i, a := range assets {
		response[i] = TokenInfo{
			Ticker:  a.Ticker,
			Address: a.Token.Address().Hex(),
		}
	}

	respondJSON(w, response)
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	if !s.ex.HasToken(ticker) {
		respondError(w, http.StatusNotFound, "this token does not exist", "")
		return
	}

	response := OrderbookSnapshot{
		Ticker:    ticker,
		Bids:      orderInfos(s.ex.GetOrders(ticker, book.Buy)),
		Asks:      orderInfos(s.ex.GetOrders(ticker, book.Sell)),
		Timestamp: time.Now().UnixMilli(),
	}

	respondJSON(w, response)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	if !s.ex.HasToken(ticker) {
		respondError(w, http.StatusNotFound, "this token does not exist", "")
		return
	}

	limit := s.tradeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", raw)
			return
		}
		if n < limit {
			limit = n
		}
	}

	trades, err := s.ex.Trades(ticker, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "trade history unavailable", err.Error())
		return
	}

	response := make([]TradeInfo, len(trades))
	for i, t := range trades {
		response[i] = tradeInfo(t)
	}

	respondJSON(w, response)
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, mux.Vars(r)["address"])
	if !ok {
		return
	}

	if ticker := r.URL.Query().Get("ticker"); ticker != "" {
		respondJSON(w, BalancesResponse{
			Address:  addr.Hex(),
			Balances: map[string]string{ticker: s.ex.BalanceOf(addr, ticker).Dec()},
		})
		return
	}

	balances := s.ex.Balances(addr)
	out := make(map[string]string, len(balances))
	for ticker, bal := range balances {
		out[ticker] = bal.Dec()
	}

	respondJSON(w, BalancesResponse{
		Address:  addr.Hex(),
		Balances: out,
	})
}

func (s *Server) handleRegisterToken(w http.ResponseWriter, r *http.Request) {
	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	if req.Ticker == "" {
		respondError(w, http.StatusBadRequest, "missing ticker", "")
		return
	}

	// Devnet only: the registered ticker is backed by a fresh mock token.
	tok := token.NewMock(req.Ticker)
	if err := s.ex.RegisterToken(caller, req.Ticker, tok); err != nil {
		respondExchangeError(w, err)
		return
	}

	log.Printf("[api] token registered: %s", req.Ticker)
	respondJSON(w, TokenInfo{Ticker: req.Ticker, Address: tok.Address().Hex()})
}

// handleFaucet mints external balance to an address and pre-approves the
// exchange custody for the same amount. Mock tokens only.
func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	addr, ok := parseAddress(w, req.Address)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	tok, err := s.ex.Token(ticker)
	if err != nil {
		respondExchangeError(w, err)
		return
	}

	mock, isMock := tok.(*token.Mock)
	if !isMock {
		respondError(w, http.StatusBadRequest, "token has no faucet", ticker)
		return
	}

	mock.Faucet(addr, amount)
	mock.Approve(addr, s.ex.Custody(), amount)

	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, s.ex.Deposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, s.ex.Withdraw)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, apply func(common.Address, string, *uint256.Int) error) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	addr, ok := parseAddress(w, req.Address)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	if err := apply(addr, req.Ticker, amount); err != nil {
		respondExchangeError(w, err)
		return
	}

	respondJSON(w, BalancesResponse{
		Address:  addr.Hex(),
		Balances: map[string]string{req.Ticker: s.ex.BalanceOf(addr, req.Ticker).Dec()},
	})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	addr, ok := parseAddress(w, req.Address)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	var side book.Side
	switch req.Side {
	case "buy":
		side = book.Buy
	case "sell":
		side = book.Sell
	default:
		respondError(w, http.StatusBadRequest, "invalid side", req.Side)
		return
	}

	switch req.Type {
	case "limit":
		o, err := s.ex.CreateLimitOrder(addr, req.Ticker, amount, req.Price, side)
		if err != nil {
			respondExchangeError(w, err)
			return
		}
		info := orderInfo(o)
		respondJSON(w, OrderResponse{Status: "resting", Order: &info})

	case "market":
		trades, err := s.ex.CreateMarketOrder(addr, req.Ticker, amount, side)
		if err != nil {
			respondExchangeError(w, err)
			return
		}
		infos := make([]TradeInfo, len(trades))
		for i, t := range trades {
			infos[i] = tradeInfo(t)
		}
		respondJSON(w, OrderResponse{Status: "filled", Trades: infos})

	default:
		respondError(w, http.StatusBadRequest, "invalid order type", req.Type)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helper Functions
// ==============================

func orderInfo(o *book.Order) OrderInfo {
	return OrderInfo{
		ID:        o.ID,
		Trader:    o.Trader.Hex(),
		Ticker:    o.Ticker,
		Side:      o.Side.String(),
		Amount:    o.Amount.Dec(),
		Filled:    o.Filled.Dec(),
		Remaining: o.Remaining().Dec(),
		Price:     o.Price,
		Timestamp: o.Timestamp,
	}
}

func orderInfos(orders []*book.Order) []OrderInfo {
	out := make([]OrderInfo, len(orders))
	for i, o := range orders {
		out[i] = orderInfo(o)
	}
	return out
}

func tradeInfo(t trade.Trade) TradeInfo {
	return TradeInfo{
		ID:        t.ID,
		OrderID:   t.OrderID,
		Ticker:    t.Ticker,
		Maker:     t.Trader1.Hex(),
		Taker:     t.Trader2.Hex(),
		Amount:    t.Matched.Dec(),
		Price:     t.Price,
		Timestamp: t.Timestamp,
	}
}

func parseAddress(w http.ResponseWriter, raw string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		respondError(w, http.StatusBadRequest, "invalid address", raw)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func parseAmount(w http.ResponseWriter, raw string) (*uint256.Int, bool) {
	amount, err := uint256.FromDecimal(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount", raw)
		return nil, false
	}
	return amount, true
}

// respondExchangeError maps exchange sentinels onto HTTP status codes,
// serving the canonical reason string as the error field.
func respondExchangeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, exchange.ErrUnknownTicker):
		status = http.StatusNotFound
	case errors.Is(err, exchange.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, exchange.ErrDuplicateTicker):
		status = http.StatusConflict
	}
	respondError(w, status, err.Error(), "")
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
