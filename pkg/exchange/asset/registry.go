// Package asset maps ticker symbols to their external token handles.
package asset

import (
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dexgo/dexchange/pkg/token"
)

var (
	ErrUnknownTicker   = errors.New("this token does not exist")
	ErrDuplicateTicker = errors.New("token already exists")
	ErrNotOwner        = errors.New("only owner can do this")
)

// Asset pairs a ticker with the external token it settles against.
type Asset struct {
	Ticker string
	Token  token.Token
}

// Registry is the set of tradable (plus quote) tickers. Registration is
// restricted to the owner address fixed at construction.
type Registry struct {
	mu     sync.RWMutex
	owner  common.Address
	assets map[string]Asset
}

func NewRegistry(owner common.Address) *Registry {
	return &Registry{
		owner:  owner,
		assets: make(map[string]Asset),
	}
}

// Register adds a ticker. Only the owner may call it; a ticker can be
// registered exactly once.
func (r *Registry) Register(caller common.Address, ticker string, tok token.Token) error {
	if caller != r.owner {
		return ErrNotOwner
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[ticker]; exists {
		return ErrDuplicateTicker
	}

	r.assets[ticker] = Asset{Ticker: ticker, Token: tok}
	return nil
}

// Resolve returns the token handle for a ticker.
func (r *Registry) Resolve(ticker string) (token.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.assets[ticker]
	if !exists {
		return nil, ErrUnknownTicker
	}
	return a.Token, nil
}

// Exists reports whether a ticker is registered.
func (r *Registry) Exists(ticker string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.assets[ticker]
	return exists
}

// List returns all registered assets sorted by ticker.
func (r *Registry) List() []Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := make([]Asset, 0, len(r.assets))
	for _, a := range r.assets {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Ticker < assets[j].Ticker
	})
	return assets
}

// Count returns the number of registered tickers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}
