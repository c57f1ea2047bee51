// Package book holds resting limit orders for one ticker in price/time
// priority: buys descending by price, sells ascending, FIFO within a level.
package book

import (
	"container/heap"
	"sort"
	"sync"
)

// Book indexes one ticker's resting orders. Price levels are tracked in
// max/min heaps for O(1) best-price peeks; each level is a FIFO queue, so
// equal prices match oldest first. An order-id index gives O(1) removal
// lookups. The book exclusively owns the orders it holds.
type Book struct {
	mu     sync.RWMutex
	ticker string

	bidHeap *MaxPriceHeap
	askHeap *MinPriceHeap

	// price -> FIFO queue
	bids map[uint64][]*Order
	asks map[uint64][]*Order

	// order id -> price
	index map[uint64]uint64
}

func New(ticker string) *Book {
	bidHeap := &MaxPriceHeap{}
	askHeap := &MinPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	return &Book{
		ticker:  ticker,
		bidHeap: bidHeap,
		askHeap: askHeap,
		bids:    make(map[uint64][]*Order),
		asks:    make(map[uint64][]*Order),
		index:   make(map[uint64]uint64),
	}
}

func (b *Book) Ticker() string {
	return b.ticker
}

// Insert places a resting order at its price level. Appending to the level's
// FIFO queue preserves time priority; a new level registers its price in the
// side's heap. Cost is proportional to book depth, never a full re-sort.
func (b *Book) Insert(o *Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	side := b.bids
	if o.Side == Sell {
		side = b.asks
	}

	if len(side[o.Price]) == 0 {
		if o.Side == Buy {
			heap.Push(b.bidHeap, o.Price)
		} else {
			heap.Push(b.askHeap, o.Price)
		}
	}
	side[o.Price] = append(side[o.Price], o)
	b.index[o.ID] = o.Price
}

// Best returns the highest-priority resting order on a side, or nil when the
// side is empty: best price first, oldest first within the level. O(1) via
// the side's price heap.
func (b *Book) Best(side Side) *Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if side == Buy {
		if b.bidHeap.Len() == 0 {
			return nil
		}
		return b.bids[b.bidHeap.Peek()][0]
	}

	if b.askHeap.Len() == 0 {
		return nil
	}
	return b.asks[b.askHeap.Peek()][0]
}

// Remove deletes an order from the book. Called once an order is fully
// filled. Returns false if the order is not resting.
func (b *Book) Remove(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.removeLocked(id)
}

func (b *Book) removeLocked(id uint64) bool {
	price, ok := b.index[id]
	if !ok {
		return false
	}

	if b.removeFromLevelLocked(b.bids, price, id) {
		if len(b.bids[price]) == 0 {
			delete(b.bids, price)
			removeFromHeap(b.bidHeap, price)
		}
		delete(b.index, id)
		return true
	}

	if b.removeFromLevelLocked(b.asks, price, id) {
		if len(b.asks[price]) == 0 {
			delete(b.asks, price)
			removeFromHeap(b.askHeap, price)
		}
		delete(b.index, id)
		return true
	}

	return false
}

func (b *Book) removeFromLevelLocked(side map[uint64][]*Order, price, id uint64) bool {
	level, exists := side[price]
	if !exists {
		return false
	}
	for i, o := range level {
		if o.ID == id {
			side[price] = append(level[:i], level[i+1:]...)
			return true
		}
	}
	return false
}

// removeFromHeap drops one price level from a heap. O(N) over levels, but
// only runs when a level empties.
func removeFromHeap(h heap.Interface, price uint64) {
	switch hp := h.(type) {
	case *MaxPriceHeap:
		for i := 0; i < hp.Len(); i++ {
			if (*hp)[i] == price {
				heap.Remove(hp, i)
				return
			}
		}
	case *MinPriceHeap:
		for i := 0; i < hp.Len(); i++ {
			if (*hp)[i] == price {
				heap.Remove(hp, i)
				return
			}
		}
	}
}

// Orders returns one side's resting orders in priority order. The returned
// orders are the book's own; callers mutate them only through the matching
// engine while holding the exchange write lock.
func (b *Book) Orders(side Side) []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.ordersLocked(side)
}

func (b *Book) ordersLocked(side Side) []*Order {
	levels := b.bids
	if side == Sell {
		levels = b.asks
	}

	prices := make([]uint64, 0, len(levels))
	for price, queue := range levels {
		if len(queue) == 0 {
			continue
		}
		prices = append(prices, price)
	}

	if side == Buy {
		sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })
	} else {
		sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	}

	var out []*Order
	for _, price := range prices {
		out = append(out, levels[price]...)
	}
	return out
}

// Snapshot returns a deep copy of one side in priority order, for read-only
// export to the API layer.
func (b *Book) Snapshot(side Side) []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	orders := b.ordersLocked(side)
	out := make([]*Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Clone())
	}
	return out
}

// Depth returns the number of resting orders on a side.
func (b *Book) Depth(side Side) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	levels := b.bids
	if side == Sell {
		levels = b.asks
	}

	n := 0
	for _, queue := range levels {
		n += len(queue)
	}
	return n
}
