package trade

import (
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 256

// AllTickers subscribes to every market's trades at once.
const AllTickers = "*"

// Log is the append-only trade log. Append never fails for valid input:
// persistence errors are logged, and slow subscribers miss events rather
// than block the matching engine. The live stream is forward-only; history
// is an explicit query against the store.
type Log struct {
	mu     sync.RWMutex
	store  *Store // nil means no durable history
	subs   map[string]map[chan Trade]struct{}
	logger *zap.Logger
}

func NewLog(store *Store, logger *zap.Logger) *Log {
	return &Log{
		store:  store,
		subs:   make(map[string]map[chan Trade]struct{}),
		logger: logger,
	}
}

// Append records a trade and notifies the ticker's subscribers in commit
// order.
func (l *Log) Append(t Trade) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.store != nil {
		if err := l.store.Save(t); err != nil {
			l.logger.Error("persist trade",
				zap.Uint64("trade_id", t.ID),
				zap.Error(err),
			)
		}
	}

	for _, key := range []string{t.Ticker, AllTickers} {
		for ch := range l.subs[key] {
			select {
			case ch <- t:
			default:
				// Subscriber buffer full; drop rather than stall settlement.
			}
		}
	}
}

// Subscribe returns a forward-only stream of trades for a ticker and a
// cancel function. Trades appended before the subscription are not
// delivered; use History for those.
func (l *Log) Subscribe(ticker string) (<-chan Trade, func()) {
	ch := make(chan Trade, subscriberBuffer)

	l.mu.Lock()
	set, ok := l.subs[ticker]
	if !ok {
		set = make(map[chan Trade]struct{})
		l.subs[ticker] = set
	}
	set[ch] = struct{}{}
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[ticker][ch]; ok {
			delete(l.subs[ticker], ch)
			close(ch)
		}
	}

	return ch, cancel
}

// History returns up to limit persisted trades for a ticker, newest first.
func (l *Log) History(ticker string, limit int) ([]Trade, error) {
	if l.store == nil {
		return nil, nil
	}
	return l.store.Recent(ticker, limit)
}

// MaxID returns the highest persisted trade id, zero with no store.
func (l *Log) MaxID() (uint64, error) {
	if l.store == nil {
		return 0, nil
	}
	return l.store.MaxID()
}
