package trade

import (
	"encoding/binary"
	"encoding/json"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

var tradePrefix = []byte("trade/")

// Store persists trades keyed by (ticker, trade id) so history queries and
// id recovery survive restarts.
type Store struct {
	db *pebble.DB
}

func NewStore(dbPath string) (*Store, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(32 << 20),
		MemTableSize: 16 << 20,
	}

	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble db at %s", dbPath)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a trade. Trades are written in commit order; NoSync is fine
// here because the balance ledger, not the trade history, is the source of
// truth for funds.
func (s *Store) Save(t Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "marshal trade")
	}

	if err := s.db.Set(tradeKey(t.Ticker, t.ID), data, pebble.NoSync); err != nil {
		return errors.Wrap(err, "save trade")
	}
	return nil
}

// Recent returns the most recent trades for a ticker, newest first.
func (s *Store) Recent(ticker string, limit int) ([]Trade, error) {
	prefix := tickerPrefix(ticker)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, errors.Wrap(err, "trade iterator")
	}
	defer iter.Close()

	var trades []Trade
	for iter.Last(); iter.Valid() && len(trades) < limit; iter.Prev() {
		var t Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, errors.Wrap(err, "unmarshal trade")
		}
		trades = append(trades, t)
	}

	return trades, nil
}

// MaxID returns the highest trade id ever persisted, across all tickers.
// Used to resume the id sequence after a restart.
func (s *Store) MaxID() (uint64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: tradePrefix,
		UpperBound: keyUpperBound(tradePrefix),
	})
	if err != nil {
		return 0, errors.Wrap(err, "trade iterator")
	}
	defer iter.Close()

	var max uint64
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) < 8 {
			continue
		}
		id := binary.BigEndian.Uint64(key[len(key)-8:])
		if id > max {
			max = id
		}
	}

	return max, nil
}

func tickerPrefix(ticker string) []byte {
	p := append(append([]byte{}, tradePrefix...), ticker...)
	return append(p, '/')
}

func tradeKey(ticker string, id uint64) []byte {
	key := tickerPrefix(ticker)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append(key, buf[:]...)
}

func keyUpperBound(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
