package ledger

import (
	"encoding/json"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/holiman/uint256"
)

var balancePrefix = []byte("bal/")

// Store persists one balance record per trader so the ledger survives
// restarts. All writes happen under the ledger's mutex.
type Store struct {
	db *pebble.DB
}

// record is the persisted form of a trader's balances.
type record struct {
	Trader   common.Address          `json:"trader"`
	Balances map[string]*uint256.Int `json:"balances"`
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

// Save persists a trader's full balance record.
func (s *Store) Save(trader common.Address, balances map[string]*uint256.Int) error {
	data, err := json.Marshal(record{Trader: trader, Balances: balances})
	if err != nil {
		return errors.Wrap(err, "marshal balance record")
	}

	if err := s.db.Set(balanceKey(trader), data, pebble.Sync); err != nil {
		return errors.Wrap(err, "save balance record")
	}
	return nil
}

// LoadAll reads every persisted balance record.
func (s *Store) LoadAll() (map[common.Address]map[string]*uint256.Int, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: balancePrefix,
		UpperBound: keyUpperBound(balancePrefix),
	})
	if err != nil {
		return nil, errors.Wrap(err, "balance iterator")
	}
	defer iter.Close()

	out := make(map[common.Address]map[string]*uint256.Int)
	for iter.First(); iter.Valid(); iter.Next() {
		var rec record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, errors.Wrap(err, "unmarshal balance record")
		}
		if rec.Balances == nil {
			rec.Balances = make(map[string]*uint256.Int)
		}
		out[rec.Trader] = rec.Balances
	}

	return out, nil
}

func balanceKey(trader common.Address) []byte {
	return append(append([]byte{}, balancePrefix...), trader.Bytes()...)
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
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
