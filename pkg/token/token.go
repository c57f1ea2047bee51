// Package token models the external asset ledger the exchange settles
// deposits and withdrawals against. The exchange core never touches token
// state directly; it is handed a Token capability per registered ticker.
package token

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientFunds     = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is the external asset capability injected into the exchange.
// Transfers move value on the token's own ledger, outside exchange custody.
type Token interface {
	Address() common.Address
	BalanceOf(addr common.Address) *uint256.Int
	Allowance(owner, spender common.Address) *uint256.Int
	Approve(owner, spender common.Address, amount *uint256.Int)
	Transfer(from, to common.Address, amount *uint256.Int) error
	// TransferFrom spends spender's allowance to move amount from from to to.
	TransferFrom(spender, from, to common.Address, amount *uint256.Int) error
}

// Mock is an in-memory ERC20-style token used on devnet and in tests.
// Mirrors the faucet/approve/transferFrom flow the exchange frontend drives.
type Mock struct {
	mu         sync.Mutex
	addr       common.Address
	balances   map[common.Address]*uint256.Int
	allowances map[common.Address]map[common.Address]*uint256.Int
}

func NewMock(name string) *Mock {
	return &Mock{
		addr:       common.BytesToAddress([]byte("token:" + name)),
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

func (m *Mock) Address() common.Address {
	return m.addr
}

func (m *Mock) BalanceOf(addr common.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *Mock) Allowance(owner, spender common.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bySpender, ok := m.allowances[owner]; ok {
		if a, ok := bySpender[spender]; ok {
			return a.Clone()
		}
	}
	return uint256.NewInt(0)
}

func (m *Mock) Approve(owner, spender common.Address, amount *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bySpender, ok := m.allowances[owner]
	if !ok {
		bySpender = make(map[common.Address]*uint256.Int)
		m.allowances[owner] = bySpender
	}
	bySpender[spender] = amount.Clone()
}

// Faucet mints amount to the given address.
func (m *Mock) Faucet(to common.Address, amount *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.credit(to, amount)
}

func (m *Mock) Transfer(from, to common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.transfer(from, to, amount)
}

func (m *Mock) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bySpender := m.allowances[from]
	allowance, ok := bySpender[spender]
	if !ok || allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}

	if err := m.transfer(from, to, amount); err != nil {
		return err
	}

	bySpender[spender] = new(uint256.Int).Sub(allowance, amount)
	return nil
}

func (m *Mock) transfer(from, to common.Address, amount *uint256.Int) error {
	bal, ok := m.balances[from]
	if !ok || bal.Lt(amount) {
		return ErrInsufficientFunds
	}

	m.balances[from] = new(uint256.Int).Sub(bal, amount)
	m.credit(to, amount)
	return nil
}

func (m *Mock) credit(to common.Address, amount *uint256.Int) {
	if bal, ok := m.balances[to]; ok {
		m.balances[to] = new(uint256.Int).Add(bal, amount)
		return
	}
	m.balances[to] = amount.Clone()
}
