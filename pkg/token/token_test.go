package token

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	alice   = common.BytesToAddress([]byte("alice"))
	bob     = common.BytesToAddress([]byte("bob"))
	custody = common.BytesToAddress([]byte("custody"))
)

func TestDeterministicAddress(t *testing.T) {
	require.Equal(t, NewMock("DAI").Address(), NewMock("DAI").Address())
	require.NotEqual(t, NewMock("DAI").Address(), NewMock("REP").Address())
}

func TestFaucetAndTransfer(t *testing.T) {
	m := NewMock("DAI")
	m.Faucet(alice, uint256.NewInt(100))
	require.Equal(t, uint256.NewInt(100), m.BalanceOf(alice))

	require.NoError(t, m.Transfer(alice, bob, uint256.NewInt(40)))
	require.Equal(t, uint256.NewInt(60), m.BalanceOf(alice))
	require.Equal(t, uint256.NewInt(40), m.BalanceOf(bob))

	err := m.Transfer(alice, bob, uint256.NewInt(61))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, uint256.NewInt(60), m.BalanceOf(alice))
}

func TestTransferFromSpendsAllowance(t *testing.T) {
	m := NewMock("DAI")
	m.Faucet(alice, uint256.NewInt(100))

	// No approval yet.
	err := m.TransferFrom(custody, alice, custody, uint256.NewInt(10))
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	m.Approve(alice, custody, uint256.NewInt(50))
	require.Equal(t, uint256.NewInt(50), m.Allowance(alice, custody))

	require.NoError(t, m.TransferFrom(custody, alice, custody, uint256.NewInt(30)))
	require.Equal(t, uint256.NewInt(70), m.BalanceOf(alice))
	require.Equal(t, uint256.NewInt(30), m.BalanceOf(custody))
	require.Equal(t, uint256.NewInt(20), m.Allowance(alice, custody))

	// Remaining allowance is below the request.
	err = m.TransferFrom(custody, alice, custody, uint256.NewInt(21))
	require.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestTransferFromInsufficientFunds(t *testing.T) {
	m := NewMock("DAI")
	m.Faucet(alice, uint256.NewInt(10))
	m.Approve(alice, custody, uint256.NewInt(100))

	err := m.TransferFrom(custody, alice, custody, uint256.NewInt(50))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// A failed transfer must not burn allowance.
	require.Equal(t, uint256.NewInt(100), m.Allowance(alice, custody))
}
