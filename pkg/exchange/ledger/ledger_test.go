package ledger

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dexgo/dexchange/pkg/exchange/asset"
	"github.com/dexgo/dexchange/pkg/token"
)

var (
	owner   = common.BytesToAddress([]byte("owner"))
	custody = common.BytesToAddress([]byte("custody"))
	alice   = common.BytesToAddress([]byte("alice"))
)

// fund mints amount to alice on the mock and approves custody to pull it.
func fund(m *token.Mock, trader common.Address, amount uint64) {
	m.Faucet(trader, uint256.NewInt(amount))
	m.Approve(trader, custody, uint256.NewInt(amount))
}

func newTestLedger(t *testing.T, store *Store) (*Ledger, *token.Mock) {
	t.Helper()

	registry := asset.NewRegistry(owner)
	mock := token.NewMock("REP")
	require.NoError(t, registry.Register(owner, "REP", mock))

	l, err := New(registry, store, custody, zap.NewNop())
	require.NoError(t, err)
	return l, mock
}

func TestDeposit(t *testing.T) {
	l, mock := newTestLedger(t, nil)
	fund(mock, alice, 100)

	require.NoError(t, l.Deposit(alice, "REP", uint256.NewInt(100)))

	require.Equal(t, uint256.NewInt(100), l.BalanceOf(alice, "REP"))
	require.Equal(t, uint256.NewInt(100), mock.BalanceOf(custody))
	require.True(t, mock.BalanceOf(alice).IsZero())
}

func TestDepositUnknownTicker(t *testing.T) {
	l, _ := newTestLedger(t, nil)

	err := l.Deposit(alice, "ZRX", uint256.NewInt(10))
	require.ErrorIs(t, err, asset.ErrUnknownTicker)
}

func TestDepositWithoutApproval(t *testing.T) {
	l, mock := newTestLedger(t, nil)
	mock.Faucet(alice, uint256.NewInt(100))

	err := l.Deposit(alice, "REP", uint256.NewInt(100))
	require.ErrorIs(t, err, token.ErrInsufficientAllowance)
	require.True(t, l.BalanceOf(alice, "REP").IsZero())
}

func TestDepositZeroAmount(t *testing.T) {
	l, _ := newTestLedger(t, nil)

	require.ErrorIs(t, l.Deposit(alice, "REP", uint256.NewInt(0)), ErrInvalidAmount)
	require.ErrorIs(t, l.Deposit(alice, "REP", nil), ErrInvalidAmount)
}

func TestWithdraw(t *testing.T) {
	l, mock := newTestLedger(t, nil)
	fund(mock, alice, 100)
	require.NoError(t, l.Deposit(alice, "REP", uint256.NewInt(100)))

	require.NoError(t, l.Withdraw(alice, "REP", uint256.NewInt(40)))

	require.Equal(t, uint256.NewInt(60), l.BalanceOf(alice, "REP"))
	require.Equal(t, uint256.NewInt(40), mock.BalanceOf(alice))
	require.Equal(t, uint256.NewInt(60), mock.BalanceOf(custody))
}

func TestWithdrawInsufficient(t *testing.T) {
	l, mock := newTestLedger(t, nil)
	fund(mock, alice, 100)
	require.NoError(t, l.Deposit(alice, "REP", uint256.NewInt(100)))

	err := l.Withdraw(alice, "REP", uint256.NewInt(101))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, uint256.NewInt(100), l.BalanceOf(alice, "REP"))
}

func TestWithdrawCompensatesFailedTransfer(t *testing.T) {
	l, mock := newTestLedger(t, nil)
	fund(mock, alice, 100)
	require.NoError(t, l.Deposit(alice, "REP", uint256.NewInt(100)))

	// Drain custody behind the ledger's back so the external transfer fails.
	require.NoError(t, mock.Transfer(custody, owner, uint256.NewInt(100)))

	err := l.Withdraw(alice, "REP", uint256.NewInt(50))
	require.ErrorIs(t, err, token.ErrInsufficientFunds)

	// The debit must have been rolled back.
	require.Equal(t, uint256.NewInt(100), l.BalanceOf(alice, "REP"))
}

func TestCreditDebit(t *testing.T) {
	l, _ := newTestLedger(t, nil)

	l.Credit(alice, "REP", uint256.NewInt(30))
	require.Equal(t, uint256.NewInt(30), l.BalanceOf(alice, "REP"))

	require.NoError(t, l.Debit(alice, "REP", uint256.NewInt(20)))
	require.Equal(t, uint256.NewInt(10), l.BalanceOf(alice, "REP"))

	require.ErrorIs(t, l.Debit(alice, "REP", uint256.NewInt(11)), ErrInsufficientBalance)
	require.ErrorIs(t, l.Debit(alice, "DAI", uint256.NewInt(1)), ErrInsufficientBalance)
}

func TestBalancesCopy(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	l.Credit(alice, "REP", uint256.NewInt(30))

	balances := l.Balances(alice)
	balances["REP"].SetUint64(999)

	require.Equal(t, uint256.NewInt(30), l.BalanceOf(alice, "REP"))
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)

	l, mock := newTestLedger(t, store)
	fund(mock, alice, 100)
	require.NoError(t, l.Deposit(alice, "REP", uint256.NewInt(100)))
	l.Credit(alice, "DAI", uint256.NewInt(40))
	require.NoError(t, store.Close())

	store, err = NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	reloaded, _ := newTestLedger(t, store)
	require.Equal(t, uint256.NewInt(100), reloaded.BalanceOf(alice, "REP"))
	require.Equal(t, uint256.NewInt(40), reloaded.BalanceOf(alice, "DAI"))
}
