package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crashgame/backend/domain/wallet"
)

type walletKey struct {
	userID   uuid.UUID
	currency string
}

// MemoryWallet is an in-process Wallet Port for development and tests. A
// single mutex gives it the same atomic per-account semantics as the
// database-backed port.
type MemoryWallet struct {
	mu       sync.Mutex
	balances map[walletKey]decimal.Decimal
	ledger   []wallet.LedgerEntry
}

func NewMemoryWallet() *MemoryWallet {
	return &MemoryWallet{balances: make(map[walletKey]decimal.Decimal)}
}

var _ wallet.Port = (*MemoryWallet)(nil)

// Seed sets an initial balance.
func (w *MemoryWallet) Seed(userID uuid.UUID, currency string, balance decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[walletKey{userID, currency}] = balance
}

func (w *MemoryWallet) Debit(_ context.Context, userID uuid.UUID, currency string, amount decimal.Decimal, reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := walletKey{userID, currency}
	before, ok := w.balances[k]
	if !ok {
		return wallet.ErrWalletNotFound
	}
	after := before.Sub(amount)
	if after.IsNegative() {
		return wallet.ErrInsufficientFunds
	}
	w.balances[k] = after
	w.appendLedger(userID, currency, amount.Neg(), reason, before, after)
	return nil
}

func (w *MemoryWallet) Credit(_ context.Context, userID uuid.UUID, currency string, amount decimal.Decimal, reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := walletKey{userID, currency}
	before := w.balances[k]
	after := before.Add(amount)
	w.balances[k] = after
	w.appendLedger(userID, currency, amount, reason, before, after)
	return nil
}

func (w *MemoryWallet) Balance(_ context.Context, userID uuid.UUID, currency string) (decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.balances[walletKey{userID, currency}]
	if !ok {
		return decimal.Zero, wallet.ErrWalletNotFound
	}
	return b, nil
}

// Ledger returns a copy of the recorded transitions, in write order.
func (w *MemoryWallet) Ledger() []wallet.LedgerEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]wallet.LedgerEntry, len(w.ledger))
	copy(out, w.ledger)
	return out
}

func (w *MemoryWallet) appendLedger(userID uuid.UUID, currency string, delta decimal.Decimal, reason string, before, after decimal.Decimal) {
	w.ledger = append(w.ledger, wallet.LedgerEntry{
		UserID:        userID,
		Currency:      currency,
		Delta:         delta,
		Reason:        reason,
		BeforeBalance: before,
		AfterBalance:  after,
	})
}
