package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors returned by Port implementations.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrUnavailable       = errors.New("wallet unavailable")
)

// Port is the authoritative money interface. Implementations MUST present
// atomic read-modify-write semantics per (userID, currency): a row-level
// lock, a compare-and-swap, or a rejected transactional update.
type Port interface {
	// Debit removes amount from the user's balance. Returns
	// ErrInsufficientFunds when the balance would go negative and
	// ErrWalletNotFound when no wallet exists for the pair.
	Debit(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal, reason string) error
	// Credit adds amount to the user's balance, creating the wallet when
	// missing.
	Credit(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal, reason string) error
	// Balance reads the current balance.
	Balance(ctx context.Context, userID uuid.UUID, currency string) (decimal.Decimal, error)
}

// LedgerEntry records one wallet transition for audit.
type LedgerEntry struct {
	UserID        uuid.UUID
	Currency      string
	Delta         decimal.Decimal
	Reason        string
	BeforeBalance decimal.Decimal
	AfterBalance  decimal.Decimal
	Timestamp     time.Time
}

// LedgerWriter persists wallet transitions. Failures are logged by callers
// and never abort the money movement itself.
type LedgerWriter interface {
	WriteLedger(ctx context.Context, entry *LedgerEntry) error
}
