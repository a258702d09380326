package crash

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceBetInput is the inbound place_bet operation.
type PlaceBetInput struct {
	UserID            uuid.UUID
	Currency          string
	Amount            decimal.Decimal
	AutoCashoutTarget float64 // 0 when unset
	Slot              int     // defaults to 1 when 0
}

// PlaceBetResult echoes the accepted bet back to the caller.
type PlaceBetResult struct {
	BetID          uuid.UUID
	Slot           int
	Amount         decimal.Decimal
	SequenceNumber int64
}

// CashoutInput is the inbound cashout operation. ClaimedMultiplier is the
// optimistic value from the client; 0 means "use the current multiplier".
type CashoutInput struct {
	UserID            uuid.UUID
	Slot              int
	ClaimedMultiplier float64
}

// CashoutResult echoes the settlement back to the caller.
type CashoutResult struct {
	BetID      uuid.UUID
	Slot       int
	Multiplier float64
	Payout     decimal.Decimal
	Profit     decimal.Decimal
}

// Engine is the command surface of the round actor. All calls are serialised
// through the actor's loop; they are safe for concurrent use.
type Engine interface {
	PlaceBet(ctx context.Context, in PlaceBetInput) (*PlaceBetResult, error)
	Cashout(ctx context.Context, in CashoutInput) (*CashoutResult, error)
	// CurrentView returns the public view of the active round.
	CurrentView() PublicView
	// History returns the bounded crash-history ring, most recent first.
	History() []HistoryEntry
}

// SettledBetWriter is the persistence adapter contract. Writes are
// fire-and-forget from the round actor's perspective: failures are logged
// and never abort a tick, a cashout, or a round transition.
type SettledBetWriter interface {
	CreateSettledBet(ctx context.Context, bet *SettledBet) error
	UpdatePendingBet(ctx context.Context, betID uuid.UUID, fields map[string]any) error
}

// RoundArchive receives the full revealed round record after CRASHED for
// out-of-band audit storage. Implementations must not block the round loop.
type RoundArchive interface {
	ArchiveRound(ctx context.Context, entry HistoryEntry, bets []SettledBet) error
}

// HistoryStore mirrors the crash-history ring to an external store so the
// on-connect history payload survives restarts.
type HistoryStore interface {
	PushHistory(ctx context.Context, entry HistoryEntry, max int) error
	RecentHistory(ctx context.Context, max int) ([]HistoryEntry, error)
}
