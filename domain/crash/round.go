package crash

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoundState is the lifecycle state of a round.
type RoundState string

const (
	RoundStateWaiting RoundState = "WAITING"
	RoundStateRunning RoundState = "RUNNING"
	RoundStateCrashed RoundState = "CRASHED"
)

// BetStatus is the lifecycle state of a single wager.
type BetStatus string

const (
	BetStatusActive    BetStatus = "ACTIVE"
	BetStatusCashedOut BetStatus = "CASHED_OUT"
	BetStatusLost      BetStatus = "LOST"
)

// BalanceReason labels a wallet transition for the private balance_update event.
type BalanceReason string

const (
	BalanceReasonBetPlaced BalanceReason = "BET_PLACED"
	BalanceReasonCashout   BalanceReason = "CASHOUT"
)

// Bet is a single wager within a round, keyed by (UserID, Slot).
type Bet struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Slot              int
	Amount            decimal.Decimal
	Currency          string
	AutoCashoutTarget float64 // 0 when unset; otherwise >= 1.01
	CashedOutAt       float64 // 0 until settled
	Profit            decimal.Decimal
	Status            BetStatus
	VariantTag        string
	Nonce             int64 // the user's provably-fair nonce this wager was bound to
	PlacedAt          time.Time
}

// Curve is one crash curve within a round. Single-curve rounds have one,
// dual-dragon rounds have two independent curves.
type Curve struct {
	Slot              int
	CrashPoint        float64
	CurrentMultiplier float64
	Crashed           bool
	CrashedAt         time.Time
}

// Round is one playthrough of the crash curve(s). It is owned by the round
// actor; external readers only ever see PublicView copies.
type Round struct {
	ID             uuid.UUID
	SequenceNumber int64
	State          RoundState
	ServerSeed     string
	Commitment     string
	ClientSeed     string
	Curves         []Curve
	StartedAt      time.Time
	CrashedAt      time.Time
}

// PublicView is the externally observable slice of a round. ServerSeed and
// crash points are zeroed while the round has not crashed.
type PublicView struct {
	RoundID        uuid.UUID  `json:"roundId"`
	SequenceNumber int64      `json:"sequenceNumber"`
	State          RoundState `json:"state"`
	Commitment     string     `json:"commitment"`
	ClientSeed     string     `json:"clientSeed"`
	ServerSeed     string     `json:"serverSeed,omitempty"`
	CrashPoints    []string   `json:"crashPoints,omitempty"`
	Multipliers    []string   `json:"multipliers"`
	CrashedFlags   []bool     `json:"crashedFlags"`
	ElapsedMs      int64      `json:"elapsedMs"`
}

// HistoryEntry is one element of the bounded crash-history ring.
type HistoryEntry struct {
	SequenceNumber int64     `json:"sequenceNumber"`
	CrashPoints    []float64 `json:"crashPoints"`
	Commitment     string    `json:"commitment"`
	ServerSeed     string    `json:"serverSeed"`
	CrashedAt      time.Time `json:"crashedAt"`
}

// SettledBet is the record handed to the persistence adapter once a bet
// reaches CASHED_OUT or LOST.
type SettledBet struct {
	BetID             uuid.UUID
	UserID            uuid.UUID
	Variant           string
	Currency          string
	Slot              int
	Amount            decimal.Decimal
	Multiplier        float64
	Payout            decimal.Decimal
	Profit            decimal.Decimal
	ServerSeed        string
	Commitment        string
	ClientSeed        string
	Nonce             int64
	SequenceNumber    int64
	CrashPoint        float64
	AutoCashoutTarget float64
	CashedOutAt       float64
	IsWin             bool
	WalletFlagged     bool // set when the wallet credit failed and needs reconciliation
	SettledAt         time.Time
}
