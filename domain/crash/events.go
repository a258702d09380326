package crash

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType enumerates the bus-level event vocabulary.
type EventType string

const (
	EventStateChange   EventType = "state_change"
	EventTick          EventType = "tick"
	EventBetPlaced     EventType = "bet_placed"
	EventCashout       EventType = "cashout"
	EventCurveCrashed  EventType = "curve_crashed"
	EventCrashed       EventType = "crashed"
	EventBalanceUpdate EventType = "balance_update"
)

// Event is the envelope published on the in-process bus. Exactly one payload
// field is non-nil, matching Type.
type Event struct {
	Type          EventType
	StateChange   *StateChangeEvent
	Tick          *TickEvent
	BetPlaced     *BetPlacedEvent
	Cashout       *CashoutEvent
	CurveCrashed  *CurveCrashedEvent
	Crashed       *CrashedEvent
	BalanceUpdate *BalanceUpdateEvent
}

// StateChangeEvent announces a transition into WAITING, RUNNING or CRASHED.
type StateChangeEvent struct {
	State RoundState
	View  PublicView
}

// TickEvent carries the per-tick multiplier broadcast while RUNNING.
type TickEvent struct {
	Multipliers  []float64
	ElapsedMs    int64
	CrashedFlags []bool
}

// BetPlacedEvent is emitted after a successful placeBet.
type BetPlacedEvent struct {
	UserID   uuid.UUID
	BetID    uuid.UUID
	Slot     int
	Amount   decimal.Decimal
	Currency string
}

// CashoutEvent is emitted after a bet settles as CASHED_OUT.
type CashoutEvent struct {
	UserID     uuid.UUID
	Slot       int
	Multiplier float64
	Profit     decimal.Decimal
	Manual     bool
}

// CurveCrashedEvent is emitted when a single curve of a dual round ends.
type CurveCrashedEvent struct {
	Slot           int
	CrashPoint     float64
	SequenceNumber int64
}

// CrashedEvent is emitted once every curve of the round has ended.
type CrashedEvent struct {
	CrashPoints    []float64
	SequenceNumber int64
}

// BalanceUpdateEvent is private: only the owning user's primary socket
// receives it.
type BalanceUpdateEvent struct {
	UserID   uuid.UUID
	Currency string
	Delta    decimal.Decimal
	Reason   BalanceReason
}

// Bus is the in-process publish/subscribe channel between the round actor
// and the gateway.
type Bus interface {
	// Publish delivers the event to every subscriber. It never blocks the
	// caller; slow subscribers drop events rather than stall the round loop.
	Publish(ev Event)
	// Subscribe registers a new subscriber and returns its delivery channel
	// together with an unsubscribe func.
	Subscribe(buffer int) (<-chan Event, func())
}
