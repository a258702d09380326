package engine

import (
	"github.com/google/uuid"

	"github.com/crashgame/backend/domain/crash"
)

// betKey identifies a wager within a round.
type betKey struct {
	userID uuid.UUID
	slot   int
}

// betBook is the per-round in-memory record of wagers keyed by (user, slot).
// It is owned by the round actor and never accessed concurrently. Insertion
// order is preserved so auto-cashout scans are deterministic within a tick.
type betBook struct {
	bets  map[betKey]*crash.Bet
	order []betKey
}

func newBetBook() *betBook {
	return &betBook{bets: make(map[betKey]*crash.Bet)}
}

// get returns the bet for (userID, slot), or nil.
func (b *betBook) get(userID uuid.UUID, slot int) *crash.Bet {
	return b.bets[betKey{userID: userID, slot: slot}]
}

// insert adds a bet. It returns false when a bet already exists for the
// (userID, slot) pair; duplicates are rejected without consulting the wallet.
func (b *betBook) insert(bet *crash.Bet) bool {
	k := betKey{userID: bet.UserID, slot: bet.Slot}
	if _, exists := b.bets[k]; exists {
		return false
	}
	b.bets[k] = bet
	b.order = append(b.order, k)
	return true
}

// forEach visits every bet in insertion order.
func (b *betBook) forEach(fn func(*crash.Bet)) {
	for _, k := range b.order {
		fn(b.bets[k])
	}
}

// activeOnSlot returns the still-ACTIVE bets for a slot, in insertion order.
func (b *betBook) activeOnSlot(slot int) []*crash.Bet {
	var out []*crash.Bet
	for _, k := range b.order {
		bet := b.bets[k]
		if bet.Slot == slot && bet.Status == crash.BetStatusActive {
			out = append(out, bet)
		}
	}
	return out
}

func (b *betBook) len() int { return len(b.order) }
