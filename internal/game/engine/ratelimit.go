package engine

import (
	"time"

	"github.com/google/uuid"
)

// rateLimiter enforces the per-user bet cooldown. The attempt timestamp is
// recorded on every attempt, accepted or not, so burst traffic keeps pushing
// its own window forward.
type rateLimiter struct {
	cooldown time.Duration
	last     map[betKey]time.Time
}

func newRateLimiter(cooldown time.Duration) *rateLimiter {
	return &rateLimiter{cooldown: cooldown, last: make(map[betKey]time.Time)}
}

// record stores now as the latest attempt for (userID, slot) and returns the
// previous attempt time (zero when this is the first).
func (r *rateLimiter) record(userID uuid.UUID, slot int, now time.Time) time.Time {
	k := betKey{userID: userID, slot: slot}
	prev := r.last[k]
	r.last[k] = now
	return prev
}

// allowed reports whether an attempt at now, whose previous attempt was
// prev, clears the cooldown.
func (r *rateLimiter) allowed(prev, now time.Time) bool {
	if prev.IsZero() {
		return true
	}
	return now.Sub(prev) >= r.cooldown
}
