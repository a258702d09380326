package bus

import (
	"sync"

	"github.com/crashgame/backend/domain/crash"
)

// Bus is an in-process publish/subscribe fan-out between the round actor and
// the gateway. Publish never blocks: a subscriber whose buffer is full drops
// the event instead of stalling the round loop.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan crash.Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]chan crash.Event)}
}

var _ crash.Bus = (*Bus)(nil)

// Publish delivers ev to every subscriber.
func (b *Bus) Publish(ev crash.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// subscriber is too slow; drop rather than block the actor
		}
	}
}

// Subscribe registers a subscriber with the given channel buffer and returns
// the delivery channel plus an unsubscribe func. Unsubscribe closes the
// channel.
func (b *Bus) Subscribe(buffer int) (<-chan crash.Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan crash.Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsub
}
