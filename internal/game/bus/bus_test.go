package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashgame/backend/domain/crash"
)

func TestPublishFansOut(t *testing.T) {
	b := New()
	ch1, unsub1 := b.Subscribe(8)
	ch2, unsub2 := b.Subscribe(8)
	defer unsub1()
	defer unsub2()

	b.Publish(crash.Event{Type: crash.EventTick, Tick: &crash.TickEvent{ElapsedMs: 100}})

	for _, ch := range []<-chan crash.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, crash.EventTick, ev.Type)
			assert.Equal(t, int64(100), ev.Tick.ElapsedMs)
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe(1)
	defer unsub()

	// overflowing the buffer with no reader must drop, not deadlock
	for i := 0; i < 10; i++ {
		b.Publish(crash.Event{Type: crash.EventTick, Tick: &crash.TickEvent{ElapsedMs: int64(i)}})
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()

	_, ok := <-ch
	assert.False(t, ok, "unsubscribed channel must be closed")

	// idempotent, and publishing afterwards is a no-op
	unsub()
	b.Publish(crash.Event{Type: crash.EventCrashed, Crashed: &crash.CrashedEvent{}})
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, unsub := b.Subscribe(16)
			for j := 0; j < 50; j++ {
				b.Publish(crash.Event{Type: crash.EventTick, Tick: &crash.TickEvent{}})
			}
			unsub()
			for range ch {
				// drain until close
			}
		}()
	}
	wg.Wait()
}

func TestSubscribeDefaultBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(0)
	defer unsub()
	require.NotNil(t, ch)

	b.Publish(crash.Event{Type: crash.EventTick, Tick: &crash.TickEvent{}})
	select {
	case ev := <-ch:
		assert.Equal(t, crash.EventTick, ev.Type)
	default:
		t.Fatal("event not delivered with default buffer")
	}
}
