package services

import "sync"

// subscriberBuffer is how many events a subscriber may fall behind before events are dropped
const subscriberBuffer = 16

// broadcaster fans events out to subscribers without ever blocking the publisher
type broadcaster[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan T
}

func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{subs: make(map[int]chan T)}
}

// subscribe returns the event channel and an idempotent cancel func that closes it
func (b *broadcaster[T]) subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan T, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// publish delivers ev to every subscriber with room in its buffer
func (b *broadcaster[T]) publish(ev T) (dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	return dropped
}
