package events

import (
	"log/slog"
	"sync"
)

// Topic delivers values of one event kind to every subscriber. Publish never blocks:
// a subscriber whose buffer is full misses the value.
type Topic[T any] struct {
	name string

	mu   sync.RWMutex
	next int
	subs map[int]chan T
}

func NewTopic[T any](name string) *Topic[T] {
	return &Topic[T]{name: name, subs: map[int]chan T{}}
}

// Subscribe returns a channel receiving every later Publish and a function that
// closes it. The cancel function may be called more than once.
func (t *Topic[T]) Subscribe(buffer int) (<-chan T, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	id := t.next
	ch := make(chan T, buffer)
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
			close(ch)
		})
	}
}

func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, ch := range t.subs {
		select {
		case ch <- v:
		default:
			slog.Debug("dropping event for slow subscriber", "topic", t.name)
		}
	}
}

func (t *Topic[T]) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}
