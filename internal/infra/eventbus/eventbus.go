// Package eventbus is an in-process publish/subscribe bus. The chat service
// publishes one event per answered question; consumers such as the answer
// statistics subscribe to it.
//
// Each subscriber gets a buffered channel. Publish never blocks: when a
// subscriber's buffer is full the event is dropped for that subscriber and
// counted. Nothing is persisted.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Event is a single published message.
type Event struct {
	Topic   string
	Payload any
}

// EventBus is the interface the domain services depend on.
type EventBus interface {
	Publish(topic string, payload any)
	Subscribe(topic string) (<-chan Event, func())
}

const defaultBufferSize = 100

// Bus is the in-memory implementation of EventBus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	dropped     atomic.Uint64
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string][]chan Event)}
}

// Subscribe registers a subscriber for topic. The returned func unsubscribes
// and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, defaultBufferSize)
	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(topic, ch) })
	}
}

func (b *Bus) unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[topic]
	for i, c := range subs {
		if c == ch {
			b.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.subscribers[topic]) == 0 {
		delete(b.subscribers, topic)
	}
}

// Publish delivers an Event to every current subscriber of topic.
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload}
	// The read lock is held while sending so unsubscribe cannot close a
	// channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a buffer was full.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }
