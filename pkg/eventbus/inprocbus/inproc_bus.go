// Package inprocbus is the in-process eventbus.Bus implementation used
// when no external broker is configured.
package inprocbus

import (
	"sync"

	"github.com/brightpool/arbiq/pkg/eventbus"
	"github.com/brightpool/arbiq/pkg/message"
)

var _ eventbus.Bus = (*InprocBus)(nil)

type subscription struct {
	id      uint64
	topic   string
	handler func(message.Message)
}

// InprocBus is a basic eventbus.Bus over a map of topic to subscriber list.
// Unlike the teacher's original, Unsubscribe is keyed by a subscription id
// rather than comparing handler closure addresses: taking the address of a
// loop-local func value (`&h != &handler`) compares addresses of the loop
// variable's storage, which never matches the subscribed handler, so the
// original unsubscribe could never remove anything.
type InprocBus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]*subscription
}

// NewEventBus creates and returns a new InprocBus instance.
func NewEventBus() *InprocBus {
	return &InprocBus{subs: make(map[string][]*subscription)}
}

// Publish sends a message to all subscribers of a given topic,
// asynchronously per handler so a slow subscriber can't block the
// publisher or other subscribers.
func (bus *InprocBus) Publish(topic string, msg message.Message) error {
	bus.mu.Lock()
	subs := append([]*subscription(nil), bus.subs[topic]...)
	bus.mu.Unlock()

	for _, s := range subs {
		go s.handler(msg)
	}
	return nil
}

// Subscribe adds a new handler for a specific topic and returns an
// unsubscribe function bound to this specific subscription's id.
func (bus *InprocBus) Subscribe(topic string, handler func(message.Message)) (func(), error) {
	bus.mu.Lock()
	bus.nextID++
	sub := &subscription{id: bus.nextID, topic: topic, handler: handler}
	bus.subs[topic] = append(bus.subs[topic], sub)
	bus.mu.Unlock()

	unsubscribe := func() {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		existing := bus.subs[topic]
		for i, s := range existing {
			if s.id == sub.id {
				bus.subs[topic] = append(existing[:i], existing[i+1:]...)
				break
			}
		}
		if len(bus.subs[topic]) == 0 {
			delete(bus.subs, topic)
		}
	}
	return unsubscribe, nil
}
