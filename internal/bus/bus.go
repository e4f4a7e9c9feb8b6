// Package bus implements a small, synchronous, in-process pub/sub event
// bus. Publishers and subscribers agree only on topic names and payload
// shapes; delivery is fire-and-forget and subscriber failures never reach
// the publisher.
package bus

import (
	"fmt"
	"sync"

	"clipline/internal/logger"
)

// Payload is the flat key/value body of an event.
type Payload map[string]any

// Handler consumes events for a topic.
type Handler func(topic string, payload Payload)

// Bus is a topic-keyed publish/subscribe dispatcher. Handlers run
// synchronously in subscription order, outside the bus lock, so a handler
// may safely re-enter the bus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]Handler
	logger *logger.Logger
}

// New constructs an empty bus. A nil logger silences handler failure
// reporting.
func New(log *logger.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]Handler),
		logger: log,
	}
}

// Subscribe appends handler to topic's subscriber list. Topics need no
// pre-declaration.
func (b *Bus) Subscribe(topic string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], handler)
	b.mu.Unlock()
}

// Publish delivers payload to every subscriber of topic, in subscription
// order. Each handler invocation is fault-isolated: a panicking handler is
// logged and the remaining handlers still run. Publishing to a topic with
// no subscribers is a no-op.
func (b *Bus) Publish(topic string, payload Payload) {
	b.mu.RLock()
	snapshot := make([]Handler, len(b.subs[topic]))
	copy(snapshot, b.subs[topic])
	b.mu.RUnlock()

	for _, handler := range snapshot {
		b.invoke(topic, handler, payload)
	}
}

func (b *Bus) invoke(topic string, handler Handler, payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(fmt.Errorf("%v", r), "event handler panicked on topic "+topic)
		}
	}()
	handler(topic, payload)
}

// SubscriberCount reports how many handlers are attached to topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
