// Package eventbus is the process-wide publish/subscribe channel that
// decouples interception from UI and rotation logic.
package eventbus

import "sync"

// Topic names a class of domain event.
type Topic string

const (
	ItemAdded         Topic = "item.added"
	ItemDestroyed     Topic = "item.destroyed"
	SelectionDeleting Topic = "selection.deleting"
	SettingsChanged   Topic = "settings.changed"
	RotationCreated   Topic = "rotation.created"
	ResourceChanged   Topic = "resource.changed"
)

// Event is one published message. Payload type depends on the topic.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	topic  Topic // empty for wildcard subscribers
	fn     Handler
	active bool
}

// Bus delivers events synchronously on the publisher's goroutine.
//
// Delivery iterates over a snapshot of the subscribers, so a handler may
// unsubscribe itself (or others) while an event is being delivered.
type Bus struct {
	mu   sync.Mutex
	subs []*subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn for topic and returns an idempotent unsubscribe func.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	return b.add(&subscription{topic: topic, fn: fn, active: true})
}

// SubscribeAll registers fn for every topic.
func (b *Bus) SubscribeAll(fn Handler) func() {
	return b.add(&subscription{fn: fn, active: true})
}

func (b *Bus) add(s *subscription) func() {
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !s.active {
			return
		}
		s.active = false
		for i, cur := range b.subs {
			if cur == s {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers ev to every matching subscriber before returning.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	snapshot := make([]*subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		if s.topic != "" && s.topic != ev.Topic {
			continue
		}
		b.mu.Lock()
		active := s.active
		b.mu.Unlock()
		if active {
			s.fn(ev)
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
