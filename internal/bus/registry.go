package bus

import (
	"github.com/nerrad567/temptick-core/internal/collection"
	"github.com/nerrad567/temptick-core/internal/scalar"
)

// DefaultObservers is the observer capacity of a Registry built with
// NewRegistry(0).
const DefaultObservers = 8

// Consumer receives events. It returns true to claim the event.
type Consumer interface {
	HandleEvent(code string, v scalar.Value) bool
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(code string, v scalar.Value) bool

// HandleEvent calls f.
func (f ConsumerFunc) HandleEvent(code string, v scalar.Value) bool { return f(code, v) }

// Tap returns a Consumer that observes every event offered to it without
// ever claiming, so delivery continues past it.
func Tap(fn func(code string, v scalar.Value)) Consumer {
	return ConsumerFunc(func(code string, v scalar.Value) bool {
		fn(code, v)
		return false
	})
}

// Registry is a bounded, ordered list of consumers owned by one producer.
// It is not safe for concurrent use; all calls happen on the tick loop.
type Registry struct {
	observers *collection.List[Consumer]
}

// NewRegistry returns a Registry that accepts up to capacity observers.
// A non-positive capacity selects DefaultObservers.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultObservers
	}
	return &Registry{observers: collection.New[Consumer](capacity)}
}

// AddObserver appends c. A nil consumer is ignored. It returns false when
// the registry is full or c is nil.
func (r *Registry) AddObserver(c Consumer) bool {
	if c == nil {
		return false
	}
	return r.observers.Add(c)
}

// Len returns the number of registered observers.
func (r *Registry) Len() int { return r.observers.Len() }

// Notify offers the event to observers in registration order and stops at
// the first one that claims it. It reports whether the event was claimed.
func (r *Registry) Notify(code string, v scalar.Value) bool {
	claimed := false
	r.observers.Each(func(_ int, c Consumer) bool {
		claimed = c.HandleEvent(code, v)
		return !claimed
	})
	return claimed
}

// Broadcast offers the event to every observer and returns how many
// claimed it.
func (r *Registry) Broadcast(code string, v scalar.Value) int {
	claims := 0
	r.observers.Each(func(_ int, c Consumer) bool {
		if c.HandleEvent(code, v) {
			claims++
		}
		return true
	})
	return claims
}
