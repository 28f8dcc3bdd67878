// Package observable holds a current value and notifies subscribers when it changes.
package observable

import "sync"

// Value is a concurrency safe holder of a current value. Subscribers are
// called synchronously, in subscription order, after every Set.
type Value[T any] struct {
	mu          sync.RWMutex
	current     T
	nextID      int
	subscribers map[int]func(T)
	order       []int
}

// New creates a Value seeded with initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		current:     initial,
		subscribers: make(map[int]func(T)),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.current
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	v.current = next
	subscribers := v.snapshot()
	v.mu.Unlock()

	for _, fn := range subscribers {
		fn(next)
	}
}

// Update applies fn to the current value and stores the result.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	next := fn(v.current)
	v.current = next
	subscribers := v.snapshot()
	v.mu.Unlock()

	for _, sub := range subscribers {
		sub(next)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.subscribers[id] = fn
	v.order = append(v.order, id)

	var once sync.Once

	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()

			delete(v.subscribers, id)

			for i, existing := range v.order {
				if existing == id {
					v.order = append(v.order[:i], v.order[i+1:]...)

					break
				}
			}
		})
	}
}

func (v *Value[T]) snapshot() []func(T) {
	subscribers := make([]func(T), 0, len(v.order))
	for _, id := range v.order {
		subscribers = append(subscribers, v.subscribers[id])
	}

	return subscribers
}
