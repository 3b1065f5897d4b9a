// Package event implements listener lists that stay consistent while
// listeners add or remove themselves (or each other) during an emission.
package event

// Signal broadcasts values of type T to registered listeners.
//
// The zero value is ready to use. A Signal is not safe for concurrent use;
// it belongs to the event loop goroutine.
type Signal[T any] struct {
	subs []*Subscription[T]
}

// Subscription is the token returned by Add. Removing it unregisters the
// listener; a removed listener is never called again, even by an emission
// that is already in progress.
type Subscription[T any] struct {
	signal *Signal[T]
	fn     func(T)
	live   bool
}

// Add registers fn and returns its subscription.
func (s *Signal[T]) Add(fn func(T)) *Subscription[T] {
	sub := &Subscription[T]{signal: s, fn: fn, live: true}
	s.subs = append(s.subs, sub)
	return sub
}

// Emit calls every listener registered when the emission starts.
func (s *Signal[T]) Emit(v T) {
	snapshot := append([]*Subscription[T](nil), s.subs...)
	for _, sub := range snapshot {
		if sub.live {
			sub.fn(v)
		}
	}
}

// Len returns the number of live listeners.
func (s *Signal[T]) Len() int {
	return len(s.subs)
}

// Clear removes every listener.
func (s *Signal[T]) Clear() {
	for _, sub := range s.subs {
		sub.live = false
	}
	s.subs = nil
}

// Remove unregisters the listener. It is safe to call more than once and on
// a nil subscription.
func (sub *Subscription[T]) Remove() {
	if sub == nil || !sub.live {
		return
	}
	sub.live = false
	subs := sub.signal.subs
	for i, other := range subs {
		if other == sub {
			sub.signal.subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

// Live reports whether the subscription is still registered.
func (sub *Subscription[T]) Live() bool {
	return sub != nil && sub.live
}
