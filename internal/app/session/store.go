package session

import "sync"

type subscriber struct {
	id int
	fn func(State)
}

// Store holds the current State and notifies subscribers of every update.
// Reads are unrestricted; only the owning Provider writes.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   []subscriber
	nextID int

	// writeMu keeps updates and their notifications in order.
	writeMu sync.Mutex
}

// NewStore returns a store in the loading state.
func NewStore() *Store {
	return &Store{state: loadingState()}
}

// Get returns the current state.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to run after each update, in subscription order, on the
// writer's goroutine. fn must not update the session itself. It returns a function
// that removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// set replaces the state and notifies subscribers outside the lock, so a
// subscriber may call Get or unsubscribe.
func (s *Store) set(next State) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.state = next
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next)
	}
}

// reset drops every subscriber.
func (s *Store) reset() {
	s.mu.Lock()
	s.subs = nil
	s.mu.Unlock()
}
