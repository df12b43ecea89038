package session

import (
	"context"
	"sync"
)

// SessionProvider is an identity source the application can sign out of.
type SessionProvider interface {
	ID() string
	Name() string
	State() State
	Logout(ctx context.Context) error
}

// Registry records which provider currently owns the session.
// It is created by the application and passed to whoever needs it.
type Registry struct {
	mu     sync.RWMutex
	active SessionProvider
}

func NewRegistry() *Registry {
	return &Registry{}
}

// SetActive makes p the active provider.
func (r *Registry) SetActive(p SessionProvider) {
	r.mu.Lock()
	r.active = p
	r.mu.Unlock()
}

// Active returns the active provider, or nil.
func (r *Registry) Active() SessionProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Clear forgets the active provider.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.active = nil
	r.mu.Unlock()
}

// clearIf forgets p if it is the active provider.
func (r *Registry) clearIf(p SessionProvider) {
	r.mu.Lock()
	if r.active == p {
		r.active = nil
	}
	r.mu.Unlock()
}
