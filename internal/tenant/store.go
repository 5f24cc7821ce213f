// Package tenant holds the single active tenant of a session.
package tenant

import (
	"errors"
	"sync"

	"github.com/gosuda/fareledger/internal/domain"
)

// ErrTenantNotSet is returned when a tenant-scoped operation runs before a
// tenant has been selected.
var ErrTenantNotSet = errors.New("tenant: no active tenant")

// Listener receives the new tenant, or nil after Clear.
type Listener func(t *domain.Tenant)

// Store is a mutable cell holding the active tenant. Listeners are notified
// synchronously, in registration order, before Set and Clear return.
type Store struct {
	mu        sync.RWMutex
	current   *domain.Tenant
	nextID    int
	listeners map[int]Listener
	order     []int

	// notifyMu serializes notification rounds so listeners observe changes
	// in the order they were made.
	notifyMu sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// Set replaces the active tenant and notifies every listener.
func (s *Store) Set(t domain.Tenant) {
	cp := t
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current = &cp
	s.mu.Unlock()

	s.notify(&cp)
}

// Clear removes the active tenant and notifies every listener with nil.
func (s *Store) Clear() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	s.notify(nil)
}

// Get returns a copy of the active tenant, or nil.
func (s *Store) Get() *domain.Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// RequireID returns the active tenant id or ErrTenantNotSet.
func (s *Store) RequireID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil || s.current.ID == "" {
		return "", ErrTenantNotSet
	}
	return s.current.ID, nil
}

// Subscribe registers fn for change notifications. The returned func
// removes it; calling it more than once is harmless.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store) notify(t *domain.Tenant) {
	s.mu.RLock()
	fns := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		if t == nil {
			fn(nil)
			continue
		}
		cp := *t
		fn(&cp)
	}
}
