// Package session holds the signed-in identity and notifies listeners when
// it changes.
package session

import (
	"sync"

	model "github.com/okian/stride/internal/domain/model"
)

// Listener receives the new identity, or nil after sign-out.
type Listener func(user *model.Identity)

// Session is safe for concurrent use. Listeners are called synchronously,
// outside the session lock, in subscription order.
type Session struct {
	mu        sync.RWMutex
	current   *model.Identity
	listeners map[uint64]Listener
	order     []uint64
	nextID    uint64
}

// New creates a signed-out session.
func New() *Session {
	return &Session{listeners: make(map[uint64]Listener)}
}

// Current returns a copy of the signed-in identity.
func (s *Session) Current() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.Identity{}, false
	}
	return *s.current, true
}

// SignIn replaces the current identity.
func (s *Session) SignIn(id model.Identity) {
	s.set(&id)
}

// SignOut clears the current identity.
func (s *Session) SignOut() {
	s.set(nil)
}

func (s *Session) set(id *model.Identity) {
	s.mu.Lock()
	s.current = id
	ls := make([]Listener, 0, len(s.order))
	for _, k := range s.order {
		ls = append(ls, s.listeners[k])
	}
	s.mu.Unlock()

	for _, l := range ls {
		if id == nil {
			l(nil)
			continue
		}
		cp := *id
		l(&cp)
	}
}

// Subscribe registers l and returns a func that removes it. The returned
// func is idempotent.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, k := range s.order {
				if k == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}
