package session

import (
	"context"
	"sync"
)

// Session is the identity context shared by a client's views. It is loaded
// once from its Store and updated on login and logout.
type Session struct {
	store Store

	mu       sync.RWMutex
	identity Identity
	active   bool
}

// New creates a session backed by store. Call Load to read a stored identity.
func New(store Store) *Session {
	return &Session{store: store}
}

// Load reads the stored identity and reports whether one exists.
func (s *Session) Load() (bool, error) {
	identity, ok, err := s.store.Load()
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.active = ok
	return ok, nil
}

// Identity returns the current identity.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.active
}

// UserID returns the logged-in user's id, or ErrNotLoggedIn.
func (s *Session) UserID() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return 0, ErrNotLoggedIn
	}
	return s.identity.ID, nil
}

// Active reports whether a user is logged in.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Save persists identity and makes it current.
func (s *Session) Save(identity Identity) error {
	if err := s.store.Save(identity); err != nil {
		return err
	}
	s.set(identity, true)
	return nil
}

// Clear removes the stored identity (logout).
func (s *Session) Clear() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.set(Identity{}, false)
	return nil
}

// Login logs in through auth and makes the identity current on success.
func (s *Session) Login(ctx context.Context, auth Authenticator, email, password string) (Identity, error) {
	identity, err := Login(ctx, auth, s.store, email, password)
	if err != nil {
		return Identity{}, err
	}
	s.set(identity, true)
	return identity, nil
}

func (s *Session) set(identity Identity, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.active = active
}
