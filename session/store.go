package session

import (
	"sync"

	"github.com/amonks/taskboard/internal/state"
)

// StorageKey is the fixed key the identity is stored under.
const StorageKey = "user"

// Store persists the identity payload.
type Store interface {
	// Load returns the stored identity, or false when there is none.
	Load() (Identity, bool, error)
	Save(identity Identity) error
	Clear() error
}

// FileStore keeps the identity in the state directory's storage file.
type FileStore struct {
	state *state.Store
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{state: state.NewStore(dir)}
}

// Load implements Store.
func (s *FileStore) Load() (Identity, bool, error) {
	raw, ok, err := s.state.Get(StorageKey)
	if err != nil || !ok {
		return Identity{}, false, err
	}
	identity, err := ParseIdentity(raw)
	if err != nil {
		return Identity{}, false, err
	}
	return identity, true, nil
}

// Save implements Store.
func (s *FileStore) Save(identity Identity) error {
	return s.state.Set(StorageKey, identity.Raw)
}

// Clear implements Store.
func (s *FileStore) Clear() error {
	return s.state.Delete(StorageKey)
}

// MemoryStore keeps the identity in memory.
type MemoryStore struct {
	mu       sync.Mutex
	identity *Identity
}

// Load implements Store.
func (s *MemoryStore) Load() (Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return Identity{}, false, nil
	}
	return *s.identity, true, nil
}

// Save implements Store.
func (s *MemoryStore) Save(identity Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	return nil
}
