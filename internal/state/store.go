// Package state implements durable client-side key/value storage in a JSON
// file, safe for concurrent use by several processes.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"unicode/utf8"
)

// Store manages the storage file with locking.
type Store struct {
	dir string
}

// NewStore creates a new store using the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory holding the storage file.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) statePath() string {
	return filepath.Join(s.dir, "storage.json")
}

func (s *Store) lockPath() string {
	return filepath.Join(s.dir, "storage.lock")
}

// Load reads the state from disk. Returns an empty state if the file doesn't exist.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.statePath())
	if os.IsNotExist(err) {
		return newState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read storage file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal storage: %w", err)
	}
	if st.Entries == nil {
		st.Entries = make(map[string]string)
	}
	return &st, nil
}

// Save writes the state to disk.
func (s *Store) Save(st *State) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}

	if existing, err := os.ReadFile(s.statePath()); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read storage file: %w", err)
	}

	// Write atomically via temp file
	tmpFile, err := os.CreateTemp(s.dir, filepath.Base(s.statePath())+".tmp")
	if err != nil {
		return fmt.Errorf("create temp storage file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(data)
	if err1 := tmpFile.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp storage file: %w", err)
	}

	if err := os.Rename(name, s.statePath()); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename storage file: %w", err)
	}
	return nil
}

// Update atomically reads, modifies, and writes the state with file locking.
func (s *Store) Update(fn func(st *State) error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	lockFile, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)

	st, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return s.Save(st)
}

// Get returns the raw value stored under key.
func (s *Store) Get(key string) (json.RawMessage, bool, error) {
	st, err := s.Load()
	if err != nil {
		return nil, false, err
	}
	value, ok := st.Entries[key]
	if !ok {
		return nil, false, nil
	}
	return json.RawMessage(value), true, nil
}

// Set stores value under key verbatim.
func (s *Store) Set(key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("storage value for %q is not valid JSON", key)
	}
	if !utf8.Valid(value) {
		return fmt.Errorf("storage value for %q is not valid UTF-8", key)
	}
	stored := string(value)
	return s.Update(func(st *State) error {
		st.Entries[key] = stored
		return nil
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.Update(func(st *State) error {
		delete(st.Entries, key)
		return nil
	})
}
