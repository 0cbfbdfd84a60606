package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestStore_LoadEmpty(t *testing.T) {
	store := NewStore(t.TempDir())

	st, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load empty state: %v", err)
	}
	if st == nil {
		t.Fatal("expected non-nil state")
	}
	if len(st.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(st.Entries))
	}
}

func TestStore_SetGetVerbatim(t *testing.T) {
	store := NewStore(t.TempDir())
	payload := json.RawMessage(`{"id":7,"username":"sam","extra":[1,2]}`)

	if err := store.Set("user", payload); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := store.Get("user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected value to be present")
	}
	if string(got) != string(payload) {
		t.Fatalf("expected %s, got %s", payload, got)
	}
}

func TestStore_SetKeepsWhitespaceAndMarkup(t *testing.T) {
	dir := t.TempDir()
	payload := json.RawMessage("{\"id\": 7,\n  \"username\": \"a<b&c\", \"email\": \"x@y\"}")

	if err := NewStore(dir).Set("user", payload); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := NewStore(dir).Get("user")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestStore_SetRejectsInvalidJSON(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Set("user", json.RawMessage(`{not json`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Set("user", json.RawMessage(`{"id":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete("user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := store.Get("user"); err != nil || ok {
		t.Fatalf("expected missing value, got ok=%v err=%v", ok, err)
	}
	if err := store.Delete("user"); err != nil {
		t.Fatalf("delete missing key: %v", err)
	}
}

func TestStore_SaveSkipsUnchangedWrite(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := store.Set("user", json.RawMessage(`{"id":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	path := filepath.Join(dir, "storage.json")
	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := store.Set("user", json.RawMessage(`{"id":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !os.SameFile(before, after) {
		t.Fatal("expected identical content to leave the file in place")
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store := NewStore(t.TempDir())

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			if err := store.Set(key, json.RawMessage(fmt.Sprintf("%d", i))); err != nil {
				t.Errorf("set %s: %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	st, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.Entries) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(st.Entries))
	}
}
