package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func startStore(t *testing.T, path string, persistEvery time.Duration) (*Store, func()) {
	t.Helper()
	s := New(path, persistEvery)
	done := make(chan struct{})
	go s.Run(done)
	return s, func() { close(done) }
}

func TestStoreSaveLoad(t *testing.T) {
	dir := t.TempDir()
	s, stop := startStore(t, filepath.Join(dir, "state.json"), time.Hour)
	defer stop()

	id := uuid.New()
	s.Save(id, json.RawMessage(`{"type":"Ucb"}`))

	got := s.Load(id)
	if got == nil {
		t.Fatalf("expected snapshot to be loaded")
	}
}

func TestStoreLoadMissing(t *testing.T) {
	dir := t.TempDir()
	s, stop := startStore(t, filepath.Join(dir, "state.json"), time.Hour)
	defer stop()

	if got := s.Load(uuid.New()); got != nil {
		t.Fatalf("expected nil for missing id, got %s", got)
	}
}

func TestStoreDelete(t *testing.T) {
	dir := t.TempDir()
	s, stop := startStore(t, filepath.Join(dir, "state.json"), time.Hour)
	defer stop()

	id := uuid.New()
	s.Save(id, json.RawMessage(`{}`))
	s.Delete(id)
	if got := s.Load(id); got != nil {
		t.Fatalf("expected entry to be gone after delete")
	}
}

func TestStoreLoadAll(t *testing.T) {
	dir := t.TempDir()
	s, stop := startStore(t, filepath.Join(dir, "state.json"), time.Hour)
	defer stop()

	a, b := uuid.New(), uuid.New()
	s.Save(a, json.RawMessage(`{}`))
	s.Save(b, json.RawMessage(`{}`))

	all, err := s.LoadAll()
	if err != nil {
		t.Fatalf("load_all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
}

func TestStoreStartsEmptyOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	s, stop := startStore(t, filepath.Join(dir, "does-not-exist.json"), time.Hour)
	defer stop()

	all, err := s.LoadAll()
	if err != nil {
		t.Fatalf("load_all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty catalog, got %d entries", len(all))
	}
}

func TestStoreStartsEmptyOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	s, stop := startStore(t, path, time.Hour)
	defer stop()

	all, err := s.LoadAll()
	if err != nil {
		t.Fatalf("load_all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty catalog on corrupt file, got %d entries", len(all))
	}
}

func TestStoreLoadAllUnavailableAfterStop(t *testing.T) {
	dir := t.TempDir()
	s, stop := startStore(t, filepath.Join(dir, "state.json"), time.Hour)
	stop()
	time.Sleep(10 * time.Millisecond)

	if _, err := s.LoadAll(); err == nil {
		t.Fatalf("expected ErrStorageUnavailable once the store loop has stopped")
	}
}

func TestStorePersistsAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := New(path, 20*time.Millisecond)
	done := make(chan struct{})
	go s.Run(done)
	defer close(done)

	id := uuid.New()
	s.Save(id, json.RawMessage(`{"type":"Ucb","alpha":1.0,"arms":{}}`))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			var catalog map[uuid.UUID]json.RawMessage
			if err := json.Unmarshal(data, &catalog); err == nil {
				if _, ok := catalog[id]; ok {
					return
				}
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected persisted file to contain saved entry within deadline")
}

func TestStoreReloadsPersistedCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	id := uuid.New()
	initial := map[uuid.UUID]json.RawMessage{id: json.RawMessage(`{"type":"Ucb"}`)}
	data, err := json.Marshal(initial)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s, stop := startStore(t, path, time.Hour)
	defer stop()

	if got := s.Load(id); got == nil {
		t.Fatalf("expected reloaded entry to be present")
	}
}
