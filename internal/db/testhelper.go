package db

import (
	"path/filepath"
	"testing"
)

// TestStore opens an isolated store in a temp directory. The database is
// closed and removed when the test completes.
func TestStore(t testing.TB) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "quillnote.db"), "")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
