package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStorePutAndGet(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put("skins", "130", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	value, ok, err := store.Get("skins", "130")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !ok || string(value) != string([]byte{1, 2, 3}) {
		t.Errorf("Get() = %v, %v; expected [1 2 3], true", value, ok)
	}

	// Overwrite
	if err := store.Put("skins", "130", []byte{9}); err != nil {
		t.Fatalf("Put() overwrite failed: %v", err)
	}
	value, _, _ = store.Get("skins", "130")
	if len(value) != 1 || value[0] != 9 {
		t.Errorf("Get() after overwrite = %v, expected [9]", value)
	}

	// Buckets are separate
	if _, ok, _ := store.Get("client", "130"); ok {
		t.Error("key should not leak across buckets")
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)

	value, ok, err := store.Get("skins", "nope")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if ok || value != nil {
		t.Errorf("Get() of a missing key = %v, %v", value, ok)
	}
}

func TestStoreEntriesAndClear(t *testing.T) {
	store := openTestStore(t)

	store.Put("skins", "b", []byte("bb"))
	store.Put("skins", "a", []byte("a"))
	store.Put("client", "fingerprint", []byte{0, 0, 0, 1})

	entries, err := store.Entries("skins")
	if err != nil {
		t.Fatalf("Entries() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "a" || entries[1].Key != "b" || entries[1].Size != 2 {
		t.Errorf("Entries() = %+v", entries)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats["skins"] == nil || stats["skins"].Count != 2 || stats["skins"].Bytes != 3 {
		t.Errorf("Stats()[skins] = %+v", stats["skins"])
	}

	n, err := store.Clear("skins")
	if err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear() removed %d, expected 2", n)
	}

	keys, _ := store.Keys("skins")
	if len(keys) != 0 {
		t.Errorf("Expected no skins after clear, got %v", keys)
	}
	if _, ok, _ := store.Get("client", "fingerprint"); !ok {
		t.Error("Clear() should not affect other buckets")
	}
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)

	store.Put("skins", "1", []byte{1})
	if err := store.Delete("skins", "1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok, _ := store.Get("skins", "1"); ok {
		t.Error("key should be gone after Delete()")
	}
	if err := store.Delete("skins", "1"); err != nil {
		t.Errorf("Delete() of a missing key failed: %v", err)
	}
}

func TestStoreNestedPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	// Verify nested directories were created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}
