package skins

import (
	"path/filepath"
	"testing"

	"github.com/vovakirdan/arena-sync/internal/storage"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		skin     uint8
		expected Category
	}{
		{0, CategoryBase},
		{31, CategoryBase},
		{32, CategoryBuilding},
		{63, CategoryBuilding},
		{64, CategoryUnit},
		{127, CategoryUnit},
		{128, CategoryCustom},
		{255, CategoryCustom},
	}

	for _, tc := range tests {
		if got := CategoryOf(tc.skin); got != tc.expected {
			t.Errorf("CategoryOf(%d) = %s, expected %s", tc.skin, got, tc.expected)
		}
	}
}

func TestCacheHas(t *testing.T) {
	c := New(nil)

	if !c.Has(5) {
		t.Error("bundled skins should always be available")
	}
	if c.Has(200) {
		t.Error("custom skin should be missing before it is cached")
	}
	if err := c.Put(200, []byte{1}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if !c.Has(200) {
		t.Error("custom skin should be available after Put()")
	}
}

func TestMarkRequested(t *testing.T) {
	c := New(nil)
	if !c.MarkRequested(150) {
		t.Error("first request should be allowed")
	}
	if c.MarkRequested(150) {
		t.Error("second request should be suppressed")
	}
	c.Put(150, []byte{1})
	if !c.MarkRequested(150) {
		t.Error("Put() should clear the in-flight marker")
	}
	c.ForgetRequests()
	if !c.MarkRequested(150) {
		t.Error("ForgetRequests() should clear markers")
	}
}

func TestCachePersistsInSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "arena.db")
	store, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}

	c := New(store)
	if err := c.Put(140, []byte("png")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	fp, err := c.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint() failed: %v", err)
	}
	store.Close()

	store, err = storage.Open(dbPath)
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	defer store.Close()

	reopened := New(store)
	data, ok := reopened.Get(140)
	if !ok || string(data) != "png" {
		t.Errorf("Get(140) = %q, %v after reopen", data, ok)
	}
	again, err := reopened.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint() failed: %v", err)
	}
	if again != fp {
		t.Errorf("Fingerprint() = %d after reopen, expected %d", again, fp)
	}

	ids, err := reopened.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != 140 {
		t.Errorf("List() = %v, expected [140]", ids)
	}

	n, err := reopened.Clear()
	if err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if n != 1 || reopened.Has(140) {
		t.Errorf("Clear() removed %d; Has(140) = %v", n, reopened.Has(140))
	}
}
