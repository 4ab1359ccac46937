package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/arena-sync/internal/skins"
	"github.com/vovakirdan/arena-sync/internal/storage"
)

func TestSkinBrowser(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "arena.db"))
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	defer store.Close()

	cache := skins.New(store)
	for id, data := range map[uint8]string{130: "aaa", 200: "bb"} {
		if err := cache.Put(id, []byte(data)); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	m := NewSkinBrowserModel(store, 80, 24)
	if len(m.entries) != 2 {
		t.Fatalf("browser lists %d skins, expected 2", len(m.entries))
	}
	if view := m.View(); !strings.Contains(view, "2 cached") || !strings.Contains(view, "custom") {
		t.Errorf("View() = %q", view)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m = next.(SkinBrowserModel)
	if len(m.entries) != 1 || m.entries[0].Key != "200" {
		t.Errorf("after delete: %+v", m.entries)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("C")})
	m = next.(SkinBrowserModel)
	if len(m.entries) != 0 {
		t.Errorf("after clear: %+v", m.entries)
	}
	if !strings.Contains(m.View(), "No custom skins") {
		t.Errorf("empty View() = %q", m.View())
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || next.(SkinBrowserModel).View() != "" {
		t.Error("q should quit")
	}
}
