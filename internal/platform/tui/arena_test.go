package tui

import (
	"testing"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/registry"
	"github.com/vovakirdan/arena-sync/internal/state"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

// testStore has player 1 at the map center with a mine to its right and one
// neutral base in the top-left quarter.
func testStore() *state.Store {
	s := state.NewStore(core.NewRect(0, 0, 4000, 4000), core.V(1280, 720))
	s.SetLocal(1)
	s.ApplyGameState(wire.GameState{
		Players: []wire.PlayerRecord{{
			ID: 1, Name: "Ada", Color: wire.RGB(255, 0, 0), X: 2000, Y: 2000, Health: 100,
			Buildings: []wire.BuildingRecord{{ID: 0, Kind: registry.KindMine, X: 3000, Y: 2000}},
		}},
		NeutralBases: []wire.NeutralRecord{{ID: 0, X: 1000, Y: 1000, Health: 80}},
		Rocks:        []wire.Scenery{{X: 100, Y: 100, Radius: 30}},
	})
	return s
}

func TestArenaViewProjection(t *testing.T) {
	v := NewArenaView(42, 22) // 40x20 inside the border
	v.MoveCursor(-15, -8)
	v.Render(testStore(), nil)

	c := v.canvas
	cases := []struct {
		x, y int
		want rune
	}{
		{0, 0, '┌'},
		{21, 11, '⌂'}, // player base at the center
		{31, 11, '$'}, // mine at three quarters of the width
		{11, 6, '⌂'},  // neutral base
		{2, 1, '●'},   // rock near the origin
	}
	for _, tc := range cases {
		if got := c.Get(tc.x, tc.y).Rune; got != tc.want {
			t.Errorf("cell (%d, %d) = %q, expected %q", tc.x, tc.y, got, tc.want)
		}
	}
	if got := c.Get(21, 11).Color; got != "#ff0000" {
		t.Errorf("player base color = %q, expected #ff0000", got)
	}
	if got := c.Get(11, 6).Color; got != colorNeutral {
		t.Errorf("neutral base color = %q", got)
	}

	x, y := v.Cursor()
	if c.Get(x, y).Rune != '┼' {
		t.Errorf("cursor not drawn at (%d, %d)", x, y)
	}
}

func TestArenaViewRoster(t *testing.T) {
	v := NewArenaView(42, 22)
	v.Render(testStore(), nil)

	roster := v.Frame().Roster
	if len(roster) != 2 {
		t.Fatalf("roster has %d rows, expected 2", len(roster))
	}
	if !roster[0].Local || roster[0].Name != "Ada" || roster[0].Buildings != 1 || roster[0].Health != 100 {
		t.Errorf("player row = %+v", roster[0])
	}
	if !roster[1].Neutral {
		t.Errorf("neutral base should sort last: %+v", roster[1])
	}
}

func TestArenaViewPendingPrediction(t *testing.T) {
	v := NewArenaView(42, 22)
	v.MoveCursor(-15, -8)
	pending := &state.Building{Kind: registry.KindTurret, Pos: core.V(2000, 3000)}
	v.Render(testStore(), pending)

	cell := v.canvas.Get(21, 16)
	if cell.Rune != 'T' || cell.Color != colorPending {
		t.Errorf("pending turret cell = %+v", cell)
	}
}

func TestArenaViewCursorWorld(t *testing.T) {
	v := NewArenaView(42, 22)
	v.Render(testStore(), nil)

	// cursor starts at cell (21, 11), the 21st column and 11th row inside
	// the border; each cell spans 100x200 world units
	got := v.CursorWorld()
	want := core.V(2050, 2100)
	if got.Dist(want) > 1e-9 {
		t.Errorf("CursorWorld() = %v, expected %v", got, want)
	}
	if size := v.CellSize(); size != 200 {
		t.Errorf("CellSize() = %v, expected 200", size)
	}

	v.MoveCursor(-100, -100)
	if x, y := v.Cursor(); x != 1 || y != 1 {
		t.Errorf("cursor should clamp inside the border, got (%d, %d)", x, y)
	}
}

func TestBuildingNear(t *testing.T) {
	s := testStore()

	b, ok := buildingNear(s, core.V(3050, 2000), 100)
	if !ok || b.ID != 0 {
		t.Fatalf("buildingNear() = %v, %v", b, ok)
	}
	if _, ok := buildingNear(s, core.V(500, 500), 100); ok {
		t.Error("buildingNear() should find nothing far from every building")
	}

	s.HasLocal = false
	if _, ok := buildingNear(s, core.V(3000, 2000), 100); ok {
		t.Error("buildingNear() should need a local player")
	}
}
