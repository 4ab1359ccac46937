package tui

import (
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/registry"
	"github.com/vovakirdan/arena-sync/internal/state"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

// Palette used by the arena view.
var (
	colorBorder  = lipgloss.Color("240")
	colorRock    = lipgloss.Color("245")
	colorBush    = lipgloss.Color("2")
	colorNeutral = lipgloss.Color("250")
	colorPending = lipgloss.Color("241")
	colorCursor  = lipgloss.Color("11")
	colorBullet  = lipgloss.Color("208")
)

var buildingGlyphs = map[uint8]rune{
	registry.KindMine:     '$',
	registry.KindBarracks: 'B',
	registry.KindTurret:   'T',
	registry.KindWall:     '#',
	registry.KindHealer:   '+',
}

// RosterRow is one base in the side panel.
type RosterRow struct {
	Name      string
	Color     lipgloss.Color
	Neutral   bool
	Local     bool
	Health    int
	Buildings int
	Units     int
}

// Frame is a rendered snapshot of the match.
type Frame struct {
	Map    string
	Roster []RosterRow
	// Cursor is the world position under the placement cursor.
	Cursor core.Vec
}

// ArenaView projects the whole map onto a character canvas. Render is called
// from the network manager goroutine; everything else is safe from any
// goroutine.
type ArenaView struct {
	mu      sync.Mutex
	canvas  *Canvas
	cursorX int
	cursorY int
	bounds  core.Rect
	frame   Frame
}

// NewArenaView creates a view of the given size in characters.
func NewArenaView(width, height int) *ArenaView {
	v := &ArenaView{canvas: NewCanvas(width, height)}
	v.cursorX, v.cursorY = width/2, height/2
	return v
}

// Resize changes the canvas size, keeping the cursor inside it.
func (v *ArenaView) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.canvas.Resize(width, height)
	v.cursorX = clampInt(v.cursorX, 1, width-2)
	v.cursorY = clampInt(v.cursorY, 1, height-2)
}

// MoveCursor shifts the placement cursor by whole cells.
func (v *ArenaView) MoveCursor(dx, dy int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cursorX = clampInt(v.cursorX+dx, 1, v.canvas.Width()-2)
	v.cursorY = clampInt(v.cursorY+dy, 1, v.canvas.Height()-2)
}

// Cursor returns the cursor cell.
func (v *ArenaView) Cursor() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursorX, v.cursorY
}

// CursorWorld returns the world position under the cursor.
func (v *ArenaView) CursorWorld() core.Vec {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cellToWorld(v.cursorX, v.cursorY)
}

// CellSize returns the world distance one cell spans along its longer side.
func (v *ArenaView) CellSize() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	cols, rows := float64(v.canvas.Width()-2), float64(v.canvas.Height()-2)
	if cols <= 0 || rows <= 0 {
		return 0
	}
	return max(v.bounds.Width()/cols, v.bounds.Height()/rows)
}

// Frame returns the latest rendered frame.
func (v *ArenaView) Frame() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame
}

// Render draws the store and the pending prediction.
func (v *ArenaView) Render(store *state.Store, pending *state.Building) {
	v.mu.Lock()
	defer v.mu.Unlock()

	c := v.canvas
	c.Clear()
	v.bounds = store.Map
	if c.Width() < 3 || c.Height() < 3 {
		v.frame = Frame{}
		return
	}
	c.DrawBox(0, 0, c.Width(), c.Height(), colorBorder)

	for _, r := range store.Rocks {
		v.plot(r.Center, '●', colorRock)
	}
	for _, b := range store.Bushes {
		v.plot(b.Center, '♣', colorBush)
	}

	var roster []RosterRow
	drawBase := func(_ uint8, b *state.Base) {
		color := baseColor(b)
		b.Buildings.Each(func(_ uint8, bl *state.Building) {
			v.plot(bl.Pos, glyph(bl.Kind), color)
		})
		b.Units.Each(func(_ uint8, u *state.Unit) {
			v.plot(u.Pos.Displayed, 'o', color)
		})
		b.Bullets.Each(func(_ uint8, bu *state.Bullet) {
			v.plot(bu.Pos.Displayed, '*', colorBullet)
		})
		v.plot(b.Pos.Displayed, '⌂', color)

		roster = append(roster, RosterRow{
			Name:      b.Name,
			Color:     color,
			Neutral:   b.Kind == wire.OwnerNeutral,
			Local:     b.Kind == wire.OwnerPlayer && store.HasLocal && b.ID == store.LocalID,
			Health:    int(b.Health.Target),
			Buildings: b.Buildings.Len(),
			Units:     b.Units.Len(),
		})
	}
	store.Neutral.Each(drawBase)
	store.Players.Each(drawBase)

	if pending != nil {
		v.plot(pending.Pos, glyph(pending.Kind), colorPending)
	}
	c.Set(v.cursorX, v.cursorY, '┼', colorCursor)

	sort.SliceStable(roster, func(i, j int) bool {
		return !roster[i].Neutral && roster[j].Neutral
	})
	v.frame = Frame{
		Map:    c.Render(),
		Roster: roster,
		Cursor: v.cellToWorld(v.cursorX, v.cursorY),
	}
}

// plot draws r at a world position. The border row and column are reserved.
func (v *ArenaView) plot(p core.Vec, r rune, color lipgloss.Color) {
	x, y := v.worldToCell(p)
	v.canvas.Set(x, y, r, color)
}

func (v *ArenaView) worldToCell(p core.Vec) (int, int) {
	w, h := v.bounds.Width(), v.bounds.Height()
	if w <= 0 || h <= 0 {
		return -1, -1
	}
	cols, rows := float64(v.canvas.Width()-2), float64(v.canvas.Height()-2)
	x := int((p.X - v.bounds.Min.X) / w * cols)
	y := int((p.Y - v.bounds.Min.Y) / h * rows)
	return 1 + clampInt(x, 0, int(cols)-1), 1 + clampInt(y, 0, int(rows)-1)
}

// cellToWorld returns the world position at the center of a cell.
func (v *ArenaView) cellToWorld(x, y int) core.Vec {
	cols, rows := float64(v.canvas.Width()-2), float64(v.canvas.Height()-2)
	if cols <= 0 || rows <= 0 {
		return v.bounds.Center()
	}
	return core.V(
		v.bounds.Min.X+(float64(x-1)+0.5)/cols*v.bounds.Width(),
		v.bounds.Min.Y+(float64(y-1)+0.5)/rows*v.bounds.Height(),
	)
}

func baseColor(b *state.Base) lipgloss.Color {
	if hex := b.Color.Hex(); hex != "" {
		return lipgloss.Color(hex)
	}
	return colorNeutral
}

func glyph(kind uint8) rune {
	if r, ok := buildingGlyphs[kind]; ok {
		return r
	}
	return '?'
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
