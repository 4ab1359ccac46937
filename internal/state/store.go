// Package state is the client's local model of the match: every player and
// neutral base with their buildings, units and bullets, the scenery, and the
// local player's own bookkeeping.
//
// The store is owned by a single goroutine (the network manager loop). Every
// mutation takes wire IDs and is a silent no-op when an ID is unknown, since
// updates may arrive for entities this client has not seen yet or has
// already removed.
package state

import (
	"time"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/interp"
	"github.com/vovakirdan/arena-sync/internal/registry"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

// Store holds the local view of the match.
type Store struct {
	Players *Collection[*Base]
	Neutral *Collection[*Base]
	Bushes  []Scenery
	Rocks   []Scenery

	// LocalID is valid once HasLocal is set by Welcome.
	LocalID  uint8
	HasLocal bool
	Gold     uint32
	Tick     uint32
	// Placements counts placements sent and not yet answered.
	Placements int

	Map    core.Rect
	Camera Camera
	Chat   *ChatLog

	renderSeq uint64
}

// NewStore creates an empty store for a map of the given bounds.
func NewStore(bounds core.Rect, viewport core.Vec) *Store {
	return &Store{
		Players: NewCollection[*Base](),
		Neutral: NewCollection[*Base](),
		Map:     bounds,
		Camera:  NewCamera(viewport),
		Chat:    NewChatLog(ChatCapacity),
	}
}

// NewRenderID returns a fresh identity for a visual.
func (s *Store) NewRenderID() uint64 {
	s.renderSeq++
	return s.renderSeq
}

// SetLocal records the local player's ID.
func (s *Store) SetLocal(id uint8) {
	s.LocalID = id
	s.HasLocal = true
}

// Base returns the player or neutral base identified by owner.
func (s *Store) Base(owner Owner) (*Base, bool) {
	if owner.Kind == wire.OwnerNeutral {
		return s.Neutral.Get(owner.ID)
	}
	return s.Players.Get(owner.ID)
}

// LocalBase returns the local player's base.
func (s *Store) LocalBase() (*Base, bool) {
	if !s.HasLocal {
		return nil, false
	}
	return s.Players.Get(s.LocalID)
}

// ApplyGameState reconciles the model with a full snapshot. Entities the
// store already holds keep their visual state and only receive new targets;
// entities seen for the first time snap into place; entities missing from
// the snapshot fade out. Bullets are not part of a snapshot, so every one in
// flight fades.
func (s *Store) ApplyGameState(gs wire.GameState) {
	players := make(map[uint8]bool, len(gs.Players))
	for _, p := range gs.Players {
		players[p.ID] = true
		b := s.syncBase(s.Players, wire.OwnerPlayer, p.ID, point(p.X, p.Y), p.Health)
		b.Color = p.Color
		b.Name = p.Name
		b.Skin = p.Skin
		s.syncBuildings(b, p.Buildings)
		s.syncUnits(b, p.Units)
	}
	fadeMissing(s.Players, players)

	neutral := make(map[uint8]bool, len(gs.NeutralBases))
	for _, n := range gs.NeutralBases {
		neutral[n.ID] = true
		b := s.syncBase(s.Neutral, wire.OwnerNeutral, n.ID, point(n.X, n.Y), n.Health)
		b.Color = n.Color
		s.syncBuildings(b, n.Buildings)
	}
	fadeMissing(s.Neutral, neutral)

	s.Bushes = scenery(gs.Bushes)
	s.Rocks = scenery(gs.Rocks)
}

// syncBase returns the live base with id, retargeted to pos and health, or
// a new one snapped to them.
func (s *Store) syncBase(c *Collection[*Base], kind wire.OwnerKind, id uint8, pos core.Vec, health uint16) *Base {
	b, ok := c.Get(id)
	if !ok {
		b = newBase(kind, id)
		b.Pos.Snap(pos)
		b.Health = interp.NewSpring(float64(health))
		c.Put(id, b)
		return b
	}
	b.Pos.Target = pos
	b.Health.Target = float64(health)
	for _, bid := range b.Bullets.IDs() {
		b.Bullets.Remove(bid)
	}
	return b
}

func (s *Store) syncBuildings(b *Base, records []wire.BuildingRecord) {
	keep := make(map[uint8]bool, len(records))
	for _, r := range records {
		keep[r.ID] = true
		if bl, ok := b.Buildings.Get(r.ID); ok && bl.Kind == r.Kind {
			bl.Variant = r.Variant
			bl.Pos = point(r.X, r.Y)
			continue
		}
		s.putBuilding(b, &Building{
			ID:      r.ID,
			Kind:    r.Kind,
			Variant: r.Variant,
			Pos:     point(r.X, r.Y),
		})
	}
	fadeMissing(b.Buildings, keep)
}

func (s *Store) syncUnits(b *Base, records []wire.UnitRecord) {
	keep := make(map[uint8]bool, len(records))
	for _, r := range records {
		keep[r.ID] = true
		if u, ok := b.Units.Get(r.ID); ok && u.Kind == r.Kind {
			u.Variant = r.Variant
			u.MoveTo(point(r.X, r.Y))
			continue
		}
		u := &Unit{
			ID:       r.ID,
			RenderID: s.NewRenderID(),
			Kind:     r.Kind,
			Variant:  r.Variant,
			Owner:    b.ID,
			Spawn:    interp.Ramp{Duration: SpawnDuration, Elapsed: SpawnDuration},
		}
		u.Pos.Snap(point(r.X, r.Y))
		b.Units.Put(r.ID, u)
	}
	fadeMissing(b.Units, keep)
}

// fadeMissing removes every live entity whose ID is not in keep.
func fadeMissing[E entity](c *Collection[E], keep map[uint8]bool) {
	for _, id := range c.IDs() {
		if !keep[id] {
			c.Remove(id)
		}
	}
}

func (s *Store) putBuilding(b *Base, bl *Building) {
	if bl.RenderID == 0 {
		bl.RenderID = s.NewRenderID()
	}
	bl.Owner = b.Owner()
	b.Buildings.Put(bl.ID, bl)
}

func scenery(in []wire.Scenery) []Scenery {
	out := make([]Scenery, 0, len(in))
	for _, sc := range in {
		out = append(out, Scenery{core.Circle{Center: point(sc.X, sc.Y), R: float64(sc.Radius)}})
	}
	return out
}

func point(x, y float32) core.Vec {
	return core.V(float64(x), float64(y))
}

// AddPlayer creates or replaces a player base.
func (s *Store) AddPlayer(ev wire.PlayerJoined) *Base {
	b := newBase(wire.OwnerPlayer, ev.ID)
	b.Color = ev.Color
	b.Name = ev.Name
	b.Skin = ev.Skin
	b.Pos.Snap(point(ev.X, ev.Y))
	b.Health = interp.NewSpring(float64(ev.Health))
	s.Players.Put(ev.ID, b)
	return b
}

// RemovePlayer fades a player base out.
func (s *Store) RemovePlayer(id uint8) bool {
	_, ok := s.Players.Remove(id)
	return ok
}

// PlaceBuilding adds a confirmed building. When reuse is non-nil its visual
// identity is kept and its ID and position are overwritten with the
// server's.
func (s *Store) PlaceBuilding(ev wire.BuildingPlaced, reuse *Building) (*Building, bool) {
	b, ok := s.Base(Owner{Kind: ev.OwnerKind, ID: ev.OwnerID})
	if !ok {
		return nil, false
	}
	bl := reuse
	if bl == nil {
		bl = &Building{}
	}
	bl.ID = ev.BuildingID
	bl.Kind = ev.Kind
	bl.Pos = point(ev.X, ev.Y)
	bl.Spawning = ev.Spawning
	bl.Fade = nil
	s.putBuilding(b, bl)
	return bl, true
}

// RemoveBuildings fades out the listed buildings and returns how many were
// found.
func (s *Store) RemoveBuildings(owner Owner, ids []uint8) int {
	b, ok := s.Base(owner)
	if !ok {
		return 0
	}
	n := 0
	for _, id := range ids {
		if _, ok := b.Buildings.Remove(id); ok {
			n++
		}
	}
	return n
}

// UpgradeBuildings sets the variant of the listed buildings.
func (s *Store) UpgradeBuildings(owner Owner, variant uint8, ids []uint8) int {
	b, ok := s.Base(owner)
	if !ok {
		return 0
	}
	n := 0
	for _, id := range ids {
		if bl, ok := b.Buildings.Get(id); ok {
			bl.Variant = variant
			n++
		}
	}
	return n
}

// SpawnUnit adds a unit that walks out of its barracks over SpawnDuration.
// The owner must be known; an unknown building only skips the walk-out.
func (s *Store) SpawnUnit(ev wire.UnitSpawned) (*Unit, bool) {
	b, ok := s.Players.Get(ev.OwnerID)
	if !ok {
		return nil, false
	}
	target := point(ev.X, ev.Y)
	u := &Unit{
		ID:       ev.UnitID,
		RenderID: s.NewRenderID(),
		Kind:     ev.Kind,
		Variant:  ev.Variant,
		Owner:    ev.OwnerID,
		Spawn:    interp.Ramp{Duration: SpawnDuration},
	}
	if bl, ok := b.Buildings.Get(ev.BuildingID); ok {
		u.Pos.Snap(bl.Pos)
		u.MoveTo(target)
	} else {
		u.Pos.Snap(target)
		u.Spawn.Elapsed = SpawnDuration
	}
	b.Units.Put(ev.UnitID, u)
	return u, true
}

// MoveUnits applies a batch of authoritative unit positions.
func (s *Store) MoveUnits(ev wire.UnitPositions) int {
	b, ok := s.Players.Get(ev.OwnerID)
	if !ok {
		return 0
	}
	n := 0
	for _, p := range ev.Positions {
		if u, ok := b.Units.Get(p.ID); ok {
			u.MoveTo(core.V(float64(p.X), float64(p.Y)))
			n++
		}
	}
	return n
}

// KillUnits fades out units.
func (s *Store) KillUnits(owner uint8, ids []uint8) int {
	b, ok := s.Players.Get(owner)
	if !ok {
		return 0
	}
	n := 0
	for _, id := range ids {
		if _, ok := b.Units.Remove(id); ok {
			n++
		}
	}
	return n
}

// FireBullet spawns a bullet heading for its target.
func (s *Store) FireBullet(ev wire.BulletFired) (*Bullet, bool) {
	owner := Owner{Kind: ev.OwnerKind, ID: ev.OwnerID}
	b, ok := s.Base(owner)
	if !ok {
		return nil, false
	}
	bu := &Bullet{ID: ev.BulletID, RenderID: s.NewRenderID(), Owner: owner}
	bu.Pos.Snap(point(ev.X, ev.Y))
	bu.Pos.Target = point(ev.TargetX, ev.TargetY)
	b.Bullets.Put(ev.BulletID, bu)
	return bu, true
}

// RemoveBullets fades out bullets.
func (s *Store) RemoveBullets(owner Owner, ids []uint8) int {
	b, ok := s.Base(owner)
	if !ok {
		return 0
	}
	n := 0
	for _, id := range ids {
		if _, ok := b.Bullets.Remove(id); ok {
			n++
		}
	}
	return n
}

// SetHealth sets a base's health target; the displayed value springs to it.
func (s *Store) SetHealth(owner Owner, health uint16) bool {
	b, ok := s.Base(owner)
	if !ok {
		return false
	}
	b.Health.Target = float64(health)
	return true
}

// CaptureBase hands a neutral base to a player.
func (s *Store) CaptureBase(ev wire.BaseCaptured) bool {
	b, ok := s.Neutral.Get(ev.NeutralID)
	if !ok {
		return false
	}
	b.Captured = true
	b.Controller = ev.OwnerID
	b.Color = ev.Color
	return true
}

// DestroyBase fades out a base with everything it owns.
func (s *Store) DestroyBase(owner Owner) bool {
	if owner.Kind == wire.OwnerNeutral {
		_, ok := s.Neutral.Remove(owner.ID)
		return ok
	}
	_, ok := s.Players.Remove(owner.ID)
	return ok
}

// SetSpawning sets the production flag of a building.
func (s *Store) SetSpawning(owner Owner, building uint8, active bool) bool {
	bl, ok := s.building(owner, building)
	if !ok {
		return false
	}
	bl.Spawning = active
	return true
}

// SetBuildingTarget points a building at p.
func (s *Store) SetBuildingTarget(owner Owner, building uint8, p core.Vec) bool {
	bl, ok := s.building(owner, building)
	if !ok {
		return false
	}
	bl.SetTarget(p)
	return true
}

func (s *Store) building(owner Owner, id uint8) (*Building, bool) {
	b, ok := s.Base(owner)
	if !ok {
		return nil, false
	}
	return b.Buildings.Get(id)
}

// SetResources records the latest tick and the local player's gold.
func (s *Store) SetResources(tick, gold uint32) {
	s.Tick = tick
	s.Gold = gold
}

// AddChat appends a chat line, resolving the sender's name and color.
func (s *Store) AddChat(playerID uint8, text string) ChatLine {
	line := ChatLine{PlayerID: playerID, Text: text}
	if b, ok := s.Players.Get(playerID); ok {
		line.Name = b.Name
		line.Color = b.Color.Hex()
	}
	s.Chat.Add(line)
	return line
}

// ControlledNeutral returns the neutral bases captured by the local player.
func (s *Store) ControlledNeutral() []uint8 {
	var out []uint8
	if !s.HasLocal {
		return out
	}
	s.Neutral.Each(func(id uint8, b *Base) {
		if b.Captured && b.Controller == s.LocalID {
			out = append(out, id)
		}
	})
	return out
}

// SelectBuildings marks the listed buildings of owner as selected and
// clears every other building selection.
func (s *Store) SelectBuildings(owner Owner, ids []uint8) {
	s.clearBuildingSelection()
	for _, id := range ids {
		if bl, ok := s.building(owner, id); ok {
			bl.Selection = Selected
		}
	}
}

// HighlightBuilding marks a hovered building. Selected buildings keep their
// selection.
func (s *Store) HighlightBuilding(owner Owner, id uint8) {
	s.eachBuilding(func(bl *Building) {
		if bl.Selection == Highlighted {
			bl.Selection = NotSelected
		}
	})
	if bl, ok := s.building(owner, id); ok && bl.Selection == NotSelected {
		bl.Selection = Highlighted
	}
}

// SelectedBuildings returns the selected building IDs of owner.
func (s *Store) SelectedBuildings(owner Owner) []uint8 {
	var out []uint8
	if b, ok := s.Base(owner); ok {
		b.Buildings.Each(func(id uint8, bl *Building) {
			if bl.Selection == Selected {
				out = append(out, id)
			}
		})
	}
	return out
}

// SelectUnits selects the listed local units and deselects the rest.
func (s *Store) SelectUnits(ids []uint8) {
	b, ok := s.LocalBase()
	if !ok {
		return
	}
	want := make(map[uint8]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	b.Units.Each(func(id uint8, u *Unit) {
		u.Selected = want[id]
	})
}

// SelectedUnits returns the selected local unit IDs.
func (s *Store) SelectedUnits() []uint8 {
	var out []uint8
	if b, ok := s.LocalBase(); ok {
		b.Units.Each(func(id uint8, u *Unit) {
			if u.Selected {
				out = append(out, id)
			}
		})
	}
	return out
}

// ClearSelection deselects every building and unit.
func (s *Store) ClearSelection() {
	s.clearBuildingSelection()
	s.SelectUnits(nil)
}

func (s *Store) clearBuildingSelection() {
	s.eachBuilding(func(bl *Building) {
		bl.Selection = NotSelected
	})
}

func (s *Store) eachBuilding(fn func(*Building)) {
	visit := func(_ uint8, b *Base) {
		b.Buildings.Each(func(_ uint8, bl *Building) { fn(bl) })
	}
	s.Players.Each(visit)
	s.Neutral.Each(visit)
}

// Update advances every interpolator, fade and spawn transition by dt.
func (s *Store) Update(dt time.Duration) {
	ratio := interp.FrameRatio(interp.PositionRatio, dt)
	step := func(b *Base) { b.update(dt, ratio) }
	s.Players.Update(dt, step)
	s.Neutral.Update(dt, step)
	s.Camera.Update(dt)
}

// BuildingCost returns the gold cost of a building kind.
func BuildingCost(kind uint8) (uint32, bool) {
	b, ok := registry.BuildingKind(kind)
	return b.Cost, ok
}
