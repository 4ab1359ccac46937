package state

import (
	"time"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/interp"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

// Owner identifies the base an entity belongs to.
type Owner struct {
	Kind wire.OwnerKind
	ID   uint8
}

// PlayerOwner is shorthand for an Owner of kind player.
func PlayerOwner(id uint8) Owner {
	return Owner{Kind: wire.OwnerPlayer, ID: id}
}

// NeutralOwner is shorthand for an Owner of kind neutral.
func NeutralOwner(id uint8) Owner {
	return Owner{Kind: wire.OwnerNeutral, ID: id}
}

// Selection is the local highlight state of a building.
type Selection uint8

const (
	NotSelected Selection = iota
	Selected
	Highlighted
)

// SpawnDuration is how long a freshly spawned unit takes to walk out of its
// barracks.
const SpawnDuration = 400 * time.Millisecond

// BaseRadius is the collision footprint of a player or neutral base.
const BaseRadius = 40.0

// Fading is embedded by every entity that animates out on removal.
type Fading struct {
	Fade *interp.Fade
}

// StartFade begins the removal animation. Calling it again is a no-op.
func (f *Fading) StartFade() {
	if f.Fade == nil {
		f.Fade = interp.NewFade()
	}
}

// IsFading reports whether the entity has been removed and is animating out.
func (f *Fading) IsFading() bool {
	return f.Fade != nil
}

func (f *Fading) advanceFade(dt time.Duration) bool {
	if f.Fade == nil {
		return false
	}
	f.Fade.Advance(dt)
	return f.Fade.Done()
}

// Building is a placed structure.
type Building struct {
	Fading

	ID uint8
	// RenderID is stable for the lifetime of the visual, including across a
	// prediction being confirmed under a server-assigned ID.
	RenderID  uint64
	Kind      uint8
	Variant   uint8
	Owner     Owner
	Pos       core.Vec
	Target    core.Vec
	HasTarget bool
	Facing    interp.Angle
	Selection Selection
	Spawning  bool
}

// SetTarget points the building at p.
func (b *Building) SetTarget(p core.Vec) {
	b.Target = p
	b.HasTarget = true
	b.Facing.Set(p.Sub(b.Pos).Angle())
}

// Unit is a mobile entity. Positions are smoothed towards the last server
// update.
type Unit struct {
	Fading

	ID       uint8
	RenderID uint64
	Kind     uint8
	Variant  uint8
	Owner    uint8
	Pos      interp.Vec
	Rotation interp.Angle
	Selected bool
	Spawn    interp.Ramp
}

// MoveTo sets a new target position and turns the unit towards it.
func (u *Unit) MoveTo(p core.Vec) {
	u.Pos.Target = p
	d := p.Sub(u.Pos.Displayed)
	if d.Len() > interp.Epsilon {
		u.Rotation.Set(d.Angle())
	}
}

// Spawning reports whether the unit is still leaving its barracks.
func (u *Unit) Spawning() bool {
	return !u.Spawn.Done()
}

// Bullet is a projectile travelling to a fixed target.
type Bullet struct {
	Fading

	ID       uint8
	RenderID uint64
	Owner    Owner
	Pos      interp.Vec
}

// Base is a player's or a neutral base and everything it owns.
type Base struct {
	Fading

	Kind   wire.OwnerKind
	ID     uint8
	Color  wire.Color
	Name   string
	Skin   uint8
	Pos    interp.Vec
	Health interp.Spring

	// Captured and Controller are only meaningful for neutral bases.
	Captured   bool
	Controller uint8

	Buildings *Collection[*Building]
	Units     *Collection[*Unit]
	Bullets   *Collection[*Bullet]
}

func newBase(kind wire.OwnerKind, id uint8) *Base {
	return &Base{
		Kind:      kind,
		ID:        id,
		Health:    interp.NewSpring(0),
		Buildings: NewCollection[*Building](),
		Units:     NewCollection[*Unit](),
		Bullets:   NewCollection[*Bullet](),
	}
}

// Owner returns the owner key of entities belonging to this base.
func (b *Base) Owner() Owner {
	return Owner{Kind: b.Kind, ID: b.ID}
}

// Footprint returns the base's collision circle.
func (b *Base) Footprint() core.Circle {
	return core.Circle{Center: b.Pos.Target, R: BaseRadius}
}

// SpawningUnits returns the units still in their spawn transition.
func (b *Base) SpawningUnits() []*Unit {
	var out []*Unit
	b.Units.Each(func(_ uint8, u *Unit) {
		if u.Spawning() {
			out = append(out, u)
		}
	})
	return out
}

func (b *Base) update(dt time.Duration, ratio float64) {
	b.Pos.Step(ratio)
	b.Health.Step()
	b.Buildings.Update(dt, func(bl *Building) {
		bl.Facing.Step(ratio)
	})
	b.Units.Update(dt, func(u *Unit) {
		u.Spawn.Advance(dt)
		u.Pos.Step(ratio)
		u.Rotation.Step(ratio)
	})
	b.Bullets.Update(dt, func(bu *Bullet) {
		bu.Pos.Step(ratio)
	})
}

// Scenery is a static obstacle.
type Scenery struct {
	core.Circle
}
