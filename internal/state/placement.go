package state

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/registry"
)

// Placement failures.
var (
	ErrUnknownKind  = errors.New("state: unknown building kind")
	ErrNotJoined    = errors.New("state: local player has not joined")
	ErrOutOfBounds  = errors.New("state: outside the map")
	ErrUnaffordable = errors.New("state: not enough gold")
	ErrCollision    = errors.New("state: position is occupied")
)

// CanPlace runs the local placement checks the server will run again
// authoritatively: map bounds, affordability, and collision against every
// live building, rock and base.
func (s *Store) CanPlace(kind uint8, pos core.Vec) error {
	behaviour, ok := registry.BuildingKind(kind)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	if _, ok := s.LocalBase(); !ok {
		return ErrNotJoined
	}
	footprint := core.Circle{Center: pos, R: behaviour.Radius}
	if !s.Map.ContainsCircle(footprint) {
		return ErrOutOfBounds
	}
	if s.Gold < behaviour.Cost {
		return fmt.Errorf("%w: have %d, need %d", ErrUnaffordable, s.Gold, behaviour.Cost)
	}
	for _, r := range s.Rocks {
		if footprint.Overlaps(r.Circle) {
			return fmt.Errorf("%w: rock at %.0f,%.0f", ErrCollision, r.Center.X, r.Center.Y)
		}
	}

	var hit error
	check := func(_ uint8, b *Base) {
		if hit != nil {
			return
		}
		if footprint.Overlaps(b.Footprint()) {
			hit = fmt.Errorf("%w: %s base %d", ErrCollision, b.Kind, b.ID)
			return
		}
		b.Buildings.Each(func(id uint8, bl *Building) {
			if hit != nil {
				return
			}
			if footprint.Overlaps(buildingFootprint(bl)) {
				hit = fmt.Errorf("%w: building %d", ErrCollision, id)
			}
		})
	}
	s.Players.Each(check)
	s.Neutral.Each(check)
	return hit
}

func buildingFootprint(bl *Building) core.Circle {
	r := 0.0
	if b, ok := registry.BuildingKind(bl.Kind); ok {
		r = b.Radius
	}
	return core.Circle{Center: bl.Pos, R: r}
}
