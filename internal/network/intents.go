package network

import (
	"fmt"
	"math"
	"strings"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/hooks"
	"github.com/vovakirdan/arena-sync/internal/state"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

// Intents below must run on the manager goroutine; use Do from elsewhere.

// Join asks to spawn the local player. The request is remembered and sent
// again after every reconnect; if the connection is not open yet it goes out
// as soon as it is.
func (m *Manager) Join(name string, skin uint8) {
	fp, err := m.skins.Fingerprint()
	if err != nil {
		m.logger.Warn("no client fingerprint", "error", err)
	}
	join := wire.Join{Name: strings.TrimSpace(name), Skin: skin, Fingerprint: fp}
	m.join = &join
	if m.state == Open {
		m.send(join)
	}
}

// Leave removes the local player from the match and stops re-joining on
// reconnect.
func (m *Manager) Leave() error {
	m.join = nil
	m.store.HasLocal = false
	m.cache.Reset()
	return m.send(wire.Leave{})
}

// PlaceBuilding validates a placement locally, shows it optimistically and
// sends it. The optimistic building is confirmed by BuildingPlaced, dropped
// by PlacementFailed, or expires.
func (m *Manager) PlaceBuilding(kind uint8, pos core.Vec) error {
	if m.state != Open {
		m.metrics.CommandsDropped.WithLabelValues(wire.TagPlaceBuilding.String()).Inc()
		return ErrNotOpen
	}
	if err := m.store.CanPlace(kind, pos); err != nil {
		m.hub.Publish(hooks.PlacementRejected{Kind: kind, Reason: err.Error()})
		return err
	}

	b := &state.Building{
		RenderID: m.store.NewRenderID(),
		Kind:     kind,
		Owner:    state.PlayerOwner(m.store.LocalID),
		Pos:      pos,
	}
	if err := m.cache.Predict(b, m.clock()); err != nil {
		return err
	}
	if err := m.send(wire.PlaceBuilding{Kind: kind, X: float32(pos.X), Y: float32(pos.Y)}); err != nil {
		m.cache.Reject()
		return err
	}
	m.store.Placements++
	m.metrics.Predictions.WithLabelValues("predicted").Inc()
	return nil
}

// RemoveBuildings sells buildings of the local player or of a neutral base
// it controls.
func (m *Manager) RemoveBuildings(owner state.Owner, ids []uint8) error {
	neutral, err := m.commandOwner(owner)
	if err != nil {
		return err
	}
	return m.send(wire.RemoveBuildings{HasNeutral: neutral, NeutralID: owner.ID, IDs: ids})
}

// UpgradeBuildings moves buildings to variant.
func (m *Manager) UpgradeBuildings(owner state.Owner, variant uint8, ids []uint8) error {
	neutral, err := m.commandOwner(owner)
	if err != nil {
		return err
	}
	return m.send(wire.UpgradeBuildings{HasNeutral: neutral, NeutralID: owner.ID, Variant: variant, IDs: ids})
}

// commandOwner checks that the local player may command owner's buildings.
func (m *Manager) commandOwner(owner state.Owner) (bool, error) {
	if !m.store.HasLocal {
		return false, state.ErrNotJoined
	}
	if owner.Kind == wire.OwnerPlayer {
		if owner.ID != m.store.LocalID {
			return false, fmt.Errorf("network: player %d is not local", owner.ID)
		}
		return false, nil
	}
	for _, id := range m.store.ControlledNeutral() {
		if id == owner.ID {
			return true, nil
		}
	}
	return false, fmt.Errorf("network: neutral base %d is not controlled", owner.ID)
}

// MoveUnits orders units to target. With no ids the current selection moves.
func (m *Manager) MoveUnits(target core.Vec, ids []uint8) error {
	if ids == nil {
		ids = m.store.SelectedUnits()
	}
	if len(ids) == 0 {
		return nil
	}
	x := core.Clamp(target.X, m.store.Map.Min.X, m.store.Map.Max.X)
	y := core.Clamp(target.Y, m.store.Map.Min.Y, m.store.Map.Max.Y)
	return m.send(wire.MoveUnits{TargetX: toU16(x), TargetY: toU16(y), IDs: ids})
}

func toU16(v float64) uint16 {
	return uint16(math.Round(core.Clamp(v, 0, math.MaxUint16)))
}

// SetCamera moves the local camera and reports the viewport to the server.
func (m *Manager) SetCamera(pos core.Vec, zoom float64) error {
	m.store.Camera.Follow(pos)
	m.store.Camera.SetZoom(zoom)
	return m.send(wire.NewCameraUpdate(pos.X, pos.Y, m.store.Camera.Zoom.Target))
}

// SendChat sends a chat line. Blank text is ignored.
func (m *Manager) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return m.send(wire.ChatMessage{Text: text})
}

// SetUnitSpawning turns production of a local barracks on or off.
func (m *Manager) SetUnitSpawning(building uint8, active bool) error {
	return m.send(wire.SetUnitSpawning{Building: building, Active: active})
}

// SetBuildingTarget points a local building at pos.
func (m *Manager) SetBuildingTarget(building uint8, pos core.Vec) error {
	return m.send(wire.SetBuildingTarget{Building: building, X: float32(pos.X), Y: float32(pos.Y)})
}

// Resync asks for a full state refresh, e.g. when the window regains focus.
func (m *Manager) Resync() error {
	if m.state != Open {
		return ErrNotOpen
	}
	m.requestResync("manual", m.clock())
	return nil
}

// SelectBuildings selects buildings locally.
func (m *Manager) SelectBuildings(owner state.Owner, ids []uint8) {
	m.store.SelectBuildings(owner, ids)
}

// SelectUnits selects local units.
func (m *Manager) SelectUnits(ids []uint8) {
	m.store.SelectUnits(ids)
}

// Highlight marks the hovered building.
func (m *Manager) Highlight(owner state.Owner, id uint8) {
	m.store.HighlightBuilding(owner, id)
}
