package network

import (
	"errors"
	"time"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/hooks"
	"github.com/vovakirdan/arena-sync/internal/state"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

type handler func(m *Manager, ev wire.Event, now time.Time)

// on adapts a typed handler to the dispatch table.
func on[E wire.Event](fn func(m *Manager, ev E, now time.Time)) handler {
	return func(m *Manager, ev wire.Event, now time.Time) {
		if e, ok := ev.(E); ok {
			fn(m, e, now)
		}
	}
}

// handlers maps every event tag the client understands to its handler.
// Tags missing here, wire.Unknown included, are dropped.
var handlers = map[wire.Tag]handler{
	wire.TagWelcome:             on((*Manager).onWelcome),
	wire.TagGameState:           on((*Manager).onGameState),
	wire.TagPlayerJoined:        on((*Manager).onPlayerJoined),
	wire.TagPlayerLeft:          on((*Manager).onPlayerLeft),
	wire.TagBuildingPlaced:      on((*Manager).onBuildingPlaced),
	wire.TagBuildingsRemoved:    on((*Manager).onBuildingsRemoved),
	wire.TagBuildingsUpgraded:   on((*Manager).onBuildingsUpgraded),
	wire.TagPlacementFailed:     on((*Manager).onPlacementFailed),
	wire.TagUnitSpawned:         on((*Manager).onUnitSpawned),
	wire.TagUnitPositions:       on((*Manager).onUnitPositions),
	wire.TagUnitsKilled:         on((*Manager).onUnitsKilled),
	wire.TagBulletFired:         on((*Manager).onBulletFired),
	wire.TagBulletsRemoved:      on((*Manager).onBulletsRemoved),
	wire.TagHealthUpdate:        on((*Manager).onHealthUpdate),
	wire.TagResourceUpdate:      on((*Manager).onResourceUpdate),
	wire.TagChatBroadcast:       on((*Manager).onChatBroadcast),
	wire.TagSkinDataMissing:     on((*Manager).onSkinDataMissing),
	wire.TagSkinData:            on((*Manager).onSkinData),
	wire.TagBaseCaptured:        on((*Manager).onBaseCaptured),
	wire.TagBaseDestroyed:       on((*Manager).onBaseDestroyed),
	wire.TagUnitSpawningToggled: on((*Manager).onUnitSpawningToggled),
	wire.TagBuildingTarget:      on((*Manager).onBuildingTarget),
}

// HandleFrame decodes one inbound frame and runs its handler to completion.
// Malformed frames are logged and dropped.
func (m *Manager) HandleFrame(frame []byte, now time.Time) {
	ev, err := wire.DecodeEvent(frame)
	if err != nil {
		tag := "none"
		var de *wire.DecodeError
		if errors.As(err, &de) {
			tag = de.Tag.String()
		}
		m.metrics.DecodeErrors.Inc()
		m.logger.Warn("dropping malformed frame", "tag", tag, "size", len(frame), "error", err)
		return
	}

	h, ok := handlers[ev.Tag()]
	if !ok {
		m.metrics.Unhandled.Inc()
		m.logger.Debug("ignoring frame", "tag", ev.Tag())
		return
	}
	m.metrics.Events.WithLabelValues(ev.Tag().String()).Inc()
	h(m, ev, now)
}

func (m *Manager) isLocal(kind wire.OwnerKind, id uint8) bool {
	return kind == wire.OwnerPlayer && m.store.HasLocal && m.store.LocalID == id
}

func (m *Manager) decPlacements() {
	if m.store.Placements > 0 {
		m.store.Placements--
	}
}

// requestSkin asks for a custom skin the cache lacks, at most once per
// connection.
func (m *Manager) requestSkin(skin uint8) {
	if m.skins.Has(skin) || !m.skins.MarkRequested(skin) {
		return
	}
	if err := m.send(wire.RequestSkinData{Skin: skin}); err != nil {
		m.logger.Debug("skin request not sent", "skin", skin, "error", err)
	}
}

func (m *Manager) followLocal() {
	if b, ok := m.store.LocalBase(); ok {
		m.store.Camera.Follow(b.Pos.Target)
	}
}

func (m *Manager) onWelcome(ev wire.Welcome, _ time.Time) {
	m.store.SetLocal(ev.PlayerID)
	m.followLocal()
	m.logger.Info("joined", "player", ev.PlayerID)
	m.hub.Publish(hooks.Joined{LocalID: ev.PlayerID})
}

func (m *Manager) onGameState(ev wire.GameState, now time.Time) {
	m.store.ApplyGameState(ev)
	m.cache.Reset()
	m.store.Placements = 0
	m.resyncAt = now.Add(m.config.ResyncTimeout)
	for _, p := range ev.Players {
		m.requestSkin(p.Skin)
	}
	m.followLocal()
	m.logger.Debug("game state applied", "players", len(ev.Players), "neutral", len(ev.NeutralBases))
}

func (m *Manager) onPlayerJoined(ev wire.PlayerJoined, _ time.Time) {
	m.store.AddPlayer(ev)
	m.requestSkin(ev.Skin)
	if m.isLocal(wire.OwnerPlayer, ev.ID) {
		m.followLocal()
	}
}

func (m *Manager) onPlayerLeft(ev wire.PlayerLeft, _ time.Time) {
	m.store.RemovePlayer(ev.ID)
}

func (m *Manager) onBuildingPlaced(ev wire.BuildingPlaced, now time.Time) {
	var reuse *state.Building
	if m.isLocal(ev.OwnerKind, ev.OwnerID) {
		if b, ok := m.cache.Confirm(ev.Kind, now); ok {
			reuse = b
			m.metrics.Predictions.WithLabelValues("confirmed").Inc()
		}
		m.decPlacements()
	}
	m.store.PlaceBuilding(ev, reuse)
}

func (m *Manager) onBuildingsRemoved(ev wire.BuildingsRemoved, _ time.Time) {
	m.store.RemoveBuildings(state.Owner{Kind: ev.OwnerKind, ID: ev.OwnerID}, ev.IDs)
}

func (m *Manager) onBuildingsUpgraded(ev wire.BuildingsUpgraded, _ time.Time) {
	m.store.UpgradeBuildings(state.Owner{Kind: ev.OwnerKind, ID: ev.OwnerID}, ev.Variant, ev.IDs)
}

func (m *Manager) onPlacementFailed(ev wire.PlacementFailed, _ time.Time) {
	if _, ok := m.cache.Reject(); ok {
		m.metrics.Predictions.WithLabelValues("rejected").Inc()
	}
	m.decPlacements()
	m.hub.Publish(hooks.PlacementRejected{Kind: ev.Kind, Reason: "rejected by server"})
}

func (m *Manager) onUnitSpawned(ev wire.UnitSpawned, _ time.Time) {
	m.store.SpawnUnit(ev)
}

func (m *Manager) onUnitPositions(ev wire.UnitPositions, _ time.Time) {
	m.store.MoveUnits(ev)
}

func (m *Manager) onUnitsKilled(ev wire.UnitsKilled, _ time.Time) {
	m.store.KillUnits(ev.OwnerID, ev.IDs)
}

func (m *Manager) onBulletFired(ev wire.BulletFired, _ time.Time) {
	m.store.FireBullet(ev)
}

func (m *Manager) onBulletsRemoved(ev wire.BulletsRemoved, _ time.Time) {
	m.store.RemoveBullets(state.Owner{Kind: ev.OwnerKind, ID: ev.OwnerID}, ev.IDs)
}

func (m *Manager) onHealthUpdate(ev wire.HealthUpdate, _ time.Time) {
	m.store.SetHealth(state.Owner{Kind: ev.OwnerKind, ID: ev.ID}, ev.Health)
}

func (m *Manager) onResourceUpdate(ev wire.ResourceUpdate, now time.Time) {
	m.store.SetResources(ev.Tick, ev.Gold)
	m.resyncAt = now.Add(m.config.ResyncTimeout)
}

func (m *Manager) onChatBroadcast(ev wire.ChatBroadcast, _ time.Time) {
	line := m.store.AddChat(ev.PlayerID, ev.Text)
	m.hub.Publish(hooks.ChatReceived{Line: line})
}

func (m *Manager) onSkinDataMissing(ev wire.SkinDataMissing, _ time.Time) {
	m.requestSkin(ev.Skin)
}

func (m *Manager) onSkinData(ev wire.SkinData, _ time.Time) {
	if err := m.skins.Put(ev.Skin, ev.Data); err != nil {
		m.logger.Warn("failed to cache skin", "skin", ev.Skin, "error", err)
	}
	m.hub.Publish(hooks.SkinReady{Skin: ev.Skin})
}

func (m *Manager) onBaseCaptured(ev wire.BaseCaptured, _ time.Time) {
	m.store.CaptureBase(ev)
}

func (m *Manager) onBaseDestroyed(ev wire.BaseDestroyed, _ time.Time) {
	if m.store.DestroyBase(state.Owner{Kind: ev.OwnerKind, ID: ev.ID}) && m.isLocal(ev.OwnerKind, ev.ID) {
		m.logger.Info("local base destroyed", "player", ev.ID)
	}
}

func (m *Manager) onUnitSpawningToggled(ev wire.UnitSpawningToggled, _ time.Time) {
	m.store.SetSpawning(state.Owner{Kind: ev.OwnerKind, ID: ev.OwnerID}, ev.BuildingID, ev.Active)
}

func (m *Manager) onBuildingTarget(ev wire.BuildingTarget, _ time.Time) {
	p := core.V(float64(ev.X), float64(ev.Y))
	m.store.SetBuildingTarget(state.Owner{Kind: ev.OwnerKind, ID: ev.OwnerID}, ev.BuildingID, p)
}
