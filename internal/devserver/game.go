package devserver

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/registry"
	"github.com/vovakirdan/arena-sync/internal/state"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

type message interface {
	gameMessage()
}

type connectMsg struct{ session *Session }

type commandMsg struct {
	session *Session
	cmd     wire.Command
}

type disconnectMsg struct{ session *Session }

func (connectMsg) gameMessage()    {}
func (commandMsg) gameMessage()    {}
func (disconnectMsg) gameMessage() {}

type building struct {
	id, kind, variant uint8
	pos               core.Vec
	spawning          bool
	target            core.Vec
	sinceSpawn        int
}

type unit struct {
	id, kind uint8
	pos      core.Vec
}

type player struct {
	id        uint8
	session   *Session
	name      string
	skin      uint8
	color     wire.Color
	pos       core.Vec
	health    uint16
	gold      uint32
	buildings map[uint8]*building
	units     map[uint8]*unit
}

type neutralBase struct {
	id        uint8
	color     wire.Color
	pos       core.Vec
	health    uint16
	captured  bool
	owner     uint8
	buildings map[uint8]*building
}

var palette = []wire.Color{
	wire.RGB(0xe6, 0x39, 0x46),
	wire.RGB(0x45, 0x7b, 0x9d),
	wire.RGB(0x2a, 0x9d, 0x8f),
	wire.RGB(0xe9, 0xc4, 0x6a),
	wire.RGB(0xf4, 0xa2, 0x61),
	wire.RGB(0x6d, 0x59, 0x7a),
}

var neutralColor = wire.RGB(0x88, 0x88, 0x88)

const startHealth = 100

// Game is the authoritative match. A single goroutine owns all match state;
// sessions talk to it through Send.
type Game struct {
	config  Config
	logger  *log.Logger
	metrics *metrics

	msgChan  chan message
	done     chan struct{}
	stopOnce sync.Once

	tick      uint32
	players   map[uint8]*player
	bySession map[SessionID]*player
	sessions  map[SessionID]*Session
	neutral   []*neutralBase
	rocks     []wire.Scenery
	bushes    []wire.Scenery

	mu           sync.RWMutex
	fingerprints map[uint32]bool
}

func newGame(cfg Config, logger *log.Logger, m *metrics) *Game {
	g := &Game{
		config:       cfg,
		logger:       logger,
		metrics:      m,
		msgChan:      make(chan message, 256),
		done:         make(chan struct{}),
		players:      make(map[uint8]*player),
		bySession:    make(map[SessionID]*player),
		sessions:     make(map[SessionID]*Session),
		fingerprints: make(map[uint32]bool),
	}
	g.layout()
	return g
}

// layout places the static scenery and neutral bases.
func (g *Game) layout() {
	w, h := float32(g.config.Width), float32(g.config.Height)
	g.rocks = []wire.Scenery{
		{X: w * 0.3, Y: h * 0.7, Radius: 30},
		{X: w * 0.7, Y: h * 0.3, Radius: 30},
	}
	g.bushes = []wire.Scenery{
		{X: w * 0.2, Y: h * 0.2, Radius: 20},
		{X: w * 0.8, Y: h * 0.8, Radius: 20},
	}
	for i, p := range []core.Vec{core.V(float64(w)*0.5, float64(h)*0.25), core.V(float64(w)*0.5, float64(h)*0.75)} {
		g.neutral = append(g.neutral, &neutralBase{
			id:        uint8(i),
			color:     neutralColor,
			pos:       p,
			health:    startHealth,
			buildings: make(map[uint8]*building),
		})
	}
}

// Start begins processing messages and ticks.
func (g *Game) Start() {
	go g.run()
}

// Stop shuts the game loop down. Safe to call multiple times.
func (g *Game) Stop() {
	g.stopOnce.Do(func() {
		close(g.done)
	})
}

// Send hands a message to the game loop.
func (g *Game) Send(msg message) {
	select {
	case g.msgChan <- msg:
	case <-g.done:
	}
}

// KnownFingerprint reports whether a client with this fingerprint joined.
func (g *Game) KnownFingerprint(fp uint32) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.fingerprints[fp]
}

func (g *Game) run() {
	ticker := time.NewTicker(g.config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case msg := <-g.msgChan:
			g.handleMessage(msg)
		case <-ticker.C:
			g.step()
		case <-g.done:
			for _, s := range g.sessions {
				s.Close()
			}
			return
		}
	}
}

func (g *Game) handleMessage(msg message) {
	switch m := msg.(type) {
	case connectMsg:
		g.sessions[m.session.ID()] = m.session
		g.metrics.sessions.Set(float64(len(g.sessions)))
	case disconnectMsg:
		if p, ok := g.bySession[m.session.ID()]; ok {
			g.removePlayer(p)
		}
		delete(g.sessions, m.session.ID())
		g.metrics.sessions.Set(float64(len(g.sessions)))
	case commandMsg:
		g.metrics.commands.WithLabelValues(m.cmd.Tag().String()).Inc()
		g.handleCommand(m.session, m.cmd)
	}
}

func (g *Game) handleCommand(s *Session, cmd wire.Command) {
	if join, ok := cmd.(wire.Join); ok {
		g.handleJoin(s, join)
		return
	}
	p, joined := g.bySession[s.ID()]

	switch c := cmd.(type) {
	case wire.Heartbeat, wire.CameraUpdate:
	case wire.ResyncRequest:
		s.Send(g.snapshot())
	case wire.RequestSkinData:
		s.Send(wire.SkinData{Skin: c.Skin, Data: skinData(c.Skin)})
	case wire.Leave:
		if joined {
			g.removePlayer(p)
		}
	default:
		if !joined {
			g.logger.Debug("command before join", "session", s.ID(), "tag", cmd.Tag())
			return
		}
		g.handlePlayerCommand(p, cmd)
	}
}

func (g *Game) handlePlayerCommand(p *player, cmd wire.Command) {
	switch c := cmd.(type) {
	case wire.PlaceBuilding:
		g.placeBuilding(p, c)
	case wire.RemoveBuildings:
		g.removeBuildings(p, c)
	case wire.UpgradeBuildings:
		g.upgradeBuildings(p, c)
	case wire.MoveUnits:
		g.moveUnits(p, c)
	case wire.ChatMessage:
		g.broadcast(wire.ChatBroadcast{PlayerID: p.id, Text: c.Text})
	case wire.SetUnitSpawning:
		if b, ok := p.buildings[c.Building]; ok && b.kind == registry.KindBarracks {
			b.spawning = c.Active
			g.broadcast(wire.UnitSpawningToggled{OwnerKind: wire.OwnerPlayer, OwnerID: p.id, BuildingID: b.id, Active: c.Active})
		}
	case wire.SetBuildingTarget:
		if b, ok := p.buildings[c.Building]; ok {
			b.target = core.V(float64(c.X), float64(c.Y))
			g.broadcast(wire.BuildingTarget{OwnerKind: wire.OwnerPlayer, OwnerID: p.id, BuildingID: b.id, X: c.X, Y: c.Y})
		}
	}
}

func (g *Game) handleJoin(s *Session, join wire.Join) {
	if p, ok := g.bySession[s.ID()]; ok {
		s.Send(wire.Welcome{PlayerID: p.id})
		s.Send(g.snapshot())
		return
	}
	id, ok := freeID(len(g.players), func(id uint8) bool { _, used := g.players[id]; return used })
	if !ok {
		g.logger.Warn("match full", "session", s.ID())
		return
	}

	p := &player{
		id:        id,
		session:   s,
		name:      join.Name,
		skin:      join.Skin,
		color:     palette[int(id)%len(palette)],
		pos:       g.spawnPoint(id),
		health:    startHealth,
		gold:      g.config.StartGold,
		buildings: make(map[uint8]*building),
		units:     make(map[uint8]*unit),
	}
	g.players[id] = p
	g.bySession[s.ID()] = p
	g.metrics.players.Set(float64(len(g.players)))

	g.mu.Lock()
	g.fingerprints[join.Fingerprint] = true
	g.mu.Unlock()

	g.logger.Info("player joined", "player", id, "name", p.name, "session", s.ID())
	s.Send(wire.Welcome{PlayerID: id})
	s.Send(g.snapshot())
	joined := wire.PlayerJoined{
		ID: id, Color: p.color, Name: p.name, Skin: p.skin,
		X: float32(p.pos.X), Y: float32(p.pos.Y), Health: p.health,
	}
	for _, other := range g.players {
		if other.id != id {
			other.session.Send(joined)
		}
	}
	if p.skin >= 128 {
		g.broadcast(wire.SkinDataMissing{Skin: p.skin})
	}
}

func (g *Game) removePlayer(p *player) {
	delete(g.players, p.id)
	delete(g.bySession, p.session.ID())
	g.metrics.players.Set(float64(len(g.players)))
	for _, n := range g.neutral {
		if n.captured && n.owner == p.id {
			n.captured = false
			n.color = neutralColor
		}
	}
	g.logger.Info("player left", "player", p.id, "name", p.name)
	g.broadcast(wire.PlayerLeft{ID: p.id})
}

func (g *Game) spawnPoint(id uint8) core.Vec {
	margin := 200.0
	w, h := g.config.Width-2*margin, g.config.Height-2*margin
	return core.V(margin+float64(int(id)*577%int(w)), margin+float64(int(id)*313%int(h)))
}

// placeBuilding runs the authoritative placement check.
func (g *Game) placeBuilding(p *player, c wire.PlaceBuilding) {
	fail := func(reason string) {
		g.logger.Debug("placement rejected", "player", p.id, "kind", c.Kind, "reason", reason)
		p.session.Send(wire.PlacementFailed{Kind: c.Kind})
	}
	behaviour, ok := registry.BuildingKind(c.Kind)
	if !ok {
		fail("unknown kind")
		return
	}
	if p.gold < behaviour.Cost {
		fail("not enough gold")
		return
	}
	pos := core.V(float64(c.X), float64(c.Y))
	footprint := core.Circle{Center: pos, R: behaviour.Radius}
	if !core.NewRect(0, 0, g.config.Width, g.config.Height).ContainsCircle(footprint) {
		fail("out of bounds")
		return
	}
	if g.collides(footprint) {
		fail("collision")
		return
	}
	id, ok := freeID(len(p.buildings), func(id uint8) bool { _, used := p.buildings[id]; return used })
	if !ok {
		fail("building limit")
		return
	}

	p.gold -= behaviour.Cost
	p.buildings[id] = &building{id: id, kind: c.Kind, pos: pos, target: pos}
	g.broadcast(wire.BuildingPlaced{OwnerKind: wire.OwnerPlayer, OwnerID: p.id, BuildingID: id, Kind: c.Kind, X: c.X, Y: c.Y})
}

func (g *Game) collides(c core.Circle) bool {
	for _, r := range g.rocks {
		if c.Overlaps(core.Circle{Center: core.V(float64(r.X), float64(r.Y)), R: float64(r.Radius)}) {
			return true
		}
	}
	hitsBuildings := func(bs map[uint8]*building) bool {
		for _, b := range bs {
			behaviour, _ := registry.BuildingKind(b.kind)
			if c.Overlaps(core.Circle{Center: b.pos, R: behaviour.Radius}) {
				return true
			}
		}
		return false
	}
	for _, p := range g.players {
		if c.Overlaps(core.Circle{Center: p.pos, R: state.BaseRadius}) || hitsBuildings(p.buildings) {
			return true
		}
	}
	for _, n := range g.neutral {
		if c.Overlaps(core.Circle{Center: n.pos, R: state.BaseRadius}) || hitsBuildings(n.buildings) {
			return true
		}
	}
	return false
}

// commanded returns the buildings the player may command for a command that
// optionally names a neutral base.
func (g *Game) commanded(p *player, hasNeutral bool, neutralID uint8) (wire.OwnerKind, uint8, map[uint8]*building, bool) {
	if !hasNeutral {
		return wire.OwnerPlayer, p.id, p.buildings, true
	}
	for _, n := range g.neutral {
		if n.id == neutralID && n.captured && n.owner == p.id {
			return wire.OwnerNeutral, n.id, n.buildings, true
		}
	}
	return 0, 0, nil, false
}

func (g *Game) removeBuildings(p *player, c wire.RemoveBuildings) {
	kind, owner, buildings, ok := g.commanded(p, c.HasNeutral, c.NeutralID)
	if !ok {
		return
	}
	var removed []uint8
	for _, id := range c.IDs {
		b, ok := buildings[id]
		if !ok {
			continue
		}
		if behaviour, ok := registry.BuildingKind(b.kind); ok {
			p.gold += behaviour.Cost / 2
		}
		delete(buildings, id)
		removed = append(removed, id)
	}
	if len(removed) > 0 {
		g.broadcast(wire.BuildingsRemoved{OwnerKind: kind, OwnerID: owner, IDs: removed})
	}
}

func (g *Game) upgradeBuildings(p *player, c wire.UpgradeBuildings) {
	kind, owner, buildings, ok := g.commanded(p, c.HasNeutral, c.NeutralID)
	if !ok {
		return
	}
	var upgraded []uint8
	for _, id := range c.IDs {
		b, ok := buildings[id]
		if !ok {
			continue
		}
		behaviour, _ := registry.BuildingKind(b.kind)
		if c.Variant > behaviour.MaxVariant {
			continue
		}
		b.variant = c.Variant
		upgraded = append(upgraded, id)
	}
	if len(upgraded) > 0 {
		g.broadcast(wire.BuildingsUpgraded{OwnerKind: kind, OwnerID: owner, Variant: c.Variant, IDs: upgraded})
	}
}

func (g *Game) moveUnits(p *player, c wire.MoveUnits) {
	target := core.V(float64(c.TargetX), float64(c.TargetY))
	ev := wire.UnitPositions{OwnerID: p.id}
	for _, id := range c.IDs {
		u, ok := p.units[id]
		if !ok {
			continue
		}
		u.pos = target
		ev.Positions = append(ev.Positions, wire.UnitPosition{ID: id, X: c.TargetX, Y: c.TargetY})
	}
	if len(ev.Positions) > 0 {
		g.broadcast(ev)
	}
}

// step advances one server tick: income and unit production.
func (g *Game) step() {
	g.tick++
	g.metrics.ticks.Inc()
	for _, id := range g.playerIDs() {
		p := g.players[id]
		mines := 0
		for _, b := range p.buildings {
			switch {
			case b.kind == registry.KindMine:
				mines++
			case b.kind == registry.KindBarracks && b.spawning:
				b.sinceSpawn++
				if b.sinceSpawn >= g.config.SpawnEvery && len(p.units) < g.config.MaxUnits {
					b.sinceSpawn = 0
					g.spawnUnit(p, b)
				}
			}
		}
		p.gold += g.config.GoldPerTick * uint32(1+mines)
		p.session.Send(wire.ResourceUpdate{Tick: g.tick, Gold: p.gold})
	}
}

func (g *Game) spawnUnit(p *player, b *building) {
	id, ok := freeID(len(p.units), func(id uint8) bool { _, used := p.units[id]; return used })
	if !ok {
		return
	}
	dir := b.target.Sub(b.pos)
	pos := b.pos.Add(core.V(30, 0))
	if dir.Len() > 0 {
		pos = b.pos.Add(dir.Scale(30 / dir.Len()))
	}
	p.units[id] = &unit{id: id, kind: registry.KindSoldier, pos: pos}
	g.broadcast(wire.UnitSpawned{
		OwnerID: p.id, BuildingID: b.id, UnitID: id,
		Kind: registry.KindSoldier, Variant: b.variant,
		X: float32(pos.X), Y: float32(pos.Y),
	})
}

func (g *Game) broadcast(ev wire.Event) {
	frame := wire.EncodeEvent(ev)
	for _, p := range g.players {
		p.session.sendFrame(frame)
	}
}

func (g *Game) playerIDs() []uint8 {
	ids := make([]uint8, 0, len(g.players))
	for id := range g.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// snapshot builds the full GameState.
func (g *Game) snapshot() wire.GameState {
	gs := wire.GameState{Bushes: g.bushes, Rocks: g.rocks}
	for _, id := range g.playerIDs() {
		p := g.players[id]
		rec := wire.PlayerRecord{
			ID: p.id, Color: p.color, Name: p.name, Skin: p.skin,
			X: float32(p.pos.X), Y: float32(p.pos.Y), Health: p.health,
			Buildings: buildingRecords(p.buildings),
		}
		for _, uid := range sortedKeys(p.units) {
			u := p.units[uid]
			rec.Units = append(rec.Units, wire.UnitRecord{ID: u.id, Kind: u.kind, X: float32(u.pos.X), Y: float32(u.pos.Y)})
		}
		gs.Players = append(gs.Players, rec)
	}
	for _, n := range g.neutral {
		gs.NeutralBases = append(gs.NeutralBases, wire.NeutralRecord{
			ID: n.id, Color: n.color,
			X: float32(n.pos.X), Y: float32(n.pos.Y), Health: n.health,
			Buildings: buildingRecords(n.buildings),
		})
	}
	return gs
}

func buildingRecords(bs map[uint8]*building) []wire.BuildingRecord {
	var out []wire.BuildingRecord
	for _, id := range sortedKeys(bs) {
		b := bs[id]
		out = append(out, wire.BuildingRecord{ID: b.id, Kind: b.kind, Variant: b.variant, X: float32(b.pos.X), Y: float32(b.pos.Y)})
	}
	return out
}

func sortedKeys[V any](m map[uint8]V) []uint8 {
	ids := make([]uint8, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// freeID returns the lowest unused ID.
func freeID(n int, used func(uint8) bool) (uint8, bool) {
	if n > 255 {
		return 0, false
	}
	for id := 0; id <= 255; id++ {
		if !used(uint8(id)) {
			return uint8(id), true
		}
	}
	return 0, false
}

// skinData is the placeholder image served for any requested skin.
func skinData(skin uint8) []byte {
	return []byte(fmt.Sprintf("arena-dev-skin-%03d", skin))
}
