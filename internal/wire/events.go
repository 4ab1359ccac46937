package wire

import "math"

// Event is a server -> client message.
type Event interface {
	Tag() Tag
	encode(e *Encoder)
}

// Welcome assigns the local player's id on this connection.
type Welcome struct {
	PlayerID uint8
}

// BuildingRecord is one building inside a GameState.
type BuildingRecord struct {
	ID, Kind, Variant uint8
	X, Y              float32
}

// UnitRecord is one unit inside a GameState.
type UnitRecord struct {
	ID, Kind, Variant uint8
	X, Y              float32
}

// PlayerRecord is one player inside a GameState.
type PlayerRecord struct {
	ID        uint8
	Color     Color
	Name      string
	Skin      uint8
	X, Y      float32
	Health    uint16
	Buildings []BuildingRecord
	Units     []UnitRecord
}

// NeutralRecord is one neutral base inside a GameState.
type NeutralRecord struct {
	ID        uint8
	Color     Color // unset until captured
	X, Y      float32
	Health    uint16
	Buildings []BuildingRecord
}

// Scenery is a static obstacle (bush or rock).
type Scenery struct {
	X, Y   float32
	Radius uint8
}

// GameState is the full authoritative snapshot sent on join and on resync.
type GameState struct {
	Players      []PlayerRecord
	NeutralBases []NeutralRecord
	Bushes       []Scenery
	Rocks        []Scenery
}

// PlayerJoined announces a new player.
type PlayerJoined struct {
	ID     uint8
	Color  Color
	Name   string
	Skin   uint8
	X, Y   float32
	Health uint16
}

// PlayerLeft removes a player.
type PlayerLeft struct {
	ID uint8
}

// BuildingPlaced confirms a placement. Spawning is only on the wire for the
// barracks kind.
type BuildingPlaced struct {
	OwnerKind  OwnerKind
	OwnerID    uint8
	BuildingID uint8
	Kind       uint8
	X, Y       float32
	Spawning   bool
}

// BuildingsRemoved destroys or sells buildings.
type BuildingsRemoved struct {
	OwnerKind OwnerKind
	OwnerID   uint8
	IDs       []uint8
}

// BuildingsUpgraded moves buildings to a new variant.
type BuildingsUpgraded struct {
	OwnerKind OwnerKind
	OwnerID   uint8
	Variant   uint8
	IDs       []uint8
}

// PlacementFailed rejects the local player's last placement.
type PlacementFailed struct {
	Kind uint8
}

// UnitSpawned starts a unit's transition out of a barracks.
type UnitSpawned struct {
	OwnerID    uint8
	BuildingID uint8
	UnitID     uint8
	Kind       uint8
	Variant    uint8
	X, Y       float32
}

// UnitPosition is one entry of UnitPositions.
type UnitPosition struct {
	ID   uint8
	X, Y uint16
}

// UnitPositions carries new target positions for a player's units.
type UnitPositions struct {
	OwnerID   uint8
	Positions []UnitPosition
}

// UnitsKilled removes units.
type UnitsKilled struct {
	OwnerID uint8
	IDs     []uint8
}

// BulletFired spawns a bullet travelling to a target point.
type BulletFired struct {
	OwnerKind        OwnerKind
	OwnerID          uint8
	BulletID         uint8
	X, Y             float32
	TargetX, TargetY float32
}

// BulletsRemoved fades bullets out.
type BulletsRemoved struct {
	OwnerKind OwnerKind
	OwnerID   uint8
	IDs       []uint8
}

// HealthUpdate sets a base's authoritative health.
type HealthUpdate struct {
	OwnerKind OwnerKind
	ID        uint8
	Health    uint16
}

// ResourceUpdate is the high-frequency tick event. Its arrival keeps the
// resync watchdog quiet.
type ResourceUpdate struct {
	Tick uint32
	Gold uint32
}

// ChatBroadcast relays a chat line from a player.
type ChatBroadcast struct {
	PlayerID uint8
	Text     string
}

// SkinDataMissing tells the client it is rendering a skin it may not have.
type SkinDataMissing struct {
	Skin uint8
}

// SkinData carries the raw bytes of a skin.
type SkinData struct {
	Skin uint8
	Data []byte
}

// BaseCaptured hands a neutral base to a player.
type BaseCaptured struct {
	NeutralID uint8
	OwnerID   uint8
	Color     Color
}

// BaseDestroyed removes a player or neutral base.
type BaseDestroyed struct {
	OwnerKind OwnerKind
	ID        uint8
}

// UnitSpawningToggled reports a barracks' production flag.
type UnitSpawningToggled struct {
	OwnerKind  OwnerKind
	OwnerID    uint8
	BuildingID uint8
	Active     bool
}

// BuildingTarget sets the point a building faces.
type BuildingTarget struct {
	OwnerKind  OwnerKind
	OwnerID    uint8
	BuildingID uint8
	X, Y       float32
}

// Unknown holds a frame whose tag this client does not know. It lets the
// dispatcher ignore additive protocol extensions.
type Unknown struct {
	ID      Tag
	Payload []byte
}

func (Welcome) Tag() Tag             { return TagWelcome }
func (GameState) Tag() Tag           { return TagGameState }
func (PlayerJoined) Tag() Tag        { return TagPlayerJoined }
func (PlayerLeft) Tag() Tag          { return TagPlayerLeft }
func (BuildingPlaced) Tag() Tag      { return TagBuildingPlaced }
func (BuildingsRemoved) Tag() Tag    { return TagBuildingsRemoved }
func (BuildingsUpgraded) Tag() Tag   { return TagBuildingsUpgraded }
func (PlacementFailed) Tag() Tag     { return TagPlacementFailed }
func (UnitSpawned) Tag() Tag         { return TagUnitSpawned }
func (UnitPositions) Tag() Tag       { return TagUnitPositions }
func (UnitsKilled) Tag() Tag         { return TagUnitsKilled }
func (BulletFired) Tag() Tag         { return TagBulletFired }
func (BulletsRemoved) Tag() Tag      { return TagBulletsRemoved }
func (HealthUpdate) Tag() Tag        { return TagHealthUpdate }
func (ResourceUpdate) Tag() Tag      { return TagResourceUpdate }
func (ChatBroadcast) Tag() Tag       { return TagChatBroadcast }
func (SkinDataMissing) Tag() Tag     { return TagSkinDataMissing }
func (SkinData) Tag() Tag            { return TagSkinData }
func (BaseCaptured) Tag() Tag        { return TagBaseCaptured }
func (BaseDestroyed) Tag() Tag       { return TagBaseDestroyed }
func (UnitSpawningToggled) Tag() Tag { return TagUnitSpawningToggled }
func (BuildingTarget) Tag() Tag      { return TagBuildingTarget }
func (u Unknown) Tag() Tag           { return u.ID }

// Mirror encoders. The client never sends events; these exist for the
// development server and for crafting frames in tests.

func (ev Welcome) encode(e *Encoder) { e.WriteByte(ev.PlayerID) }

func (ev GameState) encode(e *Encoder) {
	players := capLen(len(ev.Players))
	e.WriteByte(uint8(players))
	for _, p := range ev.Players[:players] {
		e.WriteByte(p.ID)
		e.WriteColor(p.Color)
		e.WriteFixedString(p.Name, NameSize)
		e.WriteByte(p.Skin)
		e.WriteFloat32(p.X)
		e.WriteFloat32(p.Y)
		e.WriteUint16(p.Health)
		writeBuildingRecords(e, p.Buildings)
		units := capLen(len(p.Units))
		e.WriteByte(uint8(units))
		for _, u := range p.Units[:units] {
			e.WriteByte(u.ID)
			e.WriteByte(u.Kind)
			e.WriteByte(u.Variant)
			e.WriteFloat32(u.X)
			e.WriteFloat32(u.Y)
		}
	}
	neutral := capLen(len(ev.NeutralBases))
	e.WriteByte(uint8(neutral))
	for _, n := range ev.NeutralBases[:neutral] {
		e.WriteByte(n.ID)
		e.WriteColor(n.Color)
		e.WriteFloat32(n.X)
		e.WriteFloat32(n.Y)
		e.WriteUint16(n.Health)
		writeBuildingRecords(e, n.Buildings)
	}
	writeScenery(e, ev.Bushes)
	writeScenery(e, ev.Rocks)
}

func writeBuildingRecords(e *Encoder, bs []BuildingRecord) {
	n := capLen(len(bs))
	e.WriteByte(uint8(n))
	for _, b := range bs[:n] {
		e.WriteByte(b.ID)
		e.WriteByte(b.Kind)
		e.WriteByte(b.Variant)
		e.WriteFloat32(b.X)
		e.WriteFloat32(b.Y)
	}
}

func writeScenery(e *Encoder, ss []Scenery) {
	n := capLen(len(ss))
	e.WriteByte(uint8(n))
	for _, s := range ss[:n] {
		e.WriteFloat32(s.X)
		e.WriteFloat32(s.Y)
		e.WriteByte(s.Radius)
	}
}

func capLen(n int) int {
	if n > math.MaxUint8 {
		return math.MaxUint8
	}
	return n
}

func (ev PlayerJoined) encode(e *Encoder) {
	e.WriteByte(ev.ID)
	e.WriteColor(ev.Color)
	e.WriteFixedString(ev.Name, NameSize)
	e.WriteByte(ev.Skin)
	e.WriteFloat32(ev.X)
	e.WriteFloat32(ev.Y)
	e.WriteUint16(ev.Health)
}

func (ev PlayerLeft) encode(e *Encoder) { e.WriteByte(ev.ID) }

func (ev BuildingPlaced) encode(e *Encoder) {
	e.WriteByte(uint8(ev.OwnerKind))
	e.WriteByte(ev.OwnerID)
	e.WriteByte(ev.BuildingID)
	e.WriteByte(ev.Kind)
	e.WriteFloat32(ev.X)
	e.WriteFloat32(ev.Y)
	if ev.Kind == BarracksKind {
		e.WriteBool(ev.Spawning)
	}
}

func (ev BuildingsRemoved) encode(e *Encoder) {
	e.WriteByte(uint8(ev.OwnerKind))
	e.WriteByte(ev.OwnerID)
	e.WriteIDs(ev.IDs)
}

func (ev BuildingsUpgraded) encode(e *Encoder) {
	e.WriteByte(uint8(ev.OwnerKind))
	e.WriteByte(ev.OwnerID)
	e.WriteByte(ev.Variant)
	e.WriteIDs(ev.IDs)
}

func (ev PlacementFailed) encode(e *Encoder) { e.WriteByte(ev.Kind) }

func (ev UnitSpawned) encode(e *Encoder) {
	e.WriteByte(ev.OwnerID)
	e.WriteByte(ev.BuildingID)
	e.WriteByte(ev.UnitID)
	e.WriteByte(ev.Kind)
	e.WriteByte(ev.Variant)
	e.WriteFloat32(ev.X)
	e.WriteFloat32(ev.Y)
}

func (ev UnitPositions) encode(e *Encoder) {
	n := capLen(len(ev.Positions))
	e.WriteByte(ev.OwnerID)
	e.WriteByte(uint8(n))
	for _, p := range ev.Positions[:n] {
		e.WriteByte(p.ID)
		e.WriteUint16(p.X)
		e.WriteUint16(p.Y)
	}
}

func (ev UnitsKilled) encode(e *Encoder) {
	e.WriteByte(ev.OwnerID)
	e.WriteIDs(ev.IDs)
}

func (ev BulletFired) encode(e *Encoder) {
	e.WriteByte(uint8(ev.OwnerKind))
	e.WriteByte(ev.OwnerID)
	e.WriteByte(ev.BulletID)
	e.WriteFloat32(ev.X)
	e.WriteFloat32(ev.Y)
	e.WriteFloat32(ev.TargetX)
	e.WriteFloat32(ev.TargetY)
}

func (ev BulletsRemoved) encode(e *Encoder) {
	e.WriteByte(uint8(ev.OwnerKind))
	e.WriteByte(ev.OwnerID)
	e.WriteIDs(ev.IDs)
}

func (ev HealthUpdate) encode(e *Encoder) {
	e.WriteByte(uint8(ev.OwnerKind))
	e.WriteByte(ev.ID)
	e.WriteUint16(ev.Health)
}

func (ev ResourceUpdate) encode(e *Encoder) {
	e.WriteUint32(ev.Tick)
	e.WriteUint32(ev.Gold)
}

func (ev ChatBroadcast) encode(e *Encoder) {
	e.WriteByte(ev.PlayerID)
	e.WriteText(ev.Text, ChatSize)
}

func (ev SkinDataMissing) encode(e *Encoder) { e.WriteByte(ev.Skin) }

func (ev SkinData) encode(e *Encoder) {
	e.WriteByte(ev.Skin)
	e.WriteBytes(ev.Data)
}

func (ev BaseCaptured) encode(e *Encoder) {
	e.WriteByte(ev.NeutralID)
	e.WriteByte(ev.OwnerID)
	e.WriteColor(ev.Color)
}

func (ev BaseDestroyed) encode(e *Encoder) {
	e.WriteByte(uint8(ev.OwnerKind))
	e.WriteByte(ev.ID)
}

func (ev UnitSpawningToggled) encode(e *Encoder) {
	e.WriteByte(uint8(ev.OwnerKind))
	e.WriteByte(ev.OwnerID)
	e.WriteByte(ev.BuildingID)
	e.WriteBool(ev.Active)
}

func (ev BuildingTarget) encode(e *Encoder) {
	e.WriteByte(uint8(ev.OwnerKind))
	e.WriteByte(ev.OwnerID)
	e.WriteByte(ev.BuildingID)
	e.WriteFloat32(ev.X)
	e.WriteFloat32(ev.Y)
}

func (ev Unknown) encode(e *Encoder) { e.WriteBytes(ev.Payload) }

// fields reads a fixed layout with a sticky error: after the first failure
// every read returns zero and the error is reported once at the end.
type fields struct {
	d   *Decoder
	err error
}

func (f *fields) u8() uint8 {
	if f.err != nil {
		return 0
	}
	v, err := f.d.ReadByte()
	f.err = err
	return v
}

func (f *fields) u16() uint16 {
	if f.err != nil {
		return 0
	}
	v, err := f.d.ReadUint16()
	f.err = err
	return v
}

func (f *fields) u32() uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.d.ReadUint32()
	f.err = err
	return v
}

func (f *fields) f32() float32 {
	if f.err != nil {
		return 0
	}
	v, err := f.d.ReadFloat32()
	f.err = err
	return v
}

func (f *fields) flag() bool {
	return f.u8() != 0
}

func (f *fields) owner() OwnerKind {
	return OwnerKind(f.u8())
}

func (f *fields) color() Color {
	if f.err != nil {
		return Color{}
	}
	c, err := f.d.ReadColor()
	f.err = err
	return c
}

func (f *fields) name() string {
	if f.err != nil {
		return ""
	}
	s, err := f.d.ReadFixedString(NameSize)
	f.err = err
	return s
}

func (f *fields) ids() []uint8 {
	if f.err != nil {
		return nil
	}
	return f.d.ReadIDs()
}

func (f *fields) buildings() []BuildingRecord {
	n := int(f.u8())
	if f.err != nil || n == 0 {
		return nil
	}
	out := make([]BuildingRecord, 0, n)
	for i := 0; i < n && f.err == nil; i++ {
		out = append(out, BuildingRecord{ID: f.u8(), Kind: f.u8(), Variant: f.u8(), X: f.f32(), Y: f.f32()})
	}
	return out
}

func (f *fields) units() []UnitRecord {
	n := int(f.u8())
	if f.err != nil || n == 0 {
		return nil
	}
	out := make([]UnitRecord, 0, n)
	for i := 0; i < n && f.err == nil; i++ {
		out = append(out, UnitRecord{ID: f.u8(), Kind: f.u8(), Variant: f.u8(), X: f.f32(), Y: f.f32()})
	}
	return out
}

func (f *fields) scenery() []Scenery {
	n := int(f.u8())
	if f.err != nil {
		return nil
	}
	out := make([]Scenery, 0, n)
	for i := 0; i < n && f.err == nil; i++ {
		out = append(out, Scenery{X: f.f32(), Y: f.f32(), Radius: f.u8()})
	}
	return out
}

var eventDecoders = map[Tag]func(f *fields) Event{
	TagWelcome: func(f *fields) Event { return Welcome{PlayerID: f.u8()} },
	TagGameState: func(f *fields) Event {
		var gs GameState
		n := int(f.u8())
		gs.Players = make([]PlayerRecord, 0, n)
		for i := 0; i < n && f.err == nil; i++ {
			p := PlayerRecord{ID: f.u8(), Color: f.color(), Name: f.name(), Skin: f.u8()}
			p.X, p.Y = f.f32(), f.f32()
			p.Health = f.u16()
			p.Buildings = f.buildings()
			p.Units = f.units()
			gs.Players = append(gs.Players, p)
		}
		n = int(f.u8())
		gs.NeutralBases = make([]NeutralRecord, 0, n)
		for i := 0; i < n && f.err == nil; i++ {
			nb := NeutralRecord{ID: f.u8(), Color: f.color()}
			nb.X, nb.Y = f.f32(), f.f32()
			nb.Health = f.u16()
			nb.Buildings = f.buildings()
			gs.NeutralBases = append(gs.NeutralBases, nb)
		}
		gs.Bushes = f.scenery()
		gs.Rocks = f.scenery()
		return gs
	},
	TagPlayerJoined: func(f *fields) Event {
		p := PlayerJoined{ID: f.u8(), Color: f.color(), Name: f.name(), Skin: f.u8()}
		p.X, p.Y = f.f32(), f.f32()
		p.Health = f.u16()
		return p
	},
	TagPlayerLeft: func(f *fields) Event { return PlayerLeft{ID: f.u8()} },
	TagBuildingPlaced: func(f *fields) Event {
		b := BuildingPlaced{OwnerKind: f.owner(), OwnerID: f.u8(), BuildingID: f.u8(), Kind: f.u8()}
		b.X, b.Y = f.f32(), f.f32()
		if f.err == nil && b.Kind == BarracksKind {
			b.Spawning = f.flag()
		}
		return b
	},
	TagBuildingsRemoved: func(f *fields) Event {
		return BuildingsRemoved{OwnerKind: f.owner(), OwnerID: f.u8(), IDs: f.ids()}
	},
	TagBuildingsUpgraded: func(f *fields) Event {
		return BuildingsUpgraded{OwnerKind: f.owner(), OwnerID: f.u8(), Variant: f.u8(), IDs: f.ids()}
	},
	TagPlacementFailed: func(f *fields) Event { return PlacementFailed{Kind: f.u8()} },
	TagUnitSpawned: func(f *fields) Event {
		u := UnitSpawned{OwnerID: f.u8(), BuildingID: f.u8(), UnitID: f.u8(), Kind: f.u8(), Variant: f.u8()}
		u.X, u.Y = f.f32(), f.f32()
		return u
	},
	TagUnitPositions: func(f *fields) Event {
		up := UnitPositions{OwnerID: f.u8()}
		n := int(f.u8())
		if n > 0 {
			up.Positions = make([]UnitPosition, 0, n)
		}
		for i := 0; i < n && f.err == nil; i++ {
			up.Positions = append(up.Positions, UnitPosition{ID: f.u8(), X: f.u16(), Y: f.u16()})
		}
		return up
	},
	TagUnitsKilled: func(f *fields) Event { return UnitsKilled{OwnerID: f.u8(), IDs: f.ids()} },
	TagBulletFired: func(f *fields) Event {
		b := BulletFired{OwnerKind: f.owner(), OwnerID: f.u8(), BulletID: f.u8()}
		b.X, b.Y = f.f32(), f.f32()
		b.TargetX, b.TargetY = f.f32(), f.f32()
		return b
	},
	TagBulletsRemoved: func(f *fields) Event {
		return BulletsRemoved{OwnerKind: f.owner(), OwnerID: f.u8(), IDs: f.ids()}
	},
	TagHealthUpdate: func(f *fields) Event {
		return HealthUpdate{OwnerKind: f.owner(), ID: f.u8(), Health: f.u16()}
	},
	TagResourceUpdate: func(f *fields) Event { return ResourceUpdate{Tick: f.u32(), Gold: f.u32()} },
	TagChatBroadcast: func(f *fields) Event {
		c := ChatBroadcast{PlayerID: f.u8()}
		if f.err == nil {
			c.Text = f.d.ReadText()
		}
		return c
	},
	TagSkinDataMissing: func(f *fields) Event { return SkinDataMissing{Skin: f.u8()} },
	TagSkinData: func(f *fields) Event {
		s := SkinData{Skin: f.u8()}
		if f.err == nil {
			rest := f.d.ReadRest()
			s.Data = make([]byte, len(rest))
			copy(s.Data, rest)
		}
		return s
	},
	TagBaseCaptured: func(f *fields) Event {
		return BaseCaptured{NeutralID: f.u8(), OwnerID: f.u8(), Color: f.color()}
	},
	TagBaseDestroyed: func(f *fields) Event { return BaseDestroyed{OwnerKind: f.owner(), ID: f.u8()} },
	TagUnitSpawningToggled: func(f *fields) Event {
		return UnitSpawningToggled{OwnerKind: f.owner(), OwnerID: f.u8(), BuildingID: f.u8(), Active: f.flag()}
	},
	TagBuildingTarget: func(f *fields) Event {
		b := BuildingTarget{OwnerKind: f.owner(), OwnerID: f.u8(), BuildingID: f.u8()}
		b.X, b.Y = f.f32(), f.f32()
		return b
	},
}
