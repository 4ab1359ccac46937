package wire

import "math"

// Command is a client -> server message.
type Command interface {
	Tag() Tag
	encode(e *Encoder)
}

// Heartbeat keeps intermediaries from closing an idle socket. It carries no
// application data.
type Heartbeat struct{}

// Join asks the server to spawn the local player.
type Join struct {
	Name        string
	Skin        uint8
	Fingerprint uint32
}

// Leave removes the local player from the match.
type Leave struct{}

// PlaceBuilding requests a new building at a world position.
type PlaceBuilding struct {
	Kind uint8
	X, Y float32
}

// RemoveBuildings sells buildings owned by the local player, or by a neutral
// base the player controls when HasNeutral is set.
type RemoveBuildings struct {
	HasNeutral bool
	NeutralID  uint8 // ignored unless HasNeutral
	IDs        []uint8
}

// UpgradeBuildings moves buildings to a new variant tier.
type UpgradeBuildings struct {
	HasNeutral bool
	NeutralID  uint8 // ignored unless HasNeutral
	Variant    uint8
	IDs        []uint8
}

// MoveUnits orders units towards a target point. At most 255 ids fit.
type MoveUnits struct {
	TargetX, TargetY uint16
	IDs              []uint8
}

// CameraUpdate reports the local viewport so the server can cull updates.
type CameraUpdate struct {
	X, Y   int16
	Zoom10 uint8 // zoom multiplied by ten
}

// ChatMessage is free text, at most ChatSize bytes on the wire.
type ChatMessage struct {
	Text string
}

// ResyncRequest asks for a full state refresh.
type ResyncRequest struct{}

// RequestSkinData asks the server for a skin the local cache lacks.
type RequestSkinData struct {
	Skin uint8
}

// SetUnitSpawning turns unit production of a barracks on or off.
type SetUnitSpawning struct {
	Building uint8
	Active   bool
}

// SetBuildingTarget sets the point a building faces or rallies to.
type SetBuildingTarget struct {
	Building uint8
	X, Y     float32
}

func (Heartbeat) Tag() Tag         { return TagHeartbeat }
func (Join) Tag() Tag              { return TagJoin }
func (Leave) Tag() Tag             { return TagLeave }
func (PlaceBuilding) Tag() Tag     { return TagPlaceBuilding }
func (RemoveBuildings) Tag() Tag   { return TagRemoveBuildings }
func (UpgradeBuildings) Tag() Tag  { return TagUpgradeBuildings }
func (MoveUnits) Tag() Tag         { return TagMoveUnits }
func (CameraUpdate) Tag() Tag      { return TagCameraUpdate }
func (ChatMessage) Tag() Tag       { return TagChatMessage }
func (ResyncRequest) Tag() Tag     { return TagResyncRequest }
func (RequestSkinData) Tag() Tag   { return TagRequestSkinData }
func (SetUnitSpawning) Tag() Tag   { return TagSetUnitSpawning }
func (SetBuildingTarget) Tag() Tag { return TagSetBuildingTarget }

func (Heartbeat) encode(*Encoder)     {}
func (Leave) encode(*Encoder)         {}
func (ResyncRequest) encode(*Encoder) {}

func (c Join) encode(e *Encoder) {
	e.WriteFixedString(c.Name, NameSize)
	e.WriteByte(c.Skin)
	e.WriteUint32(c.Fingerprint)
}

func (c PlaceBuilding) encode(e *Encoder) {
	e.WriteByte(c.Kind)
	e.WriteFloat32(c.X)
	e.WriteFloat32(c.Y)
}

func (c RemoveBuildings) encode(e *Encoder) {
	writeNeutral(e, c.HasNeutral, c.NeutralID)
	e.WriteIDs(c.IDs)
}

func (c UpgradeBuildings) encode(e *Encoder) {
	writeNeutral(e, c.HasNeutral, c.NeutralID)
	e.WriteByte(c.Variant)
	e.WriteIDs(c.IDs)
}

func (c MoveUnits) encode(e *Encoder) {
	ids := c.IDs
	if len(ids) > math.MaxUint8 {
		ids = ids[:math.MaxUint8]
	}
	e.WriteByte(uint8(len(ids)))
	e.WriteUint16(c.TargetX)
	e.WriteUint16(c.TargetY)
	e.WriteIDs(ids)
}

func (c CameraUpdate) encode(e *Encoder) {
	e.WriteInt16(c.X)
	e.WriteInt16(c.Y)
	e.WriteByte(c.Zoom10)
}

func (c ChatMessage) encode(e *Encoder) {
	e.WriteText(c.Text, ChatSize)
}

func (c RequestSkinData) encode(e *Encoder) {
	e.WriteByte(c.Skin)
}

func (c SetUnitSpawning) encode(e *Encoder) {
	e.WriteByte(c.Building)
	e.WriteBool(c.Active)
}

func (c SetBuildingTarget) encode(e *Encoder) {
	e.WriteByte(c.Building)
	e.WriteFloat32(c.X)
	e.WriteFloat32(c.Y)
}

func writeNeutral(e *Encoder, has bool, id uint8) {
	e.WriteBool(has)
	if has {
		e.WriteByte(id)
	}
}

// NewCameraUpdate converts a world-space camera into its wire form,
// clamping to the int16 and zoom ranges.
func NewCameraUpdate(x, y, zoom float64) CameraUpdate {
	return CameraUpdate{
		X:      int16(clampRound(x, math.MinInt16, math.MaxInt16)),
		Y:      int16(clampRound(y, math.MinInt16, math.MaxInt16)),
		Zoom10: uint8(clampRound(zoom*10, 0, math.MaxUint8)),
	}
}

func clampRound(v, lo, hi float64) float64 {
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Server-side mirror decoders, used by the development server and tests.

var commandDecoders = map[Tag]func(d *Decoder) (Command, error){
	TagHeartbeat:     func(*Decoder) (Command, error) { return Heartbeat{}, nil },
	TagLeave:         func(*Decoder) (Command, error) { return Leave{}, nil },
	TagResyncRequest: func(*Decoder) (Command, error) { return ResyncRequest{}, nil },
	TagJoin: func(d *Decoder) (Command, error) {
		var c Join
		var err error
		if c.Name, err = d.ReadFixedString(NameSize); err != nil {
			return nil, err
		}
		if c.Skin, err = d.ReadByte(); err != nil {
			return nil, err
		}
		if c.Fingerprint, err = d.ReadUint32(); err != nil {
			return nil, err
		}
		return c, nil
	},
	TagPlaceBuilding: func(d *Decoder) (Command, error) {
		var c PlaceBuilding
		var err error
		if c.Kind, err = d.ReadByte(); err != nil {
			return nil, err
		}
		if c.X, c.Y, err = readPoint(d); err != nil {
			return nil, err
		}
		return c, nil
	},
	TagRemoveBuildings: func(d *Decoder) (Command, error) {
		var c RemoveBuildings
		var err error
		if c.HasNeutral, c.NeutralID, err = readNeutral(d); err != nil {
			return nil, err
		}
		c.IDs = d.ReadIDs()
		return c, nil
	},
	TagUpgradeBuildings: func(d *Decoder) (Command, error) {
		var c UpgradeBuildings
		var err error
		if c.HasNeutral, c.NeutralID, err = readNeutral(d); err != nil {
			return nil, err
		}
		if c.Variant, err = d.ReadByte(); err != nil {
			return nil, err
		}
		c.IDs = d.ReadIDs()
		return c, nil
	},
	TagMoveUnits: func(d *Decoder) (Command, error) {
		var c MoveUnits
		n, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		if c.TargetX, err = d.ReadUint16(); err != nil {
			return nil, err
		}
		if c.TargetY, err = d.ReadUint16(); err != nil {
			return nil, err
		}
		if n > 0 {
			if c.IDs, err = d.ReadCountedIDs(int(n)); err != nil {
				return nil, err
			}
		}
		return c, nil
	},
	TagCameraUpdate: func(d *Decoder) (Command, error) {
		var c CameraUpdate
		var err error
		if c.X, err = d.ReadInt16(); err != nil {
			return nil, err
		}
		if c.Y, err = d.ReadInt16(); err != nil {
			return nil, err
		}
		if c.Zoom10, err = d.ReadByte(); err != nil {
			return nil, err
		}
		return c, nil
	},
	TagChatMessage: func(d *Decoder) (Command, error) {
		return ChatMessage{Text: d.ReadText()}, nil
	},
	TagRequestSkinData: func(d *Decoder) (Command, error) {
		skin, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		return RequestSkinData{Skin: skin}, nil
	},
	TagSetUnitSpawning: func(d *Decoder) (Command, error) {
		var c SetUnitSpawning
		var err error
		if c.Building, err = d.ReadByte(); err != nil {
			return nil, err
		}
		if c.Active, err = d.ReadBool(); err != nil {
			return nil, err
		}
		return c, nil
	},
	TagSetBuildingTarget: func(d *Decoder) (Command, error) {
		var c SetBuildingTarget
		var err error
		if c.Building, err = d.ReadByte(); err != nil {
			return nil, err
		}
		if c.X, c.Y, err = readPoint(d); err != nil {
			return nil, err
		}
		return c, nil
	},
}

func readNeutral(d *Decoder) (bool, uint8, error) {
	has, err := d.ReadBool()
	if err != nil || !has {
		return false, 0, err
	}
	id, err := d.ReadByte()
	if err != nil {
		return false, 0, err
	}
	return true, id, nil
}

func readPoint(d *Decoder) (float32, float32, error) {
	x, err := d.ReadFloat32()
	if err != nil {
		return 0, 0, err
	}
	y, err := d.ReadFloat32()
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
