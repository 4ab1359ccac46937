package wire

import (
	"errors"
	"io"
	"reflect"
	"testing"
)

func TestCommandRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"heartbeat", Heartbeat{}},
		{"join", Join{Name: "Ada", Skin: 7, Fingerprint: 12345}},
		{"leave", Leave{}},
		{"place building", PlaceBuilding{Kind: 2, X: 120.5, Y: -3.25}},
		{"remove own buildings", RemoveBuildings{IDs: []uint8{1, 2, 3}}},
		{"remove neutral buildings", RemoveBuildings{HasNeutral: true, NeutralID: 9, IDs: []uint8{4}}},
		{"upgrade buildings", UpgradeBuildings{HasNeutral: true, NeutralID: 1, Variant: 2, IDs: []uint8{5, 6}}},
		{"move units", MoveUnits{TargetX: 640, TargetY: 480, IDs: []uint8{10, 11}}},
		{"camera", CameraUpdate{X: -200, Y: 300, Zoom10: 15}},
		{"chat", ChatMessage{Text: "gg wp"}},
		{"resync", ResyncRequest{}},
		{"skin request", RequestSkinData{Skin: 200}},
		{"spawning", SetUnitSpawning{Building: 3, Active: true}},
		{"target", SetBuildingTarget{Building: 3, X: 10, Y: 20}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame := EncodeCommand(tc.cmd)
			if Tag(frame[0]) != tc.cmd.Tag() {
				t.Fatalf("tag byte = %d, expected %d", frame[0], tc.cmd.Tag())
			}
			got, err := DecodeCommand(frame)
			if err != nil {
				t.Fatalf("DecodeCommand() failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.cmd) {
				t.Errorf("DecodeCommand() = %#v, expected %#v", got, tc.cmd)
			}
		})
	}
}

func TestJoinFrameLayout(t *testing.T) {
	frame := EncodeCommand(Join{Name: "Ada", Skin: 0, Fingerprint: 12345})
	if len(frame) != 18 {
		t.Fatalf("len(frame) = %d, expected 18", len(frame))
	}
	expected := []byte{
		byte(TagJoin),
		'A', 'd', 'a', 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0,
		0x00, 0x00, 0x30, 0x39,
	}
	if !reflect.DeepEqual(frame, expected) {
		t.Errorf("frame = % x, expected % x", frame, expected)
	}
}

func TestMoveUnitsCapsIDs(t *testing.T) {
	ids := make([]uint8, 300)
	frame := EncodeCommand(MoveUnits{IDs: ids})
	if frame[1] != 255 {
		t.Errorf("count byte = %d, expected 255", frame[1])
	}
	if len(frame) != 1+1+2+2+255 {
		t.Errorf("len(frame) = %d, expected %d", len(frame), 1+1+2+2+255)
	}
}

func TestNewCameraUpdate(t *testing.T) {
	c := NewCameraUpdate(40000, -12.6, 1.25)
	if c.X != 32767 {
		t.Errorf("X = %d, expected 32767", c.X)
	}
	if c.Y != -13 {
		t.Errorf("Y = %d, expected -13", c.Y)
	}
	if c.Zoom10 != 13 {
		t.Errorf("Zoom10 = %d, expected 13", c.Zoom10)
	}
}

func TestDecodeCraftedEvents(t *testing.T) {
	f32 := func(v float32) []byte {
		e := NewEncoder()
		e.WriteFloat32(v)
		return e.Bytes()
	}
	cat := func(parts ...[]byte) []byte {
		var out []byte
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	tests := []struct {
		name     string
		frame    []byte
		expected Event
	}{
		{
			name:     "welcome",
			frame:    []byte{byte(TagWelcome), 4},
			expected: Welcome{PlayerID: 4},
		},
		{
			name:     "player left",
			frame:    []byte{byte(TagPlayerLeft), 2},
			expected: PlayerLeft{ID: 2},
		},
		{
			name:  "barracks placed with spawning flag",
			frame: cat([]byte{byte(TagBuildingPlaced), 0, 1, 7, BarracksKind}, f32(10), f32(20), []byte{1}),
			expected: BuildingPlaced{
				OwnerKind: OwnerPlayer, OwnerID: 1, BuildingID: 7, Kind: BarracksKind,
				X: 10, Y: 20, Spawning: true,
			},
		},
		{
			name:  "non-barracks ignores trailing byte",
			frame: cat([]byte{byte(TagBuildingPlaced), 1, 3, 8, 0}, f32(1), f32(2), []byte{1}),
			expected: BuildingPlaced{
				OwnerKind: OwnerNeutral, OwnerID: 3, BuildingID: 8, Kind: 0, X: 1, Y: 2,
			},
		},
		{
			name:     "buildings removed",
			frame:    []byte{byte(TagBuildingsRemoved), 0, 1, 5, 6},
			expected: BuildingsRemoved{OwnerKind: OwnerPlayer, OwnerID: 1, IDs: []uint8{5, 6}},
		},
		{
			name:  "unit positions",
			frame: []byte{byte(TagUnitPositions), 2, 2, 9, 0x01, 0x00, 0x00, 0x20, 10, 0x00, 0x05, 0x00, 0x06},
			expected: UnitPositions{OwnerID: 2, Positions: []UnitPosition{
				{ID: 9, X: 256, Y: 32},
				{ID: 10, X: 5, Y: 6},
			}},
		},
		{
			name:     "health update",
			frame:    []byte{byte(TagHealthUpdate), 1, 4, 0x03, 0xe8},
			expected: HealthUpdate{OwnerKind: OwnerNeutral, ID: 4, Health: 1000},
		},
		{
			name:     "resource update",
			frame:    []byte{byte(TagResourceUpdate), 0, 0, 1, 0, 0, 0, 0, 50},
			expected: ResourceUpdate{Tick: 256, Gold: 50},
		},
		{
			name:     "chat stops at null",
			frame:    []byte{byte(TagChatBroadcast), 3, 'h', 'i', 0, 'x'},
			expected: ChatBroadcast{PlayerID: 3, Text: "hi"},
		},
		{
			name:     "skin data copies rest",
			frame:    []byte{byte(TagSkinData), 130, 0xde, 0xad},
			expected: SkinData{Skin: 130, Data: []byte{0xde, 0xad}},
		},
		{
			name:     "base captured",
			frame:    []byte{byte(TagBaseCaptured), 2, 1, 255, 0, 0},
			expected: BaseCaptured{NeutralID: 2, OwnerID: 1, Color: RGB(255, 0, 0)},
		},
		{
			name:     "base captured with sentinel color",
			frame:    []byte{byte(TagBaseCaptured), 2, 1, 0, 0, 0},
			expected: BaseCaptured{NeutralID: 2, OwnerID: 1},
		},
		{
			name:     "spawning toggled",
			frame:    []byte{byte(TagUnitSpawningToggled), 0, 1, 2, 0},
			expected: UnitSpawningToggled{OwnerKind: OwnerPlayer, OwnerID: 1, BuildingID: 2},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeEvent(tc.frame)
			if err != nil {
				t.Fatalf("DecodeEvent() failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("DecodeEvent() = %#v, expected %#v", got, tc.expected)
			}
		})
	}
}

func TestEventRoundTrip(t *testing.T) {
	events := []Event{
		PlayerJoined{ID: 1, Color: RGB(1, 2, 3), Name: "Zoë", Skin: 4, X: 5, Y: 6, Health: 700},
		BuildingsUpgraded{OwnerKind: OwnerNeutral, OwnerID: 2, Variant: 3, IDs: []uint8{1}},
		PlacementFailed{Kind: 4},
		UnitSpawned{OwnerID: 1, BuildingID: 2, UnitID: 3, Kind: 1, Variant: 0, X: 7.5, Y: 8.5},
		UnitsKilled{OwnerID: 1, IDs: []uint8{3, 4}},
		BulletFired{OwnerKind: OwnerPlayer, OwnerID: 1, BulletID: 9, X: 1, Y: 2, TargetX: 3, TargetY: 4},
		BulletsRemoved{OwnerKind: OwnerNeutral, OwnerID: 5, IDs: []uint8{9}},
		SkinDataMissing{Skin: 33},
		BaseDestroyed{OwnerKind: OwnerPlayer, ID: 6},
		BuildingTarget{OwnerKind: OwnerPlayer, OwnerID: 1, BuildingID: 2, X: 3, Y: 4},
		GameState{
			Players: []PlayerRecord{{
				ID: 1, Color: RGB(10, 20, 30), Name: "Ada", Skin: 2, X: 100, Y: 200, Health: 1000,
				Buildings: []BuildingRecord{{ID: 1, Kind: 0, Variant: 1, X: 110, Y: 210}},
				Units:     []UnitRecord{{ID: 4, Kind: 2, Variant: 0, X: 120, Y: 220}},
			}},
			NeutralBases: []NeutralRecord{{ID: 1, X: 500, Y: 500, Health: 400}},
			Bushes:       []Scenery{{X: 1, Y: 2, Radius: 3}},
			Rocks:        []Scenery{{X: 4, Y: 5, Radius: 6}},
		},
	}

	for _, ev := range events {
		t.Run(ev.Tag().String(), func(t *testing.T) {
			got, err := DecodeEvent(EncodeEvent(ev))
			if err != nil {
				t.Fatalf("DecodeEvent() failed: %v", err)
			}
			if !reflect.DeepEqual(got, ev) {
				t.Errorf("DecodeEvent() = %#v, expected %#v", got, ev)
			}
		})
	}
}

func TestDecodeEmptyGameState(t *testing.T) {
	got, err := DecodeEvent([]byte{byte(TagGameState), 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("DecodeEvent() failed: %v", err)
	}
	gs, ok := got.(GameState)
	if !ok {
		t.Fatalf("DecodeEvent() returned %T, expected GameState", got)
	}
	if len(gs.Players) != 0 || len(gs.NeutralBases) != 0 || len(gs.Bushes) != 0 || len(gs.Rocks) != 0 {
		t.Errorf("expected four empty collections, got %+v", gs)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	got, err := DecodeEvent([]byte{99, 1, 2})
	if err != nil {
		t.Fatalf("DecodeEvent() failed: %v", err)
	}
	u, ok := got.(Unknown)
	if !ok {
		t.Fatalf("DecodeEvent() returned %T, expected Unknown", got)
	}
	if u.Tag() != 99 || !reflect.DeepEqual(u.Payload, []byte{1, 2}) {
		t.Errorf("Unknown = %+v", u)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"short welcome", []byte{byte(TagWelcome)}},
		{"short resource update", []byte{byte(TagResourceUpdate), 0, 0, 0}},
		{"truncated game state", []byte{byte(TagGameState), 1, 1}},
		{"barracks without flag", append([]byte{byte(TagBuildingPlaced), 0, 1, 2, BarracksKind}, make([]byte, 8)...)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEvent(tc.frame)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("DecodeEvent() error = %v, expected ErrMalformed", err)
			}
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("DecodeEvent() error = %v, expected to wrap io.ErrUnexpectedEOF", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) || de.Tag != Tag(tc.frame[0]) {
				t.Errorf("DecodeEvent() error = %v, expected DecodeError for %s", err, Tag(tc.frame[0]))
			}
		})
	}

	if _, err := DecodeEvent(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("DecodeEvent(nil) error = %v, expected ErrEmptyFrame", err)
	}
}

func TestTagString(t *testing.T) {
	if TagResourceUpdate.String() != "ResourceUpdate" {
		t.Errorf("String() = %q", TagResourceUpdate.String())
	}
	if Tag(99).String() != "Tag(99)" {
		t.Errorf("String() = %q", Tag(99).String())
	}
}
