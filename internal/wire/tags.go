package wire

import "fmt"

// Tag identifies the payload layout of a frame.
// Commands and events share the byte space; commands use 0..31 and events
// use 40 and up by convention.
type Tag uint8

// Command tags (client -> server).
const (
	TagHeartbeat         Tag = 0
	TagJoin              Tag = 1
	TagLeave             Tag = 2
	TagPlaceBuilding     Tag = 3
	TagRemoveBuildings   Tag = 4
	TagUpgradeBuildings  Tag = 5
	TagMoveUnits         Tag = 6
	TagCameraUpdate      Tag = 7
	TagChatMessage       Tag = 8
	TagResyncRequest     Tag = 9
	TagRequestSkinData   Tag = 10
	TagSetUnitSpawning   Tag = 11
	TagSetBuildingTarget Tag = 12
)

// Event tags (server -> client).
const (
	TagWelcome             Tag = 40
	TagGameState           Tag = 41
	TagPlayerJoined        Tag = 42
	TagPlayerLeft          Tag = 43
	TagBuildingPlaced      Tag = 44
	TagBuildingsRemoved    Tag = 45
	TagBuildingsUpgraded   Tag = 46
	TagPlacementFailed     Tag = 47
	TagUnitSpawned         Tag = 48
	TagUnitPositions       Tag = 49
	TagUnitsKilled         Tag = 50
	TagBulletFired         Tag = 51
	TagBulletsRemoved      Tag = 52
	TagHealthUpdate        Tag = 53
	TagResourceUpdate      Tag = 54
	TagChatBroadcast       Tag = 55
	TagSkinDataMissing     Tag = 56
	TagSkinData            Tag = 57
	TagBaseCaptured        Tag = 58
	TagBaseDestroyed       Tag = 59
	TagUnitSpawningToggled Tag = 60
	TagBuildingTarget      Tag = 61
)

var tagNames = map[Tag]string{
	TagHeartbeat:         "Heartbeat",
	TagJoin:              "Join",
	TagLeave:             "Leave",
	TagPlaceBuilding:     "PlaceBuilding",
	TagRemoveBuildings:   "RemoveBuildings",
	TagUpgradeBuildings:  "UpgradeBuildings",
	TagMoveUnits:         "MoveUnits",
	TagCameraUpdate:      "CameraUpdate",
	TagChatMessage:       "ChatMessage",
	TagResyncRequest:     "ResyncRequest",
	TagRequestSkinData:   "RequestSkinData",
	TagSetUnitSpawning:   "SetUnitSpawning",
	TagSetBuildingTarget: "SetBuildingTarget",

	TagWelcome:             "Welcome",
	TagGameState:           "GameState",
	TagPlayerJoined:        "PlayerJoined",
	TagPlayerLeft:          "PlayerLeft",
	TagBuildingPlaced:      "BuildingPlaced",
	TagBuildingsRemoved:    "BuildingsRemoved",
	TagBuildingsUpgraded:   "BuildingsUpgraded",
	TagPlacementFailed:     "PlacementFailed",
	TagUnitSpawned:         "UnitSpawned",
	TagUnitPositions:       "UnitPositions",
	TagUnitsKilled:         "UnitsKilled",
	TagBulletFired:         "BulletFired",
	TagBulletsRemoved:      "BulletsRemoved",
	TagHealthUpdate:        "HealthUpdate",
	TagResourceUpdate:      "ResourceUpdate",
	TagChatBroadcast:       "ChatBroadcast",
	TagSkinDataMissing:     "SkinDataMissing",
	TagSkinData:            "SkinData",
	TagBaseCaptured:        "BaseCaptured",
	TagBaseDestroyed:       "BaseDestroyed",
	TagUnitSpawningToggled: "UnitSpawningToggled",
	TagBuildingTarget:      "BuildingTarget",
}

// String returns the tag name, or Tag(n) for unknown tags.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// OwnerKind says which collection an owner id refers to.
type OwnerKind uint8

const (
	OwnerPlayer  OwnerKind = 0
	OwnerNeutral OwnerKind = 1
)

// String returns a human-readable owner kind.
func (k OwnerKind) String() string {
	switch k {
	case OwnerPlayer:
		return "player"
	case OwnerNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// BarracksKind is the building kind whose placement carries an extra
// unit-spawning flag.
const BarracksKind uint8 = 1
