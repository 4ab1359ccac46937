package registry

import "github.com/vovakirdan/arena-sync/internal/wire"

// Building kinds.
const (
	KindMine     uint8 = 0
	KindBarracks       = wire.BarracksKind
	KindTurret   uint8 = 2
	KindWall     uint8 = 3
	KindHealer   uint8 = 4
)

// Unit kinds.
const (
	KindSoldier uint8 = 0
	KindArcher  uint8 = 1
	KindKnight  uint8 = 2
)

func init() {
	Register(Behaviour{Category: Building, Kind: KindMine, Name: "mine", Title: "Gold Mine", Cost: 50, Radius: 20, MaxVariant: 2})
	Register(Behaviour{Category: Building, Kind: KindBarracks, Name: "barracks", Title: "Barracks", Cost: 100, Radius: 25, MaxVariant: 2, SpawnsUnits: true})
	Register(Behaviour{Category: Building, Kind: KindTurret, Name: "turret", Title: "Turret", Cost: 75, Radius: 18, MaxVariant: 3})
	Register(Behaviour{Category: Building, Kind: KindWall, Name: "wall", Title: "Wall", Cost: 20, Radius: 12, MaxVariant: 1})
	Register(Behaviour{Category: Building, Kind: KindHealer, Name: "healer", Title: "Healer", Cost: 120, Radius: 18, MaxVariant: 2})

	Register(Behaviour{Category: Unit, Kind: KindSoldier, Name: "soldier", Title: "Soldier", Radius: 6, MaxVariant: 2})
	Register(Behaviour{Category: Unit, Kind: KindArcher, Name: "archer", Title: "Archer", Radius: 5, MaxVariant: 2})
	Register(Behaviour{Category: Unit, Kind: KindKnight, Name: "knight", Title: "Knight", Radius: 8, MaxVariant: 2})
}
