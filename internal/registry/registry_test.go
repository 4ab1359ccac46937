package registry

import "testing"

func TestBuiltinBuildings(t *testing.T) {
	tests := []struct {
		kind   uint8
		name   string
		spawns bool
	}{
		{KindMine, "mine", false},
		{KindBarracks, "barracks", true},
		{KindTurret, "turret", false},
		{KindWall, "wall", false},
		{KindHealer, "healer", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, ok := BuildingKind(tc.kind)
			if !ok {
				t.Fatalf("BuildingKind(%d) not registered", tc.kind)
			}
			if b.Name != tc.name {
				t.Errorf("Name = %q, expected %q", b.Name, tc.name)
			}
			if b.SpawnsUnits != tc.spawns {
				t.Errorf("SpawnsUnits = %v, expected %v", b.SpawnsUnits, tc.spawns)
			}
			if b.Cost == 0 || b.Radius <= 0 {
				t.Errorf("building %q needs a cost and a radius, got %+v", tc.name, b)
			}
		})
	}
}

func TestCategoriesAreSeparate(t *testing.T) {
	unit, ok := UnitKind(KindSoldier)
	if !ok || unit.Name != "soldier" {
		t.Fatalf("UnitKind(%d) = %+v, %v", KindSoldier, unit, ok)
	}
	building, ok := BuildingKind(KindMine)
	if !ok || building.Name != "mine" {
		t.Fatalf("BuildingKind(%d) = %+v, %v", KindMine, building, ok)
	}
	if _, ok := UnitKind(200); ok {
		t.Error("UnitKind(200) should not exist")
	}
}

func TestListSorted(t *testing.T) {
	list := List(Building)
	if len(list) != 5 {
		t.Fatalf("List(Building) returned %d entries, expected 5", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Kind >= list[i].Kind {
			t.Errorf("List() not sorted at %d: %d >= %d", i, list[i-1].Kind, list[i].Kind)
		}
	}
}

func TestByName(t *testing.T) {
	b, err := ByName(Building, "turret")
	if err != nil {
		t.Fatalf("ByName() failed: %v", err)
	}
	if b.Kind != KindTurret {
		t.Errorf("Kind = %d, expected %d", b.Kind, KindTurret)
	}
	if _, err := ByName(Unit, "turret"); err == nil {
		t.Error("ByName(Unit, turret) should fail")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register() of a duplicate kind should panic")
		}
	}()
	Register(Behaviour{Category: Building, Kind: KindMine, Name: "dup"})
}
