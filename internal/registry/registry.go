// Package registry holds the behaviour table for building and unit kinds.
// Kinds register themselves in init(), so the store, the placement check and
// the CLI can look behaviour up by wire kind without hardcoded switches.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Category separates the building and unit kind spaces, which overlap on the
// wire.
type Category uint8

const (
	Building Category = iota
	Unit
)

// String returns the category name.
func (c Category) String() string {
	if c == Unit {
		return "unit"
	}
	return "building"
}

// Behaviour describes one building or unit kind.
type Behaviour struct {
	Category Category
	Kind     uint8
	Name     string // short identifier, e.g. "barracks"
	Title    string // human-readable name

	// Cost is the gold needed to place a building of this kind.
	Cost uint32
	// Radius is the collision footprint in world units.
	Radius float64
	// MaxVariant is the highest upgrade tier.
	MaxVariant uint8
	// SpawnsUnits is set for buildings that produce units.
	SpawnsUnits bool
}

type key struct {
	cat  Category
	kind uint8
}

var (
	table = make(map[key]Behaviour)
	mu    sync.RWMutex
)

// Register adds a behaviour to the table.
// Typically called from an init() function.
// Panics if the category and kind are already registered.
func Register(b Behaviour) {
	mu.Lock()
	defer mu.Unlock()

	k := key{b.Category, b.Kind}
	if existing, exists := table[k]; exists {
		panic(fmt.Sprintf("registry: %s kind %d already registered as %q", b.Category, b.Kind, existing.Name))
	}
	table[k] = b
}

// Lookup returns the behaviour for a kind.
func Lookup(cat Category, kind uint8) (Behaviour, bool) {
	mu.RLock()
	defer mu.RUnlock()

	b, ok := table[key{cat, kind}]
	return b, ok
}

// BuildingKind is shorthand for Lookup(Building, kind).
func BuildingKind(kind uint8) (Behaviour, bool) {
	return Lookup(Building, kind)
}

// UnitKind is shorthand for Lookup(Unit, kind).
func UnitKind(kind uint8) (Behaviour, bool) {
	return Lookup(Unit, kind)
}

// ByName finds a behaviour by its short name.
func ByName(cat Category, name string) (Behaviour, error) {
	mu.RLock()
	defer mu.RUnlock()

	for k, b := range table {
		if k.cat == cat && b.Name == name {
			return b, nil
		}
	}
	return Behaviour{}, fmt.Errorf("registry: unknown %s %q", cat, name)
}

// List returns every behaviour of a category, sorted by kind.
func List(cat Category) []Behaviour {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Behaviour, 0, len(table))
	for k, b := range table {
		if k.cat == cat {
			result = append(result, b)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Kind < result[j].Kind
	})

	return result
}
