package state

import (
	"sort"
	"time"
)

type entity interface {
	StartFade()
	advanceFade(dt time.Duration) bool
}

// Collection holds live entities keyed by wire ID plus the ones still fading
// out. Removed entities leave the ID space immediately, so the server may
// reuse an ID while the old visual is still fading.
type Collection[E entity] struct {
	live   map[uint8]E
	fading []E
}

// NewCollection creates an empty collection.
func NewCollection[E entity]() *Collection[E] {
	return &Collection[E]{live: make(map[uint8]E)}
}

// Get returns the live entity with the given ID.
func (c *Collection[E]) Get(id uint8) (E, bool) {
	e, ok := c.live[id]
	return e, ok
}

// Put stores e under id. A live entity already holding the ID is moved to
// the fading list.
func (c *Collection[E]) Put(id uint8, e E) {
	if old, ok := c.live[id]; ok {
		old.StartFade()
		c.fading = append(c.fading, old)
	}
	c.live[id] = e
}

// Remove starts the fade-out of a live entity. Unknown IDs are ignored.
func (c *Collection[E]) Remove(id uint8) (E, bool) {
	e, ok := c.live[id]
	if !ok {
		return e, false
	}
	delete(c.live, id)
	e.StartFade()
	c.fading = append(c.fading, e)
	return e, true
}

// Len returns the number of live entities.
func (c *Collection[E]) Len() int {
	return len(c.live)
}

// IDs returns the live IDs in ascending order.
func (c *Collection[E]) IDs() []uint8 {
	ids := make([]uint8, 0, len(c.live))
	for id := range c.live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every live entity in ascending ID order.
func (c *Collection[E]) Each(fn func(id uint8, e E)) {
	for _, id := range c.IDs() {
		fn(id, c.live[id])
	}
}

// Live returns the live entities in ascending ID order.
func (c *Collection[E]) Live() []E {
	out := make([]E, 0, len(c.live))
	c.Each(func(_ uint8, e E) { out = append(out, e) })
	return out
}

// Fading returns the entities still animating out.
func (c *Collection[E]) Fading() []E {
	return c.fading
}

// Update advances fades by dt, drops finished ones and calls fn for every
// entity still on screen.
func (c *Collection[E]) Update(dt time.Duration, fn func(E)) {
	kept := c.fading[:0]
	for _, e := range c.fading {
		if e.advanceFade(dt) {
			continue
		}
		kept = append(kept, e)
		if fn != nil {
			fn(e)
		}
	}
	for i := len(kept); i < len(c.fading); i++ {
		var zero E
		c.fading[i] = zero
	}
	c.fading = kept

	if fn != nil {
		for _, e := range c.live {
			fn(e)
		}
	}
}
