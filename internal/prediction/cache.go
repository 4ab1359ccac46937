// Package prediction holds the optimistic building placement shown between
// sending PlaceBuilding and hearing back from the server.
//
// The cache has a single slot. A prediction is either confirmed by a
// matching BuildingPlaced (its visual is handed over to the real building),
// rejected by PlacementFailed, or dropped after a grace period.
package prediction

import (
	"errors"
	"time"

	"github.com/vovakirdan/arena-sync/internal/state"
)

// Default timings.
const (
	// Grace is how long an unconfirmed prediction stays on screen.
	Grace = 500 * time.Millisecond
	// ClearDelay is how long a confirmed prediction lingers before the slot
	// frees up.
	ClearDelay = 20 * time.Millisecond
)

// ErrPending is returned by Predict while an unconfirmed prediction exists.
var ErrPending = errors.New("prediction: placement already pending")

// Outcome reports what Expire did.
type Outcome int

const (
	// Idle means the slot was empty.
	Idle Outcome = iota
	// Waiting means the slot is still within its deadline.
	Waiting
	// Expired means an unconfirmed prediction ran out of grace.
	Expired
	// Cleared means a confirmed prediction was released.
	Cleared
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Waiting:
		return "waiting"
	case Expired:
		return "expired"
	case Cleared:
		return "cleared"
	default:
		return "idle"
	}
}

type slot struct {
	building    *state.Building
	createdAt   time.Time
	confirmedAt time.Time
	confirmed   bool
}

// Cache is the single-slot prediction cache. It is not safe for concurrent
// use; the network manager loop owns it.
type Cache struct {
	Grace      time.Duration
	ClearDelay time.Duration

	slot *slot
}

// New creates a cache with the default timings.
func New() *Cache {
	return &Cache{Grace: Grace, ClearDelay: ClearDelay}
}

// Predict caches b as the optimistic placement. It fails with ErrPending if
// an unconfirmed prediction is still outstanding; a confirmed one that has
// not been cleared yet is replaced.
func (c *Cache) Predict(b *state.Building, now time.Time) error {
	if c.slot != nil && !c.slot.confirmed {
		return ErrPending
	}
	c.slot = &slot{building: b, createdAt: now}
	return nil
}

// Confirm hands over the cached building when an unconfirmed prediction of
// the same kind exists. The slot stays occupied until ClearDelay has passed.
func (c *Cache) Confirm(kind uint8, now time.Time) (*state.Building, bool) {
	if c.slot == nil || c.slot.confirmed || c.slot.building.Kind != kind {
		return nil, false
	}
	c.slot.confirmed = true
	c.slot.confirmedAt = now
	return c.slot.building, true
}

// Expire clears the slot once its deadline has passed.
func (c *Cache) Expire(now time.Time) Outcome {
	if c.slot == nil {
		return Idle
	}
	if c.slot.confirmed {
		if now.Sub(c.slot.confirmedAt) >= c.ClearDelay {
			c.slot = nil
			return Cleared
		}
		return Waiting
	}
	if now.Sub(c.slot.createdAt) >= c.Grace {
		c.slot = nil
		return Expired
	}
	return Waiting
}

// Reject drops an unconfirmed prediction and returns it.
func (c *Cache) Reject() (*state.Building, bool) {
	if c.slot == nil || c.slot.confirmed {
		return nil, false
	}
	b := c.slot.building
	c.slot = nil
	return b, true
}

// Pending returns the building to draw optimistically, or nil once it has
// been confirmed or dropped.
func (c *Cache) Pending() *state.Building {
	if c.slot == nil || c.slot.confirmed {
		return nil
	}
	return c.slot.building
}

// Reset empties the slot, e.g. after the connection drops.
func (c *Cache) Reset() {
	c.slot = nil
}
