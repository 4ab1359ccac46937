package state

import (
	"time"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/interp"
)

// Zoom limits.
const (
	MinZoom = 0.5
	MaxZoom = 2.5
)

// Camera is the local viewport. Position and zoom are smoothed.
type Camera struct {
	Pos      interp.Vec
	Zoom     interp.Scalar
	Viewport core.Vec // screen size in pixels
}

// NewCamera returns a camera at the origin with zoom 1.
func NewCamera(viewport core.Vec) Camera {
	return Camera{Zoom: interp.NewScalar(1), Viewport: viewport}
}

// Follow moves the camera target to p.
func (c *Camera) Follow(p core.Vec) {
	c.Pos.Target = p
}

// SetZoom changes the target zoom, clamped to [MinZoom, MaxZoom].
func (c *Camera) SetZoom(z float64) {
	c.Zoom.Target = core.Clamp(z, MinZoom, MaxZoom)
}

// Update advances the smoothing by dt.
func (c *Camera) Update(dt time.Duration) {
	c.Pos.Step(interp.FrameRatio(interp.PositionRatio, dt))
	c.Zoom.Step(interp.FrameRatio(interp.ZoomRatio, dt))
}

// Bounds returns the world rectangle currently visible.
func (c Camera) Bounds() core.Rect {
	z := c.Zoom.Displayed
	if z <= 0 {
		z = 1
	}
	w, h := c.Viewport.X/z, c.Viewport.Y/z
	center := c.Pos.Displayed
	return core.NewRect(center.X-w/2, center.Y-h/2, w, h)
}
