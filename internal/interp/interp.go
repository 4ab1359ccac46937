// Package interp holds the per-tick smoothing primitives that move displayed
// values towards authoritative targets. None of them know about time except
// through the ratio or delta they are stepped with.
package interp

import (
	"math"
	"time"

	"github.com/vovakirdan/arena-sync/internal/core"
)

// Tuning defaults.
const (
	// Epsilon is the distance under which a displayed value snaps to its
	// target.
	Epsilon = 0.01

	// PositionRatio is the per-frame smoothing factor for positions.
	PositionRatio = 0.2
	// ZoomRatio is the per-frame smoothing factor for the camera zoom.
	ZoomRatio = 0.1
	// MaxStep caps FrameRatio so a long frame never overshoots.
	MaxStep = 1.0

	// Frame is the nominal frame length FrameRatio is expressed against.
	Frame = time.Second / 60
)

// FrameRatio scales a per-frame smoothing factor to an arbitrary delta, so
// smoothing speed does not depend on the tick rate.
func FrameRatio(base float64, dt time.Duration) float64 {
	if dt <= 0 {
		return 0
	}
	return core.Clamp(base*float64(dt)/float64(Frame), 0, MaxStep)
}

// Scalar smooths a single number.
type Scalar struct {
	Target    float64
	Displayed float64
}

// NewScalar returns a scalar already at rest on v.
func NewScalar(v float64) Scalar {
	return Scalar{Target: v, Displayed: v}
}

// Snap moves both target and displayed value to v.
func (s *Scalar) Snap(v float64) {
	s.Target, s.Displayed = v, v
}

// Step advances the displayed value by ratio of the remaining distance.
// It reports whether the value is still moving.
func (s *Scalar) Step(ratio float64) bool {
	d := s.Target - s.Displayed
	if math.Abs(d) < Epsilon {
		s.Displayed = s.Target
		return false
	}
	s.Displayed += d * ratio
	return true
}

// Settled reports whether displayed equals target.
func (s Scalar) Settled() bool {
	return s.Displayed == s.Target
}

// Vec smooths a position.
type Vec struct {
	Target    core.Vec
	Displayed core.Vec
}

// NewVec returns a vector already at rest on p.
func NewVec(p core.Vec) Vec {
	return Vec{Target: p, Displayed: p}
}

// Snap moves both target and displayed position to p.
func (v *Vec) Snap(p core.Vec) {
	v.Target, v.Displayed = p, p
}

// Step advances the displayed position by ratio of the remaining distance.
func (v *Vec) Step(ratio float64) bool {
	d := v.Target.Sub(v.Displayed)
	if math.Abs(d.X) < Epsilon && math.Abs(d.Y) < Epsilon {
		v.Displayed = v.Target
		return false
	}
	v.Displayed = v.Displayed.Add(d.Scale(ratio))
	return true
}

// Settled reports whether displayed equals target.
func (v Vec) Settled() bool {
	return v.Displayed == v.Target
}

// Angle smooths a rotation along the shortest arc.
type Angle struct {
	Target    float64
	Displayed float64
}

// Snap sets both target and displayed angle.
func (a *Angle) Snap(rad float64) {
	w := Wrap(rad)
	a.Target, a.Displayed = w, w
}

// Set changes the target angle.
func (a *Angle) Set(rad float64) {
	a.Target = Wrap(rad)
}

// Step rotates towards the target by ratio of the shortest arc.
func (a *Angle) Step(ratio float64) bool {
	d := Wrap(a.Target - a.Displayed)
	if math.Abs(d) < Epsilon {
		a.Displayed = a.Target
		return false
	}
	a.Displayed = Wrap(a.Displayed + d*ratio)
	return true
}

// Wrap normalizes an angle to (-pi, pi].
func Wrap(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad <= -math.Pi {
		rad += 2 * math.Pi
	} else if rad > math.Pi {
		rad -= 2 * math.Pi
	}
	return rad
}

// Spring defaults for health bars.
const (
	DefaultStiffness = 0.1
	DefaultDamping   = 0.6
)

// Spring is a damped spring, used so health bars wobble into place rather
// than sliding linearly.
type Spring struct {
	Target    float64
	Displayed float64
	Velocity  float64
	Stiffness float64
	Damping   float64
}

// NewSpring returns a spring at rest on v with default tuning.
func NewSpring(v float64) Spring {
	return Spring{Target: v, Displayed: v, Stiffness: DefaultStiffness, Damping: DefaultDamping}
}

// Step advances the spring by one tick. It snaps to the target once both the
// remaining distance and the velocity are under Epsilon.
func (s *Spring) Step() bool {
	s.Velocity = (s.Velocity + (s.Target-s.Displayed)*s.Stiffness) * s.Damping
	s.Displayed += s.Velocity
	if math.Abs(s.Target-s.Displayed) < Epsilon && math.Abs(s.Velocity) < Epsilon {
		s.Displayed = s.Target
		s.Velocity = 0
		return false
	}
	return true
}

// Ramp is a one-shot 0 -> 1 progress over a fixed duration.
type Ramp struct {
	Duration time.Duration
	Elapsed  time.Duration
}

// Advance moves the ramp forward by dt.
func (r *Ramp) Advance(dt time.Duration) {
	if dt > 0 {
		r.Elapsed += dt
	}
	if r.Elapsed > r.Duration {
		r.Elapsed = r.Duration
	}
}

// Progress returns how far along the ramp is, in [0, 1].
func (r Ramp) Progress() float64 {
	if r.Duration <= 0 {
		return 1
	}
	return core.Clamp(float64(r.Elapsed)/float64(r.Duration), 0, 1)
}

// Done reports whether the ramp has run its full duration.
func (r Ramp) Done() bool {
	return r.Elapsed >= r.Duration
}

// Fade defaults.
const (
	FadeDuration = 300 * time.Millisecond
	FadeGrow     = 0.5
)

// Fade drives the removal animation: alpha drops to zero while the sprite
// grows by Grow.
type Fade struct {
	Ramp
	Grow float64
}

// NewFade returns a fade with the default duration and growth.
func NewFade() *Fade {
	return &Fade{Ramp: Ramp{Duration: FadeDuration}, Grow: FadeGrow}
}

// Alpha returns the current opacity.
func (f Fade) Alpha() float64 {
	return 1 - f.Progress()
}

// Size returns the current scale multiplier.
func (f Fade) Size() float64 {
	return 1 + f.Grow*f.Progress()
}
