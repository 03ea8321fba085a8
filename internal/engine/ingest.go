package engine

import (
	"math"
	"time"

	"github.com/relabs-tech/orientation_engine/internal/angles"
	"github.com/relabs-tech/orientation_engine/internal/sample"
)

// Sample ingest: one raw platform event becomes validated fields. Any
// null or non-finite field is replaced by the previous known value, the
// availability flag flips on the first valid reading of that kind, and
// the arrival time is recorded per source for dt and staleness checks.
// No smoothing and no bias correction happens here.

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// pick substitutes the previous known value for a missing or invalid
// field (or zero, if there never was one).
func pick(p *float64, prev float64) float64 {
	if p == nil || !finite(*p) {
		return prev
	}
	return *p
}

func valid(p *float64) bool {
	return p != nil && finite(*p)
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// HandleAngularRate runs the full fusion tick: ingest, bias learning,
// integration, reference correction. Under the Direct strategy only the
// displayed gyro value is maintained.
func (e *Engine) HandleAngularRate(s sample.AngularRate) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	t := stamp(s.T)

	e.rawRate = Angles{
		Alpha: pick(s.Alpha, e.rawRate.Alpha),
		Beta:  pick(s.Beta, e.rawRate.Beta),
		Gamma: pick(s.Gamma, e.rawRate.Gamma),
	}
	if valid(s.Alpha) || valid(s.Beta) || valid(s.Gamma) {
		e.hasGyro = true
	}

	e.updateBiasLocked()

	if e.profile.Strategy == StrategyFusion {
		e.integrateLocked(t)
		e.correctLocked(t)
		e.fused = e.integrated
	} else {
		e.updateDisplayRateLocked()
	}
	// Never rewind the integration clock: an out-of-order stamp already
	// skipped its own tick, and letting it drag lastRate backwards would
	// make the next sample integrate time that never elapsed.
	if t.After(e.lastRate) {
		e.lastRate = t
	}

	notify := e.notifyLocked()
	e.mu.Unlock()
	notify()
}

// HandleLinearAccel ingests an accelerometer reading and maintains the
// smoothed gravity vector the tilt reference is derived from.
func (e *Engine) HandleLinearAccel(s sample.LinearAccel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return
	}
	t := stamp(s.T)

	e.rawAccel = Vector{
		X: pick(s.X, e.rawAccel.X),
		Y: pick(s.Y, e.rawAccel.Y),
		Z: pick(s.Z, e.rawAccel.Z),
	}
	if !(valid(s.X) || valid(s.Y) || valid(s.Z)) {
		return
	}

	w := e.profile.AccelSmoothing
	if !e.hasAccel {
		// Seed the filter so the tilt estimate is usable immediately.
		e.smoothAccel = e.rawAccel
	} else {
		e.smoothAccel = Vector{
			X: angles.SmoothValue(e.rawAccel.X, e.smoothAccel.X, w),
			Y: angles.SmoothValue(e.rawAccel.Y, e.smoothAccel.Y, w),
			Z: angles.SmoothValue(e.rawAccel.Z, e.smoothAccel.Z, w),
		}
	}
	e.hasAccel = true
	e.lastAccel = t
}

// HandleOrientation ingests the platform orientation event. Under the
// Direct strategy it drives the fused estimate; under Fusion it is kept
// as the diagnostic API view and, when absolute, as a heading
// candidate.
func (e *Engine) HandleOrientation(s sample.OrientationEvent) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	t := stamp(s.T)

	e.rawOrient = Angles{
		Alpha: angles.Wrap360(pick(s.Alpha, e.rawOrient.Alpha)),
		Beta:  angles.Wrap180(pick(s.Beta, e.rawOrient.Beta)),
		Gamma: angles.Wrap180(pick(s.Gamma, e.rawOrient.Gamma)),
	}
	if valid(s.Alpha) || valid(s.Beta) || valid(s.Gamma) {
		e.hasOrientation = true
		e.absOrient = s.Absolute
		e.lastOrient = t
	}

	if e.profile.Strategy == StrategyDirect {
		e.directTickLocked()
	}

	notify := e.notifyLocked()
	e.mu.Unlock()
	notify()
}

// HandleQuaternion derives a yaw heading reference from a platform
// absolute-orientation quaternion.
func (e *Engine) HandleQuaternion(s sample.AbsoluteQuaternion) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	if !(valid(s.X) && valid(s.Y) && valid(s.Z) && valid(s.W)) {
		// A partial quaternion is useless as a reference; keep the
		// previous derived yaw and move on.
		e.mu.Unlock()
		return
	}
	qx, qy, qz, qw := *s.X, *s.Y, *s.Z, *s.W
	yaw := math.Atan2(2*(qw*qz+qx*qy), 1-2*(qy*qy+qz*qz)) * 180 / math.Pi
	e.quatYaw = angles.Wrap360(yaw)
	e.lastQuat = stamp(s.T)
	e.hasOrientation = true

	notify := e.notifyLocked()
	e.mu.Unlock()
	notify()
}

// HandleHeading ingests a magnetometer/compass heading.
func (e *Engine) HandleHeading(s sample.MagneticHeading) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	if !valid(s.Degrees) {
		e.mu.Unlock()
		return
	}
	e.heading = angles.Wrap360(*s.Degrees)
	e.hasMag = true
	e.lastHeading = stamp(s.T)

	notify := e.notifyLocked()
	e.mu.Unlock()
	notify()
}
