package engine

import (
	"math"
	"time"

	"github.com/relabs-tech/orientation_engine/internal/angles"
)

// Complementary filter: the integrated estimate is responsive but
// drifts; gravity and heading references are drift-free but noisy (and
// gravity carries no yaw information at all). Each fusion tick blends
// the two, with independent weights for tilt and yaw. Both corrections
// run on every tick regardless of which raw event triggered it.

// correctLocked applies the tilt and heading corrections to the
// integrated estimate. now is the current fusion tick's timestamp.
func (e *Engine) correctLocked(now time.Time) {
	p := e.profile

	if e.hasAccel && fresh(now, e.lastAccel, p.ReferenceMaxAge) {
		pitch, roll := tiltFromGravity(e.smoothAccel)
		e.integrated.Beta = angles.Wrap180(p.GyroWeight*e.integrated.Beta + (1-p.GyroWeight)*pitch)
		e.integrated.Gamma = angles.Wrap180(p.GyroWeight*e.integrated.Gamma + (1-p.GyroWeight)*roll)
	}

	if ref, ok := e.headingRefLocked(now); ok {
		diff := angles.ShortestDiff(ref, e.integrated.Alpha)
		e.integrated.Alpha = angles.Wrap360(e.integrated.Alpha + p.YawCorrectionWeight*diff)
	} else {
		// No fresh heading: yaw stays pure integration, normalized.
		e.integrated.Alpha = angles.Wrap360(e.integrated.Alpha)
	}
}

// headingRefLocked picks the freshest trustworthy yaw reference, in
// priority order: quaternion-derived yaw, magnetometer heading,
// platform absolute orientation alpha.
func (e *Engine) headingRefLocked(now time.Time) (float64, bool) {
	max := e.profile.ReferenceMaxAge
	if fresh(now, e.lastQuat, max) {
		return e.quatYaw, true
	}
	if e.hasMag && fresh(now, e.lastHeading, max) {
		return e.heading, true
	}
	if e.absOrient && fresh(now, e.lastOrient, max) {
		return e.rawOrient.Alpha, true
	}
	return 0, false
}

func fresh(now, seen time.Time, max time.Duration) bool {
	return !seen.IsZero() && now.Sub(seen) <= max
}

// tiltFromGravity derives pitch and roll in degrees from a (smoothed)
// gravity vector.
func tiltFromGravity(a Vector) (pitch, roll float64) {
	pitch = math.Atan2(a.Y, math.Sqrt(a.X*a.X+a.Z*a.Z)) * 180 / math.Pi
	roll = math.Atan2(-a.X, a.Z) * 180 / math.Pi
	return pitch, roll
}
