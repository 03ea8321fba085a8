package engine

import (
	"time"

	"github.com/relabs-tech/orientation_engine/internal/angles"
)

// Calibrate captures the current fused orientation as the zero
// reference. Under the Fusion strategy the working estimate is first
// re-seeded from the best instantaneous references (gravity tilt, plus
// a fresh heading when one exists), so re-zeroing does not throw away a
// correct absolute heading. Relative angles are exactly zero
// immediately after every call. Idempotent: calling it again simply
// re-captures the new current state.
func (e *Engine) Calibrate() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}

	if e.profile.Strategy == StrategyFusion {
		now := e.clockLocked()
		seed := Angles{}
		if e.hasAccel {
			seed.Beta, seed.Gamma = tiltFromGravity(e.smoothAccel)
			seed.Beta = angles.Wrap180(seed.Beta)
			seed.Gamma = angles.Wrap180(seed.Gamma)
		}
		if ref, ok := e.headingRefLocked(now); ok {
			seed.Alpha = angles.Wrap360(ref)
		}
		e.integrated = seed
		e.fused = e.integrated
	}

	e.reference = e.fused
	e.calibrated = true

	notify := e.notifyLocked()
	e.mu.Unlock()
	notify()
}

// RelativeAngles is the caller-facing steering signal: fused minus the
// calibration reference, quantized. Before calibration it is defined as
// exactly {0,0,0}.
func (e *Engine) RelativeAngles() Angles {
	e.mu.Lock()
	defer e.mu.Unlock()
	return quantizeRelative(e.relativeLocked())
}

func (e *Engine) relativeLocked() Angles {
	if !e.calibrated {
		return Angles{}
	}
	return Angles{
		// Crossing 0°/360° must yield a small signed number, not ~360.
		Alpha: angles.ShortestDiff(e.fused.Alpha, e.reference.Alpha),
		Beta:  angles.Wrap180(e.fused.Beta - e.reference.Beta),
		Gamma: angles.Wrap180(e.fused.Gamma - e.reference.Gamma),
	}
}

// clockLocked is "now" for staleness decisions: the most recent sample
// stamp seen, falling back to the wall clock before any sample arrives.
// Using sample time keeps replayed and synthetic streams consistent.
func (e *Engine) clockLocked() time.Time {
	now := e.lastRate
	for _, t := range []time.Time{e.lastAccel, e.lastOrient, e.lastHeading, e.lastQuat} {
		if t.After(now) {
			now = t
		}
	}
	if now.IsZero() {
		return time.Now()
	}
	return now
}
