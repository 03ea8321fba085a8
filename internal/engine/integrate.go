package engine

import (
	"math"
	"time"

	"github.com/relabs-tech/orientation_engine/internal/angles"
)

// integrateLocked advances the orientation estimate by the debiased
// angular rate over the elapsed wall-clock time since the previous
// sample. Sample arrival is uneven; dt is always measured, never
// assumed. A non-positive dt is a clock anomaly: the step is skipped,
// but the last known orientation still flows downstream.
func (e *Engine) integrateLocked(t time.Time) {
	deb := e.debiasedLocked()
	e.displayRate = e.gateDriftLocked(deb)

	if e.lastRate.IsZero() {
		return // first sample, no interval yet
	}
	dt := t.Sub(e.lastRate).Seconds()
	if dt <= 0 {
		return
	}

	e.integrated.Alpha = angles.Wrap360(e.integrated.Alpha + deb.Alpha*dt)
	e.integrated.Beta = angles.Wrap180(e.integrated.Beta + deb.Beta*dt)
	e.integrated.Gamma = angles.Wrap180(e.integrated.Gamma + deb.Gamma*dt)
}

// updateDisplayRateLocked maintains the displayed gyro value when no
// integration runs (Direct strategy).
func (e *Engine) updateDisplayRateLocked() {
	e.displayRate = e.gateDriftLocked(e.debiasedLocked())
}

// gateDriftLocked zeroes displayed rates below the drift threshold.
// This is presentation only: integration always uses the ungated
// debiased rate.
func (e *Engine) gateDriftLocked(r Angles) Angles {
	th := e.profile.DriftThreshold
	if math.Abs(r.Alpha) < th {
		r.Alpha = 0
	}
	if math.Abs(r.Beta) < th {
		r.Beta = 0
	}
	if math.Abs(r.Gamma) < th {
		r.Gamma = 0
	}
	return r
}
