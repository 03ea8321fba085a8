package engine

import "math"

// Standard gravity, m/s².
const gravity = 9.80665

// updateBiasLocked runs once per angular-rate sample, after ingest.
// Gyroscopes have a non-zero, slowly varying zero-rate output;
// integrating it unconditionally produces runaway drift even when the
// device is motionless. The bias only adapts while the device is judged
// stationary, so genuine rotation is never absorbed into it.
func (e *Engine) updateBiasLocked() {
	deb := e.debiasedLocked()
	rotation := math.Abs(deb.Alpha) + math.Abs(deb.Beta) + math.Abs(deb.Gamma)
	if rotation >= e.profile.RotationThreshold {
		return
	}
	if e.hasAccel {
		a := e.rawAccel
		magnitude := math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
		if math.Abs(magnitude-gravity) >= e.profile.AccelThreshold {
			return
		}
	}

	r := e.profile.BiasLearningRate
	e.bias.Alpha = e.bias.Alpha*(1-r) + e.rawRate.Alpha*r
	e.bias.Beta = e.bias.Beta*(1-r) + e.rawRate.Beta*r
	e.bias.Gamma = e.bias.Gamma*(1-r) + e.rawRate.Gamma*r
}

// debiasedLocked returns the raw rate with the current bias removed.
func (e *Engine) debiasedLocked() Angles {
	return Angles{
		Alpha: e.rawRate.Alpha - e.bias.Alpha,
		Beta:  e.rawRate.Beta - e.bias.Beta,
		Gamma: e.rawRate.Gamma - e.bias.Gamma,
	}
}
