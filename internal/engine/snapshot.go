package engine

import "github.com/relabs-tech/orientation_engine/internal/angles"

// Angles is a yaw/pitch/roll triplet in degrees. Alpha lives in
// [0, 360), beta and gamma in (-180, 180].
type Angles struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Vector is a raw x/y/z reading, m/s² for the accelerometer.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// OrientationSnapshot separates the three orientation views a consumer
// may want: the fused absolute estimate, the calibration-relative
// steering signal, and the untouched platform orientation event kept
// for diagnostics even when Fusion drives Absolute.
type OrientationSnapshot struct {
	Absolute Angles `json:"absolute"`
	Relative Angles `json:"relative"`
	API      Angles `json:"api"`
}

// Snapshot is the full synchronous read of engine state, the contract
// consumed by any UI or network collaborator. Every field is quantized
// and range-normalized.
type Snapshot struct {
	Gyro         Angles              `json:"gyro"` // debiased deg/s, drift-gated
	Accel        Vector              `json:"accel"`
	Orientation  OrientationSnapshot `json:"orientation"`
	Magnetometer float64             `json:"magnetometer"` // last heading, deg
	Calibrated   bool                `json:"calibrated"`
}

// Status is the engine's lifecycle view, published as the bridge
// heartbeat.
type Status struct {
	Active         bool   `json:"active"`
	Calibrated     bool   `json:"calibrated"`
	Strategy       string `json:"strategy"`
	Profile        string `json:"profile"`
	HasGyro        bool   `json:"has_gyro"`
	HasAccel       bool   `json:"has_accel"`
	HasOrientation bool   `json:"has_orientation"`
	HasMag         bool   `json:"has_mag"`
}

func quantizeAngles(a Angles) Angles {
	return Angles{
		Alpha: angles.Quantize(a.Alpha),
		Beta:  angles.Quantize(a.Beta),
		Gamma: angles.Quantize(a.Gamma),
	}
}

// quantizeOrientation quantizes a yaw/pitch/roll triplet and folds the
// excluded boundary values the rounding can produce back into range:
// alpha 359.95..360 rounds to 360, which is outside [0,360), and
// beta/gamma can land on -180, outside (-180,180].
func quantizeOrientation(a Angles) Angles {
	q := quantizeAngles(a)
	if q.Alpha >= 360 {
		q.Alpha = 0
	}
	q.Beta = foldHalfTurn(q.Beta)
	q.Gamma = foldHalfTurn(q.Gamma)
	return q
}

// quantizeRelative does the same for the signed relative triplet, whose
// alpha is a shortest-path diff bounded like beta/gamma.
func quantizeRelative(a Angles) Angles {
	q := quantizeAngles(a)
	q.Alpha = foldHalfTurn(q.Alpha)
	q.Beta = foldHalfTurn(q.Beta)
	q.Gamma = foldHalfTurn(q.Gamma)
	return q
}

func foldHalfTurn(v float64) float64 {
	if v <= -180 {
		return 180
	}
	return v
}

func quantizeHeading(v float64) float64 {
	q := angles.Quantize(angles.Wrap360(v))
	if q >= 360 {
		return 0
	}
	return q
}

func quantizeVector(v Vector) Vector {
	return Vector{
		X: angles.Quantize(v.X),
		Y: angles.Quantize(v.Y),
		Z: angles.Quantize(v.Z),
	}
}
