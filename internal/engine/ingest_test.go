package engine

import (
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/orientation_engine/internal/sample"
)

// Null and NaN fields are replaced by the last known good value and
// never crash or corrupt downstream stages.
func TestIngestSubstitutesMissingFields(t *testing.T) {
	p := testProfile()
	p.BiasLearningRate = 0
	e := startEngine(t, p)

	base := time.Now()
	e.HandleAngularRate(rateAt(base, 5, 3, 1))
	e.HandleAngularRate(sample.AngularRate{
		Alpha: nil,
		Beta:  sample.F(math.NaN()),
		Gamma: sample.F(2),
		T:     base.Add(10 * time.Millisecond),
	})

	snap := e.Snapshot()
	if snap.Gyro.Alpha != 5 || snap.Gyro.Beta != 3 || snap.Gyro.Gamma != 2 {
		t.Fatalf("gyro=%+v want {5 3 2}", snap.Gyro)
	}
}

// Before any valid reading, missing fields fall back to zero.
func TestIngestZeroWithoutHistory(t *testing.T) {
	e := startEngine(t, testProfile())

	e.HandleAngularRate(sample.AngularRate{T: time.Now()})
	snap := e.Snapshot()
	if snap.Gyro != (Angles{}) {
		t.Fatalf("gyro=%+v want zeros", snap.Gyro)
	}
	// An all-null sample is not a valid reading of that kind.
	if e.Status().HasGyro {
		t.Fatalf("availability flag set by empty sample")
	}
}

func TestAvailabilityFlags(t *testing.T) {
	e := startEngine(t, testProfile())

	base := time.Now()
	st := e.Status()
	if st.HasGyro || st.HasAccel || st.HasOrientation || st.HasMag {
		t.Fatalf("flags set before any sample: %+v", st)
	}

	e.HandleAngularRate(rateAt(base, 1, 0, 0))
	e.HandleLinearAccel(accelAt(base, 0, 0, gravity))
	e.HandleOrientation(orientAt(base, 10, 0, 0))
	e.HandleHeading(sample.MagneticHeading{Degrees: sample.F(42), T: base})

	st = e.Status()
	if !(st.HasGyro && st.HasAccel && st.HasOrientation && st.HasMag) {
		t.Fatalf("flags=%+v want all true", st)
	}
}

// A partial quaternion is dropped rather than mangled into a bogus
// heading.
func TestPartialQuaternionIgnored(t *testing.T) {
	p := testProfile()
	p.YawCorrectionWeight = 1
	e := startEngine(t, p)

	base := time.Now()
	e.HandleQuaternion(sample.AbsoluteQuaternion{
		X: sample.F(0), Y: sample.F(0), Z: sample.F(0.7), W: nil, T: base,
	})
	e.HandleAngularRate(rateAt(base, 0, 0, 0))

	if got := e.Snapshot().Orientation.Absolute.Alpha; got != 0 {
		t.Fatalf("alpha=%v want 0 (no usable heading)", got)
	}
}

// The raw platform orientation event stays visible in the snapshot for
// diagnostics even while Fusion drives the absolute estimate.
func TestAPIOrientationPreserved(t *testing.T) {
	e := startEngine(t, testProfile())

	base := time.Now()
	e.HandleOrientation(sample.OrientationEvent{
		Alpha: sample.F(123.44), Beta: sample.F(-45), Gamma: sample.F(7), T: base,
	})

	snap := e.Snapshot()
	if math.Abs(snap.Orientation.API.Alpha-123.4) > 1e-9 {
		t.Fatalf("api alpha=%v want 123.4", snap.Orientation.API.Alpha)
	}
	if snap.Orientation.API.Beta != -45 || snap.Orientation.API.Gamma != 7 {
		t.Fatalf("api=%+v", snap.Orientation.API)
	}
	// Fusion's absolute estimate is untouched by a relative event.
	if snap.Orientation.Absolute != (Angles{}) {
		t.Fatalf("absolute=%+v want zeros", snap.Orientation.Absolute)
	}
}
