package engine

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/orientation_engine/internal/sample"
)

// testProfile disarms the auto-calibration timer so tests control when
// calibration happens.
func testProfile() Profile {
	p := DefaultProfile()
	p.CalibrationDelay = time.Hour
	return p
}

func startEngine(t *testing.T, p Profile) *Engine {
	t.Helper()
	e := New(p)
	if r := e.Start(); !r.Success {
		t.Fatalf("start failed: %s", r.Message)
	}
	t.Cleanup(e.Stop)
	return e
}

func rateAt(t time.Time, a, b, g float64) sample.AngularRate {
	return sample.AngularRate{Alpha: sample.F(a), Beta: sample.F(b), Gamma: sample.F(g), T: t}
}

func accelAt(t time.Time, x, y, z float64) sample.LinearAccel {
	return sample.LinearAccel{X: sample.F(x), Y: sample.F(y), Z: sample.F(z), T: t}
}

type fakeSource struct {
	err      error
	attached bool
	detached bool
}

func (f *fakeSource) Attach(Sink) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.attached = true
	return func() { f.detached = true }, nil
}

func TestStartPermissionDenied(t *testing.T) {
	e := New(testProfile())
	ok := &fakeSource{}
	e.AddSource(ok)
	e.AddSource(&fakeSource{err: fmt.Errorf("gyro: %w", ErrPermissionDenied)})

	var got error
	e.SetErrorHandler(func(err error) { got = err })

	r := e.Start()
	if r.Success {
		t.Fatalf("expected failure, got %+v", r)
	}
	if !errors.Is(got, ErrPermissionDenied) {
		t.Fatalf("error handler got %v", got)
	}
	if !ok.detached {
		t.Fatalf("earlier source not detached on failed start")
	}
	if e.Status().Active {
		t.Fatalf("engine active after failed start")
	}
}

func TestStartSensorUnavailableDegrades(t *testing.T) {
	e := New(testProfile())
	e.AddSource(&fakeSource{err: fmt.Errorf("mag: %w", ErrSensorUnavailable)})

	var got error
	e.SetErrorHandler(func(err error) { got = err })

	r := e.Start()
	if !r.Success {
		t.Fatalf("start failed: %s", r.Message)
	}
	defer e.Stop()
	if !errors.Is(got, ErrSensorUnavailable) {
		t.Fatalf("error handler got %v", got)
	}
	if !e.Status().Active {
		t.Fatalf("engine should run without the unavailable sensor")
	}
}

// With every source silent the engine still works and reports zeros.
func TestNoSensorsAllZero(t *testing.T) {
	e := startEngine(t, testProfile())
	e.Calibrate()
	if rel := e.RelativeAngles(); rel != (Angles{}) {
		t.Fatalf("rel=%+v want zeros", rel)
	}
	snap := e.Snapshot()
	if snap.Orientation.Absolute != (Angles{}) || !snap.Calibrated {
		t.Fatalf("snapshot=%+v", snap)
	}
}

func TestCalibrateTwiceYieldsZero(t *testing.T) {
	e := startEngine(t, testProfile())

	e.Calibrate()
	if rel := e.RelativeAngles(); rel != (Angles{}) {
		t.Fatalf("first calibrate: rel=%+v want zeros", rel)
	}
	e.Calibrate()
	if rel := e.RelativeAngles(); rel != (Angles{}) {
		t.Fatalf("second calibrate: rel=%+v want zeros", rel)
	}
}

func TestUncalibratedRelativeIsZero(t *testing.T) {
	e := startEngine(t, testProfile())
	base := time.Now()
	e.HandleAngularRate(rateAt(base, 50, 50, 50))
	e.HandleAngularRate(rateAt(base.Add(time.Second), 50, 50, 50))

	if rel := e.RelativeAngles(); rel != (Angles{}) {
		t.Fatalf("rel=%+v want zeros before calibration", rel)
	}
	if snap := e.Snapshot(); snap.Orientation.Relative != (Angles{}) {
		t.Fatalf("snapshot relative=%+v", snap.Orientation.Relative)
	}
}

func TestAutoCalibrationTimer(t *testing.T) {
	p := testProfile()
	p.CalibrationDelay = 20 * time.Millisecond
	e := startEngine(t, p)

	deadline := time.Now().Add(2 * time.Second)
	for !e.Snapshot().Calibrated {
		if time.Now().After(deadline) {
			t.Fatalf("engine never auto-calibrated")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopResetsAndIsIdempotent(t *testing.T) {
	src := &fakeSource{}
	e := New(testProfile())
	e.AddSource(src)
	if r := e.Start(); !r.Success {
		t.Fatalf("start: %s", r.Message)
	}

	base := time.Now()
	e.HandleAngularRate(rateAt(base, 30, 0, 0))
	e.HandleAngularRate(rateAt(base.Add(time.Second), 30, 0, 0))
	e.Calibrate()

	e.Stop()
	e.Stop() // idempotent

	if !src.detached {
		t.Fatalf("source not detached")
	}
	st := e.Status()
	if st.Active || st.Calibrated || st.HasGyro {
		t.Fatalf("status after stop: %+v", st)
	}
	if snap := e.Snapshot(); snap.Orientation.Absolute != (Angles{}) {
		t.Fatalf("state not cleared: %+v", snap.Orientation.Absolute)
	}

	// A fresh start behaves like first use.
	if r := e.Start(); !r.Success {
		t.Fatalf("restart: %s", r.Message)
	}
	defer e.Stop()
	if e.Snapshot().Calibrated {
		t.Fatalf("calibration survived stop")
	}
}

func TestSamplesIgnoredWhenStopped(t *testing.T) {
	e := New(testProfile())
	e.HandleAngularRate(rateAt(time.Now(), 10, 10, 10))
	if st := e.Status(); st.HasGyro {
		t.Fatalf("sample accepted before start")
	}
}

func TestUpdateNotificationOnRateSamples(t *testing.T) {
	e := New(testProfile())
	var mu sync.Mutex
	count := 0
	e.SetUpdateHandler(func(Snapshot) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	if r := e.Start(); !r.Success {
		t.Fatalf("start: %s", r.Message)
	}
	defer e.Stop()

	e.Calibrate()
	base := time.Now()
	for i := 0; i < 5; i++ {
		e.HandleAngularRate(rateAt(base.Add(time.Duration(i)*10*time.Millisecond), 1, 0, 0))
	}
	e.HandleHeading(sample.MagneticHeading{Degrees: sample.F(90), T: base})

	mu.Lock()
	defer mu.Unlock()
	if count < 7 { // calibrate + 5 rate + heading
		t.Fatalf("count=%d want >=7", count)
	}
}

func TestSnapshotQuantization(t *testing.T) {
	p := testProfile()
	p.BiasLearningRate = 0 // keep displayed rates exact
	e := startEngine(t, p)
	base := time.Now()
	// 0.04 deg/s is below both the deadzone and the drift gate.
	e.HandleAngularRate(rateAt(base, 0.04, 0, 0))
	snap := e.Snapshot()
	if snap.Gyro.Alpha != 0 {
		t.Fatalf("gyro alpha=%v want 0", snap.Gyro.Alpha)
	}

	e.HandleAngularRate(rateAt(base.Add(time.Millisecond), 1.26, 0, 0))
	if got := e.Snapshot().Gyro.Alpha; got != 1.3 {
		t.Fatalf("gyro alpha=%v want 1.3", got)
	}
}

// Rounding must never push a snapshot angle onto an excluded range
// boundary: alpha just below 360 rounds to 360 but is published as 0.
func TestSnapshotAlphaStaysBelow360(t *testing.T) {
	p := testProfile()
	p.BiasLearningRate = 0
	p.GyroWeight = 1
	p.YawCorrectionWeight = 1 // snap yaw straight onto the heading
	e := startEngine(t, p)

	base := time.Now()
	e.HandleHeading(sample.MagneticHeading{Degrees: sample.F(359.96), T: base})
	e.HandleAngularRate(rateAt(base, 0, 0, 0))
	e.HandleAngularRate(rateAt(base.Add(100*time.Millisecond), 0, 0, 0))

	snap := e.Snapshot()
	if snap.Orientation.Absolute.Alpha != 0 {
		t.Fatalf("absolute alpha=%v want 0 (folded from 360)", snap.Orientation.Absolute.Alpha)
	}
	if snap.Magnetometer != 0 {
		t.Fatalf("magnetometer=%v want 0 (folded from 360)", snap.Magnetometer)
	}
}
