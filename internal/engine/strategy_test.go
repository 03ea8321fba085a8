package engine

import (
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/orientation_engine/internal/sample"
)

func directProfile() Profile {
	p := testProfile()
	p.Strategy = StrategyDirect
	return p
}

func orientAt(t time.Time, a, b, g float64) sample.OrientationEvent {
	return sample.OrientationEvent{
		Alpha: sample.F(a), Beta: sample.F(b), Gamma: sample.F(g), Absolute: true, T: t,
	}
}

// The Direct strategy smooths the native orientation event into the
// fused estimate without any integration.
func TestDirectStrategySmoothsTowardEvent(t *testing.T) {
	e := startEngine(t, directProfile())

	base := time.Now()
	for i := 0; i < 200; i++ {
		e.HandleOrientation(orientAt(base.Add(time.Duration(i)*20*time.Millisecond), 100, 20, -10))
	}

	got := e.Snapshot().Orientation.Absolute
	if math.Abs(got.Alpha-100) > 0.5 || math.Abs(got.Beta-20) > 0.5 || math.Abs(got.Gamma+10) > 0.5 {
		t.Fatalf("fused=%+v want ~{100 20 -10}", got)
	}
}

// Alpha smoothing is circular: approaching 2° from 359° never swings
// through 180°.
func TestDirectStrategyCircularAlpha(t *testing.T) {
	e := startEngine(t, directProfile())

	base := time.Now()
	e.HandleOrientation(orientAt(base, 359, 0, 0))
	for i := 1; i < 300; i++ {
		ts := base.Add(time.Duration(i) * 20 * time.Millisecond)
		e.HandleOrientation(orientAt(ts, 2, 0, 0))
		a := e.Snapshot().Orientation.Absolute.Alpha
		if a > 10 && a < 350 {
			t.Fatalf("alpha=%v crossed the long way", a)
		}
	}
	if a := e.Snapshot().Orientation.Absolute.Alpha; math.Abs(a-2) > 0.5 {
		t.Fatalf("alpha=%v want ~2", a)
	}
}

// Angular-rate samples never integrate under Direct.
func TestDirectStrategyIgnoresGyroIntegration(t *testing.T) {
	e := startEngine(t, directProfile())

	base := time.Now()
	e.HandleOrientation(orientAt(base, 50, 0, 0))
	before := e.Snapshot().Orientation.Absolute

	e.HandleAngularRate(rateAt(base, 90, 90, 90))
	e.HandleAngularRate(rateAt(base.Add(time.Second), 90, 90, 90))

	after := e.Snapshot().Orientation.Absolute
	if before != after {
		t.Fatalf("rate samples moved the direct estimate: %+v -> %+v", before, after)
	}
}

// Both strategies feed the same calibration contract.
func TestDirectStrategyCalibration(t *testing.T) {
	e := startEngine(t, directProfile())

	base := time.Now()
	for i := 0; i < 100; i++ {
		e.HandleOrientation(orientAt(base.Add(time.Duration(i)*20*time.Millisecond), 80, 10, 0))
	}
	e.Calibrate()
	if rel := e.RelativeAngles(); rel != (Angles{}) {
		t.Fatalf("rel=%+v want zeros", rel)
	}

	for i := 100; i < 300; i++ {
		e.HandleOrientation(orientAt(base.Add(time.Duration(i)*20*time.Millisecond), 90, 10, 0))
	}
	rel := e.RelativeAngles()
	if math.Abs(rel.Alpha-10) > 1 {
		t.Fatalf("relative alpha=%v want ~10", rel.Alpha)
	}
}

func TestProfileFor(t *testing.T) {
	if p := ProfileFor("ios-safari"); p.Strategy != StrategyDirect {
		t.Fatalf("ios: strategy=%v want direct", p.Strategy)
	}
	if p := ProfileFor("android-chrome"); p.Strategy != StrategyFusion {
		t.Fatalf("android: strategy=%v want fusion", p.Strategy)
	}
	if p := ProfileFor(""); p.Name != "generic" || p.Strategy != StrategyFusion {
		t.Fatalf("default profile: %+v", p)
	}
}
