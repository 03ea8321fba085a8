package angles

import (
	"math"
	"testing"
)

func TestWrap180(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{180, 180},
		{-180, 180},
		{181, -179},
		{359, -1},
		{-540, 180},
		{720, 0},
		{math.NaN(), 0},
	}
	for _, c := range cases {
		if got := Wrap180(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("Wrap180(%v)=%v want=%v", c.in, got, c.want)
		}
	}
}

func TestWrap360(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{360, 0},
		{-1, 359},
		{361, 1},
		{-720, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, c := range cases {
		if got := Wrap360(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("Wrap360(%v)=%v want=%v", c.in, got, c.want)
		}
	}
}

// ShortestDiff must stay in (-180, 180] and round-trip:
// Wrap360(b + ShortestDiff(a, b)) == a for a, b in [0, 360).
func TestShortestDiffRoundTrip(t *testing.T) {
	for a := 0.0; a < 360; a += 7.3 {
		for b := 0.0; b < 360; b += 11.9 {
			d := ShortestDiff(a, b)
			if d <= -180 || d > 180 {
				t.Fatalf("ShortestDiff(%v,%v)=%v out of (-180,180]", a, b, d)
			}
			rt := Wrap360(b + d)
			if diff := math.Abs(Wrap180(rt - a)); diff > 1e-9 {
				t.Fatalf("round-trip a=%v b=%v got=%v", a, b, rt)
			}
		}
	}
}

func TestShortestDiffCrossesZero(t *testing.T) {
	if got := ShortestDiff(2, 359); math.Abs(got-3) > 1e-9 {
		t.Fatalf("got=%v want=3", got)
	}
	if got := ShortestDiff(359, 2); math.Abs(got+3) > 1e-9 {
		t.Fatalf("got=%v want=-3", got)
	}
}

func TestSmoothCircularWrap(t *testing.T) {
	// Smoothing from 359 toward 2 must pass through 0, not 180.
	got := SmoothCircular(2, 359, 0.5)
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("got=%v want=0.5", got)
	}
	// weight=1 keeps the previous value.
	if got := SmoothCircular(90, 10, 1); math.Abs(got-10) > 1e-9 {
		t.Fatalf("got=%v want=10", got)
	}
	// weight=0 jumps to the current value.
	if got := SmoothCircular(90, 10, 0); math.Abs(got-90) > 1e-9 {
		t.Fatalf("got=%v want=90", got)
	}
}

func TestSmoothValue(t *testing.T) {
	if got := SmoothValue(10, 0, 0.9); math.Abs(got-1) > 1e-9 {
		t.Fatalf("got=%v want=1", got)
	}
	if got := SmoothValue(10, 20, 0.5); math.Abs(got-15) > 1e-9 {
		t.Fatalf("got=%v want=15", got)
	}
}

func TestQuantize(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0.09, 0},
		{-0.09, 0},
		{0.1, 0.1},
		{-0.05, 0},
		{1.26, 1.3},
		{-1.24, -1.2},
		// Pure rounding: it can land on a range boundary, which the
		// snapshot layer folds back into [0, 360).
		{359.96, 360},
		{math.NaN(), 0},
	}
	for _, c := range cases {
		if got := Quantize(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("Quantize(%v)=%v want=%v", c.in, got, c.want)
		}
	}
}
