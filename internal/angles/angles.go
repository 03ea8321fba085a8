// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package angles holds the pure angle arithmetic used by the fusion
// engine: range wrapping, shortest-path differences, circular smoothing
// and the display deadzone. Everything here is stateless.
package angles

import "math"

// Wrap180 maps any angle in degrees into (-180, 180].
func Wrap180(a float64) float64 {
	if !isFinite(a) {
		return 0
	}
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}

// Wrap360 maps any angle in degrees into [0, 360).
// Non-finite input (NaN, ±Inf) is treated as 0.
func Wrap360(a float64) float64 {
	if !isFinite(a) {
		return 0
	}
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// ShortestDiff returns the signed shortest angular path from b to a,
// in (-180, 180]. Any averaging or smoothing of a circular quantity
// must go through this to avoid the 359°→2° discontinuity.
func ShortestDiff(a, b float64) float64 {
	return Wrap180(a - b)
}

// SmoothCircular moves previous toward current along the shortest arc,
// keeping the result in [0, 360). weight is the share of the previous
// value that is retained.
func SmoothCircular(current, previous, weight float64) float64 {
	return Wrap360(previous + ShortestDiff(current, previous)*(1-weight))
}

// SmoothValue is the plain (non-circular) exponential smoother used for
// bounded angles such as pitch and roll.
func SmoothValue(current, previous, weight float64) float64 {
	return previous*weight + current*(1-weight)
}

// Quantize applies the boundary contract for values leaving the engine:
// a ±0.1 deadzone snaps to zero, everything else rounds to one decimal
// place. Internal accumulators must never be quantized, or the rounding
// error compounds across integration steps.
func Quantize(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	if math.Abs(v) < 0.1 {
		return 0
	}
	return math.Round(v*10) / 10
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
