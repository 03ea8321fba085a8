// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sample defines the raw sensor samples the fusion engine
// consumes. The JSON encoding is the wire format used on the raw MQTT
// topics, so a phone (or the simulator, or the onboard producers) can
// publish these directly.
//
// Every value field is a pointer: platform sensor events routinely omit
// fields or report null, and absence must never crash a downstream
// stage. The engine substitutes the last known good value at ingest.
package sample

import "time"

// AngularRate is one gyroscope reading in deg/s.
// Alpha is rotation about the vertical (yaw) axis, beta and gamma the
// two horizontal (pitch/roll) axes.
type AngularRate struct {
	Alpha *float64  `json:"alpha"`
	Beta  *float64  `json:"beta"`
	Gamma *float64  `json:"gamma"`
	T     time.Time `json:"t"`
}

// LinearAccel is one accelerometer reading in m/s², gravity included.
type LinearAccel struct {
	X *float64  `json:"x"`
	Y *float64  `json:"y"`
	Z *float64  `json:"z"`
	T time.Time `json:"t"`
}

// OrientationEvent is the platform's own orientation estimate in
// degrees. Absolute reports whether alpha is referenced to magnetic
// north rather than an arbitrary starting frame.
type OrientationEvent struct {
	Alpha    *float64  `json:"alpha"`
	Beta     *float64  `json:"beta"`
	Gamma    *float64  `json:"gamma"`
	Absolute bool      `json:"absolute"`
	T        time.Time `json:"t"`
}

// AbsoluteQuaternion is a platform absolute-orientation quaternion.
type AbsoluteQuaternion struct {
	X *float64  `json:"x"`
	Y *float64  `json:"y"`
	Z *float64  `json:"z"`
	W *float64  `json:"w"`
	T time.Time `json:"t"`
}

// MagneticHeading is a compass heading in degrees, [0, 360).
type MagneticHeading struct {
	Degrees *float64  `json:"degrees"`
	T       time.Time `json:"t"`
}

// F wraps a literal for the pointer fields above. Producers and tests
// use it to build samples inline.
func F(v float64) *float64 { return &v }
