// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package engine estimates a phone's yaw/pitch/roll from disagreeing,
// noisy, asynchronously arriving sensor streams. It integrates debiased
// gyroscope rate, corrects the result with gravity and heading
// references (a complementary filter), learns the gyro zero-rate offset
// while the device is stationary, and exposes a calibratable relative
// angle suitable for steering.
//
// The engine does no networking, rendering or persistence: it consumes
// raw samples through the Sink interface and emits snapshots through an
// update callback. Transport lives in internal/app.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Engine owns all fusion state. All mutation happens under mu; every
// public operation and sample handler completes synchronously.
type Engine struct {
	mu sync.Mutex

	profile Profile
	sources []Source

	onUpdate func(Snapshot)
	onError  func(error)

	active     bool
	calibrated bool
	detachers  []func()
	calTimer   *time.Timer

	// Last known good raw values, substituted for missing fields.
	rawRate     Angles // deg/s
	rawAccel    Vector // m/s², gravity included
	rawOrient   Angles // untouched platform orientation event
	absOrient   bool   // platform flagged its alpha as absolute
	heading     float64
	quatYaw     float64
	displayRate Angles // debiased, drift-gated, for snapshots only

	// Availability flags, set on first valid reading of each kind.
	hasGyro        bool
	hasAccel       bool
	hasOrientation bool
	hasMag         bool

	// Arrival times per source, for dt and staleness checks.
	lastRate    time.Time
	lastAccel   time.Time
	lastOrient  time.Time
	lastHeading time.Time
	lastQuat    time.Time

	smoothAccel Vector // exponentially smoothed gravity vector
	bias        Angles // gyro zero-rate offset, deg/s
	integrated  Angles // working orientation estimate
	fused       Angles // corrected estimate, unquantized
	reference   Angles // calibration zero-point
}

// New builds an engine with the given profile. Sources are attached at
// Start, not here.
func New(p Profile) *Engine {
	return &Engine{profile: p}
}

// AddSource registers a sample source to be attached on Start.
func (e *Engine) AddSource(src Source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources = append(e.sources, src)
}

// SetUpdateHandler installs the callback fired with the current
// snapshot whenever a sample meaningfully updates fused state. The
// callback runs outside the engine lock and may call Snapshot.
func (e *Engine) SetUpdateHandler(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUpdate = fn
}

// SetErrorHandler installs the callback fired once per permission or
// availability failure.
func (e *Engine) SetErrorHandler(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = fn
}

// Start attaches every registered source and arms the one-shot
// auto-calibration timer. It fails only when a source reports a denied
// permission; an unavailable sensor class is reported through the error
// handler and skipped, and an engine with no working source at all
// still starts and reports an all-zero orientation.
func (e *Engine) Start() Result {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return Result{Success: true, Message: "already active"}
	}
	sources := e.sources
	errFn := e.onError
	e.mu.Unlock()

	var attached []func()
	var unavailable []error
	for _, src := range sources {
		detach, err := src.Attach(e)
		if err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				for _, d := range attached {
					d()
				}
				if errFn != nil {
					errFn(err)
				}
				return Result{Success: false, Message: err.Error()}
			}
			// Unavailable sensors degrade fusion, they don't stop it.
			unavailable = append(unavailable, err)
			continue
		}
		attached = append(attached, detach)
	}

	e.mu.Lock()
	e.active = true
	e.detachers = attached
	e.calTimer = time.AfterFunc(e.profile.CalibrationDelay, e.Calibrate)
	e.mu.Unlock()

	for _, err := range unavailable {
		log.Printf("engine: %v", err)
		if errFn != nil {
			errFn(fmt.Errorf("%w: %v", ErrSensorUnavailable, err))
		}
	}
	return Result{Success: true, Message: fmt.Sprintf("started (%s, %s)", e.profile.Name, e.profile.Strategy)}
}

// Stop tears down listeners and resets every mutable field to its
// default, so a later Start behaves like first use. Idempotent and safe
// to call while sensors are mid-update.
func (e *Engine) Stop() {
	e.mu.Lock()
	detachers := e.detachers
	timer := e.calTimer
	e.detachers = nil
	e.calTimer = nil
	e.active = false
	e.calibrated = false
	e.rawRate, e.rawAccel, e.rawOrient = Angles{}, Vector{}, Angles{}
	e.absOrient = false
	e.heading, e.quatYaw = 0, 0
	e.displayRate = Angles{}
	e.hasGyro, e.hasAccel, e.hasOrientation, e.hasMag = false, false, false, false
	e.lastRate, e.lastAccel, e.lastOrient = time.Time{}, time.Time{}, time.Time{}
	e.lastHeading, e.lastQuat = time.Time{}, time.Time{}
	e.smoothAccel = Vector{}
	e.bias, e.integrated, e.fused, e.reference = Angles{}, Angles{}, Angles{}, Angles{}
	e.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	for _, d := range detachers {
		d()
	}
}

// Snapshot returns the current state, quantized and range-normalized.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Gyro:  quantizeAngles(e.displayRate),
		Accel: quantizeVector(e.rawAccel),
		Orientation: OrientationSnapshot{
			Absolute: quantizeOrientation(e.fused),
			Relative: quantizeRelative(e.relativeLocked()),
			API:      quantizeOrientation(e.rawOrient),
		},
		Magnetometer: quantizeHeading(e.heading),
		Calibrated:   e.calibrated,
	}
}

// Status reports the lifecycle view used by the bridge heartbeat.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Active:         e.active,
		Calibrated:     e.calibrated,
		Strategy:       e.profile.Strategy.String(),
		Profile:        e.profile.Name,
		HasGyro:        e.hasGyro,
		HasAccel:       e.hasAccel,
		HasOrientation: e.hasOrientation,
		HasMag:         e.hasMag,
	}
}

// notify fires the update callback with a snapshot taken under the
// lock, then released. Called with mu held; returns a closure to run
// after unlocking.
func (e *Engine) notifyLocked() func() {
	fn := e.onUpdate
	if fn == nil {
		return func() {}
	}
	snap := e.snapshotLocked()
	return func() { fn(snap) }
}
