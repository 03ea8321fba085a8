// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package engine

import (
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/orientation_engine/internal/angles"
	"github.com/relabs-tech/orientation_engine/internal/sample"
)

type mockSource struct {
	interval time.Duration
}

// NewMockSource creates a synthetic phone that sways smoothly through
// yaw and pitch, emitting consistent gyro, accelerometer and heading
// samples. Used by the simulator binary and for bench runs without a
// phone.
func NewMockSource(interval time.Duration) Source {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &mockSource{interval: interval}
}

func (m *mockSource) Attach(sink Sink) (func(), error) {
	stop := make(chan struct{})
	var once sync.Once
	go m.run(sink, stop)
	return func() { once.Do(func() { close(stop) }) }, nil
}

func (m *mockSource) run(sink Sink, stop chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	start := time.Now()
	tick := 0
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			tick++
			t := now.Sub(start).Seconds()

			// Smooth reference motion.
			yaw := angles.Wrap360(40 * math.Sin(0.3*t))
			pitch := 15 * math.Sin(0.7*t)
			roll := 8 * math.Cos(0.5*t)

			// Angular rates are the analytic derivatives, deg/s.
			yawRate := 40 * 0.3 * math.Cos(0.3*t)
			pitchRate := 15 * 0.7 * math.Cos(0.7*t)
			rollRate := -8 * 0.5 * math.Sin(0.5*t)

			sink.HandleAngularRate(sample.AngularRate{
				Alpha: sample.F(yawRate),
				Beta:  sample.F(pitchRate),
				Gamma: sample.F(rollRate),
				T:     now,
			})

			// Gravity vector consistent with the reference tilt.
			pr := pitch * math.Pi / 180
			rr := roll * math.Pi / 180
			sink.HandleLinearAccel(sample.LinearAccel{
				X: sample.F(-gravity * math.Sin(rr) * math.Cos(pr)),
				Y: sample.F(gravity * math.Sin(pr)),
				Z: sample.F(gravity * math.Cos(rr) * math.Cos(pr)),
				T: now,
			})

			// Heading arrives at a much lower rate, like a real compass.
			if tick%10 == 0 {
				sink.HandleHeading(sample.MagneticHeading{
					Degrees: sample.F(yaw),
					T:       now,
				})
			}
		}
	}
}
