package engine

import "github.com/relabs-tech/orientation_engine/internal/sample"

// Sink receives raw samples. The Engine is the canonical Sink; sources
// call these from whatever goroutine delivers their events, and every
// handler completes synchronously without blocking.
type Sink interface {
	HandleAngularRate(s sample.AngularRate)
	HandleLinearAccel(s sample.LinearAccel)
	HandleOrientation(s sample.OrientationEvent)
	HandleQuaternion(s sample.AbsoluteQuaternion)
	HandleHeading(s sample.MagneticHeading)
}

// Source is anything that can feed samples into a Sink: the MQTT
// bridge, the onboard IMU, the simulator. Attach must register
// listeners and return a detach function that synchronously stops
// delivery. Permission failures are reported as errors wrapping
// ErrPermissionDenied; a source whose sensor class is absent returns an
// error wrapping ErrSensorUnavailable.
type Source interface {
	Attach(sink Sink) (detach func(), err error)
}
