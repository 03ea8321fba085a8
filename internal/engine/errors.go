package engine

import "errors"

// Sentinel errors for the two failure classes that surface to the
// caller. Per-sample anomalies (null fields, clock glitches) are
// handled locally and never reported; they would be far too frequent to
// be actionable.
var (
	// ErrPermissionDenied means the host refused a required sensor
	// permission. Start fails and the engine stays inactive.
	ErrPermissionDenied = errors.New("sensor permission denied")

	// ErrSensorUnavailable means a sensor class never reports data.
	// Its contribution to fusion is simply omitted.
	ErrSensorUnavailable = errors.New("sensor unavailable")
)

// Result is the outcome of Start. It is never an uncaught failure:
// permission problems come back as Success=false with a message.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
