package engine

import (
	"strings"
	"time"
)

// Strategy selects how the engine derives orientation. It is fixed for
// the lifetime of a session: changing it requires a fresh Start.
type Strategy int

const (
	// StrategyFusion integrates debiased angular rate and pulls the
	// result toward gravity and heading references.
	StrategyFusion Strategy = iota
	// StrategyDirect consumes the platform's own orientation event and
	// only smooths it. No gyro integration at all.
	StrategyDirect
)

func (s Strategy) String() string {
	if s == StrategyDirect {
		return "direct"
	}
	return "fusion"
}

// Profile carries every tunable the engine has. The historical phone
// builds used a spread of inconsistent inline constants for these; they
// are configuration here, selected once at Start.
type Profile struct {
	Name     string
	Strategy Strategy

	// GyroWeight is the complementary-filter share of the integrated
	// pitch/roll; the remainder comes from the gravity tilt estimate.
	GyroWeight float64
	// YawCorrectionWeight is the per-tick pull of integrated yaw toward
	// a fresh heading reference. Heading references are noisier and lag
	// more than gravity, so this stays below 1-GyroWeight.
	YawCorrectionWeight float64
	// AccelSmoothing is the exponential filter weight applied to the
	// raw accelerometer before deriving tilt.
	AccelSmoothing float64

	// HeadingSmoothing and ValueSmoothing drive the Direct strategy:
	// circular smoothing for alpha, plain smoothing for beta/gamma.
	HeadingSmoothing float64
	ValueSmoothing   float64

	// BiasLearningRate is the per-sample gyro bias adaptation while the
	// device is judged stationary. Small, so bias converges over
	// seconds rather than absorbing genuine rotation.
	BiasLearningRate float64
	// RotationThreshold (deg/s, summed |rates|) and AccelThreshold
	// (m/s² deviation from g) gate the stationary judgement.
	RotationThreshold float64
	AccelThreshold    float64

	// DriftThreshold (deg/s) zeroes displayed raw gyro values below it.
	// It never gates integration, which always uses the debiased rate.
	DriftThreshold float64

	// ReferenceMaxAge bounds how stale a gravity or heading reference
	// may be and still correct the integrated estimate.
	ReferenceMaxAge time.Duration

	// CalibrationDelay arms the one-shot auto-calibration after Start.
	CalibrationDelay time.Duration
}

// DefaultProfile is the generic fusion profile.
func DefaultProfile() Profile {
	return Profile{
		Name:                "generic",
		Strategy:            StrategyFusion,
		GyroWeight:          0.98,
		YawCorrectionWeight: 0.02,
		AccelSmoothing:      0.9,
		HeadingSmoothing:    0.85,
		ValueSmoothing:      0.85,
		BiasLearningRate:    0.02,
		RotationThreshold:   3.0,
		AccelThreshold:      0.8,
		DriftThreshold:      0.15,
		ReferenceMaxAge:     750 * time.Millisecond,
		CalibrationDelay:    1500 * time.Millisecond,
	}
}

// ProfileFor maps a platform string reported by the phone to a profile.
// WebKit phones deliver a reliable compass-referenced alpha in their
// native orientation event, so they run Direct; everything else reports
// unreliable or relative-only yaw and runs Fusion.
func ProfileFor(platform string) Profile {
	p := DefaultProfile()
	platform = strings.ToLower(strings.TrimSpace(platform))
	switch {
	case strings.HasPrefix(platform, "ios"), strings.HasPrefix(platform, "ipad"):
		p.Name = platform
		p.Strategy = StrategyDirect
	case platform == "":
		// keep generic
	default:
		p.Name = platform
	}
	return p
}
