package engine

import "github.com/relabs-tech/orientation_engine/internal/angles"

// directTickLocked is the whole Direct strategy: the platform's own
// orientation event is trusted, merely smoothed. Alpha is circular and
// goes through the shortest-arc smoother; beta/gamma are bounded and
// use the plain one. The result lands in the same state the Fusion
// strategy writes, so calibration and the output contract are
// strategy-agnostic.
func (e *Engine) directTickLocked() {
	p := e.profile
	e.integrated.Alpha = angles.SmoothCircular(e.rawOrient.Alpha, e.integrated.Alpha, p.HeadingSmoothing)
	e.integrated.Beta = angles.Wrap180(angles.SmoothValue(e.rawOrient.Beta, e.integrated.Beta, p.ValueSmoothing))
	e.integrated.Gamma = angles.Wrap180(angles.SmoothValue(e.rawOrient.Gamma, e.integrated.Gamma, p.ValueSmoothing))
	e.fused = e.integrated
}
