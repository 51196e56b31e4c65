package scoring

import "time"

// PolarModel predicts corrected time for the ORR percentage methods from
// a per-entry target-speed polar. A real model interpolates target speed
// against wind speed/angle over the course legs; the engine only fixes
// the seam so one can be swapped in.
type PolarModel interface {
	Corrected(elapsed time.Duration, rating float64, course Course) time.Duration
}

// passThroughPolar is the default model: corrected equals elapsed.
// ORR_EZ_PC and ORR_Full_PC are intentionally not modeled from first
// principles here.
type passThroughPolar struct{}

func (passThroughPolar) Corrected(elapsed time.Duration, _ float64, _ Course) time.Duration {
	return elapsed
}
