// Package scoring implements the correction calculator: the pure mapping
// from (scoring method, parameters, elapsed time, rating, course) to a
// corrected time comparable across boats of different speed potential.
package scoring

import (
	"time"

	"github.com/tidemark/regatta/internal/domain/model"
)

// orrEzGPHBase is the reference GPH value for the simplified ORR formula,
// standing in for a full GPH table lookup.
const orrEzGPHBase = 600

// portsmouthScale normalises a Portsmouth yardstick division back into a
// duration magnitude.
const portsmouthScale = 100

// Course carries the effective course parameters for one fleet in one
// race, after RaceFleet overrides have been applied.
type Course struct {
	Type         string
	Distance     float64 // nautical miles
	WindSpeedKts float64
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithPolarModel swaps the polar-performance strategy used by the ORR
// percentage methods.
func WithPolarModel(p PolarModel) Option {
	return func(c *Calculator) {
		if p != nil {
			c.polar = p
		}
	}
}

// Calculator computes corrected times. It is pure and never fails:
// unknown methods and missing parameters fall back to the documented
// defaults.
type Calculator struct {
	polar PolarModel
}

// NewCalculator creates a calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		polar: passThroughPolar{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Corrected applies the method's handicap formula to elapsed. Time
// penalties are the caller's concern and are added after this returns.
func (c *Calculator) Corrected(method model.ScoringMethod, p Params, elapsed time.Duration, rating float64, course Course) time.Duration {
	switch method {
	case model.PHRFTimeOnTime:
		divisor := p.PHRFTotB + rating
		if divisor == 0 {
			return elapsed
		}
		return time.Duration(float64(elapsed) * p.PHRFTotA / divisor)

	case model.PHRFTimeOnDistance:
		// rating is seconds of allowance per nautical mile
		allowance := time.Duration(rating * course.Distance * float64(time.Second))
		corrected := elapsed - allowance
		if corrected < 0 {
			return 0
		}
		return corrected

	case model.Portsmouth:
		if rating == 0 {
			return elapsed
		}
		return time.Duration(float64(elapsed) / rating * portsmouthScale)

	case model.ORREzGPH:
		if rating == 0 {
			return elapsed
		}
		return time.Duration(float64(elapsed) * orrEzGPHBase / rating)

	case model.ORREzPC, model.ORRFullPC:
		return c.polar.Corrected(elapsed, rating, course)

	default:
		// OneDesign and anything unrecognised race boat-for-boat.
		return elapsed
	}
}
