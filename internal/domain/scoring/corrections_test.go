package scoring_test

import (
	"testing"
	"time"

	"github.com/tidemark/regatta/internal/domain/model"
	"github.com/tidemark/regatta/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalculator_PHRFTimeOnTime(t *testing.T) {
	Convey("Given a calculator and default PHRF coefficients", t, func() {
		calc := scoring.NewCalculator()
		params := scoring.DefaultParams()

		Convey("When correcting one hour elapsed with a 150 rating", func() {
			corrected := calc.Corrected(model.PHRFTimeOnTime, params, time.Hour, 150, scoring.Course{})

			Convey("Then corrected is elapsed scaled by 650/(550+150)", func() {
				hour := float64(time.Hour)
				expected := time.Duration(hour * 650 / 700)
				So(corrected, ShouldAlmostEqual, expected, time.Second)
				// 55 minutes 43 seconds, within a second
				So(corrected, ShouldAlmostEqual, 55*time.Minute+43*time.Second, time.Second)
			})
		})

		Convey("When the lower rated boat sails the same elapsed time", func() {
			fast := calc.Corrected(model.PHRFTimeOnTime, params, time.Hour, 120, scoring.Course{})
			slow := calc.Corrected(model.PHRFTimeOnTime, params, time.Hour, 180, scoring.Course{})

			Convey("Then the lower rating corrects to a larger time", func() {
				So(fast, ShouldBeGreaterThan, slow)
			})
		})

		Convey("When the rating cancels the B coefficient", func() {
			corrected := calc.Corrected(model.PHRFTimeOnTime, params, time.Hour, -scoring.DefaultPHRFTotB, scoring.Course{})

			Convey("Then corrected falls back to elapsed", func() {
				So(corrected, ShouldEqual, time.Hour)
			})
		})
	})
}

func TestCalculator_PHRFTimeOnDistance(t *testing.T) {
	Convey("Given a calculator and a 10 mile course", t, func() {
		calc := scoring.NewCalculator()
		params := scoring.DefaultParams()
		course := scoring.Course{Distance: 10}

		Convey("When correcting with a 60 s/mile allowance", func() {
			corrected := calc.Corrected(model.PHRFTimeOnDistance, params, time.Hour, 60, course)

			Convey("Then ten minutes of allowance are subtracted", func() {
				So(corrected, ShouldEqual, 50*time.Minute)
			})
		})

		Convey("When the allowance exceeds the elapsed time", func() {
			corrected := calc.Corrected(model.PHRFTimeOnDistance, params, 5*time.Minute, 60, course)

			Convey("Then corrected floors at zero", func() {
				So(corrected, ShouldEqual, time.Duration(0))
			})
		})

		Convey("When no distance is configured", func() {
			corrected := calc.Corrected(model.PHRFTimeOnDistance, params, time.Hour, 60, scoring.Course{})

			Convey("Then no allowance is granted", func() {
				So(corrected, ShouldEqual, time.Hour)
			})
		})
	})
}

func TestCalculator_Portsmouth(t *testing.T) {
	Convey("Given a calculator", t, func() {
		calc := scoring.NewCalculator()
		params := scoring.DefaultParams()

		Convey("When the rating is zero", func() {
			corrected := calc.Corrected(model.Portsmouth, params, time.Hour, 0, scoring.Course{})

			Convey("Then corrected equals elapsed exactly", func() {
				So(corrected, ShouldEqual, time.Hour)
			})
		})

		Convey("When the rating is the neutral 100", func() {
			corrected := calc.Corrected(model.Portsmouth, params, time.Hour, 100, scoring.Course{})

			Convey("Then corrected equals elapsed", func() {
				So(corrected, ShouldEqual, time.Hour)
			})
		})

		Convey("When the rating is 90", func() {
			corrected := calc.Corrected(model.Portsmouth, params, 90*time.Minute, 90, scoring.Course{})

			Convey("Then corrected divides out the yardstick", func() {
				So(corrected, ShouldEqual, 100*time.Minute)
			})
		})
	})
}

func TestCalculator_ORR(t *testing.T) {
	Convey("Given a calculator", t, func() {
		calc := scoring.NewCalculator()
		params := scoring.DefaultParams()

		Convey("When correcting with ORR_EZ_GPH and a 600 rating", func() {
			corrected := calc.Corrected(model.ORREzGPH, params, time.Hour, 600, scoring.Course{})

			Convey("Then the base rating corrects to elapsed", func() {
				So(corrected, ShouldEqual, time.Hour)
			})
		})

		Convey("When correcting with ORR_EZ_GPH and a 300 rating", func() {
			corrected := calc.Corrected(model.ORREzGPH, params, time.Hour, 300, scoring.Course{})

			Convey("Then corrected doubles", func() {
				So(corrected, ShouldEqual, 2*time.Hour)
			})
		})

		Convey("When correcting with ORR_EZ_GPH and a zero rating", func() {
			corrected := calc.Corrected(model.ORREzGPH, params, time.Hour, 0, scoring.Course{})

			Convey("Then corrected equals elapsed", func() {
				So(corrected, ShouldEqual, time.Hour)
			})
		})

		Convey("When correcting with the percentage methods", func() {
			ez := calc.Corrected(model.ORREzPC, params, time.Hour, 1.04, scoring.Course{WindSpeedKts: 12})
			full := calc.Corrected(model.ORRFullPC, params, time.Hour, 1.04, scoring.Course{WindSpeedKts: 12})

			Convey("Then the pass-through polar returns elapsed unchanged", func() {
				So(ez, ShouldEqual, time.Hour)
				So(full, ShouldEqual, time.Hour)
			})
		})

		Convey("When a custom polar model is installed", func() {
			calc := scoring.NewCalculator(scoring.WithPolarModel(halfTimePolar{}))
			corrected := calc.Corrected(model.ORRFullPC, params, time.Hour, 1.04, scoring.Course{})

			Convey("Then the strategy replaces the stub", func() {
				So(corrected, ShouldEqual, 30*time.Minute)
			})
		})
	})
}

func TestCalculator_OneDesign(t *testing.T) {
	Convey("Given a calculator", t, func() {
		calc := scoring.NewCalculator()
		params := scoring.DefaultParams()

		Convey("When correcting a one-design fleet", func() {
			corrected := calc.Corrected(model.OneDesign, params, 42*time.Minute, 96, scoring.Course{})

			Convey("Then corrected equals elapsed regardless of rating", func() {
				So(corrected, ShouldEqual, 42*time.Minute)
			})
		})
	})
}

// halfTimePolar is a test polar model halving the elapsed time.
type halfTimePolar struct{}

func (halfTimePolar) Corrected(elapsed time.Duration, _ float64, _ scoring.Course) time.Duration {
	return elapsed / 2
}
