package standings_test

import (
	"testing"
	"time"

	"github.com/tidemark/regatta/internal/domain/model"
	"github.com/tidemark/regatta/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

var raceStart = time.Date(2025, 6, 14, 13, 0, 0, 0, time.UTC)

func testRace() model.Race {
	start := raceStart
	return model.Race{
		ID:             "race-1",
		RegattaID:      "regatta-1",
		Name:           "Race 1",
		ScheduledStart: &start,
		CourseType:     "windward-leeward",
		Distance:       10,
	}
}

func finishAt(id, entryID string, afterStart time.Duration) model.Finish {
	t := raceStart.Add(afterStart)
	return model.Finish{ID: id, RaceID: "race-1", EntryID: entryID, FinishTime: &t}
}

func codedFinish(id, entryID, code string) model.Finish {
	return model.Finish{ID: id, RaceID: "race-1", EntryID: entryID, Code: code}
}

func entryMap(entries ...model.Entry) map[string]model.Entry {
	m := make(map[string]model.Entry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}

func pointsByEntry(results []model.Result) map[string]float64 {
	m := make(map[string]float64, len(results))
	for _, r := range results {
		m[r.EntryID] = r.Points
	}
	return m
}

func TestScoreFleet_PHRFTimeOnTime(t *testing.T) {
	Convey("Given a two-boat PHRF time-on-time fleet", t, func() {
		scorer := standings.NewScorer()
		in := standings.FleetInput{
			Race:  testRace(),
			Fleet: model.Fleet{ID: "fleet-a", Name: "PHRF A", Method: model.PHRFTimeOnTime},
			Entries: entryMap(
				model.Entry{ID: "e1", FleetID: "fleet-a", Rating: 60},
				model.Entry{ID: "e2", FleetID: "fleet-a", Rating: 200},
			),
			Finishes: []model.Finish{
				finishAt("f1", "e1", time.Hour),
				finishAt("f2", "e2", time.Hour+6*time.Minute),
			},
			EntryCount: 2,
		}

		Convey("When the fleet is scored", func() {
			results := scorer.ScoreFleet(in)

			Convey("Then the handicap decides the order, not the clock", func() {
				So(results, ShouldHaveLength, 2)
				// e2 finished later but the 200 rating corrects well
				// under e1's 60.
				So(results[0].EntryID, ShouldEqual, "e2")
				So(results[0].Points, ShouldEqual, 1)
				So(results[1].EntryID, ShouldEqual, "e1")
				So(results[1].Points, ShouldEqual, 2)
				So(*results[0].Corrected, ShouldBeLessThan, *results[1].Corrected)
			})

			Convey("Then elapsed and corrected are both populated", func() {
				So(*results[1].Elapsed, ShouldEqual, time.Hour)
				So(results[1].ScoringMethod, ShouldEqual, "PHRF_TOT")
			})
		})
	})
}

func TestScoreFleet_PenaltyCodes(t *testing.T) {
	Convey("Given a five-entry one-design fleet with mixed codes", t, func() {
		scorer := standings.NewScorer()
		in := standings.FleetInput{
			Race:  testRace(),
			Fleet: model.Fleet{ID: "fleet-a", Name: "Lasers", Method: model.OneDesign},
			Entries: entryMap(
				model.Entry{ID: "e1", FleetID: "fleet-a"},
				model.Entry{ID: "e2", FleetID: "fleet-a"},
				model.Entry{ID: "e3", FleetID: "fleet-a"},
				model.Entry{ID: "e4", FleetID: "fleet-a"},
				model.Entry{ID: "e5", FleetID: "fleet-a"},
			),
			Finishes: []model.Finish{
				finishAt("f1", "e1", 50*time.Minute),
				finishAt("f2", "e2", 52*time.Minute),
				codedFinish("f3", "e3", model.CodeDNF),
				// disqualified boats keep their recorded time but not a rank
				finishAt("f4", "e4", 48*time.Minute),
				codedFinish("f5", "e5", model.CodeDNS),
			},
			EntryCount: 5,
		}
		in.Finishes[3].Code = model.CodeDSQ

		Convey("When the fleet is scored", func() {
			results := scorer.ScoreFleet(in)
			points := pointsByEntry(results)

			Convey("Then every non-finisher scores entries plus one", func() {
				So(points["e3"], ShouldEqual, 6)
				So(points["e4"], ShouldEqual, 6)
				So(points["e5"], ShouldEqual, 6)
			})

			Convey("Then untimed rows carry no elapsed or corrected time", func() {
				for _, r := range results {
					if r.EntryID == "e3" || r.EntryID == "e5" {
						So(r.Elapsed, ShouldBeNil)
						So(r.Corrected, ShouldBeNil)
					}
				}
			})

			Convey("Then the finishers take the low points", func() {
				So(points["e1"], ShouldEqual, 1)
				So(points["e2"], ShouldEqual, 2)
			})

			Convey("Then finishers order strictly before coded boats", func() {
				So(results[0].Code, ShouldBeEmpty)
				So(results[1].Code, ShouldBeEmpty)
				So(results[2].Code, ShouldNotBeEmpty)
			})
		})
	})
}

func TestScoreFleet_ScoringPenalty(t *testing.T) {
	Convey("Given a fleet with an SCP boat between two clean finishers", t, func() {
		scorer := standings.NewScorer()
		two := 2.0
		scpFinish := finishAt("f2", "e2", 51*time.Minute)
		scpFinish.Code = model.CodeSCP
		scpFinish.PointPenalty = &two
		in := standings.FleetInput{
			Race:  testRace(),
			Fleet: model.Fleet{ID: "fleet-a", Name: "Lasers", Method: model.OneDesign},
			Entries: entryMap(
				model.Entry{ID: "e1", FleetID: "fleet-a"},
				model.Entry{ID: "e2", FleetID: "fleet-a"},
				model.Entry{ID: "e3", FleetID: "fleet-a"},
			),
			Finishes: []model.Finish{
				finishAt("f1", "e1", 50*time.Minute),
				scpFinish,
				finishAt("f3", "e3", 52*time.Minute),
			},
			EntryCount: 3,
		}

		Convey("When the fleet is scored", func() {
			results := scorer.ScoreFleet(in)
			points := pointsByEntry(results)

			Convey("Then the clean finishers rank ahead of the SCP boat", func() {
				So(results[0].EntryID, ShouldEqual, "e1")
				So(results[1].EntryID, ShouldEqual, "e3")
				So(results[2].EntryID, ShouldEqual, "e2")
			})

			Convey("Then the SCP boat scores its place plus the penalty", func() {
				So(points["e1"], ShouldEqual, 1)
				So(points["e3"], ShouldEqual, 2)
				So(points["e2"], ShouldEqual, 3+2)
			})
		})

		Convey("When the SCP boat never finished", func() {
			in.Finishes[1].FinishTime = nil
			results := scorer.ScoreFleet(in)
			points := pointsByEntry(results)

			Convey("Then it scores the flat non-finisher penalty", func() {
				So(points["e2"], ShouldEqual, 4)
			})
		})
	})
}

func TestScoreFleet_StartedPlusOne(t *testing.T) {
	Convey("Given a fleet configured for StartedPlusOne penalty points", t, func() {
		scorer := standings.NewScorer()
		in := standings.FleetInput{
			Race: testRace(),
			Fleet: model.Fleet{
				ID:          "fleet-a",
				Name:        "PHRF A",
				Method:      model.OneDesign,
				ScoringJSON: `{"DNFScoring": "StartedPlusOne"}`,
			},
			Entries: entryMap(
				model.Entry{ID: "e1", FleetID: "fleet-a"},
				model.Entry{ID: "e2", FleetID: "fleet-a"},
				model.Entry{ID: "e3", FleetID: "fleet-a"},
				model.Entry{ID: "e4", FleetID: "fleet-a"},
			),
			Finishes: []model.Finish{
				finishAt("f1", "e1", 50*time.Minute),
				codedFinish("f2", "e2", model.CodeDNF),
				codedFinish("f3", "e3", model.CodeDNS),
				codedFinish("f4", "e4", model.CodeDNC),
			},
			EntryCount: 9,
		}

		Convey("When the fleet is scored", func() {
			results := scorer.ScoreFleet(in)
			points := pointsByEntry(results)

			Convey("Then the denominator counts only boats that started", func() {
				// e1 and the DNF started; DNS and DNC did not.
				So(points["e2"], ShouldEqual, 3)
				So(points["e3"], ShouldEqual, 3)
				So(points["e4"], ShouldEqual, 3)
				So(points["e1"], ShouldEqual, 1)
			})
		})
	})
}

func TestScoreFleet_StartResolution(t *testing.T) {
	Convey("Given races with varying start information", t, func() {
		scorer := standings.NewScorer()
		entries := entryMap(model.Entry{ID: "e1", FleetID: "fleet-a"})

		Convey("When the race has no start time at all", func() {
			race := testRace()
			race.ScheduledStart = nil
			results := scorer.ScoreFleet(standings.FleetInput{
				Race:       race,
				Fleet:      model.Fleet{ID: "fleet-a", Method: model.OneDesign},
				Entries:    entries,
				Finishes:   []model.Finish{finishAt("f1", "e1", time.Hour)},
				EntryCount: 1,
			})

			Convey("Then the fleet is skipped rather than guessed at", func() {
				So(results, ShouldBeNil)
			})
		})

		Convey("When an actual start supersedes the schedule", func() {
			race := testRace()
			actual := raceStart.Add(10 * time.Minute)
			race.ActualStart = &actual
			results := scorer.ScoreFleet(standings.FleetInput{
				Race:       race,
				Fleet:      model.Fleet{ID: "fleet-a", Method: model.OneDesign},
				Entries:    entries,
				Finishes:   []model.Finish{finishAt("f1", "e1", time.Hour)},
				EntryCount: 1,
			})

			Convey("Then elapsed is measured from the actual start", func() {
				So(*results[0].Elapsed, ShouldEqual, 50*time.Minute)
			})
		})

		Convey("When the fleet starts on a staggered offset", func() {
			offset := 5 * time.Minute
			results := scorer.ScoreFleet(standings.FleetInput{
				Race:       testRace(),
				Fleet:      model.Fleet{ID: "fleet-a", Method: model.OneDesign},
				RaceFleet:  &model.RaceFleet{RaceID: "race-1", FleetID: "fleet-a", StartOffset: &offset},
				Entries:    entries,
				Finishes:   []model.Finish{finishAt("f1", "e1", time.Hour)},
				EntryCount: 1,
			})

			Convey("Then the offset shifts the fleet's start", func() {
				So(*results[0].Elapsed, ShouldEqual, 55*time.Minute)
			})
		})

		Convey("When there are no finish rows", func() {
			results := scorer.ScoreFleet(standings.FleetInput{
				Race:       testRace(),
				Fleet:      model.Fleet{ID: "fleet-a", Method: model.OneDesign},
				Entries:    entries,
				EntryCount: 1,
			})

			Convey("Then nothing is scored", func() {
				So(results, ShouldBeNil)
			})
		})
	})
}

func TestScoreFleet_Clamping(t *testing.T) {
	Convey("Given adversarial finish times", t, func() {
		scorer := standings.NewScorer()
		in := standings.FleetInput{
			Race:  testRace(),
			Fleet: model.Fleet{ID: "fleet-a", Method: model.OneDesign},
			Entries: entryMap(
				model.Entry{ID: "e1", FleetID: "fleet-a"},
				model.Entry{ID: "e2", FleetID: "fleet-a"},
			),
			Finishes: []model.Finish{
				finishAt("f1", "e1", -30*time.Minute),
				finishAt("f2", "e2", 48*time.Hour),
			},
			EntryCount: 2,
		}

		Convey("When the fleet is scored", func() {
			results := scorer.ScoreFleet(in)

			Convey("Then a finish before the start clamps to zero", func() {
				So(results[0].EntryID, ShouldEqual, "e1")
				So(*results[0].Elapsed, ShouldEqual, time.Duration(0))
				So(*results[0].Corrected, ShouldEqual, time.Duration(0))
			})

			Convey("Then a multi-day finish clamps to the day ceiling", func() {
				So(*results[1].Elapsed, ShouldEqual, model.MaxDayDuration)
				So(*results[1].Corrected, ShouldEqual, model.MaxDayDuration)
			})
		})
	})
}

func TestScoreFleet_TimePenalty(t *testing.T) {
	Convey("Given a finisher carrying a time penalty", t, func() {
		scorer := standings.NewScorer()
		penalty := 5 * time.Minute
		penalised := finishAt("f1", "e1", 50*time.Minute)
		penalised.TimePenalty = &penalty
		in := standings.FleetInput{
			Race:  testRace(),
			Fleet: model.Fleet{ID: "fleet-a", Method: model.OneDesign},
			Entries: entryMap(
				model.Entry{ID: "e1", FleetID: "fleet-a"},
				model.Entry{ID: "e2", FleetID: "fleet-a"},
			),
			Finishes: []model.Finish{
				penalised,
				finishAt("f2", "e2", 52*time.Minute),
			},
			EntryCount: 2,
		}

		Convey("When the fleet is scored", func() {
			results := scorer.ScoreFleet(in)

			Convey("Then the penalty is added after correction and costs the place", func() {
				So(results[0].EntryID, ShouldEqual, "e2")
				So(results[1].EntryID, ShouldEqual, "e1")
				So(*results[1].Corrected, ShouldEqual, 55*time.Minute)
				So(*results[1].Elapsed, ShouldEqual, 50*time.Minute)
			})
		})
	})
}

func TestScoreFleet_MissingRecords(t *testing.T) {
	Convey("Given a finish row with neither time nor code", t, func() {
		scorer := standings.NewScorer()
		in := standings.FleetInput{
			Race:  testRace(),
			Fleet: model.Fleet{ID: "fleet-a", Method: model.OneDesign},
			Entries: entryMap(
				model.Entry{ID: "e1", FleetID: "fleet-a"},
				model.Entry{ID: "e2", FleetID: "fleet-a"},
			),
			Finishes: []model.Finish{
				finishAt("f1", "e1", 50*time.Minute),
				{ID: "f2", RaceID: "race-1", EntryID: "e2"},
			},
			EntryCount: 2,
		}

		Convey("When the fleet is scored", func() {
			results := scorer.ScoreFleet(in)
			points := pointsByEntry(results)

			Convey("Then the blank row scores as a non-finisher", func() {
				So(points["e2"], ShouldEqual, 3)
				So(points["e1"], ShouldEqual, 1)
			})
		})
	})
}

func TestScoreFleet_Determinism(t *testing.T) {
	Convey("Given boats with identical corrected times", t, func() {
		scorer := standings.NewScorer()
		in := standings.FleetInput{
			Race:  testRace(),
			Fleet: model.Fleet{ID: "fleet-a", Method: model.OneDesign},
			Entries: entryMap(
				model.Entry{ID: "e3", FleetID: "fleet-a"},
				model.Entry{ID: "e1", FleetID: "fleet-a"},
				model.Entry{ID: "e2", FleetID: "fleet-a"},
			),
			Finishes: []model.Finish{
				finishAt("f3", "e3", time.Hour),
				finishAt("f1", "e1", time.Hour),
				finishAt("f2", "e2", time.Hour),
			},
			EntryCount: 3,
		}

		Convey("When the fleet is scored twice", func() {
			first := scorer.ScoreFleet(in)
			second := scorer.ScoreFleet(in)

			Convey("Then entry ID breaks the tie, identically both times", func() {
				So(first[0].EntryID, ShouldEqual, "e1")
				So(first[1].EntryID, ShouldEqual, "e2")
				So(first[2].EntryID, ShouldEqual, "e3")
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestScoreRace_Ordering(t *testing.T) {
	Convey("Given a race with two fleets", t, func() {
		scorer := standings.NewScorer()
		in := standings.RaceInput{
			Race: testRace(),
			Fleets: []standings.FleetInput{
				{
					Race:  testRace(),
					Fleet: model.Fleet{ID: "fleet-b", Name: "B", Method: model.OneDesign},
					Entries: entryMap(
						model.Entry{ID: "e3", FleetID: "fleet-b"},
						model.Entry{ID: "e4", FleetID: "fleet-b"},
					),
					Finishes: []model.Finish{
						finishAt("f3", "e3", 58*time.Minute),
						finishAt("f4", "e4", 55*time.Minute),
					},
					EntryCount: 2,
				},
				{
					Race:  testRace(),
					Fleet: model.Fleet{ID: "fleet-a", Name: "A", Method: model.OneDesign},
					Entries: entryMap(
						model.Entry{ID: "e1", FleetID: "fleet-a"},
						model.Entry{ID: "e2", FleetID: "fleet-a"},
					),
					Finishes: []model.Finish{
						finishAt("f1", "e1", 50*time.Minute),
						finishAt("f2", "e2", 49*time.Minute),
					},
					EntryCount: 2,
				},
			},
		}

		Convey("When the race is scored", func() {
			results := scorer.ScoreRace(in)

			Convey("Then output groups by fleet and orders by points within it", func() {
				So(results, ShouldHaveLength, 4)
				So(results[0].FleetID, ShouldEqual, "fleet-a")
				So(results[0].EntryID, ShouldEqual, "e2")
				So(results[1].EntryID, ShouldEqual, "e1")
				So(results[2].FleetID, ShouldEqual, "fleet-b")
				So(results[2].EntryID, ShouldEqual, "e4")
				So(results[3].EntryID, ShouldEqual, "e3")
			})

			Convey("Then fleets outside the overall carry no overall fields", func() {
				for _, r := range results {
					So(r.OverallRank, ShouldBeNil)
					So(r.OverallPoints, ShouldBeNil)
				}
			})
		})
	})
}
