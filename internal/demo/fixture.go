// Package demo seeds a small reference regatta so the service can score
// something out of the box.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/tidemark/regatta/internal/adapters/repository"
	"github.com/tidemark/regatta/internal/domain/model"
)

// RaceID is the identifier of the seeded race.
const RaceID = "demo-race-1"

const regattaID = "demo-regatta"

// Seed loads the demonstration regatta into store: two PHRF fleets
// sharing an overall group, one one-design fleet outside it, and a
// finish sheet exercising penalties and non-finishers.
func Seed(ctx context.Context, store repository.Seeder) error {
	scheduled := time.Date(2025, time.June, 14, 13, 0, 0, 0, time.UTC)
	actual := scheduled.Add(10 * time.Minute)

	race := model.Race{
		ID:             RaceID,
		RegattaID:      regattaID,
		Name:           "Spring Series Race 1",
		ScheduledStart: &scheduled,
		ActualStart:    &actual,
		CourseType:     "windward-leeward",
		Distance:       11.3,
		WindSpeedKts:   12,
	}
	if err := store.PutRace(ctx, race); err != nil {
		return fmt.Errorf("seed race: %w", err)
	}

	fleets := []model.Fleet{
		{ID: "demo-phrf-a", RegattaID: regattaID, Name: "PHRF A", Sequence: 1,
			Method: model.PHRFTimeOnTime, ScoringJSON: `{"PHRF_TOT_A": 650, "PHRF_TOT_B": 550}`},
		{ID: "demo-phrf-b", RegattaID: regattaID, Name: "PHRF B", Sequence: 2,
			Method: model.PHRFTimeOnTime, ScoringJSON: `{"PHRF_TOT_A": 650, "PHRF_TOT_B": 550}`},
		{ID: "demo-laser", RegattaID: regattaID, Name: "Laser", Sequence: 3,
			Method: model.OneDesign},
	}
	for _, fleet := range fleets {
		if err := store.PutFleet(ctx, fleet); err != nil {
			return fmt.Errorf("seed fleet: %w", err)
		}
	}

	offset := 5 * time.Minute
	links := []model.RaceFleet{
		{RaceID: RaceID, FleetID: "demo-phrf-a", IncludeInOverall: true},
		{RaceID: RaceID, FleetID: "demo-phrf-b", StartOffset: &offset, IncludeInOverall: true},
		{RaceID: RaceID, FleetID: "demo-laser"},
	}
	for _, link := range links {
		if err := store.PutRaceFleet(ctx, link); err != nil {
			return fmt.Errorf("seed race fleet: %w", err)
		}
	}

	entries := []model.Entry{
		{ID: "demo-e1", FleetID: "demo-phrf-a", Rating: 96,
			Boat: model.Boat{Name: "Wavelength", SailNumber: "USA 4211", MakeModel: "J/109"}},
		{ID: "demo-e2", FleetID: "demo-phrf-a", Rating: 120,
			Boat: model.Boat{Name: "Tenacity", SailNumber: "USA 517", MakeModel: "C&C 34"}},
		{ID: "demo-e3", FleetID: "demo-phrf-a", Rating: 144,
			Boat: model.Boat{Name: "Kestrel", SailNumber: "USA 88", MakeModel: "Cal 33"}},
		{ID: "demo-e4", FleetID: "demo-phrf-b", Rating: 180,
			Boat: model.Boat{Name: "Blue Moon", SailNumber: "USA 902", MakeModel: "Catalina 30"}},
		{ID: "demo-e5", FleetID: "demo-phrf-b", Rating: 201,
			Boat: model.Boat{Name: "Periwinkle", SailNumber: "USA 1430", MakeModel: "Pearson 30"}},
		{ID: "demo-e6", FleetID: "demo-laser",
			Boat: model.Boat{Name: "Hull 171415", SailNumber: "171415", MakeModel: "Laser"}},
		{ID: "demo-e7", FleetID: "demo-laser",
			Boat: model.Boat{Name: "Hull 168210", SailNumber: "168210", MakeModel: "Laser"}},
	}
	for _, entry := range entries {
		entry.RegattaID = regattaID
		if err := store.PutEntry(ctx, entry); err != nil {
			return fmt.Errorf("seed entry: %w", err)
		}
	}

	at := func(d time.Duration) *time.Time {
		t := actual.Add(d)
		return &t
	}
	scpPenalty := 2.0
	finishes := []model.Finish{
		{EntryID: "demo-e1", FinishTime: at(92 * time.Minute)},
		{EntryID: "demo-e2", FinishTime: at(95 * time.Minute), Code: model.CodeSCP, PointPenalty: &scpPenalty,
			Notes: "touched the offset mark, took a scoring penalty"},
		{EntryID: "demo-e3", Code: model.CodeDNF},
		{EntryID: "demo-e4", FinishTime: at(108 * time.Minute)},
		{EntryID: "demo-e5", FinishTime: at(112 * time.Minute)},
		{EntryID: "demo-e6", FinishTime: at(75 * time.Minute)},
		{EntryID: "demo-e7", FinishTime: at(77 * time.Minute)},
	}
	for i, finish := range finishes {
		finish.ID = fmt.Sprintf("demo-f%d", i+1)
		finish.RaceID = RaceID
		if err := store.PutFinish(ctx, finish); err != nil {
			return fmt.Errorf("seed finish: %w", err)
		}
	}
	return nil
}
