// Package repository defines the regatta store contract consumed by the
// scoring engine, plus reference in-memory and SQLite implementations.
//
// The engine performs a read-compute-write cycle through this interface:
// RaceData loads one race's dataset into memory, SaveComputed persists
// the engine-computed finish fields. Callers are responsible for
// serializing concurrent scoring passes over the same race.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tidemark/regatta/internal/domain/model"
)

// RaceBundle is the joined, read-only input dataset for one race.
type RaceBundle struct {
	Race        model.Race
	Fleets      map[string]model.Fleet     // by fleet ID
	RaceFleets  map[string]model.RaceFleet // by fleet ID
	Entries     map[string]model.Entry     // by entry ID
	Finishes    []model.Finish
	EntryCounts map[string]int // registered entries per fleet ID
}

// Store provides the persistence boundary of the scoring engine.
type Store interface {
	// RaceData returns the full input bundle for a race, or (nil, nil)
	// when the race does not exist: nothing to score is not an error.
	RaceData(ctx context.Context, raceID string) (*RaceBundle, error)

	// SaveComputed writes the engine-computed fields (elapsed, corrected,
	// points, overall rank/points) back onto the stored finish rows.
	SaveComputed(ctx context.Context, raceID string, finishes []model.Finish) error

	// RaceCount returns the number of races held by the store.
	RaceCount(ctx context.Context) int
}

// Seeder is the write surface used by fixtures and the demo loader.
// Record CRUD proper lives outside the engine; this is deliberately the
// minimum needed to get data in front of it.
type Seeder interface {
	PutRace(ctx context.Context, race model.Race) error
	PutFleet(ctx context.Context, fleet model.Fleet) error
	PutRaceFleet(ctx context.Context, rf model.RaceFleet) error
	PutEntry(ctx context.Context, entry model.Entry) error
	PutFinish(ctx context.Context, finish model.Finish) error
}

// NewID mints a record identifier for seeded rows.
func NewID() string {
	return uuid.New().String()
}
