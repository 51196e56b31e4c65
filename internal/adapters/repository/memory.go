package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tidemark/regatta/internal/domain/model"
	"github.com/tidemark/regatta/pkg/metrics"
)

// MemoryStore implements Store and Seeder with plain maps. It backs tests
// and the demo configuration; a real deployment sits on the SQLite store.
type MemoryStore struct {
	mu         sync.RWMutex
	races      map[string]model.Race
	fleets     map[string]model.Fleet
	raceFleets map[string]map[string]model.RaceFleet // raceID -> fleetID -> link
	entries    map[string]model.Entry
	finishes   map[string]map[string]model.Finish // raceID -> finishID -> row
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		races:      make(map[string]model.Race),
		fleets:     make(map[string]model.Fleet),
		raceFleets: make(map[string]map[string]model.RaceFleet),
		entries:    make(map[string]model.Entry),
		finishes:   make(map[string]map[string]model.Finish),
	}
}

// PutRace stores a race.
func (s *MemoryStore) PutRace(_ context.Context, race model.Race) error {
	if race.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.races[race.ID] = race
	metrics.UpdateRacesStored(len(s.races))
	return nil
}

// PutFleet stores a fleet.
func (s *MemoryStore) PutFleet(_ context.Context, fleet model.Fleet) error {
	if fleet.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fleets[fleet.ID] = fleet
	return nil
}

// PutRaceFleet stores a per-(race, fleet) override link.
func (s *MemoryStore) PutRaceFleet(_ context.Context, rf model.RaceFleet) error {
	if rf.RaceID == "" || rf.FleetID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	links := s.raceFleets[rf.RaceID]
	if links == nil {
		links = make(map[string]model.RaceFleet)
		s.raceFleets[rf.RaceID] = links
	}
	links[rf.FleetID] = rf
	return nil
}

// PutEntry stores an entry.
func (s *MemoryStore) PutEntry(_ context.Context, entry model.Entry) error {
	if entry.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

// PutFinish stores a finish observation, minting an ID when absent.
func (s *MemoryStore) PutFinish(_ context.Context, finish model.Finish) error {
	if finish.ID == "" {
		finish.ID = NewID()
	}
	if finish.RaceID == "" || finish.EntryID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.finishes[finish.RaceID]
	if rows == nil {
		rows = make(map[string]model.Finish)
		s.finishes[finish.RaceID] = rows
	}
	rows[finish.ID] = finish
	return nil
}

// RaceData returns the joined input bundle for one race, or (nil, nil)
// when the race is unknown.
func (s *MemoryStore) RaceData(_ context.Context, raceID string) (*RaceBundle, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	race, ok := s.races[raceID]
	if !ok {
		return nil, nil
	}

	bundle := &RaceBundle{
		Race:        race,
		Fleets:      make(map[string]model.Fleet),
		RaceFleets:  make(map[string]model.RaceFleet),
		Entries:     make(map[string]model.Entry),
		EntryCounts: make(map[string]int),
	}
	for id, fleet := range s.fleets {
		if fleet.RegattaID == race.RegattaID {
			bundle.Fleets[id] = fleet
		}
	}
	for fleetID, rf := range s.raceFleets[raceID] {
		bundle.RaceFleets[fleetID] = rf
	}
	for id, entry := range s.entries {
		if entry.RegattaID == race.RegattaID {
			bundle.Entries[id] = entry
			bundle.EntryCounts[entry.FleetID]++
		}
	}
	for _, row := range s.finishes[raceID] {
		bundle.Finishes = append(bundle.Finishes, row)
	}
	// Deterministic load order so repeated scoring passes reproduce the
	// same output.
	sort.Slice(bundle.Finishes, func(i, j int) bool {
		return bundle.Finishes[i].ID < bundle.Finishes[j].ID
	})
	return bundle, nil
}

// SaveComputed writes computed fields back onto the stored finish rows.
func (s *MemoryStore) SaveComputed(_ context.Context, raceID string, finishes []model.Finish) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.finishes[raceID]
	for _, f := range finishes {
		row, ok := rows[f.ID]
		if !ok {
			return ErrUnknownFinish
		}
		row.Elapsed = f.Elapsed
		row.Corrected = f.Corrected
		row.Points = f.Points
		row.OverallRank = f.OverallRank
		row.OverallPoints = f.OverallPoints
		rows[f.ID] = row
	}
	return nil
}

// RaceCount returns the number of stored races.
func (s *MemoryStore) RaceCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.races)
}
