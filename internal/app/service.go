// Package service provides the race scoring orchestrator that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tidemark/regatta/internal/adapters/repository"
	"github.com/tidemark/regatta/internal/domain/model"
	"github.com/tidemark/regatta/internal/domain/scoring"
	"github.com/tidemark/regatta/internal/domain/serial"
	"github.com/tidemark/regatta/internal/domain/standings"
	"github.com/tidemark/regatta/pkg/logger"
	"github.com/tidemark/regatta/pkg/metrics"
)

// Service is the single externally callable surface of the scoring
// engine. It loads one race's dataset, drives the fleet scorer and the
// overall aggregator, persists the computed finish fields and returns
// the combined result list.
type Service struct {
	mu sync.RWMutex

	store  repository.Store
	scorer *standings.Scorer
	guard  serial.Guard
	polar  scoring.PolarModel

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the regatta store the orchestrator loads from and
// persists to.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPolarModel swaps the polar-performance strategy used for the ORR
// percentage methods.
func WithPolarModel(p scoring.PolarModel) Option {
	return func(s *Service) {
		if p != nil {
			s.polar = p
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory regatta store")
	}

	calcOpts := []scoring.Option{}
	if s.polar != nil {
		calcOpts = append(calcOpts, scoring.WithPolarModel(s.polar))
	}
	s.scorer = standings.NewScorer(
		standings.WithCalculator(scoring.NewCalculator(calcOpts...)),
		standings.WithLogger(s.logger.Named("standings")),
	)
	s.guard = serial.NewInMemoryGuard()

	s.started = true
	s.logger.Info(ctx, "scoring service started")
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

// CalculateRaceScores recomputes all scores for one race and returns the
// result records ordered by fleet then points. An unknown race yields an
// empty list and no error. Passes for the same race are serialized;
// recomputing with unchanged inputs reproduces identical output.
func (s *Service) CalculateRaceScores(ctx context.Context, raceID string) ([]model.Result, error) {
	var results []model.Result
	err := s.guard.Do(ctx, raceID, func() error {
		var err error
		results, err = s.scoreRace(ctx, raceID)
		return err
	})
	if err != nil {
		metrics.RecordScoringError()
		return nil, err
	}
	return results, nil
}

func (s *Service) scoreRace(ctx context.Context, raceID string) ([]model.Result, error) {
	start := time.Now()

	bundle, err := s.store.RaceData(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("load race data: %w", err)
	}
	if bundle == nil {
		s.logger.Debug(ctx, "race not found, nothing to score", logger.String("raceID", raceID))
		return []model.Result{}, nil
	}

	results := s.scorer.ScoreRace(s.raceInput(ctx, bundle))

	if err := s.store.SaveComputed(ctx, raceID, computedFinishes(bundle, results)); err != nil {
		return nil, fmt.Errorf("persist computed fields: %w", err)
	}

	metrics.RecordRaceScored()
	metrics.RecordScoringDuration(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "race scored",
		logger.String("raceID", raceID),
		logger.Int("results", len(results)),
	)
	return results, nil
}

// raceInput regroups the flat bundle into per-fleet scoring inputs for
// the fleets actually present among the finishes.
func (s *Service) raceInput(ctx context.Context, bundle *repository.RaceBundle) standings.RaceInput {
	finishesByFleet := make(map[string][]model.Finish)
	for _, f := range bundle.Finishes {
		entry, ok := bundle.Entries[f.EntryID]
		if !ok {
			s.logger.Warn(ctx, "finish references unknown entry, skipping",
				logger.String("finishID", f.ID),
				logger.String("entryID", f.EntryID),
			)
			continue
		}
		finishesByFleet[entry.FleetID] = append(finishesByFleet[entry.FleetID], f)
	}

	in := standings.RaceInput{Race: bundle.Race}
	for fleetID, finishes := range finishesByFleet {
		fleet, ok := bundle.Fleets[fleetID]
		if !ok {
			s.logger.Warn(ctx, "finishes reference unknown fleet, skipping",
				logger.String("fleetID", fleetID),
			)
			continue
		}
		fi := standings.FleetInput{
			Race:       bundle.Race,
			Fleet:      fleet,
			Finishes:   finishes,
			Entries:    bundle.Entries,
			EntryCount: bundle.EntryCounts[fleetID],
		}
		if rf, ok := bundle.RaceFleets[fleetID]; ok {
			link := rf
			fi.RaceFleet = &link
		}
		in.Fleets = append(in.Fleets, fi)
	}
	sort.Slice(in.Fleets, func(i, j int) bool {
		if in.Fleets[i].Fleet.Sequence != in.Fleets[j].Fleet.Sequence {
			return in.Fleets[i].Fleet.Sequence < in.Fleets[j].Fleet.Sequence
		}
		return in.Fleets[i].Fleet.ID < in.Fleets[j].Fleet.ID
	})
	return in
}

// computedFinishes maps the scored results back onto finish rows so the
// store persists exactly the engine-computed fields. Fleets that yielded
// no results leave their rows untouched.
func computedFinishes(bundle *repository.RaceBundle, results []model.Result) []model.Finish {
	byID := make(map[string]model.Finish, len(bundle.Finishes))
	for _, f := range bundle.Finishes {
		byID[f.ID] = f
	}
	updates := make([]model.Finish, 0, len(results))
	for _, r := range results {
		f, ok := byID[r.FinishID]
		if !ok {
			continue
		}
		points := r.Points
		f.Elapsed = r.Elapsed
		f.Corrected = r.Corrected
		f.Points = &points
		f.OverallRank = r.OverallRank
		f.OverallPoints = r.OverallPoints
		updates = append(updates, f)
	}
	return updates
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
	}
	if s.started {
		stats["racesStored"] = s.store.RaceCount(context.Background())
	}
	return stats
}
