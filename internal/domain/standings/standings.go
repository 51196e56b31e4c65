// Package standings turns raw finish observations into ranked, pointed
// race results: per-fleet low-point scoring plus the opt-in cross-fleet
// overall ranking.
package standings

import (
	"context"
	"sort"
	"time"

	"github.com/tidemark/regatta/internal/domain/model"
	"github.com/tidemark/regatta/internal/domain/scoring"
	"github.com/tidemark/regatta/pkg/logger"
	"github.com/tidemark/regatta/pkg/metrics"
)

// FleetInput bundles everything needed to score one fleet in one race.
// All records are caller-supplied; the scorer performs no I/O.
type FleetInput struct {
	Race      model.Race
	Fleet     model.Fleet
	RaceFleet *model.RaceFleet // nil when no per-fleet override exists
	Finishes  []model.Finish
	Entries   map[string]model.Entry // keyed by entry ID
	// EntryCount is the number of entries registered in the fleet for
	// the regatta, the denominator for penalty points.
	EntryCount int
}

// RaceInput is the full scoring input for one race.
type RaceInput struct {
	Race   model.Race
	Fleets []FleetInput
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithCalculator sets a custom correction calculator.
func WithCalculator(c *scoring.Calculator) Option {
	return func(s *Scorer) {
		if c != nil {
			s.calc = c
		}
	}
}

// WithLogger sets a custom logger for the scorer.
func WithLogger(l logger.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scorer computes ranked results. It is synchronous and CPU-only; a
// single instance is safe for concurrent use across different races.
type Scorer struct {
	calc   *scoring.Calculator
	logger logger.Logger
}

// NewScorer creates a scorer with configuration options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		calc: scoring.NewCalculator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreRace scores every fleet of the race, aggregates the opt-in
// overall groups, and returns the combined list ordered by fleet then
// points. Unscoreable fleets contribute zero results, never errors.
func (s *Scorer) ScoreRace(in RaceInput) []model.Result {
	byFleet := make(map[string][]model.Result, len(in.Fleets))
	var results []model.Result
	for i := range in.Fleets {
		fleetResults := s.ScoreFleet(in.Fleets[i])
		if len(fleetResults) == 0 {
			continue
		}
		byFleet[in.Fleets[i].Fleet.ID] = fleetResults
	}

	s.scoreOverall(in, byFleet)

	for _, rs := range byFleet {
		results = append(results, rs...)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FleetID != results[j].FleetID {
			return results[i].FleetID < results[j].FleetID
		}
		if results[i].Points != results[j].Points {
			return results[i].Points < results[j].Points
		}
		return results[i].EntryID < results[j].EntryID
	})
	return results
}

// ScoreFleet ranks and points the finishes of one fleet in one race.
func (s *Scorer) ScoreFleet(in FleetInput) []model.Result {
	if len(in.Finishes) == 0 {
		return nil
	}

	start, ok := effectiveStart(in.Race, in.RaceFleet)
	if !ok {
		// No start time recorded; guessing one would corrupt results.
		s.warn("fleet has no resolvable start time",
			logger.String("raceID", in.Race.ID),
			logger.String("fleetID", in.Fleet.ID),
		)
		metrics.RecordFleetUnscoreable()
		return nil
	}

	params := s.resolveParams(in)
	course := effectiveCourse(in.Race, in.RaceFleet)

	results := make([]model.Result, 0, len(in.Finishes))
	for _, f := range in.Finishes {
		entry := in.Entries[f.EntryID]
		r := model.Result{
			FinishID:      f.ID,
			RaceID:        f.RaceID,
			EntryID:       f.EntryID,
			FleetID:       in.Fleet.ID,
			FleetName:     in.Fleet.Name,
			Boat:          entry.Boat,
			FinishTime:    f.FinishTime,
			TimePenalty:   f.TimePenalty,
			PointPenalty:  f.PointPenalty,
			Code:          f.Code,
			Notes:         f.Notes,
			ScoringMethod: in.Fleet.Method.String(),
		}
		if f.FinishTime != nil {
			elapsed := model.ClampDayDuration(f.FinishTime.Sub(start))
			corrected := s.calc.Corrected(in.Fleet.Method, params, elapsed, entry.Rating, course)
			if f.TimePenalty != nil {
				corrected += *f.TimePenalty
			}
			corrected = model.ClampDayDuration(corrected)
			r.Elapsed = &elapsed
			r.Corrected = &corrected
		}
		results = append(results, r)
	}

	orderResults(results)
	assignPoints(results, penaltyPoints(in, params))
	metrics.RecordFleetScored(len(results))
	return results
}

// resolveParams layers fleet, race and race-fleet configuration and
// reports any ignored blobs.
func (s *Scorer) resolveParams(in FleetInput) scoring.Params {
	raws := []string{in.Fleet.ScoringJSON, in.Race.ScoringJSON}
	if in.RaceFleet != nil && in.RaceFleet.ScoringJSON != nil {
		raws = append(raws, *in.RaceFleet.ScoringJSON)
	}
	params, parseErrs := scoring.ResolveParams(raws...)
	for _, err := range parseErrs {
		s.warn("malformed scoring configuration, defaults in effect",
			logger.String("raceID", in.Race.ID),
			logger.String("fleetID", in.Fleet.ID),
			logger.Error(err),
		)
		metrics.RecordConfigFallback()
	}
	return params
}

func (s *Scorer) warn(msg string, fields ...logger.Field) {
	if s.logger != nil {
		s.logger.Warn(context.Background(), msg, fields...)
	}
}

// effectiveStart resolves the fleet's start time: actual start, else
// scheduled start, plus any staggered-start offset. ok is false when the
// race carries no start time at all.
func effectiveStart(race model.Race, rf *model.RaceFleet) (time.Time, bool) {
	base := race.ActualStart
	if base == nil {
		base = race.ScheduledStart
	}
	if base == nil {
		return time.Time{}, false
	}
	start := *base
	if rf != nil && rf.StartOffset != nil {
		start = start.Add(*rf.StartOffset)
	}
	return start, true
}

// effectiveCourse applies RaceFleet course overrides onto the race
// defaults.
func effectiveCourse(race model.Race, rf *model.RaceFleet) scoring.Course {
	course := scoring.Course{
		Type:         race.CourseType,
		Distance:     race.Distance,
		WindSpeedKts: race.WindSpeedKts,
	}
	if rf == nil {
		return course
	}
	if rf.CourseType != nil {
		course.Type = *rf.CourseType
	}
	if rf.Distance != nil {
		course.Distance = *rf.Distance
	}
	if rf.WindSpeedKts != nil {
		course.WindSpeedKts = *rf.WindSpeedKts
	}
	return course
}

// penaltyPoints is the flat score for non-finishing codes. The default
// denominator is every entry registered in the fleet; the
// StartedPlusOne policy narrows it to entries that came to the start.
func penaltyPoints(in FleetInput, params scoring.Params) float64 {
	if params.DNFScoring == scoring.DNFScoringStartedPlusOne {
		started := 0
		for _, f := range in.Finishes {
			if f.Code != model.CodeDNS && f.Code != model.CodeDNC {
				started++
			}
		}
		return float64(started + 1)
	}
	return float64(in.EntryCount + 1)
}

// orderResults sorts for ranking: boats with an empty code strictly
// before any coded boat, timed before untimed, then ascending corrected
// time. Entry ID breaks remaining ties so repeated runs reproduce the
// same output.
func orderResults(results []model.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		cleanA, cleanB := a.Code == "", b.Code == ""
		if cleanA != cleanB {
			return cleanA
		}
		timedA, timedB := a.Corrected != nil, b.Corrected != nil
		if timedA != timedB {
			return timedA
		}
		if timedA && *a.Corrected != *b.Corrected {
			return *a.Corrected < *b.Corrected
		}
		return a.EntryID < b.EntryID
	})
}

// assignPoints walks the ordered results applying low-point scoring.
// SCP boats keep their place in the order, score place plus the
// configured penalty, and still advance the place counter. Every other
// coded boat scores the flat penalty value.
func assignPoints(results []model.Result, penalty float64) {
	rank := 1
	for i := range results {
		r := &results[i]
		switch {
		case r.Code == model.CodeSCP && r.Corrected != nil:
			r.Points = float64(rank) + penaltyValue(r.PointPenalty)
			rank++
		case r.Code != "":
			r.Points = penalty
		case r.Corrected == nil:
			// A row with neither a finish time nor a code is a
			// recording error; it scores as a non-finisher so points
			// are never left unassigned.
			r.Points = penalty
		default:
			r.Points = float64(rank) + penaltyValue(r.PointPenalty)
			rank++
		}
	}
}

func penaltyValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
