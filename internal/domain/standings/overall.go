package standings

import (
	"sort"

	"github.com/tidemark/regatta/internal/domain/model"
	"github.com/tidemark/regatta/pkg/metrics"
)

// groupKey identifies an overall comparison group. Only fleets that
// raced the same method over the same effective course are compared;
// value equality on the struct keeps distinct courses apart without
// string concatenation.
type groupKey struct {
	Method     model.ScoringMethod
	Distance   float64
	CourseType string
}

// overallGroup accumulates the merged entries of one comparison group.
type overallGroup struct {
	results    []*model.Result
	entryCount int
}

// scoreOverall computes the cross-fleet ranking for fleets whose
// RaceFleet link opts in, writing OverallRank/OverallPoints onto the
// already-scored results in place. Fleets that do not opt in keep both
// fields unset.
func (s *Scorer) scoreOverall(in RaceInput, byFleet map[string][]model.Result) {
	groups := make(map[groupKey]*overallGroup)
	keys := make([]groupKey, 0)

	for i := range in.Fleets {
		fi := &in.Fleets[i]
		if fi.RaceFleet == nil || !fi.RaceFleet.IncludeInOverall {
			continue
		}
		results, ok := byFleet[fi.Fleet.ID]
		if !ok {
			continue
		}
		course := effectiveCourse(in.Race, fi.RaceFleet)
		key := groupKey{
			Method:     fi.Fleet.Method,
			Distance:   course.Distance,
			CourseType: course.Type,
		}
		g := groups[key]
		if g == nil {
			g = &overallGroup{}
			groups[key] = g
			keys = append(keys, key)
		}
		for j := range results {
			g.results = append(g.results, &results[j])
		}
		g.entryCount += fi.EntryCount
	}

	for _, key := range keys {
		rankGroup(groups[key])
		metrics.RecordOverallGroup()
	}
}

// rankGroup re-runs the fleet ranking rule across the merged group and
// applies low-point scoring with the group-wide entry count as the
// penalty denominator.
func rankGroup(g *overallGroup) {
	sort.SliceStable(g.results, func(i, j int) bool {
		a, b := g.results[i], g.results[j]
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

	penalty := float64(g.entryCount + 1)
	place := 1
	for pos, r := range g.results {
		rank := pos + 1
		r.OverallRank = &rank
		var points float64
		switch {
		case r.Code == model.CodeSCP && r.Corrected != nil:
			points = float64(place) + penaltyValue(r.PointPenalty)
			place++
		case r.Code != "":
			points = penalty
		case r.Corrected == nil:
			points = penalty
		default:
			points = float64(place) + penaltyValue(r.PointPenalty)
			place++
		}
		r.OverallPoints = &points
	}
}
