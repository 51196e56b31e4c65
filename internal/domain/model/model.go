// Package model contains the regatta domain records passed between layers.
//
// The scoring engine treats everything here as plain data: records are
// loaded by a repository adapter, handed to the engine, and written back
// with only the computed fields mutated.
package model

import "time"

// Penalty/status codes recorded against a finish. An empty code marks an
// ordinary finisher. SCP is special: it still ranks by corrected time.
const (
	CodeDNF = "DNF" // did not finish
	CodeDNS = "DNS" // did not start
	CodeDNC = "DNC" // did not come to the starting area
	CodeDSQ = "DSQ" // disqualified
	CodeRET = "RET" // retired
	CodeOCS = "OCS" // on course side at the start
	CodeSCP = "SCP" // scoring penalty, ranks by corrected time
)

// MaxDayDuration bounds elapsed and corrected durations so they stay
// representable as a time-of-day value in downstream storage.
const MaxDayDuration = 23*time.Hour + 59*time.Minute + 59*time.Second

// Boat carries the display fields joined onto results.
type Boat struct {
	Name       string `json:"name"`
	SailNumber string `json:"sail_number"`
	MakeModel  string `json:"make_model"`
}

// Fleet is a class of boats scored together under one method.
type Fleet struct {
	ID          string
	RegattaID   string
	Name        string
	Sequence    int
	Method      ScoringMethod
	ScoringJSON string // free-form method constants, parsed leniently
}

// Race is a single scored race within a regatta. Course fields are the
// defaults used when no RaceFleet override exists.
type Race struct {
	ID             string
	RegattaID      string
	Name           string
	ScheduledStart *time.Time
	ActualStart    *time.Time
	CourseType     string
	Distance       float64 // nautical miles
	WindSpeedKts   float64
	ScoringJSON    string
}

// RaceFleet overrides race parameters for one fleet in one race.
// Nil fields mean "use the race default".
type RaceFleet struct {
	RaceID           string
	FleetID          string
	StartOffset      *time.Duration // staggered start offset from the base start
	CourseType       *string
	Distance         *float64
	WindSpeedKts     *float64
	ScoringJSON      *string
	IncludeInOverall bool
}

// Entry is a boat's participation in a regatta. Entries are read-only
// inputs to the engine.
type Entry struct {
	ID        string
	RegattaID string
	FleetID   string
	Rating    float64 // handicap value, snapshot of the certificate rating
	Boat      Boat
}

// Finish is a raw finish-line observation and, after scoring, the durable
// record of the computed fields. The engine mutates only Elapsed,
// Corrected, Points, OverallRank and OverallPoints.
type Finish struct {
	ID           string
	RaceID       string
	EntryID      string
	FinishTime   *time.Time
	TimePenalty  *time.Duration
	PointPenalty *float64
	Code         string
	Notes        string

	// Computed by the scoring engine.
	Elapsed       *time.Duration
	Corrected     *time.Duration
	Points        *float64
	OverallRank   *int
	OverallPoints *float64
}

// Finished reports whether an observed finish time is present.
func (f *Finish) Finished() bool {
	return f.FinishTime != nil
}

// Result is the engine's output record for one finish, joined with the
// presentation fields callers serialize downstream.
type Result struct {
	FinishID  string
	RaceID    string
	EntryID   string
	FleetID   string
	FleetName string
	Boat      Boat

	FinishTime   *time.Time
	Elapsed      *time.Duration
	Corrected    *time.Duration
	TimePenalty  *time.Duration
	PointPenalty *float64
	Code         string
	Notes        string

	Points        float64
	OverallRank   *int
	OverallPoints *float64
	ScoringMethod string
}

// ClampDayDuration clamps d into [0, MaxDayDuration]. Out-of-range inputs
// come from clock skew or operator mistakes and must not corrupt storage
// that constrains time-of-day values.
func ClampDayDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxDayDuration {
		return MaxDayDuration
	}
	return d
}
