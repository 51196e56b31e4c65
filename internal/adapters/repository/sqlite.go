package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/tidemark/regatta/internal/domain/model"
	"github.com/tidemark/regatta/pkg/metrics"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

const sqliteBusyTimeout = 5 * time.Second

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS races (
	id                 TEXT PRIMARY KEY,
	regatta_id         TEXT NOT NULL,
	name               TEXT NOT NULL DEFAULT '',
	scheduled_start_ns INTEGER,
	actual_start_ns    INTEGER,
	course_type        TEXT NOT NULL DEFAULT '',
	distance           REAL NOT NULL DEFAULT 0,
	wind_kts           REAL NOT NULL DEFAULT 0,
	scoring_json       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS fleets (
	id           TEXT PRIMARY KEY,
	regatta_id   TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	sequence     INTEGER NOT NULL DEFAULT 0,
	method       TEXT NOT NULL DEFAULT 'OneDesign',
	scoring_json TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS race_fleets (
	race_id            TEXT NOT NULL,
	fleet_id           TEXT NOT NULL,
	start_offset_ns    INTEGER,
	course_type        TEXT,
	distance           REAL,
	wind_kts           REAL,
	scoring_json       TEXT,
	include_in_overall INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (race_id, fleet_id)
);
CREATE TABLE IF NOT EXISTS entries (
	id          TEXT PRIMARY KEY,
	regatta_id  TEXT NOT NULL,
	fleet_id    TEXT NOT NULL,
	rating      REAL NOT NULL DEFAULT 0,
	boat_name   TEXT NOT NULL DEFAULT '',
	sail_number TEXT NOT NULL DEFAULT '',
	make_model  TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS finishes (
	id              TEXT PRIMARY KEY,
	race_id         TEXT NOT NULL,
	entry_id        TEXT NOT NULL,
	finish_time_ns  INTEGER,
	time_penalty_ns INTEGER,
	point_penalty   REAL,
	code            TEXT NOT NULL DEFAULT '',
	notes           TEXT NOT NULL DEFAULT '',
	elapsed_ns      INTEGER,
	corrected_ns    INTEGER,
	points          REAL,
	overall_rank    INTEGER,
	overall_points  REAL
);
CREATE INDEX IF NOT EXISTS idx_finishes_race ON finishes(race_id);
CREATE INDEX IF NOT EXISTS idx_entries_regatta ON entries(regatta_id);
`

// SQLiteStore implements Store and Seeder over a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and if needed initializes) the database at path.
// Pass ":memory:" for an ephemeral database.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The modernc driver serializes access per connection; a single
	// connection avoids table-lock errors under concurrent readers.
	db.SetMaxOpenConns(1)

	pragmas := fmt.Sprintf("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=%d;", sqliteBusyTimeout.Milliseconds())
	if _, err := db.ExecContext(ctx, pragmas); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// PutRace stores or replaces a race.
func (s *SQLiteStore) PutRace(ctx context.Context, race model.Race) error {
	if race.ID == "" {
		return ErrMissingID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO races
		(id, regatta_id, name, scheduled_start_ns, actual_start_ns, course_type, distance, wind_kts, scoring_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		race.ID, race.RegattaID, race.Name,
		timeNS(race.ScheduledStart), timeNS(race.ActualStart),
		race.CourseType, race.Distance, race.WindSpeedKts, race.ScoringJSON,
	)
	if err != nil {
		return fmt.Errorf("put race: %w", err)
	}
	return nil
}

// PutFleet stores or replaces a fleet.
func (s *SQLiteStore) PutFleet(ctx context.Context, fleet model.Fleet) error {
	if fleet.ID == "" {
		return ErrMissingID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fleets (id, regatta_id, name, sequence, method, scoring_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fleet.ID, fleet.RegattaID, fleet.Name, fleet.Sequence, fleet.Method.String(), fleet.ScoringJSON,
	)
	if err != nil {
		return fmt.Errorf("put fleet: %w", err)
	}
	return nil
}

// PutRaceFleet stores or replaces a per-(race, fleet) override link.
func (s *SQLiteStore) PutRaceFleet(ctx context.Context, rf model.RaceFleet) error {
	if rf.RaceID == "" || rf.FleetID == "" {
		return ErrMissingID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO race_fleets
		(race_id, fleet_id, start_offset_ns, course_type, distance, wind_kts, scoring_json, include_in_overall)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rf.RaceID, rf.FleetID, durNS(rf.StartOffset),
		strOrNil(rf.CourseType), f64OrNil(rf.Distance), f64OrNil(rf.WindSpeedKts), strOrNil(rf.ScoringJSON),
		boolInt(rf.IncludeInOverall),
	)
	if err != nil {
		return fmt.Errorf("put race fleet: %w", err)
	}
	return nil
}

// PutEntry stores or replaces an entry.
func (s *SQLiteStore) PutEntry(ctx context.Context, entry model.Entry) error {
	if entry.ID == "" {
		return ErrMissingID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO entries (id, regatta_id, fleet_id, rating, boat_name, sail_number, make_model)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RegattaID, entry.FleetID, entry.Rating,
		entry.Boat.Name, entry.Boat.SailNumber, entry.Boat.MakeModel,
	)
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}
	return nil
}

// PutFinish stores or replaces a finish observation, minting an ID when
// absent.
func (s *SQLiteStore) PutFinish(ctx context.Context, finish model.Finish) error {
	if finish.ID == "" {
		finish.ID = NewID()
	}
	if finish.RaceID == "" || finish.EntryID == "" {
		return ErrMissingID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO finishes
		(id, race_id, entry_id, finish_time_ns, time_penalty_ns, point_penalty, code, notes,
		 elapsed_ns, corrected_ns, points, overall_rank, overall_points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		finish.ID, finish.RaceID, finish.EntryID,
		timeNS(finish.FinishTime), durNS(finish.TimePenalty), f64OrNil(finish.PointPenalty),
		finish.Code, finish.Notes,
		durNS(finish.Elapsed), durNS(finish.Corrected), f64OrNil(finish.Points),
		intOrNil(finish.OverallRank), f64OrNil(finish.OverallPoints),
	)
	if err != nil {
		return fmt.Errorf("put finish: %w", err)
	}
	return nil
}

// RaceData loads the joined input bundle for one race, or (nil, nil)
// when the race is unknown.
func (s *SQLiteStore) RaceData(ctx context.Context, raceID string) (*RaceBundle, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	race, ok, err := s.loadRace(ctx, raceID)
	if err != nil {
		return nil, err
	}
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
	if err := s.loadFleets(ctx, race.RegattaID, bundle); err != nil {
		return nil, err
	}
	if err := s.loadRaceFleets(ctx, raceID, bundle); err != nil {
		return nil, err
	}
	if err := s.loadEntries(ctx, race.RegattaID, bundle); err != nil {
		return nil, err
	}
	if err := s.loadFinishes(ctx, raceID, bundle); err != nil {
		return nil, err
	}
	sort.Slice(bundle.Finishes, func(i, j int) bool {
		return bundle.Finishes[i].ID < bundle.Finishes[j].ID
	})
	return bundle, nil
}

func (s *SQLiteStore) loadRace(ctx context.Context, raceID string) (model.Race, bool, error) {
	var (
		race                 model.Race
		scheduledNS, actualNS sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT id, regatta_id, name, scheduled_start_ns, actual_start_ns, course_type, distance, wind_kts, scoring_json
		FROM races WHERE id = ?`, raceID)
	err := row.Scan(&race.ID, &race.RegattaID, &race.Name, &scheduledNS, &actualNS,
		&race.CourseType, &race.Distance, &race.WindSpeedKts, &race.ScoringJSON)
	if err == sql.ErrNoRows {
		return model.Race{}, false, nil
	}
	if err != nil {
		return model.Race{}, false, fmt.Errorf("load race: %w", err)
	}
	race.ScheduledStart = nsTime(scheduledNS)
	race.ActualStart = nsTime(actualNS)
	return race, true, nil
}

func (s *SQLiteStore) loadFleets(ctx context.Context, regattaID string, bundle *RaceBundle) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, regatta_id, name, sequence, method, scoring_json FROM fleets WHERE regatta_id = ?`, regattaID)
	if err != nil {
		return fmt.Errorf("load fleets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			fleet  model.Fleet
			method string
		)
		if err := rows.Scan(&fleet.ID, &fleet.RegattaID, &fleet.Name, &fleet.Sequence, &method, &fleet.ScoringJSON); err != nil {
			return fmt.Errorf("scan fleet: %w", err)
		}
		fleet.Method, _ = model.ParseScoringMethod(method)
		bundle.Fleets[fleet.ID] = fleet
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load fleets: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadRaceFleets(ctx context.Context, raceID string, bundle *RaceBundle) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT race_id, fleet_id, start_offset_ns, course_type, distance, wind_kts, scoring_json, include_in_overall
		FROM race_fleets WHERE race_id = ?`, raceID)
	if err != nil {
		return fmt.Errorf("load race fleets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rf          model.RaceFleet
			offsetNS    sql.NullInt64
			courseType  sql.NullString
			distance    sql.NullFloat64
			windKts     sql.NullFloat64
			scoringJSON sql.NullString
			include     int
		)
		if err := rows.Scan(&rf.RaceID, &rf.FleetID, &offsetNS, &courseType, &distance, &windKts, &scoringJSON, &include); err != nil {
			return fmt.Errorf("scan race fleet: %w", err)
		}
		rf.StartOffset = nsDur(offsetNS)
		if courseType.Valid {
			rf.CourseType = &courseType.String
		}
		if distance.Valid {
			rf.Distance = &distance.Float64
		}
		if windKts.Valid {
			rf.WindSpeedKts = &windKts.Float64
		}
		if scoringJSON.Valid {
			rf.ScoringJSON = &scoringJSON.String
		}
		rf.IncludeInOverall = include != 0
		bundle.RaceFleets[rf.FleetID] = rf
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load race fleets: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadEntries(ctx context.Context, regattaID string, bundle *RaceBundle) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, regatta_id, fleet_id, rating, boat_name, sail_number, make_model
		FROM entries WHERE regatta_id = ?`, regattaID)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entry model.Entry
		if err := rows.Scan(&entry.ID, &entry.RegattaID, &entry.FleetID, &entry.Rating,
			&entry.Boat.Name, &entry.Boat.SailNumber, &entry.Boat.MakeModel); err != nil {
			return fmt.Errorf("scan entry: %w", err)
		}
		bundle.Entries[entry.ID] = entry
		bundle.EntryCounts[entry.FleetID]++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadFinishes(ctx context.Context, raceID string, bundle *RaceBundle) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, race_id, entry_id, finish_time_ns, time_penalty_ns, point_penalty, code, notes,
		       elapsed_ns, corrected_ns, points, overall_rank, overall_points
		FROM finishes WHERE race_id = ?`, raceID)
	if err != nil {
		return fmt.Errorf("load finishes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			f                                  model.Finish
			finishNS, penaltyNS                sql.NullInt64
			pointPenalty, points, overallPts   sql.NullFloat64
			elapsedNS, correctedNS, overallRnk sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.RaceID, &f.EntryID, &finishNS, &penaltyNS, &pointPenalty,
			&f.Code, &f.Notes, &elapsedNS, &correctedNS, &points, &overallRnk, &overallPts); err != nil {
			return fmt.Errorf("scan finish: %w", err)
		}
		f.FinishTime = nsTime(finishNS)
		f.TimePenalty = nsDur(penaltyNS)
		if pointPenalty.Valid {
			f.PointPenalty = &pointPenalty.Float64
		}
		f.Elapsed = nsDur(elapsedNS)
		f.Corrected = nsDur(correctedNS)
		if points.Valid {
			f.Points = &points.Float64
		}
		if overallRnk.Valid {
			rank := int(overallRnk.Int64)
			f.OverallRank = &rank
		}
		if overallPts.Valid {
			f.OverallPoints = &overallPts.Float64
		}
		bundle.Finishes = append(bundle.Finishes, f)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load finishes: %w", err)
	}
	return nil
}

// SaveComputed writes computed fields back onto the stored finish rows in
// one transaction.
func (s *SQLiteStore) SaveComputed(ctx context.Context, raceID string, finishes []model.Finish) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE finishes
		SET elapsed_ns = ?, corrected_ns = ?, points = ?, overall_rank = ?, overall_points = ?
		WHERE id = ? AND race_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare save: %w", err)
	}
	defer stmt.Close()

	for _, f := range finishes {
		res, err := stmt.ExecContext(ctx,
			durNS(f.Elapsed), durNS(f.Corrected), f64OrNil(f.Points),
			intOrNil(f.OverallRank), f64OrNil(f.OverallPoints),
			f.ID, raceID,
		)
		if err != nil {
			return fmt.Errorf("save finish %s: %w", f.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrUnknownFinish
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// RaceCount returns the number of stored races.
func (s *SQLiteStore) RaceCount(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM races`).Scan(&n); err != nil {
		return 0
	}
	metrics.UpdateRacesStored(n)
	return n
}

// Nullable column conversion helpers.

func timeNS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func durNS(d *time.Duration) any {
	if d == nil {
		return nil
	}
	return int64(*d)
}

func f64OrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func intOrNil(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nsTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}

func nsDur(v sql.NullInt64) *time.Duration {
	if !v.Valid {
		return nil
	}
	d := time.Duration(v.Int64)
	return &d
}
