// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tidemark/regatta/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// CalculateRaceScores recomputes and persists the scores for one
	// race, returning the ordered result list.
	CalculateRaceScores(ctx context.Context, raceID string) ([]model.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	racesHandler  *RacesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		racesHandler:  NewRacesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/races/", MetricsMiddleware(s.racesHandler.HandleRaces, "races"))
}

// resultResponse is the wire shape of one scored finish. Durations are
// rendered as whole seconds; absent values are omitted rather than zero.
type resultResponse struct {
	FinishID           string     `json:"finish_id"`
	RaceID             string     `json:"race_id"`
	EntryID            string     `json:"entry_id"`
	FleetID            string     `json:"fleet_id"`
	FleetName          string     `json:"fleet_name"`
	Boat               model.Boat `json:"boat"`
	FinishTime         *string    `json:"finish_time,omitempty"`
	ElapsedSeconds     *float64   `json:"elapsed_seconds,omitempty"`
	CorrectedSeconds   *float64   `json:"corrected_seconds,omitempty"`
	TimePenaltySeconds *float64   `json:"time_penalty_seconds,omitempty"`
	PointPenalty       *float64   `json:"point_penalty,omitempty"`
	Code               string     `json:"code,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	Points             float64    `json:"points"`
	OverallRank        *int       `json:"overall_rank,omitempty"`
	OverallPoints      *float64   `json:"overall_points,omitempty"`
	ScoringMethod      string     `json:"scoring_method"`
}

// toResponse converts an engine result to its wire shape.
func toResponse(r model.Result) resultResponse {
	resp := resultResponse{
		FinishID:      r.FinishID,
		RaceID:        r.RaceID,
		EntryID:       r.EntryID,
		FleetID:       r.FleetID,
		FleetName:     r.FleetName,
		Boat:          r.Boat,
		PointPenalty:  r.PointPenalty,
		Code:          r.Code,
		Notes:         r.Notes,
		Points:        r.Points,
		OverallRank:   r.OverallRank,
		OverallPoints: r.OverallPoints,
		ScoringMethod: r.ScoringMethod,
	}
	if r.FinishTime != nil {
		ts := r.FinishTime.UTC().Format(time.RFC3339)
		resp.FinishTime = &ts
	}
	resp.ElapsedSeconds = durationSeconds(r.Elapsed)
	resp.CorrectedSeconds = durationSeconds(r.Corrected)
	resp.TimePenaltySeconds = durationSeconds(r.TimePenalty)
	return resp
}

func durationSeconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	secs := d.Seconds()
	return &secs
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
