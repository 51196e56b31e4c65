// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// RacesHandler handles race scoring requests.
type RacesHandler struct {
	deps Dependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps Dependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// HandleRaces routes requests under /races/:
//
//	POST /races/{race_id}/score    recompute, persist and return scores
//	GET  /races/{race_id}/results  recompute and return scores (read path)
//
// Both run the same idempotent scoring pass; an unknown race scores to an
// empty list on the write path and a 404 on the read path.
func (h *RacesHandler) HandleRaces(w http.ResponseWriter, r *http.Request) {
	const op = "api.races"

	rest := strings.TrimPrefix(r.URL.Path, "/races/")
	raceID, action, ok := strings.Cut(rest, "/")
	if !ok || raceID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch {
	case r.Method == http.MethodPost && action == "score":
		h.score(w, r, raceID, false)
	case r.Method == http.MethodGet && action == "results":
		h.score(w, r, raceID, true)
	default:
		http.NotFound(w, r)
	}
}

func (h *RacesHandler) score(w http.ResponseWriter, r *http.Request, raceID string, readPath bool) {
	const op = "api.score_race"

	results, err := h.deps.CalculateRaceScores(r.Context(), raceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if readPath && len(results) == 0 {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrRaceNotFound))
		return
	}

	responses := make([]resultResponse, len(results))
	for i, res := range results {
		responses[i] = toResponse(res)
	}
	writeJSON(w, http.StatusOK, responses)
}
