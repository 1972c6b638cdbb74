package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/sportradar"
)

// handleMatchup serves the trimmed prediction payload: probability, fair
// odds, surface context, and the feature transparency block.
func (s *Server) handleMatchup(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMatchupRequest(w, r)
	if !ok {
		return
	}

	resp := s.matchups.Predict(r.Context(), req)
	resp.Components = nil
	writeJSON(w, http.StatusOK, resp)
}

// handleMatchupFeatures serves the full diagnostic payload including the
// intermediate score components.
func (s *Server) handleMatchupFeatures(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMatchupRequest(w, r)
	if !ok {
		return
	}

	resp := s.matchups.Predict(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

type defendedPointsRequest struct {
	PlayerExternalID string `json:"player_ext_id"`
}

// handleDefendedPoints reports the points a player defends at the current
// tournament's previous edition.
func (s *Server) handleDefendedPoints(w http.ResponseWriter, r *http.Request) {
	if s.points == nil {
		writeError(w, http.StatusServiceUnavailable, "live provider is not configured")
		return
	}

	var req defendedPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerExternalID == "" {
		writeError(w, http.StatusBadRequest, "player_ext_id is required")
		return
	}

	points, err := s.points.GetDefendedPoints(r.Context(), req.PlayerExternalID)
	if err != nil {
		switch {
		case errors.Is(err, sportradar.ErrNoData):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, sportradar.ErrMissingCompetitorID):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.WithError(err).Error("Defended points lookup failed")
			writeError(w, http.StatusBadGateway, "provider lookup failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) decodeMatchupRequest(w http.ResponseWriter, r *http.Request) (*models.MatchupRequest, bool) {
	var req models.MatchupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return &req, true
}

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{OK: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
