package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/point"
)

func (s *Server) getPoints(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	if _, err := s.db.GetMatch(matchID); errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}

	rows, err := s.db.FetchPoints(r.Context(), matchID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch points")
		return
	}
	if rows == nil {
		rows = []point.Record{}
	}
	s.writeJSON(w, http.StatusOK, rows)
}

// deletePoint removes a single row by its click-time key, for fixing a
// mistagged point without pushing a whole log through the sync path.
func (s *Server) deletePoint(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	if _, err := s.db.GetMatch(matchID); errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}

	key, err := strconv.ParseInt(r.PathValue("ts"), 10, 64)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid point timestamp")
		return
	}

	if err := s.db.DeletePoint(r.Context(), matchID, key); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to delete point")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// syncRequest carries a client's local point log plus the keys of rows the
// client deleted since its last sync.
type syncRequest struct {
	Points  []point.Record `json:"points"`
	Deleted []int64        `json:"deleted,omitempty"`
}

// syncPoints merges the client's log with the stored log and persists the
// result. The response is the merged log, which the client adopts as its
// new local state.
func (s *Server) syncPoints(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	if _, err := s.db.GetMatch(matchID); errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid sync JSON")
		return
	}

	merged, err := s.syncer.Sync(r.Context(), matchID, req.Points, req.Deleted...)
	if err != nil && merged == nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to sync points")
		return
	}
	if err != nil {
		// Merged but not persisted: hand the client the merged log anyway
		// so no tagging work is lost, and flag the save failure.
		w.Header().Set("X-Sync-Persisted", "false")
	}
	if merged == nil {
		merged = []point.Record{}
	}
	s.writeJSON(w, http.StatusOK, merged)
}
