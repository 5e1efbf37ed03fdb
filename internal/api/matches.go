package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/point"
)

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.db.ListMatches()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to list matches")
		return
	}
	if matches == nil {
		matches = []point.Match{}
	}
	s.writeJSON(w, http.StatusOK, matches)
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	var m point.Match
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid match JSON")
		return
	}
	if m.Player1Name == "" || m.Player2Name == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Both player names are required")
		return
	}

	if err := s.db.CreateMatch(&m); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to create match")
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.db.GetMatch(r.PathValue("id"))
	if errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to get match")
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) updateMatch(w http.ResponseWriter, r *http.Request) {
	var m point.Match
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid match JSON")
		return
	}
	m.ID = r.PathValue("id")

	err := s.db.UpdateMatch(&m)
	if errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to update match")
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMatch(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteMatch(r.PathValue("id"))
	if errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to delete match")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) publishMatch(w http.ResponseWriter, r *http.Request) {
	published := true
	if p := r.URL.Query().Get("published"); p != "" {
		parsed, err := strconv.ParseBool(p)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'published' parameter")
			return
		}
		published = parsed
	}

	m, err := s.db.GetMatch(r.PathValue("id"))
	if errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to get match")
		return
	}

	if err := s.db.SetMatchPublished(m.ID, published); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to publish match")
		return
	}

	// The cached rollup no longer reflects this match's players.
	s.invalidateSeasons(r.Context(), m.Player1Name, m.Player2Name)
	s.writeJSON(w, http.StatusOK, map[string]bool{"published": published})
}
