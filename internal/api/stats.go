package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/export"
	"github.com/courtside-data/pointlog/internal/stats"
)

func (s *Server) loadSummary(r *http.Request) (*stats.MatchSummary, error) {
	matchID := r.PathValue("id")
	m, err := s.db.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.FetchPoints(r.Context(), matchID)
	if err != nil {
		return nil, err
	}
	summary := stats.DeriveMatchStats(rows, m.Player1Name, m.Player2Name)
	summary.MatchID = matchID
	return &summary, nil
}

func (s *Server) matchStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.loadSummary(r)
	if errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to derive match stats")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// seasonStats serves the season rollup, preferring the cache and falling
// back to sqlite on a miss or any cache failure.
func (s *Server) seasonStats(w http.ResponseWriter, r *http.Request) {
	playerName := r.URL.Query().Get("player")

	if s.cache != nil {
		if playerName != "" {
			seasons, err := s.cache.GetSeasons(r.Context(), playerName)
			if err == nil {
				s.writeJSON(w, http.StatusOK, seasons)
				return
			}
		} else if seasons, ok := s.cachedSeasonsForAll(r.Context()); ok {
			s.writeJSON(w, http.StatusOK, seasons)
			return
		}
		// Any cache failure falls through to sqlite.
	}

	seasons, err := s.db.GetSeasonStats(r.Context(), playerName)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to get season stats")
		return
	}
	if seasons == nil {
		seasons = []stats.PlayerSeason{}
	}
	s.writeJSON(w, http.StatusOK, seasons)
}

// cachedSeasonsForAll assembles the unfiltered season listing from the
// cache's player index. ok is false when the index is empty or any per
// player read fails, so a cold or partially evicted cache defers to sqlite.
func (s *Server) cachedSeasonsForAll(ctx context.Context) ([]stats.PlayerSeason, bool) {
	names, err := s.cache.ListPlayers(ctx)
	if err != nil || len(names) == 0 {
		return nil, false
	}

	all := make([]stats.PlayerSeason, 0, len(names))
	for _, name := range names {
		seasons, err := s.cache.GetSeasons(ctx, name)
		if err != nil {
			return nil, false
		}
		all = append(all, seasons...)
	}
	return all, true
}

type adjustmentRequest struct {
	stats.ManualAdjustment
	Note string `json:"note,omitempty"`
}

func (s *Server) upsertAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid adjustment JSON")
		return
	}
	if req.PlayerName == "" || req.Year == "" {
		s.writeJSONError(w, http.StatusBadRequest, "player_name and year are required")
		return
	}

	if err := s.db.UpsertSeasonAdjustment(r.Context(), req.ManualAdjustment, req.Note); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to store adjustment")
		return
	}

	s.invalidateSeasons(r.Context(), req.PlayerName)
	s.writeJSON(w, http.StatusOK, req.ManualAdjustment)
}

func (s *Server) exportPointsCSV(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	m, err := s.db.GetMatch(matchID)
	if errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to get match")
		return
	}
	rows, err := s.db.FetchPoints(r.Context(), matchID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch points")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=points-%s.csv", matchID))
	// Headers are already sent; a mid-stream failure can only truncate.
	if err := export.WritePointsCSV(w, m, rows); err != nil {
		return
	}
}

func (s *Server) exportSummaryCSV(w http.ResponseWriter, r *http.Request) {
	summary, err := s.loadSummary(r)
	if errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to derive match stats")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=summary-%s.csv", summary.MatchID))
	if err := export.WriteSummaryCSV(w, summary); err != nil {
		return
	}
}
