package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/point"
	"github.com/courtside-data/pointlog/internal/tagger"
)

type openSessionRequest struct {
	ServerName string    `json:"server_name"`
	ServerEnd  court.End `json:"server_end"`
}

type sessionStateResponse struct {
	MatchID string           `json:"match_id"`
	State   string           `json:"state"`
	Menu    []string         `json:"menu"`
	Score   point.ScoreState `json:"score"`
	Rows    []point.Record   `json:"rows"`
}

func (s *Server) sessionResponse(session *tagger.Session) sessionStateResponse {
	state := session.State()
	rows := session.Rows()
	if rows == nil {
		rows = []point.Record{}
	}
	return sessionStateResponse{
		MatchID: session.MatchID,
		State:   state.String(),
		Menu:    state.Menu(),
		Score:   session.Score(),
		Rows:    rows,
	}
}

// openTagSession starts (or resumes) a hosted tagging session for a match.
func (s *Server) openTagSession(w http.ResponseWriter, r *http.Request) {
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

	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid session JSON")
		return
	}
	if req.ServerName != m.Player1Name && req.ServerName != m.Player2Name {
		s.writeJSONError(w, http.StatusBadRequest, "server_name must be one of the match players")
		return
	}
	if req.ServerEnd != court.EndNear && req.ServerEnd != court.EndFar {
		s.writeJSONError(w, http.StatusBadRequest, "server_end must be Near or Far")
		return
	}

	session := s.sessions.Open(*m, req.ServerName, req.ServerEnd)
	s.writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

func (s *Server) tagSessionState(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Get(r.PathValue("id"))
	if session == nil {
		s.writeJSONError(w, http.StatusNotFound, "No open tagging session for match")
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

func (s *Server) tagSessionAction(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Get(r.PathValue("id"))
	if session == nil {
		s.writeJSONError(w, http.StatusNotFound, "No open tagging session for match")
		return
	}

	var action tagger.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid action JSON")
		return
	}
	if action.Pixel {
		if s.diagram.Width <= 0 || s.diagram.Height <= 0 {
			s.writeJSONError(w, http.StatusBadRequest, "No diagram calibration configured for pixel coordinates")
			return
		}
		action.X, action.Y = s.diagram.ToCourt(action.X, action.Y)
		action.Pixel = false
	}

	session.Apply(action)
	s.writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

func (s *Server) tagSessionScore(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Get(r.PathValue("id"))
	if session == nil {
		s.writeJSONError(w, http.StatusNotFound, "No open tagging session for match")
		return
	}

	var score point.ScoreState
	if err := json.NewDecoder(r.Body).Decode(&score); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid score JSON")
		return
	}

	session.UpdateScore(score)
	s.writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

// closeTagSession merges the session's rows into the stored log, then
// discards the session. When the merged log could not be persisted the
// session stays open and the response carries X-Sync-Persisted: false, so
// no tagged rows are dropped. Closing an unknown session is a no-op success
// so clients can close unconditionally.
func (s *Server) closeTagSession(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	session := s.sessions.Get(matchID)
	if session == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	merged, err := s.syncer.Sync(r.Context(), matchID, session.Rows())
	if err != nil && merged == nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to save session points")
		return
	}
	if err != nil {
		// Merged but not persisted: keep the session alive so its rows can
		// be re-synced, and flag the failure to the client.
		w.Header().Set("X-Sync-Persisted", "false")
		s.writeJSON(w, http.StatusOK, merged)
		return
	}

	s.sessions.Close(matchID)
	if merged == nil {
		merged = []point.Record{}
	}
	s.writeJSON(w, http.StatusOK, merged)
}
