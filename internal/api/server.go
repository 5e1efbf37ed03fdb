// Package api exposes the match, point log, tagging and statistics
// operations over HTTP JSON.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/merge"
	"github.com/courtside-data/pointlog/internal/stats"
	"github.com/courtside-data/pointlog/internal/tagger"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// SeasonCache is the season rollup cache as the API uses it: reads for the
// season endpoints, invalidation when a publish or adjustment makes the
// cached rollup stale. A nil cache sends every season read to sqlite.
type SeasonCache interface {
	GetSeasons(ctx context.Context, playerName string) ([]stats.PlayerSeason, error)
	ListPlayers(ctx context.Context) ([]string, error)
	Invalidate(ctx context.Context, playerName string) error
}

type Server struct {
	db       *db.DB
	cache    SeasonCache
	diagram  court.Diagram
	sessions *tagger.Registry
	syncer   *merge.Syncer
}

// NewServer wires the HTTP surface. The diagram calibrates pixel clicks from
// hosted tagging clients; a zero-size diagram disables pixel input.
func NewServer(database *db.DB, cache SeasonCache, diagram court.Diagram) *Server {
	return &Server{
		db:       database,
		cache:    cache,
		diagram:  diagram,
		sessions: tagger.NewRegistry(),
		syncer:   &merge.Syncer{Store: database},
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/matches", s.listMatches)
	mux.HandleFunc("POST /api/matches", s.createMatch)
	mux.HandleFunc("GET /api/matches/{id}", s.getMatch)
	mux.HandleFunc("PUT /api/matches/{id}", s.updateMatch)
	mux.HandleFunc("DELETE /api/matches/{id}", s.deleteMatch)
	mux.HandleFunc("POST /api/matches/{id}/publish", s.publishMatch)
	mux.HandleFunc("GET /api/matches/{id}/points", s.getPoints)
	mux.HandleFunc("POST /api/matches/{id}/points", s.syncPoints)
	mux.HandleFunc("DELETE /api/matches/{id}/points/{ts}", s.deletePoint)
	mux.HandleFunc("GET /api/matches/{id}/stats", s.matchStats)
	mux.HandleFunc("GET /api/matches/{id}/export/points.csv", s.exportPointsCSV)
	mux.HandleFunc("GET /api/matches/{id}/export/summary.csv", s.exportSummaryCSV)
	mux.HandleFunc("GET /api/matches/{id}/report", s.matchReport)
	mux.HandleFunc("GET /api/seasons", s.seasonStats)
	mux.HandleFunc("POST /api/adjustments", s.upsertAdjustment)
	mux.HandleFunc("POST /api/tag/{id}/open", s.openTagSession)
	mux.HandleFunc("GET /api/tag/{id}", s.tagSessionState)
	mux.HandleFunc("POST /api/tag/{id}/action", s.tagSessionAction)
	mux.HandleFunc("POST /api/tag/{id}/score", s.tagSessionScore)
	mux.HandleFunc("POST /api/tag/{id}/close", s.closeTagSession)
	return mux
}

// invalidateSeasons drops cached rollup entries for the named players after
// a publish or adjustment. Failures are logged only; the next rollup run
// rewrites the cache.
func (s *Server) invalidateSeasons(ctx context.Context, players ...string) {
	if s.cache == nil {
		return
	}
	for _, name := range players {
		if name == "" {
			continue
		}
		if err := s.cache.Invalidate(ctx, name); err != nil {
			log.Printf("failed to invalidate season cache for %s: %v", name, err)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
