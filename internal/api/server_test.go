package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/merge"
	"github.com/courtside-data/pointlog/internal/point"
	"github.com/courtside-data/pointlog/internal/stats"
	"github.com/courtside-data/pointlog/internal/tagger"
)

func newTestServer(t *testing.T, cache SeasonCache) (*Server, *db.DB) {
	t.Helper()

	database, err := db.OpenDB(filepath.Join(t.TempDir(), "api-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	migrationsFS, err := db.MigrationsFS()
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(migrationsFS))

	// Full-size court rendered 1:1, so a pixel click at (216, 468) is the
	// middle of the net.
	diagram := court.Diagram{Width: 432, Height: 936}
	return NewServer(database, cache, diagram), database
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func createMatchViaAPI(t *testing.T, mux *http.ServeMux) point.Match {
	t.Helper()
	w := doJSON(t, mux, http.MethodPost, "/api/matches", point.Match{
		Player1Name: "Ana Petrov",
		Player2Name: "Kim Lowe",
		Date:        "2026-04-18",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[point.Match](t, w)
}

func TestMatchCRUD(t *testing.T) {
	server, _ := newTestServer(t, nil)
	mux := server.ServeMux()

	m := createMatchViaAPI(t, mux)
	require.NotEmpty(t, m.ID)

	w := doJSON(t, mux, http.MethodGet, "/api/matches/"+m.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[point.Match](t, w)
	assert.Equal(t, "Ana Petrov", got.Player1Name)

	m.Venue = "Center Court"
	w = doJSON(t, mux, http.MethodPut, "/api/matches/"+m.ID, m)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/api/matches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]point.Match](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Center Court", list[0].Venue)

	w = doJSON(t, mux, http.MethodDelete, "/api/matches/"+m.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/api/matches/"+m.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateMatchValidation(t *testing.T) {
	server, _ := newTestServer(t, nil)
	mux := server.ServeMux()

	w := doJSON(t, mux, http.MethodPost, "/api/matches", point.Match{Player1Name: "Solo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublishMatch(t *testing.T) {
	server, _ := newTestServer(t, nil)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	w := doJSON(t, mux, http.MethodPost, "/api/matches/"+m.ID+"/publish", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/api/matches/"+m.ID, nil)
	assert.True(t, decode[point.Match](t, w).Published)

	w = doJSON(t, mux, http.MethodPost, "/api/matches/"+m.ID+"/publish?published=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, mux, http.MethodGet, "/api/matches/"+m.ID, nil)
	assert.False(t, decode[point.Match](t, w).Published)

	w = doJSON(t, mux, http.MethodPost, "/api/matches/"+m.ID+"/publish?published=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncPointsMergesWithStoredLog(t *testing.T) {
	server, database := newTestServer(t, nil)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	stored := []point.Record{
		{PointStartMs: 1000, PointScore: "0-0", ShotInRally: 1},
		{PointStartMs: 2000, PointScore: "15-0", ShotInRally: 1},
	}
	require.NoError(t, database.SavePoints(context.Background(), m.ID, stored))

	// Client tagged a new row, deleted the first, and carries a stale copy
	// of the second with an edit the server must not accept.
	local := []point.Record{
		{PointStartMs: 2000, PointScore: "15-0", ShotInRally: 1, IsAce: true},
		{PointStartMs: 3000, PointScore: "30-0", ShotInRally: 1},
	}
	w := doJSON(t, mux, http.MethodPost, "/api/matches/"+m.ID+"/points", syncRequest{
		Points:  local,
		Deleted: []int64{1000},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	merged := decode[[]point.Record](t, w)
	require.Len(t, merged, 2)
	assert.EqualValues(t, 2000, merged[0].PointStartMs)
	assert.False(t, merged[0].IsAce, "stored copy wins key conflicts")
	assert.EqualValues(t, 3000, merged[1].PointStartMs)

	persisted, err := database.FetchPoints(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
}

func TestDeleteSinglePoint(t *testing.T) {
	server, database := newTestServer(t, nil)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	stored := []point.Record{
		{PointStartMs: 1000, PointScore: "0-0", ShotInRally: 1},
		{PointStartMs: 2000, PointScore: "15-0", ShotInRally: 1},
	}
	require.NoError(t, database.SavePoints(context.Background(), m.ID, stored))

	w := doJSON(t, mux, http.MethodDelete, "/api/matches/"+m.ID+"/points/1000", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	remaining, err := database.FetchPoints(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.EqualValues(t, 2000, remaining[0].PointStartMs)

	w = doJSON(t, mux, http.MethodDelete, "/api/matches/"+m.ID+"/points/oops", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncPointsUnknownMatch(t *testing.T) {
	server, _ := newTestServer(t, nil)
	mux := server.ServeMux()

	w := doJSON(t, mux, http.MethodPost, "/api/matches/nope/points", syncRequest{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMatchStatsEndpoint(t *testing.T) {
	server, database := newTestServer(t, nil)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	rows := []point.Record{
		{
			PointStartMs: 1000, PointScore: "0-0", GameNumber: 1, SetNumber: 1,
			IsPointStart: true, IsPointEnd: true, ShotInRally: 1,
			ServerName: "Ana Petrov", FirstServeIn: point.BoolPtr(true),
			IsAce: true, IsWinner: true, PointWonBy: "Ana Petrov", RallyCount: 1,
		},
	}
	require.NoError(t, database.SavePoints(context.Background(), m.ID, rows))

	w := doJSON(t, mux, http.MethodGet, "/api/matches/"+m.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	summary := decode[stats.MatchSummary](t, w)
	assert.Equal(t, m.ID, summary.MatchID)
	assert.Equal(t, 1, summary.Player1.Aces)
	assert.Equal(t, 1, summary.Player1.PointsWon)
}

type fakeSeasonCache struct {
	seasons     map[string][]stats.PlayerSeason
	calls       int
	invalidated []string
}

func (c *fakeSeasonCache) GetSeasons(_ context.Context, playerName string) ([]stats.PlayerSeason, error) {
	c.calls++
	if s, ok := c.seasons[playerName]; ok {
		return s, nil
	}
	return nil, errors.New("cache miss")
}

func (c *fakeSeasonCache) ListPlayers(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(c.seasons))
	for name := range c.seasons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *fakeSeasonCache) Invalidate(_ context.Context, playerName string) error {
	c.invalidated = append(c.invalidated, playerName)
	delete(c.seasons, playerName)
	return nil
}

func TestSeasonStatsPrefersCache(t *testing.T) {
	cached := []stats.PlayerSeason{{PlayerName: "Ana Petrov", Year: "2026", Matches: 4}}
	cache := &fakeSeasonCache{seasons: map[string][]stats.PlayerSeason{"Ana Petrov": cached}}
	server, _ := newTestServer(t, cache)
	mux := server.ServeMux()

	w := doJSON(t, mux, http.MethodGet, "/api/seasons?player=Ana+Petrov", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]stats.PlayerSeason](t, w)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Matches)
	assert.Equal(t, 1, cache.calls)
}

func TestSeasonStatsFallsBackToDB(t *testing.T) {
	cache := &fakeSeasonCache{}
	server, _ := newTestServer(t, cache)
	mux := server.ServeMux()

	w := doJSON(t, mux, http.MethodGet, "/api/seasons?player=Nobody", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]stats.PlayerSeason](t, w))
	assert.Equal(t, 1, cache.calls, "cache should be consulted before sqlite")
}

func TestSeasonStatsAllPlayersFromCache(t *testing.T) {
	cache := &fakeSeasonCache{seasons: map[string][]stats.PlayerSeason{
		"Ana Petrov": {{PlayerName: "Ana Petrov", Year: "2026", Matches: 4}},
		"Kim Lowe":   {{PlayerName: "Kim Lowe", Year: "2026", Matches: 3}},
	}}
	server, _ := newTestServer(t, cache)
	mux := server.ServeMux()

	w := doJSON(t, mux, http.MethodGet, "/api/seasons", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]stats.PlayerSeason](t, w)
	require.Len(t, got, 2)
	assert.Equal(t, "Ana Petrov", got[0].PlayerName)
	assert.Equal(t, "Kim Lowe", got[1].PlayerName)
}

func TestPublishInvalidatesSeasonCache(t *testing.T) {
	cache := &fakeSeasonCache{seasons: map[string][]stats.PlayerSeason{}}
	server, _ := newTestServer(t, cache)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	w := doJSON(t, mux, http.MethodPost, "/api/matches/"+m.ID+"/publish", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.ElementsMatch(t, []string{"Ana Petrov", "Kim Lowe"}, cache.invalidated)
}

func TestAdjustmentInvalidatesSeasonCache(t *testing.T) {
	cache := &fakeSeasonCache{seasons: map[string][]stats.PlayerSeason{}}
	server, _ := newTestServer(t, cache)
	mux := server.ServeMux()

	w := doJSON(t, mux, http.MethodPost, "/api/adjustments", adjustmentRequest{
		ManualAdjustment: stats.ManualAdjustment{PlayerName: "Ana Petrov", Year: "2025", Matches: 1},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"Ana Petrov"}, cache.invalidated)
}

func TestUpsertAdjustment(t *testing.T) {
	server, database := newTestServer(t, nil)
	mux := server.ServeMux()

	w := doJSON(t, mux, http.MethodPost, "/api/adjustments", adjustmentRequest{
		ManualAdjustment: stats.ManualAdjustment{
			PlayerName: "Ana Petrov",
			Year:       "2025",
			Matches:    2,
		},
		Note: "fall scorecards",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	adjustments, err := database.ListSeasonAdjustments(context.Background())
	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	assert.Equal(t, 2, adjustments[0].Matches)

	w = doJSON(t, mux, http.MethodPost, "/api/adjustments", adjustmentRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTagSessionLifecycle(t *testing.T) {
	server, database := newTestServer(t, nil)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	w := doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/open", openSessionRequest{
		ServerName: "Ana Petrov",
		ServerEnd:  court.EndNear,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decode[sessionStateResponse](t, w)
	assert.Equal(t, "PointScore", state.State)
	assert.Contains(t, state.Menu, "0-0")

	// Tag one ace: score, server and returner positions, ace, serve click.
	actions := []tagger.Action{
		{Kind: tagger.ActionScore, Label: "0-0", TimeMs: 60_000},
		{Kind: tagger.ActionClick, X: -40, Y: -460, TimeMs: 61_000},
		{Kind: tagger.ActionClick, X: 60, Y: 460, TimeMs: 62_000},
		{Kind: tagger.ActionAce, TimeMs: 63_000},
		{Kind: tagger.ActionClick, X: -30, Y: 120, TimeMs: 64_000},
	}
	for _, a := range actions {
		w = doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/action", a)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	state = decode[sessionStateResponse](t, w)
	assert.Equal(t, "PointScore", state.State, "ace should complete the point")
	require.Len(t, state.Rows, 1)
	assert.True(t, state.Rows[0].IsAce)

	w = doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)

	persisted, err := database.FetchPoints(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.True(t, persisted[0].IsAce)

	// Session gone after close.
	w = doJSON(t, mux, http.MethodGet, "/api/tag/"+m.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenTagSessionValidation(t *testing.T) {
	server, _ := newTestServer(t, nil)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	w := doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/open", openSessionRequest{
		ServerName: "Stranger",
		ServerEnd:  court.EndNear,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/open", openSessionRequest{
		ServerName: "Ana Petrov",
		ServerEnd:  "Sideways",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTagActionPixelClickConverted(t *testing.T) {
	server, _ := newTestServer(t, nil)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	w := doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/open", openSessionRequest{
		ServerName: "Ana Petrov",
		ServerEnd:  court.EndNear,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/action",
		tagger.Action{Kind: tagger.ActionScore, Label: "0-0", TimeMs: 1000})

	// Server position click in diagram pixels: x=108px on the 432px-wide
	// 1:1 diagram is 108in left of centre.
	w = doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/action",
		tagger.Action{Kind: tagger.ActionClick, X: 108, Y: 900, Pixel: true, TimeMs: 2000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	state := decode[sessionStateResponse](t, w)
	require.Len(t, state.Rows, 1)
	assert.InDelta(t, -108, state.Rows[0].ServerStartX, 0.001)
}

func TestTagActionPixelClickWithoutCalibration(t *testing.T) {
	server, database := newTestServer(t, nil)
	uncalibrated := NewServer(database, nil, court.Diagram{})
	mux := uncalibrated.ServeMux()
	m := createMatchViaAPI(t, server.ServeMux())

	w := doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/open", openSessionRequest{
		ServerName: "Ana Petrov",
		ServerEnd:  court.EndNear,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, mux, http.MethodPost, "/api/tag/"+m.ID+"/action",
		tagger.Action{Kind: tagger.ActionClick, X: 108, Y: 900, Pixel: true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// saveFailStore serves fetches but refuses saves until cleared.
type saveFailStore struct {
	rows    []point.Record
	saveErr error
	saved   [][]point.Record
}

func (st *saveFailStore) FetchPoints(_ context.Context, _ string) ([]point.Record, error) {
	return st.rows, nil
}

func (st *saveFailStore) SavePoints(_ context.Context, _ string, rows []point.Record) error {
	if st.saveErr != nil {
		return st.saveErr
	}
	st.saved = append(st.saved, rows)
	return nil
}

func TestCloseTagSessionKeepsSessionWhenSaveFails(t *testing.T) {
	store := &saveFailStore{saveErr: errors.New("disk full")}
	server := &Server{
		sessions: tagger.NewRegistry(),
		syncer:   &merge.Syncer{Store: store},
	}
	mux := server.ServeMux()

	match := point.Match{ID: "m1", Player1Name: "Ana Petrov", Player2Name: "Kim Lowe"}
	session := server.sessions.Open(match, "Ana Petrov", court.EndNear)
	session.Apply(tagger.Action{Kind: tagger.ActionScore, Label: "0-0", TimeMs: 1000})

	w := doJSON(t, mux, http.MethodPost, "/api/tag/m1/close", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "false", w.Header().Get("X-Sync-Persisted"))
	require.NotNil(t, server.sessions.Get("m1"), "session must survive a failed save")
	require.Len(t, decode[[]point.Record](t, w), 1, "merged rows still returned")

	// Once the store recovers, closing again persists and drops the session.
	store.saveErr = nil
	w = doJSON(t, mux, http.MethodPost, "/api/tag/m1/close", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, w.Header().Get("X-Sync-Persisted"))
	assert.Nil(t, server.sessions.Get("m1"))
	require.Len(t, store.saved, 1)
}

func TestExportEndpoints(t *testing.T) {
	server, database := newTestServer(t, nil)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	rows := []point.Record{
		{PointStartMs: 1000, IsPointStart: true, IsPointEnd: true, ShotInRally: 1,
			ServerName: "Ana Petrov", PointWonBy: "Ana Petrov", RallyCount: 1},
	}
	require.NoError(t, database.SavePoints(context.Background(), m.ID, rows))

	w := doJSON(t, mux, http.MethodGet, "/api/matches/"+m.ID+"/export/points.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "point_start_ms")

	w = doJSON(t, mux, http.MethodGet, "/api/matches/"+m.ID+"/export/summary.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "points_won")
}

func TestMatchReportRendersHTML(t *testing.T) {
	server, database := newTestServer(t, nil)
	mux := server.ServeMux()
	m := createMatchViaAPI(t, mux)

	rows := []point.Record{
		{PointStartMs: 1000, IsPointStart: true, IsPointEnd: true, ShotInRally: 1,
			ServerName: "Ana Petrov", FirstServeIn: point.BoolPtr(true),
			FirstServeX: -30, FirstServeY: 120,
			PointWonBy: "Ana Petrov", RallyCount: 1},
	}
	require.NoError(t, database.SavePoints(context.Background(), m.ID, rows))

	w := doJSON(t, mux, http.MethodGet, fmt.Sprintf("/api/matches/%s/report", m.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "echarts")

	w = doJSON(t, mux, http.MethodGet, fmt.Sprintf("/api/matches/%s/report?units=ft", m.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodGet, fmt.Sprintf("/api/matches/%s/report?units=yd", m.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anything", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
