package db

import (
	"context"
	"testing"

	"github.com/courtside-data/pointlog/internal/stats"
)

type recordingCache struct {
	stored [][]stats.PlayerSeason
}

func (c *recordingCache) StoreSeasons(_ context.Context, seasons []stats.PlayerSeason) error {
	c.stored = append(c.stored, seasons)
	return nil
}

func TestSeasonRollupWorkerRunOnce(t *testing.T) {
	db := setupTestDB(t)
	ctx := t.Context()

	m := createTestMatch(t, db, "Ana Petrov", "Kim Lowe")
	if err := db.SavePoints(ctx, m.ID, testPointLog(m.Player1Name, m.Player2Name)); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}
	if err := db.SetMatchPublished(m.ID, true); err != nil {
		t.Fatalf("SetMatchPublished failed: %v", err)
	}

	cache := &recordingCache{}
	worker := NewSeasonRollupWorker(db, cache)
	if err := worker.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	seasons, err := db.GetSeasonStats(ctx, "")
	if err != nil {
		t.Fatalf("GetSeasonStats failed: %v", err)
	}
	if len(seasons) != 2 {
		t.Fatalf("got %d season rows, want 2 (one per player)", len(seasons))
	}
	for _, s := range seasons {
		if s.Year != "2026" {
			t.Errorf("season = %q, want 2026", s.Year)
		}
		if s.Matches != 1 {
			t.Errorf("%s matches = %d, want 1", s.PlayerName, s.Matches)
		}
	}

	if len(cache.stored) != 1 {
		t.Errorf("cache received %d stores, want 1", len(cache.stored))
	}
}

func TestSeasonRollupSkipsUnpublished(t *testing.T) {
	db := setupTestDB(t)
	ctx := t.Context()

	m := createTestMatch(t, db, "Ana Petrov", "Kim Lowe")
	if err := db.SavePoints(ctx, m.ID, testPointLog(m.Player1Name, m.Player2Name)); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}

	worker := NewSeasonRollupWorker(db, nil)
	if err := worker.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	seasons, err := db.GetSeasonStats(ctx, "")
	if err != nil {
		t.Fatalf("GetSeasonStats failed: %v", err)
	}
	if len(seasons) != 0 {
		t.Errorf("unpublished match produced %d season rows, want 0", len(seasons))
	}
}

func TestSeasonRollupFoldsAdjustments(t *testing.T) {
	db := setupTestDB(t)
	ctx := t.Context()

	adj := stats.ManualAdjustment{
		PlayerName:   "Ana Petrov",
		Year:         "2025",
		Matches:      3,
		MatchesWon:   2,
		PointsPlayed: 180,
		PointsWon:    95,
		Aces:         7,
	}
	if err := db.UpsertSeasonAdjustment(ctx, adj, "fall scorecards"); err != nil {
		t.Fatalf("UpsertSeasonAdjustment failed: %v", err)
	}

	worker := NewSeasonRollupWorker(db, nil)
	if err := worker.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	seasons, err := db.GetSeasonStats(ctx, "Ana Petrov")
	if err != nil {
		t.Fatalf("GetSeasonStats failed: %v", err)
	}
	if len(seasons) != 1 {
		t.Fatalf("got %d season rows, want 1", len(seasons))
	}
	s := seasons[0]
	if s.Year != "2025" || s.Matches != 3 || s.MatchesWon != 2 {
		t.Errorf("adjustment-only season = %+v", s)
	}
	if s.Line.PointsPlayed != 180 || s.Line.Aces != 7 {
		t.Errorf("adjustment counts not folded: %+v", s.Line)
	}
}

func TestSeasonRollupStartStop(t *testing.T) {
	db := setupTestDB(t)

	worker := NewSeasonRollupWorker(db, nil)
	worker.Start()
	worker.Stop()
}

func TestGetSeasonStatsFiltersByPlayer(t *testing.T) {
	db := setupTestDB(t)
	ctx := t.Context()

	m := createTestMatch(t, db, "Ana Petrov", "Kim Lowe")
	if err := db.SavePoints(ctx, m.ID, testPointLog(m.Player1Name, m.Player2Name)); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}
	if err := db.SetMatchPublished(m.ID, true); err != nil {
		t.Fatalf("SetMatchPublished failed: %v", err)
	}

	worker := NewSeasonRollupWorker(db, nil)
	if err := worker.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	seasons, err := db.GetSeasonStats(ctx, "Kim Lowe")
	if err != nil {
		t.Fatalf("GetSeasonStats failed: %v", err)
	}
	if len(seasons) != 1 || seasons[0].PlayerName != "Kim Lowe" {
		t.Errorf("filtered seasons = %+v", seasons)
	}
}
