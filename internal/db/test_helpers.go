package db

import (
	"path/filepath"
	"testing"

	"github.com/courtside-data/pointlog/internal/point"
)

// setupTestDB opens a throwaway sqlite database under t.TempDir() and runs
// the embedded migrations against it.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationsFS, err := MigrationsFS()
	if err != nil {
		t.Fatalf("failed to load embedded migrations: %v", err)
	}
	if err := db.MigrateUp(migrationsFS); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	return db
}

// createTestMatch inserts a minimal match header and returns it.
func createTestMatch(t *testing.T, db *DB, player1, player2 string) *point.Match {
	t.Helper()

	m := &point.Match{
		Team1:       "Home",
		Team2:       "Away",
		Player1Name: player1,
		Player2Name: player2,
		Date:        "2026-04-18",
		Event:       "Test Event",
	}
	if err := db.CreateMatch(m); err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	return m
}
