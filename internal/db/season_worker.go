package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/courtside-data/pointlog/internal/stats"
)

// SeasonCache receives the freshly computed rollup so reads can be served
// without touching sqlite. A nil cache is fine; the worker then only writes
// the table.
type SeasonCache interface {
	StoreSeasons(ctx context.Context, seasons []stats.PlayerSeason) error
}

// SeasonRollupWorker periodically recomputes per-player season statistics
// from every published match and upserts them into player_season_stats.
// Designed to run hourly; each run is a full recompute, so a republished or
// corrected match is picked up without bookkeeping.
type SeasonRollupWorker struct {
	DB       *DB
	Cache    SeasonCache
	Interval time.Duration // how often to run (e.g., 1h)
	StopChan chan struct{}
}

func NewSeasonRollupWorker(db *DB, cache SeasonCache) *SeasonRollupWorker {
	return &SeasonRollupWorker{
		DB:       db,
		Cache:    cache,
		Interval: time.Hour,
		StopChan: make(chan struct{}),
	}
}

// Start runs the periodic worker loop in a goroutine.
func (w *SeasonRollupWorker) Start() {
	go func() {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := w.RunOnce(context.Background()); err != nil {
					log.Printf("season rollup run error: %v", err)
				}
			case <-w.StopChan:
				return
			}
		}
	}()
}

// Stop requests the worker to stop.
func (w *SeasonRollupWorker) Stop() {
	close(w.StopChan)
}

// RunOnce recomputes the rollup and upserts every (player, season) row.
func (w *SeasonRollupWorker) RunOnce(ctx context.Context) error {
	matches, err := w.DB.FetchPublishedMatchPoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to load published matches: %w", err)
	}

	adjustments, err := w.DB.ListSeasonAdjustments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load season adjustments: %w", err)
	}

	seasons := stats.AggregatePlayerStats(matches, adjustments)

	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO player_season_stats (player_name, season, matches, matches_won, stats_json, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (player_name, season) DO UPDATE SET
			matches = excluded.matches,
			matches_won = excluded.matches_won,
			stats_json = excluded.stats_json,
			updated_at = CURRENT_TIMESTAMP
	`

	for i := range seasons {
		s := &seasons[i]
		blob, err := json.Marshal(s.Line)
		if err != nil {
			return fmt.Errorf("failed to marshal season line: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsert,
			s.PlayerName, s.Year, s.Matches, s.MatchesWon, string(blob),
		); err != nil {
			return fmt.Errorf("failed to upsert season row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit season rollup: %w", err)
	}

	if w.Cache != nil {
		if err := w.Cache.StoreSeasons(ctx, seasons); err != nil {
			// Cache is best-effort; sqlite already holds the rollup.
			log.Printf("season rollup cache store failed: %v", err)
		}
	}

	log.Printf("Season rollup: upserted %d player-season rows from %d published matches",
		len(seasons), len(matches))
	return nil
}

// ListSeasonAdjustments loads the post-hoc corrections folded into the
// rollup after tagged-match sums.
func (db *DB) ListSeasonAdjustments(ctx context.Context) ([]stats.ManualAdjustment, error) {
	rows, err := db.DB.QueryContext(ctx, `
		SELECT player_name, season, matches, matches_won,
		       points_played, points_won, aces, double_faults
		FROM season_adjustments ORDER BY player_name, season
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list season adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []stats.ManualAdjustment
	for rows.Next() {
		var a stats.ManualAdjustment
		if err := rows.Scan(
			&a.PlayerName, &a.Year, &a.Matches, &a.MatchesWon,
			&a.PointsPlayed, &a.PointsWon, &a.Aces, &a.DoubleFaults,
		); err != nil {
			return nil, fmt.Errorf("failed to scan season adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}

	return adjustments, rows.Err()
}

// UpsertSeasonAdjustment stores or replaces one correction row.
func (db *DB) UpsertSeasonAdjustment(ctx context.Context, a stats.ManualAdjustment, note string) error {
	_, err := db.DB.ExecContext(ctx, `
		INSERT INTO season_adjustments (player_name, season, matches, matches_won,
			points_played, points_won, aces, double_faults, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_name, season) DO UPDATE SET
			matches = excluded.matches,
			matches_won = excluded.matches_won,
			points_played = excluded.points_played,
			points_won = excluded.points_won,
			aces = excluded.aces,
			double_faults = excluded.double_faults,
			note = excluded.note
	`, a.PlayerName, a.Year, a.Matches, a.MatchesWon,
		a.PointsPlayed, a.PointsWon, a.Aces, a.DoubleFaults, note)
	if err != nil {
		return fmt.Errorf("failed to upsert season adjustment: %w", err)
	}
	return nil
}

// GetSeasonStats reads the stored rollup rows, optionally filtered by player.
func (db *DB) GetSeasonStats(ctx context.Context, playerName string) ([]stats.PlayerSeason, error) {
	query := `SELECT player_name, season, matches, matches_won, stats_json
		FROM player_season_stats`
	args := []any{}
	if playerName != "" {
		query += ` WHERE player_name = ?`
		args = append(args, playerName)
	}
	query += ` ORDER BY player_name, season`

	rows, err := db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get season stats: %w", err)
	}
	defer rows.Close()

	var seasons []stats.PlayerSeason
	for rows.Next() {
		var s stats.PlayerSeason
		var blob string
		if err := rows.Scan(&s.PlayerName, &s.Year, &s.Matches, &s.MatchesWon, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan season stats: %w", err)
		}
		if err := json.Unmarshal([]byte(blob), &s.Line); err != nil {
			return nil, fmt.Errorf("failed to decode season stats for %s/%s: %w", s.PlayerName, s.Year, err)
		}
		seasons = append(seasons, s)
	}

	return seasons, rows.Err()
}
