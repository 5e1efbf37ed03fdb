package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/courtside-data/pointlog/internal/point"
)

// ErrMatchNotFound is returned when a match ID does not exist.
var ErrMatchNotFound = errors.New("match not found")

// CreateMatch inserts a new match header. A missing ID is assigned a fresh
// UUID; the assigned ID is written back to the struct.
func (db *DB) CreateMatch(m *point.Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query := `
		INSERT INTO matches (
			id, team1, team2, player1_name, player2_name,
			player1_hand, player2_hand, match_date, division,
			event, round, surface, venue, video_url, published
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.DB.Exec(
		query,
		m.ID,
		m.Team1,
		m.Team2,
		m.Player1Name,
		m.Player2Name,
		m.Player1Hand,
		m.Player2Hand,
		m.Date,
		m.Division,
		m.Event,
		m.Round,
		m.Surface,
		m.Venue,
		m.VideoURL,
		boolToInt(m.Published),
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	return nil
}

// GetMatch retrieves a match header by ID.
func (db *DB) GetMatch(id string) (*point.Match, error) {
	query := `
		SELECT
			id, team1, team2, player1_name, player2_name,
			player1_hand, player2_hand, match_date, division,
			event, round, surface, venue, video_url, published
		FROM matches WHERE id = ?
	`

	var m point.Match
	var published int
	err := db.DB.QueryRow(query, id).Scan(
		&m.ID,
		&m.Team1,
		&m.Team2,
		&m.Player1Name,
		&m.Player2Name,
		&m.Player1Hand,
		&m.Player2Hand,
		&m.Date,
		&m.Division,
		&m.Event,
		&m.Round,
		&m.Surface,
		&m.Venue,
		&m.VideoURL,
		&published,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	m.Published = published != 0
	return &m, nil
}

// ListMatches returns all match headers, most recent match date first.
func (db *DB) ListMatches() ([]point.Match, error) {
	query := `
		SELECT
			id, team1, team2, player1_name, player2_name,
			player1_hand, player2_hand, match_date, division,
			event, round, surface, venue, video_url, published
		FROM matches ORDER BY match_date DESC, id
	`

	rows, err := db.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []point.Match
	for rows.Next() {
		var m point.Match
		var published int
		if err := rows.Scan(
			&m.ID,
			&m.Team1,
			&m.Team2,
			&m.Player1Name,
			&m.Player2Name,
			&m.Player1Hand,
			&m.Player2Hand,
			&m.Date,
			&m.Division,
			&m.Event,
			&m.Round,
			&m.Surface,
			&m.Venue,
			&m.VideoURL,
			&published,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.Published = published != 0
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// UpdateMatch rewrites every editable header field for the given match.
func (db *DB) UpdateMatch(m *point.Match) error {
	query := `
		UPDATE matches SET
			team1 = ?, team2 = ?, player1_name = ?, player2_name = ?,
			player1_hand = ?, player2_hand = ?, match_date = ?, division = ?,
			event = ?, round = ?, surface = ?, venue = ?, video_url = ?,
			published = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := db.DB.Exec(
		query,
		m.Team1,
		m.Team2,
		m.Player1Name,
		m.Player2Name,
		m.Player1Hand,
		m.Player2Hand,
		m.Date,
		m.Division,
		m.Event,
		m.Round,
		m.Surface,
		m.Venue,
		m.VideoURL,
		boolToInt(m.Published),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	return checkOneRow(result)
}

// SetMatchPublished flips the publication flag that gates aggregate stats.
func (db *DB) SetMatchPublished(id string, published bool) error {
	result, err := db.DB.Exec(
		`UPDATE matches SET published = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(published), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set match published: %w", err)
	}
	return checkOneRow(result)
}

// DeleteMatch removes a match and, via the schema's cascade, its points.
func (db *DB) DeleteMatch(id string) error {
	result, err := db.DB.Exec(`DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return checkOneRow(result)
}

func checkOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
