package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/point"
	"github.com/courtside-data/pointlog/internal/stats"
)

const pointColumns = `
	point_start_ms, point_end_ms, point_score, game_score, set_score,
	game_number, set_number, is_point_start, is_point_end, is_break_point,
	shot_in_rally, side, server_name, server_end, server_start_x,
	returner_start_x, first_serve_in, first_serve_zone, first_serve_x,
	first_serve_y, second_serve_in, second_serve_zone, second_serve_x,
	second_serve_y, is_ace, is_let, shot_contact_x, shot_contact_y,
	shot_hand, shot_direction, is_slice, is_volley, is_overhead,
	is_approach, is_dropshot, is_lob, at_net_player1, at_net_player2,
	is_winner, is_error_net, is_error_wide_l, is_error_wide_r,
	is_error_long, is_unforced_error, is_exciting_point, point_won_by,
	rally_count`

// FetchPoints returns the stored point log for a match, ordered by click
// time. A match with no points yields an empty slice, not an error.
func (db *DB) FetchPoints(ctx context.Context, matchID string) ([]point.Record, error) {
	query := `SELECT` + pointColumns + `
		FROM points WHERE match_id = ? ORDER BY point_start_ms`

	rows, err := db.DB.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch points: %w", err)
	}
	defer rows.Close()

	var records []point.Record
	for rows.Next() {
		r, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// SavePoints replaces the stored point log for a match with rows. The
// merge layer hands us the complete merged log, so replace-all inside one
// transaction keeps stored state equal to merged state.
func (db *DB) SavePoints(ctx context.Context, matchID string, records []point.Record) error {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("failed to clear points: %w", err)
	}

	insert := `INSERT INTO points (match_id,` + pointColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare point insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if _, err := stmt.ExecContext(ctx,
			matchID,
			r.PointStartMs,
			r.PointEndMs,
			r.PointScore,
			r.GameScore,
			r.SetScore,
			r.GameNumber,
			r.SetNumber,
			boolToInt(r.IsPointStart),
			boolToInt(r.IsPointEnd),
			boolToInt(r.IsBreakPoint),
			r.ShotInRally,
			string(r.Side),
			r.ServerName,
			string(r.ServerEnd),
			r.ServerStartX,
			r.ReturnerStartX,
			nullableBool(r.FirstServeIn),
			string(r.FirstServeZone),
			r.FirstServeX,
			r.FirstServeY,
			nullableBool(r.SecondServeIn),
			string(r.SecondServeZone),
			r.SecondServeX,
			r.SecondServeY,
			boolToInt(r.IsAce),
			boolToInt(r.IsLet),
			r.ShotContactX,
			r.ShotContactY,
			string(r.ShotHand),
			string(r.ShotDirection),
			boolToInt(r.IsSlice),
			boolToInt(r.IsVolley),
			boolToInt(r.IsOverhead),
			boolToInt(r.IsApproach),
			boolToInt(r.IsDropshot),
			boolToInt(r.IsLob),
			boolToInt(r.AtNetPlayer1),
			boolToInt(r.AtNetPlayer2),
			boolToInt(r.IsWinner),
			boolToInt(r.IsErrorNet),
			boolToInt(r.IsErrorWideL),
			boolToInt(r.IsErrorWideR),
			boolToInt(r.IsErrorLong),
			boolToInt(r.IsUnforcedError),
			boolToInt(r.IsExcitingPoint),
			r.PointWonBy,
			r.RallyCount,
		); err != nil {
			return fmt.Errorf("failed to insert point %d: %w", r.PointStartMs, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit points: %w", err)
	}
	return nil
}

// DeletePoint removes a single row by its click-time key.
func (db *DB) DeletePoint(ctx context.Context, matchID string, pointStartMs int64) error {
	_, err := db.DB.ExecContext(ctx,
		`DELETE FROM points WHERE match_id = ? AND point_start_ms = ?`,
		matchID, pointStartMs,
	)
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}
	return nil
}

// FetchPublishedMatchPoints loads match headers and point logs for every
// published match, the input the season rollup aggregates over.
func (db *DB) FetchPublishedMatchPoints(ctx context.Context) ([]stats.MatchPoints, error) {
	matches, err := db.ListMatches()
	if err != nil {
		return nil, err
	}

	var out []stats.MatchPoints
	for i := range matches {
		if !matches[i].Published {
			continue
		}
		records, err := db.FetchPoints(ctx, matches[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, stats.MatchPoints{Match: matches[i], Rows: records})
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoint(row rowScanner) (point.Record, error) {
	var r point.Record
	var (
		isPointStart, isPointEnd, isBreakPoint            int
		isAce, isLet                                      int
		isSlice, isVolley, isOverhead                     int
		isApproach, isDropshot, isLob                     int
		atNetPlayer1, atNetPlayer2                        int
		isWinner, isUnforcedError, isExcitingPoint        int
		isErrorNet, isErrorWideL, isErrorWideR            int
		isErrorLong                                       int
		side, serverEnd, firstZone, secondZone, hand, dir string
		firstIn, secondIn                                 sql.NullBool
	)

	err := row.Scan(
		&r.PointStartMs,
		&r.PointEndMs,
		&r.PointScore,
		&r.GameScore,
		&r.SetScore,
		&r.GameNumber,
		&r.SetNumber,
		&isPointStart,
		&isPointEnd,
		&isBreakPoint,
		&r.ShotInRally,
		&side,
		&r.ServerName,
		&serverEnd,
		&r.ServerStartX,
		&r.ReturnerStartX,
		&firstIn,
		&firstZone,
		&r.FirstServeX,
		&r.FirstServeY,
		&secondIn,
		&secondZone,
		&r.SecondServeX,
		&r.SecondServeY,
		&isAce,
		&isLet,
		&r.ShotContactX,
		&r.ShotContactY,
		&hand,
		&dir,
		&isSlice,
		&isVolley,
		&isOverhead,
		&isApproach,
		&isDropshot,
		&isLob,
		&atNetPlayer1,
		&atNetPlayer2,
		&isWinner,
		&isErrorNet,
		&isErrorWideL,
		&isErrorWideR,
		&isErrorLong,
		&isUnforcedError,
		&isExcitingPoint,
		&r.PointWonBy,
		&r.RallyCount,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan point: %w", err)
	}

	r.IsPointStart = isPointStart != 0
	r.IsPointEnd = isPointEnd != 0
	r.IsBreakPoint = isBreakPoint != 0
	r.IsAce = isAce != 0
	r.IsLet = isLet != 0
	r.IsSlice = isSlice != 0
	r.IsVolley = isVolley != 0
	r.IsOverhead = isOverhead != 0
	r.IsApproach = isApproach != 0
	r.IsDropshot = isDropshot != 0
	r.IsLob = isLob != 0
	r.AtNetPlayer1 = atNetPlayer1 != 0
	r.AtNetPlayer2 = atNetPlayer2 != 0
	r.IsWinner = isWinner != 0
	r.IsErrorNet = isErrorNet != 0
	r.IsErrorWideL = isErrorWideL != 0
	r.IsErrorWideR = isErrorWideR != 0
	r.IsErrorLong = isErrorLong != 0
	r.IsUnforcedError = isUnforcedError != 0
	r.IsExcitingPoint = isExcitingPoint != 0
	r.Side = court.Side(side)
	r.ServerEnd = court.End(serverEnd)
	r.FirstServeZone = court.ServeZone(firstZone)
	r.SecondServeZone = court.ServeZone(secondZone)
	r.ShotHand = point.Hand(hand)
	r.ShotDirection = court.Direction(dir)
	if firstIn.Valid {
		r.FirstServeIn = point.BoolPtr(firstIn.Bool)
	}
	if secondIn.Valid {
		r.SecondServeIn = point.BoolPtr(secondIn.Bool)
	}

	return r, nil
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}
