// Package export renders point logs and match summaries as CSV for
// spreadsheet workflows.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/courtside-data/pointlog/internal/point"
	"github.com/courtside-data/pointlog/internal/stats"
)

// pointHeader lists the CSV columns for a point log export. Match metadata
// is repeated on every row so a single file stands alone in a spreadsheet.
var pointHeader = []string{
	"match_id", "match_date", "event", "round", "surface",
	"player1", "player2",
	"point_start_ms", "point_end_ms", "point_score", "game_score",
	"set_score", "game_number", "set_number", "is_point_start",
	"is_point_end", "is_break_point", "shot_in_rally", "side",
	"server_name", "server_end", "first_serve_in", "first_serve_zone",
	"first_serve_x", "first_serve_y", "second_serve_in",
	"second_serve_zone", "second_serve_x", "second_serve_y", "is_ace",
	"is_let", "shot_contact_x", "shot_contact_y", "shot_hand",
	"shot_direction", "is_winner", "is_error_net", "is_error_wide_l",
	"is_error_wide_r", "is_error_long", "is_unforced_error",
	"point_won_by", "rally_count",
}

// WritePointsCSV streams the match's point log as CSV.
func WritePointsCSV(w io.Writer, m *point.Match, rows []point.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(pointHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range rows {
		r := &rows[i]
		record := []string{
			m.ID, m.Date, m.Event, m.Round, m.Surface,
			m.Player1Name, m.Player2Name,
			formatInt64(r.PointStartMs),
			formatInt64(r.PointEndMs),
			r.PointScore,
			r.GameScore,
			r.SetScore,
			strconv.Itoa(r.GameNumber),
			strconv.Itoa(r.SetNumber),
			formatBool(r.IsPointStart),
			formatBool(r.IsPointEnd),
			formatBool(r.IsBreakPoint),
			strconv.Itoa(r.ShotInRally),
			string(r.Side),
			r.ServerName,
			string(r.ServerEnd),
			formatBoolPtr(r.FirstServeIn),
			string(r.FirstServeZone),
			formatFloat(r.FirstServeX),
			formatFloat(r.FirstServeY),
			formatBoolPtr(r.SecondServeIn),
			string(r.SecondServeZone),
			formatFloat(r.SecondServeX),
			formatFloat(r.SecondServeY),
			formatBool(r.IsAce),
			formatBool(r.IsLet),
			formatFloat(r.ShotContactX),
			formatFloat(r.ShotContactY),
			string(r.ShotHand),
			string(r.ShotDirection),
			formatBool(r.IsWinner),
			formatBool(r.IsErrorNet),
			formatBool(r.IsErrorWideL),
			formatBool(r.IsErrorWideR),
			formatBool(r.IsErrorLong),
			formatBool(r.IsUnforcedError),
			r.PointWonBy,
			strconv.Itoa(r.RallyCount),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var summaryHeader = []string{
	"metric", "player1", "player2",
}

// WriteSummaryCSV renders the two player lines of a match summary side by
// side, one metric per row.
func WriteSummaryCSV(w io.Writer, summary *stats.MatchSummary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	p1, p2 := &summary.Player1, &summary.Player2
	rows := [][3]string{
		{"player", p1.Name, p2.Name},
		{"points_won", strconv.Itoa(p1.PointsWon), strconv.Itoa(p2.PointsWon)},
		{"games_won", strconv.Itoa(p1.GamesWon), strconv.Itoa(p2.GamesWon)},
		{"sets_won", strconv.Itoa(p1.SetsWon), strconv.Itoa(p2.SetsWon)},
		{"aces", strconv.Itoa(p1.Aces), strconv.Itoa(p2.Aces)},
		{"double_faults", strconv.Itoa(p1.DoubleFaults), strconv.Itoa(p2.DoubleFaults)},
		{"first_serve_pct", formatFloat(p1.FirstServePct), formatFloat(p2.FirstServePct)},
		{"first_serve_win_pct", formatFloat(p1.FirstServeWinPct), formatFloat(p2.FirstServeWinPct)},
		{"second_serve_pct", formatFloat(p1.SecondServePct), formatFloat(p2.SecondServePct)},
		{"second_serve_win_pct", formatFloat(p1.SecondServeWinPct), formatFloat(p2.SecondServeWinPct)},
		{"service_win_pct", formatFloat(p1.ServiceWinPct), formatFloat(p2.ServiceWinPct)},
		{"return_win_pct", formatFloat(p1.ReturnWinPct), formatFloat(p2.ReturnWinPct)},
		{"break_point_save_pct", formatFloat(p1.BreakPointSavePct), formatFloat(p2.BreakPointSavePct)},
		{"break_point_conv_pct", formatFloat(p1.BreakPointConvPct), formatFloat(p2.BreakPointConvPct)},
		{"forehand_winners", strconv.Itoa(p1.ForehandWinners), strconv.Itoa(p2.ForehandWinners)},
		{"backhand_winners", strconv.Itoa(p1.BackhandWinners), strconv.Itoa(p2.BackhandWinners)},
		{"forehand_unforced", strconv.Itoa(p1.ForehandUnforced), strconv.Itoa(p2.ForehandUnforced)},
		{"backhand_unforced", strconv.Itoa(p1.BackhandUnforced), strconv.Itoa(p2.BackhandUnforced)},
		{"net_win_pct", formatFloat(p1.NetWinPct), formatFloat(p2.NetWinPct)},
		{"serves_wide", strconv.Itoa(p1.ServesWide), strconv.Itoa(p2.ServesWide)},
		{"serves_body", strconv.Itoa(p1.ServesBody), strconv.Itoa(p2.ServesBody)},
		{"serves_t", strconv.Itoa(p1.ServesT), strconv.Itoa(p2.ServesT)},
	}

	for _, row := range rows {
		if err := cw.Write(row[:]); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	meta := [][]string{
		{"match_winner", summary.MatchWinner, ""},
		{"score", summary.Score, ""},
		{"avg_rally_length", formatFloat(summary.AvgRallyLength), ""},
		{"median_rally_length", formatFloat(summary.MedianRallyLength), ""},
		{"p85_rally_length", formatFloat(summary.P85RallyLength), ""},
	}
	for _, row := range meta {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// formatBoolPtr keeps the unattempted/fault/in distinction: empty cell for
// never attempted, 0 for fault, 1 for in.
func formatBoolPtr(b *bool) string {
	if b == nil {
		return ""
	}
	return formatBool(*b)
}
