// Package stats derives match summaries and season aggregates from finalized
// point logs. The engine treats its input as read-only: records in, new
// derived objects out. Missing or malformed fields cost a point its
// contribution to the affected metric, never the whole derivation.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/point"
)

// PlayerLine is one player's side of a match summary. Count fields
// accumulate; the percentage and average fields are filled by a final
// derivation pass and are always defined (0 when the attempt count is 0,
// never NaN).
type PlayerLine struct {
	Name string `json:"name"`

	PointsPlayed int `json:"points_played"`
	PointsWon    int `json:"points_won"`
	GamesWon     int `json:"games_won"`
	SetsWon      int `json:"sets_won"`

	Aces         int `json:"aces"`
	DoubleFaults int `json:"double_faults"`

	FirstServeAttempts      int     `json:"first_serve_attempts"`
	FirstServesIn           int     `json:"first_serves_in"`
	FirstServePct           float64 `json:"first_serve_pct"`
	FirstServePointsPlayed  int     `json:"first_serve_points_played"`
	FirstServePointsWon     int     `json:"first_serve_points_won"`
	FirstServeWinPct        float64 `json:"first_serve_win_pct"`
	SecondServeAttempts     int     `json:"second_serve_attempts"`
	SecondServesIn          int     `json:"second_serves_in"`
	SecondServePct          float64 `json:"second_serve_pct"`
	SecondServePointsPlayed int     `json:"second_serve_points_played"`
	SecondServePointsWon    int     `json:"second_serve_points_won"`
	SecondServeWinPct       float64 `json:"second_serve_win_pct"`

	ServicePointsPlayed int     `json:"service_points_played"`
	ServicePointsWon    int     `json:"service_points_won"`
	ServiceWinPct       float64 `json:"service_win_pct"`
	ReturnPointsPlayed  int     `json:"return_points_played"`
	ReturnPointsWon     int     `json:"return_points_won"`
	ReturnWinPct        float64 `json:"return_win_pct"`

	BreakPointsFaced     int     `json:"break_points_faced"`
	BreakPointsSaved     int     `json:"break_points_saved"`
	BreakPointSavePct    float64 `json:"break_point_save_pct"`
	BreakPointChances    int     `json:"break_point_chances"`
	BreakPointsConverted int     `json:"break_points_converted"`
	BreakPointConvPct    float64 `json:"break_point_conv_pct"`

	ForehandWinners  int `json:"forehand_winners"`
	BackhandWinners  int `json:"backhand_winners"`
	ForehandUnforced int `json:"forehand_unforced"`
	BackhandUnforced int `json:"backhand_unforced"`

	NetPoints    int     `json:"net_points"`
	NetPointsWon int     `json:"net_points_won"`
	NetWinPct    float64 `json:"net_win_pct"`

	RallyShortPlayed  int `json:"rally_short_played"`
	RallyShortWon     int `json:"rally_short_won"`
	RallyMediumPlayed int `json:"rally_medium_played"`
	RallyMediumWon    int `json:"rally_medium_won"`
	RallyLongPlayed   int `json:"rally_long_played"`
	RallyLongWon      int `json:"rally_long_won"`

	ServesWide int `json:"serves_wide"`
	ServesBody int `json:"serves_body"`
	ServesT    int `json:"serves_t"`

	// Serve placement sums, kept so season aggregation can re-average.
	FirstServeXSum    float64 `json:"first_serve_x_sum"`
	FirstServeYSum    float64 `json:"first_serve_y_sum"`
	FirstServePlaced  int     `json:"first_serve_placed"`
	FirstServeAvgX    float64 `json:"first_serve_avg_x"`
	FirstServeAvgY    float64 `json:"first_serve_avg_y"`
	SecondServeXSum   float64 `json:"second_serve_x_sum"`
	SecondServeYSum   float64 `json:"second_serve_y_sum"`
	SecondServePlaced int     `json:"second_serve_placed"`
	SecondServeAvgX   float64 `json:"second_serve_avg_x"`
	SecondServeAvgY   float64 `json:"second_serve_avg_y"`
}

// MatchSummary is the per-match derivation result.
type MatchSummary struct {
	MatchID     string `json:"match_id"`
	MatchWinner string `json:"match_winner"`
	// Score lists games per set from player1's perspective, e.g. "6-4, 7-5".
	Score string `json:"score"`

	Player1 PlayerLine `json:"player1"`
	Player2 PlayerLine `json:"player2"`

	AvgRallyLength    float64 `json:"avg_rally_length"`
	MedianRallyLength float64 `json:"median_rally_length"`
	P85RallyLength    float64 `json:"p85_rally_length"`
}

// pct returns 100*success/attempts, defined as exactly 0 for zero attempts.
func pct(success, attempts int) float64 {
	if attempts == 0 {
		return 0
	}
	return 100 * float64(success) / float64(attempts)
}

func avg(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// finalize fills every derived field from the line's counts. It is safe to
// run repeatedly, which the season aggregation relies on after re-summing.
func finalize(l *PlayerLine) {
	l.FirstServePct = pct(l.FirstServesIn, l.FirstServeAttempts)
	l.SecondServePct = pct(l.SecondServesIn, l.SecondServeAttempts)
	l.FirstServeWinPct = pct(l.FirstServePointsWon, l.FirstServePointsPlayed)
	l.SecondServeWinPct = pct(l.SecondServePointsWon, l.SecondServePointsPlayed)
	l.ServiceWinPct = pct(l.ServicePointsWon, l.ServicePointsPlayed)
	l.ReturnWinPct = pct(l.ReturnPointsWon, l.ReturnPointsPlayed)
	l.BreakPointSavePct = pct(l.BreakPointsSaved, l.BreakPointsFaced)
	l.BreakPointConvPct = pct(l.BreakPointsConverted, l.BreakPointChances)
	l.NetWinPct = pct(l.NetPointsWon, l.NetPoints)
	l.FirstServeAvgX = avg(l.FirstServeXSum, l.FirstServePlaced)
	l.FirstServeAvgY = avg(l.FirstServeYSum, l.FirstServePlaced)
	l.SecondServeAvgX = avg(l.SecondServeXSum, l.SecondServePlaced)
	l.SecondServeAvgY = avg(l.SecondServeYSum, l.SecondServePlaced)
}

// pointGroup is all rows of one point, serve row first.
type pointGroup struct {
	rows []point.Record
}

func (g *pointGroup) serve() *point.Record { return &g.rows[0] }
func (g *pointGroup) last() *point.Record  { return &g.rows[len(g.rows)-1] }

// groupPoints splits an ordered point log into points. A row flagged as a
// point start always opens a new group; rows before the first start row are
// grouped together as a best-effort point.
func groupPoints(rows []point.Record) []pointGroup {
	var groups []pointGroup
	for _, r := range rows {
		if r.IsPointStart || len(groups) == 0 {
			groups = append(groups, pointGroup{})
		}
		g := &groups[len(groups)-1]
		g.rows = append(g.rows, r)
	}
	return groups
}

// DeriveMatchStats computes the full match summary for one ordered point
// log. Game winners are taken from the final point of each game rather than
// re-derived from raw point scores; set winners from games won, the match
// winner from sets won.
func DeriveMatchStats(rows []point.Record, player1, player2 string) MatchSummary {
	summary := MatchSummary{
		Player1: PlayerLine{Name: player1},
		Player2: PlayerLine{Name: player2},
	}

	points := groupPoints(rows)
	if len(points) > 0 {
		deriveScoreline(points, &summary)
		var rallyLengths []float64
		for i := range points {
			derivePoint(&points[i], &summary)
			if rc := points[i].last().RallyCount; rc > 0 {
				rallyLengths = append(rallyLengths, float64(rc))
			}
		}
		if len(rallyLengths) > 0 {
			sort.Float64s(rallyLengths)
			summary.AvgRallyLength = stat.Mean(rallyLengths, nil)
			summary.MedianRallyLength = stat.Quantile(0.5, stat.Empirical, rallyLengths, nil)
			summary.P85RallyLength = stat.Quantile(0.85, stat.Empirical, rallyLengths, nil)
		}
	}

	finalize(&summary.Player1)
	finalize(&summary.Player2)
	return summary
}

// deriveScoreline walks the points in order detecting game and set
// boundaries, then fills games, sets, the set score string, and the match
// winner.
func deriveScoreline(points []pointGroup, s *MatchSummary) {
	type setTally struct {
		number int
		p1, p2 int
	}
	var sets []setTally

	curSet, curGame := 0, 0
	lastGameWinner := ""

	closeGame := func() {
		if len(sets) == 0 {
			return
		}
		t := &sets[len(sets)-1]
		switch lastGameWinner {
		case s.Player1.Name:
			t.p1++
		case s.Player2.Name:
			t.p2++
		}
		lastGameWinner = ""
	}

	for i := range points {
		last := points[i].last()
		if last.SetNumber != curSet {
			closeGame()
			curSet = last.SetNumber
			curGame = last.GameNumber
			sets = append(sets, setTally{number: curSet})
		} else if last.GameNumber != curGame {
			closeGame()
			curGame = last.GameNumber
		}
		if last.PointWonBy != "" {
			lastGameWinner = last.PointWonBy
		}
	}
	closeGame()

	sort.Slice(sets, func(i, j int) bool { return sets[i].number < sets[j].number })

	var parts []string
	p1Sets, p2Sets := 0, 0
	for _, t := range sets {
		parts = append(parts, fmt.Sprintf("%d-%d", t.p1, t.p2))
		s.Player1.GamesWon += t.p1
		s.Player2.GamesWon += t.p2
		if t.p1 > t.p2 {
			p1Sets++
		} else if t.p2 > t.p1 {
			p2Sets++
		}
	}
	s.Score = strings.Join(parts, ", ")
	s.Player1.SetsWon = p1Sets
	s.Player2.SetsWon = p2Sets

	switch {
	case p1Sets > p2Sets:
		s.MatchWinner = s.Player1.Name
	case p2Sets > p1Sets:
		s.MatchWinner = s.Player2.Name
	case s.Player1.GamesWon > s.Player2.GamesWon:
		s.MatchWinner = s.Player1.Name
	case s.Player2.GamesWon > s.Player1.GamesWon:
		s.MatchWinner = s.Player2.Name
	}
}

// derivePoint accumulates one point into the server's and receiver's lines.
func derivePoint(g *pointGroup, s *MatchSummary) {
	serve := g.serve()
	last := g.last()

	var server, receiver *PlayerLine
	switch serve.ServerName {
	case s.Player1.Name:
		server, receiver = &s.Player1, &s.Player2
	case s.Player2.Name:
		server, receiver = &s.Player2, &s.Player1
	default:
		// Unknown server: the point cannot be attributed to either role.
		return
	}

	server.ServicePointsPlayed++
	receiver.ReturnPointsPlayed++
	server.PointsPlayed++
	receiver.PointsPlayed++

	wonBy := last.PointWonBy
	serverWon := wonBy != "" && wonBy == server.Name
	receiverWon := wonBy != "" && wonBy == receiver.Name
	if serverWon {
		server.PointsWon++
		server.ServicePointsWon++
	}
	if receiverWon {
		receiver.PointsWon++
		receiver.ReturnPointsWon++
	}

	deriveServes(serve, server, serverWon)

	if serve.IsAce {
		server.Aces++
	}
	if serve.DoubleFault() {
		server.DoubleFaults++
	}

	if serve.IsBreakPoint {
		server.BreakPointsFaced++
		receiver.BreakPointChances++
		if serverWon {
			server.BreakPointsSaved++
		}
		if receiverWon {
			receiver.BreakPointsConverted++
		}
	}

	// Shot rows: winners and unforced errors attributed by wing to the
	// striker (odd shots are the server's, shot 1 being the serve).
	for i := range g.rows {
		r := &g.rows[i]
		if r.ShotInRally <= 1 || r.ShotHand == "" {
			continue
		}
		striker := receiver
		if r.ShotInRally%2 == 1 {
			striker = server
		}
		if r.IsWinner {
			if r.ShotHand == point.HandForehand {
				striker.ForehandWinners++
			} else {
				striker.BackhandWinners++
			}
		}
		if r.IsUnforcedError {
			if r.ShotHand == point.HandForehand {
				striker.ForehandUnforced++
			} else {
				striker.BackhandUnforced++
			}
		}
	}

	deriveNet(g, s, wonBy)

	if rc := last.RallyCount; rc > 0 {
		var winner *PlayerLine
		if serverWon {
			winner = server
		} else if receiverWon {
			winner = receiver
		}
		bucketRally(rc, server, receiver, winner)
	}
}

func deriveServes(serve *point.Record, server *PlayerLine, serverWon bool) {
	if serve.FirstServeIn != nil {
		server.FirstServeAttempts++
		tallyZone(server, serve.FirstServeZone)
		server.FirstServeXSum += serve.FirstServeX
		server.FirstServeYSum += serve.FirstServeY
		server.FirstServePlaced++
		if *serve.FirstServeIn {
			server.FirstServesIn++
			server.FirstServePointsPlayed++
			if serverWon {
				server.FirstServePointsWon++
			}
		}
	}
	if serve.SecondServeIn != nil {
		server.SecondServeAttempts++
		tallyZone(server, serve.SecondServeZone)
		server.SecondServeXSum += serve.SecondServeX
		server.SecondServeYSum += serve.SecondServeY
		server.SecondServePlaced++
		if *serve.SecondServeIn {
			server.SecondServesIn++
			server.SecondServePointsPlayed++
			if serverWon {
				server.SecondServePointsWon++
			}
		}
	}
}

func tallyZone(l *PlayerLine, zone court.ServeZone) {
	switch zone {
	case court.ZoneWide:
		l.ServesWide++
	case court.ZoneBody:
		l.ServesBody++
	case court.ZoneT:
		l.ServesT++
	}
}

func deriveNet(g *pointGroup, s *MatchSummary, wonBy string) {
	atNet1, atNet2 := false, false
	for i := range g.rows {
		if g.rows[i].AtNetPlayer1 {
			atNet1 = true
		}
		if g.rows[i].AtNetPlayer2 {
			atNet2 = true
		}
	}
	if atNet1 {
		s.Player1.NetPoints++
		if wonBy == s.Player1.Name {
			s.Player1.NetPointsWon++
		}
	}
	if atNet2 {
		s.Player2.NetPoints++
		if wonBy == s.Player2.Name {
			s.Player2.NetPointsWon++
		}
	}
}

// Rally buckets: short is four shots or fewer, medium five to eight, long
// nine and up.
func bucketRally(rallyCount int, server, receiver, winner *PlayerLine) {
	lines := []*PlayerLine{server, receiver}
	switch {
	case rallyCount <= 4:
		for _, l := range lines {
			l.RallyShortPlayed++
		}
		if winner != nil {
			winner.RallyShortWon++
		}
	case rallyCount <= 8:
		for _, l := range lines {
			l.RallyMediumPlayed++
		}
		if winner != nil {
			winner.RallyMediumWon++
		}
	default:
		for _, l := range lines {
			l.RallyLongPlayed++
		}
		if winner != nil {
			winner.RallyLongWon++
		}
	}
}
