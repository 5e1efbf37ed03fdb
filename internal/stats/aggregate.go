package stats

import (
	"sort"

	"github.com/courtside-data/pointlog/internal/point"
)

// MatchPoints pairs a match header with its full point log, the unit the
// season aggregation consumes.
type MatchPoints struct {
	Match point.Match
	Rows  []point.Record
}

// ManualAdjustment adds externally recorded figures (paper scorecards,
// untagged matches) into a player-year bucket after tagged matches are
// summed. A player with no tagged matches gets a bucket holding only the
// manual figures.
type ManualAdjustment struct {
	PlayerName string `json:"player_name"`
	Year       string `json:"year"`

	Matches      int `json:"matches"`
	MatchesWon   int `json:"matches_won"`
	PointsPlayed int `json:"points_played"`
	PointsWon    int `json:"points_won"`
	Aces         int `json:"aces"`
	DoubleFaults int `json:"double_faults"`
}

// PlayerSeason is one (player, year) aggregate across published matches.
type PlayerSeason struct {
	PlayerName string `json:"player_name"`
	Year       string `json:"year"`
	Matches    int    `json:"matches"`
	MatchesWon int    `json:"matches_won"`

	Line PlayerLine `json:"line"`
}

type seasonKey struct {
	player string
	year   string
}

// AggregatePlayerStats recomputes player-year aggregates from the full
// match corpus. Only published matches contribute; the year comes from the
// match date's first four characters, or "unknown" when absent. Results are
// sorted by player then year.
func AggregatePlayerStats(matches []MatchPoints, manual []ManualAdjustment) []PlayerSeason {
	buckets := make(map[seasonKey]*PlayerSeason)

	bucket := func(name, year string) *PlayerSeason {
		key := seasonKey{player: name, year: year}
		if b, ok := buckets[key]; ok {
			return b
		}
		b := &PlayerSeason{PlayerName: name, Year: year, Line: PlayerLine{Name: name}}
		buckets[key] = b
		return b
	}

	for _, mp := range matches {
		if !mp.Match.Published {
			continue
		}
		summary := DeriveMatchStats(mp.Rows, mp.Match.Player1Name, mp.Match.Player2Name)
		year := mp.Match.Year()

		for _, line := range []PlayerLine{summary.Player1, summary.Player2} {
			if line.Name == "" {
				continue
			}
			b := bucket(line.Name, year)
			b.Matches++
			if summary.MatchWinner == line.Name {
				b.MatchesWon++
			}
			addLine(&b.Line, line)
		}
	}

	for _, adj := range manual {
		if adj.PlayerName == "" {
			continue
		}
		year := adj.Year
		if year == "" {
			year = "unknown"
		}
		b := bucket(adj.PlayerName, year)
		b.Matches += adj.Matches
		b.MatchesWon += adj.MatchesWon
		b.Line.PointsPlayed += adj.PointsPlayed
		b.Line.PointsWon += adj.PointsWon
		b.Line.Aces += adj.Aces
		b.Line.DoubleFaults += adj.DoubleFaults
	}

	seasons := make([]PlayerSeason, 0, len(buckets))
	for _, b := range buckets {
		finalize(&b.Line)
		seasons = append(seasons, *b)
	}
	sort.Slice(seasons, func(i, j int) bool {
		if seasons[i].PlayerName != seasons[j].PlayerName {
			return seasons[i].PlayerName < seasons[j].PlayerName
		}
		return seasons[i].Year < seasons[j].Year
	})
	return seasons
}

// addLine sums src's count fields into dst. Derived percentage and average
// fields are left alone; finalize recomputes them from the summed counts.
func addLine(dst *PlayerLine, src PlayerLine) {
	dst.PointsPlayed += src.PointsPlayed
	dst.PointsWon += src.PointsWon
	dst.GamesWon += src.GamesWon
	dst.SetsWon += src.SetsWon
	dst.Aces += src.Aces
	dst.DoubleFaults += src.DoubleFaults
	dst.FirstServeAttempts += src.FirstServeAttempts
	dst.FirstServesIn += src.FirstServesIn
	dst.FirstServePointsPlayed += src.FirstServePointsPlayed
	dst.FirstServePointsWon += src.FirstServePointsWon
	dst.SecondServeAttempts += src.SecondServeAttempts
	dst.SecondServesIn += src.SecondServesIn
	dst.SecondServePointsPlayed += src.SecondServePointsPlayed
	dst.SecondServePointsWon += src.SecondServePointsWon
	dst.ServicePointsPlayed += src.ServicePointsPlayed
	dst.ServicePointsWon += src.ServicePointsWon
	dst.ReturnPointsPlayed += src.ReturnPointsPlayed
	dst.ReturnPointsWon += src.ReturnPointsWon
	dst.BreakPointsFaced += src.BreakPointsFaced
	dst.BreakPointsSaved += src.BreakPointsSaved
	dst.BreakPointChances += src.BreakPointChances
	dst.BreakPointsConverted += src.BreakPointsConverted
	dst.ForehandWinners += src.ForehandWinners
	dst.BackhandWinners += src.BackhandWinners
	dst.ForehandUnforced += src.ForehandUnforced
	dst.BackhandUnforced += src.BackhandUnforced
	dst.NetPoints += src.NetPoints
	dst.NetPointsWon += src.NetPointsWon
	dst.RallyShortPlayed += src.RallyShortPlayed
	dst.RallyShortWon += src.RallyShortWon
	dst.RallyMediumPlayed += src.RallyMediumPlayed
	dst.RallyMediumWon += src.RallyMediumWon
	dst.RallyLongPlayed += src.RallyLongPlayed
	dst.RallyLongWon += src.RallyLongWon
	dst.ServesWide += src.ServesWide
	dst.ServesBody += src.ServesBody
	dst.ServesT += src.ServesT
	dst.FirstServeXSum += src.FirstServeXSum
	dst.FirstServeYSum += src.FirstServeYSum
	dst.FirstServePlaced += src.FirstServePlaced
	dst.SecondServeXSum += src.SecondServeXSum
	dst.SecondServeYSum += src.SecondServeYSum
	dst.SecondServePlaced += src.SecondServePlaced
}
