package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside-data/pointlog/internal/point"
)

func publishedMatch(id, date string, rows []point.Record) MatchPoints {
	return MatchPoints{
		Match: point.Match{
			ID:          id,
			Player1Name: p1,
			Player2Name: p2,
			Date:        date,
			Published:   true,
		},
		Rows: rows,
	}
}

func TestAggregateSkipsUnpublished(t *testing.T) {
	m := publishedMatch("m1", "2025-04-01", []point.Record{
		servePoint(1000, p1, p1, 1, 1, nil),
	})
	m.Match.Published = false

	seasons := AggregatePlayerStats([]MatchPoints{m}, nil)
	assert.Empty(t, seasons)
}

func TestAggregateBucketsByPlayerYear(t *testing.T) {
	matches := []MatchPoints{
		publishedMatch("m1", "2024-05-01", []point.Record{
			servePoint(1000, p1, p1, 1, 1, func(r *point.Record) { r.IsAce = true }),
		}),
		publishedMatch("m2", "2025-03-01", []point.Record{
			servePoint(1000, p1, p1, 1, 1, nil),
		}),
		publishedMatch("m3", "", []point.Record{
			servePoint(1000, p2, p2, 1, 1, nil),
		}),
	}

	seasons := AggregatePlayerStats(matches, nil)

	// Both players appear for every match they played; sorted by name
	// then year.
	require.Len(t, seasons, 6)
	assert.Equal(t, "2024", seasons[0].Year)
	assert.Equal(t, p1, seasons[0].PlayerName)
	assert.Equal(t, 1, seasons[0].Line.Aces)
	assert.Equal(t, 1, seasons[0].MatchesWon)
	assert.Equal(t, "2025", seasons[1].Year)
	assert.Equal(t, "unknown", seasons[2].Year)
	assert.Equal(t, 0, seasons[2].MatchesWon, "player one lost the undated match")
}

func TestAggregateSumsAcrossMatches(t *testing.T) {
	matches := []MatchPoints{
		publishedMatch("m1", "2025-01-10", []point.Record{
			servePoint(1000, p1, p1, 1, 1, nil),
			servePoint(60000, p1, p1, 1, 1, nil),
		}),
		publishedMatch("m2", "2025-02-10", []point.Record{
			servePoint(1000, p1, p1, 1, 1, nil),
		}),
	}

	seasons := AggregatePlayerStats(matches, nil)
	var p1Season *PlayerSeason
	for i := range seasons {
		if seasons[i].PlayerName == p1 && seasons[i].Year == "2025" {
			p1Season = &seasons[i]
		}
	}
	require.NotNil(t, p1Season)
	assert.Equal(t, 2, p1Season.Matches)
	assert.Equal(t, 2, p1Season.MatchesWon)
	assert.Equal(t, 3, p1Season.Line.PointsWon)
	assert.Equal(t, 3, p1Season.Line.FirstServeAttempts)
	assert.InDelta(t, 100.0, p1Season.Line.FirstServePct, 1e-9, "percentages recomputed after summing")
}

func TestManualAdjustmentsMergeIntoExistingBucket(t *testing.T) {
	matches := []MatchPoints{
		publishedMatch("m1", "2025-01-10", []point.Record{
			servePoint(1000, p1, p1, 1, 1, func(r *point.Record) { r.IsAce = true }),
		}),
	}
	manual := []ManualAdjustment{
		{PlayerName: p1, Year: "2025", Aces: 5, Matches: 1, MatchesWon: 1},
	}

	seasons := AggregatePlayerStats(matches, manual)
	require.NotEmpty(t, seasons)
	assert.Equal(t, 6, seasons[0].Line.Aces)
	assert.Equal(t, 2, seasons[0].Matches)
}

func TestManualAdjustmentsCreateBucketForUntaggedPlayer(t *testing.T) {
	manual := []ManualAdjustment{
		{PlayerName: "Walk On", Year: "", Aces: 3, PointsPlayed: 40, PointsWon: 22},
	}

	seasons := AggregatePlayerStats(nil, manual)
	require.Len(t, seasons, 1)
	assert.Equal(t, "Walk On", seasons[0].PlayerName)
	assert.Equal(t, "unknown", seasons[0].Year)
	assert.Equal(t, 3, seasons[0].Line.Aces)
	assert.Equal(t, 22, seasons[0].Line.PointsWon)
	assert.Zero(t, seasons[0].Line.FirstServePct, "no attempts stays exactly zero")
}
