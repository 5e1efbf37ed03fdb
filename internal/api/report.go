package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/point"
	"github.com/courtside-data/pointlog/internal/stats"
	"github.com/courtside-data/pointlog/internal/units"
)

// matchReport renders a self-contained HTML report for one match: headline
// bars, rally-length buckets, and a serve placement scatter.
func (s *Server) matchReport(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	m, err := s.db.GetMatch(matchID)
	if errors.Is(err, db.ErrMatchNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to get match")
		return
	}

	targetUnits := r.URL.Query().Get("units")
	if targetUnits == "" {
		targetUnits = units.IN
	}
	if !units.IsValid(targetUnits) {
		s.writeJSONError(w, http.StatusBadRequest,
			"Invalid 'units' parameter, must be one of: "+units.GetValidUnitsString())
		return
	}

	rows, err := s.db.FetchPoints(r.Context(), matchID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch points")
		return
	}
	summary := stats.DeriveMatchStats(rows, m.Player1Name, m.Player2Name)

	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("%s vs %s - %s", m.Player1Name, m.Player2Name, m.Date))
	page.AddCharts(
		headlineBar(&summary),
		rallyBucketsBar(&summary),
		servePlacementScatter(rows, targetUnits),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func headlineBar(summary *stats.MatchSummary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Match Summary",
			Subtitle: fmt.Sprintf("Winner: %s (%s)", summary.MatchWinner, summary.Score),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	metrics := []struct {
		label  string
		p1, p2 int
	}{
		{"Points", summary.Player1.PointsWon, summary.Player2.PointsWon},
		{"Games", summary.Player1.GamesWon, summary.Player2.GamesWon},
		{"Aces", summary.Player1.Aces, summary.Player2.Aces},
		{"Double Faults", summary.Player1.DoubleFaults, summary.Player2.DoubleFaults},
		{"FH Winners", summary.Player1.ForehandWinners, summary.Player2.ForehandWinners},
		{"BH Winners", summary.Player1.BackhandWinners, summary.Player2.BackhandWinners},
		{"Unforced", summary.Player1.ForehandUnforced + summary.Player1.BackhandUnforced,
			summary.Player2.ForehandUnforced + summary.Player2.BackhandUnforced},
	}

	labels := make([]string, 0, len(metrics))
	p1Data := make([]opts.BarData, 0, len(metrics))
	p2Data := make([]opts.BarData, 0, len(metrics))
	for _, m := range metrics {
		labels = append(labels, m.label)
		p1Data = append(p1Data, opts.BarData{Value: m.p1})
		p2Data = append(p2Data, opts.BarData{Value: m.p2})
	}

	bar.SetXAxis(labels).
		AddSeries(summary.Player1.Name, p1Data).
		AddSeries(summary.Player2.Name, p2Data)
	return bar
}

func rallyBucketsBar(summary *stats.MatchSummary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Rally Length",
			Subtitle: fmt.Sprintf("Points won by rally bucket; avg %.1f, median %.0f, p85 %.0f shots",
				summary.AvgRallyLength, summary.MedianRallyLength, summary.P85RallyLength),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	labels := []string{"1-4 shots", "5-8 shots", "9+ shots"}
	p1Data := []opts.BarData{
		{Value: summary.Player1.RallyShortWon},
		{Value: summary.Player1.RallyMediumWon},
		{Value: summary.Player1.RallyLongWon},
	}
	p2Data := []opts.BarData{
		{Value: summary.Player2.RallyShortWon},
		{Value: summary.Player2.RallyMediumWon},
		{Value: summary.Player2.RallyLongWon},
	}

	bar.SetXAxis(labels).
		AddSeries(summary.Player1.Name, p1Data).
		AddSeries(summary.Player2.Name, p2Data)
	return bar
}

func servePlacementScatter(rows []point.Record, targetUnits string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Serve Placement",
			Subtitle: fmt.Sprintf("Net-centered %s; positive y is the far court", targetUnits),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Min: units.ConvertLength(-250, targetUnits),
			Max: units.ConvertLength(250, targetUnits),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Min: units.ConvertLength(-300, targetUnits),
			Max: units.ConvertLength(300, targetUnits),
		}),
	)

	var first, second []opts.ScatterData
	for i := range rows {
		r := &rows[i]
		if r.FirstServeIn != nil {
			first = append(first, opts.ScatterData{Value: []interface{}{
				units.ConvertLength(r.FirstServeX, targetUnits),
				units.ConvertLength(r.FirstServeY, targetUnits),
			}})
		}
		if r.SecondServeIn != nil {
			second = append(second, opts.ScatterData{Value: []interface{}{
				units.ConvertLength(r.SecondServeX, targetUnits),
				units.ConvertLength(r.SecondServeY, targetUnits),
			}})
		}
	}

	scatter.AddSeries("First serves", first).
		AddSeries("Second serves", second)
	return scatter
}
