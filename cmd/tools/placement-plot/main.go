// Command placement-plot renders a match's serve placements to a PNG
// scatter, one panel per serve. Useful for printed scouting sheets where
// the HTML report is not an option.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/point"
	"github.com/courtside-data/pointlog/internal/units"
)

func main() {
	dbPath := flag.String("db", "pointlog.db", "database path")
	matchID := flag.String("match", "", "match ID to plot")
	output := flag.String("o", "placements.png", "output path")
	unitArg := flag.String("units", units.IN, "axis units: "+units.GetValidUnitsString())
	flag.Parse()

	if *matchID == "" {
		log.Fatal("usage: placement-plot -match <id> [-db path] [-o out.png] [-units in]")
	}
	if !units.IsValid(*unitArg) {
		log.Fatalf("invalid units %q, must be one of: %s", *unitArg, units.GetValidUnitsString())
	}

	database, err := db.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	m, err := database.GetMatch(*matchID)
	if err != nil {
		log.Fatalf("failed to load match: %v", err)
	}
	rows, err := database.FetchPoints(context.Background(), *matchID)
	if err != nil {
		log.Fatalf("failed to load points: %v", err)
	}

	if err := renderPlacements(m, rows, *unitArg, *output); err != nil {
		log.Fatalf("failed to render plot: %v", err)
	}
	log.Printf("✓ Created: %s", *output)
}

func renderPlacements(m *point.Match, rows []point.Record, unitArg, output string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s — serve placement", m.Player1Name, m.Player2Name)
	p.X.Label.Text = fmt.Sprintf("across court (%s)", unitArg)
	p.Y.Label.Text = fmt.Sprintf("from net (%s)", unitArg)

	var first, second plotter.XYs
	for i := range rows {
		r := &rows[i]
		if r.FirstServeIn != nil {
			first = append(first, plotter.XY{
				X: units.ConvertLength(r.FirstServeX, unitArg),
				Y: units.ConvertLength(r.FirstServeY, unitArg),
			})
		}
		if r.SecondServeIn != nil {
			second = append(second, plotter.XY{
				X: units.ConvertLength(r.SecondServeX, unitArg),
				Y: units.ConvertLength(r.SecondServeY, unitArg),
			})
		}
	}
	if len(first) == 0 && len(second) == 0 {
		return fmt.Errorf("match %s has no serve placements", m.ID)
	}

	if len(first) > 0 {
		s, err := plotter.NewScatter(first)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		s.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(s)
		p.Legend.Add("first serve", s)
	}
	if len(second) > 0 {
		s, err := plotter.NewScatter(second)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		s.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(s)
		p.Legend.Add("second serve", s)
	}

	addCourtLines(p, unitArg)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(6*vg.Inch, 8*vg.Inch, output); err != nil {
		os.Remove(output)
		return err
	}
	return nil
}

// addCourtLines draws the service-box outline so placements read against
// real court geometry: sidelines, the net, and the zone boundaries.
func addCourtLines(p *plot.Plot, unitArg string) {
	conv := func(v float64) float64 { return units.ConvertLength(v, unitArg) }

	vertical := []float64{
		-court.ServeMaxX, -court.ZoneOuterX, -court.ZoneInnerX,
		court.ZoneInnerX, court.ZoneOuterX, court.ServeMaxX,
	}
	for _, x := range vertical {
		line, err := plotter.NewLine(plotter.XYs{
			{X: conv(x), Y: conv(-court.ServeMaxY)},
			{X: conv(x), Y: conv(court.ServeMaxY)},
		})
		if err != nil {
			continue
		}
		line.Color = color.Gray{Y: 180}
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	for _, y := range []float64{-court.ServeMaxY, 0, court.ServeMaxY} {
		line, err := plotter.NewLine(plotter.XYs{
			{X: conv(-court.ServeMaxX), Y: conv(y)},
			{X: conv(court.ServeMaxX), Y: conv(y)},
		})
		if err != nil {
			continue
		}
		line.Color = color.Gray{Y: 120}
		line.Width = vg.Points(1)
		p.Add(line)
	}
}
