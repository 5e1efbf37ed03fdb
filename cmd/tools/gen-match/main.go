// Command gen-match generates a synthetic tagged match for testing the
// stats and report endpoints, driving the real tagging machine so the
// generated log has the same shape as a hand-tagged one.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/db"
	"github.com/courtside-data/pointlog/internal/point"
	"github.com/courtside-data/pointlog/internal/tagger"
)

func main() {
	dbPath := flag.String("db", "pointlog.db", "database path")
	points := flag.Int("n", 48, "number of points to tag")
	seed := flag.Int64("seed", 1, "random seed")
	publish := flag.Bool("publish", false, "publish the generated match")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	database, err := db.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	migrationsFS, err := db.MigrationsFS()
	if err != nil {
		log.Fatalf("failed to load migrations: %v", err)
	}
	if err := database.MigrateUp(migrationsFS); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	match := &point.Match{
		Team1:       "Synthetic North",
		Team2:       "Synthetic South",
		Player1Name: "Gen Alpha",
		Player2Name: "Gen Beta",
		Date:        "2026-01-15",
		Event:       "Synthetic Open",
		Published:   *publish,
	}
	if err := database.CreateMatch(match); err != nil {
		log.Fatalf("failed to create match: %v", err)
	}

	session := tagger.NewSession(*match, match.Player1Name, court.EndNear)
	clock := int64(10_000)
	score := session.Score()

	for i := 0; i < *points; i++ {
		tagPoint(session, rng, &clock)
		if (i+1)%12 == 0 {
			log.Printf("%d/%d points", i+1, *points)
		}
		// Rotate serve every four points to spread server/returner stats.
		if (i+1)%4 == 0 {
			if score.ServerName == match.Player1Name {
				score.ChangeServer(match.Player2Name, court.EndFar)
			} else {
				score.ChangeServer(match.Player1Name, court.EndNear)
			}
			session.UpdateScore(score)
		}
	}

	rows := session.Rows()
	if err := database.SavePoints(context.Background(), match.ID, rows); err != nil {
		log.Fatalf("failed to save points: %v", err)
	}
	log.Printf("✓ Created match %s with %d rows", match.ID, len(rows))
}

// tagPoint drives one full point through the machine: score label, player
// positions, a serve, and (unless the serve settles it) a short rally.
func tagPoint(session *tagger.Session, rng *rand.Rand, clock *int64) {
	step := func(a tagger.Action) tagger.State {
		*clock += 1000 + rng.Int63n(3000)
		a.TimeMs = *clock
		return session.Apply(a)
	}

	scores := point.PointScores()
	step(tagger.Action{Kind: tagger.ActionScore, Label: scores[rng.Intn(len(scores))]})
	step(tagger.Action{Kind: tagger.ActionClick, X: -60 + rng.Float64()*120, Y: -470})
	step(tagger.Action{Kind: tagger.ActionClick, X: -60 + rng.Float64()*120, Y: 470})

	if rng.Float64() < 0.08 {
		step(tagger.Action{Kind: tagger.ActionAce})
	}

	// First serve: aimed at the deuce-side service boxes, occasionally wild.
	serveX, serveY := serveTarget(rng, session.Score().ServerEnd)
	state := step(tagger.Action{Kind: tagger.ActionClick, X: serveX, Y: serveY})
	if state == tagger.StateSecondServe {
		serveX, serveY = serveTarget(rng, session.Score().ServerEnd)
		state = step(tagger.Action{Kind: tagger.ActionClick, X: serveX, Y: serveY})
	}

	// Rally until the point concludes.
	for state != tagger.StatePointScore {
		switch state {
		case tagger.StateGroundstrokeContact:
			state = step(tagger.Action{Kind: tagger.ActionClick,
				X: -150 + rng.Float64()*300, Y: pickHalf(rng) * (200 + rng.Float64()*250)})
		case tagger.StateGroundstrokeShotInfo:
			hand := point.HandForehand
			if rng.Float64() < 0.4 {
				hand = point.HandBackhand
			}
			state = step(tagger.Action{Kind: tagger.ActionHand, Label: string(hand)})
		case tagger.StateGroundstrokeLocation:
			if rng.Float64() < 0.25 {
				step(tagger.Action{Kind: tagger.ActionToggle, Label: tagger.ToggleWinner})
			}
			// Result click: sometimes clearly out to force an error ending.
			resultY := pickHalf(rng) * (100 + rng.Float64()*420)
			state = step(tagger.Action{Kind: tagger.ActionClick,
				X: -200 + rng.Float64()*400, Y: resultY})
		default:
			return
		}
	}
}

// serveTarget aims a serve at the receiving half for the server's end,
// mostly landing in but sometimes missing wide or long.
func serveTarget(rng *rand.Rand, serverEnd court.End) (float64, float64) {
	x := -150 + rng.Float64()*300
	depth := 20 + rng.Float64()*260 // sometimes past the service line
	if serverEnd == court.EndNear {
		return x, depth
	}
	return x, -depth
}

func pickHalf(rng *rand.Rand) float64 {
	if rng.Float64() < 0.5 {
		return 1
	}
	return -1
}
