package db

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/point"
)

// testPointLog builds a two-row point: an in first serve followed by a
// rally shot that ends the point for the server.
func testPointLog(server, returner string) []point.Record {
	return []point.Record{
		{
			PointStartMs:   60_000,
			PointScore:     "0-0",
			GameNumber:     1,
			SetNumber:      1,
			IsPointStart:   true,
			ShotInRally:    1,
			Side:           court.SideDeuce,
			ServerName:     server,
			ServerEnd:      court.EndNear,
			ServerStartX:   -40,
			ReturnerStartX: 60,
			FirstServeIn:   point.BoolPtr(true),
			FirstServeZone: court.ZoneT,
			FirstServeX:    -30,
			FirstServeY:    120,
		},
		{
			PointStartMs:  64_000,
			PointEndMs:    66_010,
			PointScore:    "0-0",
			GameNumber:    1,
			SetNumber:     1,
			IsPointEnd:    true,
			ShotInRally:   3,
			ServerName:    server,
			ServerEnd:     court.EndNear,
			ShotContactX:  80,
			ShotContactY:  300,
			ShotHand:      point.HandForehand,
			ShotDirection: court.DirectionCrosscourt,
			IsWinner:      true,
			PointWonBy:    server,
			RallyCount:    3,
		},
	}
}

func TestSaveAndFetchPointsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	m := createTestMatch(t, db, "Ana Petrov", "Kim Lowe")
	ctx := t.Context()

	want := testPointLog(m.Player1Name, m.Player2Name)
	if err := db.SavePoints(ctx, m.ID, want); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}

	got, err := db.FetchPoints(ctx, m.ID)
	if err != nil {
		t.Fatalf("FetchPoints failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("point log mismatch (-want +got):\n%s", diff)
	}
}

func TestSavePointsReplacesExistingLog(t *testing.T) {
	db := setupTestDB(t)
	m := createTestMatch(t, db, "Ana Petrov", "Kim Lowe")
	ctx := t.Context()

	first := testPointLog(m.Player1Name, m.Player2Name)
	if err := db.SavePoints(ctx, m.ID, first); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}

	// Second save drops the rally row and changes the serve zone.
	second := first[:1]
	second[0].FirstServeZone = court.ZoneWide
	if err := db.SavePoints(ctx, m.ID, second); err != nil {
		t.Fatalf("second SavePoints failed: %v", err)
	}

	got, err := db.FetchPoints(ctx, m.ID)
	if err != nil {
		t.Fatalf("FetchPoints failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows after replace, want 1", len(got))
	}
	if got[0].FirstServeZone != court.ZoneWide {
		t.Errorf("zone = %q, want Wide", got[0].FirstServeZone)
	}
}

func TestFetchPointsEmptyMatch(t *testing.T) {
	db := setupTestDB(t)
	m := createTestMatch(t, db, "Ana Petrov", "Kim Lowe")

	got, err := db.FetchPoints(t.Context(), m.ID)
	if err != nil {
		t.Fatalf("FetchPoints failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d rows for empty match, want 0", len(got))
	}
}

func TestNilServePointersSurviveStorage(t *testing.T) {
	db := setupTestDB(t)
	m := createTestMatch(t, db, "Ana Petrov", "Kim Lowe")
	ctx := t.Context()

	rows := testPointLog(m.Player1Name, m.Player2Name)
	if err := db.SavePoints(ctx, m.ID, rows); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}

	got, err := db.FetchPoints(ctx, m.ID)
	if err != nil {
		t.Fatalf("FetchPoints failed: %v", err)
	}
	// Serve row: attempted first serve, no second serve.
	if got[0].FirstServeIn == nil || !*got[0].FirstServeIn {
		t.Error("first serve should round-trip as attempted and in")
	}
	if got[0].SecondServeIn != nil {
		t.Error("unattempted second serve should stay nil")
	}
	// Rally row: no serve attempts at all.
	if got[1].FirstServeIn != nil || got[1].SecondServeIn != nil {
		t.Error("rally row serve pointers should stay nil")
	}
}

func TestDeletePoint(t *testing.T) {
	db := setupTestDB(t)
	m := createTestMatch(t, db, "Ana Petrov", "Kim Lowe")
	ctx := t.Context()

	rows := testPointLog(m.Player1Name, m.Player2Name)
	if err := db.SavePoints(ctx, m.ID, rows); err != nil {
		t.Fatalf("SavePoints failed: %v", err)
	}

	if err := db.DeletePoint(ctx, m.ID, rows[1].PointStartMs); err != nil {
		t.Fatalf("DeletePoint failed: %v", err)
	}

	got, err := db.FetchPoints(ctx, m.ID)
	if err != nil {
		t.Fatalf("FetchPoints failed: %v", err)
	}
	if len(got) != 1 || got[0].PointStartMs != rows[0].PointStartMs {
		t.Errorf("unexpected rows after delete: %+v", got)
	}
}
