// Package point defines the point record schema shared by the tagging
// machine, the merger, persistence and the statistics engine.
package point

import (
	"github.com/courtside-data/pointlog/internal/court"
)

// Hand is which wing a groundstroke was struck with.
type Hand string

const (
	HandForehand Hand = "Forehand"
	HandBackhand Hand = "Backhand"
)

// Record is one row of the point log. A point with full shot tracking spans
// several records: the serve row carries IsPointStart and the serve fields,
// each later rally shot appends its own row, and the final row carries
// IsPointEnd plus the outcome. PointStartMs is the unique key within a match;
// clicks are sequential so two rows can never share one.
//
// Missing optional values are the zero value (empty string, 0, nil) rather
// than a sentinel, so consumers can range over records without guarding
// every field.
type Record struct {
	PointStartMs int64 `json:"point_start_ms"`
	PointEndMs   int64 `json:"point_end_ms"`

	// Scores are as they stood before the point began.
	PointScore string `json:"point_score"`
	GameScore  string `json:"game_score"`
	SetScore   string `json:"set_score"`
	GameNumber int    `json:"game_number"`
	SetNumber  int    `json:"set_number"`

	IsPointStart bool `json:"is_point_start"`
	IsPointEnd   bool `json:"is_point_end"`
	IsBreakPoint bool `json:"is_break_point"`

	ShotInRally int        `json:"shot_in_rally"`
	Side        court.Side `json:"side"`

	ServerName     string    `json:"server_name"`
	ServerEnd      court.End `json:"server_end"`
	ServerStartX   float64   `json:"server_start_x"`
	ReturnerStartX float64   `json:"returner_start_x"`

	// Serve attempts. A nil In pointer means the serve was never attempted;
	// pointing at false records a fault.
	FirstServeIn    *bool           `json:"first_serve_in,omitempty"`
	FirstServeZone  court.ServeZone `json:"first_serve_zone,omitempty"`
	FirstServeX     float64         `json:"first_serve_x"`
	FirstServeY     float64         `json:"first_serve_y"`
	SecondServeIn   *bool           `json:"second_serve_in,omitempty"`
	SecondServeZone court.ServeZone `json:"second_serve_zone,omitempty"`
	SecondServeX    float64         `json:"second_serve_x"`
	SecondServeY    float64         `json:"second_serve_y"`

	IsAce bool `json:"is_ace"`
	IsLet bool `json:"is_let"`

	// Rally shot fields, set on shot rows (ShotInRally > 1).
	ShotContactX  float64         `json:"shot_contact_x"`
	ShotContactY  float64         `json:"shot_contact_y"`
	ShotHand      Hand            `json:"shot_hand,omitempty"`
	ShotDirection court.Direction `json:"shot_direction,omitempty"`
	IsSlice       bool            `json:"is_slice"`
	IsVolley      bool            `json:"is_volley"`
	IsOverhead    bool            `json:"is_overhead"`
	IsApproach    bool            `json:"is_approach"`
	IsDropshot    bool            `json:"is_dropshot"`
	IsLob         bool            `json:"is_lob"`
	AtNetPlayer1  bool            `json:"at_net_player1"`
	AtNetPlayer2  bool            `json:"at_net_player2"`

	// Outcome flags, set on the closing row of the point.
	IsWinner        bool   `json:"is_winner"`
	IsErrorNet      bool   `json:"is_error_net"`
	IsErrorWideL    bool   `json:"is_error_wide_l"`
	IsErrorWideR    bool   `json:"is_error_wide_r"`
	IsErrorLong     bool   `json:"is_error_long"`
	IsUnforcedError bool   `json:"is_unforced_error"`
	IsExcitingPoint bool   `json:"is_exciting_point"`
	PointWonBy      string `json:"point_won_by,omitempty"`
	RallyCount      int    `json:"rally_count"`
}

// BoolPtr returns a pointer to b, for the serve-attempt fields.
func BoolPtr(b bool) *bool { return &b }

// DoubleFault reports whether both serve attempts on this row faulted.
func (r *Record) DoubleFault() bool {
	return r.FirstServeIn != nil && !*r.FirstServeIn &&
		r.SecondServeIn != nil && !*r.SecondServeIn
}

// HasError reports whether any shot error flag is set on this row.
func (r *Record) HasError() bool {
	return r.IsErrorNet || r.IsErrorWideL || r.IsErrorWideR || r.IsErrorLong
}

// SetError maps a classifier error kind onto the row's error flags.
func (r *Record) SetError(kind court.ErrorKind) {
	switch kind {
	case court.ErrorNet:
		r.IsErrorNet = true
	case court.ErrorWideLeft:
		r.IsErrorWideL = true
	case court.ErrorWideRight:
		r.IsErrorWideR = true
	case court.ErrorLong:
		r.IsErrorLong = true
	}
}

// Normalize clears legacy sentinel values and clamps impossible timestamps.
// Exported data from the old tagging tool wrote the literal string
// "undefined" for absent fields; persistence collaborators reject it.
func (r *Record) Normalize() {
	if r.PointScore == "undefined" {
		r.PointScore = ""
	}
	if r.GameScore == "undefined" {
		r.GameScore = ""
	}
	if r.SetScore == "undefined" {
		r.SetScore = ""
	}
	if r.PointWonBy == "undefined" {
		r.PointWonBy = ""
	}
	if r.ServerName == "undefined" {
		r.ServerName = ""
	}
	if r.PointStartMs < 0 {
		r.PointStartMs = 0
	}
	if r.PointEndMs < 0 {
		r.PointEndMs = 0
	}
	if r.ShotInRally < 1 {
		r.ShotInRally = 1
	}
}

// Match is the header a point log hangs off: team and player metadata, the
// video reference, and the publication flag that gates aggregate reporting.
type Match struct {
	ID          string `json:"id"`
	Team1       string `json:"team1"`
	Team2       string `json:"team2"`
	Player1Name string `json:"player1_name"`
	Player2Name string `json:"player2_name"`
	Player1Hand string `json:"player1_hand"`
	Player2Hand string `json:"player2_hand"`
	Date        string `json:"date"` // YYYY-MM-DD
	Division    string `json:"division"`
	Event       string `json:"event"`
	Round       string `json:"round"`
	Surface     string `json:"surface"`
	Venue       string `json:"venue"`
	VideoURL    string `json:"video_url"`
	Published   bool   `json:"published"`
}

// Year extracts the season from the match date, or "unknown" when the date
// is absent or too short.
func (m *Match) Year() string {
	if len(m.Date) < 4 {
		return "unknown"
	}
	return m.Date[:4]
}

// Opponent returns the other named player, or empty if name matches neither.
func (m *Match) Opponent(name string) string {
	switch name {
	case m.Player1Name:
		return m.Player2Name
	case m.Player2Name:
		return m.Player1Name
	}
	return ""
}
