// Package tagger implements the point tagging state machine: the cyclic,
// per-point flow that turns a sequence of menu selections and court-diagram
// clicks into ordered point records.
package tagger

import (
	"fmt"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/point"
)

// State is one page of the tagging flow. The graph is a cycle: finishing a
// point from any of the terminal-capable states returns to StatePointScore
// for the next one.
type State int

const (
	StatePointScore State = iota
	StateServerLocation
	StateReturnerLocation
	StateFirstServe
	StateSecondServe
	StateGroundstrokeContact
	StateGroundstrokeShotInfo
	StateGroundstrokeLocation
)

var stateNames = map[State]string{
	StatePointScore:           "PointScore",
	StateServerLocation:       "ServerLocation",
	StateReturnerLocation:     "ReturnerLocation",
	StateFirstServe:           "FirstServe",
	StateSecondServe:          "SecondServe",
	StateGroundstrokeContact:  "GroundstrokeContact",
	StateGroundstrokeShotInfo: "GroundstrokeShotInfo",
	StateGroundstrokeLocation: "GroundstrokeLocation",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ActionKind distinguishes the input families a state accepts.
type ActionKind string

const (
	// ActionScore selects a point-score label from the score menu.
	ActionScore ActionKind = "score"
	// ActionClick is a spatial click on the court diagram, in inches.
	ActionClick ActionKind = "click"
	// ActionAce arms the pending-ace flag; the next serve click consumes it.
	ActionAce ActionKind = "ace"
	// ActionLet flags a let without advancing the flow.
	ActionLet ActionKind = "let"
	// ActionHand selects Forehand or Backhand for the current shot.
	ActionHand ActionKind = "hand"
	// ActionToggle flips one of the shot/outcome flags by name.
	ActionToggle ActionKind = "toggle"
)

// Action is one user input driving the machine. TimeMs carries the video
// playback position at the moment of the action. Pixel marks X/Y as raw
// pixel coordinates on the rendered court diagram; the hosting layer
// converts them to inches before the machine sees them.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Label  string     `json:"label,omitempty"`
	X      float64    `json:"x,omitempty"`
	Y      float64    `json:"y,omitempty"`
	Pixel  bool       `json:"pixel,omitempty"`
	TimeMs int64      `json:"time_ms,omitempty"`
}

// Toggle flag labels accepted by StateGroundstrokeLocation.
const (
	ToggleSlice         = "Slice"
	ToggleDropshot      = "Dropshot"
	ToggleApproach      = "Approach"
	ToggleVolley        = "Volley"
	ToggleOverhead      = "Overhead"
	ToggleLob           = "Lob"
	ToggleAtNetPlayer1  = "AtNetPlayer1"
	ToggleAtNetPlayer2  = "AtNetPlayer2"
	ToggleWinner        = "Winner"
	ToggleExcitingPoint = "ExcitingPoint"
	ToggleUnforcedError = "UnforcedError"
)

// Menu lists the labelled actions a state offers. Spatial-click states
// return an empty menu: their sole input is the diagram itself.
func (s State) Menu() []string {
	switch s {
	case StatePointScore:
		return point.PointScores()
	case StateFirstServe, StateSecondServe:
		return []string{"Ace", "Let"}
	case StateGroundstrokeShotInfo:
		return []string{string(point.HandForehand), string(point.HandBackhand)}
	case StateGroundstrokeLocation:
		return []string{
			ToggleSlice, ToggleDropshot, ToggleApproach, ToggleVolley,
			ToggleOverhead, ToggleLob, ToggleAtNetPlayer1, ToggleAtNetPlayer2,
			ToggleWinner, ToggleExcitingPoint, ToggleUnforcedError,
		}
	}
	return nil
}

// FieldWrite is one observable mutation of the active record. The machine
// emits every write discretely so callers can drive an audit or undo
// display.
type FieldWrite struct {
	Field string
	Value interface{}
}

// Playback is the video player collaborator. The machine only reads the
// position to timestamp actions; it never manages the player.
type Playback interface {
	CurrentTimeMs() int64
	SeekTo(ms int64)
}

// settleOffsetMs pads a point's end timestamp past the closing click so
// replay lands after the ball is dead.
const settleOffsetMs = 10

// Machine drives one tagging session for one match. Transitions are
// synchronous and never reject input: an action a state does not understand
// is ignored, and out-of-range clicks classify to a best-effort record.
type Machine struct {
	player1  string
	player2  string
	playback Playback

	state      State
	score      point.ScoreState
	rows       []point.Record
	pendingAce bool
	observer   func(FieldWrite)
}

// NewMachine starts a session at StatePointScore with the given running
// score context.
func NewMachine(player1, player2 string, score point.ScoreState, playback Playback) *Machine {
	return &Machine{
		player1:  player1,
		player2:  player2,
		playback: playback,
		state:    StatePointScore,
		score:    score,
	}
}

// Observe registers a callback invoked for every record field write.
func (m *Machine) Observe(fn func(FieldWrite)) { m.observer = fn }

// State returns the machine's current page.
func (m *Machine) State() State { return m.state }

// Score returns the running score context.
func (m *Machine) Score() point.ScoreState { return m.score }

// UpdateScore replaces the running score context. The UI calls this between
// points when a game or set concludes.
func (m *Machine) UpdateScore(s point.ScoreState) { m.score = s }

// Rows returns the records produced so far, serve rows and shot rows alike,
// in tagging order.
func (m *Machine) Rows() []point.Record { return m.rows }

func (m *Machine) cur() *point.Record {
	if len(m.rows) == 0 {
		return nil
	}
	return &m.rows[len(m.rows)-1]
}

func (m *Machine) write(field string, value interface{}) {
	if m.observer != nil {
		m.observer(FieldWrite{Field: field, Value: value})
	}
}

func (m *Machine) now() int64 {
	if m.playback == nil {
		return 0
	}
	return m.playback.CurrentTimeMs()
}

// nextKey timestamps a new row. PointStartMs is the row's merge identity and
// must stay unique within the match, so when playback has not advanced past
// the previous row's key the new key is bumped one millisecond past it.
func (m *Machine) nextKey() int64 {
	ts := m.now()
	if last := m.cur(); last != nil && ts <= last.PointStartMs {
		ts = last.PointStartMs + 1
	}
	return ts
}

func (m *Machine) receiver() string {
	if m.score.ServerName == m.player1 {
		return m.player2
	}
	return m.player1
}

// striker returns who hit shot n of the rally: odd shots belong to the
// server (shot 1 is the serve), even shots to the receiver.
func (m *Machine) striker(shotInRally int) string {
	if shotInRally%2 == 1 {
		return m.score.ServerName
	}
	return m.receiver()
}

// Apply feeds one action to the machine and returns the resulting state.
func (m *Machine) Apply(a Action) State {
	switch m.state {
	case StatePointScore:
		m.applyPointScore(a)
	case StateServerLocation:
		m.applyServerLocation(a)
	case StateReturnerLocation:
		m.applyReturnerLocation(a)
	case StateFirstServe:
		m.applyFirstServe(a)
	case StateSecondServe:
		m.applySecondServe(a)
	case StateGroundstrokeContact:
		m.applyGroundstrokeContact(a)
	case StateGroundstrokeShotInfo:
		m.applyGroundstrokeShotInfo(a)
	case StateGroundstrokeLocation:
		m.applyGroundstrokeLocation(a)
	}
	return m.state
}

func (m *Machine) applyPointScore(a Action) {
	if a.Kind != ActionScore {
		return
	}

	rec := point.Record{
		PointStartMs: m.nextKey(),
		PointScore:   a.Label,
		GameScore:    m.score.GameScore,
		SetScore:     m.score.SetScore,
		GameNumber:   m.score.GameNumber,
		SetNumber:    m.score.SetNumber,
		IsPointStart: true,
		IsBreakPoint: point.IsBreakPointScore(a.Label),
		ShotInRally:  1,
		Side:         point.SideForScore(a.Label),
		ServerName:   m.score.ServerName,
		ServerEnd:    m.score.ServerEnd,
	}
	m.score.PointScore = a.Label
	m.rows = append(m.rows, rec)

	m.write("point_start_ms", rec.PointStartMs)
	m.write("point_score", rec.PointScore)
	m.write("game_score", rec.GameScore)
	m.write("set_score", rec.SetScore)
	m.write("is_point_start", true)
	m.write("is_break_point", rec.IsBreakPoint)
	m.write("shot_in_rally", 1)
	m.write("side", rec.Side)
	m.write("server_name", rec.ServerName)
	m.write("server_end", rec.ServerEnd)

	m.state = StateServerLocation
}

func (m *Machine) applyServerLocation(a Action) {
	if a.Kind != ActionClick {
		return
	}
	m.cur().ServerStartX = a.X
	m.write("server_start_x", a.X)
	m.state = StateReturnerLocation
}

func (m *Machine) applyReturnerLocation(a Action) {
	if a.Kind != ActionClick {
		return
	}
	m.cur().ReturnerStartX = a.X
	m.write("returner_start_x", a.X)
	m.state = StateFirstServe
}

func (m *Machine) applyFirstServe(a Action) {
	cur := m.cur()
	switch a.Kind {
	case ActionAce:
		m.pendingAce = true
	case ActionLet:
		cur.IsLet = true
		m.write("is_let", true)
	case ActionClick:
		res := court.ClassifyServe(a.X, a.Y, cur.Side, cur.ServerEnd)
		cur.FirstServeX = a.X
		cur.FirstServeY = a.Y
		cur.FirstServeZone = res.Zone
		cur.FirstServeIn = point.BoolPtr(res.In)
		m.write("first_serve_x", a.X)
		m.write("first_serve_y", a.Y)
		m.write("first_serve_zone", res.Zone)
		m.write("first_serve_in", res.In)

		pending := m.pendingAce
		m.pendingAce = false
		switch {
		case res.In && pending:
			m.finalizeAce()
		case res.In:
			m.state = StateGroundstrokeContact
		default:
			m.state = StateSecondServe
		}
	}
}

func (m *Machine) applySecondServe(a Action) {
	cur := m.cur()
	switch a.Kind {
	case ActionAce:
		m.pendingAce = true
	case ActionLet:
		cur.IsLet = true
		m.write("is_let", true)
	case ActionClick:
		res := court.ClassifyServe(a.X, a.Y, cur.Side, cur.ServerEnd)
		cur.SecondServeX = a.X
		cur.SecondServeY = a.Y
		cur.SecondServeZone = res.Zone
		cur.SecondServeIn = point.BoolPtr(res.In)
		m.write("second_serve_x", a.X)
		m.write("second_serve_y", a.Y)
		m.write("second_serve_zone", res.Zone)
		m.write("second_serve_in", res.In)

		pending := m.pendingAce
		m.pendingAce = false
		switch {
		case res.In && pending:
			m.finalizeAce()
		case res.In:
			m.state = StateGroundstrokeContact
		default:
			// Double fault: the point ends with no groundstroke phase.
			m.finalizePoint(m.receiver())
		}
	}
}

func (m *Machine) finalizeAce() {
	cur := m.cur()
	cur.IsAce = true
	cur.IsWinner = true
	m.write("is_ace", true)
	m.write("is_winner", true)
	m.finalizePoint(m.score.ServerName)
}

func (m *Machine) finalizePoint(wonBy string) {
	cur := m.cur()
	cur.IsPointEnd = true
	cur.PointWonBy = wonBy
	cur.PointEndMs = m.now() + settleOffsetMs
	cur.RallyCount = cur.ShotInRally
	m.write("is_point_end", true)
	m.write("point_won_by", wonBy)
	m.write("point_end_ms", cur.PointEndMs)
	m.write("rally_count", cur.RallyCount)
	m.state = StatePointScore
}

func (m *Machine) applyGroundstrokeContact(a Action) {
	if a.Kind != ActionClick {
		return
	}
	prev := m.cur()

	// Each rally shot is its own record: copy the point context forward and
	// advance the shot counter, keyed by its own click timestamp.
	rec := point.Record{
		PointStartMs: m.nextKey(),
		PointScore:   prev.PointScore,
		GameScore:    prev.GameScore,
		SetScore:     prev.SetScore,
		GameNumber:   prev.GameNumber,
		SetNumber:    prev.SetNumber,
		ShotInRally:  prev.ShotInRally + 1,
		Side:         court.SideOfContact(a.X, a.Y),
		ServerName:   prev.ServerName,
		ServerEnd:    prev.ServerEnd,
		ShotContactX: a.X,
		ShotContactY: a.Y,
	}
	m.rows = append(m.rows, rec)

	m.write("point_start_ms", rec.PointStartMs)
	m.write("shot_in_rally", rec.ShotInRally)
	m.write("side", rec.Side)
	m.write("shot_contact_x", a.X)
	m.write("shot_contact_y", a.Y)

	m.state = StateGroundstrokeShotInfo
}

func (m *Machine) applyGroundstrokeShotInfo(a Action) {
	if a.Kind != ActionHand {
		return
	}
	switch point.Hand(a.Label) {
	case point.HandForehand, point.HandBackhand:
		m.cur().ShotHand = point.Hand(a.Label)
		m.write("shot_hand", a.Label)
		m.state = StateGroundstrokeLocation
	}
}

func (m *Machine) applyGroundstrokeLocation(a Action) {
	cur := m.cur()
	switch a.Kind {
	case ActionToggle:
		m.applyToggle(cur, a.Label)
	case ActionClick:
		res := court.ClassifyGroundstroke(cur.ShotContactX, cur.ShotContactY, a.X, a.Y)
		cur.ShotDirection = res.Direction
		cur.SetError(res.Error)
		m.write("shot_direction", res.Direction)
		if res.Error != court.ErrorNone {
			m.write("shot_error", res.Error)
		}

		striker := m.striker(cur.ShotInRally)
		switch {
		case res.Error != court.ErrorNone:
			m.finalizePoint(opponentOf(striker, m.player1, m.player2))
		case cur.IsWinner:
			m.finalizePoint(striker)
		default:
			m.state = StateGroundstrokeContact
		}
	}
}

func (m *Machine) applyToggle(cur *point.Record, label string) {
	switch label {
	case ToggleSlice:
		cur.IsSlice = true
	case ToggleDropshot:
		cur.IsDropshot = true
	case ToggleApproach:
		cur.IsApproach = true
	case ToggleVolley:
		cur.IsVolley = true
	case ToggleOverhead:
		cur.IsOverhead = true
	case ToggleLob:
		cur.IsLob = true
	case ToggleAtNetPlayer1:
		cur.AtNetPlayer1 = true
	case ToggleAtNetPlayer2:
		cur.AtNetPlayer2 = true
	case ToggleWinner:
		cur.IsWinner = true
	case ToggleExcitingPoint:
		cur.IsExcitingPoint = true
	case ToggleUnforcedError:
		cur.IsUnforcedError = true
	default:
		return
	}
	m.write("toggle", label)
}

func opponentOf(name, player1, player2 string) string {
	if name == player1 {
		return player2
	}
	return player1
}
