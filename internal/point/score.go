package point

import "github.com/courtside-data/pointlog/internal/court"

// scoreLabel carries the fixed per-label conventions of the point-score
// menu: which service box the label implies and whether it is a break
// opportunity for the receiver. Side follows the parity of points already
// played in the game; break points are the labels from which the receiver
// wins the game with the next point.
type scoreLabel struct {
	side       court.Side
	breakPoint bool
}

var scoreLabels = map[string]scoreLabel{
	"0-0":   {court.SideDeuce, false},
	"15-0":  {court.SideAd, false},
	"30-0":  {court.SideDeuce, false},
	"40-0":  {court.SideAd, false},
	"0-15":  {court.SideAd, false},
	"15-15": {court.SideDeuce, false},
	"30-15": {court.SideAd, false},
	"40-15": {court.SideDeuce, false},
	"0-30":  {court.SideDeuce, false},
	"15-30": {court.SideAd, false},
	"30-30": {court.SideDeuce, false},
	"40-30": {court.SideAd, false},
	"0-40":  {court.SideAd, true},
	"15-40": {court.SideDeuce, true},
	"30-40": {court.SideAd, true},
	"40-40": {court.SideDeuce, false},
	"Ad-40": {court.SideAd, false},
	"40-Ad": {court.SideAd, true},
}

// ValidPointScore reports whether label is one of the fixed score menu
// entries.
func ValidPointScore(label string) bool {
	_, ok := scoreLabels[label]
	return ok
}

// SideForScore returns the service box implied by a point-score label.
// Unknown labels default to the deuce side so tagging never blocks on a
// bad label.
func SideForScore(label string) court.Side {
	if l, ok := scoreLabels[label]; ok {
		return l.side
	}
	return court.SideDeuce
}

// IsBreakPointScore reports whether the label represents a break
// opportunity for the receiver.
func IsBreakPointScore(label string) bool {
	return scoreLabels[label].breakPoint
}

// PointScores lists the score menu in display order.
func PointScores() []string {
	return []string{
		"0-0", "15-0", "30-0", "40-0",
		"0-15", "15-15", "30-15", "40-15",
		"0-30", "15-30", "30-30", "40-30",
		"0-40", "15-40", "30-40",
		"40-40", "Ad-40", "40-Ad",
	}
}

// ScoreState is the running score context threaded through a tagging
// session. It replaces what earlier tooling kept in shared mutable
// counters: everything the machine stamps onto a new record lives here,
// and the UI mutates it through explicit methods between points.
type ScoreState struct {
	PointScore string
	GameScore  string
	SetScore   string
	GameNumber int
	SetNumber  int

	ServerName string
	ServerEnd  court.End
}

// NewScoreState returns the state at the start of a match.
func NewScoreState(serverName string, serverEnd court.End) ScoreState {
	return ScoreState{
		PointScore: "0-0",
		GameScore:  "0-0",
		SetScore:   "0-0",
		GameNumber: 1,
		SetNumber:  1,
		ServerName: serverName,
		ServerEnd:  serverEnd,
	}
}

// SetGameScore records a new game score, advancing the game counter when it
// actually changed.
func (s *ScoreState) SetGameScore(gs string) {
	if gs != s.GameScore {
		s.GameScore = gs
		s.GameNumber++
	}
}

// SetSetScore records a new set score, advancing the set counter when it
// actually changed.
func (s *ScoreState) SetSetScore(ss string) {
	if ss != s.SetScore {
		s.SetScore = ss
		s.SetNumber++
	}
}

// ChangeServer hands the serve to the named player. Ends swap every game in
// practice but the diagram orientation is what matters here, so the caller
// states it explicitly.
func (s *ScoreState) ChangeServer(name string, end court.End) {
	s.ServerName = name
	s.ServerEnd = end
}
