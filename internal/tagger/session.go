package tagger

import (
	"sync"

	"github.com/courtside-data/pointlog/internal/court"
	"github.com/courtside-data/pointlog/internal/point"
)

// ManualPlayback is a Playback whose position is fed in externally. Server
// hosted sessions use it: the browser owns the video element and reports the
// position with each action.
type ManualPlayback struct {
	mu sync.Mutex
	ms int64
}

func (p *ManualPlayback) CurrentTimeMs() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ms
}

func (p *ManualPlayback) SeekTo(ms int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ms = ms
}

// Session wraps one machine with the lock and playback feed a concurrent
// HTTP surface needs. Transitions remain strictly sequential per session.
type Session struct {
	MatchID string

	mu       sync.Mutex
	machine  *Machine
	playback *ManualPlayback
}

// NewSession starts a tagging session for a match. The initial server and
// end seed the score context; the opening score is love all.
func NewSession(m point.Match, serverName string, serverEnd court.End) *Session {
	pb := &ManualPlayback{}
	score := point.NewScoreState(serverName, serverEnd)
	return &Session{
		MatchID:  m.ID,
		machine:  NewMachine(m.Player1Name, m.Player2Name, score, pb),
		playback: pb,
	}
}

// Apply advances the session's machine by one action, updating the playback
// position first when the action carries one.
func (s *Session) Apply(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.TimeMs > 0 {
		s.playback.SeekTo(a.TimeMs)
	}
	return s.machine.Apply(a)
}

// State returns the session's current page.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Rows returns a copy of the records tagged so far.
func (s *Session) Rows() []point.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]point.Record, len(s.machine.Rows()))
	copy(rows, s.machine.Rows())
	return rows
}

// UpdateScore replaces the running score context, for game and set
// boundaries the out-of-scope scoreboard UI decides.
func (s *Session) UpdateScore(score point.ScoreState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.UpdateScore(score)
}

// Score returns the running score context.
func (s *Session) Score() point.ScoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Score()
}

// Registry tracks the live tagging session per match.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Get returns the session for a match, or nil if none is open.
func (r *Registry) Get(matchID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[matchID]
}

// Open returns the existing session for the match or starts one.
func (r *Registry) Open(m point.Match, serverName string, serverEnd court.End) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[m.ID]; ok {
		return s
	}
	s := NewSession(m, serverName, serverEnd)
	r.sessions[m.ID] = s
	return s
}

// Close drops the session for a match, typically after its rows have been
// merged and persisted.
func (r *Registry) Close(matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, matchID)
}
