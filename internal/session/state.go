// Package session keeps per-browser UI state in memory.
//
// State never outlives the process. Each browser is identified by an opaque
// id handed out in a cookie; unknown or expired ids get fresh state.
package session

import (
	"context"
	"sync"
	"time"

	"habitjournal/internal/journal"
	"habitjournal/internal/logging"
	"habitjournal/internal/tags"

	"github.com/google/uuid"
)

// Level is the severity of a flash message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Level   Level
	Message string
}

// State is the UI state of one browser session.
type State struct {
	// ShowEditor toggles the bulk editor on the entry page.
	ShowEditor bool

	// Analysis is the last generated analysis, rendered until replaced.
	Analysis string

	// Loaded is the table the dashboard was last loaded with; nil until the
	// user asks for it.
	Loaded *journal.Table

	// EmotionFilter is the selected Emotion Before value on the dashboard.
	EmotionFilter string

	// Selected holds the tag labels picked per group, in pick order.
	Selected map[tags.Group][]string

	flashes  []Flash
	lastSeen time.Time
}

func newState(now time.Time) *State {
	return &State{
		Selected: make(map[tags.Group][]string),
		lastSeen: now,
	}
}

// Flash queues a message for the next render.
func (s *State) Flash(level Level, msg string) {
	s.flashes = append(s.flashes, Flash{Level: level, Message: msg})
}

// TakeFlashes returns and clears the queued messages.
func (s *State) TakeFlashes() []Flash {
	out := s.flashes
	s.flashes = nil
	return out
}

// SetSelected replaces the picks for g.
func (s *State) SetSelected(g tags.Group, labels []string) {
	s.Selected[g] = append([]string(nil), labels...)
}

// ResetEntry clears the tag picks after an entry is saved.
func (s *State) ResetEntry() {
	s.Selected = make(map[tags.Group][]string)
}

type entry struct {
	mu    sync.Mutex
	state *State
}

// Store maps session ids to state.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	maxIdle  time.Duration
	now      func() time.Time
}

// NewStore creates a store. Sessions idle longer than maxIdle are dropped by
// Sweep; zero keeps them forever.
func NewStore(maxIdle time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		maxIdle:  maxIdle,
		now:      time.Now,
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

func (st *Store) acquire(id string) (string, *entry) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if e, ok := st.sessions[id]; ok && id != "" {
		e.state.lastSeen = now
		return id, e
	}

	id = NewID()
	e := &entry{state: newState(now)}
	st.sessions[id] = e
	logging.Session("created session %s (%d active)", id, len(st.sessions))
	return id, e
}

// Do runs fn with exclusive access to the state for id, creating it when id
// is unknown. It returns the id actually used, which differs from the input
// when a new session was created.
func (st *Store) Do(id string, fn func(*State)) string {
	id, e := st.acquire(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
	return id
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions idle longer than the store's limit and returns how
// many were removed.
func (st *Store) Sweep() int {
	if st.maxIdle <= 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-st.maxIdle)
	removed := 0
	for id, e := range st.sessions {
		if e.state.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logging.Session("swept %d idle sessions", removed)
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (st *Store) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st.Sweep()
		}
	}
}
