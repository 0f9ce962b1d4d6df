package canvass

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/EmpoweredVote/canvass/internal/addresses"
	log "github.com/sirupsen/logrus"
)

// NoteRecorder stores the automatic note written for a not-home visit.
type NoteRecorder interface {
	RecordNotHome(ctx context.Context, addressID, precinctID, volunteerID, volunteerName string) error
}

// Manager owns every live Session, keyed by volunteer id.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	addresses addresses.Provider
	notes     NoteRecorder
	idleTTL   time.Duration
	now       func() time.Time
	log       *log.Entry
}

func NewManager(provider addresses.Provider, notes NoteRecorder, idleTTL time.Duration) *Manager {
	return &Manager{
		sessions:  map[string]*Session{},
		addresses: provider,
		notes:     notes,
		idleTTL:   idleTTL,
		now:       time.Now,
		log:       log.WithField("component", "canvass"),
	}
}

// Start returns the volunteer's session, creating it if needed.
func (m *Manager) Start(volunteerID, name string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if s, ok := m.sessions[volunteerID]; ok {
		s.touch(now)
		return s
	}
	s := newSession(volunteerID, name, now)
	m.sessions[volunteerID] = s
	m.log.WithField("volunteer_id", volunteerID).Debug("canvass session started")
	return s
}

// Get returns a live session without creating one.
func (m *Manager) Get(volunteerID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[volunteerID]
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// End discards the volunteer's session.
func (m *Manager) End(volunteerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[volunteerID]; ok {
		delete(m.sessions, volunteerID)
		m.log.WithField("volunteer_id", volunteerID).Debug("canvass session ended")
	}
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep ends sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.idleTTL {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.WithField("removed", removed).Info("expired idle canvass sessions")
	}
	return removed
}

// SweepJob adapts Sweep to the scheduler.
func (m *Manager) SweepJob(ctx context.Context) error {
	removed := m.Sweep(m.now())
	m.log.WithFields(log.Fields{"removed": removed, "live": m.Len()}).Debug("canvass session sweep")
	return nil
}

// SelectPrecinct loads the walk list for precinctID into the session.
func (m *Manager) SelectPrecinct(ctx context.Context, s *Session, precinctID string) error {
	precinctID = strings.TrimSpace(precinctID)
	if precinctID == "" {
		return ErrNoPrecinct
	}
	list, err := m.addresses.ForPrecinct(ctx, precinctID)
	if err != nil {
		return fmt.Errorf("load addresses for precinct %s: %w", precinctID, err)
	}
	s.setPrecinct(precinctID, list)
	m.log.WithFields(log.Fields{
		"volunteer_id": s.VolunteerID,
		"precinct_id":  precinctID,
		"addresses":    len(list),
	}).Info("precinct selected")
	return nil
}

// MarkVisit records a door outcome. A not-home outcome also writes the
// standard interaction note; the visit stands even if that write fails.
func (m *Manager) MarkVisit(ctx context.Context, s *Session, addressID string, outcome Outcome) error {
	if err := s.MarkVisit(addressID, outcome, m.now()); err != nil {
		return err
	}
	if outcome != NotHome || m.notes == nil {
		return nil
	}
	if err := m.notes.RecordNotHome(ctx, addressID, s.Precinct(), s.VolunteerID, s.VolunteerName); err != nil {
		return &NoteError{Err: err}
	}
	return nil
}

// NoteError means the visit was recorded but its automatic note was not.
type NoteError struct {
	Err error
}

func (e *NoteError) Error() string { return "record not-home note: " + e.Err.Error() }

func (e *NoteError) Unwrap() error { return e.Err }
