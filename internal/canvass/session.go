package canvass

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/EmpoweredVote/canvass/internal/addresses"
)

// Outcome is the result of knocking on one door.
type Outcome string

const (
	Contacted Outcome = "contacted"
	NotHome   Outcome = "not_home"
	Skipped   Outcome = "skipped"
)

func (o Outcome) Valid() bool {
	switch o {
	case Contacted, NotHome, Skipped:
		return true
	}
	return false
}

var (
	ErrNoPrecinct     = errors.New("no precinct selected")
	ErrUnknownAddress = errors.New("address is not on the walk list")
	ErrAlreadyVisited = errors.New("address already visited")
	ErrInvalidOutcome = errors.New("outcome must be contacted, not_home or skipped")
)

// Visit is a recorded door outcome.
type Visit struct {
	Outcome Outcome   `json:"outcome"`
	At      time.Time `json:"at"`
}

// Session is one volunteer's working state: the chosen precinct, its walk
// list and what has been visited. It lives from login (or first use) until
// logout or idle expiry.
type Session struct {
	VolunteerID   string
	VolunteerName string

	mu         sync.Mutex
	precinctID string
	list       []addresses.Address
	index      map[string]int
	visits     map[string]Visit
	selected   string
	lastSeen   time.Time
}

func newSession(volunteerID, name string, now time.Time) *Session {
	return &Session{
		VolunteerID:   volunteerID,
		VolunteerName: name,
		index:         map[string]int{},
		visits:        map[string]Visit{},
		lastSeen:      now,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Precinct returns the selected precinct, or "" when none is selected.
func (s *Session) Precinct() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.precinctID
}

// setPrecinct installs a walk list. Switching precincts clears visits.
func (s *Session) setPrecinct(precinctID string, list []addresses.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if precinctID != s.precinctID {
		s.visits = map[string]Visit{}
		s.selected = ""
	}
	s.precinctID = precinctID
	s.list = append([]addresses.Address(nil), list...)
	s.index = make(map[string]int, len(list))
	for i, a := range s.list {
		s.index[a.ID] = i
	}
}

// AddressView is a walk-list entry with its visit state.
type AddressView struct {
	addresses.Address
	Visit *Visit `json:"visit,omitempty"`
}

// Addresses returns the walk list in order with visit state attached.
func (s *Session) Addresses() []AddressView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AddressView, len(s.list))
	for i, a := range s.list {
		out[i] = AddressView{Address: a}
		if v, ok := s.visits[a.ID]; ok {
			out[i].Visit = &v
		}
	}
	return out
}

// Address looks up one walk-list entry.
func (s *Session) Address(addressID string) (addresses.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[addressID]
	if !ok {
		return addresses.Address{}, false
	}
	return s.list[i], true
}

// Select marks an address as the one the volunteer is standing at.
func (s *Session) Select(addressID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.precinctID == "" {
		return ErrNoPrecinct
	}
	if _, ok := s.index[addressID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, addressID)
	}
	s.selected = addressID
	return nil
}

// Selected returns the address the volunteer last selected.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// MarkVisit records an outcome for an address on the walk list. Each
// address can be visited once per session.
func (s *Session) MarkVisit(addressID string, outcome Outcome, at time.Time) error {
	if !outcome.Valid() {
		return ErrInvalidOutcome
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.precinctID == "" {
		return ErrNoPrecinct
	}
	if _, ok := s.index[addressID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, addressID)
	}
	if _, done := s.visits[addressID]; done {
		return ErrAlreadyVisited
	}
	s.visits[addressID] = Visit{Outcome: outcome, At: at.UTC()}
	return nil
}

// Coverage is the share of the walk list already visited.
type Coverage struct {
	PrecinctID string          `json:"precinct_id"`
	Visited    int             `json:"visited"`
	Total      int             `json:"total"`
	Remaining  int             `json:"remaining"`
	Percent    float64         `json:"percent"`
	Outcomes   map[Outcome]int `json:"outcomes"`
}

func (s *Session) Coverage() Coverage {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Coverage{
		PrecinctID: s.precinctID,
		Visited:    len(s.visits),
		Total:      len(s.list),
		Outcomes:   map[Outcome]int{Contacted: 0, NotHome: 0, Skipped: 0},
	}
	for _, v := range s.visits {
		c.Outcomes[v.Outcome]++
	}
	c.Remaining = c.Total - c.Visited
	if c.Total > 0 {
		c.Percent = float64(c.Visited) / float64(c.Total) * 100
	}
	return c
}
