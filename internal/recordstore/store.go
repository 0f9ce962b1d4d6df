// Package recordstore keeps a small, uniquely keyed collection of precinct
// records and persists the whole sequence through a Backend on every change.
package recordstore

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Store is safe for concurrent use. Readers share a read lock; mutations
// hold the write lock across build, persist and commit.
type Store struct {
	mu      sync.RWMutex
	records []Record

	backend Backend
	name    string
	now     func() time.Time
	log     *log.Entry
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithClock overrides the time source used for last_updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithName sets the store label used in logs and metrics.
func WithName(name string) Option {
	return func(s *Store) { s.name = name }
}

// WithLogger replaces the default logrus entry.
func WithLogger(l *log.Entry) Option {
	return func(s *Store) { s.log = l }
}

// Open loads the initial sequence from backend. A backend with nothing
// persisted yields an empty store; any other failure is an *InitError.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		name:    "precincts",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = log.WithFields(log.Fields{"component": "recordstore", "store": s.name})
	}

	if err := checkContext(ctx); err != nil {
		return nil, &InitError{Err: err}
	}
	records, err := backend.Load(ctx)
	switch {
	case errors.Is(err, ErrNoDocument):
		s.log.Info("no persisted document, starting empty")
		records = nil
	case err != nil:
		return nil, &InitError{Err: err}
	}

	s.records = records
	recordsGauge.WithLabelValues(s.name).Set(float64(len(records)))
	s.log.WithField("records", len(records)).Debug("store opened")
	return s, nil
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// List returns a deep copy of every record in insertion order.
func (s *Store) List(ctx context.Context) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = cloneRecord(r)
	}
	observe(s.name, "list", resultOK)
	return out
}

// Snapshot encodes the current sequence as a versioned document, the same
// bytes a FileBackend would write.
func (s *Store) Snapshot(ctx context.Context) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return encodeDocument(s.records)
}

// Get returns a copy of the first record whose precinct_id equals id.
func (s *Store) Get(ctx context.Context, id any) (Record, bool) {
	key, err := idKey(id)
	if err != nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(key)
	if i < 0 {
		observe(s.name, "get", resultNotFound)
		return nil, false
	}
	observe(s.name, "get", resultOK)
	return cloneRecord(s.records[i]), true
}

// Add appends rec when no record with the same precinct_id exists. A
// duplicate id reports (false, nil) and changes nothing.
func (s *Store) Add(ctx context.Context, rec any) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	r, err := normalize(rec)
	if err != nil {
		return false, err
	}
	id, ok := r.ID()
	if !ok {
		return false, ErrMissingKey
	}
	key, err := idKey(id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(key) >= 0 {
		observe(s.name, "add", resultDuplicate)
		return false, nil
	}

	r[UpdatedField] = s.stamp(nil)
	next := make([]Record, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, r)

	if err := s.commit(ctx, "add", next); err != nil {
		return false, err
	}
	s.log.WithField("precinct_id", id).Debug("record added")
	return true, nil
}

// Update shallow-merges partial into the first record matching id and
// restamps last_updated. An unknown id reports (false, nil).
func (s *Store) Update(ctx context.Context, id any, partial any) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	key, err := idKey(id)
	if err != nil {
		return false, err
	}
	p, err := normalize(partial)
	if err != nil {
		return false, err
	}
	if pid, ok := p[KeyField]; ok {
		pkey, err := idKey(pid)
		if err != nil {
			return false, err
		}
		if pkey != key {
			return false, ErrKeyChange
		}
	}
	delete(p, UpdatedField)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		observe(s.name, "update", resultNotFound)
		return false, nil
	}

	merged := maps.Clone(s.records[i])
	maps.Copy(merged, p)
	merged[UpdatedField] = s.stamp(s.records[i][UpdatedField])

	next := make([]Record, len(s.records))
	copy(next, s.records)
	next[i] = merged

	if err := s.commit(ctx, "update", next); err != nil {
		return false, err
	}
	s.log.WithField("precinct_id", id).Debug("record updated")
	return true, nil
}

// Delete removes every record matching id. When nothing matches it reports
// (false, nil) without touching the backend.
func (s *Store) Delete(ctx context.Context, id any) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	key, err := idKey(id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if rid, ok := r.ID(); ok {
			if k, err := idKey(rid); err == nil && k == key {
				continue
			}
		}
		next = append(next, r)
	}
	if len(next) == len(s.records) {
		observe(s.name, "delete", resultNotFound)
		return false, nil
	}

	if err := s.commit(ctx, "delete", next); err != nil {
		return false, err
	}
	s.log.WithFields(log.Fields{
		"precinct_id": id,
		"removed":     len(s.records) - len(next),
	}).Debug("record deleted")
	return true, nil
}

// commit persists next and swaps it in only once the backend accepted it.
// Callers hold the write lock.
func (s *Store) commit(ctx context.Context, op string, next []Record) error {
	if err := checkContext(ctx); err != nil {
		observe(s.name, op, resultError)
		return err
	}
	if err := s.backend.Save(ctx, next); err != nil {
		observe(s.name, op, resultError)
		s.log.WithError(err).WithField("op", op).Error("persist failed, keeping previous state")
		if errors.Is(err, ErrCanceled) {
			return err
		}
		return &PersistError{Op: op, Err: err}
	}
	s.records = next
	observe(s.name, op, resultOK)
	recordsGauge.WithLabelValues(s.name).Set(float64(len(next)))
	return nil
}

// stamp returns the current UTC time, nudged forward when the clock has not
// advanced past prev.
func (s *Store) stamp(prev any) string {
	ts := s.now().UTC()
	if p, ok := prev.(string); ok {
		if last, err := time.Parse(time.RFC3339Nano, p); err == nil && !ts.After(last) {
			ts = last.UTC().Add(time.Microsecond)
		}
	}
	return ts.Format(time.RFC3339Nano)
}

func (s *Store) indexOf(key string) int {
	for i, r := range s.records {
		id, ok := r.ID()
		if !ok {
			continue
		}
		if k, err := idKey(id); err == nil && k == key {
			return i
		}
	}
	return -1
}
