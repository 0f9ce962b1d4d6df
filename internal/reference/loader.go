package reference

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Tables holds the read-only lookup data. It is never mutated after Load.
type Tables struct {
	census    map[string]CensusProfile
	elections map[string]ElectionResult
	order     []string
}

// NewTables builds lookup tables from already-parsed rows.
func NewTables(census map[string]CensusProfile, elections []ElectionResult) *Tables {
	t := &Tables{
		census:    make(map[string]CensusProfile, len(census)),
		elections: make(map[string]ElectionResult, len(elections)),
	}
	for k, v := range census {
		t.census[k] = v
	}
	for _, e := range elections {
		t.elections[e.PrecinctID] = e
		t.order = append(t.order, e.PrecinctID)
	}
	return t
}

func (t *Tables) Census(zip string) (CensusProfile, bool) {
	p, ok := t.census[zip]
	return p, ok
}

func (t *Tables) Election(precinctID string) (ElectionResult, bool) {
	e, ok := t.elections[precinctID]
	return e, ok
}

// Elections returns every result in file order.
func (t *Tables) Elections() []ElectionResult {
	out := make([]ElectionResult, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.elections[id])
	}
	return out
}

// Zips lists the postal codes with a census profile, sorted.
func (t *Tables) Zips() []string {
	out := make([]string, 0, len(t.census))
	for z := range t.census {
		out = append(out, z)
	}
	sort.Strings(out)
	return out
}

// Loader reads the reference files. Empty paths select built-in data.
type Loader struct {
	CensusPath    string
	ElectionsPath string
}

// Load reads both sources concurrently.
func (l Loader) Load(ctx context.Context) (*Tables, error) {
	var (
		census    map[string]CensusProfile
		elections []ElectionResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := LoadCensus(l.CensusPath)
		if err != nil {
			return fmt.Errorf("census: %w", err)
		}
		census = c
		return ctx.Err()
	})
	g.Go(func() error {
		e, err := ParseElectionCSV(l.ElectionsPath)
		if err != nil {
			return fmt.Errorf("elections: %w", err)
		}
		elections = e
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"component": "reference",
		"zips":      len(census),
		"precincts": len(elections),
	}).Info("reference data loaded")
	return NewTables(census, elections), nil
}
