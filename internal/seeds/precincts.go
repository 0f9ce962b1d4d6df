package seeds

import (
	"context"
	"fmt"

	"github.com/EmpoweredVote/canvass/internal/recordstore"
	"github.com/EmpoweredVote/canvass/internal/reference"
	log "github.com/sirupsen/logrus"
)

// SeedPrecincts adds one strategy record per precinct in the election
// results. Precincts already in the store are left alone. It returns the
// number of records created.
func SeedPrecincts(ctx context.Context, store *recordstore.Store, tables *reference.Tables) (int, error) {
	logger := log.WithField("component", "seeds")

	created := 0
	for _, e := range tables.Elections() {
		rec := recordstore.Record{
			recordstore.KeyField: e.PrecinctID,
			"name":               "Precinct " + e.PrecinctID,
			"turnout":            e.Turnout,
			"ballots_cast":       e.BallotsCast,
			"registered_voters":  e.RegisteredVoters,
		}
		added, err := store.Add(ctx, rec)
		if err != nil {
			return created, fmt.Errorf("seed precinct %s: %w", e.PrecinctID, err)
		}
		if !added {
			logger.WithField("precinct_id", e.PrecinctID).Debug("precinct exists, skipping")
			continue
		}
		created++
	}

	logger.WithFields(log.Fields{"created": created, "total": store.Len()}).Info("seeded precincts")
	return created, nil
}
