package seeds

import (
	"context"

	"github.com/EmpoweredVote/canvass/internal/recordstore"
	"github.com/EmpoweredVote/canvass/internal/reference"
)

// SeedAll fills an empty deployment with starter data.
func SeedAll(ctx context.Context, store *recordstore.Store, tables *reference.Tables) error {
	if _, err := SeedPrecincts(ctx, store, tables); err != nil {
		return err
	}
	return nil
}
