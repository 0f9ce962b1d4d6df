package precincts

import (
	"context"
	"fmt"

	"github.com/EmpoweredVote/canvass/internal/config"
	"github.com/EmpoweredVote/canvass/internal/recordstore"
	"gorm.io/gorm"
)

// OpenStore opens the precinct store on the backend cfg selects. The table
// backend needs d; the file backend ignores it.
func OpenStore(ctx context.Context, cfg config.Config, d *gorm.DB) (*recordstore.Store, error) {
	var backend recordstore.Backend
	switch cfg.StoreBackend {
	case config.StoreTable:
		if d == nil {
			return nil, fmt.Errorf("table backend requires a database")
		}
		tb := recordstore.NewTableBackend(d, "precincts")
		if err := tb.Migrate(ctx); err != nil {
			return nil, err
		}
		backend = tb
	default:
		backend = recordstore.NewFileBackend(cfg.StorePath)
	}
	return recordstore.Open(ctx, backend, recordstore.WithName("precincts"))
}
