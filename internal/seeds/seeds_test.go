package seeds

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/canvass/internal/recordstore"
	"github.com/EmpoweredVote/canvass/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPrecinctsSkipsExisting(t *testing.T) {
	ctx := context.Background()
	store, err := recordstore.Open(ctx, recordstore.NewFileBackend(filepath.Join(t.TempDir(), "precincts.json")))
	require.NoError(t, err)

	_, err = store.Add(ctx, recordstore.Record{"precinct_id": "125", "name": "Hand entered"})
	require.NoError(t, err)

	tables, err := reference.Loader{}.Load(ctx)
	require.NoError(t, err)

	created, err := SeedPrecincts(ctx, store, tables)
	require.NoError(t, err)
	assert.Equal(t, 4, created)
	assert.Equal(t, 5, store.Len())

	rec, ok := store.Get(ctx, "125")
	require.True(t, ok)
	assert.Equal(t, "Hand entered", rec.String("name"))

	rec, ok = store.Get(ctx, "123")
	require.True(t, ok)
	assert.Equal(t, "Precinct 123", rec.String("name"))
	assert.NotEmpty(t, rec.String(recordstore.UpdatedField))

	require.NoError(t, SeedAll(ctx, store, tables))
	assert.Equal(t, 5, store.Len())
}
