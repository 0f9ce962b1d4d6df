package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/canvass/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boundaries = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"PRECINCT": 123, "NAME": "Downtown"},
   "geometry": {"type": "Polygon", "coordinates": [[[-82.65,27.76],[-82.63,27.76],[-82.63,27.78],[-82.65,27.78],[-82.65,27.76]]]}}
]}`

func TestNewLocatorLoadsBoundariesOnSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "precincts.geojson")
	require.NoError(t, os.WriteFile(path, []byte(boundaries), 0o600))
	ctx := context.Background()

	l, err := newLocator(ctx, config.Config{
		DBDriver:             config.DriverSQLite,
		BoundariesPath:       path,
		BoundaryIDProperty:   "PRECINCT",
		BoundaryNameProperty: "NAME",
	})
	require.NoError(t, err)
	require.NotNil(t, l)

	id, ok, err := l.PrecinctAt(ctx, 27.77, -82.64)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "123", id)
}

func TestNewLocatorWithoutBoundaries(t *testing.T) {
	l, err := newLocator(context.Background(), config.Config{DBDriver: config.DriverSQLite})
	require.NoError(t, err)
	assert.Nil(t, l)

	_, err = newLocator(context.Background(), config.Config{
		DBDriver:           config.DriverSQLite,
		BoundariesPath:     filepath.Join(t.TempDir(), "missing.geojson"),
		BoundaryIDProperty: "PRECINCT",
	})
	assert.Error(t, err)
}
