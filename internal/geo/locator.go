// Package geo assigns coordinates to precincts. The spatial join is
// pluggable: PostGIS in production, an in-memory polygon set otherwise.
package geo

import (
	"context"
	"encoding/json"
)

// Locator answers which precinct contains a point.
type Locator interface {
	// PrecinctAt returns the precinct containing (lat, lng). ok is false
	// when the point falls outside every known boundary.
	PrecinctAt(ctx context.Context, lat, lng float64) (precinctID string, ok bool, err error)
	// PrecinctsAt resolves many points at once. The result is parallel to
	// points, with "" for points outside every boundary.
	PrecinctsAt(ctx context.Context, points []Point) ([]string, error)
	// Boundary returns the precinct's geometry as GeoJSON, or ok=false
	// when no boundary is known for it.
	Boundary(ctx context.Context, precinctID string) (geojson json.RawMessage, ok bool, err error)
}

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
