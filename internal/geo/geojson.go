package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// BoundaryFeature is one precinct polygon read from a GeoJSON file.
type BoundaryFeature struct {
	PrecinctID string
	Name       string
	Geometry   json.RawMessage
}

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		Properties map[string]any  `json:"properties"`
		Geometry   json.RawMessage `json:"geometry"`
	} `json:"features"`
}

// ReadBoundaries parses a GeoJSON FeatureCollection. idProp names the
// feature property holding the precinct id; nameProp is optional.
func ReadBoundaries(r io.Reader, idProp, nameProp string) ([]BoundaryFeature, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var fc featureCollection
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode boundaries: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("decode boundaries: expected FeatureCollection, got %q", fc.Type)
	}

	out := make([]BoundaryFeature, 0, len(fc.Features))
	seen := make(map[string]bool, len(fc.Features))
	for i, f := range fc.Features {
		id := propertyString(f.Properties[idProp])
		if id == "" {
			return nil, fmt.Errorf("feature %d: missing %q property", i, idProp)
		}
		if seen[id] {
			return nil, fmt.Errorf("feature %d: duplicate precinct %s", i, id)
		}
		seen[id] = true
		if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
			return nil, fmt.Errorf("feature %d: precinct %s has no geometry", i, id)
		}
		name := propertyString(f.Properties[nameProp])
		if name == "" {
			name = "Precinct " + id
		}
		out = append(out, BoundaryFeature{PrecinctID: id, Name: name, Geometry: f.Geometry})
	}
	return out, nil
}

// ReadBoundariesFile opens path and calls ReadBoundaries.
func ReadBoundariesFile(path, idProp, nameProp string) ([]BoundaryFeature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBoundaries(f, idProp, nameProp)
}

// Shapefile exports often store precinct numbers as floats.
func propertyString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return strings.TrimSuffix(t.String(), ".0")
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// OuterRing returns the outer ring of a Polygon, or of the first polygon
// of a MultiPolygon.
func OuterRing(geometry json.RawMessage) ([]Point, error) {
	var g struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(geometry, &g); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}

	var rings [][][]float64
	switch g.Type {
	case "Polygon":
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("decode multipolygon: %w", err)
		}
		if len(polys) > 0 {
			rings = polys[0]
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
	if len(rings) == 0 {
		return nil, errors.New("geometry has no rings")
	}

	ring := make([]Point, 0, len(rings[0]))
	for _, c := range rings[0] {
		if len(c) < 2 {
			return nil, errors.New("coordinate needs lng and lat")
		}
		ring = append(ring, Point{Lat: c[1], Lng: c[0]})
	}
	return ring, nil
}

// NewStaticLocatorFromFeatures builds an in-memory locator from imported
// boundaries. Only the outer ring of each polygon is kept.
func NewStaticLocatorFromFeatures(features []BoundaryFeature) (*StaticLocator, error) {
	polygons := make(map[string][]Point, len(features))
	for _, f := range features {
		ring, err := OuterRing(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("precinct %s: %w", f.PrecinctID, err)
		}
		polygons[f.PrecinctID] = ring
	}
	return NewStaticLocator(polygons), nil
}

// ImportBoundaries upserts every feature and returns how many were written.
func (l *PostGISLocator) ImportBoundaries(ctx context.Context, features []BoundaryFeature, source string) (int, error) {
	for i, f := range features {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := l.ImportBoundary(ctx, f.PrecinctID, f.Name, source, f.Geometry); err != nil {
			return i, err
		}
	}
	return len(features), nil
}
