package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// StaticLocator holds precinct polygons in memory. Each polygon is a
// single outer ring of points; the ring may be open or closed.
type StaticLocator struct {
	ids      []string
	polygons map[string][]Point
}

func NewStaticLocator(polygons map[string][]Point) *StaticLocator {
	s := &StaticLocator{polygons: make(map[string][]Point, len(polygons))}
	for id, ring := range polygons {
		if len(ring) < 3 {
			continue
		}
		s.polygons[id] = append([]Point(nil), ring...)
		s.ids = append(s.ids, id)
	}
	// Deterministic answer when polygons overlap.
	sort.Strings(s.ids)
	return s
}

func (s *StaticLocator) PrecinctAt(ctx context.Context, lat, lng float64) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	p := Point{Lat: lat, Lng: lng}
	for _, id := range s.ids {
		if contains(s.polygons[id], p) {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (s *StaticLocator) PrecinctsAt(ctx context.Context, points []Point) ([]string, error) {
	out := make([]string, len(points))
	for i, p := range points {
		id, _, err := s.PrecinctAt(ctx, p.Lat, p.Lng)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

func (s *StaticLocator) Boundary(ctx context.Context, precinctID string) (json.RawMessage, bool, error) {
	ring, ok := s.polygons[precinctID]
	if !ok {
		return nil, false, nil
	}
	coords := make([][2]float64, 0, len(ring)+1)
	for _, p := range ring {
		coords = append(coords, [2]float64{p.Lng, p.Lat})
	}
	if ring[0] != ring[len(ring)-1] {
		coords = append(coords, [2]float64{ring[0].Lng, ring[0].Lat})
	}
	raw, err := json.Marshal(map[string]any{
		"type":        "Polygon",
		"coordinates": [][][2]float64{coords},
	})
	if err != nil {
		return nil, false, fmt.Errorf("encode boundary: %w", err)
	}
	return raw, true, nil
}

// contains is the even-odd ray casting test. Points on an edge may land
// on either side.
func contains(ring []Point, p Point) bool {
	in := false
	j := len(ring) - 1
	for i := range ring {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				in = !in
			}
		}
		j = i
	}
	return in
}
