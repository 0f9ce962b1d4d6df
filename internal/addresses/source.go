package addresses

import (
	"context"
	"fmt"
	"sync"

	"github.com/EmpoweredVote/canvass/internal/geo"
	"github.com/EmpoweredVote/canvass/internal/geo/geocoding"
	log "github.com/sirupsen/logrus"
)

// DefaultCap bounds the walk list handed to one volunteer.
const DefaultCap = 50

// lookupBatch is how many roll rows go to the locator per query.
const lookupBatch = 500

// Geocoder resolves a street address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocoding.Result, error)
}

// Provider hands out the walk list for a precinct.
type Provider interface {
	ForPrecinct(ctx context.Context, precinctID string) ([]Address, error)
}

// Source assigns voter-roll addresses to precincts through a Locator.
// Without a roll or a locator it serves Sample data.
type Source struct {
	roll     []Address
	locator  geo.Locator
	geocoder Geocoder
	cap      int
	log      *log.Entry

	mu     sync.Mutex
	coords map[string]geo.Point
}

type SourceOption func(*Source)

func WithGeocoder(g Geocoder) SourceOption {
	return func(s *Source) { s.geocoder = g }
}

func WithCap(n int) SourceOption {
	return func(s *Source) {
		if n > 0 {
			s.cap = n
		}
	}
}

func NewSource(roll []Address, locator geo.Locator, opts ...SourceOption) *Source {
	s := &Source{
		roll:    roll,
		locator: locator,
		cap:     DefaultCap,
		log:     log.WithField("component", "addresses"),
		coords:  make(map[string]geo.Point),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForPrecinct returns up to the configured cap of addresses inside the
// precinct, in voter-roll order.
func (s *Source) ForPrecinct(ctx context.Context, precinctID string) ([]Address, error) {
	if len(s.roll) == 0 || s.locator == nil {
		return Sample(precinctID), nil
	}
	if _, ok, err := s.locator.Boundary(ctx, precinctID); err != nil {
		return nil, fmt.Errorf("load boundary for %s: %w", precinctID, err)
	} else if !ok {
		s.log.WithField("precinct_id", precinctID).Info("no boundary for precinct, serving sample addresses")
		return Sample(precinctID), nil
	}

	var out []Address
	for start := 0; start < len(s.roll) && len(out) < s.cap; start += lookupBatch {
		end := min(start+lookupBatch, len(s.roll))

		var batch []Address
		var points []geo.Point
		for _, a := range s.roll[start:end] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if p, ok := s.locate(ctx, a); ok {
				a.Latitude, a.Longitude, a.HasLocation = p.Lat, p.Lng, true
				batch = append(batch, a)
				points = append(points, p)
			}
		}
		if len(points) == 0 {
			continue
		}

		ids, err := s.locator.PrecinctsAt(ctx, points)
		if err != nil {
			return nil, fmt.Errorf("locate addresses: %w", err)
		}
		for i, a := range batch {
			if ids[i] != precinctID {
				continue
			}
			a.PrecinctID = precinctID
			out = append(out, a)
			if len(out) >= s.cap {
				break
			}
		}
	}
	return out, nil
}

// locate returns the address coordinates, geocoding and caching them when
// the roll has none.
func (s *Source) locate(ctx context.Context, a Address) (geo.Point, bool) {
	if a.HasLocation {
		return geo.Point{Lat: a.Latitude, Lng: a.Longitude}, true
	}
	if s.geocoder == nil {
		return geo.Point{}, false
	}

	s.mu.Lock()
	p, ok := s.coords[a.ID]
	s.mu.Unlock()
	if ok {
		return p, true
	}

	res, err := s.geocoder.Geocode(ctx, a.Address+", "+a.CityZip)
	if err != nil {
		s.log.WithError(err).WithField("address_id", a.ID).Debug("geocode failed")
		return geo.Point{}, false
	}
	p = geo.Point{Lat: res.Lat, Lng: res.Lng}
	s.mu.Lock()
	s.coords[a.ID] = p
	s.mu.Unlock()
	return p, true
}
