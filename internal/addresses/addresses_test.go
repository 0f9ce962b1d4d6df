package addresses

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/canvass/internal/geo"
	"github.com/EmpoweredVote/canvass/internal/geo/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rollJSON = `[
  {"STR_NUM": 100, "STR_NAME": "MAIN ST", "STR_UNIT": null, "STR_ZIP": "33701",
   "OWNER1": "DOE, JANE", "OWNER2": "", "PROPERTY_USE": "0110 Single Family",
   "HX_YN": "Yes", "SITE_CITYZIP": "ST PETERSBURG, FL 33701", "LATITUDE": 27.77, "LONGITUDE": -82.64},
  {"STR_NUM": "", "STR_NAME": "NOWHERE RD"},
  {"STR_NUM": "210", "STR_NAME": "OAK AVE", "STR_UNIT": "#2", "STR_ZIP": "33705",
   "OWNER1": "ROE, RICHARD", "PROPERTY_USE": "", "HX_YN": "No", "SITE_CITYZIP": "ST PETERSBURG, FL 33705"},
  {"STR_NUM": 300, "STR_NAME": "PINE ST", "LATITUDE": "27.79", "LONGITUDE": "-82.64"}
]`

func writeRoll(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roll.json")
	require.NoError(t, os.WriteFile(path, []byte(rollJSON), 0o600))
	return path
}

func TestLoadVoterRoll(t *testing.T) {
	roll, err := LoadVoterRoll(writeRoll(t))
	require.NoError(t, err)
	require.Len(t, roll, 3, "rows without a street number are skipped")

	first := roll[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "100 MAIN ST", first.Address)
	assert.Equal(t, "Single Family", first.PropertyType)
	assert.True(t, first.OwnerOccupied)
	assert.True(t, first.HasLocation)

	second := roll[1]
	assert.Equal(t, "3", second.ID, "ids keep the row position")
	assert.Equal(t, "210 OAK AVE #2", second.Address)
	assert.Equal(t, "Unknown", second.PropertyType)
	assert.False(t, second.OwnerOccupied)
	assert.False(t, second.HasLocation)

	assert.InDelta(t, 27.79, roll[2].Latitude, 1e-9)
}

func TestLoadVoterRollErrors(t *testing.T) {
	_, err := LoadVoterRoll(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0o600))
	_, err = LoadVoterRoll(path)
	assert.Error(t, err)
}

func TestSample(t *testing.T) {
	list := Sample("123")
	require.Len(t, list, 20)
	assert.Equal(t, "123-1", list[0].ID)
	assert.Equal(t, "100 MAIN ST", list[0].Address)
	assert.Equal(t, "SMITH, JANE", list[0].Owner2)
	assert.Equal(t, "#0", list[0].Unit)
	assert.Equal(t, "110 OAK AVE", list[1].Address)
	assert.Equal(t, "Condominium", list[1].PropertyType)

	assert.Len(t, Sample("3"), 6)
	assert.Len(t, Sample("north"), 20)
	assert.Equal(t, Sample("125"), Sample("125"), "sample data is deterministic")
}

type stubGeocoder struct {
	calls int
	res   map[string]*geocoding.Result
}

func (g *stubGeocoder) Geocode(ctx context.Context, address string) (*geocoding.Result, error) {
	g.calls++
	if r, ok := g.res[address]; ok {
		return r, nil
	}
	return nil, errors.New("not found")
}

func testLocator() *geo.StaticLocator {
	return geo.NewStaticLocator(map[string][]geo.Point{
		"123": {{Lat: 27.76, Lng: -82.65}, {Lat: 27.76, Lng: -82.63}, {Lat: 27.78, Lng: -82.63}, {Lat: 27.78, Lng: -82.65}},
		"125": {{Lat: 27.78, Lng: -82.65}, {Lat: 27.78, Lng: -82.63}, {Lat: 27.80, Lng: -82.63}, {Lat: 27.80, Lng: -82.65}},
	})
}

func TestSourceAssignsByLocation(t *testing.T) {
	roll, err := LoadVoterRoll(writeRoll(t))
	require.NoError(t, err)

	gc := &stubGeocoder{res: map[string]*geocoding.Result{
		"210 OAK AVE #2, ST PETERSBURG, FL 33705": {Lat: 27.765, Lng: -82.64},
	}}
	src := NewSource(roll, testLocator(), WithGeocoder(gc))
	ctx := context.Background()

	list, err := src.ForPrecinct(ctx, "123")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "3", list[1].ID)
	assert.Equal(t, "123", list[1].PrecinctID)
	assert.True(t, list[1].HasLocation)

	list, err = src.ForPrecinct(ctx, "125")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "300 PINE ST", list[0].Address)

	assert.Equal(t, 1, gc.calls, "geocoded coordinates are cached")
}

type countingLocator struct {
	*geo.StaticLocator
	single, batches int
}

func (l *countingLocator) PrecinctAt(ctx context.Context, lat, lng float64) (string, bool, error) {
	l.single++
	return l.StaticLocator.PrecinctAt(ctx, lat, lng)
}

func (l *countingLocator) PrecinctsAt(ctx context.Context, points []geo.Point) ([]string, error) {
	l.batches++
	return l.StaticLocator.PrecinctsAt(ctx, points)
}

func TestSourceLocatesInOneBatch(t *testing.T) {
	roll, err := LoadVoterRoll(writeRoll(t))
	require.NoError(t, err)

	loc := &countingLocator{StaticLocator: testLocator()}
	list, err := NewSource(roll, loc).ForPrecinct(context.Background(), "125")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "4", list[0].ID)
	assert.Equal(t, 1, loc.batches)
	assert.Zero(t, loc.single, "rows are not looked up one at a time")
}

func TestSourceCap(t *testing.T) {
	roll, err := LoadVoterRoll(writeRoll(t))
	require.NoError(t, err)

	list, err := NewSource(roll, testLocator(), WithCap(1)).ForPrecinct(context.Background(), "123")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSourceFallsBackToSample(t *testing.T) {
	ctx := context.Background()

	list, err := NewSource(nil, testLocator()).ForPrecinct(ctx, "130")
	require.NoError(t, err)
	assert.Equal(t, Sample("130"), list)

	roll, err := LoadVoterRoll(writeRoll(t))
	require.NoError(t, err)
	list, err = NewSource(roll, testLocator()).ForPrecinct(ctx, "999")
	require.NoError(t, err)
	assert.Equal(t, Sample("999"), list, "unknown boundary serves sample data")
}
