package reference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseElectionCSV(t *testing.T) {
	path := writeFile(t, "district6.csv", "\ufeffPrecinct,Ballots Cast,Active Registered Voters,Voter Turnout\n"+
		"123.0,856,\"1,253\",68%\n"+
		"125,1245,2577,0.48\n"+
		",4101,7445,\n")

	rows, err := ParseElectionCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2, "rows without a precinct are skipped")

	assert.Equal(t, ElectionResult{PrecinctID: "123", BallotsCast: 856, RegisteredVoters: 1253, Turnout: 0.68}, rows[0])
	assert.Equal(t, "125", rows[1].PrecinctID)
	assert.InDelta(t, 0.48, rows[1].Turnout, 1e-9)
}

func TestParseElectionCSVErrors(t *testing.T) {
	cases := map[string]string{
		"missing column": "Precinct,Ballots Cast\n123,856\n",
		"no rows":        "Precinct,Ballots Cast,Active Registered Voters,Voter Turnout\n",
		"duplicate":      "Precinct,Ballots Cast,Active Registered Voters,Voter Turnout\n123,1,2,0.5\n123,1,2,0.5\n",
		"bad number":     "Precinct,Ballots Cast,Active Registered Voters,Voter Turnout\n123,many,2,0.5\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseElectionCSV(writeFile(t, "e.csv", body))
			assert.Error(t, err)
		})
	}
}

func TestLoadCensus(t *testing.T) {
	path := writeFile(t, "census.yaml", `"33710":
  total_population: 39000
  median_household_income: 61000
  bachelors_degree_or_higher: 35.5
  employment_rate: 58.1
  total_housing_units: 18000
  without_health_insurance: 11.0
  total_households: 16500
`)
	census, err := LoadCensus(path)
	require.NoError(t, err)
	p, ok := census["33710"]
	require.True(t, ok)
	assert.Equal(t, "33710", p.Zip)
	assert.Equal(t, 39000, p.TotalPopulation)
	assert.InDelta(t, 35.5, p.BachelorsOrHigher, 1e-9)
}

func TestLoaderDefaults(t *testing.T) {
	tables, err := Loader{}.Load(context.Background())
	require.NoError(t, err)

	p, ok := tables.Census("33701")
	require.True(t, ok)
	assert.Equal(t, 9137, p.TotalPopulation)
	assert.Equal(t, []string{"33701", "33705"}, tables.Zips())

	e, ok := tables.Election("131")
	require.True(t, ok)
	assert.Equal(t, 1021, e.BallotsCast)
	assert.Len(t, tables.Elections(), 5)
	assert.Equal(t, "123", tables.Elections()[0].PrecinctID)
}

func TestLoaderPropagatesErrors(t *testing.T) {
	_, err := Loader{ElectionsPath: filepath.Join(t.TempDir(), "missing.csv")}.Load(context.Background())
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	tables := NewTables(defaultCensus(), defaultElections())
	srv := httptest.NewServer(SetupRoutes(tables))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/census/33705")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p CensusProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, 11300, p.TotalHouseholds)

	for path, want := range map[string]int{
		"/census/99999":   http.StatusNotFound,
		"/elections":      http.StatusOK,
		"/elections/130":  http.StatusOK,
		"/elections/nope": http.StatusNotFound,
		"/census":         http.StatusOK,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}
