package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

const fixtureDocument = `{
  "version": 1,
  "records": [
    {"precinct_id": "123", "last_updated": "2024-10-01T12:00:00Z", "priority": "high", "turnout": 0.68},
    {"precinct_id": 125, "last_updated": "2024-10-01T12:05:00Z", "name": "Numeric"}
  ]
}
`

func TestGoldenOutput(t *testing.T) {
	store := filepath.Join(t.TempDir(), "precincts.json")
	require.NoError(t, os.WriteFile(store, []byte(fixtureDocument), 0o600))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	cases := map[string][]string{
		"list_text": {"list"},
		"list_json": {"--format", "json", "list"},
		"get_text":  {"get", "123"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := run(t, store, args...)
			require.NoError(t, err)
			g.Assert(t, name, []byte(out))
		})
	}
}
