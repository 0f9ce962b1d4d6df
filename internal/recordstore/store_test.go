package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	records []Record
	saveErr error
	saves   int
}

func (b *failingBackend) Load(ctx context.Context) ([]Record, error) {
	if b.records == nil {
		return nil, ErrNoDocument
	}
	return b.records, nil
}

func (b *failingBackend) Save(ctx context.Context, records []Record) error {
	b.saves++
	return b.saveErr
}

func openFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "precinct_strategy.json")
	s, err := Open(context.Background(), NewFileBackend(path))
	require.NoError(t, err)
	return s, path
}

func TestStoreScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := openFileStore(t)

	ok, err := s.Add(ctx, map[string]any{"precinct_id": "123", "name": "Precinct 123"})
	require.NoError(t, err)
	assert.True(t, ok)

	list := s.List(ctx)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].String(UpdatedField))

	ok, err = s.Add(ctx, map[string]any{"precinct_id": "123", "name": "Other"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.List(ctx), 1)

	ok, err = s.Update(ctx, "123", map[string]any{"name": "Updated"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, found := s.Get(ctx, "123")
	require.True(t, found)
	assert.Equal(t, "Updated", got.String("name"))
	assert.Equal(t, "123", got.String(KeyField))

	ok, err = s.Delete(ctx, "123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, s.List(ctx))

	ok, err = s.Delete(ctx, "123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := openFileStore(t)

	ids := []string{"131", "123", "133", "125"}
	for _, id := range ids {
		ok, err := s.Add(ctx, Record{"precinct_id": id})
		require.NoError(t, err)
		require.True(t, ok)
	}

	list := s.List(ctx)
	require.Len(t, list, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, list[i].String(KeyField))
	}
}

func TestAddDuplicateLeavesDocumentUntouched(t *testing.T) {
	ctx := context.Background()
	s, path := openFileStore(t)

	_, err := s.Add(ctx, Record{"precinct_id": "123", "name": "first"})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	ok, err := s.Add(ctx, Record{"precinct_id": "123", "name": "second"})
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, _ := s.Get(ctx, "123")
	assert.Equal(t, "first", got.String("name"))
}

func TestAddRequiresKey(t *testing.T) {
	s, _ := openFileStore(t)

	_, err := s.Add(context.Background(), Record{"name": "nameless"})
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = s.Add(context.Background(), Record{"precinct_id": nil})
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = s.Add(context.Background(), []string{"not", "an", "object"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestIDsCompareByExactValue(t *testing.T) {
	ctx := context.Background()
	s, _ := openFileStore(t)

	ok, err := s.Add(ctx, Record{"precinct_id": "123"})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Add(ctx, Record{"precinct_id": 123})
	require.NoError(t, err)
	require.True(t, ok, "number and string ids are distinct")

	_, found := s.Get(ctx, json.Number("123"))
	assert.True(t, found)
	_, found = s.Get(ctx, " 123")
	assert.False(t, found)
	assert.Len(t, s.List(ctx), 2)
}

func TestUpdateMergesShallowly(t *testing.T) {
	ctx := context.Background()
	s, _ := openFileStore(t)

	_, err := s.Add(ctx, Record{
		"precinct_id": "125",
		"name":        "Precinct 125",
		"priority":    "high",
		"targets":     map[string]any{"doors": 100, "calls": 40},
	})
	require.NoError(t, err)
	before, _ := s.Get(ctx, "125")

	ok, err := s.Update(ctx, "125", Record{"targets": map[string]any{"doors": 50}})
	require.NoError(t, err)
	require.True(t, ok)

	after, _ := s.Get(ctx, "125")
	assert.Equal(t, before["name"], after["name"])
	assert.Equal(t, before["priority"], after["priority"])
	assert.Equal(t, map[string]any{"doors": json.Number("50")}, after["targets"])
	assert.NotEqual(t, before[UpdatedField], after[UpdatedField])
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	b := &failingBackend{}
	s, err := Open(ctx, b)
	require.NoError(t, err)

	ok, err := s.Update(ctx, "404", Record{"name": "ghost"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Zero(t, b.saves)
}

func TestUpdateRejectsKeyChange(t *testing.T) {
	ctx := context.Background()
	s, _ := openFileStore(t)
	_, err := s.Add(ctx, Record{"precinct_id": "130"})
	require.NoError(t, err)

	_, err = s.Update(ctx, "130", Record{"precinct_id": "131"})
	assert.ErrorIs(t, err, ErrKeyChange)

	ok, err := s.Update(ctx, "130", Record{"precinct_id": "130", "name": "same key"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateIgnoresCallerTimestamp(t *testing.T) {
	ctx := context.Background()
	s, _ := openFileStore(t)
	_, err := s.Add(ctx, Record{"precinct_id": "130"})
	require.NoError(t, err)

	_, err = s.Update(ctx, "130", Record{UpdatedField: "1999-01-01T00:00:00Z"})
	require.NoError(t, err)

	got, _ := s.Get(ctx, "130")
	assert.NotEqual(t, "1999-01-01T00:00:00Z", got.String(UpdatedField))
}

func TestLastUpdatedStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2024, 11, 5, 7, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(ctx, NewFileBackend(path), WithClock(func() time.Time { return frozen }))
	require.NoError(t, err)

	_, err = s.Add(ctx, Record{"precinct_id": "133"})
	require.NoError(t, err)

	prev, _ := s.Get(ctx, "133")
	for i := 0; i < 3; i++ {
		ok, err := s.Update(ctx, "133", Record{"round": i})
		require.NoError(t, err)
		require.True(t, ok)

		cur, _ := s.Get(ctx, "133")
		p, err := time.Parse(time.RFC3339Nano, prev.String(UpdatedField))
		require.NoError(t, err)
		c, err := time.Parse(time.RFC3339Nano, cur.String(UpdatedField))
		require.NoError(t, err)
		assert.True(t, c.After(p), "stamp %s should follow %s", c, p)
		prev = cur
	}
}

func TestDeleteRemovesEveryDuplicate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	doc := `[
  {"precinct_id": "123", "name": "a"},
  {"precinct_id": "125"},
  {"precinct_id": "123", "name": "b"}
]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := Open(ctx, NewFileBackend(path))
	require.NoError(t, err)

	got, ok := s.Get(ctx, "123")
	require.True(t, ok)
	assert.Equal(t, "a", got.String("name"), "first match wins")

	ok, err = s.Delete(ctx, "123")
	require.NoError(t, err)
	assert.True(t, ok)

	list := s.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "125", list[0].String(KeyField))
}

func TestRoundTripReopen(t *testing.T) {
	ctx := context.Background()
	s, path := openFileStore(t)

	for _, r := range []Record{
		{"precinct_id": "123", "turnout": 0.68, "tags": []any{"urban", "north"}},
		{"precinct_id": 125, "name": "Numeric"},
	} {
		_, err := s.Add(ctx, r)
		require.NoError(t, err)
	}
	written, err := os.ReadFile(path)
	require.NoError(t, err)

	reopened, err := Open(ctx, NewFileBackend(path))
	require.NoError(t, err)
	assert.Equal(t, s.List(ctx), reopened.List(ctx))

	afterLoad, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, written, afterLoad, "loading must not rewrite the document")
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	s, err := Open(context.Background(), NewFileBackend(path))
	require.NoError(t, err)
	assert.Empty(t, s.List(context.Background()))

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"malformed":       `{"version": 1, "records": [`,
		"unknown version": `{"version": 7, "records": []}`,
		"scalar":          `"precincts"`,
		"missing key":     `[{"name": "no id"}]`,
		"empty":           ``,
		"extra bracket":   `[{"precinct_id":"1"}]]`,
		"extra brace":     `{"version":1,"records":[]}}`,
		"second document": `[] []`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store.json")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

			_, err := Open(context.Background(), NewFileBackend(path))
			var initErr *InitError
			assert.ErrorAs(t, err, &initErr)
		})
	}
}

func TestLegacyArrayIsRewrittenAsEnvelope(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"precinct_id":"123"}]`), 0o600))

	s, err := Open(ctx, NewFileBackend(path))
	require.NoError(t, err)
	_, err = s.Add(ctx, Record{"precinct_id": "125"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Version int              `json:"version"`
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, CurrentVersion, doc.Version)
	assert.Len(t, doc.Records, 2)
}

func TestPersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	b := &failingBackend{records: []Record{{"precinct_id": "123", "name": "kept"}}}
	s, err := Open(ctx, b)
	require.NoError(t, err)

	b.saveErr = errors.New("disk full")

	_, err = s.Add(ctx, Record{"precinct_id": "999"})
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "add", perr.Op)

	_, err = s.Update(ctx, "123", Record{"name": "lost"})
	require.ErrorAs(t, err, &perr)

	_, err = s.Delete(ctx, "123")
	require.ErrorAs(t, err, &perr)

	list := s.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "kept", list[0].String("name"))
}

func TestFileBackendUnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	s, err := Open(ctx, NewFileBackend(path))
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	_, err = s.Add(ctx, Record{"precinct_id": "123"})
	var perr *PersistError
	assert.ErrorAs(t, err, &perr)
	assert.Zero(t, s.Len())
}

func TestListReturnsIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := openFileStore(t)
	_, err := s.Add(ctx, Record{"precinct_id": "123", "streets": []any{"MAIN ST"}})
	require.NoError(t, err)

	list := s.List(ctx)
	list[0]["name"] = "mutated"
	list[0]["streets"].([]any)[0] = "OAK AVE"

	got, _ := s.Get(ctx, "123")
	assert.NotContains(t, got, "name")
	assert.Equal(t, []any{"MAIN ST"}, got["streets"])

	input := Record{"precinct_id": "125", "nested": map[string]any{"k": "v"}}
	_, err = s.Add(ctx, input)
	require.NoError(t, err)
	input["nested"].(map[string]any)["k"] = "changed"

	got, _ = s.Get(ctx, "125")
	assert.Equal(t, map[string]any{"k": "v"}, got["nested"])
}

func TestCanceledContextIsRetryable(t *testing.T) {
	s, _ := openFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Add(ctx, Record{"precinct_id": "123"})
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Len())

	_, err = Open(ctx, NewFileBackend(filepath.Join(t.TempDir(), "x.json")))
	var initErr *InitError
	assert.ErrorAs(t, err, &initErr)
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s, path := openFileStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.Add(ctx, Record{"precinct_id": n % 20})
			assert.NoError(t, err)
			_ = s.List(ctx)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())

	reopened, err := Open(ctx, NewFileBackend(path))
	require.NoError(t, err)
	assert.Equal(t, 20, reopened.Len())
}

func TestSnapshotMatchesPersistedDocument(t *testing.T) {
	ctx := context.Background()
	s, path := openFileStore(t)
	_, err := s.Add(ctx, Record{"precinct_id": "123"})
	require.NoError(t, err)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, onDisk, snap)
}
