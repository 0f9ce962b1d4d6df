package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/canvass/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	cfg := config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "canvass.db"),
	}
	d, err := Open(cfg)
	require.NoError(t, err)

	require.NoError(t, EnsureSchema(d, Schema), "schema creation is skipped on sqlite")

	var one int
	require.NoError(t, d.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.Config{DBDriver: "oracle"})
	assert.ErrorIs(t, err, config.ErrUnknownDriver)
}

func TestOpenPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping postgres test")
	}
	d, err := Open(config.Config{DBDriver: config.DriverPostgres, DatabaseURL: dsn})
	require.NoError(t, err)

	var exists bool
	require.NoError(t, d.Raw(
		"SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = ?)", Schema,
	).Scan(&exists).Error)
	assert.True(t, exists)
}
