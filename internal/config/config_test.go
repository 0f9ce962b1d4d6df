package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "PRECINCT_STORE_BACKEND", "ALLOWED_ORIGINS", "REQUEST_TIMEOUT", "BOUNDARY_ID_PROPERTY", "COORDINATOR_EMAILS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5050", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, StoreFile, cfg.StoreBackend)
	assert.Equal(t, "precinct_strategy.json", cfg.StorePath)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.NotEmpty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.BackupEnabled())
	assert.Equal(t, "PRECINCT", cfg.BoundaryIDProperty)
	assert.Empty(t, cfg.CoordinatorEmails)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://localhost/canvass")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("REQUEST_TIMEOUT", "750ms")
	t.Setenv("BACKUP_S3_BUCKET", "canvass-backups")
	t.Setenv("COORDINATOR_EMAILS", "Lead@Example.org, field@example.org")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.True(t, cfg.BackupEnabled())
	assert.Equal(t, []string{"lead@example.org", "field@example.org"}, cfg.CoordinatorEmails)
}

func TestValidate(t *testing.T) {
	base := Config{DBDriver: DriverSQLite, StoreBackend: StoreFile, RateLimitRPS: 1, RateLimitBurst: 1}
	require.NoError(t, base.Validate())

	pg := base
	pg.DBDriver = DriverPostgres
	assert.ErrorIs(t, pg.Validate(), ErrMissingDatabaseURL)

	bad := base
	bad.DBDriver = "mysql"
	assert.ErrorIs(t, bad.Validate(), ErrUnknownDriver)

	bad = base
	bad.StoreBackend = "s3"
	assert.ErrorIs(t, bad.Validate(), ErrUnknownBackend)

	bad = base
	bad.RateLimitBurst = 0
	assert.ErrorIs(t, bad.Validate(), ErrBadRateLimit)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadCampaign(t *testing.T) {
	c, err := LoadCampaign("")
	require.NoError(t, err)
	assert.Equal(t, DefaultQuickTags, c.QuickTags)
	assert.Equal(t, 50, c.AddressCap)

	path := filepath.Join(t.TempDir(), "campaign.yaml")
	doc := `name: Ward 6 Field
quick_tags: [supportive, opposed]
center:
  lat: 27.77
  lng: -82.64
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err = LoadCampaign(path)
	require.NoError(t, err)
	assert.Equal(t, "Ward 6 Field", c.Name)
	assert.Equal(t, []string{"supportive", "opposed"}, c.QuickTags)
	assert.Equal(t, 50, c.AddressCap)
	assert.InDelta(t, 27.77, c.Center.Lat, 1e-9)
}
