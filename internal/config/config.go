package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Driver selects the relational database used for notes and volunteers.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// StoreBackend selects where the precinct record store persists.
type StoreBackend string

const (
	StoreFile  StoreBackend = "file"
	StoreTable StoreBackend = "table"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
	ErrUnknownDriver      = errors.New("DB_DRIVER must be postgres or sqlite")
	ErrUnknownBackend     = errors.New("PRECINCT_STORE_BACKEND must be file or table")
	ErrBadRateLimit       = errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
)

// Config is the server configuration read from the environment.
type Config struct {
	Port string

	DBDriver    Driver
	DatabaseURL string
	SQLitePath  string

	StorePath    string
	StoreBackend StoreBackend

	CampaignPath        string
	VoterRollPath       string
	ElectionResultsPath string
	CensusPath          string

	BoundariesPath       string
	BoundaryIDProperty   string
	BoundaryNameProperty string

	CoordinatorEmails []string

	AllowedOrigins []string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	SessionIdleTTL time.Duration

	BackupBucket   string
	BackupRegion   string
	BackupEndpoint string
	BackupInterval time.Duration

	LogLevel         string
	GoogleMapsAPIKey string
}

// Load reads configuration from environment variables.
//
// Environment variables:
//   - PORT (default 5050)
//   - DB_DRIVER: "sqlite" or "postgres" (default sqlite)
//   - DATABASE_URL: postgres DSN
//   - SQLITE_PATH (default canvassing_data.db)
//   - PRECINCT_STORE_PATH (default precinct_strategy.json)
//   - PRECINCT_STORE_BACKEND: "file" or "table" (default file)
//   - CAMPAIGN_CONFIG, VOTER_ROLL_PATH, ELECTION_RESULTS_PATH, CENSUS_PATH
//   - BOUNDARIES_PATH: GeoJSON FeatureCollection of precinct polygons
//   - BOUNDARY_ID_PROPERTY (default PRECINCT), BOUNDARY_NAME_PROPERTY (default NAME)
//   - COORDINATOR_EMAILS: comma separated, granted the coordinator role
//   - ALLOWED_ORIGINS: comma separated
//   - REQUEST_TIMEOUT (default 5s), SESSION_IDLE_TTL (default 2h)
//   - RATE_LIMIT_RPS (default 5), RATE_LIMIT_BURST (default 10)
//   - BACKUP_S3_BUCKET, BACKUP_S3_REGION, BACKUP_S3_ENDPOINT, BACKUP_INTERVAL (default 15m)
//   - LOG_LEVEL (default info), GOOGLE_MAPS_API_KEY
func Load() (Config, error) {
	cfg := Config{
		Port:                envOr("PORT", "5050"),
		DBDriver:            Driver(strings.ToLower(envOr("DB_DRIVER", string(DriverSQLite)))),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SQLitePath:          envOr("SQLITE_PATH", "canvassing_data.db"),
		StorePath:           envOr("PRECINCT_STORE_PATH", "precinct_strategy.json"),
		StoreBackend:        StoreBackend(strings.ToLower(envOr("PRECINCT_STORE_BACKEND", string(StoreFile)))),
		CampaignPath:        os.Getenv("CAMPAIGN_CONFIG"),
		VoterRollPath:       os.Getenv("VOTER_ROLL_PATH"),
		ElectionResultsPath: os.Getenv("ELECTION_RESULTS_PATH"),
		CensusPath:          os.Getenv("CENSUS_PATH"),
		BoundariesPath:      os.Getenv("BOUNDARIES_PATH"),
		CoordinatorEmails:   splitList(strings.ToLower(os.Getenv("COORDINATOR_EMAILS"))),
		AllowedOrigins:      splitList(os.Getenv("ALLOWED_ORIGINS")),
		BackupBucket:        os.Getenv("BACKUP_S3_BUCKET"),
		BackupRegion:        envOr("BACKUP_S3_REGION", "us-east-1"),
		BackupEndpoint:      os.Getenv("BACKUP_S3_ENDPOINT"),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		GoogleMapsAPIKey:    os.Getenv("GOOGLE_MAPS_API_KEY"),
	}
	cfg.BoundaryIDProperty = envOr("BOUNDARY_ID_PROPERTY", "PRECINCT")
	cfg.BoundaryNameProperty = envOr("BOUNDARY_NAME_PROPERTY", "NAME")
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8501"}
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return cfg, err
	}
	if cfg.SessionIdleTTL, err = durationEnv("SESSION_IDLE_TTL", 2*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.BackupInterval, err = durationEnv("BACKUP_INTERVAL", 15*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.RateLimitRPS, err = floatEnv("RATE_LIMIT_RPS", 5); err != nil {
		return cfg, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 10); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks that the selected drivers have what they need.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DBDriver)
	}
	switch c.StoreBackend {
	case StoreFile, StoreTable:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.StoreBackend)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return ErrBadRateLimit
	}
	return nil
}

// BackupEnabled reports whether S3 snapshots are configured.
func (c Config) BackupEnabled() bool { return c.BackupBucket != "" }

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
