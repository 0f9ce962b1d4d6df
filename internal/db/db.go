package db

import (
	"fmt"
	"time"

	"github.com/EmpoweredVote/canvass/internal/config"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Schema is the postgres schema every canvass table lives in.
const Schema = "canvass"

var DB *gorm.DB

// Connect opens the configured database and stores it in DB.
func Connect(cfg config.Config) error {
	d, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = d
	log.WithField("driver", cfg.DBDriver).Info("connected to database")
	return nil
}

// Open returns a gorm handle for cfg. Postgres tables are prefixed with the
// canvass schema, which is created if missing; sqlite uses bare table names.
func Open(cfg config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: newLogger()}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
		gcfg.NamingStrategy = schema.NamingStrategy{TablePrefix: Schema + "."}
	case config.DriverSQLite:
		// WAL lets the dashboard read while a note is being written.
		dialector = sqlite.Open(cfg.SQLitePath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.DBDriver)
	}

	d, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.DBDriver == config.DriverPostgres {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		if err := EnsureSchema(d, Schema); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	} else {
		sqlDB.SetMaxOpenConns(1)
	}
	return d, nil
}

// newLogger routes gorm's SQL log through logrus and flags slow queries.
func newLogger() logger.Interface {
	level := logger.Warn
	if log.IsLevelEnabled(log.DebugLevel) {
		level = logger.Info
	}
	return logger.New(
		log.StandardLogger(),
		logger.Config{
			SlowThreshold:             100 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
