package db

import "gorm.io/gorm"

// EnsureSchema creates a postgres schema if it does not exist. It is a
// no-op on other dialects.
func EnsureSchema(d *gorm.DB, schema string) error {
	if d.Dialector.Name() != "postgres" {
		return nil
	}
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error
}
