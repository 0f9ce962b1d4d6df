package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordSnapshot is the relational home of a record sequence: one row per
// store, holding the same versioned document the file backend writes.
type RecordSnapshot struct {
	Bucket    string `gorm:"primaryKey;size:100"`
	Version   int    `gorm:"not null"`
	Payload   []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableBackend persists the sequence to a database table through gorm.
type TableBackend struct {
	db     *gorm.DB
	bucket string
}

// NewTableBackend returns a backend storing its snapshot under bucket.
func NewTableBackend(db *gorm.DB, bucket string) *TableBackend {
	if bucket == "" {
		bucket = "precincts"
	}
	return &TableBackend{db: db, bucket: bucket}
}

// Migrate creates the snapshot table if needed.
func (b *TableBackend) Migrate(ctx context.Context) error {
	if err := b.db.WithContext(ctx).AutoMigrate(&RecordSnapshot{}); err != nil {
		return fmt.Errorf("migrate record snapshots: %w", err)
	}
	return nil
}

func (b *TableBackend) Load(ctx context.Context) ([]Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	var snap RecordSnapshot
	err := b.db.WithContext(ctx).First(&snap, "bucket = ?", b.bucket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot %s: %w", b.bucket, err)
	}
	return decodeDocument(snap.Payload)
}

func (b *TableBackend) Save(ctx context.Context, records []Record) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	payload, err := encodeDocument(records)
	if err != nil {
		return err
	}
	snap := RecordSnapshot{
		Bucket:    b.bucket,
		Version:   CurrentVersion,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	err = b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "payload", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", b.bucket, err)
	}
	return nil
}
