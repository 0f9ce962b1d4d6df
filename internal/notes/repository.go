package notes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotHomeText is the note recorded automatically for a not-home visit.
const NotHomeText = "Resident not home during canvassing visit."

var (
	ErrEmptyNote      = errors.New("note text is required")
	ErrMissingAddress = errors.New("address id is required")
)

// Repository stores interaction notes.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create validates and inserts n, filling ID and CreatedAt.
func (r *Repository) Create(ctx context.Context, n *InteractionNote) error {
	n.NoteText = strings.TrimSpace(n.NoteText)
	n.AddressID = strings.TrimSpace(n.AddressID)
	if n.AddressID == "" {
		return ErrMissingAddress
	}
	if n.NoteText == "" {
		return ErrEmptyNote
	}
	n.Tags = NormalizeTags(n.Tags)
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// RecordNotHome stores the automatic note for a not-home visit.
func (r *Repository) RecordNotHome(ctx context.Context, addressID, precinctID, volunteerID, volunteerName string) error {
	return r.Create(ctx, &InteractionNote{
		AddressID:     addressID,
		PrecinctID:    precinctID,
		VolunteerID:   volunteerID,
		VolunteerName: volunteerName,
		NoteText:      NotHomeText,
		Tags:          Tags{"not-home"},
	})
}

// ListByAddress returns an address's notes, newest first.
func (r *Repository) ListByAddress(ctx context.Context, addressID string) ([]InteractionNote, error) {
	var out []InteractionNote
	err := r.db.WithContext(ctx).
		Where("address_id = ?", addressID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}

// TagCount is how many notes carry a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagCounts tallies tags across a precinct's notes, or all notes when
// precinctID is empty. Sorted by count, then tag.
func (r *Repository) TagCounts(ctx context.Context, precinctID string) ([]TagCount, error) {
	q := r.db.WithContext(ctx).Model(&InteractionNote{})
	if precinctID != "" {
		q = q.Where("precinct_id = ?", precinctID)
	}
	var rows []string
	if err := q.Pluck("tags", &rows).Error; err != nil {
		return nil, fmt.Errorf("tag counts: %w", err)
	}

	counts := map[string]int{}
	for _, joined := range rows {
		for _, tag := range splitTags(joined) {
			counts[tag]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

// ContactedAddresses counts distinct addresses with at least one note in a
// precinct.
func (r *Repository) ContactedAddresses(ctx context.Context, precinctID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&InteractionNote{}).
		Where("precinct_id = ?", precinctID).
		Distinct("address_id").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count contacted addresses: %w", err)
	}
	return n, nil
}
