package notes

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// InteractionNote records one contact attempt at one address.
type InteractionNote struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AddressID     string    `gorm:"index;not null" json:"address_id"`
	PrecinctID    string    `gorm:"index" json:"precinct_id"`
	VolunteerID   string    `gorm:"index" json:"volunteer_id,omitempty"`
	VolunteerName string    `json:"volunteer_name"`
	NoteText      string    `gorm:"type:text;not null" json:"note_text"`
	Tags          Tags      `gorm:"type:text" json:"tags"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// Tags is stored as a comma-joined string so the column is portable
// between postgres and sqlite.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	return strings.Join(t, ","), nil
}

func (t *Tags) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}
	*t = splitTags(s)
	return nil
}

func splitTags(s string) Tags {
	out := Tags{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var lower = cases.Lower(language.English)

// NormalizeTags lower-cases tags, joins words with hyphens and drops
// blanks and repeats, keeping first-seen order.
func NormalizeTags(in []string) Tags {
	out := Tags{}
	seen := make(map[string]bool, len(in))
	for _, raw := range in {
		tag := strings.Join(strings.Fields(lower.String(raw)), "-")
		tag = strings.ReplaceAll(tag, ",", "")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
