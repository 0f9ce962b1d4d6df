package recordstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// KeyField is the unique, opaque identifier every record must carry.
	KeyField = "precinct_id"
	// UpdatedField is owned by the store and restamped on every create or update.
	UpdatedField = "last_updated"
)

// Record is one precinct entry. Apart from KeyField and UpdatedField the
// fields are caller-defined and opaque to the store.
type Record map[string]any

// ID returns the record's precinct_id value, if present.
func (r Record) ID() (any, bool) {
	v, ok := r[KeyField]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the string field name, or "" when it is absent or not a string.
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// idKey canonicalises an id to its JSON encoding. Ids are compared by exact
// JSON value: "123" and 123 are different ids, 123 and json.Number("123") are not.
func idKey(id any) (string, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return string(b), nil
}

// normalize round-trips a caller value through JSON so that memory holds
// exactly what the backend will persist and shares nothing with the caller.
func normalize(v any) (Record, error) {
	if v == nil {
		return nil, ErrInvalidRecord
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	var out Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if out == nil {
		return nil, ErrInvalidRecord
	}
	return out, nil
}

func cloneRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = cloneValue(vv)
		}
		return m
	case Record:
		return cloneRecord(x)
	case []any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}
