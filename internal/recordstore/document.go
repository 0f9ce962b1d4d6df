package recordstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// CurrentVersion is the version tag written into every persisted document.
const CurrentVersion = 1

type document struct {
	Version int      `json:"version"`
	Records []Record `json:"records"`
}

func encodeDocument(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(document{Version: CurrentVersion, Records: records}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// decodeDocument accepts the versioned envelope and the legacy bare array.
func decodeDocument(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("decode document: empty document")
	}

	var records []Record
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	switch trimmed[0] {
	case '[':
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	case '{':
		var doc document
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		if doc.Version != CurrentVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
		}
		records = doc.Records
	default:
		return nil, errors.New("decode document: top-level value must be an object or array")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode document: trailing data after document")
	}

	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("decode document: record %d is not an object", i)
		}
		if _, ok := r.ID(); !ok {
			return nil, fmt.Errorf("decode document: record %d: %w", i, ErrMissingKey)
		}
	}
	return records, nil
}
