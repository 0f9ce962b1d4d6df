package addresses

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// rollValue accepts a JSON string, number or null from the property export.
type rollValue string

func (v *rollValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = rollValue(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*v = rollValue(n.String())
	}
	return nil
}

type rollRow struct {
	StreetNumber rollValue `json:"STR_NUM"`
	StreetName   rollValue `json:"STR_NAME"`
	Unit         rollValue `json:"STR_UNIT"`
	Zip          rollValue `json:"STR_ZIP"`
	Owner1       rollValue `json:"OWNER1"`
	Owner2       rollValue `json:"OWNER2"`
	PropertyUse  rollValue `json:"PROPERTY_USE"`
	Homestead    rollValue `json:"HX_YN"`
	CityZip      rollValue `json:"SITE_CITYZIP"`
	Latitude     rollValue `json:"LATITUDE"`
	Longitude    rollValue `json:"LONGITUDE"`
}

// LoadVoterRoll reads a property-record export: a JSON array of rows keyed
// by the county appraiser's column names. Rows without a street number or
// name are skipped. Address ids are the 1-based row position in the file.
func LoadVoterRoll(path string) ([]Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voter roll: %w", err)
	}
	var rows []rollRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse voter roll %s: %w", path, err)
	}

	out := make([]Address, 0, len(rows))
	for i, row := range rows {
		if row.StreetNumber == "" || row.StreetName == "" {
			continue
		}
		a := Address{
			ID:            strconv.Itoa(i + 1),
			Owner1:        string(row.Owner1),
			Owner2:        string(row.Owner2),
			Address:       joinNonEmpty(string(row.StreetNumber), string(row.StreetName), string(row.Unit)),
			CityZip:       string(row.CityZip),
			StreetNumber:  string(row.StreetNumber),
			StreetName:    string(row.StreetName),
			Unit:          string(row.Unit),
			ZipCode:       string(row.Zip),
			PropertyType:  propertyType(string(row.PropertyUse)),
			OwnerOccupied: strings.EqualFold(string(row.Homestead), "yes"),
		}
		lat, errLat := strconv.ParseFloat(string(row.Latitude), 64)
		lng, errLng := strconv.ParseFloat(string(row.Longitude), 64)
		if errLat == nil && errLng == nil {
			a.Latitude, a.Longitude, a.HasLocation = lat, lng, true
		}
		out = append(out, a)
	}
	return out, nil
}

// propertyType drops the leading use code, "0110 Single Family" -> "Single Family".
func propertyType(use string) string {
	use = strings.TrimSpace(use)
	if use == "" {
		return "Unknown"
	}
	if code, rest, ok := strings.Cut(use, " "); ok && isDigits(code) {
		return strings.TrimSpace(rest)
	}
	return use
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
