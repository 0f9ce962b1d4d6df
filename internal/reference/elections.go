package reference

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ElectionResult is one precinct's turnout in the reference election.
// Turnout is a fraction, 0.68 meaning 68%.
type ElectionResult struct {
	PrecinctID       string  `json:"precinct_id"`
	BallotsCast      int     `json:"ballots_cast"`
	RegisteredVoters int     `json:"registered_voters"`
	Turnout          float64 `json:"turnout"`
}

func defaultElections() []ElectionResult {
	return []ElectionResult{
		{PrecinctID: "123", BallotsCast: 856, RegisteredVoters: 1253, Turnout: 0.68},
		{PrecinctID: "125", BallotsCast: 1245, RegisteredVoters: 2577, Turnout: 0.48},
		{PrecinctID: "130", BallotsCast: 932, RegisteredVoters: 1615, Turnout: 0.58},
		{PrecinctID: "131", BallotsCast: 1021, RegisteredVoters: 1842, Turnout: 0.55},
		{PrecinctID: "133", BallotsCast: 1156, RegisteredVoters: 2103, Turnout: 0.55},
	}
}

var electionColumns = []string{"Precinct", "Ballots Cast", "Active Registered Voters", "Voter Turnout"}

// ParseElectionCSV reads the supervisor-of-elections export. An empty path
// returns the built-in sample rows.
func ParseElectionCSV(path string) ([]ElectionResult, error) {
	if path == "" {
		return defaultElections(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.New("csv has no data rows")
	}

	header := records[0]
	// Excel exports lead with a BOM.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, k := range electionColumns {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	seen := map[string]bool{}
	var out []ElectionResult
	for rowIdx := 1; rowIdx < len(records); rowIdx++ {
		rec := records[rowIdx]
		get := func(name string) string {
			i := col[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		id := precinctID(get("Precinct"))
		if id == "" {
			// Totals and footer lines carry no precinct.
			continue
		}
		if seen[id] {
			return nil, fmt.Errorf("row %d: duplicate precinct %q", rowIdx+1, id)
		}
		seen[id] = true

		ballots, err := parseCount(get("Ballots Cast"))
		if err != nil {
			return nil, fmt.Errorf("row %d: Ballots Cast: %w", rowIdx+1, err)
		}
		registered, err := parseCount(get("Active Registered Voters"))
		if err != nil {
			return nil, fmt.Errorf("row %d: Active Registered Voters: %w", rowIdx+1, err)
		}
		turnout, err := parseShare(get("Voter Turnout"))
		if err != nil {
			return nil, fmt.Errorf("row %d: Voter Turnout: %w", rowIdx+1, err)
		}

		out = append(out, ElectionResult{
			PrecinctID:       id,
			BallotsCast:      ballots,
			RegisteredVoters: registered,
			Turnout:          turnout,
		})
	}
	return out, nil
}

// precinctID turns spreadsheet numbers like "123.0" into "123".
func precinctID(s string) string {
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

func parseCount(s string) (int, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// parseShare accepts "0.68", "68%" and "68" and returns 0.68.
func parseShare(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	pct := strings.HasSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, err
	}
	if pct || f > 1 {
		f /= 100
	}
	return f, nil
}
