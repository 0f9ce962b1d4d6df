package reference

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// CensusProfile is the ACS summary for one postal code. Shares are
// percentages, 54.2 meaning 54.2%.
type CensusProfile struct {
	Zip                    string  `yaml:"-" json:"zip"`
	TotalPopulation        int     `yaml:"total_population" json:"total_population"`
	MedianHouseholdIncome  int     `yaml:"median_household_income" json:"median_household_income"`
	BachelorsOrHigher      float64 `yaml:"bachelors_degree_or_higher" json:"bachelors_degree_or_higher"`
	EmploymentRate         float64 `yaml:"employment_rate" json:"employment_rate"`
	TotalHousingUnits      int     `yaml:"total_housing_units" json:"total_housing_units"`
	WithoutHealthInsurance float64 `yaml:"without_health_insurance" json:"without_health_insurance"`
	TotalHouseholds        int     `yaml:"total_households" json:"total_households"`
}

func defaultCensus() map[string]CensusProfile {
	return map[string]CensusProfile{
		"33701": {
			Zip:                    "33701",
			TotalPopulation:        9137,
			MedianHouseholdIncome:  67098,
			BachelorsOrHigher:      54.2,
			EmploymentRate:         60.3,
			TotalHousingUnits:      6487,
			WithoutHealthInsurance: 9.2,
			TotalHouseholds:        4632,
		},
		"33705": {
			Zip:                    "33705",
			TotalPopulation:        27915,
			MedianHouseholdIncome:  47783,
			BachelorsOrHigher:      30.2,
			EmploymentRate:         56.3,
			TotalHousingUnits:      14073,
			WithoutHealthInsurance: 13.2,
			TotalHouseholds:        11300,
		},
	}
}

// LoadCensus reads a YAML mapping of postal code to profile. An empty path
// returns the built-in St. Petersburg profiles.
func LoadCensus(path string) (map[string]CensusProfile, error) {
	if path == "" {
		return defaultCensus(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read census file: %w", err)
	}

	var raw map[string]CensusProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse census file %s: %w", path, err)
	}
	out := make(map[string]CensusProfile, len(raw))
	for zip, p := range raw {
		p.Zip = zip
		out[zip] = p
	}
	return out, nil
}
