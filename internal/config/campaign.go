package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// DefaultQuickTags are offered by the notes form when the campaign file
// does not name its own.
var DefaultQuickTags = []string{
	"supportive", "leaning", "undecided", "opposed", "not-home",
	"needs-info", "volunteer-interest", "yard-sign", "donation",
}

// Campaign holds per-campaign settings read from CAMPAIGN_CONFIG.
type Campaign struct {
	Name       string   `yaml:"name"`
	QuickTags  []string `yaml:"quick_tags"`
	AddressCap int      `yaml:"address_cap"`
	Center     LatLng   `yaml:"center"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// DefaultCampaign matches the St. Petersburg district the dashboard was built for.
func DefaultCampaign() Campaign {
	return Campaign{
		Name:       "District Canvassing",
		QuickTags:  append([]string(nil), DefaultQuickTags...),
		AddressCap: 50,
		Center:     LatLng{Lat: 27.7676, Lng: -82.6403},
	}
}

// LoadCampaign reads the YAML file at path over the defaults. An empty
// path returns the defaults.
func LoadCampaign(path string) (Campaign, error) {
	c := DefaultCampaign()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read campaign config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse campaign config %s: %w", path, err)
	}
	if len(c.QuickTags) == 0 {
		c.QuickTags = append([]string(nil), DefaultQuickTags...)
	}
	if c.AddressCap <= 0 {
		c.AddressCap = 50
	}
	return c, nil
}
