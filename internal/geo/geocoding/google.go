package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// ErrNoResults is returned when the API finds nothing for an address.
var ErrNoResults = errors.New("geocoding returned no results")

// Result is the part of a Google geocoding response the canvass tools use.
type Result struct {
	Formatted string  `json:"formatted"`
	Zip       string  `json:"zip"`
	City      string  `json:"city"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// Client wraps the Google Maps Geocoding API.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewClient returns nil when apiKey is empty; callers treat a nil client
// as "geocoding unavailable".
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// WithEndpoint points the client at a different API base URL.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode converts a street address into coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (*Result, error) {
	q := url.Values{"address": {address}, "key": {c.apiKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}

	var geoResp geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return nil, fmt.Errorf("decoding geocoding response: %w", err)
	}
	switch geoResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		return nil, fmt.Errorf("geocoding failed: status=%s", geoResp.Status)
	}
	if len(geoResp.Results) == 0 {
		return nil, ErrNoResults
	}

	first := geoResp.Results[0]
	out := &Result{
		Formatted: first.FormattedAddress,
		Lat:       first.Geometry.Location.Lat,
		Lng:       first.Geometry.Location.Lng,
	}
	for _, comp := range first.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "postal_code":
				out.Zip = comp.ShortName
			case "locality":
				out.City = comp.LongName
			}
		}
	}
	return out, nil
}
