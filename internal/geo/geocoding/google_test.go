package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientWithoutKey(t *testing.T) {
	if c := NewClient(""); c != nil {
		t.Fatal("expected nil client when the API key is empty")
	}
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query: %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("address") != "100 MAIN ST, St. Petersburg, FL" {
			t.Errorf("unexpected address %q", r.URL.Query().Get("address"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "100 Main St, St. Petersburg, FL 33701, USA",
				"address_components": [
					{"long_name": "St. Petersburg", "short_name": "St. Petersburg", "types": ["locality"]},
					{"long_name": "33701", "short_name": "33701", "types": ["postal_code"]}
				],
				"geometry": {"location": {"lat": 27.7712, "lng": -82.6391}}
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key").WithEndpoint(srv.URL)
	res, err := c.Geocode(context.Background(), "100 MAIN ST, St. Petersburg, FL")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.Zip != "33701" || res.City != "St. Petersburg" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Lat != 27.7712 || res.Lng != -82.6391 {
		t.Errorf("unexpected coordinates %v,%v", res.Lat, res.Lng)
	}
}

func TestGeocodeZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient("k").WithEndpoint(srv.URL).Geocode(context.Background(), "nowhere")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestGeocodeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewClient("k").WithEndpoint(srv.URL).Geocode(context.Background(), "x"); err == nil {
		t.Fatal("expected an error for HTTP 403")
	}
}
