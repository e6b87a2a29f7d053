package weather

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

const openMeteoForecastFixture = `{
	"timezone": "America/New_York",
	"current": {"time": "2025-05-19T10:00", "temperature_2m": 20.5, "apparent_temperature": 19.0},
	"daily": {
		"time": ["2025-05-19", "2025-05-20"],
		"weather_code": [61, 0],
		"temperature_2m_max": [24.0, 26.5],
		"temperature_2m_min": [12.0, null],
		"apparent_temperature_max": [23.0, 25.0],
		"precipitation_probability_max": [80, null]
	}
}`

func newOpenMeteoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/search":
			if r.URL.Query().Get("countryCode") != "US" {
				t.Errorf("Expected countryCode=US, got %s", r.URL.Query().Get("countryCode"))
			}
			w.Write([]byte(`{"results":[
				{"name":"Portland","latitude":43.66,"longitude":-70.25,"country_code":"US","admin1":"Maine"},
				{"name":"Portland","latitude":45.52,"longitude":-122.67,"country_code":"US","admin1":"Oregon"}
			]}`))
		case "/v1/forecast":
			w.Write([]byte(openMeteoForecastFixture))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenMeteoByCityPrefersMatchingState(t *testing.T) {
	server := newOpenMeteoServer(t)
	c := NewOpenMeteoClient(OpenMeteoConfig{GeocodingURL: server.URL, ForecastURL: server.URL})

	coord, err := c.Resolve(context.Background(), Location{City: "Portland", State: "oregon"})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if coord.Latitude != 45.52 {
		t.Errorf("Expected Oregon match, got %+v", coord)
	}

	coord, err = c.Resolve(context.Background(), Location{City: "Portland", State: "ZZ"})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if coord.Latitude != 43.66 {
		t.Errorf("Expected provider ranking to be kept, got %+v", coord)
	}
}

func TestOpenMeteoNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewOpenMeteoClient(OpenMeteoConfig{GeocodingURL: server.URL})
	if _, err := c.Resolve(context.Background(), Location{Zip: "00000"}); !errors.Is(err, ErrGeoLookupFailed) {
		t.Errorf("Expected ErrGeoLookupFailed, got %v", err)
	}
}

func TestOpenMeteoFetchMapsForecast(t *testing.T) {
	server := newOpenMeteoServer(t)
	c := NewOpenMeteoClient(OpenMeteoConfig{GeocodingURL: server.URL, ForecastURL: server.URL})

	forecast, err := c.Fetch(context.Background(), Coordinate{Latitude: 40.7, Longitude: -74}, Metric)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	if *forecast.Current.Temp != 20.5 || *forecast.Current.FeelsLike != 19.0 {
		t.Errorf("Unexpected current conditions: %+v", forecast.Current)
	}
	if len(forecast.Daily) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(forecast.Daily))
	}

	today := forecast.Daily[0]
	if today.Pop == nil || *today.Pop != 0.8 {
		t.Errorf("Expected pop 0.8, got %v", today.Pop)
	}
	if cond, _ := today.Condition(); cond != "Rain" {
		t.Errorf("Expected Rain, got %q", cond)
	}

	tomorrow := forecast.Daily[1]
	if tomorrow.Pop != nil {
		t.Error("Expected null probability to stay nil")
	}
	if tomorrow.Temp.Min != nil {
		t.Error("Expected null minimum to stay nil")
	}
	if tomorrow.Temp.Max == nil || *tomorrow.Temp.Max != 26.5 {
		t.Errorf("Expected max 26.5, got %v", tomorrow.Temp.Max)
	}
	if tomorrow.Dt <= today.Dt {
		t.Error("Expected increasing timestamps")
	}
}

func TestOpenMeteoStandardUnitsAreKelvin(t *testing.T) {
	server := newOpenMeteoServer(t)
	c := NewOpenMeteoClient(OpenMeteoConfig{GeocodingURL: server.URL, ForecastURL: server.URL})

	forecast, err := c.Fetch(context.Background(), Coordinate{}, Standard)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if math.Abs(*forecast.Current.Temp-293.65) > 1e-9 {
		t.Errorf("Expected 293.65K, got %v", *forecast.Current.Temp)
	}
	if math.Abs(*forecast.Daily[0].Temp.Max-297.15) > 1e-9 {
		t.Errorf("Expected 297.15K, got %v", *forecast.Daily[0].Temp.Max)
	}
}

func TestNewProviderSeparatesOpenMeteoHosts(t *testing.T) {
	var geoHits, forecastHits int32
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&geoHits, 1)
		if r.URL.Path != "/v1/search" {
			t.Errorf("Geocoding host got %s", r.URL.Path)
		}
		w.Write([]byte(`{"results":[{"name":"Brooklyn","latitude":40.7,"longitude":-73.9,"country_code":"US","admin1":"New York"}]}`))
	}))
	defer geo.Close()
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&forecastHits, 1)
		if r.URL.Path != "/v1/forecast" {
			t.Errorf("Forecast host got %s", r.URL.Path)
		}
		w.Write([]byte(openMeteoForecastFixture))
	}))
	defer forecast.Close()

	resolver, fetcher, err := NewProvider(ProviderConfig{Name: "openmeteo", BaseURL: forecast.URL, GeocodingURL: geo.URL})
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}

	coord, err := resolver.Resolve(context.Background(), Location{Zip: "11211"})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if _, err := fetcher.Fetch(context.Background(), coord, Metric); err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if atomic.LoadInt32(&geoHits) != 1 || atomic.LoadInt32(&forecastHits) != 1 {
		t.Errorf("Expected one call per host, got geo=%d forecast=%d", geoHits, forecastHits)
	}
}

func TestNewProviderOpenWeatherGeocodingFallsBackToBaseURL(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.Write([]byte(`{"lat":1,"lon":2}`))
	}))
	defer server.Close()

	resolver, _, err := NewProvider(ProviderConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), Location{Zip: "11211"}); err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "/geo/1.0/zip" {
		t.Errorf("Expected geocoding on the base URL, got %v", paths)
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"openweather", false},
		{"OpenMeteo", false},
		{"open-meteo", false},
		{"darksky", true},
	}

	for _, tt := range tests {
		resolver, fetcher, err := NewProvider(ProviderConfig{Name: tt.name})
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewProvider(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil || resolver == nil || fetcher == nil {
			t.Errorf("NewProvider(%q): unexpected result (%v)", tt.name, err)
		}
	}
}
