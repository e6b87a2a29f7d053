package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultBaseURL = "https://api.openweathermap.org"

// ZipLocation is the single object returned by the postal-code lookup.
type ZipLocation struct {
	Zip     string   `json:"zip"`
	Name    string   `json:"name"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Country string   `json:"country"`
}

// DirectLocation is one ranked candidate of the free-text lookup.
type DirectLocation struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

// Geocoder resolves locations through the OpenWeather geocoding API.
type Geocoder struct {
	apiKey  string
	baseURL string
	country string
	client  *http.Client
}

type ClientConfig struct {
	APIKey     string
	BaseURL    string
	Country    string
	HTTPClient *http.Client
}

func (c ClientConfig) normalized() ClientConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Country == "" {
		c.Country = "US"
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	return c
}

func NewGeocoder(cfg ClientConfig) *Geocoder {
	cfg = cfg.normalized()
	return &Geocoder{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		country: cfg.Country,
		client:  cfg.HTTPClient,
	}
}

// Resolve dispatches to the ZIP or city/state lookup. An unusable location
// fails before any request is made.
func (g *Geocoder) Resolve(ctx context.Context, loc Location) (Coordinate, error) {
	switch {
	case loc.HasZip():
		z, err := g.ByZip(ctx, loc.Zip)
		if err != nil {
			return Coordinate{}, err
		}
		return Coordinate{Latitude: *z.Lat, Longitude: *z.Lon}, nil
	case loc.HasCityState():
		matches, err := g.ByCity(ctx, loc.City, loc.State)
		if err != nil {
			return Coordinate{}, err
		}
		best := matches[0]
		return Coordinate{Latitude: best.Lat, Longitude: best.Lon}, nil
	default:
		return Coordinate{}, ErrMissingLocation
	}
}

// ByZip looks up coordinates by postal code.
func (g *Geocoder) ByZip(ctx context.Context, zip string) (*ZipLocation, error) {
	query := url.Values{}
	query.Set("zip", fmt.Sprintf("%s,%s", strings.TrimSpace(zip), g.country))
	query.Set("appid", g.apiKey)

	var payload ZipLocation
	if err := g.get(ctx, "/geo/1.0/zip", query, &payload); err != nil {
		return nil, err
	}
	if payload.Lat == nil || payload.Lon == nil {
		return nil, fmt.Errorf("%w: no geolocation data found for %s", ErrGeoLookupFailed, zip)
	}
	return &payload, nil
}

// ByCity looks up a free-text "city,state,country" query. The result is
// never empty on success; the first entry is the best match.
func (g *Geocoder) ByCity(ctx context.Context, city, state string) ([]DirectLocation, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("%s,%s,%s", strings.TrimSpace(city), strings.TrimSpace(state), g.country))
	query.Set("limit", "1")
	query.Set("appid", g.apiKey)

	var payload []DirectLocation
	if err := g.get(ctx, "/geo/1.0/direct", query, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: no geolocation data found for %s, %s", ErrGeoLookupFailed, city, state)
	}
	return payload, nil
}

func (g *Geocoder) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := g.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: openweather geocoding request: %w", ErrGeoLookupFailed, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: openweather geocoding request failed: %w", ErrGeoLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: openweather geocoding bad status: %s", ErrGeoLookupFailed, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: openweather geocoding decode: %w", ErrGeoLookupFailed, err)
	}
	return nil
}
