package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// OpenWeatherClient fetches forecasts from the One Call 3.0 API.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ Fetcher = (*OpenWeatherClient)(nil)

func NewOpenWeatherClient(cfg ClientConfig) *OpenWeatherClient {
	cfg = cfg.normalized()
	return &OpenWeatherClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  cfg.HTTPClient,
	}
}

// Fetch requests current and daily data only.
func (c *OpenWeatherClient) Fetch(ctx context.Context, coord Coordinate, units Units) (*Forecast, error) {
	if units == "" {
		units = Imperial
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.6f", coord.Latitude))
	query.Set("lon", fmt.Sprintf("%.6f", coord.Longitude))
	query.Set("exclude", "minutely,hourly,alerts")
	query.Set("units", string(units))
	query.Set("appid", c.apiKey)

	endpoint := c.baseURL + "/data/3.0/onecall?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: openweather request: %w", ErrForecastFetchFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: openweather request failed: %w", ErrForecastFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: openweather bad status: %s", ErrForecastFetchFailed, resp.Status)
	}

	var payload Forecast
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: openweather decode: %w", ErrForecastFetchFailed, err)
	}

	return &payload, nil
}
