package weather

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ProviderConfig struct {
	Name   string
	APIKey string
	// BaseURL overrides the forecast host.
	BaseURL string
	// GeocodingURL overrides the geocoding host. OpenWeather serves both
	// from one host, so it falls back to BaseURL there.
	GeocodingURL string
	Country      string
	Timeout      time.Duration
}

// NewProvider builds the resolver and fetcher pair for the configured
// provider. A zero timeout leaves the HTTP client without one.
func NewProvider(cfg ProviderConfig) (Resolver, Fetcher, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", "openweather", "openweathermap":
		clientCfg := ClientConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Country:    cfg.Country,
			HTTPClient: httpClient,
		}
		geoCfg := clientCfg
		if cfg.GeocodingURL != "" {
			geoCfg.BaseURL = cfg.GeocodingURL
		}
		return NewGeocoder(geoCfg), NewOpenWeatherClient(clientCfg), nil
	case "openmeteo", "open-meteo", "open_meteo":
		client := NewOpenMeteoClient(OpenMeteoConfig{
			GeocodingURL: cfg.GeocodingURL,
			ForecastURL:  cfg.BaseURL,
			Country:      cfg.Country,
			HTTPClient:   httpClient,
		})
		return client, client, nil
	default:
		return nil, nil, fmt.Errorf("weather provider not supported: %s", cfg.Name)
	}
}
