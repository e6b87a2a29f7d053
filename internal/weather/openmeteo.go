package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultOpenMeteoGeocodingURL = "https://geocoding-api.open-meteo.com"
	DefaultOpenMeteoForecastURL  = "https://api.open-meteo.com"

	openMeteoForecastDays = 10
	kelvinOffset          = 273.15
)

// OpenMeteoClient is a keyless alternative provider. It implements both
// Resolver and Fetcher and maps its payloads onto the One Call shape.
type OpenMeteoClient struct {
	geocodingURL string
	forecastURL  string
	country      string
	client       *http.Client
}

var (
	_ Resolver = (*OpenMeteoClient)(nil)
	_ Fetcher  = (*OpenMeteoClient)(nil)
)

type OpenMeteoConfig struct {
	GeocodingURL string
	ForecastURL  string
	Country      string
	HTTPClient   *http.Client
}

func NewOpenMeteoClient(cfg OpenMeteoConfig) *OpenMeteoClient {
	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = DefaultOpenMeteoGeocodingURL
	}
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = DefaultOpenMeteoForecastURL
	}
	if cfg.Country == "" {
		cfg.Country = "US"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &OpenMeteoClient{
		geocodingURL: strings.TrimRight(cfg.GeocodingURL, "/"),
		forecastURL:  strings.TrimRight(cfg.ForecastURL, "/"),
		country:      cfg.Country,
		client:       cfg.HTTPClient,
	}
}

type OpenMeteoPlace struct {
	Name        string   `json:"name"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	CountryCode string   `json:"country_code"`
	Admin1      string   `json:"admin1"`
	Postcodes   []string `json:"postcodes"`
}

type openMeteoGeoResponse struct {
	Results []OpenMeteoPlace `json:"results"`
}

type openMeteoResponse struct {
	Timezone string `json:"timezone"`
	Current  struct {
		Time                string   `json:"time"`
		Temperature         *float64 `json:"temperature_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
	} `json:"current"`
	Daily struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []*int     `json:"weather_code"`
		TemperatureMax              []*float64 `json:"temperature_2m_max"`
		TemperatureMin              []*float64 `json:"temperature_2m_min"`
		ApparentTemperatureMax      []*float64 `json:"apparent_temperature_max"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

func (c *OpenMeteoClient) Resolve(ctx context.Context, loc Location) (Coordinate, error) {
	var place OpenMeteoPlace
	switch {
	case loc.HasZip():
		p, err := c.ByZip(ctx, loc.Zip)
		if err != nil {
			return Coordinate{}, err
		}
		place = *p
	case loc.HasCityState():
		places, err := c.ByCity(ctx, loc.City, loc.State)
		if err != nil {
			return Coordinate{}, err
		}
		place = places[0]
	default:
		return Coordinate{}, ErrMissingLocation
	}
	return Coordinate{Latitude: place.Latitude, Longitude: place.Longitude}, nil
}

// ByZip searches the geocoder by postal code and returns the single best hit.
func (c *OpenMeteoClient) ByZip(ctx context.Context, zip string) (*OpenMeteoPlace, error) {
	places, err := c.search(ctx, strings.TrimSpace(zip), 1)
	if err != nil {
		return nil, err
	}
	return &places[0], nil
}

// ByCity searches by city name. Candidates whose region matches state are
// moved to the front, keeping the provider's ranking otherwise.
func (c *OpenMeteoClient) ByCity(ctx context.Context, city, state string) ([]OpenMeteoPlace, error) {
	places, err := c.search(ctx, strings.TrimSpace(city), 10)
	if err != nil {
		return nil, err
	}

	state = strings.TrimSpace(state)
	ranked := make([]OpenMeteoPlace, 0, len(places))
	for _, p := range places {
		if strings.EqualFold(p.Admin1, state) {
			ranked = append(ranked, p)
		}
	}
	for _, p := range places {
		if !strings.EqualFold(p.Admin1, state) {
			ranked = append(ranked, p)
		}
	}
	return ranked, nil
}

func (c *OpenMeteoClient) search(ctx context.Context, name string, count int) ([]OpenMeteoPlace, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("count", fmt.Sprintf("%d", count))
	query.Set("language", "en")
	query.Set("format", "json")
	query.Set("countryCode", c.country)

	endpoint := c.geocodingURL + "/v1/search?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open-meteo geocoding request: %w", ErrGeoLookupFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: open-meteo geocoding request failed: %w", ErrGeoLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: open-meteo geocoding bad status: %s", ErrGeoLookupFailed, resp.Status)
	}

	var payload openMeteoGeoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: open-meteo geocoding decode: %w", ErrGeoLookupFailed, err)
	}

	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("%w: open-meteo geocoding found no results for %s", ErrGeoLookupFailed, name)
	}
	return payload.Results, nil
}

func (c *OpenMeteoClient) Fetch(ctx context.Context, coord Coordinate, units Units) (*Forecast, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.6f", coord.Latitude))
	query.Set("longitude", fmt.Sprintf("%.6f", coord.Longitude))
	query.Set("current", "temperature_2m,apparent_temperature")
	query.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,apparent_temperature_max,precipitation_probability_max")
	query.Set("timezone", "auto")
	query.Set("forecast_days", fmt.Sprintf("%d", openMeteoForecastDays))
	if units == Imperial {
		query.Set("temperature_unit", "fahrenheit")
	} else {
		query.Set("temperature_unit", "celsius")
	}

	endpoint := c.forecastURL + "/v1/forecast?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open-meteo request: %w", ErrForecastFetchFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: open-meteo request failed: %w", ErrForecastFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: open-meteo bad status: %s", ErrForecastFetchFailed, resp.Status)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: open-meteo decode: %w", ErrForecastFetchFailed, err)
	}

	return payload.toForecast(units), nil
}

func (p *openMeteoResponse) toForecast(units Units) *Forecast {
	// No Kelvin option upstream; standard is converted from Celsius.
	convert := func(v float64) float64 { return v }
	if units != Imperial && units != Metric {
		convert = func(v float64) float64 { return v + kelvinOffset }
	}
	convertPtr := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		out := convert(*v)
		return &out
	}

	loc := openMeteoLocation(p.Timezone)
	forecast := &Forecast{
		Current: Current{
			Temp:      convertPtr(p.Current.Temperature),
			FeelsLike: convertPtr(p.Current.ApparentTemperature),
		},
	}
	if observed, err := time.ParseInLocation("2006-01-02T15:04", p.Current.Time, loc); err == nil {
		forecast.Current.Dt = observed.Unix()
	}

	for i, day := range p.Daily.Time {
		var entry DailyForecast

		date, err := time.ParseInLocation("2006-01-02", day, loc)
		if err == nil {
			entry.Dt = date.Add(12 * time.Hour).Unix()
		}

		entry.Temp.Max = convertPtr(floatAt(p.Daily.TemperatureMax, i))
		entry.Temp.Min = convertPtr(floatAt(p.Daily.TemperatureMin, i))
		entry.FeelsLike.Day = convertPtr(floatAt(p.Daily.ApparentTemperatureMax, i))

		if pop := floatAt(p.Daily.PrecipitationProbabilityMax, i); pop != nil {
			v := *pop / 100
			entry.Pop = &v
		}

		if i < len(p.Daily.WeatherCode) && p.Daily.WeatherCode[i] != nil {
			main, description := openMeteoDescribe(*p.Daily.WeatherCode[i])
			entry.Weather = []Condition{{Main: &main, Description: description}}
		}

		forecast.Daily = append(forecast.Daily, entry)
	}

	return forecast
}

func floatAt(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

func openMeteoLocation(timezone string) *time.Location {
	if strings.TrimSpace(timezone) != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			return parsed
		}
	}
	return time.UTC
}

// openMeteoDescribe maps WMO weather codes onto OpenWeather-style labels.
func openMeteoDescribe(code int) (string, string) {
	switch code {
	case 0:
		return "Clear", "clear sky"
	case 1:
		return "Clouds", "mainly clear"
	case 2:
		return "Clouds", "partly cloudy"
	case 3:
		return "Clouds", "overcast"
	case 45, 48:
		return "Fog", "fog"
	case 51, 53, 55, 56, 57:
		return "Drizzle", "drizzle"
	case 61, 63, 65, 66, 67:
		return "Rain", "rain"
	case 71, 73, 75, 77:
		return "Snow", "snow"
	case 80, 81, 82:
		return "Rain", "rain showers"
	case 85, 86:
		return "Snow", "snow showers"
	case 95:
		return "Thunderstorm", "thunderstorm"
	case 96, 99:
		return "Thunderstorm", "thunderstorm with hail"
	default:
		return "Unknown", "unknown condition"
	}
}
