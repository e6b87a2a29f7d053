package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingLocation     = errors.New("no location provided, use --zip or --city and --state")
	ErrGeoLookupFailed     = errors.New("unable to fetch geolocation data")
	ErrForecastFetchFailed = errors.New("unable to fetch weather data")
)

// Resolver turns a Location into a Coordinate.
type Resolver interface {
	Resolve(ctx context.Context, loc Location) (Coordinate, error)
}

// Fetcher retrieves current conditions plus daily summaries for a coordinate.
type Fetcher interface {
	Fetch(ctx context.Context, coord Coordinate, units Units) (*Forecast, error)
}

type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

type Units string

const (
	Imperial Units = "imperial"
	Metric   Units = "metric"
	Standard Units = "standard"
)

// ParseUnits is case-insensitive. Unknown values are kept (lower-cased) so
// the provider can decide what to do with them; an empty value means Imperial.
func ParseUnits(value string) Units {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Imperial
	}
	return Units(v)
}

// Suffix is the label appended to rendered temperatures.
func (u Units) Suffix() string {
	switch u {
	case Imperial:
		return "°F"
	case Metric:
		return "°C"
	default:
		return ""
	}
}

type Forecast struct {
	Current Current         `json:"current"`
	Daily   []DailyForecast `json:"daily"`
}

// Current holds the present conditions. A missing or garbled reading stays nil.
type Current struct {
	Dt        int64    `json:"dt"`
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
}

func (c *Current) UnmarshalJSON(data []byte) error {
	*c = Current{}
	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	decodeField(obj, "dt", &c.Dt)
	decodeField(obj, "temp", &c.Temp)
	decodeField(obj, "feels_like", &c.FeelsLike)
	return nil
}

type Condition struct {
	Main        *string `json:"main"`
	Description string  `json:"description"`
}

// DailyForecast is one day of the forecast. Numeric fields are pointers so a
// missing value can be told apart from a zero reading.
type DailyForecast struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Max *float64 `json:"max"`
		Min *float64 `json:"min"`
	} `json:"temp"`
	FeelsLike struct {
		Day *float64 `json:"day"`
	} `json:"feels_like"`
	Pop     *float64    `json:"pop"`
	Weather []Condition `json:"weather"`

	decodeErr error
}

// UnmarshalJSON never fails. Each field is decoded on its own; one that has
// the wrong type is left nil and the problem is kept for DecodeErr.
func (d *DailyForecast) UnmarshalJSON(data []byte) error {
	*d = DailyForecast{}

	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		d.decodeErr = err
		return nil
	}

	var temp, feels rawObject
	errs := []error{
		decodeField(obj, "dt", &d.Dt),
		decodeField(obj, "temp", &temp),
		decodeField(obj, "feels_like", &feels),
		decodeField(obj, "pop", &d.Pop),
		decodeField(obj, "weather", &d.Weather),
	}
	errs = append(errs,
		decodeField(temp, "max", &d.Temp.Max),
		decodeField(temp, "min", &d.Temp.Min),
		decodeField(feels, "day", &d.FeelsLike.Day),
	)
	d.decodeErr = errors.Join(errs...)
	return nil
}

type rawObject map[string]json.RawMessage

// decodeField stores obj[key] in dst only when it decodes cleanly, so a
// type mismatch cannot leave a half-filled zero value behind.
func decodeField[T any](obj rawObject, key string, dst *T) error {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func (d DailyForecast) DecodeErr() error {
	return d.decodeErr
}

// Time is the forecast timestamp in the given location.
func (d DailyForecast) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(d.Dt, 0).In(loc)
}

// Condition returns the primary condition label, if present.
func (d DailyForecast) Condition() (string, bool) {
	if len(d.Weather) == 0 || d.Weather[0].Main == nil {
		return "", false
	}
	return *d.Weather[0].Main, true
}
