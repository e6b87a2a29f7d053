// Package umbrella decides whether a day's forecast calls for an umbrella.
package umbrella

import (
	"errors"
	"fmt"
	"strings"

	"getweather/internal/weather"
)

// Threshold is the precipitation probability above which an umbrella is
// recommended regardless of the condition label. The comparison is strict.
const Threshold = 0.30

var ErrUnknown = errors.New("unable to determine umbrella status")

// Result is either a recommendation (Known) or the Unknown outcome with the
// reason it could not be computed.
type Result struct {
	Known   bool  `json:"known"`
	Pack    bool  `json:"pack"`
	Percent int   `json:"percent"`
	Reason  error `json:"-"`
}

func (r Result) String() string {
	if !r.Known {
		return "Unknown"
	}
	if r.Pack {
		return fmt.Sprintf("Yes (%d%%)", r.Percent)
	}
	return fmt.Sprintf("No (%d%%)", r.Percent)
}

func unknown(reason error) Result {
	return Result{Reason: reason}
}

// Advise recommends an umbrella when the primary condition mentions rain or
// the precipitation probability is above Threshold.
func Advise(day weather.DailyForecast) Result {
	if day.Pop == nil {
		return unknown(withCause(day, "missing precipitation probability"))
	}
	condition, ok := day.Condition()
	if !ok {
		return unknown(withCause(day, "missing weather condition"))
	}

	pop := *day.Pop
	return Result{
		Known:   true,
		Pack:    strings.Contains(strings.ToLower(condition), "rain") || pop > Threshold,
		Percent: int(pop * 100),
	}
}

func withCause(day weather.DailyForecast, msg string) error {
	if err := day.DecodeErr(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnknown, msg, err)
	}
	return fmt.Errorf("%w: %s", ErrUnknown, msg)
}
