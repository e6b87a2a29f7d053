package weather

import (
	"fmt"
	"strings"
)

// Location is either a ZIP code or a city/state pair.
type Location struct {
	Zip   string `json:"zip,omitempty"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

func (l Location) HasZip() bool {
	return strings.TrimSpace(l.Zip) != ""
}

func (l Location) HasCityState() bool {
	return strings.TrimSpace(l.City) != "" && strings.TrimSpace(l.State) != ""
}

func (l Location) Valid() bool {
	return l.HasZip() || l.HasCityState()
}

func (l Location) String() string {
	if l.HasZip() {
		return strings.TrimSpace(l.Zip)
	}
	if l.HasCityState() {
		return fmt.Sprintf("%s, %s", strings.TrimSpace(l.City), strings.TrimSpace(l.State))
	}
	return ""
}

// PickLocation returns the first usable candidate in precedence order.
// A candidate with a ZIP is reduced to just the ZIP, so the ZIP lookup wins
// over a city/state given alongside it.
func PickLocation(candidates ...Location) (Location, error) {
	for _, c := range candidates {
		if c.HasZip() {
			return Location{Zip: strings.TrimSpace(c.Zip)}, nil
		}
		if c.HasCityState() {
			return Location{City: strings.TrimSpace(c.City), State: strings.TrimSpace(c.State)}, nil
		}
	}
	return Location{}, ErrMissingLocation
}
