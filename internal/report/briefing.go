package report

import (
	"fmt"
	"strconv"
	"time"

	"getweather/internal/umbrella"
	"getweather/internal/weather"
)

// Briefing is everything the renderer prints, in a form that can also be
// published as JSON.
type Briefing struct {
	Location         string        `json:"location,omitempty"`
	Units            weather.Units `json:"units"`
	CurrentTemp      *float64      `json:"current_temp"`
	CurrentFeelsLike *float64      `json:"current_feels_like"`
	RequestedDays    int           `json:"requested_days"`
	AvailableDays    int           `json:"available_days"`
	Days             []DayReport   `json:"days"`
}

type DayReport struct {
	Label     string          `json:"label"`
	Date      time.Time       `json:"date"`
	High      *float64        `json:"high"`
	Low       *float64        `json:"low"`
	FeelsLike *float64        `json:"feels_like"`
	Condition string          `json:"condition,omitempty"`
	Umbrella  umbrella.Result `json:"umbrella"`
	Summary   string          `json:"umbrella_summary"`
}

// Clamped reports whether fewer days are shown than were requested.
func (b *Briefing) Clamped() bool {
	return b.RequestedDays > b.AvailableDays
}

// Build selects the requested days from the forecast. Day 0 takes its
// feels-like value from the current conditions rather than the daily entry.
// Dates are computed in loc (time.Local when nil).
func Build(f *weather.Forecast, requested int, units weather.Units, loc *time.Location) *Briefing {
	if loc == nil {
		loc = time.Local
	}

	b := &Briefing{
		Units:            units,
		CurrentTemp:      f.Current.Temp,
		CurrentFeelsLike: f.Current.FeelsLike,
		RequestedDays:    requested,
		AvailableDays:    len(f.Daily),
	}

	shown := requested
	if shown > len(f.Daily) {
		shown = len(f.Daily)
	}

	for i := 0; i < shown; i++ {
		day := f.Daily[i]
		date := day.Time(loc)

		feels := day.FeelsLike.Day
		if i == 0 {
			feels = f.Current.FeelsLike
		}

		advice := umbrella.Advise(day)
		condition, _ := day.Condition()

		b.Days = append(b.Days, DayReport{
			Label:     DayLabel(i, date),
			Date:      date,
			High:      day.Temp.Max,
			Low:       day.Temp.Min,
			FeelsLike: feels,
			Condition: condition,
			Umbrella:  advice,
			Summary:   advice.String(),
		})
	}

	return b
}

// DayLabel names day i of the forecast, e.g. "Today (May 19)".
func DayLabel(i int, date time.Time) string {
	day := date.Format("Jan 02")
	switch i {
	case 0:
		return fmt.Sprintf("Today (%s)", day)
	case 1:
		return fmt.Sprintf("Tomorrow (%s)", day)
	default:
		return fmt.Sprintf("%s (%s)", date.Format("Monday"), day)
	}
}

// FormatTemp prints a temperature in its shortest form with the unit suffix.
func FormatTemp(v *float64, units weather.Units) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + units.Suffix()
}
