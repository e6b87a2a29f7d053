package umbrella

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"getweather/internal/weather"
)

func day(main string, pop float64) weather.DailyForecast {
	var d weather.DailyForecast
	d.Pop = &pop
	d.Weather = []weather.Condition{{Main: &main}}
	return d
}

func TestAdvise(t *testing.T) {
	tests := []struct {
		name string
		day  weather.DailyForecast
		want string
	}{
		{"dry and unlikely", day("Clear", 0.12), "No (12%)"},
		{"rain label with low pop", day("Rain", 0.05), "Yes (5%)"},
		{"rain label is case-insensitive", day("light RAIN", 0), "Yes (0%)"},
		{"threshold is exclusive", day("Clouds", 0.30), "No (30%)"},
		{"just above threshold", day("Clouds", 0.30000001), "Yes (30%)"},
		{"high pop", day("Clouds", 0.45), "Yes (45%)"},
		{"certain", day("Snow", 1), "Yes (100%)"},
		{"percent truncates", day("Clear", 0.129), "No (12%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advise(tt.day)
			if !got.Known {
				t.Fatalf("Expected known result, got reason %v", got.Reason)
			}
			if got.String() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got.String())
			}
		})
	}
}

func TestAdviseProbabilityProperty(t *testing.T) {
	for i := 0; i <= 100; i++ {
		p := float64(i) / 100
		got := Advise(day("Clear", p))

		if got.Pack != (p > Threshold) {
			t.Errorf("p=%v: expected pack=%t, got %t", p, p > Threshold, got.Pack)
		}
		if got.Percent != int(math.Floor(p*100)) {
			t.Errorf("p=%v: expected percent %d, got %d", p, int(math.Floor(p*100)), got.Percent)
		}

		if rainy := Advise(day("Rain", p)); !rainy.Pack {
			t.Errorf("p=%v: expected rain to always recommend", p)
		}
	}
}

func TestAdviseUnknown(t *testing.T) {
	noPop := day("Rain", 0)
	noPop.Pop = nil

	noWeather := day("Clear", 0.5)
	noWeather.Weather = nil

	nilMain := day("Clear", 0.5)
	nilMain.Weather = []weather.Condition{{Description: "no main"}}

	decode := func(body string) weather.DailyForecast {
		var d weather.DailyForecast
		if err := json.Unmarshal([]byte(body), &d); err != nil {
			t.Fatalf("Unmarshal() failed: %v", err)
		}
		return d
	}

	tests := []struct {
		name string
		day  weather.DailyForecast
	}{
		{"missing pop", noPop},
		{"missing weather", noWeather},
		{"missing main", nilMain},
		{"garbled pop", decode(`{"pop":"likely","weather":[{"main":"Clear"}]}`)},
		{"garbled pop with rain", decode(`{"pop":"likely","weather":[{"main":"Rain"}]}`)},
		{"object pop", decode(`{"pop":{"x":1},"weather":[{"main":"Rain"}]}`)},
		{"garbled weather", decode(`{"pop":0.9,"weather":[{"main":7}]}`)},
		{"non-object entry", decode(`"garbage"`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advise(tt.day)
			if got.Known {
				t.Fatal("Expected unknown result")
			}
			if got.String() != "Unknown" {
				t.Errorf("Expected Unknown, got %s", got.String())
			}
			if !errors.Is(got.Reason, ErrUnknown) {
				t.Errorf("Expected reason to wrap ErrUnknown, got %v", got.Reason)
			}
		})
	}
}
