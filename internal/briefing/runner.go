package briefing

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"getweather/config"
	"getweather/internal/report"
	"getweather/internal/weather"
)

var ErrInvalidDays = errors.New("--days must be at least 1")

// Publisher receives every briefing after it has been rendered.
type Publisher interface {
	PublishBriefing(b *report.Briefing) error
}

type Runner struct {
	resolver  weather.Resolver
	fetcher   weather.Fetcher
	publisher Publisher
	logger    *log.Logger
	location  *time.Location
}

type RunnerConfig struct {
	Resolver  weather.Resolver
	Fetcher   weather.Fetcher
	Publisher Publisher
	Logger    *log.Logger
	// Location is used for day labels; time.Local when nil.
	Location *time.Location
}

func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{
		resolver:  cfg.Resolver,
		fetcher:   cfg.Fetcher,
		publisher: cfg.Publisher,
		logger:    logger,
		location:  cfg.Location,
	}
}

type Request struct {
	Location weather.Location
	Units    weather.Units
	Days     int
}

// Options are the raw user inputs, before configured defaults apply.
type Options struct {
	Zip      string
	City     string
	State    string
	Units    string
	UnitsSet bool
	Days     int
}

// NewRequest applies the precedence rules: explicit ZIP, explicit city and
// state, default ZIP, default city and state. Units come from an explicitly
// set option, then the configured default, then Imperial.
func NewRequest(opts Options, defaults config.WeatherConfig) (Request, error) {
	if opts.Days < 1 {
		return Request{}, ErrInvalidDays
	}

	loc, err := weather.PickLocation(
		weather.Location{Zip: opts.Zip},
		weather.Location{City: opts.City, State: opts.State},
		weather.Location{Zip: defaults.DefaultZip},
		weather.Location{City: defaults.DefaultCity, State: defaults.DefaultState},
	)
	if err != nil {
		return Request{}, err
	}

	units := weather.Imperial
	switch {
	case opts.UnitsSet:
		units = weather.ParseUnits(opts.Units)
	case defaults.DefaultUnits != "":
		units = weather.ParseUnits(defaults.DefaultUnits)
	}

	return Request{Location: loc, Units: units, Days: opts.Days}, nil
}

// Locate resolves the request location only.
func (r *Runner) Locate(ctx context.Context, loc weather.Location) (weather.Coordinate, error) {
	if !loc.Valid() {
		return weather.Coordinate{}, weather.ErrMissingLocation
	}

	coord, err := r.resolver.Resolve(ctx, loc)
	if err != nil {
		return weather.Coordinate{}, err
	}
	r.logger.Printf("Resolved %s to %.4f,%.4f", loc, coord.Latitude, coord.Longitude)
	return coord, nil
}

// Brief resolves, fetches and builds the briefing. The two requests are
// issued one after the other; nothing is sent for an invalid request.
func (r *Runner) Brief(ctx context.Context, req Request) (*report.Briefing, error) {
	if req.Days < 1 {
		return nil, ErrInvalidDays
	}

	coord, err := r.Locate(ctx, req.Location)
	if err != nil {
		return nil, err
	}

	forecast, err := r.fetcher.Fetch(ctx, coord, req.Units)
	if err != nil {
		return nil, err
	}
	r.logger.Printf("Fetched forecast with %d daily entries (units=%s)", len(forecast.Daily), req.Units)

	b := report.Build(forecast, req.Days, req.Units, r.location)
	b.Location = req.Location.String()
	return b, nil
}

// Run renders the briefing and hands it to the publisher, if any. A publish
// failure is reported as a warning; the briefing has already been printed.
func (r *Runner) Run(ctx context.Context, req Request, out *report.Renderer) error {
	b, err := r.Brief(ctx, req)
	if err != nil {
		return err
	}

	out.Render(b)

	if r.publisher != nil {
		if err := r.publisher.PublishBriefing(b); err != nil {
			out.Warnf("Unable to publish briefing: %v", err)
		}
	}
	return nil
}
