package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"getweather/config"
	"getweather/internal/api"
	"getweather/internal/briefing"
	"getweather/internal/mqtt"
	"getweather/internal/report"
	"getweather/internal/weather"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "1.0"

var (
	configFile string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, "[ERROR] "+err.Error())
		}
		os.Exit(1)
	}
}

// reportedError marks an error that has already been printed as an
// [ERROR] line in the report output.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(out *report.Renderer, err error) error {
	if err == nil {
		return nil
	}
	out.Errorf("%v", err)
	return &reportedError{err: err}
}

func newRootCmd() *cobra.Command {
	var (
		opts    briefing.Options
		publish bool
	)

	rootCmd := &cobra.Command{
		Use:   "getweather",
		Short: "Daily weather briefing",
		Long: "Fetch a multi-day forecast for a ZIP code or city/state and tell you\n" +
			"whether to pack an umbrella.",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := report.NewRenderer(cmd.OutOrStdout())
			out.Welcome()

			cfg, err := config.Load(configFile)
			if err != nil {
				return reported(out, fmt.Errorf("failed to load config: %w", err))
			}

			opts.UnitsSet = cmd.Flags().Changed("units")
			req, err := briefing.NewRequest(opts, cfg.Weather)
			if err != nil {
				return reported(out, err)
			}

			var publisher briefing.Publisher
			if publish || cfg.MQTT.Enabled {
				p, err := mqtt.NewPublisher(mqtt.PublisherConfig{
					Broker:      cfg.MQTT.Broker,
					ClientID:    cfg.MQTT.ClientID,
					Username:    cfg.MQTT.Username,
					Password:    cfg.MQTT.Password,
					TopicPrefix: cfg.MQTT.TopicPrefix,
					Discovery:   cfg.MQTT.Discovery,
					Enabled:     true,
				})
				if err != nil {
					out.Warnf("MQTT connection failed: %v", err)
				} else {
					defer p.Close()
					publisher = p
				}
			}

			runner, err := newRunner(cfg, newLogger(cmd.ErrOrStderr()), publisher)
			if err != nil {
				return reported(out, err)
			}

			return reported(out, runner.Run(cmd.Context(), req, out))
		},
	}
	rootCmd.SetVersionTemplate("Version: {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&opts.Zip, "zip", "", "ZIP code (e.g. 11211)")
	rootCmd.PersistentFlags().StringVar(&opts.City, "city", "", "city name (requires --state)")
	rootCmd.PersistentFlags().StringVar(&opts.State, "state", "", "state code (if using --city)")
	rootCmd.Flags().IntVar(&opts.Days, "days", 1, "forecast days (1-10)")
	rootCmd.Flags().StringVar(&opts.Units, "units", "Imperial", "unit system: Imperial, Metric or Standard")
	rootCmd.Flags().BoolVar(&publish, "publish", false, "publish the briefing to MQTT")

	rootCmd.AddCommand(locateCmd(&opts))
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}

func locateCmd(opts *briefing.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Resolve a location to coordinates",
		Long:  "Geocode --zip or --city/--state (or the configured defaults) and print the coordinates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := report.NewRenderer(cmd.OutOrStdout())

			cfg, err := config.Load(configFile)
			if err != nil {
				return reported(out, fmt.Errorf("failed to load config: %w", err))
			}

			loc, err := weather.PickLocation(
				weather.Location{Zip: opts.Zip},
				weather.Location{City: opts.City, State: opts.State},
				weather.Location{Zip: cfg.Weather.DefaultZip},
				weather.Location{City: cfg.Weather.DefaultCity, State: cfg.Weather.DefaultState},
			)
			if err != nil {
				return reported(out, err)
			}

			runner, err := newRunner(cfg, newLogger(cmd.ErrOrStderr()), nil)
			if err != nil {
				return reported(out, err)
			}

			coord, err := runner.Locate(cmd.Context(), loc)
			if err != nil {
				return reported(out, err)
			}

			output, _ := json.MarshalIndent(struct {
				Location weather.Location   `json:"location"`
				Coord    weather.Coordinate `json:"coordinate"`
			}{loc, coord}, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(output))

			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve briefings over HTTP",
		Long:  "Start an HTTP API that returns briefings and coordinates as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.API.Port = port
			}

			runner, err := newRunner(cfg, newLogger(cmd.ErrOrStderr()), nil)
			if err != nil {
				return err
			}

			server := api.NewServer(api.ServerConfig{
				Port:     cfg.API.Port,
				Runner:   runner,
				Defaults: cfg.Weather,
			})

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Start()
			}()

			select {
			case err := <-errChan:
				return err
			case <-sigChan:
				log.Println("Shutting down...")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Stop(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8046, "HTTP port (overrides api.port)")
	return cmd
}

func newRunner(cfg *config.Config, logger *log.Logger, publisher briefing.Publisher) (*briefing.Runner, error) {
	resolver, fetcher, err := weather.NewProvider(weather.ProviderConfig{
		Name:         cfg.Weather.Provider,
		APIKey:       cfg.Weather.APIKey,
		BaseURL:      cfg.Weather.BaseURL,
		GeocodingURL: cfg.Weather.GeocodingURL,
		Country:      cfg.Weather.Country,
		Timeout:      cfg.Weather.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return briefing.NewRunner(briefing.RunnerConfig{
		Resolver:  resolver,
		Fetcher:   fetcher,
		Publisher: publisher,
		Logger:    logger,
	}), nil
}

func newLogger(w io.Writer) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(w, "", log.LstdFlags)
}
