package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DotenvFiles are loaded, when present, before the environment is read.
// Variables already set in the process environment win.
var DotenvFiles = []string{".env", "getweather.env"}

// ConfigDirs are searched in order for getweather.yaml (or .yml) when no
// config path is given.
var ConfigDirs = []string{".", "$HOME/.config/getweather", "/etc/getweather"}

var configNames = []string{"getweather.yaml", "getweather.yml"}

type Config struct {
	Weather WeatherConfig `mapstructure:"weather"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	API     APIConfig     `mapstructure:"api"`
}

type WeatherConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	GeocodingURL string        `mapstructure:"geocoding_url"`
	Country      string        `mapstructure:"country"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DefaultZip   string        `mapstructure:"default_zip"`
	DefaultCity  string        `mapstructure:"default_city"`
	DefaultState string        `mapstructure:"default_state"`
	DefaultUnits string        `mapstructure:"default_units"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	Discovery   bool   `mapstructure:"discovery"`
}

type APIConfig struct {
	Port int `mapstructure:"port"`
}

// Load reads configuration from, in increasing priority: defaults, the
// config file, dotenv files and the environment. Nested keys map to
// upper-case environment names with dots replaced, so weather.api_key is
// WEATHER_API_KEY.
func Load(configPath string) (*Config, error) {
	if err := loadDotenv(DotenvFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	if configPath == "" {
		configPath = findConfigFile()
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("weather.provider", "openweather")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.base_url", "")
	v.SetDefault("weather.geocoding_url", "")
	v.SetDefault("weather.country", "US")
	v.SetDefault("weather.timeout", "0s")
	v.SetDefault("weather.default_zip", "")
	v.SetDefault("weather.default_city", "")
	v.SetDefault("weather.default_state", "")
	v.SetDefault("weather.default_units", "")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "getweather")
	v.SetDefault("mqtt.client_id", "getweather")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.discovery", true)
	v.SetDefault("api.port", 8046)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// findConfigFile only matches the yaml names. Viper's own name search would
// also accept getweather.env, which is a dotenv file.
func findConfigFile() string {
	for _, dir := range ConfigDirs {
		for _, name := range configNames {
			path := filepath.Join(os.ExpandEnv(dir), name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

func loadDotenv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(f); err != nil {
			return err
		}
	}
	return nil
}
