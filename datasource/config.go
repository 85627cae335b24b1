package datasource

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // display zones must resolve on hosts without zoneinfo

	"github.com/spf13/viper"

	"forecastwise/models"
)

// EnvPrefix is prepended to every configuration key read from the environment,
// e.g. FORECASTWISE_OPENWEATHERMAP_API_KEY
const EnvPrefix = "FORECASTWISE"

// History source identifiers
const (
	SourceOpenMeteo = "openmeteo"
	SourceMeteostat = "meteostat"
)

// Config represents the application configuration
type Config struct {
	Port         int           `mapstructure:"port"`
	Timezone     string        `mapstructure:"timezone"`
	HistoryStart string        `mapstructure:"history_start"`
	Horizon      int           `mapstructure:"horizon"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`

	// Live weather provider
	OpenWeatherMap struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"openweathermap"`

	// Historical daily series provider
	History struct {
		Source  string `mapstructure:"source"`
		BaseURL string `mapstructure:"base_url"`
		// Background refresh of every city's series; needs history_cache_ttl, zero disables
		WarmInterval time.Duration `mapstructure:"warm_interval"`
	} `mapstructure:"history"`

	Meteostat struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"meteostat"`

	RateLimit struct {
		Enabled bool    `mapstructure:"enabled"`
		RPS     float64 `mapstructure:"rps"`
		Burst   int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`

	// Zero disables the history cache
	HistoryCacheTTL time.Duration `mapstructure:"history_cache_ttl"`

	Tracing struct {
		ZipkinURL   string `mapstructure:"zipkin_url"`
		ServiceName string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("timezone", "Asia/Kolkata")
	v.SetDefault("history_start", "2018-01-01")
	v.SetDefault("horizon", 5)
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("openweathermap.api_key", "")
	v.SetDefault("openweathermap.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("history.source", SourceOpenMeteo)
	v.SetDefault("history.base_url", "")
	v.SetDefault("history.warm_interval", time.Duration(0))
	v.SetDefault("meteostat.api_key", "")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 1.0)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("history_cache_ttl", time.Duration(0))
	v.SetDefault("tracing.zipkin_url", "")
	v.SetDefault("tracing.service_name", "forecastwise")
}

// LoadConfig resolves configuration from defaults, an optional file and the environment.
// An empty filename skips the file.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names used by the provider demos and .env files
	_ = v.BindEnv("openweathermap.api_key", "OPENWEATHERMAP_API_KEY")
	_ = v.BindEnv("meteostat.api_key", "METEOSTAT_API_KEY")

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &config, nil
}

// Validate reports the first setting that prevents the dashboard from running
func (c *Config) Validate() error {
	if c.OpenWeatherMap.APIKey == "" {
		return errors.New("no OpenWeatherMap API key provided; set OPENWEATHERMAP_API_KEY")
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.HistoryStartDate(); err != nil {
		return err
	}
	switch c.History.Source {
	case SourceOpenMeteo:
	case SourceMeteostat:
		if c.Meteostat.APIKey == "" {
			return errors.New("meteostat history source selected but no API key provided; set METEOSTAT_API_KEY")
		}
	default:
		return fmt.Errorf("unknown history source %q", c.History.Source)
	}
	if c.History.WarmInterval > 0 && c.HistoryCacheTTL <= 0 {
		return errors.New("history.warm_interval needs a positive history_cache_ttl")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit needs positive rps and burst, got %v and %d", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	return nil
}

// Location returns the time zone used for dates shown on the dashboard and for "yesterday"
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// HistoryStartDate returns the first day of the training window
func (c *Config) HistoryStartDate() (time.Time, error) {
	start, err := time.Parse(models.DateLayout, c.HistoryStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid history_start %q: %w", c.HistoryStart, err)
	}
	return start, nil
}
