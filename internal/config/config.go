package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Open-Meteo endpoints used when the config file leaves them empty.
const (
	DefaultGeocodingURL  = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL   = "https://api.open-meteo.com/v1/forecast"
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
)

// Session backends.
const (
	SessionBackendInMemory  = "in_memory"
	SessionBackendMemcached = "memcached"
)

// Config holds service configuration loaded from YAML, .env and env.
type Config struct {
	ServerPort string
	Version    string

	GeocodingURL    string
	ForecastURL     string
	AirQualityURL   string
	UpstreamTimeout time.Duration
	BreakerFailures int
	BreakerTimeout  time.Duration

	RequestTimeout time.Duration

	DefaultCity      string
	DefaultUnits     string
	DefaultFavorites []string

	SessionBackend      string // "in_memory" or "memcached"
	SessionTTL          time.Duration
	SessionSecureCookie bool

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	ShutdownTimeout time.Duration

	DegradedWindow     time.Duration
	DegradedErrorPct   int
	DegradedMinSamples int

	TrackedCities []string
}

type fileConfig struct {
	Server struct {
		Port    string `yaml:"port"`
		Version string `yaml:"version"`
	} `yaml:"server"`

	OpenMeteo struct {
		GeocodingURL  string `yaml:"geocoding_url"`
		ForecastURL   string `yaml:"forecast_url"`
		AirQualityURL string `yaml:"air_quality_url"`
		Timeout       string `yaml:"timeout"`
		Breaker       struct {
			Failures int    `yaml:"failures"`
			Timeout  string `yaml:"timeout"`
		} `yaml:"breaker"`
	} `yaml:"open_meteo"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Dashboard struct {
		DefaultCity      string   `yaml:"default_city"`
		DefaultUnits     string   `yaml:"default_units"`
		DefaultFavorites []string `yaml:"default_favorites"`
	} `yaml:"dashboard"`

	Session struct {
		Backend      string `yaml:"backend"`
		TTL          string `yaml:"ttl"`
		SecureCookie bool   `yaml:"secure_cookie"`
		Memcached    struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"session"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Health struct {
		DegradedWindow     string `yaml:"degraded_window"`
		DegradedErrorPct   int    `yaml:"degraded_error_pct"`
		DegradedMinSamples int    `yaml:"degraded_min_samples"`
	} `yaml:"health"`

	Metrics struct {
		TrackedCities []string `yaml:"tracked_cities"`
	} `yaml:"metrics"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev). A .env file in the
// working directory, when present, is loaded first; variables already set in the
// environment win over it. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "8080")
	cfg.Version = firstNonEmpty(fc.Server.Version, "dev")

	cfg.GeocodingURL = firstNonEmpty(fc.OpenMeteo.GeocodingURL, DefaultGeocodingURL)
	cfg.ForecastURL = firstNonEmpty(fc.OpenMeteo.ForecastURL, DefaultForecastURL)
	cfg.AirQualityURL = firstNonEmpty(fc.OpenMeteo.AirQualityURL, DefaultAirQualityURL)
	cfg.UpstreamTimeout = parseDurationOrZero(fc.OpenMeteo.Timeout, 5*time.Second)
	cfg.BreakerFailures = fc.OpenMeteo.Breaker.Failures
	if cfg.BreakerFailures < 0 {
		cfg.BreakerFailures = 0
	}
	cfg.BreakerTimeout = parseDuration(fc.OpenMeteo.Breaker.Timeout, 30*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 15*time.Second)

	cfg.DefaultCity = firstNonEmpty(
		strings.TrimSpace(os.Getenv("DEFAULT_CITY")),
		strings.TrimSpace(fc.Dashboard.DefaultCity),
		"Ghaziabad",
	)
	cfg.DefaultUnits = strings.ToLower(firstNonEmpty(strings.TrimSpace(fc.Dashboard.DefaultUnits), "metric"))
	cfg.DefaultFavorites = fc.Dashboard.DefaultFavorites
	if cfg.DefaultFavorites == nil {
		cfg.DefaultFavorites = []string{"London", "New York", "Tokyo"}
	}

	cfg.SessionBackend = strings.TrimSpace(strings.ToLower(firstNonEmpty(os.Getenv("SESSION_BACKEND"), fc.Session.Backend)))
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = SessionBackendInMemory
	}
	cfg.SessionTTL = parseDuration(fc.Session.TTL, 24*time.Hour)
	cfg.SessionSecureCookie = fc.Session.SecureCookie

	cfg.MemcachedAddrs = firstNonEmpty(
		strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS")),
		strings.TrimSpace(fc.Session.Memcached.Addrs),
		"localhost:11211",
	)
	cfg.MemcachedTimeout = parseDuration(fc.Session.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Session.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.DegradedWindow = parseDuration(fc.Health.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Health.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 50
	}
	cfg.DegradedMinSamples = fc.Health.DegradedMinSamples
	if cfg.DegradedMinSamples <= 0 {
		cfg.DegradedMinSamples = 5
	}
	cfg.TrackedCities = fc.Metrics.TrackedCities

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. RequestTimeout is raised above UpstreamTimeout
// because one fetch makes up to three sequential upstream calls.
func validate(cfg *Config) error {
	if cfg.UpstreamTimeout <= 0 {
		return fmt.Errorf("open_meteo.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.UpstreamTimeout {
		cfg.RequestTimeout = 3*cfg.UpstreamTimeout + time.Second
	}
	switch cfg.DefaultUnits {
	case "metric", "imperial":
	default:
		return fmt.Errorf("dashboard.default_units must be metric or imperial, got %q", cfg.DefaultUnits)
	}
	switch cfg.SessionBackend {
	case SessionBackendInMemory, SessionBackendMemcached:
	default:
		return fmt.Errorf("session.backend must be in_memory or memcached, got %q", cfg.SessionBackend)
	}
	if cfg.DegradedErrorPct > 100 {
		return fmt.Errorf("health.degraded_error_pct must be at most 100, got %d", cfg.DegradedErrorPct)
	}
	return nil
}
