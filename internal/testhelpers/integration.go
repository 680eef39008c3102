//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/config"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	GeocodingURL   string
	ForecastURL    string
	AirQualityURL  string
	SessionBackend string // "in_memory" or "memcached"
	MemcachedAddr  string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Open-Meteo needs no key, so live calls are opt-in: skips unless OPEN_METEO_LIVE=1.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	if os.Getenv("OPEN_METEO_LIVE") != "1" {
		t.Skip("OPEN_METEO_LIVE not set, skipping live Open-Meteo test")
	}
	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}
	return IntegrationTestConfig{
		GeocodingURL:   envOr("OPEN_METEO_GEOCODING_URL", config.DefaultGeocodingURL),
		ForecastURL:    envOr("OPEN_METEO_FORECAST_URL", config.DefaultForecastURL),
		AirQualityURL:  envOr("OPEN_METEO_AIR_QUALITY_URL", config.DefaultAirQualityURL),
		SessionBackend: os.Getenv("INTEGRATION_SESSION_BACKEND"),
		MemcachedAddr:  memcachedAddr,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SetupIntegrationClient creates a live Open-Meteo client without circuit breaking.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.OpenMeteoClient {
	c, err := client.NewOpenMeteoClient(client.Config{
		GeocodingURL:  cfg.GeocodingURL,
		ForecastURL:   cfg.ForecastURL,
		AirQualityURL: cfg.AirQualityURL,
		Timeout:       10 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}
	return c
}

// SetupIntegrationService creates a dashboard service over the live client and a session
// store. Falls back to the in-memory store when memcached is requested but unreachable.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.DashboardService, session.Store, *traffic.Tracker) {
	c := SetupIntegrationClient(t, cfg)
	tracker := traffic.NewTracker(time.Minute)
	svc := service.NewDashboardService(c, c, c, tracker)

	var store session.Store = session.NewInMemoryStore(time.Hour)
	if cfg.SessionBackend == "memcached" {
		mc, err := session.NewMemcachedStore(cfg.MemcachedAddr, time.Hour, 500*time.Millisecond, 2)
		if err == nil && mc.Ping() == nil {
			store = mc
			t.Cleanup(func() { _ = mc.Close() })
			t.Logf("Using Memcached session store at %s", cfg.MemcachedAddr)
		} else {
			t.Logf("Memcached not available, using in-memory session store")
		}
	}
	return svc, store, tracker
}
