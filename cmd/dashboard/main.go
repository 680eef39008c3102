package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/config"
	httphandler "github.com/kjstillabower/weather-dashboard/internal/http"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
	"github.com/kjstillabower/weather-dashboard/internal/view"

	// Forecast timestamps are parsed in the city's IANA zone; embed the database
	// so containers without /usr/share/zoneinfo still resolve it.
	_ "time/tzdata"
)

const inFlightCheckInterval = 100 * time.Millisecond

// app is the wired service: the router plus the resources shutdown must release.
type app struct {
	router    http.Handler
	memcached *session.MemcachedStore
}

// newApp wires config into the client, service, session store and router.
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	omClient, err := client.NewOpenMeteoClient(client.Config{
		GeocodingURL:    cfg.GeocodingURL,
		ForecastURL:     cfg.ForecastURL,
		AirQualityURL:   cfg.AirQualityURL,
		Timeout:         cfg.UpstreamTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open-meteo client: %w", err)
	}
	if cfg.BreakerFailures > 0 {
		logger.Info("circuit breaker enabled", zap.Int("failure_threshold", cfg.BreakerFailures), zap.Duration("timeout", cfg.BreakerTimeout))
	}

	tracker := traffic.NewTracker(cfg.DegradedWindow)
	dashboard := service.NewDashboardService(omClient, omClient, omClient, tracker)

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:     cfg.DegradedWindow,
		DegradedErrorPct:   float64(cfg.DegradedErrorPct),
		DegradedMinSamples: cfg.DegradedMinSamples,
		Version:            cfg.Version,
	}

	a := &app{}
	var store session.Store
	switch cfg.SessionBackend {
	case config.SessionBackendMemcached:
		mc, err := session.NewMemcachedStore(cfg.MemcachedAddrs, cfg.SessionTTL, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("memcached session store: %w", err)
		}
		a.memcached = mc
		store = mc
		healthConfig.StorePing = mc.Ping
		logger.Info("session backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		store = session.NewInMemoryStore(cfg.SessionTTL)
		logger.Info("session backend: in_memory")
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	if len(cfg.TrackedCities) > 0 {
		observability.SetTrackedCities(cfg.TrackedCities)
	}

	handler := httphandler.NewHandler(dashboard, store, renderer, tracker, healthConfig, logger)
	units := models.Units(cfg.DefaultUnits)
	a.router = httphandler.NewRouter(handler, logger, httphandler.SessionConfig{
		Store: store,
		Initial: func() session.State {
			return session.NewState(cfg.DefaultCity, units, cfg.DefaultFavorites)
		},
		TTL:          cfg.SessionTTL,
		SecureCookie: cfg.SessionSecureCookie,
	}, cfg.RequestTimeout)
	return a, nil
}

func (a *app) close() error {
	if a.memcached != nil {
		return a.memcached.Close()
	}
	return nil
}

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("startup", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	lifecycle.MarkStarted(time.Now())
	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort), zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	if err := httphandler.WaitForInFlight(shutdownCtx, inFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if err := a.close(); err != nil {
		logger.Error("memcached close", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
