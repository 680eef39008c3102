package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// ForecastDays is the number of daily entries requested from the forecast API.
const ForecastDays = 10

// DashboardService runs the geocode, forecast, air-quality pipeline and applies its
// result to session state. It holds no per-session data; state is passed in and returned.
type DashboardService struct {
	geocoder   client.Geocoder
	forecast   client.ForecastProvider
	airQuality client.AirQualityProvider
	tracker    *traffic.Tracker
	now        func() time.Time
}

// NewDashboardService creates a DashboardService. tracker may be nil.
func NewDashboardService(geocoder client.Geocoder, forecast client.ForecastProvider, airQuality client.AirQualityProvider, tracker *traffic.Tracker) *DashboardService {
	return &DashboardService{
		geocoder:   geocoder,
		forecast:   forecast,
		airQuality: airQuality,
		tracker:    tracker,
		now:        time.Now,
	}
}

// Fetch geocodes city, then requests its forecast in units, then its air quality.
// The calls run one after another and the first failure aborts the fetch.
func (s *DashboardService) Fetch(ctx context.Context, city string, units models.Units) (models.Report, error) {
	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	city, err := validation.ValidateCity(city)
	if err != nil {
		return models.Report{}, err
	}
	observability.RecordCityQuery(city)

	report, err := s.fetch(ctx, city, units)
	if err != nil {
		category := client.CategorizeError(err)
		observability.FetchesTotal.WithLabelValues(string(category)).Inc()
		if category == client.ErrorCategoryCityNotFound {
			logger.Info("city not found", zap.String("city", city))
		} else {
			s.recordError()
			logger.Warn("fetch failed",
				zap.String("city", city),
				zap.String("category", string(category)),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
		return models.Report{}, err
	}

	observability.FetchesTotal.WithLabelValues("success").Inc()
	s.recordSuccess()
	logger.Debug("report fetched",
		zap.String("city", city),
		zap.String("location", report.Location.Name),
		zap.String("units", string(units)),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

func (s *DashboardService) fetch(ctx context.Context, city string, units models.Units) (models.Report, error) {
	loc, err := s.geocoder.Geocode(ctx, city)
	if err != nil {
		return models.Report{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	fc, err := s.forecast.Forecast(ctx, loc, units, ForecastDays)
	if err != nil {
		return models.Report{}, fmt.Errorf("forecast for %s: %w", loc.Name, err)
	}
	aq, err := s.airQuality.AirQuality(ctx, loc)
	if err != nil {
		return models.Report{}, fmt.Errorf("air quality for %s: %w", loc.Name, err)
	}
	return models.Report{
		Location:   loc,
		Units:      units,
		Current:    fc.Current,
		Daily:      fc.Daily,
		Hourly:     fc.Hourly,
		AirQuality: aq,
		FetchedAt:  s.now(),
	}, nil
}

// Search fetches city in the session's units. On success the city becomes current, its
// report replaces the old one and it joins the favorites. On failure st is returned as is.
func (s *DashboardService) Search(ctx context.Context, st session.State, city string) (session.State, error) {
	report, err := s.Fetch(ctx, city, st.Units)
	if err != nil {
		return st, err
	}
	return s.apply(ctx, st, city, st.Units, report), nil
}

// SelectFavorite behaves exactly like Search.
func (s *DashboardService) SelectFavorite(ctx context.Context, st session.State, city string) (session.State, error) {
	return s.Search(ctx, st, city)
}

// SetUnits refetches the current city in units. Values are never converted locally.
func (s *DashboardService) SetUnits(ctx context.Context, st session.State, units models.Units) (session.State, error) {
	report, err := s.Fetch(ctx, st.City, units)
	if err != nil {
		return st, err
	}
	return s.apply(ctx, st, st.City, units, report), nil
}

// Load fetches the current city when the session has no report yet. A session that
// already holds a report is returned unchanged without touching upstream.
func (s *DashboardService) Load(ctx context.Context, st session.State) (session.State, error) {
	if st.HasReport() {
		return st, nil
	}
	report, err := s.Fetch(ctx, st.City, st.Units)
	if err != nil {
		return st, err
	}
	return s.apply(ctx, st, st.City, st.Units, report), nil
}

func (s *DashboardService) apply(ctx context.Context, st session.State, city string, units models.Units, report models.Report) session.State {
	city, _ = validation.ValidateCity(city)
	next := st.Clone()
	next.City = city
	next.Units = units
	next.Report = &report

	var evicted string
	next.Favorites, evicted = next.Favorites.Add(city)
	if evicted != "" {
		observability.FavoritesEvictedTotal.Inc()
		observability.LoggerFromContext(ctx).Debug("favorite evicted",
			zap.String("evicted", evicted),
			zap.String("added", city),
		)
	}
	return next
}

func (s *DashboardService) recordSuccess() {
	if s.tracker != nil {
		s.tracker.RecordSuccess()
	}
}

func (s *DashboardService) recordError() {
	if s.tracker != nil {
		s.tracker.RecordError()
	}
}

// ErrorMessage renders a fetch error as the banner text shown to the user.
func ErrorMessage(err error, city string) string {
	var statusErr *client.StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, validation.ErrCityEmpty):
		return "Please enter a city name."
	case errors.Is(err, validation.ErrUnitsInvalid):
		return "Please choose metric or imperial units."
	case errors.Is(err, client.ErrCityNotFound):
		return fmt.Sprintf("City not found: %s.", city)
	case errors.As(err, &statusErr):
		return "HTTP error: " + statusErr.Error()
	case errors.Is(err, client.ErrUpstreamResponse):
		return "HTTP error: " + err.Error()
	default:
		return "Error fetching data: " + err.Error()
	}
}
