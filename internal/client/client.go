package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// Geocoder resolves a free-text city name to its top match.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (models.Location, error)
}

// ForecastProvider returns current, daily and hourly forecast blocks for a location.
type ForecastProvider interface {
	Forecast(ctx context.Context, loc models.Location, units models.Units, days int) (Forecast, error)
}

// AirQualityProvider returns the current US AQI for a location.
type AirQualityProvider interface {
	AirQuality(ctx context.Context, loc models.Location) (models.AirQuality, error)
}

var (
	ErrCityNotFound     = errors.New("city not found")
	ErrUpstreamHTTP     = errors.New("upstream http error")
	ErrUpstreamNetwork  = errors.New("upstream network error")
	ErrUpstreamResponse = errors.New("malformed upstream response")
)

// Collaborator names, used as metric labels and in error messages.
const (
	Geocoding     = "geocoding"
	ForecastAPI   = "forecast"
	AirQualityAPI = "air_quality"
)

// StatusError is returned for non-2xx responses. It matches ErrUpstreamHTTP with errors.Is.
type StatusError struct {
	Collaborator string
	StatusCode   int
	Reason       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: HTTP %d", e.Collaborator, e.StatusCode)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamHTTP
}

// Config configures the Open-Meteo client. BreakerFailures of 0 disables circuit breaking.
type Config struct {
	GeocodingURL    string
	ForecastURL     string
	AirQualityURL   string
	Timeout         time.Duration
	BreakerFailures int
	BreakerTimeout  time.Duration
}

// OpenMeteoClient talks to the Open-Meteo geocoding, forecast and air-quality APIs.
// It implements Geocoder, ForecastProvider and AirQualityProvider. No API key is needed.
type OpenMeteoClient struct {
	geocodingURL  string
	forecastURL   string
	airQualityURL string
	timeout       time.Duration
	client        *http.Client
	breakers      map[string]*gobreaker.CircuitBreaker
}

func NewOpenMeteoClient(cfg Config) (*OpenMeteoClient, error) {
	for name, raw := range map[string]string{
		Geocoding:     cfg.GeocodingURL,
		ForecastAPI:   cfg.ForecastURL,
		AirQualityAPI: cfg.AirQualityURL,
	} {
		if raw == "" {
			return nil, fmt.Errorf("%s URL is required", name)
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			return nil, fmt.Errorf("invalid %s URL: %w", name, err)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	c := &OpenMeteoClient{
		geocodingURL:  cfg.GeocodingURL,
		forecastURL:   cfg.ForecastURL,
		airQualityURL: cfg.AirQualityURL,
		timeout:       cfg.Timeout,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.BreakerFailures > 0 {
		c.breakers = make(map[string]*gobreaker.CircuitBreaker, 3)
		for _, name := range []string{Geocoding, ForecastAPI, AirQualityAPI} {
			c.breakers[name] = newBreaker(name, uint32(cfg.BreakerFailures), cfg.BreakerTimeout)
			observability.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
		}
	}
	return c, nil
}

func newBreaker(name string, failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// breakerSuccess reports whether err leaves the upstream's health unquestioned.
// Callers abandoning a request and 4xx answers (other than 429) say nothing about
// whether Open-Meteo is up, so they do not count toward tripping.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	return false
}

type geocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		CountryCode string  `json:"country_code"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Timezone    string  `json:"timezone"`
	} `json:"results"`
}

// Geocode returns the top geocoding match for name, or ErrCityNotFound when there is none.
func (c *OpenMeteoClient) Geocode(ctx context.Context, name string) (models.Location, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var resp geocodingResponse
	if err := c.getJSON(ctx, Geocoding, c.geocodingURL, params, &resp); err != nil {
		return models.Location{}, err
	}
	if len(resp.Results) == 0 {
		return models.Location{}, fmt.Errorf("%w: %s", ErrCityNotFound, name)
	}

	top := resp.Results[0]
	tz := top.Timezone
	if tz == "" {
		tz = "auto"
	}
	return models.Location{
		Name:        top.Name,
		CountryCode: top.CountryCode,
		Latitude:    top.Latitude,
		Longitude:   top.Longitude,
		Timezone:    tz,
	}, nil
}

// getJSON performs one GET against a collaborator and decodes the body into target.
// Each call goes through the collaborator's circuit breaker when breaking is enabled.
func (c *OpenMeteoClient) getJSON(ctx context.Context, collaborator, endpoint string, params url.Values, target interface{}) error {
	cb := c.breakers[collaborator]
	if cb == nil {
		return c.callAPI(ctx, collaborator, endpoint, params, target)
	}

	_, err := cb.Execute(func() (interface{}, error) {
		return nil, c.callAPI(ctx, collaborator, endpoint, params, target)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		observability.UpstreamCallsTotal.WithLabelValues(collaborator, "circuit_open").Inc()
		return fmt.Errorf("%s: %w: %w", collaborator, ErrUpstreamNetwork, err)
	}
	return err
}

func (c *OpenMeteoClient) callAPI(ctx context.Context, collaborator, endpoint string, params url.Values, target interface{}) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := buildRequest(reqCtx, endpoint, params)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(collaborator, "error").Inc()
		return fmt.Errorf("%s: build request: %w", collaborator, err)
	}
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(collaborator, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(collaborator, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("%s request failed: %w: %w", collaborator, ErrUpstreamNetwork, err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(collaborator, status).Inc()
	observability.UpstreamDuration.WithLabelValues(collaborator, status).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response body: %w: %w", collaborator, ErrUpstreamNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Collaborator: collaborator,
			StatusCode:   resp.StatusCode,
			Reason:       errorReason(body),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%s: parse response: %w: %v", collaborator, ErrUpstreamResponse, err)
	}
	return nil
}

func buildRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	baseURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// errorReason extracts Open-Meteo's {"error": true, "reason": "..."} message, if any.
func errorReason(body []byte) string {
	var e struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return strings.TrimSpace(e.Reason)
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
