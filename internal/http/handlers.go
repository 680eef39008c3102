package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/advice"
	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/conditions"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
	"github.com/kjstillabower/weather-dashboard/internal/view"
)

// Dashboard is the set of session transitions the handlers drive.
// *service.DashboardService implements it.
type Dashboard interface {
	Search(ctx context.Context, st session.State, city string) (session.State, error)
	SelectFavorite(ctx context.Context, st session.State, city string) (session.State, error)
	SetUnits(ctx context.Context, st session.State, units models.Units) (session.State, error)
	Load(ctx context.Context, st session.State) (session.State, error)
}

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow     time.Duration
	DegradedErrorPct   float64
	DegradedMinSamples int
	// StorePing, when set, is called to check session store reachability. Used when backend is memcached.
	StorePing func() error
	Version   string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	dashboard        Dashboard
	store            session.Store
	renderer         *view.Renderer
	tracker          *traffic.Tracker
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. tracker and healthConfig may be nil.
func NewHandler(
	dashboard Dashboard,
	store session.Store,
	renderer *view.Renderer,
	tracker *traffic.Tracker,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		dashboard:    dashboard,
		store:        store,
		renderer:     renderer,
		tracker:      tracker,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetPage handles GET /. The first visit of a session fetches the current city;
// later visits, including tab switches, render the stored report.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	id, st, ok := sessionFromRequest(r)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "NO_SESSION", "session unavailable")
		return
	}
	tab := view.ParseTab(r.URL.Query().Get("tab"))

	if st.HasReport() {
		h.renderPage(w, r, http.StatusOK, view.NewPage(st, tab, ""))
		return
	}

	next, err := h.dashboard.Load(r.Context(), st)
	if err != nil {
		h.renderPage(w, r, statusFor(err), view.NewPage(st, tab, service.ErrorMessage(err, st.City)))
		return
	}
	h.saveSession(r, id, next)
	h.renderPage(w, r, http.StatusOK, view.NewPage(next, tab, ""))
}

// PostSearch handles POST /search with form field city.
func (h *Handler) PostSearch(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, st session.State) (session.State, string, error) {
		city := strings.TrimSpace(r.PostFormValue("city"))
		next, err := h.dashboard.Search(ctx, st, city)
		return next, city, err
	})
}

// PostFavorite handles POST /favorites with form field city.
func (h *Handler) PostFavorite(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, st session.State) (session.State, string, error) {
		city := strings.TrimSpace(r.PostFormValue("city"))
		next, err := h.dashboard.SelectFavorite(ctx, st, city)
		return next, city, err
	})
}

// PostUnits handles POST /units with form field units.
func (h *Handler) PostUnits(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, st session.State) (session.State, string, error) {
		units, err := validation.ParseUnits(r.PostFormValue("units"))
		if err != nil {
			return st, st.City, err
		}
		next, err := h.dashboard.SetUnits(ctx, st, units)
		return next, st.City, err
	})
}

type transitionFunc func(ctx context.Context, st session.State) (next session.State, city string, err error)

// transition applies fn to the caller's session. Success saves and redirects to the page;
// failure re-renders the page from the unchanged session with an error banner.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	id, st, ok := sessionFromRequest(r)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "NO_SESSION", "session unavailable")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_FORM", "could not parse form")
		return
	}
	tab := view.ParseTab(r.FormValue("tab"))

	next, city, err := fn(r.Context(), st)
	if err != nil {
		h.renderPage(w, r, statusFor(err), view.NewPage(st, tab, service.ErrorMessage(err, city)))
		return
	}
	h.saveSession(r, id, next)

	target := "/"
	if tab != view.TabToday {
		target += "?tab=" + string(tab)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// reportResponse is the JSON shape of GET /api/report.
type reportResponse struct {
	Report          models.Report          `json:"report"`
	Condition       conditionView          `json:"condition"`
	AirQuality      airQualityView         `json:"airQuality"`
	Recommendations advice.Recommendations `json:"recommendations"`
}

type conditionView struct {
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Category    conditions.Category `json:"category"`
}

type airQualityView struct {
	USAQI int    `json:"usAqi"`
	Level string `json:"level"`
	Color string `json:"color"`
}

// GetReport handles GET /api/report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	_, st, ok := sessionFromRequest(r)
	if !ok || !st.HasReport() {
		writeError(w, r, http.StatusNotFound, "NO_REPORT", "no report fetched for this session")
		return
	}
	rep := *st.Report
	cond := conditions.Lookup(rep.Current.WeatherCode)
	level := conditions.LevelFor(rep.AirQuality.USAQI)
	writeJSON(w, http.StatusOK, reportResponse{
		Report:          rep,
		Condition:       conditionView{Description: cond.Description, Icon: cond.Icon, Category: cond.Category},
		AirQuality:      airQualityView{USAQI: rep.AirQuality.USAQI, Level: level.String(), Color: level.Color()},
		Recommendations: advice.For(rep),
	})
}

// GetHourly handles GET /api/hourly?series=temperature|precipitation_probability|humidity.
func (h *Handler) GetHourly(w http.ResponseWriter, r *http.Request) {
	_, st, ok := sessionFromRequest(r)
	if !ok || !st.HasReport() {
		writeError(w, r, http.StatusNotFound, "NO_REPORT", "no report fetched for this session")
		return
	}
	name := r.URL.Query().Get("series")
	if name == "" {
		name = view.SeriesTemperature
	}
	series, err := view.HourlySeries(*st.Report, name)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_SERIES", "series must be one of "+strings.Join(view.SeriesNames, ", "))
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"openMeteo": "healthy"}
	if result.reason == "error_rate_breach" {
		checks["openMeteo"] = "unhealthy"
	}
	now := time.Now()
	version := "dev"
	if h.healthConfig != nil {
		if h.healthConfig.StorePing != nil {
			checks["sessionStore"] = "healthy"
			if err := h.healthConfig.StorePing(); err != nil {
				checks["sessionStore"] = "unhealthy"
			}
		}
		if h.healthConfig.Version != "" {
			version = h.healthConfig.Version
		}
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   "weather-dashboard",
		"version":   version,
		"checks":    checks,
		"uptime":    lifecycle.Uptime(now).Truncate(time.Second).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order: shutting-down > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil || h.tracker == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	cfg := h.healthConfig
	if cfg.DegradedWindow > 0 && cfg.DegradedErrorPct > 0 &&
		h.tracker.Degraded(cfg.DegradedWindow, cfg.DegradedErrorPct, cfg.DegradedMinSamples) {
		return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// statusFor maps a transition error to the status of the re-rendered page.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrCityEmpty), errors.Is(err, validation.ErrUnitsInvalid):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrCityNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) saveSession(r *http.Request, id string, st session.State) {
	if err := h.store.Save(r.Context(), id, st); err != nil {
		observability.LoggerFromContext(r.Context()).Warn("session save failed", zap.Error(err))
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, page view.Page) {
	var buf strings.Builder
	if err := h.renderer.Render(&buf, page); err != nil {
		observability.LoggerFromContext(r.Context()).Error("render failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}
