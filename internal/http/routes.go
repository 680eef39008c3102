package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// NewRouter wires the dashboard routes. Page and API routes run inside the session
// and timeout middleware; /health and /metrics do not touch sessions.
func NewRouter(h *Handler, logger *zap.Logger, sessions SessionConfig, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	app := router.PathPrefix("/").Subrouter()
	app.Use(TimeoutMiddleware(requestTimeout))
	app.Use(SessionMiddleware(sessions))
	app.HandleFunc("/", h.GetPage).Methods(http.MethodGet)
	app.HandleFunc("/search", h.PostSearch).Methods(http.MethodPost)
	app.HandleFunc("/favorites", h.PostFavorite).Methods(http.MethodPost)
	app.HandleFunc("/units", h.PostUnits).Methods(http.MethodPost)
	app.HandleFunc("/api/report", h.GetReport).Methods(http.MethodGet)
	app.HandleFunc("/api/hourly", h.GetHourly).Methods(http.MethodGet)

	return router
}
