package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across client, http and service packages.
func TestMetrics_Usable(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("POST", "/search").Observe(0.2)
	UpstreamCallsTotal.WithLabelValues("geocoding", "success").Inc()
	UpstreamCallsTotal.WithLabelValues("forecast", "server_error").Inc()
	UpstreamDuration.WithLabelValues("air_quality", "success").Observe(0.1)
	FetchesTotal.WithLabelValues("success").Inc()
	FetchesTotal.WithLabelValues("city_not_found").Inc()
	FavoritesEvictedTotal.Inc()
	CircuitBreakerState.WithLabelValues("forecast").Set(0)
}

func TestMetricCityLabel(t *testing.T) {
	SetTrackedCities([]string{"London", " New York "})
	defer SetTrackedCities(nil)

	tests := []struct {
		in   string
		want string
	}{
		{"London", "london"},
		{"  LONDON", "london"},
		{"new york", "new york"},
		{"Atlantis", "other"},
	}
	for _, tt := range tests {
		if got := MetricCityLabel(tt.in); got != tt.want {
			t.Errorf("MetricCityLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	RecordCityQuery("London")
	RecordCityQuery("Atlantis")
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/health", "2xx").Inc()

	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "httpRequestsTotal") {
		t.Error("MetricsHandler response should contain metric output")
	}
}
