package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sony/gobreaker"
)

// TestCategorizeError verifies that CategorizeError maps errors to the correct ErrorCategory
// for metrics labeling, including sentinel errors, wrapped errors and status errors.
func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"city not found", fmt.Errorf("%w: Atlantis", ErrCityNotFound), ErrorCategoryCityNotFound},
		{"timeout", fmt.Errorf("forecast request failed: %w: %w", ErrUpstreamNetwork, context.DeadlineExceeded), ErrorCategoryTimeout},
		{"canceled", context.Canceled, ErrorCategoryTimeout},
		{"network", fmt.Errorf("geocoding request failed: %w: %w", ErrUpstreamNetwork, errors.New("connection refused")), ErrorCategoryNetwork},
		{"circuit open", fmt.Errorf("forecast: %w: %w", ErrUpstreamNetwork, gobreaker.ErrOpenState), ErrorCategoryCircuitOpen},
		{"half-open saturated", gobreaker.ErrTooManyRequests, ErrorCategoryCircuitOpen},
		{"500", &StatusError{Collaborator: ForecastAPI, StatusCode: 500}, ErrorCategoryUpstream5xx},
		{"wrapped 503", fmt.Errorf("fetch: %w", &StatusError{Collaborator: AirQualityAPI, StatusCode: 503}), ErrorCategoryUpstream5xx},
		{"400", &StatusError{Collaborator: ForecastAPI, StatusCode: 400}, ErrorCategoryUpstream4xx},
		{"malformed", fmt.Errorf("air_quality: %w: us_aqi missing", ErrUpstreamResponse), ErrorCategoryResponse},
		{"unknown", errors.New("something else"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategorizeError(tt.err)
			if got != tt.want {
				t.Errorf("CategorizeError() = %v, want %v", got, tt.want)
			}
		})
	}
}
