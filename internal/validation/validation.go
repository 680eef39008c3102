package validation

import (
	"errors"
	"strings"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// ErrCityEmpty is returned when the city is empty or whitespace-only after trim.
var ErrCityEmpty = errors.New("city is required")

// ErrUnitsInvalid is returned for anything other than metric or imperial.
var ErrUnitsInvalid = errors.New("units must be metric or imperial")

// ValidateCity trims the input and rejects blanks. Anything else is passed to the
// geocoder as typed; an unknown name surfaces there as city-not-found.
func ValidateCity(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrCityEmpty
	}
	return s, nil
}

// ParseUnits accepts "metric" or "imperial", case-insensitively.
func ParseUnits(input string) (models.Units, error) {
	switch models.Units(strings.ToLower(strings.TrimSpace(input))) {
	case models.UnitsMetric:
		return models.UnitsMetric, nil
	case models.UnitsImperial:
		return models.UnitsImperial, nil
	}
	return "", ErrUnitsInvalid
}
