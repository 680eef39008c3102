package models

import "time"

// Units selects the measurement system requested from upstream.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// TemperatureUnit returns the forecast API temperature_unit value.
func (u Units) TemperatureUnit() string {
	if u == UnitsImperial {
		return "fahrenheit"
	}
	return "celsius"
}

// WindSpeedUnit returns the forecast API wind_speed_unit value.
func (u Units) WindSpeedUnit() string {
	if u == UnitsImperial {
		return "mph"
	}
	return "kmh"
}

// TemperatureSymbol returns the display suffix for temperatures.
func (u Units) TemperatureSymbol() string {
	if u == UnitsImperial {
		return "°F"
	}
	return "°C"
}

// WindSpeedLabel returns the display label for wind speeds.
func (u Units) WindSpeedLabel() string {
	if u == UnitsImperial {
		return "mph"
	}
	return "km/h"
}

type Location struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"countryCode"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
}

type CurrentConditions struct {
	Time          time.Time `json:"time"`
	Temperature   float64   `json:"temperature"`
	Humidity      int       `json:"humidity"`
	Precipitation float64   `json:"precipitation"`
	WeatherCode   int       `json:"weatherCode"`
	WindSpeed     float64   `json:"windSpeed"`
}

type DailyForecastEntry struct {
	Date                        time.Time `json:"date"`
	WeatherCode                 int       `json:"weatherCode"`
	TempMax                     *float64  `json:"tempMax"` // nil when upstream has no value
	TempMin                     *float64  `json:"tempMin"`
	PrecipitationProbabilityMax *float64  `json:"precipitationProbabilityMax"` // nil when upstream has no value
}

// HourlyForecastEntry values are nil past the upstream forecast horizon.
type HourlyForecastEntry struct {
	Time                     time.Time `json:"time"`
	Temperature              *float64  `json:"temperature"`
	Humidity                 *float64  `json:"humidity"`
	PrecipitationProbability *float64  `json:"precipitationProbability"`
}

type AirQuality struct {
	USAQI int `json:"usAqi"`
}

// Report is everything produced by one successful fetch for a city.
type Report struct {
	Location   Location              `json:"location"`
	Units      Units                 `json:"units"`
	Current    CurrentConditions     `json:"current"`
	Daily      []DailyForecastEntry  `json:"daily"`
	Hourly     []HourlyForecastEntry `json:"hourly"`
	AirQuality AirQuality            `json:"airQuality"`
	FetchedAt  time.Time             `json:"fetchedAt"`
}
