package view

import (
	"errors"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// Series names accepted by HourlySeries and the /api/hourly endpoint.
const (
	SeriesTemperature              = "temperature"
	SeriesPrecipitationProbability = "precipitation_probability"
	SeriesHumidity                 = "humidity"
)

// ErrUnknownSeries is returned by HourlySeries for names outside SeriesNames.
var ErrUnknownSeries = errors.New("unknown hourly series")

// SeriesNames lists the chart series in selector order.
var SeriesNames = []string{SeriesTemperature, SeriesPrecipitationProbability, SeriesHumidity}

// ChartPoint is one hourly sample. Value is null past the forecast horizon.
type ChartPoint struct {
	Time  string   `json:"time"`
	Value *float64 `json:"value"`
}

// ChartSeries is one selectable line of the hourly chart.
type ChartSeries struct {
	Name   string       `json:"name"`
	Label  string       `json:"label"`
	Unit   string       `json:"unit"`
	Points []ChartPoint `json:"points"`
}

// HourlySeries extracts one named series from the report's hourly block.
func HourlySeries(r models.Report, name string) (ChartSeries, error) {
	var (
		label string
		unit  string
		pick  func(models.HourlyForecastEntry) *float64
	)
	switch name {
	case SeriesTemperature:
		label, unit = "Temperature", r.Units.TemperatureSymbol()
		pick = func(h models.HourlyForecastEntry) *float64 { return h.Temperature }
	case SeriesPrecipitationProbability:
		label, unit = "Rain Chance (%)", "%"
		pick = func(h models.HourlyForecastEntry) *float64 { return h.PrecipitationProbability }
	case SeriesHumidity:
		label, unit = "Humidity", "%"
		pick = func(h models.HourlyForecastEntry) *float64 { return h.Humidity }
	default:
		return ChartSeries{}, ErrUnknownSeries
	}

	points := make([]ChartPoint, 0, len(r.Hourly))
	for _, h := range r.Hourly {
		points = append(points, ChartPoint{
			Time:  h.Time.Format("2006-01-02T15:04"),
			Value: pick(h),
		})
	}
	return ChartSeries{Name: name, Label: label, Unit: unit, Points: points}, nil
}

// AllSeries returns every chart series in selector order.
func AllSeries(r models.Report) []ChartSeries {
	out := make([]ChartSeries, 0, len(SeriesNames))
	for _, name := range SeriesNames {
		s, _ := HourlySeries(r, name)
		out = append(out, s)
	}
	return out
}
