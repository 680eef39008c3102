package client

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

const (
	currentFields = "temperature_2m,relative_humidity_2m,precipitation,weather_code,wind_speed_10m"
	dailyFields   = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max"
	hourlyFields  = "temperature_2m,precipitation_probability,relative_humidity_2m"

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// Forecast holds the three time-indexed blocks of a forecast response.
type Forecast struct {
	Current models.CurrentConditions
	Daily   []models.DailyForecastEntry
	Hourly  []models.HourlyForecastEntry
}

type forecastResponse struct {
	Timezone string `json:"timezone"`
	Current  *struct {
		Time               string   `json:"time"`
		Temperature2M      *float64 `json:"temperature_2m"`
		RelativeHumidity2M *float64 `json:"relative_humidity_2m"`
		Precipitation      *float64 `json:"precipitation"`
		WeatherCode        *int     `json:"weather_code"`
		WindSpeed10M       *float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily *struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []int      `json:"weather_code"`
		Temperature2MMax            []*float64 `json:"temperature_2m_max"`
		Temperature2MMin            []*float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
	Hourly *struct {
		Time                     []string   `json:"time"`
		Temperature2M            []*float64 `json:"temperature_2m"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		RelativeHumidity2M       []*float64 `json:"relative_humidity_2m"`
	} `json:"hourly"`
}

// Forecast requests current, daily and hourly data in the given units. Temperatures and
// wind speeds come back already in the target unit; nothing is converted locally.
func (c *OpenMeteoClient) Forecast(ctx context.Context, loc models.Location, units models.Units, days int) (Forecast, error) {
	params := coordinates(loc)
	params.Set("timezone", loc.Timezone)
	params.Set("current", currentFields)
	params.Set("daily", dailyFields)
	params.Set("hourly", hourlyFields)
	params.Set("temperature_unit", units.TemperatureUnit())
	params.Set("wind_speed_unit", units.WindSpeedUnit())
	params.Set("forecast_days", strconv.Itoa(days))

	var resp forecastResponse
	if err := c.getJSON(ctx, ForecastAPI, c.forecastURL, params, &resp); err != nil {
		return Forecast{}, err
	}
	return mapForecast(resp, loc.Timezone)
}

func mapForecast(resp forecastResponse, requestedTZ string) (Forecast, error) {
	tz := resp.Timezone
	if tz == "" {
		tz = requestedTZ
	}
	zone := loadZone(tz)

	cur := resp.Current
	if cur == nil || cur.Temperature2M == nil || cur.WeatherCode == nil {
		return Forecast{}, fmt.Errorf("%s: %w: current block missing", ForecastAPI, ErrUpstreamResponse)
	}
	if resp.Daily == nil || len(resp.Daily.Time) == 0 {
		return Forecast{}, fmt.Errorf("%s: %w: daily block missing", ForecastAPI, ErrUpstreamResponse)
	}
	if resp.Hourly == nil {
		return Forecast{}, fmt.Errorf("%s: %w: hourly block missing", ForecastAPI, ErrUpstreamResponse)
	}

	currentTime, err := parseTime(cur.Time, zone)
	if err != nil {
		return Forecast{}, err
	}
	out := Forecast{
		Current: models.CurrentConditions{
			Time:          currentTime,
			Temperature:   *cur.Temperature2M,
			Humidity:      int(math.Round(valueOr(cur.RelativeHumidity2M))),
			Precipitation: valueOr(cur.Precipitation),
			WeatherCode:   *cur.WeatherCode,
			WindSpeed:     valueOr(cur.WindSpeed10M),
		},
	}

	d := resp.Daily
	n := len(d.Time)
	if len(d.WeatherCode) != n || len(d.Temperature2MMax) != n || len(d.Temperature2MMin) != n {
		return Forecast{}, fmt.Errorf("%s: %w: daily arrays have mismatched lengths", ForecastAPI, ErrUpstreamResponse)
	}
	out.Daily = make([]models.DailyForecastEntry, 0, n)
	for i := 0; i < n; i++ {
		date, err := time.ParseInLocation(dateLayout, d.Time[i], zone)
		if err != nil {
			return Forecast{}, fmt.Errorf("%s: %w: daily time %q", ForecastAPI, ErrUpstreamResponse, d.Time[i])
		}
		out.Daily = append(out.Daily, models.DailyForecastEntry{
			Date:                        date,
			WeatherCode:                 d.WeatherCode[i],
			TempMax:                     d.Temperature2MMax[i],
			TempMin:                     d.Temperature2MMin[i],
			PrecipitationProbabilityMax: at(d.PrecipitationProbabilityMax, i),
		})
	}

	h := resp.Hourly
	out.Hourly = make([]models.HourlyForecastEntry, 0, len(h.Time))
	for i, raw := range h.Time {
		ts, err := parseTime(raw, zone)
		if err != nil {
			return Forecast{}, err
		}
		out.Hourly = append(out.Hourly, models.HourlyForecastEntry{
			Time:                     ts,
			Temperature:              at(h.Temperature2M, i),
			Humidity:                 at(h.RelativeHumidity2M, i),
			PrecipitationProbability: at(h.PrecipitationProbability, i),
		})
	}
	return out, nil
}

type airQualityResponse struct {
	Current *struct {
		USAQI *float64 `json:"us_aqi"`
	} `json:"current"`
}

// AirQuality requests the current US AQI for a location.
func (c *OpenMeteoClient) AirQuality(ctx context.Context, loc models.Location) (models.AirQuality, error) {
	params := coordinates(loc)
	params.Set("current", "us_aqi")

	var resp airQualityResponse
	if err := c.getJSON(ctx, AirQualityAPI, c.airQualityURL, params, &resp); err != nil {
		return models.AirQuality{}, err
	}
	if resp.Current == nil || resp.Current.USAQI == nil {
		return models.AirQuality{}, fmt.Errorf("%s: %w: us_aqi missing", AirQualityAPI, ErrUpstreamResponse)
	}
	// Rounded up so a fractional reading never lands in a lower band than its raw value.
	return models.AirQuality{USAQI: int(math.Ceil(*resp.Current.USAQI))}, nil
}

func coordinates(loc models.Location) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	return params
}

// loadZone falls back to UTC when the zone database does not know tz.
func loadZone(tz string) *time.Location {
	if zone, err := time.LoadLocation(tz); err == nil {
		return zone
	}
	return time.UTC
}

func parseTime(raw string, zone *time.Location) (time.Time, error) {
	ts, err := time.ParseInLocation(dateTimeLayout, raw, zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w: time %q", ForecastAPI, ErrUpstreamResponse, raw)
	}
	return ts, nil
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
