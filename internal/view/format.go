package view

import (
	"fmt"
	"math"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

const (
	dayLabelLayout = "Mon, Jan 02"
	notAvailable   = "N/A"
)

// FormatTemperature renders a whole-degree temperature with its unit symbol, e.g. "31°C".
func FormatTemperature(v float64, units models.Units) string {
	return fmt.Sprintf("%.0f%s", noNegativeZero(math.Round(v)), units.TemperatureSymbol())
}

// FormatOptionalTemperature is FormatTemperature for a nullable value; nil renders "N/A".
func FormatOptionalTemperature(v *float64, units models.Units) string {
	if v == nil {
		return notAvailable
	}
	return FormatTemperature(*v, units)
}

// FormatPrecipitation renders millimetres with one decimal, e.g. "0.2 mm".
func FormatPrecipitation(mm float64) string {
	return fmt.Sprintf("%.1f mm", mm)
}

// FormatPercent renders a nullable percentage, or "N/A" when upstream sent null.
func FormatPercent(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.0f%%", noNegativeZero(math.Round(*v)))
}

// FormatWind renders a wind speed with the unit label for units, e.g. "9.7 km/h".
func FormatWind(v float64, units models.Units) string {
	return fmt.Sprintf("%g %s", math.Round(v*10)/10, units.WindSpeedLabel())
}

// FormatCoordinate renders a latitude or longitude with two decimals, e.g. "28.67°".
func FormatCoordinate(v float64) string {
	return fmt.Sprintf("%.2f°", v)
}

// DayLabel renders a forecast date as "Mon, Jan 02".
func DayLabel(d time.Time) string {
	return d.Format(dayLabelLayout)
}

func noNegativeZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
