// Package advice turns current conditions into human-readable suggestions.
// Every function here is pure: the same inputs always produce the same string.
package advice

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kjstillabower/weather-dashboard/internal/conditions"
	"github.com/kjstillabower/weather-dashboard/internal/models"
)

const (
	MoodIndoorReading = "Cozy indoor reading weather 📚"
	MoodHotChocolate  = "Hot chocolate & blanket vibes ☕️"
	MoodBrightBreezy  = "Bright, breezy, and sunglasses on 😎"
	MoodCrispAir      = "Crisp air & warm jacket day 🧣"
	MoodSoftSkies     = "Perfectly soft and cloudy skies ☁️"
	MoodBlueSkies     = "Blue skies and good times ahead ☀️"
	MoodDefault       = "A great day to be you! ✨"

	ClothingWaterproof   = "Waterproof jacket and an umbrella are a must! ☂️"
	ClothingHeavyCoat    = "Heavy coat, gloves, and a warm hat. Stay bundled!"
	ClothingStayIndoors  = "Stay indoors! But if you must go out, waterproof gear is essential."
	ClothingLightFabrics = "Light cotton or linen clothes. Stay hydrated!"
	ClothingTShirt       = "A t-shirt and jeans/shorts will be comfortable."
	ClothingLightJacket  = "A light jacket or sweater is a good idea. 🧥"
	ClothingWarmCoat     = "Wear a warm coat, layers are your friend!"
	ClothingDefault      = "Check the conditions and dress accordingly."

	ActivityIndoor   = "Looks wet out there! Perfect time for a movie marathon, baking, or visiting an indoor cafe. ☕"
	ActivityWinter   = "It's a winter wonderland! ❄️ Great for building a snowman or cozying up by the fire."
	ActivityOutdoor  = "Clear skies! ☀️ Fantastic day for jogging, a picnic in the park, or photography."
	ActivityModerate = "Pleasantly overcast. Great for a long walk, gardening, or outdoor sports without the harsh sun."
	ActivityDefault  = "A versatile day! Most outdoor or indoor activities are on the table."

	pollutionFormat = "High pollution! (%s) 😷 Best to stay indoors. Good day for study or indoor exercise."
)

var titleCaser = cases.Title(language.English)

// ToCelsius normalizes a temperature reported in units to Celsius.
func ToCelsius(temp float64, units models.Units) float64 {
	if units == models.UnitsImperial {
		return (temp - 32) * 5 / 9
	}
	return temp
}

func wet(c conditions.Category) bool {
	return c == conditions.CategoryRain || c == conditions.CategoryDrizzle || c == conditions.CategoryStorm
}

// Mood returns the "weather mood" line. The 30°C and 10°C thresholds are strict.
func Mood(code int, temp float64, units models.Units) string {
	c := ToCelsius(temp, units)
	category := conditions.CategoryOf(code)

	switch {
	case wet(category):
		return MoodIndoorReading
	case category == conditions.CategorySnow:
		return MoodHotChocolate
	case c > 30:
		return MoodBrightBreezy
	case c < 10:
		return MoodCrispAir
	case category == conditions.CategoryCloudy:
		return MoodSoftSkies
	case category == conditions.CategoryClear:
		return MoodBlueSkies
	}
	return MoodDefault
}

// Clothing suggests what to wear.
func Clothing(code int, temp float64, units models.Units) string {
	c := ToCelsius(temp, units)
	category := conditions.CategoryOf(code)

	switch {
	case category == conditions.CategoryRain || category == conditions.CategoryDrizzle:
		return ClothingWaterproof
	case category == conditions.CategorySnow:
		return ClothingHeavyCoat
	case category == conditions.CategoryStorm:
		return ClothingStayIndoors
	case c > 28:
		return ClothingLightFabrics
	case c >= 20 && c <= 28:
		return ClothingTShirt
	case c >= 10 && c < 20:
		return ClothingLightJacket
	case c < 10:
		return ClothingWarmCoat
	}
	// NaN lands here.
	return ClothingDefault
}

// Activity suggests something to do. Harmful air quality overrides the weather.
func Activity(code int, level conditions.AQILevel) string {
	if level.Harmful() {
		return fmt.Sprintf(pollutionFormat, titleCaser.String(strings.ToLower(level.String())))
	}

	switch conditions.CategoryOf(code) {
	case conditions.CategoryRain, conditions.CategoryDrizzle, conditions.CategoryStorm:
		return ActivityIndoor
	case conditions.CategorySnow:
		return ActivityWinter
	case conditions.CategoryClear:
		return ActivityOutdoor
	case conditions.CategoryCloudy, conditions.CategoryFog:
		return ActivityModerate
	}
	return ActivityDefault
}

// Recommendations bundles the three suggestions for one report.
type Recommendations struct {
	Mood     string `json:"mood"`
	Clothing string `json:"clothing"`
	Activity string `json:"activity"`
}

// For derives recommendations from a report's current conditions and AQI.
func For(r models.Report) Recommendations {
	level := conditions.LevelFor(r.AirQuality.USAQI)
	return Recommendations{
		Mood:     Mood(r.Current.WeatherCode, r.Current.Temperature, r.Units),
		Clothing: Clothing(r.Current.WeatherCode, r.Current.Temperature, r.Units),
		Activity: Activity(r.Current.WeatherCode, level),
	}
}
