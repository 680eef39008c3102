// Package conditions holds the static lookup tables that turn raw upstream
// values into display labels: WMO weather codes and US AQI levels.
package conditions

// Category is the semantic weather group a WMO code belongs to.
// Recommendation rules branch on Category, never on description text.
type Category string

const (
	CategoryClear   Category = "clear"
	CategoryCloudy  Category = "cloudy"
	CategoryFog     Category = "fog"
	CategoryDrizzle Category = "drizzle"
	CategoryRain    Category = "rain"
	CategorySnow    Category = "snow"
	CategoryStorm   Category = "storm"
	CategoryUnknown Category = "unknown"
)

// Condition is the display form of a WMO weather code.
type Condition struct {
	Code        int
	Description string
	Icon        string
	Category    Category
}

const (
	unknownDescription = "Unknown"
	unknownIcon        = "❓"
)

var wmoCodes = map[int]Condition{
	0:  {0, "Clear sky", "☀️", CategoryClear},
	1:  {1, "Mainly clear", "🌤️", CategoryClear},
	2:  {2, "Partly cloudy", "⛅️", CategoryCloudy},
	3:  {3, "Overcast", "☁️", CategoryCloudy},
	45: {45, "Fog", "🌫️", CategoryFog},
	48: {48, "Depositing rime fog", "🌫️", CategoryFog},
	51: {51, "Light drizzle", "💧", CategoryDrizzle},
	53: {53, "Moderate drizzle", "💧", CategoryDrizzle},
	55: {55, "Dense drizzle", "💧", CategoryDrizzle},
	56: {56, "Light freezing drizzle", "❄️💧", CategoryDrizzle},
	57: {57, "Dense freezing drizzle", "❄️💧", CategoryDrizzle},
	61: {61, "Slight rain", "🌧️", CategoryRain},
	63: {63, "Moderate rain", "🌧️", CategoryRain},
	65: {65, "Heavy rain", "🌧️", CategoryRain},
	66: {66, "Light freezing rain", "❄️🌧️", CategoryRain},
	67: {67, "Heavy freezing rain", "❄️🌧️", CategoryRain},
	71: {71, "Slight snow fall", "❄️", CategorySnow},
	73: {73, "Moderate snow fall", "❄️", CategorySnow},
	75: {75, "Heavy snow fall", "❄️", CategorySnow},
	77: {77, "Snow grains", "❄️", CategorySnow},
	80: {80, "Slight rain showers", "🌦️", CategoryRain},
	81: {81, "Moderate rain showers", "🌦️", CategoryRain},
	82: {82, "Violent rain showers", "🌦️", CategoryRain},
	85: {85, "Slight snow showers", "❄️🌦️", CategorySnow},
	86: {86, "Heavy snow showers", "❄️🌦️", CategorySnow},
	95: {95, "Thunderstorm", "⛈️", CategoryStorm},
	96: {96, "Thunderstorm with light hail", "⛈️", CategoryStorm},
	99: {99, "Thunderstorm with heavy hail", "⛈️", CategoryStorm},
}

// Lookup returns the Condition for a WMO code. Codes outside the table map to
// ("Unknown", "❓") with CategoryUnknown.
func Lookup(code int) Condition {
	if c, ok := wmoCodes[code]; ok {
		return c
	}
	return Condition{
		Code:        code,
		Description: unknownDescription,
		Icon:        unknownIcon,
		Category:    CategoryUnknown,
	}
}

// CategoryOf is shorthand for Lookup(code).Category.
func CategoryOf(code int) Category {
	return Lookup(code).Category
}
