package conditions

// AQILevel is a US AQI severity bucket.
type AQILevel int

const (
	AQIGood AQILevel = iota
	AQIModerate
	AQIUnhealthySensitive
	AQIUnhealthy
	AQIVeryUnhealthy
	AQIHazardous
)

// aqiBands are inclusive upper bounds; anything above the last band is Hazardous.
var aqiBands = []struct {
	max   int
	level AQILevel
}{
	{50, AQIGood},
	{100, AQIModerate},
	{150, AQIUnhealthySensitive},
	{200, AQIUnhealthy},
	{300, AQIVeryUnhealthy},
}

// LevelFor classifies a US AQI value.
func LevelFor(aqi int) AQILevel {
	for _, b := range aqiBands {
		if aqi <= b.max {
			return b.level
		}
	}
	return AQIHazardous
}

func (l AQILevel) String() string {
	switch l {
	case AQIGood:
		return "Good"
	case AQIModerate:
		return "Moderate"
	case AQIUnhealthySensitive:
		return "Unhealthy for Sensitive Groups"
	case AQIUnhealthy:
		return "Unhealthy"
	case AQIVeryUnhealthy:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// Color is the CSS color used to render the level.
func (l AQILevel) Color() string {
	switch l {
	case AQIGood:
		return "green"
	case AQIModerate:
		return "yellow"
	case AQIUnhealthySensitive:
		return "orange"
	case AQIUnhealthy:
		return "red"
	case AQIVeryUnhealthy:
		return "purple"
	default:
		return "maroon"
	}
}

// Harmful reports whether the level warrants keeping activity indoors.
func (l AQILevel) Harmful() bool {
	return l >= AQIUnhealthy
}

// AQICaption is the legend shown next to the AQI reading.
const AQICaption = "AQI Index: 0-50=Good, 51-100=Moderate, 101-150=Unhealthy for Sensitive Groups, 151-200=Unhealthy, 201-300=Very Unhealthy, 301+=Hazardous"
