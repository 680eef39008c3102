package view

import (
	"github.com/kjstillabower/weather-dashboard/internal/advice"
	"github.com/kjstillabower/weather-dashboard/internal/conditions"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/session"
)

// Tab selects which dashboard view is shown.
type Tab string

const (
	TabToday           Tab = "today"
	TabForecast        Tab = "forecast"
	TabRecommendations Tab = "recommendations"
)

// ParseTab maps a query value to a Tab, defaulting to TabToday.
func ParseTab(s string) Tab {
	switch Tab(s) {
	case TabForecast:
		return TabForecast
	case TabRecommendations:
		return TabRecommendations
	}
	return TabToday
}

// TabLink is one entry of the tab bar.
type TabLink struct {
	Tab    Tab
	Label  string
	Active bool
}

// Page is the full model handed to the dashboard template.
// Today, Forecast and Recommendations are nil until the session has a report.
type Page struct {
	Title     string
	City      string
	Units     models.Units
	Favorites []string
	Tab       Tab
	Tabs      []TabLink
	Error     string

	Today           *Today
	Forecast        *Forecast
	Recommendations *advice.Recommendations
	Chart           []ChartSeries
}

// Today is the current-conditions view.
type Today struct {
	Heading       string
	Temperature   string
	Description   string
	Icon          string
	Min           string
	Max           string
	Precipitation string
	RainChance    string
	AQI           int
	AQILevel      string
	AQIColor      string
	AQICaption    string
	Humidity      string
	Wind          string
	Latitude      string
	Longitude     string
}

// Day is one row of the 10-day summary.
type Day struct {
	Label       string
	Icon        string
	Description string
	Max         string
	Min         string
	RainChance  string
}

// Forecast is the 10-day view.
type Forecast struct {
	Days []Day
}

// NewPage builds the page model for a session. errMsg is shown as a banner above
// whatever the session last fetched successfully.
func NewPage(st session.State, tab Tab, errMsg string) Page {
	p := Page{
		Title:     "Weather in " + st.City,
		City:      st.City,
		Units:     st.Units,
		Favorites: append([]string(nil), st.Favorites...),
		Tab:       tab,
		Error:     errMsg,
	}
	for _, l := range []TabLink{
		{Tab: TabToday, Label: "Today"},
		{Tab: TabForecast, Label: "10-Day Forecast"},
		{Tab: TabRecommendations, Label: "Recommendations"},
	} {
		l.Active = l.Tab == tab
		p.Tabs = append(p.Tabs, l)
	}

	if st.Report == nil {
		return p
	}
	r := *st.Report
	// Units of the displayed values are the ones the report was fetched in.
	p.Units = r.Units
	p.Today = newToday(r)
	p.Forecast = newForecast(r)
	recs := advice.For(r)
	p.Recommendations = &recs
	p.Chart = AllSeries(r)
	return p
}

func newToday(r models.Report) *Today {
	cond := conditions.Lookup(r.Current.WeatherCode)
	level := conditions.LevelFor(r.AirQuality.USAQI)
	t := &Today{
		Heading:       "Current Conditions in " + r.Location.Name + ", " + r.Location.CountryCode,
		Temperature:   FormatTemperature(r.Current.Temperature, r.Units),
		Description:   cond.Description,
		Icon:          cond.Icon,
		Precipitation: FormatPrecipitation(r.Current.Precipitation),
		RainChance:    notAvailable,
		Min:           notAvailable,
		Max:           notAvailable,
		AQI:           r.AirQuality.USAQI,
		AQILevel:      level.String(),
		AQIColor:      level.Color(),
		AQICaption:    conditions.AQICaption,
		Humidity:      FormatPercent(floatPtr(float64(r.Current.Humidity))),
		Wind:          FormatWind(r.Current.WindSpeed, r.Units),
		Latitude:      FormatCoordinate(r.Location.Latitude),
		Longitude:     FormatCoordinate(r.Location.Longitude),
	}
	if len(r.Daily) > 0 {
		d := r.Daily[0]
		t.Min = FormatOptionalTemperature(d.TempMin, r.Units)
		t.Max = FormatOptionalTemperature(d.TempMax, r.Units)
		t.RainChance = FormatPercent(d.PrecipitationProbabilityMax)
	}
	return t
}

func newForecast(r models.Report) *Forecast {
	f := &Forecast{Days: make([]Day, 0, len(r.Daily))}
	for _, d := range r.Daily {
		cond := conditions.Lookup(d.WeatherCode)
		f.Days = append(f.Days, Day{
			Label:       DayLabel(d.Date),
			Icon:        cond.Icon,
			Description: cond.Description,
			Max:         FormatOptionalTemperature(d.TempMax, r.Units),
			Min:         FormatOptionalTemperature(d.TempMin, r.Units),
			RainChance:  FormatPercent(d.PrecipitationProbabilityMax),
		})
	}
	return f
}

func floatPtr(v float64) *float64 {
	return &v
}
