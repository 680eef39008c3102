package session

import (
	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// State is everything the dashboard remembers about one browser session.
// Report is nil until the first successful fetch.
type State struct {
	City      string         `json:"city"`
	Units     models.Units   `json:"units"`
	Favorites Favorites      `json:"favorites"`
	Report    *models.Report `json:"report,omitempty"`
}

// NewState builds the initial state for a new session. Favorites pass through Add,
// so duplicates are dropped and the cap applies.
func NewState(city string, units models.Units, favorites []string) State {
	var favs Favorites
	for _, f := range favorites {
		favs, _ = favs.Add(f)
	}
	return State{
		City:      city,
		Units:     units,
		Favorites: favs,
	}
}

// Clone returns a copy that shares no mutable slices with s. The Report is
// shared: it is never modified after a fetch produces it.
func (s State) Clone() State {
	out := s
	if s.Favorites != nil {
		out.Favorites = append(Favorites(nil), s.Favorites...)
	}
	return out
}

// HasReport reports whether a fetch has succeeded in this session.
func (s State) HasReport() bool {
	return s.Report != nil
}
