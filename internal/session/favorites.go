package session

import "strings"

// MaxFavorites caps the favorites list. The oldest entry is evicted first.
const MaxFavorites = 5

// Favorites is an insertion-ordered set of city names, oldest first.
type Favorites []string

// Add returns the list with city appended. Cities already present (compared
// case-insensitively, ignoring surrounding space) keep their original spelling and
// position. evicted is the city dropped to make room, or "" when nothing was dropped.
// The receiver is never modified.
func (f Favorites) Add(city string) (out Favorites, evicted string) {
	city = strings.TrimSpace(city)
	if city == "" || f.Contains(city) {
		return f, ""
	}

	out = make(Favorites, 0, MaxFavorites)
	out = append(out, f...)
	out = append(out, city)
	if len(out) > MaxFavorites {
		evicted = out[0]
		out = out[len(out)-MaxFavorites:]
	}
	return out, evicted
}

// Contains reports whether city is already a favorite.
func (f Favorites) Contains(city string) bool {
	key := normalize(city)
	for _, c := range f {
		if normalize(c) == key {
			return true
		}
	}
	return false
}

func normalize(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
