package session

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

func TestFavorites_Add(t *testing.T) {
	tests := []struct {
		name        string
		start       Favorites
		add         string
		want        Favorites
		wantEvicted string
	}{
		{
			name: "append to empty",
			add:  "London",
			want: Favorites{"London"},
		},
		{
			name:  "append new city",
			start: Favorites{"London", "New York", "Tokyo"},
			add:   "Paris",
			want:  Favorites{"London", "New York", "Tokyo", "Paris"},
		},
		{
			name:  "duplicate is ignored",
			start: Favorites{"London", "New York", "Tokyo"},
			add:   "Tokyo",
			want:  Favorites{"London", "New York", "Tokyo"},
		},
		{
			name:  "duplicate differs in case and space",
			start: Favorites{"London", "New York"},
			add:   "  new york ",
			want:  Favorites{"London", "New York"},
		},
		{
			name:  "blank is ignored",
			start: Favorites{"London"},
			add:   "   ",
			want:  Favorites{"London"},
		},
		{
			name:  "new city is trimmed",
			start: Favorites{"London"},
			add:   " Paris ",
			want:  Favorites{"London", "Paris"},
		},
		{
			name:        "sixth city evicts oldest",
			start:       Favorites{"London", "New York", "Tokyo", "Paris", "Berlin"},
			add:         "Madrid",
			want:        Favorites{"New York", "Tokyo", "Paris", "Berlin", "Madrid"},
			wantEvicted: "London",
		},
		{
			name:  "present city at cap evicts nothing",
			start: Favorites{"London", "New York", "Tokyo", "Paris", "Berlin"},
			add:   "london",
			want:  Favorites{"London", "New York", "Tokyo", "Paris", "Berlin"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, evicted := tt.start.Add(tt.add)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Add(%q) = %v, want %v", tt.add, got, tt.want)
			}
			if evicted != tt.wantEvicted {
				t.Errorf("Add(%q) evicted = %q, want %q", tt.add, evicted, tt.wantEvicted)
			}
		})
	}
}

func TestFavorites_AddDoesNotMutateReceiver(t *testing.T) {
	start := Favorites{"London", "New York", "Tokyo", "Paris", "Berlin"}
	snapshot := append(Favorites(nil), start...)

	_, _ = start.Add("Madrid")
	if !reflect.DeepEqual(start, snapshot) {
		t.Errorf("receiver changed to %v, want %v", start, snapshot)
	}
}

func TestFavorites_NeverExceedsCap(t *testing.T) {
	var f Favorites
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "g", "b", "h", "i"} {
		f, _ = f.Add(c)
		if len(f) > MaxFavorites {
			t.Fatalf("len = %d after adding %q, want <= %d", len(f), c, MaxFavorites)
		}
	}
	want := Favorites{"f", "g", "b", "h", "i"}
	if !reflect.DeepEqual(f, want) {
		t.Errorf("favorites = %v, want %v", f, want)
	}
}

func TestNewState(t *testing.T) {
	st := NewState("Ghaziabad", models.UnitsMetric, []string{"London", "New York", "Tokyo", "london"})

	if st.City != "Ghaziabad" || st.Units != models.UnitsMetric {
		t.Errorf("NewState() = %+v", st)
	}
	want := Favorites{"London", "New York", "Tokyo"}
	if !reflect.DeepEqual(st.Favorites, want) {
		t.Errorf("Favorites = %v, want %v", st.Favorites, want)
	}
	if st.HasReport() {
		t.Error("HasReport() = true for new state")
	}
}

func TestState_Clone(t *testing.T) {
	orig := NewState("Ghaziabad", models.UnitsMetric, []string{"London"})
	clone := orig.Clone()
	clone.Favorites[0] = "Paris"

	if orig.Favorites[0] != "London" {
		t.Errorf("Clone shares favorites: original now %v", orig.Favorites)
	}
}

func TestInMemoryStore_GetSave(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(time.Minute)

	st := NewState("Tokyo", models.UnitsImperial, []string{"London"})
	st.Report = &models.Report{Location: models.Location{Name: "Tokyo"}}
	if err := s.Save(ctx, "abc", st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, ok, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got.City != "Tokyo" || got.Units != models.UnitsImperial || got.Report == nil {
		t.Errorf("Get() = %+v", got)
	}

	// Mutating the returned state must not leak back into the store.
	got.Favorites[0] = "Paris"
	again, _, _ := s.Get(ctx, "abc")
	if again.Favorites[0] != "London" {
		t.Errorf("stored favorites changed to %v", again.Favorites)
	}
}

func TestInMemoryStore_Miss(t *testing.T) {
	s := NewInMemoryStore(time.Minute)
	_, ok, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}

func TestInMemoryStore_Expired(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(time.Minute)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Save(ctx, "abc", NewState("Tokyo", models.UnitsMetric, nil)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	now = now.Add(2 * time.Minute)

	_, ok, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for expired entry")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, expired entry should be removed", s.Len())
	}
}

func TestInMemoryStore_SaveSweepsExpired(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(10 * time.Minute)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	save := func(id string) {
		t.Helper()
		if err := s.Save(ctx, id, NewState("Tokyo", models.UnitsMetric, nil)); err != nil {
			t.Fatalf("Save(%q) error = %v", id, err)
		}
	}

	save("a")
	save("b")
	save("c")
	now = now.Add(5 * time.Minute)
	save("fresh")
	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4 before expiry", s.Len())
	}

	now = now.Add(6 * time.Minute)
	save("d")
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after expired sessions are swept", s.Len())
	}
	if _, ok, _ := s.Get(ctx, "fresh"); !ok {
		t.Error("unexpired session was swept")
	}
}

func TestInMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewInMemoryStore(time.Minute)

	if err := s.Save(ctx, "abc", State{}); err == nil {
		t.Error("Save() with canceled context: want error")
	}
	if _, _, err := s.Get(ctx, "abc"); err == nil {
		t.Error("Get() with canceled context: want error")
	}
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(time.Minute)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				id := string(rune('a' + i))
				_ = s.Save(ctx, id, NewState("London", models.UnitsMetric, nil))
				_, _, _ = s.Get(ctx, id)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if s.Len() != 8 {
		t.Errorf("Len() = %d, want 8", s.Len())
	}
}

func TestParseAddrs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"localhost:11211", []string{"localhost:11211"}},
		{" a:1 , b:2 ,,", []string{"a:1", "b:2"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := ParseAddrs(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseAddrs(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewMemcachedStore_NoAddrs(t *testing.T) {
	if _, err := NewMemcachedStore(" , ", time.Hour, 0, 0); err == nil {
		t.Error("NewMemcachedStore() with no addresses: want error")
	}
}
