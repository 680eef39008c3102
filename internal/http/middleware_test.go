package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/session"
)

func TestCorrelationIDMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var gotID string

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.New(core)))
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		gotID = observability.CorrelationID(r.Context())
		observability.LoggerFromContext(r.Context()).Info("pong")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"generated", ""},
		{"propagated", "req-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("X-Correlation-ID", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			respID := w.Header().Get("X-Correlation-ID")
			if respID == "" || respID != gotID {
				t.Fatalf("response id %q, context id %q", respID, gotID)
			}
			if tt.header != "" && respID != tt.header {
				t.Errorf("id = %q, want %q", respID, tt.header)
			}
			if tt.header == "" {
				if _, err := uuid.Parse(respID); err != nil {
					t.Errorf("generated id %q is not a uuid", respID)
				}
			}
			entries := logs.TakeAll()
			if len(entries) != 1 || entries[0].ContextMap()["correlation_id"] != respID {
				t.Errorf("log entries = %v", entries)
			}
		})
	}
}

func TestMetricsMiddleware_RouteLabel(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.do(t, http.MethodPost, "/search", nil, nil)

	w := env.do(t, http.MethodGet, "/metrics", nil, nil)
	body, _ := io.ReadAll(w.Body)
	for _, want := range []string{`route="/search"`, `statusCode="4xx"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestMetricsMiddleware_TracksInFlight(t *testing.T) {
	var during int64
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = InFlightCount()
	}))
	before := InFlightCount()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during != before+1 {
		t.Errorf("in-flight during request = %d, want %d", during, before+1)
	}
	if after := InFlightCount(); after != before {
		t.Errorf("in-flight after request = %d, want %d", after, before)
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{"sets deadline", 50 * time.Millisecond, true},
		{"disabled", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hasDeadline bool
			var ctxErr error
			handler := TimeoutMiddleware(tt.timeout)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, hasDeadline = r.Context().Deadline()
				if hasDeadline {
					<-r.Context().Done()
					ctxErr = r.Context().Err()
				}
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			if hasDeadline != tt.wantDeadline {
				t.Errorf("deadline set = %v, want %v", hasDeadline, tt.wantDeadline)
			}
			if tt.wantDeadline && !errors.Is(ctxErr, context.DeadlineExceeded) {
				t.Errorf("ctx err = %v, want deadline exceeded", ctxErr)
			}
		})
	}
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, id string) (session.State, bool, error) {
	return session.State{}, false, errors.New("memcache: connection refused")
}

func (failingStore) Save(ctx context.Context, id string, st session.State) error {
	return errors.New("memcache: connection refused")
}

func newSessionTestRouter(store session.Store, logger *zap.Logger, got *session.State, gotID *string) http.Handler {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(SessionMiddleware(SessionConfig{
		Store:        store,
		Initial:      func() session.State { return session.NewState("Ghaziabad", models.UnitsMetric, nil) },
		TTL:          time.Hour,
		SecureCookie: true,
	}))
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		*gotID, *got, _ = sessionFromRequest(r)
	})
	return router
}

func TestSessionMiddleware(t *testing.T) {
	store := session.NewInMemoryStore(time.Hour)
	existingID := uuid.NewString()
	if err := store.Save(context.Background(), existingID, session.NewState("Paris", models.UnitsImperial, nil)); err != nil {
		t.Fatal(err)
	}
	unknownID := uuid.NewString()

	tests := []struct {
		name     string
		cookie   string
		wantID   string
		wantCity string
	}{
		{"no cookie issues new session", "", "", "Ghaziabad"},
		{"existing session loaded", existingID, existingID, "Paris"},
		{"unknown id keeps id with fresh state", unknownID, unknownID, "Ghaziabad"},
		{"malformed id replaced", "not-a-uuid", "", "Ghaziabad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st session.State
			var id string
			router := newSessionTestRouter(store, zap.NewNop(), &st, &id)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if tt.wantID != "" && id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
			if _, err := uuid.Parse(id); err != nil {
				t.Errorf("session id %q is not a uuid", id)
			}
			if st.City != tt.wantCity {
				t.Errorf("City = %q, want %q", st.City, tt.wantCity)
			}
			c := sessionCookie(t, w)
			if c.Value != id || !c.HttpOnly || !c.Secure || c.MaxAge != 3600 || c.SameSite != http.SameSiteLaxMode {
				t.Errorf("cookie = %+v", c)
			}
		})
	}
}

func TestSessionMiddleware_StoreFailureFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var st session.State
	var id string
	router := newSessionTestRouter(failingStore{}, zap.New(core), &st, &id)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: uuid.NewString()})
	router.ServeHTTP(httptest.NewRecorder(), req)

	if st.City != "Ghaziabad" {
		t.Errorf("City = %q, want fallback Ghaziabad", st.City)
	}
	if logs.FilterMessage("session load failed").Len() != 1 {
		t.Error("expected session load failure warning")
	}
}

func TestSaveFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	env := newTestEnv(t, nil, zap.New(core))
	env.handler.store = failingStore{}

	w := env.do(t, http.MethodGet, "/", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if logs.FilterMessage("session save failed").Len() != 1 {
		t.Error("expected session save failure warning")
	}
}
