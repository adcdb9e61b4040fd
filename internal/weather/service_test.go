package weather

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yegors/co-wx/pkg/logger"
)

type memPrefs struct {
	mu   sync.Mutex
	city string
	sets int
	err  error
}

func (m *memPrefs) LastCity(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.city, m.err
}

func (m *memPrefs) SetLastCity(ctx context.Context, city string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.city = city
	m.sets++
	return nil
}

func testServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultCity:      "Москва",
		Language:         "ru",
		PreferredCountry: "RU",
		MinQueryLength:   3,
		MaxSuggestions:   5,
		SuggestionLimit:  10,
	}
}

// owmMux serves the three endpoints, with optional status overrides per path
func owmMux(status map[string]int, geo string, geoCalls *atomic.Int32) http.Handler {
	mux := http.NewServeMux()
	respond := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if path == "/geo/1.0/direct" && geoCalls != nil {
				geoCalls.Add(1)
			}
			if code, ok := status[path]; ok {
				w.WriteHeader(code)
				return
			}
			w.Write([]byte(body))
		})
	}
	respond("/data/2.5/weather", currentJSON)
	respond("/data/2.5/forecast", forecastJSON)
	respond("/geo/1.0/direct", geo)
	return mux
}

func TestLookupJoinsBothRequests(t *testing.T) {
	prefs := &memPrefs{}
	c := newTestClient(t, owmMux(nil, "[]", nil), nil)
	svc := NewService(testServiceConfig(), c, prefs, logger.NewNop())

	snap, err := svc.Lookup(context.Background(), CityQuery("москва"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if snap.City != "Москва" {
		t.Errorf("city = %q", snap.City)
	}
	if snap.Current == nil || snap.Current.Temperature != 12.6 {
		t.Errorf("current = %+v", snap.Current)
	}
	if len(snap.Samples) != 2 || snap.TimezoneOffset != 10800 {
		t.Errorf("samples %d offset %d", len(snap.Samples), snap.TimezoneOffset)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("fetched_at not set")
	}
	if prefs.city != "Москва" || prefs.sets != 1 {
		t.Errorf("prefs = %q (%d sets), want API city name stored once", prefs.city, prefs.sets)
	}
}

func TestLookupFailsAsAUnit(t *testing.T) {
	tests := []struct {
		name   string
		status map[string]int
		want   error
	}{
		{"forecast not found", map[string]int{"/data/2.5/forecast": http.StatusNotFound}, ErrNotFound},
		{"current not found", map[string]int{"/data/2.5/weather": http.StatusNotFound}, ErrNotFound},
		{"current transient", map[string]int{"/data/2.5/weather": http.StatusInternalServerError}, ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := &memPrefs{city: "Казань"}
			c := newTestClient(t, owmMux(tt.status, "[]", nil), nil)
			svc := NewService(testServiceConfig(), c, prefs, logger.NewNop())

			snap, err := svc.Lookup(context.Background(), CityQuery("Москва"))
			if snap != nil {
				t.Errorf("partial snapshot returned: %+v", snap)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if prefs.sets != 0 || prefs.city != "Казань" {
				t.Errorf("preference written on failure: %q", prefs.city)
			}
		})
	}
}

func TestLastCityFallsBackToDefault(t *testing.T) {
	c := newTestClient(t, owmMux(nil, "[]", nil), nil)

	svc := NewService(testServiceConfig(), c, nil, logger.NewNop())
	if got := svc.LastCity(context.Background()); got != "Москва" {
		t.Errorf("nil store: %q", got)
	}

	svc = NewService(testServiceConfig(), c, &memPrefs{err: errors.New("disk")}, logger.NewNop())
	if got := svc.LastCity(context.Background()); got != "Москва" {
		t.Errorf("failing store: %q", got)
	}

	svc = NewService(testServiceConfig(), c, &memPrefs{city: "Сочи"}, logger.NewNop())
	if got := svc.LastCity(context.Background()); got != "Сочи" {
		t.Errorf("stored: %q", got)
	}
}

func TestSuggest(t *testing.T) {
	geo := `[
	  {"name":"Paris","country":"FR","lat":48.85,"lon":2.35},
	  {"name":"Paris","local_names":{"ru":"Париж"},"state":"Texas","country":"US","lat":33.66,"lon":-95.55}
	]`

	t.Run("short text makes no request", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, owmMux(nil, geo, &calls), nil)
		svc := NewService(testServiceConfig(), c, nil, logger.NewNop())

		if got := svc.Suggest(context.Background(), " Па "); len(got) != 0 {
			t.Errorf("got %v", got)
		}
		if calls.Load() != 0 {
			t.Errorf("calls = %d, want 0", calls.Load())
		}
	})

	t.Run("failures are suppressed", func(t *testing.T) {
		c := newTestClient(t, owmMux(map[string]int{"/geo/1.0/direct": http.StatusInternalServerError}, geo, nil), nil)
		svc := NewService(testServiceConfig(), c, nil, logger.NewNop())

		got := svc.Suggest(context.Background(), "Париж")
		if got == nil || len(got) != 0 {
			t.Errorf("got %#v, want empty non-nil", got)
		}
	})

	t.Run("ranked", func(t *testing.T) {
		c := newTestClient(t, owmMux(nil, geo, nil), nil)
		svc := NewService(testServiceConfig(), c, nil, logger.NewNop())

		got := svc.Suggest(context.Background(), "Париж")
		var texts []string
		for _, s := range got {
			texts = append(texts, s.Text)
		}
		want := []string{"Paris, FR", "Париж, Texas, US"}
		if diff := cmp.Diff(want, texts); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRankSuggestions(t *testing.T) {
	raw := []Suggestion{
		{Name: "Moscow", State: "Idaho", Country: "US"},
		{Name: "Moscow", LocalNames: map[string]string{"ru": "Москва"}, Country: "RU"},
		{Name: "Moskva", LocalNames: map[string]string{"ru": "Москва"}, Country: "RU"},
		{Name: "Moscow", State: "Idaho", Country: "US"},
		{Name: "Moscow", State: "Tennessee", Country: "US"},
		{Name: "Moscow", State: "Pennsylvania", Country: "US"},
		{Name: "Moscow", State: "Kansas", Country: "US"},
		{Name: "Moscow", State: "Texas", Country: "US"},
	}

	got := RankSuggestions(raw, "RU", "ru", 5)
	var texts []string
	for _, s := range got {
		texts = append(texts, s.Text)
	}
	want := []string{
		"Москва, RU",
		"Moscow, Idaho, US",
		"Moscow, Tennessee, US",
		"Moscow, Pennsylvania, US",
		"Moscow, Kansas, US",
	}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
	if got[0].DisplayName != "Москва" {
		t.Errorf("display name = %q", got[0].DisplayName)
	}
	if raw[0].Country != "US" {
		t.Error("input slice was reordered")
	}
}
