// Package session holds the page state of one connected browser and the
// transitions between states.
package session

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yegors/co-wx/internal/forecast"
	"github.com/yegors/co-wx/internal/geo"
	"github.com/yegors/co-wx/internal/weather"
)

// ViewMode selects the forecast list
type ViewMode string

const (
	ViewDaily  ViewMode = "daily"
	ViewHourly ViewMode = "hourly"
)

// Valid reports whether m is a known view mode
func (m ViewMode) Valid() bool {
	return m == ViewDaily || m == ViewHourly
}

// ErrorKind is the class of message shown under the search box
type ErrorKind string

const (
	ErrorNone             ErrorKind = ""
	ErrorNotFound         ErrorKind = "not_found"
	ErrorTransient        ErrorKind = "transient"
	ErrorUnsupported      ErrorKind = "unsupported"
	ErrorPermissionDenied ErrorKind = "permission_denied"
	ErrorMinLength        ErrorKind = "min_length"
)

// KindOf classifies a lookup or geolocation error
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorNone
	case errors.Is(err, weather.ErrNotFound):
		return ErrorNotFound
	case errors.Is(err, geo.ErrPermissionDenied):
		return ErrorPermissionDenied
	case errors.Is(err, geo.ErrUnsupported):
		return ErrorUnsupported
	default:
		return ErrorTransient
	}
}

// CityStatus decides what the city heading shows
type CityStatus string

const (
	CityName     CityStatus = ""         // State.City
	CityLocating CityStatus = "locating" // waiting for a position
	CityGPSError CityStatus = "gps_error"
)

// State is the complete page state. Transitions return a new State and
// never modify the receiver's slices.
type State struct {
	Current        *weather.Current     `json:"current,omitempty"`
	Samples        []forecast.Sample    `json:"samples,omitempty"`
	TimezoneOffset int                  `json:"timezone_offset"`
	View           ViewMode             `json:"view"`
	ActiveDay      *int                 `json:"active_day,omitempty"`
	City           string               `json:"city"`
	CityStatus     CityStatus           `json:"city_status,omitempty"`
	Error          ErrorKind            `json:"error,omitempty"`
	Loading        bool                 `json:"loading"`
	FetchedAt      time.Time            `json:"fetched_at"`
	Suggestions    []weather.Suggestion `json:"suggestions,omitempty"`
	Input          string               `json:"input"`

	// RenderedAt is the clock reading used for relative labels
	RenderedAt time.Time `json:"rendered_at"`
}

// New returns the initial state
func New() State {
	return State{View: ViewDaily}
}

// HasData reports whether a lookup has succeeded at least once
func (s State) HasData() bool {
	return s.Current != nil
}

// DayCount is the number of cards in the daily list
func (s State) DayCount() int {
	return forecast.DayCount(s.Samples, s.TimezoneOffset)
}

// BeginLoad marks a lookup as in flight and clears the error line
func (s State) BeginLoad() State {
	s.Loading = true
	s.Error = ErrorNone
	return s
}

// BeginLocate shows the "locating" heading
func (s State) BeginLocate() State {
	s.CityStatus = CityLocating
	return s
}

// ApplySnapshot replaces all weather data with the snapshot. Name lookups
// also clear the input.
func (s State) ApplySnapshot(snap *weather.Snapshot, byName bool) State {
	s.Current = snap.Current
	s.Samples = snap.Samples
	s.TimezoneOffset = snap.TimezoneOffset
	s.City = snap.City
	s.CityStatus = CityName
	s.FetchedAt = snap.FetchedAt
	s.View = ViewDaily
	s.ActiveDay = nil
	s.Loading = false
	s.Error = ErrorNone
	if byName {
		s.Input = ""
	}
	return s
}

// ApplyFailure keeps the previous data and reverts the heading to
// lastCity when one is known
func (s State) ApplyFailure(err error, lastCity string) State {
	s.Loading = false
	s.Error = KindOf(err)
	if lastCity != "" {
		s.City = lastCity
		s.CityStatus = CityName
	}
	return s
}

// LocateFailed shows a geolocation error. A refused permission also
// replaces the heading.
func (s State) LocateFailed(err error) State {
	kind := KindOf(err)
	s.Error = kind
	if kind == ErrorPermissionDenied {
		s.CityStatus = CityGPSError
	}
	return s
}

// SetError replaces the error line
func (s State) SetError(kind ErrorKind) State {
	s.Error = kind
	return s
}

// SetView switches between daily and hourly lists. Ignored while a day is
// open because the toggles are disabled.
func (s State) SetView(mode ViewMode) State {
	if s.ActiveDay != nil || !mode.Valid() {
		return s
	}
	s.View = mode
	return s
}

// SelectDay opens the detailed panel for the i-th daily card. Hourly cards
// are not selectable.
func (s State) SelectDay(i int) State {
	if s.View != ViewDaily || s.ActiveDay != nil {
		return s
	}
	if i < 0 || i >= s.DayCount() {
		return s
	}
	s.ActiveDay = &i
	return s
}

// TogglesDisabled reports whether the view toggles are inactive
func (s State) TogglesDisabled() bool {
	return s.ActiveDay != nil
}

// Back closes the detailed panel and returns to the active list
func (s State) Back() State {
	s.ActiveDay = nil
	return s
}

// SetSuggestions replaces the suggestion list
func (s State) SetSuggestions(list []weather.Suggestion) State {
	s.Suggestions = list
	return s
}

// ClearSuggestions hides the suggestion list
func (s State) ClearSuggestions() State {
	s.Suggestions = nil
	return s
}

// SetInput records the text in the search box
func (s State) SetInput(text string) State {
	s.Input = text
	return s
}

// At stamps the clock reading used for the "updated" label
func (s State) At(now time.Time) State {
	s.RenderedAt = now
	return s
}

// NormalizeCity trims and collapses runs of whitespace
func NormalizeCity(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ValidateCity normalizes text and checks it is long enough to search.
// An empty result with ErrorNone means there is nothing to do.
func ValidateCity(text string, minLength int) (string, ErrorKind) {
	city := NormalizeCity(text)
	if city == "" {
		return "", ErrorNone
	}
	if utf8.RuneCountInString(city) < minLength {
		return "", ErrorMinLength
	}
	return city, ErrorNone
}

// SuggestionCity returns the part of a suggestion text before the first comma
func SuggestionCity(text string) string {
	city, _, _ := strings.Cut(text, ",")
	return strings.TrimSpace(city)
}
