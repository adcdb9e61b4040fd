package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/co-wx/internal/config"
	"github.com/yegors/co-wx/internal/forecast"
	"github.com/yegors/co-wx/internal/locale"
	"github.com/yegors/co-wx/internal/render"
	"github.com/yegors/co-wx/internal/session"
	"github.com/yegors/co-wx/internal/weather"
	"github.com/yegors/co-wx/pkg/logger"
)

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// Handler contains the API handlers
type Handler struct {
	weatherService session.Backend
	config         *config.Config
	clients        ClientCounter
	logger         *logger.Logger
	started        time.Time
}

// NewHandler creates a new API handler. clients may be nil.
func NewHandler(weatherService session.Backend, cfg *config.Config, clients ClientCounter, log *logger.Logger) *Handler {
	return &Handler{
		weatherService: weatherService,
		config:         cfg,
		clients:        clients,
		logger:         log.Named("api-handler"),
		started:        time.Now(),
	}
}

// CurrentDisplay holds the formatted current conditions
type CurrentDisplay struct {
	Date        string `json:"date"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feels_like"`
	Humidity    string `json:"humidity"`
	Pressure    string `json:"pressure"`
	WindSpeed   string `json:"wind_speed"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// WeatherResponse is the body of GET /api/weather
type WeatherResponse struct {
	City           string                   `json:"city"`
	Current        *weather.Current         `json:"current"`
	Display        CurrentDisplay           `json:"display"`
	Daily          []forecast.DailySummary  `json:"daily"`
	Hourly         []forecast.HourlySummary `json:"hourly"`
	TimezoneOffset int                      `json:"timezone_offset"`
	FetchedAt      time.Time                `json:"fetched_at"`
	Updated        string                   `json:"updated"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":     "ok",
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"started_at": h.started.UTC(),
	}
	if h.clients != nil {
		response["websocket_clients"] = h.clients.ClientCount()
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetWeather returns current conditions with both forecast views
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	loc := h.localeFor(r)
	snap, ok := h.lookup(w, r, loc)
	if !ok {
		return
	}

	agg := forecast.NewAggregator(loc)
	WriteJSON(w, http.StatusOK, WeatherResponse{
		City:           snap.City,
		Current:        snap.Current,
		Display:        currentDisplay(snap, loc),
		Daily:          agg.DailyView(snap.Samples, snap.TimezoneOffset),
		Hourly:         agg.HourlyView(snap.Samples, snap.TimezoneOffset),
		TimezoneOffset: snap.TimezoneOffset,
		FetchedAt:      snap.FetchedAt,
		Updated:        loc.UpdatedAgo(snap.FetchedAt, time.Now()),
	})
}

// GetDailyForecast returns the daily view only
func (h *Handler) GetDailyForecast(w http.ResponseWriter, r *http.Request) {
	loc := h.localeFor(r)
	snap, ok := h.lookup(w, r, loc)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, forecast.NewAggregator(loc).DailyView(snap.Samples, snap.TimezoneOffset))
}

// GetHourlyForecast returns the hourly view only
func (h *Handler) GetHourlyForecast(w http.ResponseWriter, r *http.Request) {
	loc := h.localeFor(r)
	snap, ok := h.lookup(w, r, loc)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, forecast.NewAggregator(loc).HourlyView(snap.Samples, snap.TimezoneOffset))
}

// GetSuggestions returns autocomplete candidates; always 200
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions := h.weatherService.Suggest(r.Context(), r.URL.Query().Get("q"))
	if suggestions == nil {
		suggestions = []weather.Suggestion{}
	}
	WriteJSON(w, http.StatusOK, suggestions)
}

// GetLastCity returns the stored last city (or the default city)
func (h *Handler) GetLastCity(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"city": h.weatherService.LastCity(r.Context()),
	})
}

// GetPage renders the full page for the last city
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	loc := h.localeFor(r)
	ctx := r.Context()

	state := session.New()
	city := h.weatherService.LastCity(ctx)
	if snap, err := h.weatherService.Lookup(ctx, weather.CityQuery(city)); err != nil {
		h.logger.Warn("Initial page lookup failed",
			logger.String("city", city),
			logger.Error(err))
		state = state.ApplyFailure(err, city)
	} else {
		state = state.ApplySnapshot(snap, true)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := render.Document(w, state.At(time.Now()), loc, render.DocumentOptions{
		SocketPath: "/ws",
		Assets:     h.config.Server.StaticFilesDir != "",
	})
	if err != nil {
		h.logger.Error("Failed to render page", logger.Error(err))
	}
}

// lookup parses the location query, runs it and writes the error response
// on failure
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, loc *locale.Locale) (*weather.Snapshot, bool) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_query")
		return nil, false
	}

	start := time.Now()
	snap, err := h.weatherService.Lookup(r.Context(), q)
	if err != nil {
		kind := session.KindOf(err)
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, weather.ErrInvalidQuery):
			status = http.StatusBadRequest
		case kind == session.ErrorNotFound:
			status = http.StatusNotFound
		}
		h.logger.Debug("Lookup failed",
			logger.String("query", q.String()),
			logger.Int("status", status),
			logger.Error(err))
		writeError(w, status, render.ErrorMessage(kind, loc), string(kind))
		return nil, false
	}

	h.logger.Debug("Lookup served",
		logger.String("query", q.String()),
		logger.Duration("duration", time.Since(start)))
	return snap, true
}

// parseQuery reads ?q=<city> or ?lat=&lon=
func (h *Handler) parseQuery(r *http.Request) (weather.Query, error) {
	values := r.URL.Query()

	if values.Has("lat") || values.Has("lon") {
		lat, err := strconv.ParseFloat(values.Get("lat"), 64)
		if err != nil {
			return weather.Query{}, errors.New("invalid latitude")
		}
		lon, err := strconv.ParseFloat(values.Get("lon"), 64)
		if err != nil {
			return weather.Query{}, errors.New("invalid longitude")
		}
		q := weather.CoordsQuery(lat, lon)
		return q, q.Validate()
	}

	city, kind := session.ValidateCity(values.Get("q"), h.config.UI.MinQueryLength)
	switch {
	case kind == session.ErrorMinLength:
		return weather.Query{}, errors.New("city name is too short")
	case city == "":
		return weather.Query{}, errors.New("missing q or lat/lon parameters")
	}
	return weather.CityQuery(city), nil
}

func (h *Handler) localeFor(r *http.Request) *locale.Locale {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = firstLanguage(r.Header.Get("Accept-Language"))
	}
	if lang == "" {
		lang = h.config.UI.Language
	}
	return locale.For(lang)
}

func firstLanguage(header string) string {
	lang, _, _ := strings.Cut(header, ",")
	lang, _, _ = strings.Cut(lang, ";")
	return strings.TrimSpace(lang)
}

func currentDisplay(snap *weather.Snapshot, loc *locale.Locale) CurrentDisplay {
	cur := snap.Current
	if cur == nil {
		return CurrentDisplay{}
	}
	return CurrentDisplay{
		Date:        loc.DateLabel(forecast.LocalTime(cur.Timestamp, snap.TimezoneOffset)),
		Temperature: loc.Temperature(cur.Temperature),
		FeelsLike:   loc.Temperature(cur.FeelsLike),
		Humidity:    loc.Humidity(cur.Humidity),
		Pressure:    loc.Pressure(cur.PressureHPa),
		WindSpeed:   loc.Wind(cur.WindSpeed),
		Description: loc.Capitalize(cur.Description),
		Icon:        render.IconPath(cur.Icon),
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}
