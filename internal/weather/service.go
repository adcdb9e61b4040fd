package weather

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yegors/co-wx/internal/config"
	"github.com/yegors/co-wx/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// PreferenceStore persists the last city that loaded successfully
type PreferenceStore interface {
	LastCity(ctx context.Context) (string, error)
	SetLastCity(ctx context.Context, city string) error
}

// ServiceConfig holds the lookup and suggestion settings
type ServiceConfig struct {
	DefaultCity      string
	Language         string // key into Suggestion.LocalNames
	PreferredCountry string
	MinQueryLength   int
	MaxSuggestions   int
	SuggestionLimit  int
}

// ServiceConfigFrom extracts the service settings from the application config
func ServiceConfigFrom(cfg *config.Config) ServiceConfig {
	return ServiceConfig{
		DefaultCity:      cfg.UI.DefaultCity,
		Language:         cfg.UI.Language,
		PreferredCountry: cfg.UI.PreferredCountry,
		MinQueryLength:   cfg.UI.MinQueryLength,
		MaxSuggestions:   cfg.UI.MaxSuggestions,
		SuggestionLimit:  cfg.Weather.SuggestionLimit,
	}
}

// Service combines the client calls into lookups and suggestion lists
type Service struct {
	config ServiceConfig
	client *Client
	prefs  PreferenceStore
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new weather service. prefs may be nil.
func NewService(cfg ServiceConfig, client *Client, prefs PreferenceStore, log *logger.Logger) *Service {
	return &Service{
		config: cfg,
		client: client,
		prefs:  prefs,
		logger: log.Named("weather-service"),
		now:    time.Now,
	}
}

// Lookup fetches current weather and forecast concurrently. Either failure
// fails the whole lookup.
func (s *Service) Lookup(ctx context.Context, q Query) (*Snapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := s.now()
	var (
		current *Current
		fc      *Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.client.FetchCurrent(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		fc, err = s.client.FetchForecast(gctx, q)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("Weather lookup failed",
			logger.String("query", q.String()),
			logger.Error(err),
			logger.Duration("duration", time.Since(start)))
		return nil, err
	}

	city := current.City
	if city == "" {
		city = fc.City
	}
	if city == "" && !q.Coords {
		city = q.City
	}

	snap := &Snapshot{
		City:           city,
		Current:        current,
		Samples:        fc.Samples,
		TimezoneOffset: fc.TimezoneOffset,
		FetchedAt:      s.now(),
	}

	if s.prefs != nil && city != "" {
		if err := s.prefs.SetLastCity(ctx, city); err != nil {
			s.logger.Warn("Failed to store last city",
				logger.String("city", city),
				logger.Error(err))
		}
	}

	s.logger.Info("Weather lookup completed",
		logger.String("query", q.String()),
		logger.String("city", city),
		logger.Int("samples", len(snap.Samples)),
		logger.Int("timezone_offset", snap.TimezoneOffset),
		logger.Duration("duration", time.Since(start)))

	return snap, nil
}

// LastCity returns the stored last city, or the default city when nothing
// was stored or the store is unavailable
func (s *Service) LastCity(ctx context.Context) string {
	if s.prefs == nil {
		return s.config.DefaultCity
	}
	city, err := s.prefs.LastCity(ctx)
	if err != nil {
		s.logger.Warn("Failed to read last city", logger.Error(err))
		return s.config.DefaultCity
	}
	if city == "" {
		return s.config.DefaultCity
	}
	return city
}

// Suggest returns ranked autocomplete candidates. Failures yield an empty
// list and are never surfaced.
func (s *Service) Suggest(ctx context.Context, text string) []Suggestion {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < s.config.MinQueryLength {
		return []Suggestion{}
	}

	raw, err := s.client.FetchSuggestions(ctx, text, s.config.SuggestionLimit)
	if err != nil {
		s.logger.Debug("Suggestion lookup failed",
			logger.String("text", text),
			logger.Error(err))
		return []Suggestion{}
	}

	return RankSuggestions(raw, s.config.PreferredCountry, s.config.Language, s.config.MaxSuggestions)
}

// RankSuggestions puts the preferred country first (stable), resolves the
// display name for lang, drops duplicates and keeps at most max entries
func RankSuggestions(raw []Suggestion, preferredCountry, lang string, max int) []Suggestion {
	sorted := make([]Suggestion, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Country == preferredCountry && sorted[j].Country != preferredCountry
	})

	out := make([]Suggestion, 0, max)
	seen := make(map[string]bool)
	for _, sg := range sorted {
		if len(out) >= max {
			break
		}

		display := sg.Name
		if local := sg.LocalNames[lang]; local != "" {
			display = local
		}

		key := strings.ToLower(display + "-" + sg.State + "-" + sg.Country)
		if seen[key] {
			continue
		}
		seen[key] = true

		parts := []string{display}
		if sg.State != "" {
			parts = append(parts, sg.State)
		}
		parts = append(parts, sg.Country)

		sg.DisplayName = display
		sg.Text = strings.Join(parts, ", ")
		out = append(out, sg)
	}
	return out
}
