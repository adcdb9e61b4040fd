package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// APIKeyEnv overrides wx.api_key when set
const APIKeyEnv = "OWM_API_KEY"

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server      ServerConfig      `toml:"server"`      // HTTP server settings
	Logging     LoggingConfig     `toml:"logging"`     // Application logging settings
	Storage     StorageConfig     `toml:"storage"`     // Preference persistence settings
	Weather     WeatherConfig     `toml:"wx"`          // OpenWeatherMap access settings
	UI          UIConfig          `toml:"ui"`          // Page behaviour settings
	Geolocation GeolocationConfig `toml:"geolocation"` // Fallback position when the browser has none
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // Primary HTTP port for the server
	Host             string `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts  []int  `toml:"additional_ports"`      // Additional HTTP ports to listen on
	StaticFilesDir   string `toml:"static_files_dir"`      // Directory with icons and styles (optional)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"` // Path of the preferences database file
}

// WeatherConfig contains OpenWeatherMap access settings
type WeatherConfig struct {
	APIBaseURL            string  `toml:"api_base_url"`            // Base URL for current weather and forecast endpoints
	GeoBaseURL            string  `toml:"geo_base_url"`            // Base URL for the direct geocoding endpoint
	APIKey                string  `toml:"api_key"`                 // OpenWeatherMap API key (OWM_API_KEY overrides)
	Units                 string  `toml:"units"`                   // Units requested from the API ("metric")
	Lang                  string  `toml:"lang"`                    // Language of condition descriptions
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"` // HTTP request timeout in seconds
	MaxRetries            int     `toml:"max_retries"`             // Retries for transient failures (0 = a single attempt)
	RequestsPerSecond     float64 `toml:"requests_per_second"`     // Client side rate limit (0 = unlimited)
	Burst                 int     `toml:"burst"`                   // Rate limiter burst size
	SuggestionLimit       int     `toml:"suggestion_limit"`        // Candidates requested from the geocoding API
}

// UIConfig contains page behaviour settings
type UIConfig struct {
	DefaultCity          string `toml:"default_city"`           // City loaded when nothing was searched before
	Language             string `toml:"language"`               // Page language (BCP 47, e.g. "ru" or "en")
	PreferredCountry     string `toml:"preferred_country"`      // Country code ranked first in suggestions
	MinQueryLength       int    `toml:"min_query_length"`       // Minimum characters for search and suggestions
	MaxSuggestions       int    `toml:"max_suggestions"`        // Suggestions shown after de-duplication
	SuggestDebounceMs    int    `toml:"suggest_debounce_ms"`    // Delay before a suggestion lookup fires
	SearchDebounceMs     int    `toml:"search_debounce_ms"`     // Delay before a submitted search fires
	UpdatedLabelInterval int    `toml:"updated_label_interval"` // Seconds between "updated N min ago" refreshes
}

// GeolocationConfig contains the fallback position used when the browser
// cannot report one
type GeolocationConfig struct {
	Enabled   bool    `toml:"enabled"`   // Use the fixed position below as fallback
	Latitude  float64 `toml:"latitude"`  // Latitude in decimal degrees
	Longitude float64 `toml:"longitude"` // Longitude in decimal degrees
}

// DefaultRequestsPerSecond matches the free tier limit of 60 calls/minute
const DefaultRequestsPerSecond = 1.0

// Default returns a configuration with every default filled in. The static
// directory is cleared when it does not exist.
func Default() *Config {
	c := &Config{}
	c.Weather.RequestsPerSecond = DefaultRequestsPerSecond
	c.applyDefaults()
	c.dropMissingStaticDir()
	return c
}

// Load loads the configuration from the specified file path
// Keys missing from the file keep their Default values.
func Load(path string) (*Config, error) {
	config := *Default()
	// Filled in by Validate so they follow the file's other settings
	config.Server.StaticFilesDir = ""
	config.UI.Language = ""

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnv()

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference.
// A .env file in the working directory is loaded first when present. When no
// path is given and no file is found, the defaults plus the environment are used.
func LoadWithFallback(preferredPath string) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	if preferredPath != "" {
		if _, err := os.Stat(preferredPath); err != nil {
			return nil, fmt.Errorf("config file not found: %s", preferredPath)
		}
	}

	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		config, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		return config, nil
	}

	config := Default()
	config.applyEnv()
	return config, nil
}

// dropMissingStaticDir clears the static directory when it does not exist.
// Assets are optional; the page itself is rendered by the server.
func (c *Config) dropMissingStaticDir() {
	if c.Server.StaticFilesDir == "" {
		return
	}
	if _, err := os.Stat(c.Server.StaticFilesDir); err != nil {
		c.Server.StaticFilesDir = ""
	}
}

func (c *Config) applyEnv() {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		c.Weather.APIKey = key
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSecs == 0 {
		c.Server.ReadTimeoutSecs = 15
	}
	if c.Server.IdleTimeoutSecs == 0 {
		c.Server.IdleTimeoutSecs = 60
	}
	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/co-wx.db"
	}

	w := &c.Weather
	if w.APIBaseURL == "" {
		w.APIBaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if w.GeoBaseURL == "" {
		w.GeoBaseURL = "https://api.openweathermap.org/geo/1.0"
	}
	if w.Units == "" {
		w.Units = "metric"
	}
	if w.Lang == "" {
		w.Lang = "ru"
	}
	if w.RequestTimeoutSeconds == 0 {
		w.RequestTimeoutSeconds = 10
	}
	if w.Burst == 0 {
		w.Burst = 5
	}
	if w.SuggestionLimit == 0 {
		w.SuggestionLimit = 10
	}

	u := &c.UI
	if u.DefaultCity == "" {
		u.DefaultCity = "Москва"
	}
	if u.Language == "" {
		u.Language = w.Lang
	}
	if u.PreferredCountry == "" {
		u.PreferredCountry = "RU"
	}
	if u.MinQueryLength == 0 {
		u.MinQueryLength = 3
	}
	if u.MaxSuggestions == 0 {
		u.MaxSuggestions = 5
	}
	if u.SuggestDebounceMs == 0 {
		u.SuggestDebounceMs = 300
	}
	if u.SearchDebounceMs == 0 {
		u.SearchDebounceMs = 800
	}
	if u.UpdatedLabelInterval == 0 {
		u.UpdatedLabelInterval = 60
	}
}

// Validate fills in defaults and validates the configuration
func (c *Config) Validate() error {
	c.applyDefaults()

	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	// Validate AdditionalPorts
	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}

	c.dropMissingStaticDir()

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (must be json or console)", c.Logging.Format)
	}

	if err := c.ValidateWeather(); err != nil {
		return err
	}
	if err := c.ValidateUI(); err != nil {
		return err
	}
	return c.ValidateGeolocation()
}

// ValidateWeather validates the weather configuration
func (c *Config) ValidateWeather() error {
	w := c.Weather

	if w.APIKey == "" {
		return fmt.Errorf("wx api_key is required (or set %s)", APIKeyEnv)
	}
	for name, raw := range map[string]string{"api_base_url": w.APIBaseURL, "geo_base_url": w.GeoBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("wx %s is not a valid URL: %q", name, raw)
		}
	}

	// Validate request timeout
	if w.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("wx request_timeout_seconds must be greater than 0: %d", w.RequestTimeoutSeconds)
	}

	// Validate max retries
	if w.MaxRetries < 0 {
		return fmt.Errorf("wx max_retries must be 0 or greater: %d", w.MaxRetries)
	}

	if w.RequestsPerSecond < 0 {
		return fmt.Errorf("wx requests_per_second must be 0 or greater: %v", w.RequestsPerSecond)
	}
	if w.Burst < 1 {
		return fmt.Errorf("wx burst must be at least 1: %d", w.Burst)
	}
	if w.SuggestionLimit < 1 || w.SuggestionLimit > 50 {
		return fmt.Errorf("wx suggestion_limit must be between 1 and 50: %d", w.SuggestionLimit)
	}

	return nil
}

// ValidateUI validates the page behaviour configuration
func (c *Config) ValidateUI() error {
	u := c.UI

	if u.MinQueryLength < 1 {
		return fmt.Errorf("ui min_query_length must be at least 1: %d", u.MinQueryLength)
	}
	if u.MaxSuggestions < 1 {
		return fmt.Errorf("ui max_suggestions must be at least 1: %d", u.MaxSuggestions)
	}
	if u.SuggestDebounceMs < 0 || u.SearchDebounceMs < 0 {
		return fmt.Errorf("ui debounce delays must be 0 or greater")
	}
	if u.UpdatedLabelInterval < 1 {
		return fmt.Errorf("ui updated_label_interval must be at least 1 second: %d", u.UpdatedLabelInterval)
	}
	if len(u.PreferredCountry) != 2 {
		return fmt.Errorf("ui preferred_country must be a two-letter country code: %q", u.PreferredCountry)
	}

	return nil
}

// ValidateGeolocation validates the fallback position
func (c *Config) ValidateGeolocation() error {
	g := c.Geolocation
	if !g.Enabled {
		return nil
	}
	if g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("invalid geolocation latitude: must be between -90 and 90: %v", g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("invalid geolocation longitude: must be between -180 and 180: %v", g.Longitude)
	}
	return nil
}
