package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/co-wx/internal/config"
	"github.com/yegors/co-wx/pkg/logger"
	"golang.org/x/time/rate"
)

// Client handles HTTP requests to the OpenWeatherMap APIs
type Client struct {
	config     config.WeatherConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewClient creates a new weather API client
func NewClient(cfg config.WeatherConfig, log *logger.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  log.Named("weather-client"),
	}
}

// FetchCurrent fetches the current conditions for a location
func (c *Client) FetchCurrent(ctx context.Context, q Query) (*Current, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var result currentResponse
	if err := c.fetchWithRetry(ctx, c.config.APIBaseURL+"/weather", c.withUnits(q.values()), q.String(), &result); err != nil {
		return nil, err
	}
	return result.toCurrent(), nil
}

// FetchForecast fetches the 5 day / 3 hour forecast for a location
func (c *Client) FetchForecast(ctx context.Context, q Query) (*Forecast, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var result forecastResponse
	if err := c.fetchWithRetry(ctx, c.config.APIBaseURL+"/forecast", c.withUnits(q.values()), q.String(), &result); err != nil {
		return nil, err
	}
	return result.toForecast(), nil
}

// FetchSuggestions queries the direct geocoding endpoint for city candidates
func (c *Client) FetchSuggestions(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("limit", strconv.Itoa(limit))

	var result []Suggestion
	if err := c.fetchWithRetry(ctx, c.config.GeoBaseURL+"/direct", params, text, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) withUnits(params url.Values) url.Values {
	if c.config.Units != "" {
		params.Set("units", c.config.Units)
	}
	if c.config.Lang != "" {
		params.Set("lang", c.config.Lang)
	}
	return params
}

// fetchWithRetry performs HTTP request with retry logic and exponential backoff.
// Only transient failures are retried; a 404 ends the attempt immediately.
func (c *Client) fetchWithRetry(ctx context.Context, endpoint string, params url.Values, location string, target any) error {
	params.Set("appid", c.config.APIKey)
	fullURL := endpoint + "?" + params.Encode()
	path := endpointName(endpoint)

	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff between retries
			backoffDuration := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying weather data fetch",
				logger.String("endpoint", path),
				logger.String("location", location),
				logger.Int("attempt", attempt),
				logger.String("backoff", backoffDuration.String()))

			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrTransient, ctx.Err())
			case <-time.After(backoffDuration):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", ErrTransient, err)
		}

		err := c.fetchOnce(ctx, fullURL, target)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("Successfully fetched weather data after retries",
					logger.String("endpoint", path),
					logger.String("location", location),
					logger.Int("attempts_needed", attempt+1))
			}
			return nil
		}

		if errors.Is(err, ErrNotFound) {
			c.logger.Debug("Location not found",
				logger.String("endpoint", path),
				logger.String("location", location))
			return err
		}

		lastErr = err
		c.logger.Warn("Weather API request failed, may retry",
			logger.String("endpoint", path),
			logger.String("location", location),
			logger.Error(err),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", c.config.MaxRetries+1))
	}

	// If we get here, all attempts failed
	c.logger.Error("All attempts to fetch weather data failed",
		logger.String("endpoint", path),
		logger.String("location", location),
		logger.Error(lastErr),
		logger.Int("max_attempts", c.config.MaxRetries+1))
	return lastErr
}

func (c *Client) fetchOnce(ctx context.Context, fullURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("%w: error building request: %v", ErrTransient, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: error making request to weather API: %v", ErrTransient, redact(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status code: %d", ErrTransient, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: error decoding weather data: %v", ErrTransient, err)
	}
	return nil
}

func endpointName(endpoint string) string {
	if i := strings.LastIndex(endpoint, "/"); i >= 0 {
		return endpoint[i+1:]
	}
	return endpoint
}

// redact strips the request URL (and with it the API key) from transport errors
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
