package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jmorake/floodwatch/internal/config"
	"github.com/jmorake/floodwatch/internal/domain"
	"github.com/jmorake/floodwatch/internal/observability"
)

// Sentinel errors for the fetch failure taxonomy. Callers distinguish them
// with errors.Is; only ErrTransient is ever retried, and the client has
// already exhausted its retry budget by the time one escapes Fetch.
var (
	// ErrTransient marks connection and timeout failures.
	ErrTransient = errors.New("weather provider unreachable")
	// ErrPermanent marks non-200 HTTP responses; retrying cannot help.
	ErrPermanent = errors.New("weather provider rejected request")
	// ErrMalformed marks undecodable payloads or missing required fields.
	ErrMalformed = errors.New("weather provider response malformed")
)

// Client fetches current-weather observations for one city from the
// OpenWeatherMap API. It implements job.Fetcher.
type Client struct {
	apiKey      string
	city        string
	baseURL     string
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client
	clock       clockwork.Clock
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates an OpenWeatherMap client from the service configuration.
func NewClient(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:      cfg.OpenWeatherAPIKey,
		city:        cfg.City,
		baseURL:     cfg.OpenWeatherBaseURL,
		maxAttempts: cfg.FetchMaxAttempts,
		retryDelay:  cfg.FetchRetryDelay,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch obtains one observation. Transient failures (connection errors,
// timeouts) are retried up to the configured attempt budget with a fixed
// delay between attempts; permanent and malformed failures abort
// immediately. The returned observation carries city, timestamp,
// temperature, humidity, and clamped rainfall; classification fields are
// left zero for the orchestrator to fill.
func (c *Client) Fetch(ctx context.Context) (domain.Observation, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		c.metrics.FetchAttempts.Inc()

		obs, err := c.fetchOnce(ctx)
		if err == nil {
			return obs, nil
		}
		if !errors.Is(err, ErrTransient) {
			return domain.Observation{}, err
		}

		lastErr = err
		c.logger.Warn("weather fetch failed",
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"error", err,
		)
		if attempt == c.maxAttempts {
			break
		}

		c.metrics.FetchRetries.Inc()
		select {
		case <-ctx.Done():
			return domain.Observation{}, ctx.Err()
		case <-c.clock.After(c.retryDelay):
		}
	}
	return domain.Observation{}, fmt.Errorf("fetch failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) (domain.Observation, error) {
	params := url.Values{
		"q":     {c.city},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Observation{}, ctx.Err()
		}
		return domain.Observation{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Observation{}, fmt.Errorf("%w: status %d: %s", ErrPermanent, resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Observation{}, fmt.Errorf("%w: decode: %v", ErrMalformed, err)
	}

	return c.toObservation(payload)
}

func (c *Client) toObservation(payload response) (domain.Observation, error) {
	if payload.Main == nil {
		return domain.Observation{}, fmt.Errorf("%w: missing main section", ErrMalformed)
	}
	if payload.Dt == 0 {
		return domain.Observation{}, fmt.Errorf("%w: missing observation time", ErrMalformed)
	}

	// rain.1h is absent when there was no rain in the last hour.
	var rainfall float64
	if payload.Rain != nil {
		rainfall = payload.Rain.OneHour
	}
	if rainfall < 0 {
		c.logger.Warn("provider reported negative rainfall, clamping to 0", "rainfall_mm", rainfall)
		rainfall = 0
	}

	return domain.Observation{
		City:        c.city,
		Timestamp:   domain.FormatTimestamp(time.Unix(payload.Dt, 0)),
		Temperature: payload.Main.Temp,
		Humidity:    payload.Main.Humidity,
		Rainfall:    rainfall,
	}, nil
}

// OpenWeatherMap current-weather response, reduced to the fields we use.

type response struct {
	Main *mainSection `json:"main"`
	Rain *rainSection `json:"rain"`
	Dt   int64        `json:"dt"` // unix seconds, UTC
	Name string       `json:"name"`
}

type mainSection struct {
	Temp     float64 `json:"temp"`
	Humidity int     `json:"humidity"`
}

type rainSection struct {
	OneHour float64 `json:"1h"`
}
