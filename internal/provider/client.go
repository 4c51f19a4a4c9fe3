package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// DefaultBaseURL is the hosted stats provider.
	DefaultBaseURL = "https://api.courtfeed.io/v1"

	requestTimeout = 15 * time.Second
)

var (
	// ErrMissingAPIKey means no provider credential is configured. This is a
	// configuration error: the whole run aborts immediately, no partial writes.
	ErrMissingAPIKey = errors.New("provider API key not configured")

	// ErrUpstreamUnavailable means a provider request failed. Callers treat it
	// as "no data for this source" and continue with whatever else succeeded.
	ErrUpstreamUnavailable = errors.New("stats provider unavailable")
)

// Client issues read requests against the stats provider API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a provider client. An empty baseURL selects the hosted API.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "stats-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[provider] Circuit breaker %s: %s → %s", name, from, to)
		},
	})

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		breaker: breaker,
	}
}

// Schedule fetches the game schedule (with live scores/status) for a date.
func (c *Client) Schedule(ctx context.Context, date time.Time) ([]ScheduleGame, error) {
	query := url.Values{}
	query.Set("date", date.Format("2006-01-02"))
	return fetchPaged[ScheduleGame](ctx, c, "/games", query)
}

// SeasonAverages fetches per-player season averages.
func (c *Client) SeasonAverages(ctx context.Context, season int) ([]SeasonAverageRow, error) {
	query := url.Values{}
	query.Set("season", strconv.Itoa(season))
	return fetchPaged[SeasonAverageRow](ctx, c, "/season_averages", query)
}

// GameLogs fetches every player line for games on a date.
func (c *Client) GameLogs(ctx context.Context, date time.Time) ([]GameLog, error) {
	query := url.Values{}
	query.Set("date", date.Format("2006-01-02"))
	return fetchPaged[GameLog](ctx, c, "/stats", query)
}

// ActiveRoster fetches the canonical active-player roster.
func (c *Client) ActiveRoster(ctx context.Context) ([]RosterEntry, error) {
	return fetchPaged[RosterEntry](ctx, c, "/players/active", url.Values{})
}

// TeamSeasonStats fetches per-team season context stats.
func (c *Client) TeamSeasonStats(ctx context.Context, season int) ([]TeamSeasonRow, error) {
	query := url.Values{}
	query.Set("season", strconv.Itoa(season))
	return fetchPaged[TeamSeasonRow](ctx, c, "/team_stats", query)
}

// fetchPaged walks the provider's cursor pagination until exhausted.
func fetchPaged[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T

	for {
		var page listResponse[T]
		if err := c.get(ctx, path, query, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Data...)

		if page.Meta.NextCursor == nil {
			return all, nil
		}
		query.Set("cursor", strconv.Itoa(*page.Meta.NextCursor))
	}
}

// get issues one authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})

	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUpstreamUnavailable, path, err)
	}

	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrUpstreamUnavailable, path, err)
	}

	return nil
}
