package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFollowsCursorPagination(t *testing.T) {
	var authHeaders []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{
				"data": [{"id": 101, "date": "2026-01-15", "status": "Final",
					"home_team": {"abbreviation": "BOS"}, "visitor_team": {"abbreviation": "LAL"},
					"home_team_score": 112, "visitor_team_score": 104}],
				"meta": {"next_cursor": 25}
			}`))
			return
		}

		assert.Equal(t, "25", r.URL.Query().Get("cursor"))
		w.Write([]byte(`{
			"data": [{"id": 102, "date": "2026-01-15", "status": "Scheduled",
				"home_team": {"abbreviation": "DEN"}, "visitor_team": {"abbreviation": "MIA"}}],
			"meta": {"next_cursor": null}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	games, err := client.Schedule(context.Background(), time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, int64(101), games[0].ID)
	require.NotNil(t, games[0].HomeScore)
	assert.Equal(t, 112, *games[0].HomeScore)
	assert.Equal(t, "BOS", games[0].HomeTeam.Abbreviation)

	assert.Equal(t, int64(102), games[1].ID)
	assert.Nil(t, games[1].HomeScore)

	for _, header := range authHeaders {
		assert.Equal(t, "test-key", header)
	}
}

func TestMissingAPIKeyFailsBeforeRequest(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Schedule(context.Background(), time.Now())

	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, requested, "no request should be issued without a key")
}

func TestUpstreamErrorsWrapSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.Schedule(context.Background(), time.Now())

	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "502")
}

func TestSeasonAveragesToleratesJunkPlayerIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"player_id": 237, "team": "BOS", "games_played": 40, "pts": 27.1},
				{"player_id": "NaN", "team": "LAL", "games_played": 2, "pts": 4.0}
			],
			"meta": {"next_cursor": null}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	rows, err := client.SeasonAverages(context.Background(), 2025)

	require.NoError(t, err)
	require.Len(t, rows, 2)

	id, err := rows[0].PlayerID.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(237), id)

	_, err = rows[1].PlayerID.Int64()
	assert.Error(t, err, "junk id survives decoding and fails at conversion")
}

func TestInjuryScraperNormalizesStatuses(t *testing.T) {
	page := `<html><body>
		<table class="injury-report"><tbody>
			<tr><td>Jayson Tatum</td><td>BOS</td><td>Questionable - ankle</td></tr>
			<tr><td>Anthony Davis</td><td>LAL</td><td>Out (knee)</td></tr>
			<tr><td>Nikola Jokic</td><td>DEN</td><td>Probable - rest</td></tr>
			<tr><td></td><td></td><td>ignored</td></tr>
		</tbody></table>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer server.Close()

	scraper := NewInjuryScraper(server.URL)
	report, err := scraper.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, InjuryReport{
		"Jayson Tatum":  "questionable",
		"Anthony Davis": "out",
		"Nikola Jokic":  "healthy",
	}, report)
}

func TestInjuryScraperReportsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scraper := NewInjuryScraper(server.URL)
	_, err := scraper.Fetch(context.Background())

	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestNormalizeInjuryStatus(t *testing.T) {
	cases := map[string]string{
		"Out (knee)":               "out",
		"Injured Reserve":          "out",
		"Questionable - ankle":     "questionable",
		"Doubtful":                 "questionable",
		"Game Time Decision":       "questionable",
		"Day-To-Day":               "questionable",
		"Probable":             "healthy",
		"":                     "healthy",
		"Active":               "healthy",
	}

	for raw, want := range cases {
		assert.Equal(t, want, normalizeInjuryStatus(raw), "status %q", raw)
	}
}
