package provider

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultInjuryReportURL is the public league injury report page.
const DefaultInjuryReportURL = "https://www.courtfeed.io/injuries"

// InjuryReport maps a player's full name to their normalized injury status:
// "healthy", "questionable", or "out".
type InjuryReport map[string]string

// InjuryScraper pulls the daily injury report from the league's public HTML
// page. The report has no API; the markup is a plain server-rendered table.
type InjuryScraper struct {
	url        string
	httpClient *http.Client
}

// NewInjuryScraper creates an injury scraper. An empty url selects the
// default public report page.
func NewInjuryScraper(url string) *InjuryScraper {
	if url == "" {
		url = DefaultInjuryReportURL
	}
	return &InjuryScraper{
		url: url,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Fetch scrapes the current injury report. A scrape failure is reported as
// ErrUpstreamUnavailable; callers fall back to treating players as healthy.
func (s *InjuryScraper) Fetch(ctx context.Context) (InjuryReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; augur/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching injury report: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: injury report returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing injury report: %v", ErrUpstreamUnavailable, err)
	}

	report := s.parse(doc)
	log.Printf("[provider] ✓ Injury report scraped: %d players listed", len(report))

	return report, nil
}

// parse walks the report table. Each row is: player name, team, status note.
func (s *InjuryScraper) parse(doc *goquery.Document) InjuryReport {
	report := make(InjuryReport)

	doc.Find("table.injury-report tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		name := strings.TrimSpace(cells.Eq(0).Text())
		if name == "" {
			return
		}

		report[name] = normalizeInjuryStatus(cells.Eq(2).Text())
	})

	return report
}

// normalizeInjuryStatus collapses the report's free-text status notes into the
// three levels the prediction model understands.
func normalizeInjuryStatus(raw string) string {
	status := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.Contains(status, "out"), strings.Contains(status, "injured reserve"):
		return "out"
	case strings.Contains(status, "questionable"), strings.Contains(status, "doubtful"),
		strings.Contains(status, "game time decision"), strings.Contains(status, "day-to-day"):
		return "questionable"
	default:
		return "healthy"
	}
}
