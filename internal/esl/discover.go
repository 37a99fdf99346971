package esl

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Steap/liquipedia-scripts/internal/fetcher"
)

// Attribute selectors tried in order before falling back to a regex over
// embedded script data.
var leagueIDSelectors = []string{
	"[data-league-id]",
	"[data-leagueid]",
}

var leagueIDPattern = regexp.MustCompile(`(?:"leagueId"\s*:\s*"?|/leagues/)(\d+)`)

// DiscoverLeagueID extracts the ESL league id from a cup page. The page is
// a JS application, so the id usually hides in data attributes or embedded
// JSON rather than in links.
func DiscoverLeagueID(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, selector := range leagueIDSelectors {
		sel := doc.Find(selector).First()
		for _, attr := range []string{"data-league-id", "data-leagueid"} {
			if id, ok := sel.Attr(attr); ok && id != "" {
				return id, nil
			}
		}
	}

	if m := leagueIDPattern.FindStringSubmatch(html); m != nil {
		return m[1], nil
	}

	return "", fmt.Errorf("no league id found in page")
}

// FetchLeagueID loads a cup page through the fetcher (headless browser when
// enabled) and extracts the league id from it.
func FetchLeagueID(ctx context.Context, f *fetcher.Fetcher, pageURL string) (string, error) {
	resp, err := f.GetPage(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch cup page: %w", err)
	}
	return DiscoverLeagueID(string(resp.Body))
}
