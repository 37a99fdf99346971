package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// RobotsCache caches per-host robots.txt rules. Only HTML page scrapes are
// gated on it; API endpoints are not in scope of robots.txt.
type RobotsCache struct {
	cache map[string]*robotsEntry
	ttl   time.Duration
	mu    sync.RWMutex
}

type robotsEntry struct {
	disallowed []string
	expiresAt  time.Time
}

func NewRobotsCache(ttl time.Duration) *RobotsCache {
	return &RobotsCache{
		cache: make(map[string]*robotsEntry),
		ttl:   ttl,
	}
}

func (rc *RobotsCache) IsAllowed(ctx context.Context, host, urlStr string, client *http.Client) (bool, error) {
	rc.mu.RLock()
	cached, ok := rc.cache[host]
	rc.mu.RUnlock()

	if ok && time.Now().Before(cached.expiresAt) {
		return isAllowedByRules(cached.disallowed, urlStr), nil
	}

	robotsURL := fmt.Sprintf("https://%s/robots.txt", host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true, nil
	}

	resp, err := client.Do(req)
	if err != nil {
		// Network error: assume allowed
		return true, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// No robots.txt: assume allowed
		return true, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, nil
	}

	entry := &robotsEntry{
		disallowed: parseDisallowRules(string(body)),
		expiresAt:  time.Now().Add(rc.ttl),
	}

	rc.mu.Lock()
	rc.cache[host] = entry
	rc.mu.Unlock()

	return isAllowedByRules(entry.disallowed, urlStr), nil
}

// parseDisallowRules collects Disallow prefixes from groups that apply to
// every agent (User-agent: *). Allow overrides are not handled; a disallowed
// prefix simply wins.
func parseDisallowRules(content string) []string {
	var rules []string
	applies := false
	for _, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			applies = value == "*"
		case "disallow":
			if applies && value != "" {
				rules = append(rules, value)
			}
		}
	}
	return rules
}

func isAllowedByRules(disallowed []string, urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return true
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	for _, prefix := range disallowed {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
