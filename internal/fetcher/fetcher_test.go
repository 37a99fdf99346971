package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/Steap/liquipedia-scripts/internal/config"
	"github.com/Steap/liquipedia-scripts/internal/observability"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HttpConfig{
			UserAgent:      "lp-ept-cups-test",
			TotalTimeoutMS: 5000,
			BackoffMinMS:   250,
			BackoffMaxMS:   2000,
			JitterPct:      20,
		},
		RateLimit: config.RateLimitConfig{
			MaxConcurrentPerHost: 2,
			RPM:                  60,
		},
		RobotsCacheTTLHours: 12,
	}
}

func TestBackoffCalculation(t *testing.T) {
	cfg := testConfig()
	f := NewFetcher(cfg, observability.NewTestLogger())

	for attempt := 1; attempt <= 5; attempt++ {
		backoff := f.calculateBackoff(attempt)
		if backoff < cfg.GetBackoffMin() || backoff > cfg.GetBackoffMax()*2 {
			t.Errorf("Backoff out of expected range: %v", backoff)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, 10)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := rl.Wait(ctx, "example.com"); err != nil {
			t.Fatalf("Rate limiter error: %v", err)
		}
	}
	elapsed := time.Since(start)

	// Five requests fit well within the 10 rpm window.
	if elapsed > time.Second {
		t.Errorf("Rate limiter blocked unexpectedly: %v", elapsed)
	}
}

func TestRateLimiterCancelled(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	ctx := context.Background()

	if err := rl.Wait(ctx, "example.com"); err != nil {
		t.Fatalf("Rate limiter error: %v", err)
	}

	// Window exhausted, a cancelled context must unblock the wait.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := rl.Wait(cancelled, "example.com"); err == nil {
		t.Error("Wait should fail on a cancelled context")
	}
}

func TestParseDisallowRules(t *testing.T) {
	content := `
# comment
User-agent: GoogleBot
Disallow: /google-only/

User-agent: *
Disallow: /private/
Disallow: /tmp/
`
	rules := parseDisallowRules(content)
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2: %v", len(rules), rules)
	}

	if !isAllowedByRules(rules, "https://example.com/public/page") {
		t.Error("/public/page should be allowed")
	}
	if isAllowedByRules(rules, "https://example.com/private/page") {
		t.Error("/private/page should be disallowed")
	}
	if !isAllowedByRules(rules, "https://example.com/google-only/page") {
		t.Error("rules for other agents should not apply")
	}
}
