package liquipedia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Steap/liquipedia-scripts/internal/config"
	"github.com/Steap/liquipedia-scripts/internal/fetcher"
	"github.com/Steap/liquipedia-scripts/internal/observability"
)

// fakeWiki is a minimal MediaWiki API endpoint.
type fakeWiki struct {
	sections    map[int]string
	edits       int
	maxlagFails int
	loggedIn    bool
}

func (fw *fakeWiki) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("bad form: %v", err)
		}
		switch r.Form.Get("action") {
		case "query":
			switch {
			case r.Form.Get("meta") == "tokens" && r.Form.Get("type") == "login":
				fmt.Fprint(w, `{"query":{"tokens":{"logintoken":"LOGIN+\\"}}}`)
			case r.Form.Get("meta") == "tokens":
				fmt.Fprint(w, `{"query":{"tokens":{"csrftoken":"CSRF+\\"}}}`)
			case r.Form.Get("prop") == "revisions":
				text := fw.sections[atoi(r.Form.Get("rvsection"))]
				fmt.Fprintf(w, `{"query":{"pages":[{"revisions":[{"slots":{"main":{"content":%q}}}]}]}}`, text)
			default:
				t.Errorf("unexpected query: %v", r.Form)
			}
		case "login":
			if r.Form.Get("lgtoken") != `LOGIN+\` {
				fmt.Fprint(w, `{"login":{"result":"WrongToken"}}`)
				return
			}
			fw.loggedIn = true
			fmt.Fprint(w, `{"login":{"result":"Success"}}`)
		case "edit":
			if fw.maxlagFails > 0 {
				fw.maxlagFails--
				fmt.Fprint(w, `{"error":{"code":"maxlag","info":"Waiting for a database server"}}`)
				return
			}
			if r.Form.Get("token") != `CSRF+\` {
				fmt.Fprint(w, `{"error":{"code":"badtoken","info":"Invalid CSRF token"}}`)
				return
			}
			fw.edits++
			fw.sections[atoi(r.Form.Get("section"))] = r.Form.Get("text")
			fmt.Fprint(w, `{"edit":{"result":"Success"}}`)
		default:
			t.Errorf("unexpected action: %s", r.Form.Get("action"))
		}
	}
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func testClient(t *testing.T, fw *fakeWiki) *Client {
	t.Helper()
	server := httptest.NewServer(fw.handler(t))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Liquipedia: config.LiquipediaConfig{
			Site:       "liquipedia.test/starcraft2",
			MaxLagS:    5,
			MaxRetries: 3,
		},
		HTTP: config.HttpConfig{
			UserAgent:      "lp-ept-cups-test",
			TotalTimeoutMS: 5000,
			BackoffMinMS:   1,
			BackoffMaxMS:   2,
		},
		RateLimit:           config.RateLimitConfig{MaxConcurrentPerHost: 2, RPM: 600},
		RobotsCacheTTLHours: 12,
	}

	client := NewClient(cfg, fetcher.NewFetcher(cfg, observability.NewTestLogger()), observability.NewTestLogger())
	// Point at the fake instead of the real wiki.
	client.apiURL = server.URL + "/api.php"
	return client
}

func TestLogin(t *testing.T) {
	fw := &fakeWiki{sections: map[int]string{}}
	client := testClient(t, fw)

	if err := client.Login(context.Background(), "user", "pass"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if !fw.loggedIn {
		t.Error("fake wiki did not record a login")
	}
}

func TestSectionText(t *testing.T) {
	fw := &fakeWiki{sections: map[int]string{3: "{{ParticipantTable\n|p1=Serral\n}}"}}
	client := testClient(t, fw)

	text, err := client.SectionText(context.Background(), "ESL_Open_Cup_EU/125", 3)
	if err != nil {
		t.Fatalf("SectionText error: %v", err)
	}
	if !strings.Contains(text, "ParticipantTable") {
		t.Errorf("SectionText = %q, want the participant table", text)
	}
}

func TestEditSection(t *testing.T) {
	fw := &fakeWiki{sections: map[int]string{}}
	client := testClient(t, fw)

	err := client.EditSection(context.Background(), "ESL_Open_Cup_EU/125", 3, "new text", "Updating participant list")
	if err != nil {
		t.Fatalf("EditSection error: %v", err)
	}
	if fw.sections[3] != "new text" {
		t.Errorf("section 3 = %q, want %q", fw.sections[3], "new text")
	}
}

func TestEditSectionRetriesMaxlag(t *testing.T) {
	fw := &fakeWiki{sections: map[int]string{}, maxlagFails: 2}
	client := testClient(t, fw)

	err := client.EditSection(context.Background(), "ESL_Open_Cup_EU/125", 4, "results", "Updating results")
	if err != nil {
		t.Fatalf("EditSection error after maxlag retries: %v", err)
	}
	if fw.edits != 1 {
		t.Errorf("edits = %d, want 1", fw.edits)
	}
}

func TestEditSectionPermanentError(t *testing.T) {
	fw := &fakeWiki{sections: map[int]string{}}
	client := testClient(t, fw)
	client.csrfToken = "wrong"

	err := client.EditSection(context.Background(), "ESL_Open_Cup_EU/125", 4, "x", "y")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "badtoken" {
		t.Fatalf("EditSection error = %v, want badtoken APIError", err)
	}
	if fw.edits != 0 {
		t.Errorf("edits = %d, want 0", fw.edits)
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("LIQUIPEDIA_USERNAME", "")
	t.Setenv("LIQUIPEDIA_PASSWORD", "")
	if _, _, err := CredentialsFromEnv(); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("CredentialsFromEnv error = %v, want ErrMissingCredentials", err)
	}

	t.Setenv("LIQUIPEDIA_USERNAME", "user")
	t.Setenv("LIQUIPEDIA_PASSWORD", "pass")
	user, pass, err := CredentialsFromEnv()
	if err != nil {
		t.Fatalf("CredentialsFromEnv error: %v", err)
	}
	if user != "user" || pass != "pass" {
		t.Errorf("CredentialsFromEnv = %q/%q", user, pass)
	}
}
