// Package liquipedia is a small MediaWiki API client, covering the three
// calls the updater needs: login, read a page section, edit a page section.
package liquipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/cenkalti/backoff/v4"

	"github.com/Steap/liquipedia-scripts/internal/config"
	"github.com/Steap/liquipedia-scripts/internal/fetcher"
	"github.com/Steap/liquipedia-scripts/internal/observability"
)

// ErrMissingCredentials is returned when the login environment variables
// are not set.
var ErrMissingCredentials = errors.New(
	"please set the following environment variables:\n" +
		"    LIQUIPEDIA_USERNAME\n" +
		"    LIQUIPEDIA_PASSWORD")

// APIError is a MediaWiki API error response.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki api error %s: %s", e.Code, e.Info)
}

type Client struct {
	apiURL     string
	maxLagS    int
	maxRetries int
	fetcher    *fetcher.Fetcher
	logger     *observability.Logger
	csrfToken  string
}

func NewClient(cfg *config.Config, f *fetcher.Fetcher, logger *observability.Logger) *Client {
	apiPath := cfg.Liquipedia.APIPath
	if apiPath == "" {
		apiPath = "/"
	}
	return &Client{
		apiURL:     "https://" + cfg.Liquipedia.Site + apiPath + "api.php",
		maxLagS:    cfg.Liquipedia.MaxLagS,
		maxRetries: cfg.Liquipedia.MaxRetries,
		fetcher:    f,
		logger:     logger,
	}
}

// CredentialsFromEnv reads the wiki credentials from the environment.
func CredentialsFromEnv() (username, password string, err error) {
	username = os.Getenv("LIQUIPEDIA_USERNAME")
	password = os.Getenv("LIQUIPEDIA_PASSWORD")
	if username == "" || password == "" {
		return "", "", ErrMissingCredentials
	}
	return username, password, nil
}

// Login authenticates the session. The cookie jar on the shared fetcher
// holds the session afterwards.
func (c *Client) Login(ctx context.Context, username, password string) error {
	loginToken, err := c.fetchToken(ctx, "login")
	if err != nil {
		return fmt.Errorf("failed to fetch login token: %w", err)
	}

	body, err := c.call(ctx, url.Values{
		"action":     {"login"},
		"lgname":     {username},
		"lgpassword": {password},
		"lgtoken":    {loginToken},
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	var result struct {
		Login struct {
			Result string `json:"result"`
			Reason string `json:"reason"`
		} `json:"login"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if result.Login.Result != "Success" {
		return fmt.Errorf("login rejected: %s (%s)", result.Login.Result, result.Login.Reason)
	}

	c.logger.Info("Logged in to wiki", "user", username)
	return nil
}

// SectionText returns the wikitext of one section of a page.
func (c *Client) SectionText(ctx context.Context, page string, section int) (string, error) {
	body, err := c.call(ctx, url.Values{
		"action":        {"query"},
		"prop":          {"revisions"},
		"rvprop":        {"content"},
		"rvslots":       {"main"},
		"rvsection":     {strconv.Itoa(section)},
		"titles":        {page},
		"formatversion": {"2"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to read %s section %d: %w", page, section, err)
	}

	var result struct {
		Query struct {
			Pages []struct {
				Missing   bool `json:"missing"`
				Revisions []struct {
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode revisions response: %w", err)
	}
	if len(result.Query.Pages) == 0 || result.Query.Pages[0].Missing {
		return "", fmt.Errorf("page not found: %s", page)
	}
	if len(result.Query.Pages[0].Revisions) == 0 {
		return "", fmt.Errorf("page has no revisions: %s", page)
	}
	return result.Query.Pages[0].Revisions[0].Slots.Main.Content, nil
}

// EditSection replaces the wikitext of one section. Maxlag and rate-limit
// responses are retried with exponential backoff; other API errors are
// permanent.
func (c *Client) EditSection(ctx context.Context, page string, section int, text, summary string) error {
	token, err := c.csrf(ctx)
	if err != nil {
		return err
	}

	operation := func() error {
		err := c.editOnce(ctx, page, section, text, summary, token)
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case "maxlag", "ratelimited":
				c.logger.Warn("Edit throttled, will retry", "code", apiErr.Code, "page", page)
				return err
			}
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("failed to edit %s section %d: %w", page, section, err)
	}

	c.logger.Info("Edited page section", "page", page, "section", section, "summary", summary)
	return nil
}

func (c *Client) editOnce(ctx context.Context, page string, section int, text, summary, token string) error {
	form := url.Values{
		"action":  {"edit"},
		"title":   {page},
		"section": {strconv.Itoa(section)},
		"text":    {text},
		"summary": {summary},
		"token":   {token},
	}
	if c.maxLagS > 0 {
		form.Set("maxlag", strconv.Itoa(c.maxLagS))
	}

	body, err := c.call(ctx, form)
	if err != nil {
		return err
	}

	var result struct {
		Edit struct {
			Result string `json:"result"`
		} `json:"edit"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to decode edit response: %w", err)
	}
	if result.Edit.Result != "Success" {
		return fmt.Errorf("edit rejected: %s", result.Edit.Result)
	}
	return nil
}

func (c *Client) csrf(ctx context.Context) (string, error) {
	if c.csrfToken != "" {
		return c.csrfToken, nil
	}
	token, err := c.fetchToken(ctx, "csrf")
	if err != nil {
		return "", fmt.Errorf("failed to fetch csrf token: %w", err)
	}
	c.csrfToken = token
	return token, nil
}

func (c *Client) fetchToken(ctx context.Context, tokenType string) (string, error) {
	body, err := c.call(ctx, url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {tokenType},
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Query struct {
			Tokens map[string]string `json:"tokens"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	token := result.Query.Tokens[tokenType+"token"]
	if token == "" {
		return "", fmt.Errorf("no %s token in response", tokenType)
	}
	return token, nil
}

// call posts a form to the API and surfaces MediaWiki errors as *APIError.
func (c *Client) call(ctx context.Context, form url.Values) ([]byte, error) {
	form.Set("format", "json")

	resp, err := c.fetcher.PostForm(ctx, c.apiURL, form)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var probe struct {
		Error *struct {
			Code string `json:"code"`
			Info string `json:"info"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode api response: %w", err)
	}
	if probe.Error != nil {
		return nil, &APIError{Code: probe.Error.Code, Info: probe.Error.Info}
	}
	return resp.Body, nil
}
