// Package search wraps the Google Custom Search JSON API. Every query is
// issued per device profile so results can differ between mobile and desktop
// rankings.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/m3rciful/searchbot/core/logger"
	"github.com/m3rciful/searchbot/core/netutil"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Profile selects the device identity a query is issued under.
type Profile string

const (
	// ProfileMobile issues the query as an iPhone Safari client.
	ProfileMobile Profile = "mobile"
	// ProfileDesktop issues the query as a desktop Chrome client.
	ProfileDesktop Profile = "desktop"
)

var userAgents = map[Profile]string{
	ProfileMobile:  "Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1",
	ProfileDesktop: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.85 Safari/537.36",
}

// UserAgent returns the user agent string sent for the profile.
func (p Profile) UserAgent() string {
	if ua, ok := userAgents[p]; ok {
		return ua
	}
	return userAgents[ProfileDesktop]
}

// Result is one search hit.
type Result struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// String renders the hit as a single list entry.
func (r Result) String() string {
	return fmt.Sprintf("%s \nlink :%s", r.Title, r.Link)
}

// Config holds the Custom Search credentials and locale bias.
type Config struct {
	APIKey   string `yaml:"api_key" envconfig:"GOOGLE_API_KEY"`
	CX       string `yaml:"cx" envconfig:"GOOGLE_CX"`
	Country  string `yaml:"country" envconfig:"GOOGLE_COUNTRY"`
	Language string `yaml:"language" envconfig:"GOOGLE_LANGUAGE"`
}

// Normalize validates credentials and fills locale defaults.
func (c *Config) Normalize() error {
	if c.APIKey == "" {
		return fmt.Errorf("search api_key is required")
	}
	if c.CX == "" {
		return fmt.Errorf("search cx is required")
	}
	if c.Country == "" {
		c.Country = "id"
	}
	if c.Language == "" {
		c.Language = "lang_id"
	}
	return nil
}

// Client queries the Custom Search API.
type Client struct {
	cfg     Config
	http    *http.Client
	baseURL string
}

// Option customizes Client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient builds a search client with a retrying pooled HTTP transport.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		http:    netutil.BuildClient(netutil.ClientOptions{Timeout: 15 * time.Second}),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	Items []Result `json:"items"`
}

// Search runs one query under the given profile. No hits is an empty slice,
// not an error; transport and API failures come back as errors.
func (c *Client) Search(ctx context.Context, query string, profile Profile) ([]Result, error) {
	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.CX)
	params.Set("q", query)
	params.Set("gl", c.cfg.Country)
	params.Set("lr", c.cfg.Language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	req.Header.Set("User-Agent", profile.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn(ctx, "search", "search.fail",
			slog.String("profile", string(profile)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		logger.Warn(ctx, "search", "search.fail",
			slog.String("profile", string(profile)),
			slog.Int("http_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("search %q: unexpected status %s", query, resp.Status)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("search %q: decode response: %w", query, err)
	}

	logger.Debug(ctx, "search", "search.done",
		slog.String("profile", string(profile)),
		slog.String("query", logger.SanitizeLimit(query, 128)),
		slog.Int("results", len(payload.Items)),
		slog.Duration("duration_ms", logger.RoundMS(time.Since(start))),
	)
	return payload.Items, nil
}
