// Package search wraps the Tavily web search API and assembles research
// corpora from its results.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/krishija/campusintel/internal/config"
	"github.com/krishija/campusintel/internal/metrics"
)

// Result is a single search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Response is the subset of the Tavily payload the engines consume.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Searcher is the capability the engines depend on. The concrete Client
// satisfies it; tests substitute canned corpora.
type Searcher interface {
	Search(ctx context.Context, query string) (*Response, error)
}

// Depth selects how much crawling Tavily does per query.
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

const requestTimeout = 30 * time.Second

// Client talks to the Tavily search endpoint. A single process-wide rate
// limiter throttles all callers so concurrent engines share one budget.
type Client struct {
	endpoint   string
	apiKey     string
	depth      Depth
	maxResults int
	httpClient *http.Client
	limiter    *rate.Limiter
	collector  *metrics.Collector
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDepth overrides the default basic search depth.
func WithDepth(d Depth) Option {
	return func(c *Client) { c.depth = d }
}

// WithMaxResults caps the number of hits per query.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithHTTPClient substitutes the transport, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Tavily client from config.
func NewClient(cfg *config.Config, collector *metrics.Collector, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint:   cfg.TavilyEndpoint,
		apiKey:     cfg.TavilyAPIKey,
		depth:      DepthBasic,
		maxResults: cfg.MaxResults,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.SearchRPS), 1),
		collector:  collector,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	Query         string `json:"query"`
	APIKey        string `json:"api_key"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

// Search runs one query. An empty result list is a valid outcome, not an
// error; callers decide whether an empty corpus degrades their stage.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for search slot: %w", err)
	}

	start := time.Now()
	resp, err := c.doSearch(ctx, query)
	if c.collector != nil {
		c.collector.Record(metrics.OpSearch, time.Since(start), err == nil)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Debug("search completed",
		"query", query,
		"results", len(resp.Results),
		"duration", time.Since(start))
	return resp, nil
}

func (c *Client) doSearch(ctx context.Context, query string) (*Response, error) {
	body, err := json.Marshal(searchRequest{
		Query:         query,
		APIKey:        c.apiKey,
		SearchDepth:   string(c.depth),
		MaxResults:    c.maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling search api: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return &out, nil
}

// APIError is a non-2xx reply from the search endpoint. Status 401/403
// indicate a bad key and are fatal; 429 and 5xx are transient.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search api returned %d: %s", e.StatusCode, truncateBody(e.Body))
}

// Transient reports whether retrying could help.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func truncateBody(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max]
}
