package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultFirecrawlBaseURL = "https://api.firecrawl.dev/v1"

	// maxConcurrentScrapes bounds parallel page fetches in ScrapeAll.
	maxConcurrentScrapes = 4
)

// FirecrawlClient performs web search and page scraping through the
// Firecrawl API.
type FirecrawlClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewFirecrawlClient creates a Firecrawl client. baseURL is overridable for
// tests; empty selects the production endpoint.
func NewFirecrawlClient(apiKey, baseURL string) *FirecrawlClient {
	if baseURL == "" {
		baseURL = defaultFirecrawlBaseURL
	}
	return &FirecrawlClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// SearchURLs returns up to limit search hits for the query.
func (c *FirecrawlClient) SearchURLs(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("web search query is required")
	}
	if limit <= 0 {
		limit = 8
	}

	var body struct {
		Success bool `json:"success"`
		Data    []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "/search", map[string]any{"query": query, "limit": limit}, &body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, fmt.Errorf("web search for %q was rejected by the provider", query)
	}

	results := make([]SearchResult, 0, len(body.Data))
	for _, d := range body.Data {
		results = append(results, SearchResult{
			URL:         d.URL,
			Title:       d.Title,
			Description: d.Description,
		})
	}
	return results, nil
}

// Scrape fetches a single page rendered to markdown.
func (c *FirecrawlClient) Scrape(ctx context.Context, pageURL string) (*PageMarkdown, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("scrape url is required")
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Markdown string   `json:"markdown"`
			Links    []string `json:"links"`
		} `json:"data"`
	}
	payload := map[string]any{
		"url":     pageURL,
		"formats": []string{"markdown", "links"},
	}
	if err := c.postJSON(ctx, "/scrape", payload, &body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, fmt.Errorf("scrape of %s was rejected by the provider", pageURL)
	}

	page := &PageMarkdown{
		URL:      pageURL,
		Markdown: body.Data.Markdown,
		Links:    body.Data.Links,
	}
	if page.Links == nil {
		page.Links = []string{}
	}
	return page, nil
}

// ScrapeAll scrapes several pages concurrently, preserving input order.
func (c *FirecrawlClient) ScrapeAll(ctx context.Context, urls []string) ([]PageMarkdown, error) {
	pages := make([]PageMarkdown, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScrapes)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			page, err := c.Scrape(ctx, u)
			if err != nil {
				return err
			}
			pages[i] = *page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (c *FirecrawlClient) postJSON(ctx context.Context, path string, payload, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("firecrawl request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("firecrawl request returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode firecrawl response: %w", err)
	}
	return nil
}
