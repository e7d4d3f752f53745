package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultNewsBaseURL = "https://newsapi.org/v2"

// NewsClient searches global news via the NewsAPI "everything" endpoint.
type NewsClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewNewsClient creates a news client. baseURL is overridable for tests;
// empty selects the production endpoint.
func NewNewsClient(apiKey, baseURL string) *NewsClient {
	if baseURL == "" {
		baseURL = defaultNewsBaseURL
	}
	return &NewsClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		// NewsAPI free tier allows a small request budget; 1 rps is plenty.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Search returns articles matching the query from the last DaysBack days,
// sorted by relevancy.
func (c *NewsClient) Search(ctx context.Context, input NewsSearchInput) ([]NewsArticle, error) {
	if input.Query == "" {
		return nil, fmt.Errorf("news search query is required")
	}
	if input.DaysBack <= 0 {
		input.DaysBack = 7
	}
	if input.Language == "" {
		input.Language = "en"
	}
	if input.PageSize <= 0 {
		input.PageSize = 10
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	from := time.Now().UTC().AddDate(0, 0, -input.DaysBack).Format("2006-01-02")
	params := url.Values{
		"q":        {input.Query},
		"from":     {from},
		"language": {input.Language},
		"pageSize": {strconv.Itoa(input.PageSize)},
		"sortBy":   {"relevancy"},
		"apiKey":   {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news search failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news search returned status %d", resp.StatusCode)
	}

	var body struct {
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Author      string `json:"author"`
			Title       string `json:"title"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode news response: %w", err)
	}

	articles := make([]NewsArticle, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, NewsArticle{
			Source:      a.Source.Name,
			Author:      a.Author,
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Description: a.Description,
		})
	}
	return articles, nil
}
