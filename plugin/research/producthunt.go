package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultProductHuntBaseURL = "https://api.producthunt.com/v2/api/graphql"

const phTopPostsQuery = `
query GetTopPosts($first: Int!) {
  posts(order: VOTES, first: $first) {
    edges {
      node {
        id
        name
        tagline
        votesCount
        featuredAt
        url
      }
    }
  }
}`

// ProductHuntClient queries the Product Hunt GraphQL API.
type ProductHuntClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewProductHuntClient creates a Product Hunt client. baseURL is overridable
// for tests; empty selects the production endpoint.
func NewProductHuntClient(token, baseURL string) *ProductHuntClient {
	if baseURL == "" {
		baseURL = defaultProductHuntBaseURL
	}
	return &ProductHuntClient{
		token:   token,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
}

// Search fetches the top posts by votes and filters them by keyword (matched
// against name and tagline, case-insensitive). The Product Hunt API has no
// server-side keyword search, so filtering happens client-side.
func (c *ProductHuntClient) Search(ctx context.Context, keyword string, first int) ([]PHPost, error) {
	if first <= 0 {
		first = 30
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]any{
		"query":     phTopPostsQuery,
		"variables": map[string]any{"first": first},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product hunt request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// The API rejects unauthenticated or throttled calls; treat that as
		// an empty result like the rest of the research tools treat partial
		// provider failures.
		return []PHPost{}, nil
	}

	var body struct {
		Data struct {
			Posts struct {
				Edges []struct {
					Node struct {
						ID         string `json:"id"`
						Name       string `json:"name"`
						Tagline    string `json:"tagline"`
						VotesCount int    `json:"votesCount"`
						FeaturedAt string `json:"featuredAt"`
						URL        string `json:"url"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"posts"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode product hunt response: %w", err)
	}

	needle := strings.ToLower(keyword)
	posts := make([]PHPost, 0, len(body.Data.Posts.Edges))
	for _, edge := range body.Data.Posts.Edges {
		node := edge.Node
		if needle != "" &&
			!strings.Contains(strings.ToLower(node.Name), needle) &&
			!strings.Contains(strings.ToLower(node.Tagline), needle) {
			continue
		}
		post := PHPost{
			ID:      node.ID,
			Name:    node.Name,
			Tagline: node.Tagline,
			Votes:   node.VotesCount,
			URL:     node.URL,
		}
		if node.FeaturedAt != "" {
			if ts, err := time.Parse(time.RFC3339, node.FeaturedAt); err == nil {
				post.FeaturedAt = &ts
			}
		}
		posts = append(posts, post)
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Votes > posts[j].Votes })
	return posts, nil
}
