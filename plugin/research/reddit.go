package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	defaultRedditBaseURL  = "https://oauth.reddit.com"
	defaultRedditTokenURL = "https://www.reddit.com/api/v1/access_token"

	// maxTopComments bounds how many comments a post-detail lookup returns.
	maxTopComments = 10
)

// RedditConfig holds Reddit API credentials.
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string

	// BaseURL and TokenURL are overridable for tests.
	BaseURL  string
	TokenURL string
}

// RedditClient searches Reddit using the OAuth2 client-credentials flow.
type RedditClient struct {
	userAgent string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewRedditClient creates a Reddit client.
func NewRedditClient(cfg RedditConfig) *RedditClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultRedditBaseURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultRedditTokenURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "uniqorn-research/0.1"
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}
	httpClient := creds.Client(context.Background())
	httpClient.Timeout = 15 * time.Second

	return &RedditClient{
		userAgent: userAgent,
		baseURL:   baseURL,
		http:      httpClient,
		// Reddit allows 60 requests per minute for script apps.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Search returns posts matching the query, sorted by relevance. An empty
// subreddit searches all of Reddit.
func (c *RedditClient) Search(ctx context.Context, query string, limit int, subreddit string) ([]RedditPost, error) {
	if query == "" {
		return nil, fmt.Errorf("reddit search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	if subreddit == "" {
		subreddit = "all"
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":      {query},
		"sort":   {"relevance"},
		"limit":  {strconv.Itoa(limit)},
		"syntax": {"lucene"},
	}
	endpoint := fmt.Sprintf("%s/r/%s/search?%s", c.baseURL, url.PathEscape(subreddit), params.Encode())

	var body struct {
		Data struct {
			Children []struct {
				Data struct {
					ID         string  `json:"id"`
					Title      string  `json:"title"`
					Score      int     `json:"score"`
					URL        string  `json:"url"`
					Subreddit  string  `json:"subreddit"`
					CreatedUTC float64 `json:"created_utc"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}

	posts := make([]RedditPost, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		d := child.Data
		posts = append(posts, RedditPost{
			ID:         d.ID,
			Title:      d.Title,
			Score:      d.Score,
			URL:        d.URL,
			Subreddit:  d.Subreddit,
			CreatedUTC: d.CreatedUTC,
		})
	}
	return posts, nil
}

// PostDetails returns a post with its top comments.
func (c *RedditClient) PostDetails(ctx context.Context, postID string) (*RedditPostDetail, error) {
	if postID == "" {
		return nil, fmt.Errorf("reddit post id is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/comments/%s?limit=%d", c.baseURL, url.PathEscape(postID), maxTopComments)

	// The comments endpoint returns a two-element array: the post listing
	// and the comment listing.
	var listings []struct {
		Data struct {
			Children []struct {
				Kind string          `json:"kind"`
				Data json.RawMessage `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return nil, fmt.Errorf("reddit post %s not found", postID)
	}

	var post struct {
		Title             string  `json:"title"`
		Author            string  `json:"author"`
		SelfText          string  `json:"selftext"`
		Score             int     `json:"score"`
		UpvoteRatio       float64 `json:"upvote_ratio"`
		URL               string  `json:"url"`
		CreatedUTC        float64 `json:"created_utc"`
		NumComments       int     `json:"num_comments"`
		Subreddit         string  `json:"subreddit"`
		IsOriginalContent bool    `json:"is_original_content"`
	}
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &post); err != nil {
		return nil, fmt.Errorf("failed to decode reddit post: %w", err)
	}

	detail := &RedditPostDetail{
		Title:             post.Title,
		Author:            orDeleted(post.Author),
		SelfText:          post.SelfText,
		Score:             post.Score,
		UpvoteRatio:       post.UpvoteRatio,
		URL:               post.URL,
		CreatedUTC:        post.CreatedUTC,
		NumComments:       post.NumComments,
		Subreddit:         post.Subreddit,
		IsOriginalContent: post.IsOriginalContent,
		TopComments:       []RedditComment{},
	}

	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" || len(detail.TopComments) >= maxTopComments {
			continue
		}
		var comment struct {
			Author     string  `json:"author"`
			Body       string  `json:"body"`
			Score      int     `json:"score"`
			CreatedUTC float64 `json:"created_utc"`
		}
		if err := json.Unmarshal(child.Data, &comment); err != nil {
			continue
		}
		detail.TopComments = append(detail.TopComments, RedditComment{
			Author:     orDeleted(comment.Author),
			Body:       comment.Body,
			Score:      comment.Score,
			CreatedUTC: comment.CreatedUTC,
		})
	}
	return detail, nil
}

func (c *RedditClient) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reddit request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit request returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode reddit response: %w", err)
	}
	return nil
}

func orDeleted(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}
