// Package research provides typed clients for the third-party research APIs
// consumed by the chatbot tools and the landscape agent: NewsAPI, Product
// Hunt, Google Trends, Reddit, and Firecrawl web search.
package research

import "time"

// NewsSearchInput are the parameters of a news search.
type NewsSearchInput struct {
	Query    string `json:"query"`
	DaysBack int    `json:"days_back,omitempty"`
	Language string `json:"language,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// NewsArticle is one article returned by the news search.
type NewsArticle struct {
	Source      string `json:"source"`
	Author      string `json:"author,omitempty"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Description string `json:"description,omitempty"`
}

// PHPost is one Product Hunt launch.
type PHPost struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Tagline    string     `json:"tagline,omitempty"`
	Votes      int        `json:"votes"`
	FeaturedAt *time.Time `json:"featured_at,omitempty"`
	URL        string     `json:"url"`
}

// TrendPoint is one interest-over-time sample.
type TrendPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// TrendResult is the interest timeline for one keyword.
type TrendResult struct {
	Keyword  string       `json:"keyword"`
	Timeline []TrendPoint `json:"timeline"`
}

// RedditPost is one search hit.
type RedditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Score      int     `json:"score"`
	URL        string  `json:"url"`
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`
}

// RedditComment is one comment on a post.
type RedditComment struct {
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}

// RedditPostDetail is a post with its top comments.
type RedditPostDetail struct {
	Title             string          `json:"title"`
	Author            string          `json:"author"`
	SelfText          string          `json:"selftext"`
	Score             int             `json:"score"`
	UpvoteRatio       float64         `json:"upvote_ratio"`
	URL               string          `json:"url"`
	CreatedUTC        float64         `json:"created_utc"`
	NumComments       int             `json:"num_comments"`
	Subreddit         string          `json:"subreddit"`
	IsOriginalContent bool            `json:"is_original_content"`
	TopComments       []RedditComment `json:"top_comments"`
}

// SearchResult is one web search hit.
type SearchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PageMarkdown is a scraped page rendered to markdown.
type PageMarkdown struct {
	URL      string   `json:"url"`
	Markdown string   `json:"markdown"`
	Links    []string `json:"links"`
}
