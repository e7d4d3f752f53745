package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/uniqorn/uniqorn/plugin/ai"
	"github.com/uniqorn/uniqorn/plugin/research"
)

// NewsSearcher searches recent news coverage.
type NewsSearcher interface {
	Search(ctx context.Context, input research.NewsSearchInput) ([]research.NewsArticle, error)
}

// TrendsFetcher returns search-interest timelines.
type TrendsFetcher interface {
	InterestOverTime(ctx context.Context, keyword, timeframe string) (*research.TrendResult, error)
}

// ProductSearcher searches product launches.
type ProductSearcher interface {
	Search(ctx context.Context, keyword string, first int) ([]research.PHPost, error)
}

// RedditSearcher searches Reddit discussions.
type RedditSearcher interface {
	Search(ctx context.Context, query string, limit int, subreddit string) ([]research.RedditPost, error)
	PostDetails(ctx context.Context, postID string) (*research.RedditPostDetail, error)
}

// WebSearcher performs general web search and page scraping.
type WebSearcher interface {
	SearchURLs(ctx context.Context, query string, limit int) ([]research.SearchResult, error)
	Scrape(ctx context.Context, pageURL string) (*research.PageMarkdown, error)
}

// CompanyFetcher retrieves structured company financials.
type CompanyFetcher interface {
	CompanyData(ctx context.Context, profileURLs []string) (*research.Snapshot, error)
}

// Tool pairs a model-facing definition with its executor. Run receives the
// raw JSON argument string produced by the model.
type Tool struct {
	Definition ai.ToolDefinition
	Run        func(ctx context.Context, arguments string) (any, error)
}

// Registry holds the tools exposed to a generation.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t Tool) {
	r.tools[t.Definition.Name] = t
}

// Definitions returns the tool definitions in stable name order.
func (r *Registry) Definitions() []ai.ToolDefinition {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]ai.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Invoke runs the named tool and returns its serialized output. Unknown
// tools and executor failures are reported as errors; the caller decides
// what the model gets to see.
func (r *Registry) Invoke(ctx context.Context, name, arguments string) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	output, err := tool.Run(ctx, arguments)
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", name, err)
	}
	return serializeOutput(output), nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// ResearchClients are the external data sources the research tools wrap.
// Nil clients leave the corresponding tools unregistered.
type ResearchClients struct {
	News    NewsSearcher
	Trends  TrendsFetcher
	Product ProductSearcher
	Reddit  RedditSearcher
	Web     WebSearcher
	Company CompanyFetcher
}

// NewResearchRegistry builds the tool registry backing the chatbot and the
// landscape researcher.
func NewResearchRegistry(clients ResearchClients) *Registry {
	r := NewRegistry()

	if clients.Web != nil {
		r.Register(Tool{
			Definition: ai.ToolDefinition{
				Name:        "web_search",
				Description: "Search the web and return matching pages with titles and descriptions.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"query": {Type: jsonschema.String, Description: "Search query"},
						"limit": {Type: jsonschema.Integer, Description: "Maximum number of results, default 8"},
					},
					Required: []string{"query"},
				},
			},
			Run: func(ctx context.Context, arguments string) (any, error) {
				var args struct {
					Query string `json:"query"`
					Limit int    `json:"limit"`
				}
				if err := json.Unmarshal([]byte(arguments), &args); err != nil {
					return nil, fmt.Errorf("invalid web_search arguments: %w", err)
				}
				return clients.Web.SearchURLs(ctx, args.Query, args.Limit)
			},
		})
		r.Register(Tool{
			Definition: ai.ToolDefinition{
				Name:        "fetch_page",
				Description: "Fetch a web page and return its content as markdown.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"url": {Type: jsonschema.String, Description: "URL of the page to fetch"},
					},
					Required: []string{"url"},
				},
			},
			Run: func(ctx context.Context, arguments string) (any, error) {
				var args struct {
					URL string `json:"url"`
				}
				if err := json.Unmarshal([]byte(arguments), &args); err != nil {
					return nil, fmt.Errorf("invalid fetch_page arguments: %w", err)
				}
				return clients.Web.Scrape(ctx, args.URL)
			},
		})
	}

	if clients.News != nil {
		r.Register(Tool{
			Definition: ai.ToolDefinition{
				Name:        "news_search",
				Description: "Search recent news articles about a topic, company or market.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"query":     {Type: jsonschema.String, Description: "Search query"},
						"days_back": {Type: jsonschema.Integer, Description: "How many days back to search, default 7"},
						"language":  {Type: jsonschema.String, Description: "Two-letter language code, default en"},
						"page_size": {Type: jsonschema.Integer, Description: "Maximum number of articles, default 10"},
					},
					Required: []string{"query"},
				},
			},
			Run: func(ctx context.Context, arguments string) (any, error) {
				var input research.NewsSearchInput
				if err := json.Unmarshal([]byte(arguments), &input); err != nil {
					return nil, fmt.Errorf("invalid news_search arguments: %w", err)
				}
				return clients.News.Search(ctx, input)
			},
		})
	}

	if clients.Trends != nil {
		r.Register(Tool{
			Definition: ai.ToolDefinition{
				Name:        "trends_get",
				Description: "Get the Google Trends search-interest timeline for a keyword.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"keyword":   {Type: jsonschema.String, Description: "Keyword to chart"},
						"timeframe": {Type: jsonschema.String, Description: "Trends timeframe, default 'today 12-m'"},
					},
					Required: []string{"keyword"},
				},
			},
			Run: func(ctx context.Context, arguments string) (any, error) {
				var args struct {
					Keyword   string `json:"keyword"`
					Timeframe string `json:"timeframe"`
				}
				if err := json.Unmarshal([]byte(arguments), &args); err != nil {
					return nil, fmt.Errorf("invalid trends_get arguments: %w", err)
				}
				return clients.Trends.InterestOverTime(ctx, args.Keyword, args.Timeframe)
			},
		})
	}

	if clients.Product != nil {
		r.Register(Tool{
			Definition: ai.ToolDefinition{
				Name:        "producthunt_search",
				Description: "Search top Product Hunt launches matching a keyword.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"keyword": {Type: jsonschema.String, Description: "Keyword to match against launch names and taglines"},
						"first":   {Type: jsonschema.Integer, Description: "How many top launches to scan, default 30"},
					},
					Required: []string{"keyword"},
				},
			},
			Run: func(ctx context.Context, arguments string) (any, error) {
				var args struct {
					Keyword string `json:"keyword"`
					First   int    `json:"first"`
				}
				if err := json.Unmarshal([]byte(arguments), &args); err != nil {
					return nil, fmt.Errorf("invalid producthunt_search arguments: %w", err)
				}
				return clients.Product.Search(ctx, args.Keyword, args.First)
			},
		})
	}

	if clients.Reddit != nil {
		r.Register(Tool{
			Definition: ai.ToolDefinition{
				Name:        "reddit_search",
				Description: "Search Reddit posts about a topic, optionally inside one subreddit.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"query":     {Type: jsonschema.String, Description: "Search query"},
						"limit":     {Type: jsonschema.Integer, Description: "Maximum number of posts, default 10"},
						"subreddit": {Type: jsonschema.String, Description: "Subreddit to search, default all"},
					},
					Required: []string{"query"},
				},
			},
			Run: func(ctx context.Context, arguments string) (any, error) {
				var args struct {
					Query     string `json:"query"`
					Limit     int    `json:"limit"`
					Subreddit string `json:"subreddit"`
				}
				if err := json.Unmarshal([]byte(arguments), &args); err != nil {
					return nil, fmt.Errorf("invalid reddit_search arguments: %w", err)
				}
				return clients.Reddit.Search(ctx, args.Query, args.Limit, args.Subreddit)
			},
		})
		r.Register(Tool{
			Definition: ai.ToolDefinition{
				Name:        "reddit_post_details",
				Description: "Fetch a Reddit post with its top comments.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"post_id": {Type: jsonschema.String, Description: "Reddit post id"},
					},
					Required: []string{"post_id"},
				},
			},
			Run: func(ctx context.Context, arguments string) (any, error) {
				var args struct {
					PostID string `json:"post_id"`
				}
				if err := json.Unmarshal([]byte(arguments), &args); err != nil {
					return nil, fmt.Errorf("invalid reddit_post_details arguments: %w", err)
				}
				return clients.Reddit.PostDetails(ctx, args.PostID)
			},
		})
	}

	if clients.Company != nil {
		r.Register(Tool{
			Definition: ai.ToolDefinition{
				Name:        "company_data",
				Description: "Fetch structured company financials (revenue, funding, valuation) by company profile URLs.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"urls": {
							Type:        jsonschema.Array,
							Description: "Company profile URLs",
							Items:       &jsonschema.Definition{Type: jsonschema.String},
						},
					},
					Required: []string{"urls"},
				},
			},
			Run: func(ctx context.Context, arguments string) (any, error) {
				var args struct {
					URLs []string `json:"urls"`
				}
				if err := json.Unmarshal([]byte(arguments), &args); err != nil {
					return nil, fmt.Errorf("invalid company_data arguments: %w", err)
				}
				return clients.Company.CompanyData(ctx, args.URLs)
			},
		})
	}

	return r
}
