package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultTrendsBaseURL = "https://trends.google.com/trends/api"

// TrendsClient fetches Google Trends interest-over-time data using the same
// two-step widget protocol the web UI speaks: an explore call that issues a
// widget token, then the timeline call authorized by that token.
type TrendsClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewTrendsClient creates a trends client. baseURL is overridable for tests;
// empty selects the production endpoint.
func NewTrendsClient(baseURL string) *TrendsClient {
	if baseURL == "" {
		baseURL = defaultTrendsBaseURL
	}
	return &TrendsClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
		// The unofficial endpoint throttles aggressively.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// InterestOverTime returns the interest timeline for one keyword.
// timeframe uses the Trends syntax, e.g. "today 12-m"; empty means the past
// 12 months.
func (c *TrendsClient) InterestOverTime(ctx context.Context, keyword, timeframe string) (*TrendResult, error) {
	if keyword == "" {
		return nil, fmt.Errorf("trends keyword is required")
	}
	if timeframe == "" {
		timeframe = "today 12-m"
	}

	token, err := c.exploreToken(ctx, keyword, timeframe)
	if err != nil {
		return nil, err
	}
	return c.timeline(ctx, keyword, timeframe, token)
}

// exploreToken performs the explore call and extracts the TIMESERIES widget
// request token.
func (c *TrendsClient) exploreToken(ctx context.Context, keyword, timeframe string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqSpec, err := json.Marshal(map[string]any{
		"comparisonItem": []map[string]string{
			{"keyword": keyword, "geo": "", "time": timeframe},
		},
		"category": 0,
		"property": "",
	})
	if err != nil {
		return "", err
	}
	params := url.Values{
		"hl":  {"en-US"},
		"tz":  {"0"},
		"req": {string(reqSpec)},
	}

	body, err := c.get(ctx, c.baseURL+"/explore?"+params.Encode())
	if err != nil {
		return "", err
	}

	var explore struct {
		Widgets []struct {
			ID    string `json:"id"`
			Token string `json:"token"`
		} `json:"widgets"`
	}
	if err := json.Unmarshal(body, &explore); err != nil {
		return "", fmt.Errorf("failed to decode trends explore response: %w", err)
	}
	for _, w := range explore.Widgets {
		if w.ID == "TIMESERIES" {
			return w.Token, nil
		}
	}
	return "", fmt.Errorf("trends explore response has no TIMESERIES widget")
}

// timeline fetches the interest-over-time data authorized by token.
func (c *TrendsClient) timeline(ctx context.Context, keyword, timeframe, token string) (*TrendResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqSpec, err := json.Marshal(map[string]any{
		"time": timeframe,
		"comparisonItem": []map[string]any{
			{"complexKeywordsRestriction": map[string]any{
				"keyword": []map[string]string{{"type": "BROAD", "value": keyword}},
			}},
		},
	})
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"hl":    {"en-US"},
		"tz":    {"0"},
		"req":   {string(reqSpec)},
		"token": {token},
	}

	body, err := c.get(ctx, c.baseURL+"/widgetdata/multiline?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var data struct {
		Default struct {
			TimelineData []struct {
				Time          string `json:"time"`
				FormattedTime string `json:"formattedTime"`
				Value         []int  `json:"value"`
			} `json:"timelineData"`
		} `json:"default"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode trends timeline response: %w", err)
	}

	result := &TrendResult{Keyword: keyword}
	for _, p := range data.Default.TimelineData {
		if len(p.Value) == 0 {
			continue
		}
		result.Timeline = append(result.Timeline, TrendPoint{
			Date:  p.FormattedTime,
			Value: p.Value[0],
		})
	}
	return result, nil
}

// get performs a GET and strips the anti-JSON-hijacking prefix Google puts
// in front of every trends payload.
func (c *TrendsClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trends request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends request returned status %d", resp.StatusCode)
	}

	var buf strings.Builder
	if _, err := copyBounded(&buf, resp.Body); err != nil {
		return nil, err
	}
	body := buf.String()
	if idx := strings.IndexAny(body, "{["); idx > 0 {
		body = body[idx:]
	}
	return []byte(body), nil
}
