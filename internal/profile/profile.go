// Package profile loads the server configuration from the environment.
// Every setting is a UNIQORN_* environment variable with a sensible
// default; API keys have no default and gate the features that need them.
package profile

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Version is the current server version
	Version string

	// LLM provider configuration
	OpenAIAPIKey  string  // UNIQORN_OPENAI_API_KEY
	OpenAIBaseURL string  // UNIQORN_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	ChatModel     string  // UNIQORN_CHAT_MODEL (default: gpt-4.1)
	MiniModel     string  // UNIQORN_MINI_MODEL (default: gpt-4.1-mini)
	MaxTokens     int     // UNIQORN_MAX_TOKENS (default: 4096)
	Temperature   float64 // UNIQORN_TEMPERATURE (default: 0.7)
	LLMTimeout    time.Duration

	// Conversation memory budget per session, in estimated tokens
	MemoryMaxTokens int // UNIQORN_MEMORY_MAX_TOKENS (default: 8000)

	// Research API credentials; a missing credential disables the tool
	NewsAPIKey         string // UNIQORN_NEWS_API_KEY
	ProductHuntToken   string // UNIQORN_PRODUCTHUNT_TOKEN
	RedditClientID     string // UNIQORN_REDDIT_CLIENT_ID
	RedditClientSecret string // UNIQORN_REDDIT_CLIENT_SECRET
	RedditUserAgent    string // UNIQORN_REDDIT_USER_AGENT
	FirecrawlAPIKey    string // UNIQORN_FIRECRAWL_API_KEY
	BrightDataAPIKey   string // UNIQORN_BRIGHTDATA_API_KEY
}

// IsDev returns true unless the profile runs in prod mode.
func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// FromEnv loads the configuration from UNIQORN_* environment variables.
func FromEnv(version string) *Profile {
	v := viper.New()
	v.SetEnvPrefix("uniqorn")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8000)
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("chat_model", "gpt-4.1")
	v.SetDefault("mini_model", "gpt-4.1-mini")
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("llm_timeout_seconds", 60)
	v.SetDefault("memory_max_tokens", 8000)
	v.SetDefault("reddit_user_agent", "uniqorn-research/0.1")

	return &Profile{
		Mode:    v.GetString("mode"),
		Addr:    v.GetString("addr"),
		Port:    v.GetInt("port"),
		Version: version,

		OpenAIAPIKey:  v.GetString("openai_api_key"),
		OpenAIBaseURL: v.GetString("openai_base_url"),
		ChatModel:     v.GetString("chat_model"),
		MiniModel:     v.GetString("mini_model"),
		MaxTokens:     v.GetInt("max_tokens"),
		Temperature:   v.GetFloat64("temperature"),
		LLMTimeout:    time.Duration(v.GetInt("llm_timeout_seconds")) * time.Second,

		MemoryMaxTokens: v.GetInt("memory_max_tokens"),

		NewsAPIKey:         v.GetString("news_api_key"),
		ProductHuntToken:   v.GetString("producthunt_token"),
		RedditClientID:     v.GetString("reddit_client_id"),
		RedditClientSecret: v.GetString("reddit_client_secret"),
		RedditUserAgent:    v.GetString("reddit_user_agent"),
		FirecrawlAPIKey:    v.GetString("firecrawl_api_key"),
		BrightDataAPIKey:   v.GetString("brightdata_api_key"),
	}
}

// Validate normalizes the profile and rejects configurations the server
// cannot start with.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.OpenAIAPIKey == "" {
		return errors.New("UNIQORN_OPENAI_API_KEY is required")
	}
	if p.MemoryMaxTokens <= 0 {
		p.MemoryMaxTokens = 8000
	}
	return nil
}
