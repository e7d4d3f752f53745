// Package ai provides the language-model provider used by all agents: chat
// completions with retry, tool-call aware streaming, and helpers for parsing
// structured JSON replies.
package ai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Config holds the LLM provider configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	ChatModel   string
	MiniModel   string
	MaxTokens   int
	Temperature float32
	MaxRetries  int
	Timeout     time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		ChatModel:   "gpt-4.1",
		MiniModel:   "gpt-4.1-mini",
		MaxTokens:   4096,
		Temperature: 0.7,
		MaxRetries:  3,
		Timeout:     60 * time.Second,
	}
}

// Message is a provider-neutral chat message. ToolCalls is set on assistant
// messages that requested tools; ToolCallID on role "tool" result messages.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a tool invocation requested by the model. Arguments is the raw
// JSON argument string as produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition declares a callable tool to the model. Parameters is a JSON
// schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  any
}

// StreamEventType discriminates events produced by ChatStream.
type StreamEventType int

const (
	// StreamContent carries an incremental content fragment.
	StreamContent StreamEventType = iota
	// StreamToolCalls carries fully accumulated tool calls for one round.
	StreamToolCalls
	// StreamDone marks normal end of the model turn.
	StreamDone
	// StreamError carries a terminal error.
	StreamError
)

// StreamEvent is one event of a streaming chat completion.
type StreamEvent struct {
	Type      StreamEventType
	Content   string
	ToolCalls []ToolCall
	Err       error
}

// StreamRequest describes one streaming chat call.
type StreamRequest struct {
	Model        string
	Messages     []Message
	Tools        []ToolDefinition
	ForceToolUse bool
	Temperature  float32
	MaxTokens    int
}

// ChatOptions tunes a single non-streaming chat call. Zero values fall back
// to the provider config.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// LLMService is the provider interface consumed by the agents.
type LLMService interface {
	// Chat performs a synchronous chat completion.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (string, error)

	// ChatStream performs a streaming chat completion. Content fragments and
	// accumulated tool-call rounds are delivered in model order; the channel
	// is closed after a StreamDone or StreamError event. Cancelling ctx
	// releases the underlying stream.
	ChatStream(ctx context.Context, req StreamRequest) (<-chan StreamEvent, error)
}

// Provider implements LLMService on the OpenAI chat-completions API.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a new LLM provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4.1"
	}
	if cfg.MiniModel == "" {
		cfg.MiniModel = cfg.ChatModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Config returns the provider configuration.
func (p *Provider) Config() *Config {
	return p.config
}

// Chat performs a chat completion with exponential backoff retry.
func (p *Provider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.config.ChatModel,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	}
	if opts != nil {
		if opts.Model != "" {
			req.Model = opts.Model
		}
		if opts.Temperature != 0 {
			req.Temperature = opts.Temperature
		}
		if opts.MaxTokens != 0 {
			req.MaxTokens = opts.MaxTokens
		}
	}

	var result string
	err := p.doWithRetry(ctx, func() error {
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}
	return result, nil
}

// ChatStream performs a streaming chat completion. Tool-call deltas are
// accumulated per index and emitted as one StreamToolCalls event when the
// model finishes the tool-call round.
func (p *Provider) ChatStream(ctx context.Context, req StreamRequest) (<-chan StreamEvent, error) {
	model := req.Model
	if model == "" {
		model = p.config.ChatModel
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	oreq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      true,
	}
	for _, tool := range req.Tools {
		oreq.Tools = append(oreq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	if len(req.Tools) > 0 {
		if req.ForceToolUse {
			oreq.ToolChoice = "required"
		} else {
			oreq.ToolChoice = "auto"
		}
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, oreq)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat stream: %w", err)
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer stream.Close()

		// Tool-call fragments keyed by choice delta index.
		pending := map[int]*ToolCall{}
		order := []int{}

		emit := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			resp, err := stream.Recv()
			if err == io.EOF {
				emit(StreamEvent{Type: StreamDone})
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				emit(StreamEvent{Type: StreamError, Err: err})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			choice := resp.Choices[0]

			if choice.Delta.Content != "" {
				if !emit(StreamEvent{Type: StreamContent, Content: choice.Delta.Content}) {
					return
				}
			}

			for _, tc := range choice.Delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				call, ok := pending[idx]
				if !ok {
					call = &ToolCall{}
					pending[idx] = call
					order = append(order, idx)
				}
				if tc.ID != "" {
					call.ID = tc.ID
				}
				if tc.Function.Name != "" {
					call.Name = tc.Function.Name
				}
				call.Arguments += tc.Function.Arguments
			}

			if choice.FinishReason == openai.FinishReasonToolCalls {
				calls := make([]ToolCall, 0, len(order))
				for _, idx := range order {
					calls = append(calls, *pending[idx])
				}
				if !emit(StreamEvent{Type: StreamToolCalls, ToolCalls: calls}) {
					return
				}
				pending = map[int]*ToolCall{}
				order = order[:0]
			}
		}
	}()

	return events, nil
}

// doWithRetry executes a function with exponential backoff retry.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < p.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("LLM request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		m := openai.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out[i] = m
	}
	return out
}

// Ensure Provider implements LLMService.
var _ LLMService = (*Provider)(nil)
