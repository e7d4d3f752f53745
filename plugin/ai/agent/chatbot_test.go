package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniqorn/uniqorn/plugin/ai"
	"github.com/uniqorn/uniqorn/plugin/ai/memory"
	"github.com/uniqorn/uniqorn/plugin/research"
)

// fakeLLM scripts provider behavior: Chat replies come from chatFn, each
// ChatStream call plays the next scripted round.
type fakeLLM struct {
	mu       sync.Mutex
	chatFn   func(calls int, messages []ai.Message) (string, error)
	rounds   [][]ai.StreamEvent
	requests []ai.StreamRequest
	chats    int
}

func (f *fakeLLM) Chat(_ context.Context, messages []ai.Message, _ *ai.ChatOptions) (string, error) {
	f.mu.Lock()
	f.chats++
	calls := f.chats
	f.mu.Unlock()
	return f.chatFn(calls, messages)
}

func (f *fakeLLM) ChatStream(_ context.Context, req ai.StreamRequest) (<-chan ai.StreamEvent, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	if len(f.rounds) == 0 {
		f.mu.Unlock()
		return nil, fmt.Errorf("no scripted rounds left")
	}
	round := f.rounds[0]
	f.rounds = f.rounds[1:]
	f.mu.Unlock()

	events := make(chan ai.StreamEvent)
	go func() {
		defer close(events)
		for _, ev := range round {
			events <- ev
		}
	}()
	return events, nil
}

func collect(events <-chan Event) []Event {
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestChatbotStreamsPlainAnswer(t *testing.T) {
	llm := &fakeLLM{rounds: [][]ai.StreamEvent{{
		{Type: ai.StreamContent, Content: "Start "},
		{Type: ai.StreamContent, Content: "here."},
		{Type: ai.StreamDone},
	}}}
	mem := memory.NewService(0)
	bot := NewChatbot(llm, mem, nil)

	events := collect(bot.StreamResearch(context.Background(), "s1", "Where do I start?", false))
	assert.Equal(t, []EventType{EventAgentUpdated, EventChunk, EventChunk, EventMessageComplete}, types(events))
	assert.Equal(t, "Start ", events[1].Content)

	// The user turn is remembered before the generation runs.
	entries := mem.Entries("s1")
	require.Len(t, entries, 1)
	assert.Equal(t, "user", entries[0].Role)

	// Timestamps never go backwards.
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Timestamp, events[i-1].Timestamp)
	}
}

func TestChatbotToolRound(t *testing.T) {
	llm := &fakeLLM{rounds: [][]ai.StreamEvent{
		{
			{Type: ai.StreamToolCalls, ToolCalls: []ai.ToolCall{
				{ID: "call-1", Name: "news_search", Arguments: `{"query":"ai coding"}`},
			}},
			{Type: ai.StreamDone},
		},
		{
			{Type: ai.StreamContent, Content: "Based on the news, start small."},
			{Type: ai.StreamDone},
		},
	}}
	tools := NewResearchRegistry(ResearchClients{News: fakeNews{}})
	bot := NewChatbot(llm, memory.NewService(0), tools)

	events := collect(bot.StreamResearch(context.Background(), "s1", "What is happening?", true))
	assert.Equal(t, []EventType{EventAgentUpdated, EventToolCall, EventToolOutput, EventChunk, EventMessageComplete}, types(events))
	assert.Equal(t, "news_search", events[1].Tool)
	assert.Contains(t, events[2].Output, "The Verge")

	// First round forces tools, the follow-up round must not.
	require.Len(t, llm.requests, 2)
	assert.True(t, llm.requests[0].ForceToolUse)
	assert.False(t, llm.requests[1].ForceToolUse)

	// The follow-up request carries the tool result back to the model.
	last := llm.requests[1].Messages
	require.GreaterOrEqual(t, len(last), 4)
	assert.Equal(t, "tool", last[len(last)-1].Role)
	assert.Equal(t, "call-1", last[len(last)-1].ToolCallID)
}

func TestChatbotToolFailureIsSurfacedToModel(t *testing.T) {
	llm := &fakeLLM{rounds: [][]ai.StreamEvent{
		{
			{Type: ai.StreamToolCalls, ToolCalls: []ai.ToolCall{
				{ID: "call-1", Name: "nonexistent", Arguments: `{}`},
			}},
			{Type: ai.StreamDone},
		},
		{
			{Type: ai.StreamContent, Content: "I could not look that up."},
			{Type: ai.StreamDone},
		},
	}}
	bot := NewChatbot(llm, memory.NewService(0), NewRegistry())

	events := collect(bot.StreamResearch(context.Background(), "s1", "hi", false))
	assert.Equal(t, []EventType{EventAgentUpdated, EventToolCall, EventToolOutput, EventChunk, EventMessageComplete}, types(events))
	assert.Contains(t, events[2].Output, "error")
}

func TestChatbotStreamError(t *testing.T) {
	llm := &fakeLLM{rounds: [][]ai.StreamEvent{{
		{Type: ai.StreamContent, Content: "partial"},
		{Type: ai.StreamError, Err: fmt.Errorf("provider unavailable")},
	}}}
	bot := NewChatbot(llm, memory.NewService(0), nil)

	events := collect(bot.StreamResearch(context.Background(), "s1", "hi", false))
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Content, "provider unavailable")
}

func TestChatbotComposesHistoryIntoPrompt(t *testing.T) {
	llm := &fakeLLM{rounds: [][]ai.StreamEvent{{
		{Type: ai.StreamContent, Content: "ok"},
		{Type: ai.StreamDone},
	}}}
	mem := memory.NewService(0)
	mem.Add("s1", "user", "I want to build a coding tutor.")
	mem.Add("s1", "assistant", "Great idea, start with the audience.")

	bot := NewChatbot(llm, mem, nil)
	collect(bot.StreamResearch(context.Background(), "s1", "What next?", false))

	require.Len(t, llm.requests, 1)
	userMsg := llm.requests[0].Messages[1].Content
	assert.Contains(t, userMsg, "Previous conversation:")
	assert.Contains(t, userMsg, "User: I want to build a coding tutor.")
	assert.Contains(t, userMsg, "Assistant: Great idea, start with the audience.")
	assert.Contains(t, userMsg, "Current message:\nUser: What next?")
}

func TestChatbotRunSimple(t *testing.T) {
	llm := &fakeLLM{rounds: [][]ai.StreamEvent{{
		{Type: ai.StreamContent, Content: "All "},
		{Type: ai.StreamContent, Content: "done."},
		{Type: ai.StreamDone},
	}}}
	bot := NewChatbot(llm, memory.NewService(0), nil)

	reply, err := bot.RunSimple(context.Background(), "s1", "hi", false)
	require.NoError(t, err)
	assert.Equal(t, "All done.", reply)
}

func TestChatbotSessionAccessors(t *testing.T) {
	mem := memory.NewService(0)
	bot := NewChatbot(&fakeLLM{}, mem, nil)

	info := bot.Info("ghost")
	assert.False(t, info.HasMemory)
	assert.Zero(t, info.MessageCount)

	// An assistant turn never recreates memory for a session that has none.
	bot.AddAssistantResponse("ghost", "orphaned")
	assert.False(t, bot.Info("ghost").HasMemory)
	assert.Zero(t, mem.SessionCount())

	mem.Add("s1", "user", "hello?")
	bot.AddAssistantResponse("s1", "hello")
	info = bot.Info("s1")
	assert.True(t, info.HasMemory)
	assert.Equal(t, 2, info.MessageCount)
	require.Len(t, info.Conversation, 2)

	require.NoError(t, bot.ResetToMessage("s1", 0))
	assert.Equal(t, 1, bot.Info("s1").MessageCount)
	require.Error(t, bot.ResetToMessage("s1", 5))

	bot.ClearSession("s1")
	assert.False(t, bot.Info("s1").HasMemory)
}

type fakeNews struct{}

func (fakeNews) Search(_ context.Context, input research.NewsSearchInput) ([]research.NewsArticle, error) {
	return []research.NewsArticle{{Source: "The Verge", Title: "About " + input.Query, URL: "https://example.com"}}, nil
}

func TestRegistryDefinitionsAndInvoke(t *testing.T) {
	r := NewResearchRegistry(ResearchClients{News: fakeNews{}})
	require.Equal(t, 1, r.Len())

	defs := r.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "news_search", defs[0].Name)

	out, err := r.Invoke(context.Background(), "news_search", `{"query":"agents"}`)
	require.NoError(t, err)

	var articles []research.NewsArticle
	require.NoError(t, json.Unmarshal([]byte(out), &articles))
	require.Len(t, articles, 1)
	assert.Equal(t, "About agents", articles[0].Title)

	_, err = r.Invoke(context.Background(), "missing", `{}`)
	require.Error(t, err)

	_, err = r.Invoke(context.Background(), "news_search", `not json`)
	require.Error(t, err)
}

func TestSerializeOutputFallback(t *testing.T) {
	assert.Equal(t, `{"a":1}`, serializeOutput(map[string]int{"a": 1}))
	// Channels cannot be marshalled; the string form is used instead.
	out := serializeOutput(make(chan int))
	assert.NotEmpty(t, out)
}
