package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uniqorn/uniqorn/plugin/ai"
	"github.com/uniqorn/uniqorn/plugin/ai/memory"
	"github.com/uniqorn/uniqorn/plugin/ai/prompt"
)

// maxToolRounds bounds how many tool-call rounds one generation may run.
const maxToolRounds = 8

// chatbotName is reported in agent_updated events.
const chatbotName = "Startup Research Chatbot"

// EventError is the terminal event emitted when a generation fails. It is
// not part of the normal event vocabulary; Content carries the message.
const EventError EventType = "error"

// SessionInfo describes a session's memory usage.
type SessionInfo struct {
	SessionID    string         `json:"session_id"`
	HasMemory    bool           `json:"has_memory"`
	MessageCount int            `json:"message_count"`
	Conversation []memory.Entry `json:"conversation,omitempty"`
}

// Chatbot is the streaming startup-research assistant. It drives tool-call
// rounds against the model and normalizes provider output into Events.
type Chatbot struct {
	llm          ai.LLMService
	memory       *memory.Service
	tools        *Registry
	systemPrompt string
}

// NewChatbot creates a chatbot over the given provider, memory service and
// tool registry.
func NewChatbot(llm ai.LLMService, mem *memory.Service, tools *Registry) *Chatbot {
	if tools == nil {
		tools = NewRegistry()
	}
	return &Chatbot{
		llm:          llm,
		memory:       mem,
		tools:        tools,
		systemPrompt: prompt.MustLoad("chatbot.yaml", "chatbot_system", nil),
	}
}

// StreamResearch records the user message, runs a streaming generation with
// tool support and returns its normalized event stream. The channel is
// closed after a message_complete or error event, or when ctx is cancelled.
// webSearch forces a tool round before the model may answer.
func (c *Chatbot) StreamResearch(ctx context.Context, sessionID, userPrompt string, webSearch bool) <-chan Event {
	c.memory.Add(sessionID, "user", userPrompt)
	fullPrompt := c.composePrompt(sessionID, userPrompt)

	events := make(chan Event)
	go func() {
		defer close(events)
		c.run(ctx, fullPrompt, webSearch, events)
	}()
	return events
}

// RunSimple is the non-streaming variant: it drains the event stream and
// returns the concatenated assistant text.
func (c *Chatbot) RunSimple(ctx context.Context, sessionID, userPrompt string, webSearch bool) (string, error) {
	var b strings.Builder
	for ev := range c.StreamResearch(ctx, sessionID, userPrompt, webSearch) {
		switch ev.Type {
		case EventChunk:
			b.WriteString(ev.Content)
		case EventError:
			return "", fmt.Errorf("generation failed: %s", ev.Content)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// AddAssistantResponse records a completed assistant turn. A session whose
// memory is already gone (torn down or cleared) is left untouched rather
// than recreated.
func (c *Chatbot) AddAssistantResponse(sessionID, response string) {
	if !c.memory.Has(sessionID) {
		return
	}
	c.memory.Add(sessionID, "assistant", response)
}

// History returns the remembered conversation of a session.
func (c *Chatbot) History(sessionID string) []memory.Entry {
	return c.memory.Entries(sessionID)
}

// ClearSession drops a session's memory.
func (c *Chatbot) ClearSession(sessionID string) {
	c.memory.ClearSession(sessionID)
}

// ResetToMessage truncates a session's memory to the inclusive prefix
// ending at index.
func (c *Chatbot) ResetToMessage(sessionID string, index int) error {
	return c.memory.ResetTo(sessionID, index)
}

// ReplayMemory rebuilds a session's memory from the given turns, discarding
// whatever was remembered before.
func (c *Chatbot) ReplayMemory(sessionID string, turns []memory.Entry) {
	c.memory.Replay(sessionID, turns)
}

// Info reports a session's memory usage.
func (c *Chatbot) Info(sessionID string) SessionInfo {
	if !c.memory.Has(sessionID) {
		return SessionInfo{SessionID: sessionID}
	}
	return SessionInfo{
		SessionID:    sessionID,
		HasMemory:    true,
		MessageCount: c.memory.Count(sessionID),
		Conversation: c.memory.Entries(sessionID),
	}
}

// composePrompt renders the remembered conversation ahead of the current
// message so the model sees prior turns.
func (c *Chatbot) composePrompt(sessionID, userPrompt string) string {
	entries := c.memory.Entries(sessionID)
	if len(entries) == 0 {
		return userPrompt
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, e := range entries {
		switch e.Role {
		case "user":
			fmt.Fprintf(&b, "User: %s\n", e.Content)
		case "assistant":
			fmt.Fprintf(&b, "Assistant: %s\n", e.Content)
		}
	}
	fmt.Fprintf(&b, "\nCurrent message:\nUser: %s", userPrompt)
	return b.String()
}

// run drives the generation: it streams model output, executes requested
// tools and re-issues the conversation with tool results until the model
// produces a final answer.
func (c *Chatbot) run(ctx context.Context, fullPrompt string, webSearch bool, events chan<- Event) {
	emit := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit(agentUpdatedEvent(chatbotName)) {
		return
	}

	messages := []ai.Message{
		{Role: "system", Content: c.systemPrompt},
		{Role: "user", Content: fullPrompt},
	}
	defs := c.tools.Definitions()

	for round := 0; round <= maxToolRounds; round++ {
		stream, err := c.llm.ChatStream(ctx, ai.StreamRequest{
			Messages:     messages,
			Tools:        defs,
			ForceToolUse: webSearch && round == 0,
		})
		if err != nil {
			emit(Event{Type: EventError, Content: err.Error(), Timestamp: eventTime()})
			return
		}

		toolRound := false
		for ev := range stream {
			switch ev.Type {
			case ai.StreamContent:
				if !emit(chunkEvent(ev.Content)) {
					return
				}

			case ai.StreamToolCalls:
				toolRound = true
				messages = append(messages, ai.Message{Role: "assistant", ToolCalls: ev.ToolCalls})
				for _, call := range ev.ToolCalls {
					if !emit(toolCallEvent(call.Name, call.Arguments)) {
						return
					}
					output, err := c.tools.Invoke(ctx, call.Name, call.Arguments)
					if err != nil {
						// The model gets to see the failure and may recover
						// with a different call.
						slog.Warn("tool invocation failed", "tool", call.Name, "error", err)
						output = serializeOutput(map[string]string{"error": err.Error()})
					}
					if !emit(toolOutputEvent(output)) {
						return
					}
					messages = append(messages, ai.Message{
						Role:       "tool",
						Content:    output,
						ToolCallID: call.ID,
					})
				}

			case ai.StreamDone:
				if !toolRound {
					emit(messageCompleteEvent())
					return
				}

			case ai.StreamError:
				if ctx.Err() != nil {
					return
				}
				emit(Event{Type: EventError, Content: ev.Err.Error(), Timestamp: eventTime()})
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		if !toolRound {
			// Stream ended without a terminal event; treat as complete.
			emit(messageCompleteEvent())
			return
		}
	}

	emit(Event{Type: EventError, Content: "tool-call round limit exceeded", Timestamp: eventTime()})
}
