// Package agent implements the research agents: the streaming chatbot, the
// project-context extractor, the competitive-landscape researcher, and the
// roadmap generator.
package agent

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType discriminates the normalized events emitted by a streaming
// generation.
type EventType string

const (
	// EventChunk carries an incremental fragment of assistant text.
	EventChunk EventType = "chunk"
	// EventToolCall announces a tool invocation requested by the model.
	EventToolCall EventType = "tool_call"
	// EventToolOutput carries the serialized result of a tool invocation.
	EventToolOutput EventType = "tool_output"
	// EventAgentUpdated announces that a different agent took over the turn.
	EventAgentUpdated EventType = "agent_updated"
	// EventMessageComplete marks the normal end of an assistant turn.
	EventMessageComplete EventType = "message_complete"
)

// Event is one normalized streaming event. Exactly the fields relevant to
// its type are set; Timestamp is seconds since the Unix epoch.
type Event struct {
	Type      EventType `json:"type"`
	Content   string    `json:"content,omitempty"`
	Tool      string    `json:"tool,omitempty"`
	Arguments string    `json:"arguments,omitempty"`
	Output    string    `json:"output,omitempty"`
	NewAgent  string    `json:"new_agent,omitempty"`
	Timestamp float64   `json:"timestamp"`
}

func eventTime() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

func chunkEvent(content string) Event {
	return Event{Type: EventChunk, Content: content, Timestamp: eventTime()}
}

func toolCallEvent(tool, arguments string) Event {
	return Event{Type: EventToolCall, Tool: tool, Arguments: arguments, Timestamp: eventTime()}
}

func toolOutputEvent(output string) Event {
	return Event{Type: EventToolOutput, Output: output, Timestamp: eventTime()}
}

func agentUpdatedEvent(name string) Event {
	return Event{Type: EventAgentUpdated, NewAgent: name, Timestamp: eventTime()}
}

func messageCompleteEvent() Event {
	return Event{Type: EventMessageComplete, Timestamp: eventTime()}
}

// serializeOutput renders a tool result for the model and the client. JSON
// is preferred; values that cannot be marshalled fall back to their string
// representation.
func serializeOutput(output any) string {
	raw, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf("%v", output)
	}
	return string(raw)
}
