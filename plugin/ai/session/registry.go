package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/uniqorn/uniqorn/plugin/ai/agent"
	"github.com/uniqorn/uniqorn/plugin/ai/memory"
)

// Conn is the connection surface the registry needs. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Generator drives streaming generations and owns conversation memory.
// *agent.Chatbot satisfies it.
type Generator interface {
	StreamResearch(ctx context.Context, sessionID, prompt string, webSearch bool) <-chan agent.Event
	AddAssistantResponse(sessionID, response string)
	ClearSession(sessionID string)
	ReplayMemory(sessionID string, turns []memory.Entry)
	Info(sessionID string) agent.SessionInfo
}

var _ Generator = (*agent.Chatbot)(nil)

// entry pairs a live connection with its session. writeMu serializes event
// delivery so per-session ordering is preserved.
type entry struct {
	conn    Conn
	writeMu sync.Mutex
	sess    *ChatSession
}

// Registry maps session ids to exactly one live connection and one
// ChatSession each. Process-lifetime state only; rebuilt empty on restart.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	gen     Generator
}

// NewRegistry creates a registry over the given generator.
func NewRegistry(gen Generator) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		gen:     gen,
	}
}

// Connect registers a connection under a session id, creating the session
// on first contact. A prior connection under the same id is displaced and
// explicitly closed; the session itself survives reconnects. The new
// connection receives a connected event.
func (r *Registry) Connect(conn Conn, sessionID string) *ChatSession {
	r.mu.Lock()
	var displaced Conn
	e, ok := r.entries[sessionID]
	if ok {
		displaced = e.conn
		e.conn = conn
	} else {
		e = &entry{conn: conn, sess: New(sessionID)}
		r.entries[sessionID] = e
	}
	sess := e.sess
	r.mu.Unlock()

	if displaced != nil {
		slog.Info("displacing previous connection", "session_id", sessionID)
		_ = displaced.Close()
	}

	r.Send(sessionID, outbound("connected", map[string]any{"session_id": sessionID}))
	return sess
}

// Disconnect tears a session down: the in-flight generation is cancelled,
// the connection is closed, and transcript and memory for the id are
// discarded.
func (r *Registry) Disconnect(sessionID string) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	var conn Conn
	if ok {
		conn = e.conn
		delete(r.entries, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	e.sess.RequestInterruption()
	r.gen.ClearSession(sessionID)
	_ = conn.Close()
	slog.Info("session disconnected", "session_id", sessionID)
}

// Session returns the live session for an id, if any.
func (r *Registry) Session(sessionID string) (*ChatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	return e.sess, true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Send delivers one event to the connection registered for the id. The conn
// is captured under mu; a reconnect may swap the slot while a write is in
// flight. Delivery failure is treated as an implicit disconnect and triggers
// teardown, unless the failed connection has already been displaced.
func (r *Registry) Send(sessionID string, payload map[string]any) bool {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	var conn Conn
	if ok {
		conn = e.conn
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.writeMu.Lock()
	err := conn.WriteJSON(payload)
	e.writeMu.Unlock()
	if err != nil {
		r.mu.Lock()
		cur, still := r.entries[sessionID]
		current := still && cur.conn == conn
		r.mu.Unlock()
		if current {
			slog.Warn("event delivery failed, tearing session down", "session_id", sessionID, "error", err)
			r.Disconnect(sessionID)
		}
		return false
	}
	return true
}

// inboundMessage is the decoded shape of a client payload.
type inboundMessage struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	WebSearch  bool   `json:"web_search"`
	ResetPoint *int   `json:"reset_point"`
}

// RouteInbound dispatches one raw client payload. All failures are reported
// as error events; nothing terminates the connection loop except transport
// errors surfaced through Send.
func (r *Registry) RouteInbound(sessionID string, raw []byte) {
	sess, ok := r.Session(sessionID)
	if !ok {
		return
	}

	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		r.sendError(sessionID, fmt.Sprintf("malformed payload: %v", err))
		return
	}

	switch msg.Type {
	case "message":
		r.handleUserMessage(sess, msg)
	case "interrupt":
		active := sess.RequestInterruption()
		r.Send(sessionID, outbound("interruption_requested", map[string]any{"active_generation": active}))
	case "reset_to_message":
		r.handleReset(sess, msg.ResetPoint)
	case "clear_history":
		sess.Clear()
		r.gen.ClearSession(sessionID)
		r.Send(sessionID, outbound("history_cleared", nil))
	case "get_history":
		r.Send(sessionID, outbound("history", map[string]any{"messages": sess.History()}))
	case "get_session_info":
		info := r.gen.Info(sessionID)
		r.Send(sessionID, outbound("session_info", map[string]any{
			"session_id":           sessionID,
			"message_count":        sess.Len(),
			"is_generating":        sess.IsGenerating(),
			"has_memory":           info.HasMemory,
			"memory_message_count": info.MessageCount,
		}))
	case "ping":
		r.Send(sessionID, outbound("pong", nil))
	default:
		r.sendError(sessionID, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// handleUserMessage starts a generation turn. The generation runs in its
// own goroutine so the connection loop stays responsive to interrupts.
func (r *Registry) handleUserMessage(sess *ChatSession, msg inboundMessage) {
	sessionID := sess.ID()
	if strings.TrimSpace(msg.Content) == "" {
		r.sendError(sessionID, "message content is required")
		return
	}

	ctx, err := sess.BeginGeneration(context.Background())
	if err != nil {
		r.sendError(sessionID, "a generation is already in progress")
		return
	}

	userMsg := sess.AddMessage("user", msg.Content)
	r.Send(sessionID, outbound("message_added", map[string]any{"message": userMsg}))
	r.Send(sessionID, outbound("status", map[string]any{"state": "generating"}))

	go r.runGeneration(ctx, sess, msg.Content, msg.WebSearch)
}

// runGeneration forwards normalized events to the connection and commits
// the assistant turn on clean completion. Interrupted and failed turns
// leave the transcript without an assistant message; streamed chunks were
// transient output only.
func (r *Registry) runGeneration(ctx context.Context, sess *ChatSession, prompt string, webSearch bool) {
	sessionID := sess.ID()
	var reply strings.Builder
	failed := false

	for ev := range r.gen.StreamResearch(ctx, sessionID, prompt, webSearch) {
		switch ev.Type {
		case agent.EventChunk:
			reply.WriteString(ev.Content)
			r.Send(sessionID, outbound("chunk", map[string]any{"content": ev.Content}))
		case agent.EventToolCall:
			r.Send(sessionID, outbound("tool_call", map[string]any{"tool": ev.Tool, "arguments": ev.Arguments}))
		case agent.EventToolOutput:
			r.Send(sessionID, outbound("tool_output", map[string]any{"output": ev.Output}))
		case agent.EventAgentUpdated:
			r.Send(sessionID, outbound("agent_updated", map[string]any{"new_agent": ev.NewAgent}))
		case agent.EventMessageComplete:
			r.Send(sessionID, outbound("message_complete", nil))
		case agent.EventError:
			failed = true
			r.sendError(sessionID, ev.Content)
		}
	}

	interrupted := sess.EndGeneration()
	switch {
	case interrupted:
		r.Send(sessionID, outbound("interrupted", nil))
	case failed:
		// Error event already delivered.
	default:
		// A disconnect may land between stream end and commit; a torn-down
		// session must not get a committed turn.
		r.mu.Lock()
		cur, live := r.entries[sessionID]
		live = live && cur.sess == sess
		r.mu.Unlock()
		if !live {
			return
		}
		assistant := sess.AddMessage("assistant", reply.String())
		r.gen.AddAssistantResponse(sessionID, assistant.Content)
		r.Send(sessionID, outbound("message_added", map[string]any{"message": assistant}))
	}
}

// handleReset truncates transcript and memory to the inclusive reset point.
// The retained transcript is sent back as a history event acknowledging the
// reset.
func (r *Registry) handleReset(sess *ChatSession, resetPoint *int) {
	sessionID := sess.ID()
	if resetPoint == nil {
		r.sendError(sessionID, "reset_point is required")
		return
	}

	retained, err := sess.ResetTo(*resetPoint)
	if err != nil {
		r.sendError(sessionID, err.Error())
		return
	}

	turns := make([]memory.Entry, len(retained))
	for i, m := range retained {
		turns[i] = memory.Entry{Role: m.Role, Content: m.Content}
	}
	r.gen.ReplayMemory(sessionID, turns)

	r.Send(sessionID, outbound("history", map[string]any{"messages": retained}))
}

func (r *Registry) sendError(sessionID, message string) {
	r.Send(sessionID, outbound("error", map[string]any{"message": message}))
}

// outbound builds an event payload with the protocol timestamp.
func outbound(eventType string, fields map[string]any) map[string]any {
	payload := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["type"] = eventType
	payload["timestamp"] = float64(time.Now().UnixNano()) / float64(time.Second)
	return payload
}
