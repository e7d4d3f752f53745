package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	apierrors "github.com/uniqorn/uniqorn/server/internal/errors"
	"github.com/uniqorn/uniqorn/server/internal/observability"
)

// GetChatbotHealth reports the chatbot subsystem status.
// GET /api/chatbot/health
func (s *APIV1Service) GetChatbotHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.Registry.Count(),
	})
}

// ChatbotHistoryResponse is the diagnostic view of one chat session.
type ChatbotHistoryResponse struct {
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count"`
	Generating   bool   `json:"generating"`
	Messages     any    `json:"messages"`
}

// GetChatbotHistory returns the transcript of a live session.
// GET /api/chatbot/history/:id
func (s *APIV1Service) GetChatbotHistory(c echo.Context) error {
	sessionID := c.Param("id")
	sess, ok := s.Registry.Session(sessionID)
	if !ok {
		return jsonError(c, apierrors.Newf(apierrors.ErrCodeSessionNotFound, "session %s not found", sessionID))
	}
	return c.JSON(http.StatusOK, ChatbotHistoryResponse{
		SessionID:    sessionID,
		MessageCount: sess.Len(),
		Generating:   sess.IsGenerating(),
		Messages:     sess.History(),
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// HandleChatSocket upgrades the connection and pumps inbound messages into
// the session registry until the client goes away. A missing session ID gets
// a generated one; the client learns it from the "connected" event.
// GET /ws/chatbot/:session_id
func (s *APIV1Service) HandleChatSocket(c echo.Context) error {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		sessionID = shortuuid.New()
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "websocket upgrade failed"))
	}

	logger := observability.NewRequestContext(slog.Default(), "chatbot", sessionID)
	logger.Info("chat session connected")
	s.Metrics.SessionOpened()
	defer func() {
		s.Registry.Disconnect(sessionID)
		s.Metrics.SessionClosed()
		logger.Info("chat session closed",
			slog.Int64(observability.LogFieldDuration, logger.DurationMs()))
	}()

	s.Registry.Connect(conn, sessionID)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("chat socket read failed", slog.String("error", err.Error()))
			}
			return nil
		}
		if messageType != websocket.TextMessage {
			continue
		}
		s.recordInbound(data)
		s.Registry.RouteInbound(sessionID, data)
	}
}

// recordInbound counts generation starts and interruption requests. Payload
// validation stays with the registry.
func (s *APIV1Service) recordInbound(data []byte) {
	var frame struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}
	switch frame.Type {
	case "message":
		s.Metrics.RecordGeneration("chatbot")
	case "interrupt":
		s.Metrics.RecordInterruption()
	}
}
