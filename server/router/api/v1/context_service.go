package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/uniqorn/uniqorn/plugin/ai/schema"
	apierrors "github.com/uniqorn/uniqorn/server/internal/errors"
	"github.com/uniqorn/uniqorn/server/internal/observability"
)

// ContextRequest is the body of POST /api/context.
type ContextRequest struct {
	ChatHistory []schema.ChatMessage `json:"chat_history"`
}

// PostContext extracts a structured project context from a chat transcript.
// POST /api/context
func (s *APIV1Service) PostContext(c echo.Context) error {
	var req ContextRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "invalid request body"))
	}
	if len(req.ChatHistory) == 0 {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "chat_history is required"))
	}

	logger := observability.NewRequestContext(slog.Default(), "context", "")
	logger.Info("context generation started",
		slog.Int("history_count", len(req.ChatHistory)))
	s.Metrics.RecordGeneration("context")

	start := time.Now()
	pc, err := s.Context.GenerateProjectContext(c.Request().Context(), req.ChatHistory)
	if err != nil {
		s.Metrics.RecordFailure("context")
		logger.Error("context generation failed", err)
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeAgentExecutionFailed, "context generation failed"))
	}
	s.Metrics.RecordDuration("context", time.Since(start))

	logger.Info("context generation completed",
		slog.Int64(observability.LogFieldDuration, logger.DurationMs()))
	return c.JSON(http.StatusOK, pc)
}
