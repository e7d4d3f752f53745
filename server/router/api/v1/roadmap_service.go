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

// PostRoadmap generates a full epic/feature/task roadmap for a project.
// POST /api/roadmap
func (s *APIV1Service) PostRoadmap(c echo.Context) error {
	var pc schema.ProjectContext
	if err := c.Bind(&pc); err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "invalid request body"))
	}
	if pc.Name == "" {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "project name is required"))
	}

	logger := observability.NewRequestContext(slog.Default(), "roadmap", "")
	logger.Info("roadmap generation started", slog.String("project", pc.Name))
	s.Metrics.RecordGeneration("roadmap")

	start := time.Now()
	roadmap, err := s.Roadmap.GenerateRoadmap(c.Request().Context(), &pc)
	if err != nil {
		s.Metrics.RecordFailure("roadmap")
		logger.Error("roadmap generation failed", err)
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeAgentExecutionFailed, "roadmap generation failed"))
	}
	s.Metrics.RecordDuration("roadmap", time.Since(start))

	logger.Info("roadmap generation completed",
		slog.Int64(observability.LogFieldDuration, logger.DurationMs()),
		slog.Int("items", len(roadmap.Items)))
	return c.JSON(http.StatusOK, roadmap)
}
