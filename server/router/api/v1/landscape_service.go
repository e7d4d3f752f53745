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

// PostLandscape researches the competitive landscape for a project and
// returns the assembled market report.
// POST /api/landscape
func (s *APIV1Service) PostLandscape(c echo.Context) error {
	var pc schema.ProjectContext
	if err := c.Bind(&pc); err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "invalid request body"))
	}
	if pc.Name == "" {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "project name is required"))
	}

	logger := observability.NewRequestContext(slog.Default(), "landscape", "")
	logger.Info("landscape report started",
		slog.String("project", pc.Name),
		slog.Int("competitive_companies", len(pc.CompetitiveCompanies)),
		slog.Int("parallel_companies", len(pc.ParallelCompanies)))
	s.Metrics.RecordGeneration("landscape")

	start := time.Now()
	report, err := s.Landscape.GenerateReport(c.Request().Context(), &pc)
	if err != nil {
		s.Metrics.RecordFailure("landscape")
		logger.Error("landscape report failed", err)
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeAgentExecutionFailed, "landscape report failed"))
	}
	s.Metrics.RecordDuration("landscape", time.Since(start))

	logger.Info("landscape report completed",
		slog.Int64(observability.LogFieldDuration, logger.DurationMs()),
		slog.Int("cards", len(report.CompetitiveCompanies)+len(report.ParallelCompanies)))
	return c.JSON(http.StatusOK, report)
}
