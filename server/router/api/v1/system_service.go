package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetSystemMetrics returns the in-process generation counters.
// GET /api/system/metrics
func (s *APIV1Service) GetSystemMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Metrics.Snapshot())
}
