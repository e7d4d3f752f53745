// Package v1 exposes the REST surface of the research backend: project
// context extraction, competitive landscape reports, roadmap generation,
// and chatbot session diagnostics.
package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/uniqorn/uniqorn/internal/profile"
	"github.com/uniqorn/uniqorn/plugin/ai/agent"
	"github.com/uniqorn/uniqorn/plugin/ai/schema"
	"github.com/uniqorn/uniqorn/plugin/ai/session"
	apierrors "github.com/uniqorn/uniqorn/server/internal/errors"
	"github.com/uniqorn/uniqorn/server/internal/observability"
	"github.com/uniqorn/uniqorn/server/middleware"
)

// ContextGenerator produces a project context from a chat history.
type ContextGenerator interface {
	GenerateProjectContext(ctx context.Context, history []schema.ChatMessage) (*schema.ProjectContext, error)
}

// LandscapeGenerator produces a market research report for a project.
type LandscapeGenerator interface {
	GenerateReport(ctx context.Context, pc *schema.ProjectContext) (*schema.MarketResearchReport, error)
}

// RoadmapGenerator produces a full roadmap for a project.
type RoadmapGenerator interface {
	GenerateRoadmap(ctx context.Context, pc *schema.ProjectContext) (*schema.Roadmap, error)
}

var (
	_ ContextGenerator   = (*agent.ContextAgent)(nil)
	_ LandscapeGenerator = (*agent.LandscapeAgent)(nil)
	_ RoadmapGenerator   = (*agent.RoadmapAgent)(nil)
)

// Per-client request budget for the /api group.
const (
	apiRequestsPerSecond = 10
	apiRequestBurst      = 20
)

// APIV1Service bundles the agents and session registry behind the HTTP API.
type APIV1Service struct {
	Profile   *profile.Profile
	Context   ContextGenerator
	Landscape LandscapeGenerator
	Roadmap   RoadmapGenerator
	Registry  *session.Registry
	Metrics   *observability.Metrics

	limiter *middleware.RateLimiter
}

// NewAPIV1Service creates the API service.
func NewAPIV1Service(p *profile.Profile, contextAgent ContextGenerator, landscape LandscapeGenerator, roadmap RoadmapGenerator, registry *session.Registry) *APIV1Service {
	return &APIV1Service{
		Profile:   p,
		Context:   contextAgent,
		Landscape: landscape,
		Roadmap:   roadmap,
		Registry:  registry,
		Metrics:   observability.GlobalMetrics(),
		limiter:   middleware.NewRateLimiter(apiRequestsPerSecond, apiRequestBurst),
	}
}

// RegisterRoutes attaches all v1 routes to the Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.GetHealth)

	api := e.Group("/api")
	api.Use(echomw.CORS())
	api.Use(middleware.RateLimitByIP(s.limiter))

	api.POST("/context", s.PostContext)
	api.POST("/landscape", s.PostLandscape)
	api.POST("/roadmap", s.PostRoadmap)

	api.GET("/system/metrics", s.GetSystemMetrics)
	api.GET("/chatbot/health", s.GetChatbotHealth)
	api.GET("/chatbot/history/:id", s.GetChatbotHistory)

	e.GET("/ws/chatbot/:session_id", s.HandleChatSocket)
}

// GetHealth returns the process liveness probe.
// GET /healthz
func (s *APIV1Service) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}

// errorResponse is the JSON error envelope for REST endpoints.
type errorResponse struct {
	Code  apierrors.ErrorCode `json:"code"`
	Error string              `json:"error"`
}

func jsonError(c echo.Context, err error) error {
	code := apierrors.CodeOf(err)
	slog.Warn("request failed",
		observability.LogFieldErrorCode, string(code),
		"path", c.Path(),
		"error", err)
	return c.JSON(apierrors.HTTPStatus(code), errorResponse{Code: code, Error: err.Error()})
}
