// Package server wires the agents, research clients and HTTP routes into a
// runnable Echo server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/uniqorn/uniqorn/internal/profile"
	"github.com/uniqorn/uniqorn/plugin/ai"
	"github.com/uniqorn/uniqorn/plugin/ai/agent"
	"github.com/uniqorn/uniqorn/plugin/ai/memory"
	"github.com/uniqorn/uniqorn/plugin/ai/session"
	"github.com/uniqorn/uniqorn/plugin/research"
	apiv1 "github.com/uniqorn/uniqorn/server/router/api/v1"
)

// Server is the HTTP server hosting the research API.
type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
	apiV1      *apiv1.APIV1Service
}

// NewServer assembles the full service graph from the profile.
func NewServer(p *profile.Profile) (*Server, error) {
	provider, err := ai.NewProvider(&ai.Config{
		BaseURL:     p.OpenAIBaseURL,
		APIKey:      p.OpenAIAPIKey,
		ChatModel:   p.ChatModel,
		MiniModel:   p.MiniModel,
		MaxTokens:   p.MaxTokens,
		Temperature: float32(p.Temperature),
		Timeout:     p.LLMTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create llm provider")
	}

	tools := agent.NewResearchRegistry(researchClients(p))
	mem := memory.NewService(p.MemoryMaxTokens)
	chatbot := agent.NewChatbot(provider, mem, tools)
	registry := session.NewRegistry(chatbot)

	apiV1 := apiv1.NewAPIV1Service(
		p,
		agent.NewContextAgent(provider),
		agent.NewLandscapeAgent(provider),
		agent.NewRoadmapAgent(provider),
		registry,
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			slog.Info("http request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	}))

	apiV1.RegisterRoutes(e)

	return &Server{
		Profile:    p,
		echoServer: e,
		apiV1:      apiV1,
	}, nil
}

// researchClients builds the tool clients the profile has credentials for.
// A missing credential simply leaves that tool out of the registry.
func researchClients(p *profile.Profile) agent.ResearchClients {
	clients := agent.ResearchClients{
		Trends: research.NewTrendsClient(""),
	}
	if p.NewsAPIKey != "" {
		clients.News = research.NewNewsClient(p.NewsAPIKey, "")
	}
	if p.ProductHuntToken != "" {
		clients.Product = research.NewProductHuntClient(p.ProductHuntToken, "")
	}
	if p.RedditClientID != "" && p.RedditClientSecret != "" {
		clients.Reddit = research.NewRedditClient(research.RedditConfig{
			ClientID:     p.RedditClientID,
			ClientSecret: p.RedditClientSecret,
			UserAgent:    p.RedditUserAgent,
		})
	}
	if p.FirecrawlAPIKey != "" {
		clients.Web = research.NewFirecrawlClient(p.FirecrawlAPIKey, "")
	}
	if p.BrightDataAPIKey != "" {
		clients.Company = research.NewPitchBookClient(p.BrightDataAPIKey, "")
	}
	return clients
}

// Start runs the server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started",
		slog.String("address", address),
		slog.String("mode", s.Profile.Mode),
		slog.String("version", s.Profile.Version))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echoServer.Start(address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
