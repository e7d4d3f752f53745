package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniqorn/uniqorn/internal/profile"
	"github.com/uniqorn/uniqorn/plugin/ai/agent"
	"github.com/uniqorn/uniqorn/plugin/ai/memory"
	"github.com/uniqorn/uniqorn/plugin/ai/schema"
	"github.com/uniqorn/uniqorn/plugin/ai/session"
	"github.com/uniqorn/uniqorn/server/internal/observability"
)

type fakeContextAgent struct {
	pc  *schema.ProjectContext
	err error
}

func (f *fakeContextAgent) GenerateProjectContext(_ context.Context, _ []schema.ChatMessage) (*schema.ProjectContext, error) {
	return f.pc, f.err
}

type fakeLandscapeAgent struct {
	report *schema.MarketResearchReport
	err    error
}

func (f *fakeLandscapeAgent) GenerateReport(_ context.Context, _ *schema.ProjectContext) (*schema.MarketResearchReport, error) {
	return f.report, f.err
}

type fakeRoadmapAgent struct {
	roadmap *schema.Roadmap
	err     error
}

func (f *fakeRoadmapAgent) GenerateRoadmap(_ context.Context, _ *schema.ProjectContext) (*schema.Roadmap, error) {
	return f.roadmap, f.err
}

type fakeGen struct{}

func (fakeGen) StreamResearch(context.Context, string, string, bool) <-chan agent.Event {
	ch := make(chan agent.Event)
	close(ch)
	return ch
}
func (fakeGen) AddAssistantResponse(string, string) {}
func (fakeGen) ClearSession(string)                 {}
func (fakeGen) ReplayMemory(string, []memory.Entry) {}
func (fakeGen) Info(string) agent.SessionInfo       { return agent.SessionInfo{} }

type fakeConn struct{}

func (fakeConn) WriteJSON(any) error { return nil }
func (fakeConn) Close() error        { return nil }

func newTestService() *APIV1Service {
	return &APIV1Service{
		Profile: &profile.Profile{Version: "test"},
		Context: &fakeContextAgent{pc: &schema.ProjectContext{Name: "Uniqorn"}},
		Landscape: &fakeLandscapeAgent{report: &schema.MarketResearchReport{
			CompetitiveCompanies: []schema.Card{{Company: "Acme"}},
		}},
		Roadmap:  &fakeRoadmapAgent{roadmap: &schema.Roadmap{Version: "1.0"}},
		Registry: session.NewRegistry(fakeGen{}),
		Metrics:  observability.NewMetrics(10),
	}
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

func TestGetHealth(t *testing.T) {
	rec := doJSON(t, newTestService().GetHealth, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestPostContext(t *testing.T) {
	t.Run("generates project context", func(t *testing.T) {
		body := `{"chat_history":[{"role":"user","content":"an app for language learning"}]}`
		rec := doJSON(t, newTestService().PostContext, http.MethodPost, "/api/context", body)

		assert.Equal(t, http.StatusOK, rec.Code)
		var pc schema.ProjectContext
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pc))
		assert.Equal(t, "Uniqorn", pc.Name)
	})

	t.Run("rejects empty history", func(t *testing.T) {
		rec := doJSON(t, newTestService().PostContext, http.MethodPost, "/api/context", `{"chat_history":[]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_ARGUMENT", string(resp.Code))
	})

	t.Run("reports agent failure", func(t *testing.T) {
		svc := newTestService()
		svc.Context = &fakeContextAgent{err: assert.AnError}

		body := `{"chat_history":[{"role":"user","content":"hi"}]}`
		rec := doJSON(t, svc.PostContext, http.MethodPost, "/api/context", body)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "AGENT_EXECUTION_FAILED", string(resp.Code))
	})
}

func TestPostLandscape(t *testing.T) {
	t.Run("returns report", func(t *testing.T) {
		rec := doJSON(t, newTestService().PostLandscape, http.MethodPost, "/api/landscape", `{"name":"Uniqorn"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		var report schema.MarketResearchReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		require.Len(t, report.CompetitiveCompanies, 1)
		assert.Equal(t, "Acme", report.CompetitiveCompanies[0].Company)
	})

	t.Run("requires project name", func(t *testing.T) {
		rec := doJSON(t, newTestService().PostLandscape, http.MethodPost, "/api/landscape", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPostRoadmap(t *testing.T) {
	t.Run("returns roadmap", func(t *testing.T) {
		rec := doJSON(t, newTestService().PostRoadmap, http.MethodPost, "/api/roadmap", `{"name":"Uniqorn"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		var roadmap schema.Roadmap
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roadmap))
		assert.Equal(t, "1.0", roadmap.Version)
	})

	t.Run("reports agent failure", func(t *testing.T) {
		svc := newTestService()
		svc.Roadmap = &fakeRoadmapAgent{err: assert.AnError}

		rec := doJSON(t, svc.PostRoadmap, http.MethodPost, "/api/roadmap", `{"name":"Uniqorn"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetSystemMetrics(t *testing.T) {
	svc := newTestService()
	svc.Metrics.RecordGeneration("context")

	rec := doJSON(t, svc.GetSystemMetrics, http.MethodGet, "/api/system/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var snap observability.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.EqualValues(t, 1, snap.GenerationTotal)
	assert.EqualValues(t, 1, snap.Agents["context"].Executions)
}

func TestGetChatbotHealth(t *testing.T) {
	svc := newTestService()
	svc.Registry.Connect(fakeConn{}, "abc")

	rec := doJSON(t, svc.GetChatbotHealth, http.MethodGet, "/api/chatbot/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["active_sessions"])
}

func TestGetChatbotHistory(t *testing.T) {
	t.Run("unknown session", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("missing")

		require.NoError(t, newTestService().GetChatbotHistory(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("live session transcript", func(t *testing.T) {
		svc := newTestService()
		sess := svc.Registry.Connect(fakeConn{}, "abc")
		sess.AddMessage("user", "hello")

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("abc")

		require.NoError(t, svc.GetChatbotHistory(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp ChatbotHistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "abc", resp.SessionID)
		assert.Equal(t, 1, resp.MessageCount)
		assert.False(t, resp.Generating)
	})
}
