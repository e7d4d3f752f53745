package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniqorn/uniqorn/plugin/ai"
	"github.com/uniqorn/uniqorn/plugin/ai/schema"
)

const contextReply = "```json\n" + `{
	"name": "CodeTutor",
	"description": "Learn to code with an AI tutor",
	"target_audience": "Beginners",
	"business_goals": ["Reach 1k users"],
	"success_metrics": ["Weekly retention"],
	"budget": "10k USD",
	"timeline": "3 months",
	"team_size": "2",
	"technical_level": "Intermediate",
	"project_type": "MVP",
	"competitive_companies": [{"name": "Codecademy", "positioning": "incumbent", "strengths": [], "weaknesses": []}]
}` + "\n```"

func TestContextAgentGeneratesContext(t *testing.T) {
	llm := &fakeLLM{chatFn: func(_ int, messages []ai.Message) (string, error) {
		require.Len(t, messages, 2)
		assert.Contains(t, messages[1].Content, "coding tutor")
		return contextReply, nil
	}}

	agent := NewContextAgent(llm)
	pc, err := agent.GenerateProjectContext(context.Background(), []schema.ChatMessage{
		{Role: "user", Content: "I want to build a coding tutor"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CodeTutor", pc.Name)
	assert.Equal(t, "Beginners", pc.TargetAudience)
	require.Len(t, pc.CompetitiveCompanies, 1)
	assert.Equal(t, "Codecademy", pc.CompetitiveCompanies[0].Name)
}

func TestContextAgentRetriesThenDefaults(t *testing.T) {
	llm := &fakeLLM{chatFn: func(_ int, _ []ai.Message) (string, error) {
		return "sorry, no JSON here", nil
	}}

	agent := NewContextAgent(llm)
	pc, err := agent.GenerateProjectContext(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Default Project", pc.Name)
	assert.Equal(t, 2, llm.chats)
}

func TestContextAgentPropagatesProviderError(t *testing.T) {
	llm := &fakeLLM{chatFn: func(_ int, _ []ai.Message) (string, error) {
		return "", fmt.Errorf("provider down")
	}}

	_, err := NewContextAgent(llm).GenerateProjectContext(context.Background(), nil)
	require.Error(t, err)
}

const marketReply = `{
	"growth_chart": {"points": [{"date": "2026-01", "market_value": 120}], "cagr": 12.5, "market_info": "edtech", "currency": "USD", "interval": "monthly", "source": "test"},
	"opportunities": [{"title": "Mobile-first learners", "description": "underserved"}],
	"challenges": [{"title": "Churn", "description": "high"}],
	"investment_trends": [{"year": 2026, "total_investment": 300}],
	"executive_summary": {"overview": "Growing market", "key_findings": ["demand up"]}
}`

func cardReply(name string) string {
	return fmt.Sprintf(`{"company": %q, "industry": "edtech", "description": "d", "public_company": false, "target_audiences": [], "market_dominance": "niche", "founded": "2019-01-01", "how_to_differentiate": [], "reviews": [], "news": [], "competitive_product": {"user_stories": [], "differentiators": []}}`, name)
}

func landscapeContext() *schema.ProjectContext {
	return &schema.ProjectContext{
		Name:                 "CodeTutor",
		ParallelCompanies:    []schema.Company{{Name: "Duolingo"}},
		CompetitiveCompanies: []schema.Company{{Name: "Codecademy"}, {Name: "Sololearn"}},
	}
}

func TestLandscapeAgentGenerateReport(t *testing.T) {
	llm := &fakeLLM{chatFn: func(_ int, messages []ai.Message) (string, error) {
		user := messages[1].Content
		switch {
		case strings.Contains(user, "market research"):
			return marketReply, nil
		case strings.Contains(user, "Duolingo"):
			return cardReply("Duolingo"), nil
		case strings.Contains(user, "Codecademy"):
			return cardReply("Codecademy"), nil
		default:
			// One competitor fails; the report still assembles.
			return "", fmt.Errorf("research blocked")
		}
	}}

	report, err := NewLandscapeAgent(llm).GenerateReport(context.Background(), landscapeContext())
	require.NoError(t, err)
	assert.InDelta(t, 12.5, report.GrowthChart.CAGR, 1e-9)
	require.Len(t, report.ParallelCompanies, 1)
	assert.Equal(t, "Duolingo", report.ParallelCompanies[0].Company)
	require.Len(t, report.CompetitiveCompanies, 1)
	assert.Equal(t, "Codecademy", report.CompetitiveCompanies[0].Company)
}

func TestLandscapeAgentMarketFailureFailsReport(t *testing.T) {
	llm := &fakeLLM{chatFn: func(_ int, messages []ai.Message) (string, error) {
		if strings.Contains(messages[1].Content, "market research") {
			return "", fmt.Errorf("provider down")
		}
		return cardReply("Any"), nil
	}}

	_, err := NewLandscapeAgent(llm).GenerateReport(context.Background(), landscapeContext())
	require.Error(t, err)
}

func TestLandscapeAgentCardDefaultsCompanyName(t *testing.T) {
	llm := &fakeLLM{chatFn: func(_ int, _ []ai.Message) (string, error) {
		return cardReply(""), nil
	}}

	card, err := NewLandscapeAgent(llm).GenerateCard(context.Background(), schema.Company{Name: "Kahoot"}, CardCompetitive, &schema.ProjectContext{})
	require.NoError(t, err)
	assert.Equal(t, "Kahoot", card.Company)
}

func roadmapReply(prefix string, groups [][]string) string {
	var sb strings.Builder
	sb.WriteString("[")
	for gi, group := range groups {
		if gi > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("[")
		for ii, title := range group {
			if ii > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"id": "%s-%d-%d", "title": %q, "description": "d", "priority": "high", "business_value": "v", "complexity": "m", "approaches": []}`, prefix, gi, ii, title)
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

func TestRoadmapAgentGenerateEpicsLaysOutCanvas(t *testing.T) {
	llm := &fakeLLM{chatFn: func(_ int, _ []ai.Message) (string, error) {
		return roadmapReply("epic", [][]string{{"Auth", "Billing"}, {"Content"}}), nil
	}}

	epics, err := NewRoadmapAgent(llm).GenerateEpics(context.Background(), &schema.ProjectContext{Name: "CodeTutor"})
	require.NoError(t, err)
	require.Len(t, epics, 3)

	assert.Equal(t, schema.Position{X: 0, Y: 0}, epics[0].Position)
	assert.Equal(t, schema.Position{X: 235, Y: 0}, epics[1].Position)
	assert.Equal(t, schema.Position{X: 0, Y: 300}, epics[2].Position)

	for _, epic := range epics {
		assert.Equal(t, schema.ItemTypeEpic, epic.Type)
		assert.Equal(t, schema.StatusBacklog, epic.Status)
		assert.Empty(t, epic.ParentID)
		assert.False(t, epic.CreatedAt.IsZero())
	}
}

func TestRoadmapAgentGenerateRoadmapHierarchy(t *testing.T) {
	llm := &fakeLLM{chatFn: func(calls int, messages []ai.Message) (string, error) {
		user := messages[1].Content
		switch {
		case strings.Contains(user, "Generate the epics"):
			return roadmapReply("epic", [][]string{{"Core"}}), nil
		case strings.Contains(user, "Generate the features"):
			return roadmapReply("feat", [][]string{{"Login", "Lessons"}}), nil
		default:
			return roadmapReply(fmt.Sprintf("task%d", calls), [][]string{{"Implement"}}), nil
		}
	}}

	roadmap, err := NewRoadmapAgent(llm).GenerateRoadmap(context.Background(), &schema.ProjectContext{Name: "CodeTutor"})
	require.NoError(t, err)
	assert.Equal(t, "CodeTutor", roadmap.Context.Name)
	assert.Equal(t, roadmapVersion, roadmap.Version)

	// 1 epic + 2 features + 1 task per feature.
	require.Len(t, roadmap.Items, 5)

	epic := roadmap.Items[0]
	assert.Equal(t, schema.ItemTypeEpic, epic.Type)
	require.Len(t, epic.ChildrenIDs, 2)

	byID := make(map[string]schema.RoadmapItem, len(roadmap.Items))
	for _, item := range roadmap.Items {
		byID[item.ID] = item
	}
	for _, featureID := range epic.ChildrenIDs {
		feature := byID[featureID]
		assert.Equal(t, schema.ItemTypeFeature, feature.Type)
		assert.Equal(t, epic.ID, feature.ParentID)
		require.Len(t, feature.ChildrenIDs, 1)
		task := byID[feature.ChildrenIDs[0]]
		assert.Equal(t, schema.ItemTypeTask, task.Type)
		assert.Equal(t, feature.ID, task.ParentID)
	}
}

func TestRoadmapAgentNoEpicsIsAnError(t *testing.T) {
	llm := &fakeLLM{chatFn: func(_ int, _ []ai.Message) (string, error) {
		return "[]", nil
	}}

	_, err := NewRoadmapAgent(llm).GenerateRoadmap(context.Background(), &schema.ProjectContext{})
	require.Error(t, err)
}
