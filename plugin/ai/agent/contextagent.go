package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/uniqorn/uniqorn/plugin/ai"
	"github.com/uniqorn/uniqorn/plugin/ai/prompt"
	"github.com/uniqorn/uniqorn/plugin/ai/schema"
)

// ContextAgent turns a founder's chat conversation into a structured
// project context.
type ContextAgent struct {
	llm ai.LLMService
}

// NewContextAgent creates a context agent over the given provider.
func NewContextAgent(llm ai.LLMService) *ContextAgent {
	return &ContextAgent{llm: llm}
}

// GenerateProjectContext extracts a project context from the chat history.
// When the model reply cannot be parsed the call is retried once; a second
// failure yields a conservative default context rather than an error so the
// downstream agents always have something to work with.
func (a *ContextAgent) GenerateProjectContext(ctx context.Context, history []schema.ChatMessage) (*schema.ProjectContext, error) {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat history: %w", err)
	}

	system, err := prompt.Load("context.yaml", "system_prompt", nil)
	if err != nil {
		return nil, err
	}
	user, err := prompt.Load("context.yaml", "generate_context", map[string]string{
		"chat_history": string(historyJSON),
	})
	if err != nil {
		return nil, err
	}

	messages := []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	for attempt := 0; attempt < 2; attempt++ {
		reply, err := a.llm.Chat(ctx, messages, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate project context: %w", err)
		}
		var pc schema.ProjectContext
		if err := ai.ParseJSONResponse(reply, &pc); err != nil {
			slog.Warn("unparseable project context reply", "attempt", attempt+1, "error", err)
			continue
		}
		return &pc, nil
	}

	slog.Warn("falling back to default project context")
	return defaultProjectContext(), nil
}

func defaultProjectContext() *schema.ProjectContext {
	return &schema.ProjectContext{
		Name:           "Default Project",
		Description:    "Default project description",
		TargetAudience: "General users",
		BusinessGoals:  []string{"Default goal"},
		SuccessMetrics: []string{"Default metric"},
		Budget:         "Not specified",
		Timeline:       "Not specified",
		TeamSize:       "1-2 people",
		TechnicalLevel: "Beginner",
		ProjectType:    "MVP",
	}
}
