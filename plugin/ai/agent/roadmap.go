package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/uniqorn/uniqorn/plugin/ai"
	"github.com/uniqorn/uniqorn/plugin/ai/prompt"
	"github.com/uniqorn/uniqorn/plugin/ai/schema"
)

// Canvas spacing between sibling items and between item groups.
const (
	itemSpacingX  = 235.0
	groupSpacingY = 300.0
)

// maxConcurrentExpansions bounds parallel feature/task generations.
const maxConcurrentExpansions = 3

// roadmapVersion marks the generator revision stored on produced roadmaps.
const roadmapVersion = "1.0"

// RoadmapAgent generates the epic/feature/task hierarchy for a project.
type RoadmapAgent struct {
	llm ai.LLMService
}

// NewRoadmapAgent creates a roadmap agent over the given provider.
func NewRoadmapAgent(llm ai.LLMService) *RoadmapAgent {
	return &RoadmapAgent{llm: llm}
}

// GenerateEpics produces the top-level epics for a project.
func (a *RoadmapAgent) GenerateEpics(ctx context.Context, pc *schema.ProjectContext) ([]schema.RoadmapItem, error) {
	pcJSON, err := json.Marshal(pc)
	if err != nil {
		return nil, err
	}
	return a.generateItems(ctx, "generate_epics", map[string]string{
		"project_context": string(pcJSON),
	}, schema.ItemTypeEpic, "")
}

// GenerateFeatures produces the features of one epic.
func (a *RoadmapAgent) GenerateFeatures(ctx context.Context, epic schema.RoadmapItem, pc *schema.ProjectContext) ([]schema.RoadmapItem, error) {
	epicJSON, err := json.Marshal(epic)
	if err != nil {
		return nil, err
	}
	pcJSON, err := json.Marshal(pc)
	if err != nil {
		return nil, err
	}
	return a.generateItems(ctx, "generate_features", map[string]string{
		"epic":            string(epicJSON),
		"project_context": string(pcJSON),
	}, schema.ItemTypeFeature, epic.ID)
}

// GenerateTasks produces the engineering tasks of one feature.
func (a *RoadmapAgent) GenerateTasks(ctx context.Context, feature schema.RoadmapItem) ([]schema.RoadmapItem, error) {
	featureJSON, err := json.Marshal(feature)
	if err != nil {
		return nil, err
	}
	return a.generateItems(ctx, "generate_tasks", map[string]string{
		"feature": string(featureJSON),
	}, schema.ItemTypeTask, feature.ID)
}

// GenerateRoadmap builds the complete hierarchy: epics first, then the
// features of every epic, then the tasks of every feature. Expansion of
// separate branches runs concurrently; a failed branch fails the roadmap.
func (a *RoadmapAgent) GenerateRoadmap(ctx context.Context, pc *schema.ProjectContext) (*schema.Roadmap, error) {
	epics, err := a.GenerateEpics(ctx, pc)
	if err != nil {
		return nil, err
	}
	if len(epics) == 0 {
		return nil, fmt.Errorf("roadmap generation produced no epics")
	}

	var mu sync.Mutex
	featuresByEpic := make(map[string][]schema.RoadmapItem, len(epics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExpansions)
	for i := range epics {
		epic := epics[i]
		g.Go(func() error {
			features, err := a.GenerateFeatures(gctx, epic, pc)
			if err != nil {
				return err
			}
			mu.Lock()
			featuresByEpic[epic.ID] = features
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tasksByFeature := make(map[string][]schema.RoadmapItem)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExpansions)
	for _, features := range featuresByEpic {
		for i := range features {
			feature := features[i]
			g.Go(func() error {
				tasks, err := a.GenerateTasks(gctx, feature)
				if err != nil {
					return err
				}
				mu.Lock()
				tasksByFeature[feature.ID] = tasks
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now()
	var items []schema.RoadmapItem
	for i := range epics {
		epic := &epics[i]
		features := featuresByEpic[epic.ID]
		for j := range features {
			feature := &features[j]
			epic.ChildrenIDs = append(epic.ChildrenIDs, feature.ID)
			for _, task := range tasksByFeature[feature.ID] {
				feature.ChildrenIDs = append(feature.ChildrenIDs, task.ID)
			}
		}
	}
	for i := range epics {
		items = append(items, epics[i])
		for _, feature := range featuresByEpic[epics[i].ID] {
			items = append(items, feature)
			items = append(items, tasksByFeature[feature.ID]...)
		}
	}

	return &schema.Roadmap{
		Context:   *pc,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   roadmapVersion,
	}, nil
}

// generateItems runs one roadmap prompt and lays the returned item groups
// out on the canvas: siblings advance on the x axis, groups on the y axis.
func (a *RoadmapAgent) generateItems(ctx context.Context, promptName string, vars map[string]string, itemType schema.ItemType, parentID string) ([]schema.RoadmapItem, error) {
	system, err := prompt.Load("roadmap.yaml", "system_prompt", nil)
	if err != nil {
		return nil, err
	}
	user, err := prompt.Load("roadmap.yaml", promptName, vars)
	if err != nil {
		return nil, err
	}

	reply, err := a.llm.Chat(ctx, []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("roadmap generation failed: %w", err)
	}

	var groups [][]schema.RoadmapItem
	if err := ai.ParseJSONResponse(reply, &groups); err != nil {
		return nil, fmt.Errorf("unparseable roadmap items: %w", err)
	}

	now := time.Now()
	var items []schema.RoadmapItem
	y := 0.0
	for _, group := range groups {
		x := 0.0
		for i := range group {
			item := group[i]
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			if item.Type == "" {
				item.Type = itemType
			}
			if item.Status == "" {
				item.Status = schema.StatusBacklog
			}
			item.ParentID = parentID
			item.Position = schema.Position{X: x, Y: y}
			item.CreatedAt = now
			item.UpdatedAt = now
			items = append(items, item)
			x += itemSpacingX
		}
		y += groupSpacingY
	}
	if len(items) == 0 {
		slog.Debug("roadmap prompt produced no items", "prompt", promptName)
	}
	return items, nil
}
