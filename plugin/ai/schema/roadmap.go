package schema

import "time"

// Priority of a roadmap item.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Status of a roadmap item.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusInReview   Status = "in_review"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// ItemType distinguishes the roadmap hierarchy levels.
type ItemType string

const (
	ItemTypeEpic    ItemType = "epic"
	ItemTypeFeature ItemType = "feature"
	ItemTypeTask    ItemType = "task"
	ItemTypeBug     ItemType = "bug"
	ItemTypeSpike   ItemType = "spike"
)

// Complexity is a t-shirt size estimate.
type Complexity string

const (
	ComplexityXS Complexity = "xs" // 1-2 hours
	ComplexityS  Complexity = "s"  // 1-2 days
	ComplexityM  Complexity = "m"  // 3-5 days
	ComplexityL  Complexity = "l"  // 1-2 weeks
	ComplexityXL Complexity = "xl" // 2+ weeks
)

// Tool is a recommended tool inside an implementation approach.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Cost        string `json:"cost"`
	Category    string `json:"category"`
}

// Approach is one way to implement a roadmap item.
type Approach struct {
	Name                  string     `json:"name"`
	Description           string     `json:"description"`
	TimeEstimate          string     `json:"time_estimate"`
	Complexity            Complexity `json:"complexity"`
	Tools                 []Tool     `json:"tools"`
	Pros                  []string   `json:"pros"`
	Cons                  []string   `json:"cons"`
	TechnicalRequirements []string   `json:"technical_requirements,omitempty"`
	RecommendedFor        string     `json:"recommended_for"`
}

// AcceptanceCriteria is a single testable completion criterion.
type AcceptanceCriteria struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Position is the item's placement on the roadmap canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RoadmapItem is one node of the epic/feature/task hierarchy.
type RoadmapItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        ItemType `json:"type"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`

	BusinessValue      string               `json:"business_value"`
	UserStory          string               `json:"user_story,omitempty"`
	AcceptanceCriteria []AcceptanceCriteria `json:"acceptance_criteria,omitempty"`

	Approaches     []Approach `json:"approaches"`
	Complexity     Complexity `json:"complexity"`
	EstimatedHours int        `json:"estimated_hours,omitempty"`
	StoryPoints    int        `json:"story_points,omitempty"`

	Dependencies []string `json:"dependencies,omitempty"`
	Blocks       []string `json:"blocks,omitempty"`
	ParentID     string   `json:"parent_id,omitempty"`
	ChildrenIDs  []string `json:"children_ids,omitempty"`
	Position     Position `json:"position"`

	Labels    []string   `json:"labels,omitempty"`
	Assignee  string     `json:"assignee,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

// Roadmap is the full generated roadmap for a project.
type Roadmap struct {
	Context ProjectContext `json:"context"`
	Items   []RoadmapItem  `json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   string    `json:"version"`
}
