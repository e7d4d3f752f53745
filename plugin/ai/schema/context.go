// Package schema defines the structured research artifacts exchanged between
// the agents and the REST API: project contexts, competitive-landscape
// reports, and product roadmaps.
package schema

// Company describes a company referenced in a project context.
type Company struct {
	Name        string   `json:"name"`
	Positioning string   `json:"positioning"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
}

// KeyFeature is a prioritized product feature. Priority is 1 (lowest) to 5.
type KeyFeature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// Differentiator is a prioritized point of differentiation.
type Differentiator struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// GoToMarket captures launch channels and plan.
type GoToMarket struct {
	Channels   []string `json:"channels"`
	LaunchPlan []string `json:"launch_plan"`
}

// BusinessModel captures how the product makes money.
type BusinessModel struct {
	ValueProposition string `json:"value_proposition"`
	RevenueStream    string `json:"revenue_stream"`
	PricingStrategy  string `json:"pricing_strategy"`
}

// ProjectContext is the structured description of a startup project that the
// landscape and roadmap agents consume.
type ProjectContext struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	TargetAudience string   `json:"target_audience"`
	BusinessGoals  []string `json:"business_goals"`
	SuccessMetrics []string `json:"success_metrics"`

	// Resource constraints
	Budget         string `json:"budget"`
	Timeline       string `json:"timeline"`
	TeamSize       string `json:"team_size"`
	TechnicalLevel string `json:"technical_level"`

	// Project metadata
	Industry    string `json:"industry,omitempty"`
	ProjectType string `json:"project_type"`

	UserPitch             string           `json:"user_pitch,omitempty"`
	ParallelCompanies     []Company        `json:"parallel_companies,omitempty"`
	CompetitiveCompanies  []Company        `json:"competitive_companies,omitempty"`
	KeyFeatures           []KeyFeature     `json:"key_features,omitempty"`
	StandardFeatures      []string         `json:"standard_features,omitempty"`
	Differentiators       []Differentiator `json:"differentiators,omitempty"`
	DevelopmentIdeas      []string         `json:"development_ideas,omitempty"`
	TechnicalRequirements []string         `json:"technical_requirements,omitempty"`
	Problems              []string         `json:"problems,omitempty"`
	Solutions             []string         `json:"solutions,omitempty"`
	NeedForSolutions      []string         `json:"need_for_solutions,omitempty"`
	RetentionStrategies   []string         `json:"retention_strategies,omitempty"`
	GoToMarket            *GoToMarket      `json:"go_to_market,omitempty"`
	BusinessModel         *BusinessModel   `json:"business_model,omitempty"`
}

// ChatMessage is one turn of chat history submitted to the context endpoint.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
