package schema

// DateValue is one point of a market growth chart, market value in millions USD.
type DateValue struct {
	Date        string  `json:"date"`
	MarketValue float64 `json:"market_value"`
}

// GrowthChart charts market size over time.
type GrowthChart struct {
	Points         []DateValue `json:"points"`
	CAGR           float64     `json:"cagr"`
	MarketInfo     string      `json:"market_info"`
	Currency       string      `json:"currency"`
	Interval       string      `json:"interval"`
	Source         string      `json:"source"`
	MarketDrivers  []string    `json:"market_drivers,omitempty"`
	MarketBarriers []string    `json:"market_barriers,omitempty"`
}

// Action is a start/finish pair inside a user story.
type Action struct {
	Start  string `json:"start"`
	Finish string `json:"finish"`
}

// Feature describes a competitor product feature.
type Feature struct {
	Name           string `json:"name"`
	Problem        string `json:"problem"`
	Solution       string `json:"solution"`
	HowItsExecuted string `json:"how_its_executed"`
}

// UserStory groups actions and features around one outcome.
type UserStory struct {
	Outcome     string    `json:"outcome"`
	UserActions []Action  `json:"user_actions"`
	Features    []Feature `json:"features"`
}

// Product is a competitor's product as seen from user stories.
type Product struct {
	UserStories     []UserStory `json:"user_stories"`
	Differentiators []string    `json:"differentiators"`
}

// NewsArticle is a headline attached to a company card.
type NewsArticle struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date"`
}

// Review is an external product review summary.
type Review struct {
	Title        string   `json:"title"`
	Review       string   `json:"review"`
	Rating       float64  `json:"rating"`
	Source       string   `json:"source"`
	Date         string   `json:"date"`
	KeyTakeaways []string `json:"key_takeaways"`
}

// Source is a citation backing card content.
type Source struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Card is the researched profile of a single company. Monetary figures are in
// millions USD.
type Card struct {
	Company            string        `json:"company"`
	CompetitiveProduct Product       `json:"competitive_product"`
	Industry           string        `json:"industry"`
	Description        string        `json:"description"`
	News               []NewsArticle `json:"news"`
	Revenue            *float64      `json:"revenue,omitempty"`
	Valuation          *float64      `json:"valuation,omitempty"`
	FundingRaised      *float64      `json:"funding_raised,omitempty"`
	Profitability      string        `json:"profitability,omitempty"`
	KeyPartners        []string      `json:"key_partners,omitempty"`
	PricingModels      []string      `json:"pricing_models,omitempty"`
	PublicCompany      bool          `json:"public_company"`
	NotableCustomers   []string      `json:"notable_customers,omitempty"`
	Acquisitions       []string      `json:"acquisitions,omitempty"`
	Employees          int           `json:"employees,omitempty"`
	Users              int           `json:"users,omitempty"`
	TargetAudiences    []string      `json:"target_audiences"`
	MarketDominance    string        `json:"market_dominance"`
	Founded            string        `json:"founded"`
	HowToDifferentiate []string      `json:"how_to_differentiate"`
	Reviews            []Review      `json:"reviews"`
	Headquarters       string        `json:"headquarters,omitempty"`
	RegionsOperated    []string      `json:"regions_operated,omitempty"`
	Sources            []Source      `json:"sources,omitempty"`
}

// Opportunity is a market opportunity finding.
type Opportunity struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact,omitempty"`
	Timeframe   string `json:"timeframe,omitempty"`
}

// Challenge is a market challenge finding.
type Challenge struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	Severity           string `json:"severity,omitempty"`
	MitigationStrategy string `json:"mitigation_strategy,omitempty"`
}

// InvestmentTrend summarizes funding activity for one year.
type InvestmentTrend struct {
	Year               int      `json:"year"`
	TopInvestors       []string `json:"top_investors,omitempty"`
	TotalInvestment    float64  `json:"total_investment"`
	NotableInvestments []string `json:"notable_investments,omitempty"`
	InvestorTypes      []string `json:"investor_types,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// ExecutiveSummary is the narrative wrap-up of the market report.
type ExecutiveSummary struct {
	Overview                 string   `json:"overview"`
	KeyFindings              []string `json:"key_findings"`
	Risks                    []string `json:"risks,omitempty"`
	MarketOutlook            string   `json:"market_outlook,omitempty"`
	StrategicRecommendations []string `json:"strategic_recommendations,omitempty"`
}

// IntermediateMarketReport is the market-only portion produced before company
// cards are merged in.
type IntermediateMarketReport struct {
	GrowthChart      GrowthChart       `json:"growth_chart"`
	Opportunities    []Opportunity     `json:"opportunities"`
	Challenges       []Challenge       `json:"challenges"`
	InvestmentTrends []InvestmentTrend `json:"investment_trends"`
	ExecutiveSummary ExecutiveSummary  `json:"executive_summary"`
}

// MarketResearchReport is the complete competitive-landscape artifact.
type MarketResearchReport struct {
	GrowthChart          GrowthChart       `json:"growth_chart"`
	Opportunities        []Opportunity     `json:"opportunities"`
	Challenges           []Challenge       `json:"challenges"`
	InvestmentTrends     []InvestmentTrend `json:"investment_trends"`
	ExecutiveSummary     ExecutiveSummary  `json:"executive_summary"`
	ParallelCompanies    []Card            `json:"parallel_companies,omitempty"`
	CompetitiveCompanies []Card            `json:"competitive_companies,omitempty"`
}
