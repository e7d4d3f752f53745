package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/uniqorn/uniqorn/plugin/ai"
	"github.com/uniqorn/uniqorn/plugin/ai/prompt"
	"github.com/uniqorn/uniqorn/plugin/ai/schema"
)

// maxConcurrentCards bounds parallel company-card generations.
const maxConcurrentCards = 3

// CardType states the relationship between a researched company and the
// project.
type CardType string

const (
	CardCompetitive CardType = "competitive"
	CardParallel    CardType = "parallel"
)

// LandscapeAgent produces competitive-landscape reports: one researched
// card per referenced company plus a market-level analysis.
type LandscapeAgent struct {
	llm ai.LLMService
}

// NewLandscapeAgent creates a landscape agent over the given provider.
func NewLandscapeAgent(llm ai.LLMService) *LandscapeAgent {
	return &LandscapeAgent{llm: llm}
}

// GenerateCard researches one company in the context of the project.
func (a *LandscapeAgent) GenerateCard(ctx context.Context, company schema.Company, cardType CardType, pc *schema.ProjectContext) (*schema.Card, error) {
	companyJSON, err := json.Marshal(company)
	if err != nil {
		return nil, err
	}
	pcJSON, err := json.Marshal(pc)
	if err != nil {
		return nil, err
	}

	system, err := prompt.Load("landscape.yaml", "system_prompt", nil)
	if err != nil {
		return nil, err
	}
	user, err := prompt.Load("landscape.yaml", "generate_card", map[string]string{
		"card_type":       string(cardType),
		"company":         string(companyJSON),
		"project_context": string(pcJSON),
	})
	if err != nil {
		return nil, err
	}

	reply, err := a.llm.Chat(ctx, []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to research %s: %w", company.Name, err)
	}

	var card schema.Card
	if err := ai.ParseJSONResponse(reply, &card); err != nil {
		return nil, fmt.Errorf("unparseable card for %s: %w", company.Name, err)
	}
	if card.Company == "" {
		card.Company = company.Name
	}
	return &card, nil
}

// ResearchMarket produces the market-level portion of the report.
func (a *LandscapeAgent) ResearchMarket(ctx context.Context, pc *schema.ProjectContext) (*schema.IntermediateMarketReport, error) {
	pcJSON, err := json.Marshal(pc)
	if err != nil {
		return nil, err
	}

	system, err := prompt.Load("landscape.yaml", "system_prompt", nil)
	if err != nil {
		return nil, err
	}
	user, err := prompt.Load("landscape.yaml", "research_market", map[string]string{
		"project_context": string(pcJSON),
	})
	if err != nil {
		return nil, err
	}

	reply, err := a.llm.Chat(ctx, []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to research market: %w", err)
	}

	var report schema.IntermediateMarketReport
	if err := ai.ParseJSONResponse(reply, &report); err != nil {
		return nil, fmt.Errorf("unparseable market report: %w", err)
	}
	return &report, nil
}

// GenerateReport assembles the full landscape report: the market analysis
// plus one card per parallel and competitive company, researched
// concurrently. Individual card failures are logged and skipped; the market
// analysis itself is required.
func (a *LandscapeAgent) GenerateReport(ctx context.Context, pc *schema.ProjectContext) (*schema.MarketResearchReport, error) {
	var (
		market      *schema.IntermediateMarketReport
		mu          sync.Mutex
		parallel    = make([]schema.Card, 0, len(pc.ParallelCompanies))
		competitive = make([]schema.Card, 0, len(pc.CompetitiveCompanies))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCards)

	g.Go(func() error {
		report, err := a.ResearchMarket(gctx, pc)
		if err != nil {
			return err
		}
		market = report
		return nil
	})

	research := func(company schema.Company, cardType CardType, dst *[]schema.Card) {
		g.Go(func() error {
			card, err := a.GenerateCard(gctx, company, cardType, pc)
			if err != nil {
				slog.Warn("skipping company card", "company", company.Name, "error", err)
				return nil
			}
			mu.Lock()
			*dst = append(*dst, *card)
			mu.Unlock()
			return nil
		})
	}
	for _, company := range pc.ParallelCompanies {
		research(company, CardParallel, &parallel)
	}
	for _, company := range pc.CompetitiveCompanies {
		research(company, CardCompetitive, &competitive)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &schema.MarketResearchReport{
		GrowthChart:          market.GrowthChart,
		Opportunities:        market.Opportunities,
		Challenges:           market.Challenges,
		InvestmentTrends:     market.InvestmentTrends,
		ExecutiveSummary:     market.ExecutiveSummary,
		ParallelCompanies:    parallel,
		CompetitiveCompanies: competitive,
	}, nil
}
