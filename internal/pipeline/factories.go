package pipeline

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/wonk/config"
	"github.com/mohammad-safakhou/wonk/internal/telemetry"
	"github.com/mohammad-safakhou/wonk/provider/openai"
	"github.com/mohammad-safakhou/wonk/tools/websearch"
)

// NewGenerator creates the generation backend from configuration.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "", "openai":
		return openai.New(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider type: %s", cfg.Provider)
	}
}

// searchTool adapts a websearch client to the pipeline's Searcher contract
// and counts calls in telemetry.
type searchTool struct {
	ws   websearch.WebSearcher
	k    int
	tele *telemetry.Telemetry
}

func (s searchTool) Search(ctx context.Context, query string) ([]SearchResult, error) {
	s.tele.RecordSearch()
	results, err := s.ws.Discover(ctx, query, s.k)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResult{Title: r.Title, Snippet: r.Snippet, URL: r.URL})
	}
	return out, nil
}

// NewSearcher creates the web search tool from configuration.
func NewSearcher(cfg config.SearchConfig, tele *telemetry.Telemetry) (Searcher, error) {
	ws, err := websearch.NewWebSearcher(websearch.Provider(cfg.Provider), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("search provider %q: %w", cfg.Provider, err)
	}
	k := cfg.MaxResults
	if k <= 0 {
		k = 3
	}
	return searchTool{ws: ws, k: k, tele: tele}, nil
}

// NewWorkers builds one worker per role over shared backends. The
// Synthesizer never receives the search tool.
func NewWorkers(cfg *config.Config, llm Generator, search Searcher) map[Role]*Worker {
	retry := NewRetryPolicy(cfg.Pipeline.MaxAttempts, cfg.Pipeline.BaseDelay)
	workers := make(map[Role]*Worker, len(Roles))
	for _, role := range Roles {
		spec := RoleSpecs[role]
		tool := search
		if !spec.ToolsPermitted() {
			tool = nil
		}
		workers[role] = NewWorker(spec, llm, tool, retry)
	}
	return workers
}

// NewDefaultController wires generator, searcher and workers from config.
func NewDefaultController(cfg *config.Config, tele *telemetry.Telemetry) (*Controller, error) {
	llm, err := NewGenerator(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	search, err := NewSearcher(cfg.Search, tele)
	if err != nil {
		return nil, fmt.Errorf("failed to create search tool: %w", err)
	}
	return NewController(cfg, NewWorkers(cfg, llm, search), tele)
}
