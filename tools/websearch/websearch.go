package websearch

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/wonk/tools/websearch/models"
	"github.com/mohammad-safakhou/wonk/tools/websearch/serper"
	"github.com/mohammad-safakhou/wonk/tools/websearch/tavily"
)

// WebSearcher discovers web results for a query. An empty slice on no
// results is success, not failure.
type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	TavilyProvider Provider = "tavily"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

func NewWebSearcher(provider Provider, apiKey string) (WebSearcher, error) {
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	case TavilyProvider:
		return tavily.Search{ApiKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
