package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"

	searchlib "github.com/Laisky/agent-search-tools/library/search"
)

// SearchProvider abstracts the web search execution capability used by the tool.
type SearchProvider interface {
	Search(context.Context, string) ([]searchlib.SearchResultItem, error)
}

// WebSearchTool implements the web_search MCP tool. It maps every upstream
// hit to one primary record and one citation source item, in upstream order.
type WebSearchTool struct {
	searchProvider SearchProvider
	logger         logSDK.Logger
}

// NewWebSearchTool constructs a WebSearchTool with the provided dependencies.
func NewWebSearchTool(provider SearchProvider, logger logSDK.Logger) (*WebSearchTool, error) {
	if provider == nil {
		return nil, errors.New("search provider is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &WebSearchTool{
		searchProvider: provider,
		logger:         logger,
	}, nil
}

// Definition returns the MCP metadata describing the tool.
func (t *WebSearchTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"web_search",
		mcp.WithDescription("Searches the web. Returns an array of results. For each result, returns url, title, and snippet."),
		mcp.WithString(
			"q",
			mcp.Required(),
			mcp.Description("The query string."),
		),
		mcp.WithString(
			"trace",
			mcp.Description("Opaque trace identifier supplied by the host; echoed into logs only."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Handle executes the web_search tool logic and returns the result envelope.
// Upstream failures are reported inside the envelope rather than as tool
// transport errors, so the host always receives the same contract.
func (t *WebSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("q")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return mcp.NewToolResultError("q cannot be empty"), nil
	}

	logger := t.logger
	if trace := stringArg(req.Params.Arguments, "trace"); trace != "" {
		logger = logger.With(zap.String("trace", trace))
	}

	start := time.Now().UTC()
	logger.Debug("web_search started", zap.String("query", query))

	items, err := t.searchProvider.Search(ctx, query)
	if err != nil {
		logger.Error("web_search failed", zap.Error(err), zap.String("query", query))
		return envelopeResult(logger,
			searchlib.NewErrorEnvelope[searchlib.WebResult](fmt.Sprintf("search failed: %v", err)))
	}

	records := make([]searchlib.WebResult, 0, len(items))
	sourceItems := make([]searchlib.SourceItem, 0, len(items))
	for _, item := range items {
		records = append(records, searchlib.WebResult{
			URL:     item.URL,
			Title:   item.Title,
			Snippet: item.Snippet,
		})

		sourceItem := searchlib.SourceItem{
			Type:        searchlib.SourceTypeSimpleDocument,
			URL:         item.URL,
			Title:       item.Title,
			HTMLSnippet: item.HTMLSnippet,
		}
		if item.Thumbnail != nil {
			thumbnail := *item.Thumbnail
			sourceItem.Thumbnail = &thumbnail
		}
		sourceItems = append(sourceItems, sourceItem)
	}

	logger.Debug("web_search completed",
		zap.String("query", query),
		zap.Int("results_count", len(records)),
		zap.Duration("duration", time.Since(start)),
	)

	return envelopeResult(logger, searchlib.ResultEnvelope[searchlib.WebResult]{
		Output: records,
		Sources: []searchlib.ToolSource{{
			ToolCallDescription: fmt.Sprintf("Performed Web Search for: %s", query),
			Items:               sourceItems,
		}},
	})
}

// envelopeResult encodes the envelope as the tool result payload.
func envelopeResult[T any](logger logSDK.Logger, envelope searchlib.ResultEnvelope[T]) (*mcp.CallToolResult, error) {
	toolResult, err := mcp.NewToolResultJSON(envelope)
	if err != nil {
		logger.Error("encode result envelope", zap.Error(err))
		return mcp.NewToolResultError("failed to encode result envelope"), nil
	}

	return toolResult, nil
}
