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
	"github.com/Laisky/agent-search-tools/library/search/gong"
)

// CallSearcher abstracts the Gong call-search capability used by the tool.
type CallSearcher interface {
	Search(context.Context, gong.Query) ([]gong.CallResult, error)
}

// CallSearchTool implements the gong_call_search MCP tool: keyword search over
// recorded calls with transcript excerpts attached to every record.
type CallSearchTool struct {
	searcher CallSearcher
	logger   logSDK.Logger
}

// NewCallSearchTool constructs a CallSearchTool with the provided dependencies.
func NewCallSearchTool(searcher CallSearcher, logger logSDK.Logger) (*CallSearchTool, error) {
	if searcher == nil {
		return nil, errors.New("call searcher is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &CallSearchTool{
		searcher: searcher,
		logger:   logger,
	}, nil
}

// Definition returns the MCP metadata describing the tool.
func (t *CallSearchTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"gong_call_search",
		mcp.WithDescription("Searches recorded calls in Gong by keyword. Returns call metadata and a transcript excerpt for each matching call."),
		mcp.WithString(
			"q",
			mcp.Required(),
			mcp.Description("Keywords to search for in call content."),
		),
		mcp.WithString(
			"from_date",
			mcp.Description("Earliest call date, as YYYY-MM-DD or an ISO-8601 timestamp."),
		),
		mcp.WithString(
			"to_date",
			mcp.Description("Latest call date, as YYYY-MM-DD or an ISO-8601 timestamp."),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of calls to return. Defaults to 10."),
		),
		mcp.WithString(
			"workspace_id",
			mcp.Description("Restrict the search to a single Gong workspace."),
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

// Handle executes the gong_call_search tool logic and returns the result
// envelope. Failures at any step discard all work and surface as an envelope
// error; only per-call transcript fetches degrade without failing the request.
func (t *CallSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	limit := gong.DefaultLimit
	if raw, ok := intArg(req.Params.Arguments, "limit"); ok {
		if raw < 0 {
			return mcp.NewToolResultError("limit cannot be negative"), nil
		}
		limit = raw
	}

	gongQuery := gong.Query{
		Keywords:    query,
		FromDate:    t.normalizedDate(logger, "from_date", stringArg(req.Params.Arguments, "from_date")),
		ToDate:      t.normalizedDate(logger, "to_date", stringArg(req.Params.Arguments, "to_date")),
		Limit:       limit,
		WorkspaceID: stringArg(req.Params.Arguments, "workspace_id"),
	}

	start := time.Now().UTC()
	logger.Debug("gong_call_search started",
		zap.String("query", query), zap.Int("limit", limit))

	results, err := t.searcher.Search(ctx, gongQuery)
	if err != nil {
		logger.Error("gong_call_search failed", zap.Error(err), zap.String("query", query))
		return envelopeResult(logger,
			searchlib.NewErrorEnvelope[searchlib.CallRecord](classifyError(err)))
	}

	records := make([]searchlib.CallRecord, 0, len(results))
	sourceItems := make([]searchlib.SourceItem, 0, len(results))
	for _, result := range results {
		parties := make([]string, 0, len(result.Parties))
		for _, party := range result.Parties {
			if name := strings.TrimSpace(party.Name); name != "" {
				parties = append(parties, name)
			}
		}

		records = append(records, searchlib.CallRecord{
			CallID:          result.ID,
			Title:           result.Title,
			Date:            result.Started,
			DurationSeconds: result.DurationSeconds,
			Parties:         parties,
			Snippet:         result.Snippet,
			URL:             result.URL,
			Context:         result.Context,
		})

		sourceItems = append(sourceItems, searchlib.SourceItem{
			Type:        searchlib.SourceTypeSimpleDocument,
			URL:         result.URL,
			Title:       result.Title,
			HTMLSnippet: callSourceSnippet(result),
		})
	}

	logger.Debug("gong_call_search completed",
		zap.String("query", query),
		zap.Int("results_count", len(records)),
		zap.Duration("duration", time.Since(start)),
	)

	return envelopeResult(logger, searchlib.ResultEnvelope[searchlib.CallRecord]{
		Output: records,
		Sources: []searchlib.ToolSource{{
			ToolCallDescription: fmt.Sprintf("Searched Gong calls for: %s", query),
			Items:               sourceItems,
		}},
	})
}

// normalizedDate normalizes an optional date argument, logging and dropping
// values that cannot be normalized rather than failing the invocation.
func (t *CallSearchTool) normalizedDate(logger logSDK.Logger, field, raw string) string {
	if raw == "" {
		return ""
	}

	normalized := gong.NormalizeDate(raw)
	if normalized == "" {
		logger.Warn("ignoring unparseable date argument",
			zap.String("field", field), zap.String("value", raw))
	}

	return normalized
}

// classifyError maps the Gong client error taxonomy onto the envelope error
// strings surfaced to the host.
func classifyError(err error) string {
	if errors.Is(err, gong.ErrNoCredentials) {
		return err.Error()
	}

	var statusErr *gong.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("HTTP error occurred: %v", err)
	}

	return fmt.Sprintf("An error occurred: %v", err)
}

// callSourceSnippet renders the citation snippet for a call: date, duration,
// and participant names.
func callSourceSnippet(result gong.CallResult) string {
	names := make([]string, 0, len(result.Parties))
	for _, party := range result.Parties {
		if name := strings.TrimSpace(party.Name); name != "" {
			names = append(names, name)
		}
	}

	participants := strings.Join(names, ", ")
	if participants == "" {
		participants = "Unknown"
	}

	return fmt.Sprintf("<p>Call on %s, duration %d seconds.</p><p>Participants: %s</p>",
		result.Started, result.DurationSeconds, participants)
}
