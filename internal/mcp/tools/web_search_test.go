package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/agent-search-tools/library/log"
	searchlib "github.com/Laisky/agent-search-tools/library/search"
)

type stubSearchProvider struct {
	items   []searchlib.SearchResultItem
	err     error
	queries []string
}

func (s *stubSearchProvider) Search(_ context.Context, query string) ([]searchlib.SearchResultItem, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func mustWebSearchTool(t *testing.T, provider SearchProvider) *WebSearchTool {
	t.Helper()

	tool, err := NewWebSearchTool(provider, log.Logger.Named("test_web_search"))
	require.NoError(t, err)
	return tool
}

func webSearchRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func decodeEnvelope[T any](t *testing.T, result *mcp.CallToolResult) searchlib.ResultEnvelope[T] {
	t.Helper()

	require.NotNil(t, result)
	require.False(t, result.IsError)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var envelope searchlib.ResultEnvelope[T]
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), &envelope))
	return envelope
}

func TestWebSearchHandleMissingQuery(t *testing.T) {
	tool := mustWebSearchTool(t, &stubSearchProvider{})

	result, err := tool.Handle(context.Background(), webSearchRequest(map[string]any{}))
	require.NoError(t, err)
	require.NotNil(t, result)
	require.True(t, result.IsError)
}

func TestWebSearchHandleEmptyQuery(t *testing.T) {
	provider := &stubSearchProvider{}
	tool := mustWebSearchTool(t, provider)

	result, err := tool.Handle(context.Background(), webSearchRequest(map[string]any{"q": "   "}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Empty(t, provider.queries)
}

func TestWebSearchHandleSearchError(t *testing.T) {
	provider := &stubSearchProvider{err: errors.New("search backend down")}
	tool := mustWebSearchTool(t, provider)

	result, err := tool.Handle(context.Background(), webSearchRequest(map[string]any{"q": "golang"}))
	require.NoError(t, err)

	envelope := decodeEnvelope[searchlib.WebResult](t, result)
	require.NotNil(t, envelope.Output)
	require.Empty(t, envelope.Output)
	require.Empty(t, envelope.Sources)
	require.Contains(t, envelope.Error, "search failed: search backend down")
}

func TestWebSearchHandleSuccess(t *testing.T) {
	provider := &stubSearchProvider{
		items: []searchlib.SearchResultItem{
			{
				URL:         "https://first.example.com",
				Title:       "First",
				Snippet:     "first snippet",
				HTMLSnippet: "<b>first</b> snippet",
				Thumbnail:   &searchlib.Thumbnail{URL: "https://img/1.png", Width: "225", Height: "120"},
			},
			{
				URL:         "https://second.example.com",
				Title:       "Second",
				Snippet:     "second snippet",
				HTMLSnippet: "second snippet",
			},
		},
	}
	tool := mustWebSearchTool(t, provider)

	result, err := tool.Handle(context.Background(), webSearchRequest(map[string]any{"q": "golang"}))
	require.NoError(t, err)
	require.Equal(t, []string{"golang"}, provider.queries)

	envelope := decodeEnvelope[searchlib.WebResult](t, result)
	require.Empty(t, envelope.Error)
	require.Len(t, envelope.Output, 2)
	require.Equal(t, "https://first.example.com", envelope.Output[0].URL)
	require.Equal(t, "First", envelope.Output[0].Title)
	require.Equal(t, "first snippet", envelope.Output[0].Snippet)
	require.Equal(t, "Second", envelope.Output[1].Title)

	require.Len(t, envelope.Sources, 1)
	source := envelope.Sources[0]
	require.Equal(t, "Performed Web Search for: golang", source.ToolCallDescription)
	require.Len(t, source.Items, 2)

	require.Equal(t, searchlib.SourceTypeSimpleDocument, source.Items[0].Type)
	require.Equal(t, "https://first.example.com", source.Items[0].URL)
	require.Equal(t, "<b>first</b> snippet", source.Items[0].HTMLSnippet)
	require.NotNil(t, source.Items[0].Thumbnail)
	require.Equal(t, "https://img/1.png", source.Items[0].Thumbnail.URL)

	require.Nil(t, source.Items[1].Thumbnail)
}

func TestWebSearchHandleEmptyResults(t *testing.T) {
	tool := mustWebSearchTool(t, &stubSearchProvider{})

	result, err := tool.Handle(context.Background(), webSearchRequest(map[string]any{"q": "nothing here"}))
	require.NoError(t, err)

	envelope := decodeEnvelope[searchlib.WebResult](t, result)
	require.Empty(t, envelope.Error)
	require.NotNil(t, envelope.Output)
	require.Empty(t, envelope.Output)
	require.Len(t, envelope.Sources, 1)
	require.Empty(t, envelope.Sources[0].Items)
}

func TestNewWebSearchToolValidatesDependencies(t *testing.T) {
	tool, err := NewWebSearchTool(nil, log.Logger)
	require.Error(t, err)
	require.Nil(t, tool)

	tool, err = NewWebSearchTool(&stubSearchProvider{}, nil)
	require.Error(t, err)
	require.Nil(t, tool)
}
