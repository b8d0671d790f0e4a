package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/agent-search-tools/library/log"
	searchlib "github.com/Laisky/agent-search-tools/library/search"
	"github.com/Laisky/agent-search-tools/library/search/gong"
)

type stubProvider struct{}

func (stubProvider) Search(context.Context, string) ([]searchlib.SearchResultItem, error) {
	return nil, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, gong.Query) ([]gong.CallResult, error) {
	return nil, nil
}

func TestNewServerRegistersEnabledTools(t *testing.T) {
	settings := ToolsSettings{WebSearchEnabled: true, GongCallSearchEnabled: true}

	server, err := NewServer(stubProvider{}, stubSearcher{}, settings, log.Logger)
	require.NoError(t, err)
	require.NotNil(t, server)
	require.NotNil(t, server.Handler())
}

func TestNewServerAllToolsDisabled(t *testing.T) {
	server, err := NewServer(nil, nil, ToolsSettings{}, log.Logger)
	require.NoError(t, err)
	require.NotNil(t, server)
	require.NotNil(t, server.Handler())
}

func TestNewServerRequiresProviderForEnabledTool(t *testing.T) {
	server, err := NewServer(nil, stubSearcher{},
		ToolsSettings{WebSearchEnabled: true}, log.Logger)
	require.Error(t, err)
	require.Nil(t, server)
}

func TestNewServerRequiresSearcherForEnabledTool(t *testing.T) {
	server, err := NewServer(stubProvider{}, nil,
		ToolsSettings{GongCallSearchEnabled: true}, log.Logger)
	require.Error(t, err)
	require.Nil(t, server)
}

func TestHookLogFieldsIncludesTrace(t *testing.T) {
	ctx := context.WithValue(context.Background(), keyTraceID, "trace-123")

	fields := hookLogFields(ctx, 1, "tools/call")
	var found bool
	for _, field := range fields {
		if field.Key == "trace" {
			found = true
			require.Equal(t, "trace-123", field.String)
		}
	}
	require.True(t, found)
}
