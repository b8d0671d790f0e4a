// Package tools implements the MCP tools exposed by the agent-search-tools
// server: web_search and gong_call_search.
package tools

import (
	"context"
	"strings"

	mcp "github.com/mark3labs/mcp-go/mcp"
)

// Tool exposes the capabilities required by the MCP server registration lifecycle.
type Tool interface {
	Definition() mcp.Tool
	Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// stringArg reads an optional string argument from the raw request arguments.
func stringArg(arguments any, key string) string {
	args, ok := arguments.(map[string]any)
	if !ok {
		return ""
	}

	value, ok := args[key].(string)
	if !ok {
		return ""
	}

	return strings.TrimSpace(value)
}

// intArg reads an optional integer argument, tolerating the float64 values
// produced by JSON decoding.
func intArg(arguments any, key string) (int, bool) {
	args, ok := arguments.(map[string]any)
	if !ok {
		return 0, false
	}

	switch v := args[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	}

	return 0, false
}
