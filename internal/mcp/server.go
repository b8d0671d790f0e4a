package mcp

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"
	srv "github.com/mark3labs/mcp-go/server"

	"github.com/Laisky/agent-search-tools/internal/mcp/tools"
	"github.com/Laisky/agent-search-tools/library/log"
)

type ctxKey string

const (
	keyTraceID ctxKey = "trace_id"

	traceHeader = "X-Trace-Id"
)

// Server wraps the MCP server state for the HTTP transport.
type Server struct {
	handler http.Handler
	logger  logSDK.Logger
}

// NewServer constructs a remote MCP server exposing both search tools under a
// single streamable HTTP handler. Tools disabled in the settings are not
// registered.
func NewServer(provider tools.SearchProvider, searcher tools.CallSearcher, settings ToolsSettings, logger logSDK.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Logger
	}

	hooks := newMCPHooks(logger.Named("mcp_hooks"))

	mcpServer := srv.NewMCPServer(
		"agent-search-tools",
		"1.0.0",
		srv.WithToolCapabilities(true),
		srv.WithInstructions("Use web_search for public web queries and gong_call_search to find recorded calls with transcript excerpts."),
		srv.WithRecovery(),
		srv.WithHooks(hooks),
	)

	streamable := srv.NewStreamableHTTPServer(
		mcpServer,
		srv.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if trace := r.Header.Get(traceHeader); trace != "" {
				ctx = context.WithValue(ctx, keyTraceID, trace)
			}
			return ctx
		}),
	)

	s := &Server{
		handler: streamable,
		logger:  logger.Named("mcp"),
	}

	if settings.WebSearchEnabled {
		if provider == nil {
			return nil, errors.New("web_search is enabled but no search provider is configured")
		}
		tool, err := tools.NewWebSearchTool(provider, s.logger.Named("web_search"))
		if err != nil {
			return nil, errors.Wrap(err, "new web search tool")
		}
		mcpServer.AddTool(tool.Definition(), tool.Handle)
	}

	if settings.GongCallSearchEnabled {
		if searcher == nil {
			return nil, errors.New("gong_call_search is enabled but no gong client is configured")
		}
		tool, err := tools.NewCallSearchTool(searcher, s.logger.Named("gong_call_search"))
		if err != nil {
			return nil, errors.Wrap(err, "new call search tool")
		}
		mcpServer.AddTool(tool.Definition(), tool.Handle)
	}

	return s, nil
}

// Handler returns the HTTP handler that should be mounted to serve MCP traffic.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func newMCPHooks(logger logSDK.Logger) *srv.Hooks {
	if logger == nil {
		return nil
	}

	hooks := &srv.Hooks{}

	hooks.AddBeforeAny(func(ctx context.Context, id any, method mcp.MCPMethod, message any) {
		fields := hookLogFields(ctx, id, method)
		if message != nil {
			fields = append(fields, zap.Any("request", message))
		}
		logger.Debug("mcp request received", fields...)
	})

	hooks.AddOnSuccess(func(ctx context.Context, id any, method mcp.MCPMethod, message any, result any) {
		logger.Info("mcp request succeeded", hookLogFields(ctx, id, method)...)
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		fields := hookLogFields(ctx, id, method)
		fields = append(fields, zap.Error(err))
		logger.Error("mcp request failed", fields...)
	})

	hooks.AddOnRegisterSession(func(ctx context.Context, session srv.ClientSession) {
		logger.Info("mcp session registered", zap.String("session_id", session.SessionID()))
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session srv.ClientSession) {
		logger.Info("mcp session unregistered", zap.String("session_id", session.SessionID()))
	})

	return hooks
}

func hookLogFields(ctx context.Context, id any, method mcp.MCPMethod) []zap.Field {
	fields := []zap.Field{
		zap.Any("request_id", id),
		zap.String("method", string(method)),
	}

	if trace, _ := ctx.Value(keyTraceID).(string); trace != "" {
		fields = append(fields, zap.String("trace", trace))
	}

	if session := srv.ClientSessionFromContext(ctx); session != nil {
		fields = append(fields, zap.String("session_id", session.SessionID()))
	}

	return fields
}
