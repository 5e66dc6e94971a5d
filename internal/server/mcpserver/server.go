// Package mcpserver publishes the task toolset over the Model Context
// Protocol (streamable HTTP). Every call is authenticated with the bearer
// token of the HTTP request that carried it.
package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const Name = "gophtodo"

type ctxKey string

const tokenKey ctxKey = "token"

// Binder produces a toolset for the holder of token.
type Binder interface {
	Specs() []tools.Spec
	Bind(ctx context.Context, token string) (*tools.Toolset, error)
}

type Server struct {
	gateway Binder
	mcp     *server.MCPServer
	logger  logging.Logger
}

func New(gateway Binder, version string, l logging.Logger) *Server {
	s := &Server{
		gateway: gateway,
		logger:  l.With("module", "mcp_server"),
	}

	s.mcp = server.NewMCPServer(
		Name,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Manage the authenticated user's to-do list. Dates are YYYY-MM-DD."),
	)

	for _, spec := range gateway.Specs() {
		s.mcp.AddTool(
			mcp.NewToolWithRawSchema(string(spec.Name), spec.Description, spec.Parameters),
			s.handle(spec.Name),
		)
	}

	return s
}

// MCP exposes the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Handler returns the streamable HTTP endpoint.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(WithRequestToken),
	)
}

// WithRequestToken copies the request's bearer token into ctx.
func WithRequestToken(ctx context.Context, r *http.Request) context.Context {
	token, ok := auth.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
	if !ok {
		return ctx
	}
	return WithToken(ctx, token)
}

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

func (s *Server) handle(kind tools.Kind) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token := tokenFrom(ctx)
		if token == "" {
			return mcp.NewToolResultError("Error: missing bearer token"), nil
		}

		toolset, err := s.gateway.Bind(ctx, token)
		if err != nil {
			s.logger.Debug(ctx, "mcp bind rejected", "tool", kind, "error", err)
			return mcp.NewToolResultError("Error: " + common.ErrorUnauthenticated.Error()), nil
		}

		args := "{}"
		if request.Params.Arguments != nil {
			b, err := json.Marshal(request.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError("Error: invalid arguments"), nil
			}
			args = string(b)
		}

		out, err := toolset.Invoke(ctx, string(kind), args)
		if err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}
