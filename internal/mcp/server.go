package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// Sessions is the session surface the MCP tools operate on.
// *service.SessionManager implements it.
type Sessions interface {
	VerifyToken(raw string) (model.Payload, bool)
	IntrospectPayload(ctx context.Context, p model.Payload) (model.Profile, error)
	Logout(ctx context.Context, p model.Payload) error
}

// Admins is the read side of the admin store. *config.Store implements it.
type Admins interface {
	GetAdmin(ctx context.Context, id int64) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)
}

// MCPServer exposes token verification, session introspection and the admin
// directory as MCP tools so operators can inspect a running deployment from
// an AI client.
type MCPServer struct {
	sessions Sessions
	admins   Admins
	logger   *slog.Logger
	server   *server.MCPServer
}

// NewMCPServer creates an MCPServer with all tools and resources
// registered. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(sessions Sessions, admins Admins, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		sessions: sessions,
		admins:   admins,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"Gatekeeper Admin Sessions",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout for clients that launch the
// process themselves.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP serves MCP in Streamable HTTP mode on addr (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func destructiveAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(true),
		IdempotentHint:  boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
