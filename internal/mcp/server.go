package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/specsprite/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the conversation tools.
type Server struct {
	engine *engine.Engine
	mcp    *server.MCPServer
}

// NewMCPServer creates the underlying MCP server with sampling enabled, so
// completion requests can be routed back to the connected client. Build the
// engine's completion chain against it before calling NewServer.
func NewMCPServer(name string) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		Version,
		server.WithToolCapabilities(false),
	)
	s.EnableSampling()
	return s
}

// NewServer registers the tools on mcpServer and binds them to eng.
func NewServer(mcpServer *server.MCPServer, eng *engine.Engine) *Server {
	s := &Server{
		engine: eng,
		mcp:    mcpServer,
	}
	s.registerTools()
	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(generatePRDTool, s.handleGeneratePRD)
	s.mcp.AddTool(continueConversationTool, s.handleContinueConversation)
	s.mcp.AddTool(getSessionInfoTool, s.handleGetSessionInfo)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
