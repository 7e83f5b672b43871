package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/twtrace/pkg/extract"
	"github.com/gnana997/twtrace/pkg/mcplog"
	"github.com/gnana997/twtrace/pkg/tailwind"
)

// Server exposes the class transformer and the source rewriter as MCP tools.
type Server struct {
	mcpServer  *server.MCPServer
	engine     *extract.Engine
	classifier *tailwind.Classifier
	logger     *mcplog.Logger // nil disables the call log
}

// NewServer creates an MCP server over engine. callLog may be nil.
func NewServer(engine *extract.Engine, callLog *mcplog.Logger, version string) *Server {
	s := &Server{
		engine:     engine,
		classifier: engine.Transformer().Splitter().Classifier(),
		logger:     callLog,
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("twtrace", version, opts...)
	s.mcpServer.AddTools(s.tools()...)

	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
