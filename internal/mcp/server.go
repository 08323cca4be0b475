package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/pulsehealth/pulse/internal/meals"
	"github.com/pulsehealth/pulse/internal/nutrition"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes meal logging tools over stdio,
// so conversational agents can log and query meals directly.
type Server struct {
	processor *meals.Processor
	summaries *nutrition.SummaryStore
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(processor *meals.Processor, summaries *nutrition.SummaryStore) *Server {
	s := &Server{
		processor: processor,
		summaries: summaries,
	}

	s.mcp = server.NewMCPServer(
		"pulse",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(logMealTool, s.handleLogMeal)
	s.mcp.AddTool(parseMealTool, s.handleParseMeal)
	s.mcp.AddTool(getDailySummaryTool, s.handleGetDailySummary)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
