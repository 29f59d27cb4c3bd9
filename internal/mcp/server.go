// Package mcp exposes the price estimator and the usage ledger as MCP tools
// over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/diamond-desk/internal/audit"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the estimation tools.
type Server struct {
	estimator *pricing.Estimator
	ledger    *audit.Store
	recorder  *audit.Recorder
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server. ledger may be nil, in which case
// estimates are not recorded and the activity tool is not offered.
func NewServer(estimator *pricing.Estimator, ledger *audit.Store) *Server {
	s := &Server{
		estimator: estimator,
		ledger:    ledger,
	}
	if ledger != nil {
		s.recorder = audit.NewRecorder(ledger)
	}

	s.mcp = server.NewMCPServer(
		"diamonddesk",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(estimatePriceTool, s.handleEstimatePrice)
	s.mcp.AddTool(listOptionsTool, s.handleListOptions)
	if s.ledger != nil {
		s.mcp.AddTool(recentActivityTool, s.handleRecentActivity)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
