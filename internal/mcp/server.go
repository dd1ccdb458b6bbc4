package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/errmatch/internal/matcher"
	"github.com/ziadkadry99/errmatch/internal/unmatched"
)

// Version is set via ldflags at build time.
var Version = "dev"

// SessionID is the dataset session shared by every tool call. An MCP server
// serves a single client over stdio, so one session is enough.
const SessionID = "mcp"

// Server wraps an MCP server that exposes the error matcher as tools.
type Server struct {
	engine    *matcher.Engine
	unmatched *unmatched.Log
	maxRows   int
	logger    zerolog.Logger
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies. unmatched
// may be nil, in which case list_unmatched reports that nothing is recorded.
func NewServer(engine *matcher.Engine, log *unmatched.Log, maxRows int, logger zerolog.Logger) *Server {
	s := &Server{
		engine:    engine,
		unmatched: log,
		maxRows:   maxRows,
		logger:    logger,
	}

	s.mcp = server.NewMCPServer(
		"errmatch",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(matchErrorTool, s.handleMatchError)
	s.mcp.AddTool(loadDatasetTool, s.handleLoadDataset)
	s.mcp.AddTool(datasetInfoTool, s.handleDatasetInfo)
	s.mcp.AddTool(listUnmatchedTool, s.handleListUnmatched)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
