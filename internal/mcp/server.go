package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/hanweng/lingtutor/internal/history"
	"github.com/hanweng/lingtutor/internal/lesson"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the lesson workflow as tools,
// so AI agents can run correction sessions on a learner's behalf.
type Server struct {
	sessions *lesson.Manager
	hist     *history.Store
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(sessions *lesson.Manager, hist *history.Store) *Server {
	s := &Server{
		sessions: sessions,
		hist:     hist,
	}

	s.mcp = server.NewMCPServer(
		"lingtutor",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(startLessonTool, s.handleStartLesson)
	s.mcp.AddTool(getLessonTool, s.handleGetLesson)
	s.mcp.AddTool(submitSituationTool, s.handleSubmitSituation)
	s.mcp.AddTool(confirmIntentTool, s.handleConfirmIntent)
	s.mcp.AddTool(submitClarificationTool, s.handleSubmitClarification)
	s.mcp.AddTool(regenerateTool, s.handleRegenerate)
	s.mcp.AddTool(backToClarifyTool, s.handleBackToClarify)
	s.mcp.AddTool(rateLessonTool, s.handleRateLesson)
	s.mcp.AddTool(resetLessonTool, s.handleResetLesson)
	s.mcp.AddTool(lessonHistoryTool, s.handleLessonHistory)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
