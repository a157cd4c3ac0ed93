package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hanweng/lingtutor/internal/history"
	"github.com/hanweng/lingtutor/internal/lesson"
)

// handleStartLesson creates a fresh session.
func (s *Server) handleStartLesson(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", "anonymous")
	sess := s.sessions.Start(userID)
	return viewResult(sess.View())
}

// handleGetLesson returns the current session snapshot.
func (s *Server) handleGetLesson(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.requireSession(request)
	if errResult != nil {
		return errResult, nil
	}
	return viewResult(sess.View())
}

// handleSubmitSituation runs step 1 of the lesson.
func (s *Server) handleSubmitSituation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.requireSession(request)
	if errResult != nil {
		return errResult, nil
	}

	situation, err := request.RequireString("context")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: context"), nil
	}
	intent, err := request.RequireString("intent")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: intent"), nil
	}

	view, err := sess.SubmitSituation(ctx, situation, intent)
	if err != nil {
		return actionError(err), nil
	}
	return viewResult(view)
}

// handleConfirmIntent accepts the understanding and generates corrections.
func (s *Server) handleConfirmIntent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.requireSession(request)
	if errResult != nil {
		return errResult, nil
	}

	view, err := sess.ConfirmIntent(ctx)
	if err != nil {
		return actionError(err), nil
	}
	return viewResult(view)
}

// handleSubmitClarification rejects the understanding with new detail.
func (s *Server) handleSubmitClarification(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.requireSession(request)
	if errResult != nil {
		return errResult, nil
	}

	clarification, err := request.RequireString("clarification")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: clarification"), nil
	}

	view, err := sess.SubmitClarification(ctx, clarification)
	if err != nil {
		return actionError(err), nil
	}
	return viewResult(view)
}

// handleRegenerate reinterprets the inputs from scratch.
func (s *Server) handleRegenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.requireSession(request)
	if errResult != nil {
		return errResult, nil
	}

	view, err := sess.RegenerateFromInput(ctx)
	if err != nil {
		return actionError(err), nil
	}
	return viewResult(view)
}

// handleBackToClarify steps back from the result to the confirmation step.
func (s *Server) handleBackToClarify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.requireSession(request)
	if errResult != nil {
		return errResult, nil
	}

	view, err := sess.ReturnToClarification()
	if err != nil {
		return actionError(err), nil
	}
	return viewResult(view)
}

// handleRateLesson records the rating and saves the lesson.
func (s *Server) handleRateLesson(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.requireSession(request)
	if errResult != nil {
		return errResult, nil
	}

	rating := request.GetInt("rating", 0)
	view, err := sess.SubmitRating(ctx, rating)
	if err != nil {
		return actionError(err), nil
	}
	return viewResult(view)
}

// handleResetLesson discards the session record.
func (s *Server) handleResetLesson(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.requireSession(request)
	if errResult != nil {
		return errResult, nil
	}

	view, err := sess.Reset()
	if err != nil {
		return actionError(err), nil
	}
	return viewResult(view)
}

// handleLessonHistory lists saved lessons for the learner.
func (s *Server) handleLessonHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", "anonymous")
	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	lessons, err := s.hist.List(ctx, history.QueryFilter{UserID: userID, Limit: limit})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing lessons failed: %v", err)), nil
	}
	if len(lessons) == 0 {
		return mcp.NewToolResultText("No saved lessons yet. Finish a lesson and rate it to save it."), nil
	}

	return mcp.NewToolResultText(formatLessons(lessons)), nil
}

// requireSession resolves the session_id parameter to a live session.
func (s *Server) requireSession(request mcp.CallToolRequest) (*lesson.Session, *mcp.CallToolResult) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return nil, mcp.NewToolResultError("missing required parameter: session_id")
	}
	sess := s.sessions.Get(id)
	if sess == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("unknown session %q; call start_lesson first", id))
	}
	return sess, nil
}

// viewResult serializes a session view as the tool result.
func viewResult(view lesson.View) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding session view: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// actionError reports a failed session action. All session errors are
// tool-level errors so the agent can read the message and retry.
func actionError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// formatLessons renders saved lessons as text for agent consumption.
func formatLessons(lessons []history.Lesson) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d saved lesson(s):\n", len(lessons)))

	for i, l := range lessons {
		sb.WriteString(fmt.Sprintf("\n--- Lesson %d (%s) ---\n", i+1, l.CreatedAt.Format("2006-01-02")))
		sb.WriteString(fmt.Sprintf("Situation: %s\n", l.Context))
		sb.WriteString(fmt.Sprintf("Intent: %s\n", l.StatedIntent))
		if l.UserClarification != "" {
			sb.WriteString(fmt.Sprintf("Clarified as: %s\n", l.UserClarification))
		}
		sb.WriteString(fmt.Sprintf("Corrected: %s\n", l.Corrected))
		if l.CorrectedNotes != "" {
			sb.WriteString(fmt.Sprintf("Notes: %s\n", l.CorrectedNotes))
		}
		if l.Alternative1 != "" {
			sb.WriteString(fmt.Sprintf("Alternative 1: %s\n", l.Alternative1))
		}
		if l.Alternative2 != "" {
			sb.WriteString(fmt.Sprintf("Alternative 2: %s\n", l.Alternative2))
		}
		if l.Rating > 0 {
			sb.WriteString(fmt.Sprintf("Rating: %d/5\n", l.Rating))
		}
	}

	return sb.String()
}
