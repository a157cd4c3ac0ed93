package mcp

import "github.com/mark3labs/mcp-go/mcp"

// startLessonTool defines the start_lesson MCP tool.
var startLessonTool = mcp.NewTool("start_lesson",
	mcp.WithDescription("Start a new Mandarin correction lesson. Returns a session id used by all other lesson tools."),
	mcp.WithString("user_id",
		mcp.Description("Learner identifier (defaults to \"anonymous\")"),
	),
)

// getLessonTool defines the get_lesson MCP tool.
var getLessonTool = mcp.NewTool("get_lesson",
	mcp.WithDescription("Get the current state of a lesson session: which step it is on and everything recorded so far."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Lesson session id"),
	),
)

// submitSituationTool defines the submit_situation MCP tool.
var submitSituationTool = mcp.NewTool("submit_situation",
	mcp.WithDescription("Describe the situation and what the learner wants to say. Returns the tutor's understanding of the intent for confirmation."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Lesson session id"),
	),
	mcp.WithString("context",
		mcp.Required(),
		mcp.Description("The situation the learner is in, e.g. \"ordering food at a restaurant\""),
	),
	mcp.WithString("intent",
		mcp.Required(),
		mcp.Description("What the learner wants to express, in their own words"),
	),
)

// confirmIntentTool defines the confirm_intent MCP tool.
var confirmIntentTool = mcp.NewTool("confirm_intent",
	mcp.WithDescription("Accept the tutor's understanding of the intent and generate the corrected Mandarin with alternatives."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Lesson session id"),
	),
)

// submitClarificationTool defines the submit_clarification MCP tool.
var submitClarificationTool = mcp.NewTool("submit_clarification",
	mcp.WithDescription("Reject the tutor's understanding and clarify what the learner actually means. The tutor re-states its understanding; repeat until it is right, then confirm."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Lesson session id"),
	),
	mcp.WithString("clarification",
		mcp.Required(),
		mcp.Description("What the learner actually means"),
	),
)

// regenerateTool defines the regenerate_from_input MCP tool.
var regenerateTool = mcp.NewTool("regenerate_from_input",
	mcp.WithDescription("Discard the tutor's understanding and everything after it, and reinterpret the situation and intent from scratch."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Lesson session id"),
	),
)

// backToClarifyTool defines the back_to_clarify MCP tool.
var backToClarifyTool = mcp.NewTool("back_to_clarify",
	mcp.WithDescription("Step back from the corrections to the confirmation step without re-running anything."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Lesson session id"),
	),
)

// rateLessonTool defines the rate_lesson MCP tool.
var rateLessonTool = mcp.NewTool("rate_lesson",
	mcp.WithDescription("Rate the corrections from 1 to 5 and save the lesson. A lesson can be rated once."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Lesson session id"),
	),
	mcp.WithNumber("rating",
		mcp.Required(),
		mcp.Description("Rating from 1 (poor) to 5 (excellent)"),
	),
)

// resetLessonTool defines the reset_lesson MCP tool.
var resetLessonTool = mcp.NewTool("reset_lesson",
	mcp.WithDescription("Discard the lesson entirely and start over from the situation step."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Lesson session id"),
	),
)

// lessonHistoryTool defines the lesson_history MCP tool.
var lessonHistoryTool = mcp.NewTool("lesson_history",
	mcp.WithDescription("List the learner's saved lessons, newest first."),
	mcp.WithString("user_id",
		mcp.Description("Learner identifier (defaults to \"anonymous\")"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of lessons to return (default 10)"),
	),
)
