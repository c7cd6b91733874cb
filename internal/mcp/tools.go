package mcp

import "github.com/mark3labs/mcp-go/mcp"

// generatePRDTool defines the generate_prd MCP tool.
var generatePRDTool = mcp.NewTool("generate_prd",
	mcp.WithDescription("Start or continue a conversation that turns a project idea into a product requirements document. Returns a reply with clarifying questions, or the finished document once enough is known."),
	mcp.WithString("user_input",
		mcp.Required(),
		mcp.Description("What the user said about their project (1-2000 characters)"),
	),
	mcp.WithString("session_id",
		mcp.Description("Session to continue. Omit to start a new conversation."),
	),
)

// continueConversationTool defines the continue_conversation MCP tool.
var continueConversationTool = mcp.NewTool("continue_conversation",
	mcp.WithDescription("Answer the questions of an ongoing requirements conversation."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session returned by generate_prd"),
	),
	mcp.WithString("user_response",
		mcp.Required(),
		mcp.Description("The user's answer (1-2000 characters)"),
	),
)

// getSessionInfoTool defines the get_session_info MCP tool.
var getSessionInfoTool = mcp.NewTool("get_session_info",
	mcp.WithDescription("Summarize a session: detected project type, features, tech preferences and readiness."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session to describe"),
	),
)
