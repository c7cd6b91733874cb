package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/specsprite/internal/engine"
	"github.com/ziadkadry99/specsprite/internal/llm"
	"github.com/ziadkadry99/specsprite/internal/prd"
)

// handleGeneratePRD runs one conversation step for new or existing sessions.
func (s *Server) handleGeneratePRD(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("user_input")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_input"), nil
	}
	return s.process(ctx, engine.Input{
		UserInput: input,
		SessionID: request.GetString("session_id", ""),
	}), nil
}

// handleContinueConversation runs one conversation step for an existing session.
func (s *Server) handleContinueConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	response, err := request.RequireString("user_response")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_response"), nil
	}
	return s.process(ctx, engine.Input{UserInput: response, SessionID: sessionID}), nil
}

// handleGetSessionInfo returns a read-only session summary.
func (s *Server) handleGetSessionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	info, err := s.engine.SessionInfo(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Session %s was not found. It may have expired.", sessionID)), nil
	}
	return mcp.NewToolResultText(info.String()), nil
}

func (s *Server) process(ctx context.Context, in engine.Input) *mcp.CallToolResult {
	out, err := s.engine.Process(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(errorMessage(err))
	}
	return mcp.NewToolResultText(formatOutput(out))
}

// errorMessage renders a processing failure in plain language.
func errorMessage(err error) string {
	var (
		cerr *llm.CompletionError
		verr *prd.ValidationError
	)
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return fmt.Sprintf("Please describe your project in 1 to %d characters.", engine.MaxInputRunes)
	case errors.As(err, &cerr):
		tried := make([]string, len(cerr.Attempts))
		for i, a := range cerr.Attempts {
			tried[i] = a.String()
		}
		return "No language model could answer the request. Tried: " + strings.Join(tried, "; ")
	case errors.As(err, &verr):
		return "The document could not be completed. Missing: " + strings.Join(verr.Missing, ", ")
	default:
		return fmt.Sprintf("Request failed: %v", err)
	}
}

// formatOutput renders an engine response as Markdown for the client.
func formatOutput(out *engine.Output) string {
	var sb strings.Builder

	if out.Type == engine.TypePRD && out.Content.PRD != nil {
		sb.WriteString(out.Content.Message)
		sb.WriteString("\n\n")
		sb.WriteString(prd.Markdown(out.Content.PRD))
	} else {
		sb.WriteString(out.Content.Message)
		sb.WriteString("\n")
		if len(out.Content.Questions) > 0 {
			sb.WriteString("\n**Questions**\n")
			for i, q := range out.Content.Questions {
				sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
			}
		}
		if len(out.Content.Suggestions) > 0 {
			sb.WriteString("\n**Suggestions**\n")
			for _, q := range out.Content.Suggestions {
				sb.WriteString(fmt.Sprintf("- %s\n", q))
			}
		}
	}

	sb.WriteString(fmt.Sprintf("\n---\nsession_id: `%s`", out.SessionID))
	if d := out.Content.DebugInfo; d != nil {
		sb.WriteString(fmt.Sprintf(" | persona: %s | %s", d.Persona, d.Reasoning))
		if d.Transport != "" {
			sb.WriteString(fmt.Sprintf(" | via %s", d.Transport))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
