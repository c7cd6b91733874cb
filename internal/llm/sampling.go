package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const defaultSamplingMaxTokens = 2000

// SamplingTransport asks the connected MCP client to run the completion
// with its own model through sampling/createMessage.
type SamplingTransport struct {
	server *server.MCPServer
}

// NewSamplingTransport creates a sampling transport bound to an MCP server.
// The server must have sampling enabled.
func NewSamplingTransport(s *server.MCPServer) *SamplingTransport {
	return &SamplingTransport{server: s}
}

func (t *SamplingTransport) Name() string {
	return "sampling"
}

// Available reports whether ctx carries a client session that can sample.
func (t *SamplingTransport) Available(ctx context.Context) bool {
	if t.server == nil {
		return false
	}
	sess := server.ClientSessionFromContext(ctx)
	if sess == nil {
		return false
	}
	if info, ok := sess.(server.SessionWithClientInfo); ok && info.GetClientCapabilities().Sampling == nil {
		return false
	}
	if _, ok := sess.(server.SessionWithSampling); ok {
		return true
	}
	return server.InProcessSamplingHandlerFromContext(ctx) != nil
}

func (t *SamplingTransport) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if t.server == nil {
		return nil, errors.New("sampling transport has no MCP server")
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultSamplingMaxTokens
	}

	params := mcp.CreateMessageParams{
		Temperature:    req.Temperature,
		MaxTokens:      maxTokens,
		IncludeContext: "thisServer",
	}
	if len(req.Metadata) > 0 {
		params.Metadata = req.Metadata
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			if params.SystemPrompt != "" {
				params.SystemPrompt += "\n\n"
			}
			params.SystemPrompt += msg.Content
		case RoleAssistant:
			params.Messages = append(params.Messages, mcp.SamplingMessage{
				Role:    mcp.RoleAssistant,
				Content: mcp.NewTextContent(msg.Content),
			})
		default:
			params.Messages = append(params.Messages, mcp.SamplingMessage{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(msg.Content),
			})
		}
	}

	result, err := t.server.RequestSampling(ctx, mcp.CreateMessageRequest{CreateMessageParams: params})
	if err != nil {
		return nil, fmt.Errorf("sampling request failed: %w", err)
	}
	if result == nil {
		return nil, errors.New("sampling returned no result")
	}

	text, ok := samplingText(result.Content)
	if !ok {
		return nil, fmt.Errorf("sampling returned non-text content %T", result.Content)
	}

	var input int
	for _, msg := range req.Messages {
		input += EstimateTokens(msg.Content)
	}
	return &CompletionResponse{
		Content:      text,
		InputTokens:  input,
		OutputTokens: EstimateTokens(text),
		Model:        result.Model,
		FinishReason: result.StopReason,
	}, nil
}

// samplingText extracts text from a sampling result. Content arrives as a
// typed value in-process and as decoded JSON over some transports.
func samplingText(content any) (string, bool) {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text, true
	case *mcp.TextContent:
		return c.Text, true
	case string:
		return c, true
	case map[string]any:
		if s, ok := c["text"].(string); ok {
			return s, true
		}
	}
	return "", false
}
