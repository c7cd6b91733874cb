package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/specsprite/internal/engine"
	"github.com/ziadkadry99/specsprite/internal/llm"
	"github.com/ziadkadry99/specsprite/internal/prd"
)

// mockProvider answers classification and reply prompts.
type mockProvider struct {
	err error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	if req.JSONMode {
		return &llm.CompletionResponse{Content: `{"project_type":"blog","confidence":88}`, Transport: "mock"}, nil
	}
	return &llm.CompletionResponse{
		Content:   `{"response":"What will you write about?","type":"question","questions":["Who are your readers?"]}`,
		Transport: "mock",
	}, nil
}

func newTestServer(p llm.Provider) *Server {
	return NewServer(NewMCPServer("specsprite-test"), engine.New(engine.Options{Provider: p}))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
		required []string
	}{
		{generatePRDTool, "generate_prd", []string{"user_input"}},
		{continueConversationTool, "continue_conversation", []string{"session_id", "user_response"}},
		{getSessionInfoTool, "get_session_info", []string{"session_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
			if strings.Join(tt.tool.InputSchema.Required, ",") != strings.Join(tt.required, ",") {
				t.Errorf("required = %v, want %v", tt.tool.InputSchema.Required, tt.required)
			}
		})
	}
}

func TestHandleGeneratePRD(t *testing.T) {
	srv := newTestServer(&mockProvider{})
	ctx := context.Background()

	t.Run("new session", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"user_input": "I want to start a blog about sourdough baking"}

		result, err := srv.handleGeneratePRD(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, result))
		}
		text := resultText(t, result)
		for _, want := range []string{"What will you write about?", "1. Who are your readers?", "session_id: `", "persona: expert_blog", "via mock"} {
			if !strings.Contains(text, want) {
				t.Errorf("result missing %q:\n%s", want, text)
			}
		}
	})

	t.Run("missing input", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleGeneratePRD(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing user_input")
		}
	})

	t.Run("blank input", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"user_input": "   "}

		result, _ := srv.handleGeneratePRD(ctx, req)
		if !result.IsError || !strings.Contains(resultText(t, result), "1 to 2000 characters") {
			t.Errorf("expected invalid input error, got %+v", result)
		}
	})
}

func TestHandleContinueConversation(t *testing.T) {
	srv := newTestServer(&mockProvider{})
	ctx := context.Background()

	out, err := srv.engine.Process(ctx, engine.Input{UserInput: "A personal blog"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"session_id": out.SessionID, "user_response": "Mostly recipes and photos"}
	result, err := srv.handleContinueConversation(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), out.SessionID) {
		t.Error("reply should continue the same session")
	}

	info, err := srv.engine.SessionInfo(out.SessionID)
	if err != nil {
		t.Fatalf("SessionInfo: %v", err)
	}
	if info.Turns != 4 {
		t.Errorf("Turns = %d, want 4", info.Turns)
	}

	missing := mcp.CallToolRequest{}
	missing.Params.Arguments = map[string]any{"session_id": out.SessionID}
	result, _ = srv.handleContinueConversation(ctx, missing)
	if !result.IsError {
		t.Error("expected error for missing user_response")
	}
}

func TestHandleGetSessionInfo(t *testing.T) {
	srv := newTestServer(&mockProvider{})
	ctx := context.Background()

	out, err := srv.engine.Process(ctx, engine.Input{UserInput: "A personal blog with search"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"session_id": out.SessionID}
	result, err := srv.handleGetSessionInfo(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{"- Project type: blog", "- Detected features: search", "- Turns: 2"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}

	req.Params.Arguments = map[string]any{"session_id": "nope"}
	result, _ = srv.handleGetSessionInfo(ctx, req)
	if !result.IsError {
		t.Error("expected error for unknown session")
	}
}

func TestCompletionFailureIsReported(t *testing.T) {
	cerr := &llm.CompletionError{Attempts: []llm.Attempt{
		{Transport: "sampling", Status: llm.StatusNoFn},
		{Transport: "openai", Status: llm.StatusError, Detail: "401"},
	}}
	srv := newTestServer(&mockProvider{err: cerr})

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"user_input": "A store for my pottery"}
	result, err := srv.handleGeneratePRD(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error")
	}
	if text := resultText(t, result); !strings.Contains(text, "sampling: no-fn; openai: error (401)") {
		t.Errorf("error text = %q", text)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: empty", engine.ErrInvalidInput), "1 to 2000 characters"},
		{&prd.ValidationError{Missing: []string{"metadata.name"}}, "Missing: metadata.name"},
		{errors.New("boom"), "Request failed: boom"},
	}
	for _, tt := range tests {
		if got := errorMessage(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("errorMessage(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}

func TestFormatOutputDocument(t *testing.T) {
	out := &engine.Output{
		Type:      engine.TypePRD,
		SessionID: "sess-1",
		Content: engine.Content{
			Message: "Your product requirements document is ready.",
			PRD: &prd.Document{
				Metadata: prd.Metadata{Name: "Crumb"},
			},
		},
	}
	text := formatOutput(out)
	for _, want := range []string{"Your product requirements document is ready.\n\n# Crumb", "session_id: `sess-1`"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

// samplingClient plays the connected MCP client's model.
type samplingClient struct {
	calls int
}

func (c *samplingClient) CreateMessage(_ context.Context, req mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	c.calls++
	text := `{"response":"Tell me about the shop","type":"question"}`
	if tc, ok := req.Messages[0].Content.(mcp.TextContent); ok && strings.Contains(tc.Text, "# Intent classifier") {
		text = `{"project_type":"ecommerce","confidence":92}`
	}
	return &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{Role: mcp.RoleAssistant, Content: mcp.NewTextContent(text)},
		Model:           "client-model",
	}, nil
}

func TestGeneratePRDUsesClientSampling(t *testing.T) {
	mcpServer := NewMCPServer("specsprite-test")
	chain := llm.NewChain(time.Second, llm.NewSamplingTransport(mcpServer))
	srv := NewServer(mcpServer, engine.New(engine.Options{Provider: chain}))

	client := &samplingClient{}
	sess := server.NewInProcessSession("client-1", client)
	sess.SetClientCapabilities(mcp.ClientCapabilities{Sampling: &struct{}{}})
	ctx := mcpServer.WithContext(context.Background(), sess)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"user_input": "An online shop for vintage cameras"}
	result, err := srv.handleGeneratePRD(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	text := resultText(t, result)
	if !strings.Contains(text, "via sampling") || !strings.Contains(text, "persona: expert_ecommerce") {
		t.Errorf("result = %s", text)
	}
	if client.calls != 2 {
		t.Errorf("client sampled %d times, want 2", client.calls)
	}

	// Without a client session, the chain has nothing to fall back to.
	result, _ = srv.handleGeneratePRD(context.Background(), req)
	if !result.IsError || !strings.Contains(resultText(t, result), "sampling: no-fn") {
		t.Errorf("expected no-fn error, got %+v", result)
	}
}
