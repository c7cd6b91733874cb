package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MockProvider is a test transport that records calls and returns canned responses.
type MockProvider struct {
	mu          sync.Mutex
	Calls       []CompletionRequest
	Response    *CompletionResponse
	Err         error
	ProvName    string
	Unavailable bool
	// Block makes Complete wait for ctx to be done.
	Block bool
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Available(context.Context) bool {
	return !m.Unavailable
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	block, err, resp := m.Block, m.Err, m.Response
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	out := *resp
	return &out, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- Tests ---

func TestChainFirstSuccessWins(t *testing.T) {
	skipped := NewMockProvider("sampling")
	skipped.Unavailable = true
	failing := NewMockProvider("ollama")
	failing.Err = errors.New("connection refused")
	ok := NewMockProvider("anthropic")
	never := NewMockProvider("openai")

	chain := NewChain(time.Second, skipped, failing, ok, never)
	resp, err := chain.Complete(context.Background(), Prompt("hello", 0.3, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Transport != "anthropic" {
		t.Errorf("Transport = %q, want anthropic", resp.Transport)
	}
	want := []Attempt{
		{Transport: "sampling", Status: StatusNoFn},
		{Transport: "ollama", Status: StatusError, Detail: "connection refused"},
		{Transport: "anthropic", Status: StatusSuccess},
	}
	if len(resp.Attempts) != len(want) {
		t.Fatalf("Attempts = %+v, want %+v", resp.Attempts, want)
	}
	for i := range want {
		if resp.Attempts[i] != want[i] {
			t.Errorf("Attempts[%d] = %+v, want %+v", i, resp.Attempts[i], want[i])
		}
	}
	if skipped.CallCount() != 0 || never.CallCount() != 0 {
		t.Error("unavailable and later transports must not be called")
	}
	if got := ok.Calls[0].Messages[0].Content; got != "hello" {
		t.Errorf("prompt = %q, want hello", got)
	}
}

func TestChainAllFail(t *testing.T) {
	a := NewMockProvider("sampling")
	a.Unavailable = true
	b := NewMockProvider("ollama")
	b.Err = errors.New("boom")
	c := NewMockProvider("openai")
	c.Response = &CompletionResponse{Content: "   "}

	_, err := NewChain(time.Second, a, b, c).Complete(context.Background(), Prompt("x", 0.7, 10))
	if !errors.Is(err, ErrCompletionFailed) {
		t.Fatalf("err = %v, want ErrCompletionFailed", err)
	}
	var cerr *CompletionError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %T, want *CompletionError", err)
	}
	if len(cerr.Attempts) != 3 {
		t.Fatalf("Attempts = %+v, want 3", cerr.Attempts)
	}
	if cerr.Attempts[2].Status != StatusError || cerr.Attempts[2].Detail != "empty completion" {
		t.Errorf("empty content attempt = %+v", cerr.Attempts[2])
	}
	if !strings.Contains(err.Error(), "sampling: no-fn") {
		t.Errorf("Error() = %q, want it to list attempts", err.Error())
	}
}

func TestChainAttemptTimeout(t *testing.T) {
	slow := NewMockProvider("ollama")
	slow.Block = true
	fast := NewMockProvider("openai")

	resp, err := NewChain(50*time.Millisecond, slow, fast).Complete(context.Background(), Prompt("x", 0.7, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Transport != "openai" {
		t.Errorf("Transport = %q, want openai", resp.Transport)
	}
	if a := resp.Attempts[0]; a.Status != StatusError || !strings.Contains(a.Detail, "timed out") {
		t.Errorf("first attempt = %+v, want timeout error", a)
	}
}

func TestChainNoTransports(t *testing.T) {
	_, err := NewChain(0).Complete(context.Background(), Prompt("x", 0, 0))
	if !errors.Is(err, ErrCompletionFailed) {
		t.Errorf("err = %v, want ErrCompletionFailed", err)
	}
}

func TestFactoryReturnsErrorForUnknownTransport(t *testing.T) {
	if _, err := NewTransport("unknown", Options{}); err == nil {
		t.Error("expected error for unknown transport")
	}
	if _, err := NewChainFromOptions(Options{Transports: []string{"openai", "nope"}}); err == nil {
		t.Error("expected error for unknown transport in chain")
	}
}

func TestFactoryAvailability(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENROUTER_API_KEY", "")
	ctx := context.Background()

	tests := []struct {
		name string
		opts Options
		want bool
	}{
		{TransportSampling, Options{}, false},
		{TransportOllama, Options{}, false},
		{TransportOllama, Options{OllamaHost: "http://localhost:11434"}, true},
		{TransportAnthropic, Options{}, false},
		{TransportOpenAI, Options{RateLimitRPM: 10}, true},
		{TransportOpenRouter, Options{}, false},
	}
	for _, tt := range tests {
		tr, err := NewTransport(tt.name, tt.opts)
		if err != nil {
			t.Fatalf("NewTransport(%s): %v", tt.name, err)
		}
		if tr.Name() != tt.name {
			t.Errorf("Name() = %q, want %q", tr.Name(), tt.name)
		}
		if got := tr.Available(ctx); got != tt.want {
			t.Errorf("%s Available = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFactoryOllamaHostFromEnv(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	tr, err := NewTransport(TransportOllama, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ollamaP, ok := tr.(*OllamaProvider)
	if !ok {
		t.Fatal("expected *OllamaProvider")
	}
	if ollamaP.baseURL != "http://gpu-box:11434" {
		t.Errorf("expected host from env, got %q", ollamaP.baseURL)
	}
	if ollamaP.model != DefaultModels[TransportOllama] {
		t.Errorf("model = %q, want default", ollamaP.model)
	}
}

func TestChainFromOptionsDefaultOrder(t *testing.T) {
	chain, err := NewChainFromOptions(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := strings.Join(chain.Transports(), ",")
	if got != "sampling,ollama,anthropic,openai" {
		t.Errorf("Transports = %s", got)
	}
}

type samplingHandler struct {
	got    mcp.CreateMessageRequest
	result *mcp.CreateMessageResult
}

func (h *samplingHandler) CreateMessage(_ context.Context, req mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	h.got = req
	return h.result, nil
}

func samplingContext(srv *server.MCPServer, h *samplingHandler, declare bool) context.Context {
	sess := server.NewInProcessSession("s1", h)
	if declare {
		sess.SetClientCapabilities(mcp.ClientCapabilities{Sampling: &struct{}{}})
	}
	return srv.WithContext(context.Background(), sess)
}

func TestSamplingTransport(t *testing.T) {
	srv := server.NewMCPServer("test", "0.0.1")
	srv.EnableSampling()
	h := &samplingHandler{result: &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{Role: mcp.RoleAssistant, Content: mcp.NewTextContent(`{"response":"hi"}`)},
		Model:           "client-model",
		StopReason:      "endTurn",
	}}
	tr := NewSamplingTransport(srv)

	if tr.Available(context.Background()) {
		t.Error("sampling must be unavailable without a client session")
	}
	if tr.Available(samplingContext(srv, h, false)) {
		t.Error("sampling must be unavailable when the client did not declare it")
	}

	ctx := samplingContext(srv, h, true)
	if !tr.Available(ctx) {
		t.Fatal("sampling should be available")
	}
	req := CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "hello"},
		},
		Temperature: 0.3,
		Metadata:    map[string]any{"session_id": "abc"},
	}
	resp, err := tr.Complete(ctx, req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"response":"hi"}` || resp.Model != "client-model" {
		t.Errorf("resp = %+v", resp)
	}
	p := h.got.CreateMessageParams
	if p.SystemPrompt != "be brief" || len(p.Messages) != 1 || p.MaxTokens != defaultSamplingMaxTokens {
		t.Errorf("params = %+v", p)
	}
	if p.Temperature != 0.3 || p.IncludeContext != "thisServer" {
		t.Errorf("params = %+v", p)
	}
}

func TestSamplingText(t *testing.T) {
	tc := mcp.NewTextContent("a")
	tests := []struct {
		name    string
		content any
		want    string
		ok      bool
	}{
		{"value", tc, "a", true},
		{"pointer", &tc, "a", true},
		{"string", "b", "b", true},
		{"decoded json", map[string]any{"type": "text", "text": "c"}, "c", true},
		{"image", mcp.ImageContent{Type: "image"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := samplingText(tt.content)
			if got != tt.want || ok != tt.ok {
				t.Errorf("samplingText = %q, %v, want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAnthropicProviderOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") != "2023-06-01" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Content:    []anthropicContent{{Type: "text", Text: "system=" + req.System}},
			Model:      req.Model,
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 3, OutputTokens: 4},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", "claude-test")
	p.url = srv.URL
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "system=sys" || resp.Model != "claude-test" || resp.OutputTokens != 4 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOllamaProviderOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "local reply"},
			Model:   "llama3.1",
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "llama3.1")
	resp, err := p.Complete(context.Background(), Prompt("hi", 0.7, 100))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "local reply" {
		t.Errorf("Content = %q", resp.Content)
	}

	srv.Close()
	if _, err := p.Complete(context.Background(), Prompt("hi", 0.7, 100)); err == nil {
		t.Error("expected error when host is down")
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimited(mock, 60)

	resp, err := rl.Complete(context.Background(), Prompt("hello", 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}

	mock.Unavailable = true
	if rl.Available(context.Background()) {
		t.Error("rate limiter must report the wrapped availability")
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	// Allow only 2 requests per minute.
	rl := NewRateLimited(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req := Prompt("hello", 0, 0)

	// First two should succeed immediately.
	for i := 0; i < 2; i++ {
		if _, err := rl.Complete(ctx, req); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	// The third slot is 30s away, past the deadline, so it fails at once.
	start := time.Now()
	_, err := rl.Complete(ctx, req)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Errorf("rate limited request waited %s before failing", time.Since(start))
	}
	if mock.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2", mock.CallCount())
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock := NewMockProvider("test")
	rl := newRateLimited(mock, 2, func() time.Time { return now })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req := Prompt("hello", 0, 0)

	for i := 0; i < 2; i++ {
		if _, err := rl.Complete(ctx, req); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if _, err := rl.Complete(ctx, req); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	// Half a minute at 2 rpm frees exactly one slot; the failed request
	// above handed its reservation back.
	now = now.Add(30 * time.Second)
	if _, err := rl.Complete(ctx, req); err != nil {
		t.Fatalf("request after refill: %v", err)
	}
	if _, err := rl.Complete(ctx, req); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited once the refilled slot is used", err)
	}
}

func TestAPIErrorInAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", "claude-test")
	p.url = srv.URL
	_, err := NewChain(time.Second, p).Complete(context.Background(), Prompt("hi", 0.3, 50))
	var cerr *CompletionError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *CompletionError", err)
	}
	a := cerr.Attempts[0]
	if a.HTTPStatus != http.StatusTooManyRequests {
		t.Errorf("HTTPStatus = %d, want 429", a.HTTPStatus)
	}
	if !strings.Contains(a.Detail, "HTTP 429: rate_limit_error: slow down") {
		t.Errorf("Detail = %q", a.Detail)
	}
}

func TestOllamaErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"mistral\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "mistral").Complete(context.Background(), Prompt("hi", 0.7, 100))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != `model "mistral" not found, try pulling it first` {
		t.Errorf("APIError = %+v", apiErr)
	}
	if httpStatusOf(err) != http.StatusNotFound {
		t.Errorf("httpStatusOf = %d", httpStatusOf(err))
	}
}

func TestAPIMessage(t *testing.T) {
	long := strings.Repeat("x", maxErrorRunes+10)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested", `{"error":{"message":"bad key"}}`, "bad key"},
		{"nested with type", `{"error":{"type":"auth","message":"bad key"}}`, "auth: bad key"},
		{"flat", `{"error":"no model"}`, "no model"},
		{"plain text", "  upstream timeout\n", "upstream timeout"},
		{"truncated", long, long[:maxErrorRunes] + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apiMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("apiMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnthropicPayload(t *testing.T) {
	req := Prompt("classify this", 0.3, 0)
	req.JSONMode = true
	req.Messages = append([]Message{{Role: RoleSystem, Content: "sys"}}, req.Messages...)

	got := anthropicPayload(req, "claude-test")
	if got.MaxTokens != anthropicMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", got.MaxTokens, anthropicMaxTokens)
	}
	if got.System != "sys\n\n"+anthropicJSONHint {
		t.Errorf("System = %q", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("Messages = %+v, want the user turn only", got.Messages)
	}
}

func TestEstimateCost(t *testing.T) {
	// claude-sonnet-4-5: $3/1M input, $15/1M output
	cost := EstimateCost("claude-sonnet-4-5-20250929", 1_000_000, 1_000_000)
	if cost < 17.99 || cost > 18.01 {
		t.Errorf("expected cost ~$18.00, got $%.2f", cost)
	}
	if cost := EstimateCost("llama3.1", 1000, 500); cost != 0 {
		t.Errorf("expected 0 for unpriced model, got %f", cost)
	}
}

func TestUsage(t *testing.T) {
	tests := []struct {
		resp CompletionResponse
		want string
	}{
		{CompletionResponse{Model: "gpt-4o-mini"}, ""},
		{CompletionResponse{Model: "llama3.1", InputTokens: 120, OutputTokens: 40}, "llama3.1: 120 input / 40 output tokens"},
		{CompletionResponse{Model: "gpt-4o", InputTokens: 1000, OutputTokens: 1000}, "gpt-4o: 1000 input / 1000 output tokens, about $0.0125"},
	}
	for _, tt := range tests {
		if got := tt.resp.Usage(); got != tt.want {
			t.Errorf("Usage() = %q, want %q", got, tt.want)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{"hello world!!", 3},
		{"a longer piece of text that has more characters", 11},
	}

	for _, tt := range tests {
		got := EstimateTokens(tt.text)
		if got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
