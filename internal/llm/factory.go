package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
)

// Transport names accepted by NewTransport.
const (
	TransportSampling   = "sampling"
	TransportOllama     = "ollama"
	TransportAnthropic  = "anthropic"
	TransportOpenAI     = "openai"
	TransportOpenRouter = "openrouter"
	TransportMinimax    = "minimax"
)

// DefaultTransports is the probe order used when none is configured.
var DefaultTransports = []string{TransportSampling, TransportOllama, TransportAnthropic, TransportOpenAI}

// DefaultModels are used for transports without a configured model.
var DefaultModels = map[string]string{
	TransportOllama:     "llama3.1",
	TransportAnthropic:  "claude-sonnet-4-5-20250929",
	TransportOpenAI:     "gpt-4o-mini",
	TransportOpenRouter: "openai/gpt-4o-mini",
	TransportMinimax:    "MiniMax-M1",
}

// Options configure the transports built by NewTransport and NewChainFromOptions.
type Options struct {
	Transports []string
	// Models overrides the model per transport name.
	Models map[string]string
	// BaseURL points the openai transport at a compatible endpoint.
	BaseURL string
	// OllamaHost falls back to OLLAMA_HOST. When both are empty the ollama
	// transport is unavailable.
	OllamaHost   string
	RateLimitRPM int
	Timeout      time.Duration
	// Server is required for the sampling transport to be available.
	Server *server.MCPServer
}

func (o Options) model(name string) string {
	if m := o.Models[name]; m != "" {
		return m
	}
	return DefaultModels[name]
}

// NewTransport creates one transport by name. Missing credentials do not
// fail here; the transport reports itself unavailable instead.
func NewTransport(name string, opts Options) (Transport, error) {
	var t Transport
	switch name {
	case TransportSampling:
		return NewSamplingTransport(opts.Server), nil

	case TransportOllama:
		host := opts.OllamaHost
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		return NewOllamaProvider(host, opts.model(name)), nil

	case TransportAnthropic:
		t = NewAnthropicProvider(os.Getenv("ANTHROPIC_API_KEY"), opts.model(name))

	case TransportOpenAI:
		t = NewOpenAIProvider(os.Getenv("OPENAI_API_KEY"), opts.model(name), opts.BaseURL)

	case TransportOpenRouter:
		t = newOpenAICompatible(name, os.Getenv("OPENROUTER_API_KEY"), opts.model(name), OpenRouterBaseURL)

	case TransportMinimax:
		t = newOpenAICompatible(name, os.Getenv("MINIMAX_API_KEY"), opts.model(name), MinimaxBaseURL)

	default:
		return nil, fmt.Errorf("unsupported transport: %s", name)
	}

	if opts.RateLimitRPM > 0 {
		t = NewRateLimited(t, opts.RateLimitRPM)
	}
	return t, nil
}

// NewChainFromOptions builds a chain from the configured transport names.
func NewChainFromOptions(opts Options) (*Chain, error) {
	names := opts.Transports
	if len(names) == 0 {
		names = DefaultTransports
	}
	transports := make([]Transport, 0, len(names))
	for _, name := range names {
		t, err := NewTransport(name, opts)
		if err != nil {
			return nil, err
		}
		transports = append(transports, t)
	}
	return NewChain(opts.Timeout, transports...), nil
}
