package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/ziadkadry99/specsprite/internal/llm"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".specsprite.yml"

const envPrefix = "SPECSPRITE_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SPECSPRITE_*). Nested keys use a double
// underscore: SPECSPRITE_LLM__TIMEOUT_SECONDS sets llm.timeout_seconds.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps SPECSPRITE_LLM__TRANSPORTS=a,b to llm.transports = [a b].
func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "llm.transports" {
		return key, splitAndTrim(value)
	}
	return key, value
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validTransports is the set of recognized transport names.
var validTransports = map[string]bool{
	llm.TransportSampling:   true,
	llm.TransportOllama:     true,
	llm.TransportAnthropic:  true,
	llm.TransportOpenAI:     true,
	llm.TransportOpenRouter: true,
	llm.TransportMinimax:    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server.name is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	if len(c.LLM.Transports) == 0 {
		return fmt.Errorf("llm.transports must name at least one transport")
	}
	seen := make(map[string]bool)
	for _, t := range c.LLM.Transports {
		if !validTransports[t] {
			return fmt.Errorf("invalid transport %q: must be one of sampling, ollama, anthropic, openai, openrouter, minimax", t)
		}
		if seen[t] {
			return fmt.Errorf("transport %q listed twice", t)
		}
		seen[t] = true
	}
	for name := range c.LLM.Models {
		if !validTransports[name] {
			return fmt.Errorf("llm.models has unknown transport %q", name)
		}
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds must be non-negative")
	}
	if c.LLM.RateLimitRPM < 0 {
		return fmt.Errorf("llm.rate_limit_rpm must be non-negative")
	}

	if c.Conversation.SessionTimeoutMinutes <= 0 {
		return fmt.Errorf("conversation.session_timeout_minutes must be positive")
	}
	if c.Conversation.MaxTurns <= 0 {
		return fmt.Errorf("conversation.max_turns must be positive")
	}
	if c.Conversation.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("conversation.sweep_interval_minutes must be positive")
	}
	if c.Conversation.MinConfidence < 0 || c.Conversation.MinConfidence > 100 {
		return fmt.Errorf("conversation.min_confidence must be between 0 and 100")
	}

	return nil
}

// LLMOptions converts the llm section into transport options. The MCP
// server is only needed for the sampling transport.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Transports:   c.LLM.Transports,
		Models:       c.LLM.Models,
		BaseURL:      c.LLM.BaseURL,
		OllamaHost:   c.LLM.OllamaHost,
		RateLimitRPM: c.LLM.RateLimitRPM,
		Timeout:      c.LLM.Timeout(),
	}
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given transport.
func APIKeyEnvVar(transport string) string {
	switch transport {
	case llm.TransportAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.TransportOpenAI:
		return "OPENAI_API_KEY"
	case llm.TransportOpenRouter:
		return "OPENROUTER_API_KEY"
	case llm.TransportMinimax:
		return "MINIMAX_API_KEY"
	default:
		return ""
	}
}

// splitAndTrim splits a comma-separated string and drops empty entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
