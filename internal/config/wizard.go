package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/ziadkadry99/specsprite/internal/llm"
)

// fallbackChoices are the network transports offered after sampling.
var fallbackChoices = []struct {
	Name  string
	Label string
}{
	{llm.TransportOllama, "ollama     local models through an Ollama host"},
	{llm.TransportAnthropic, "anthropic  Claude through the Messages API"},
	{llm.TransportOpenAI, "openai     OpenAI or any compatible endpoint"},
	{llm.TransportOpenRouter, "openrouter many models through OpenRouter"},
	{llm.TransportMinimax, "minimax    MiniMax chat completions"},
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to specsprite! Let's configure how it talks to language models.")
	fmt.Println("When running as an MCP server, the connected client's own model is always tried first.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Fallback transport.
	labels := make([]string, len(fallbackChoices))
	for i, c := range fallbackChoices {
		labels[i] = c.Label
	}
	transportPrompt := promptui.Select{
		Label: "Select the fallback transport",
		Items: labels,
	}
	idx, _, err := transportPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("transport selection: %w", err)
	}
	fallback := fallbackChoices[idx].Name
	cfg.LLM.Transports = []string{llm.TransportSampling, fallback}

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   fmt.Sprintf("Model for %s", fallback),
		Default: llm.DefaultModels[fallback],
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if model != "" && model != llm.DefaultModels[fallback] {
		cfg.LLM.Models = map[string]string{fallback: model}
	}

	if fallback == llm.TransportOllama {
		hostPrompt := promptui.Prompt{
			Label:   "Ollama host",
			Default: "http://localhost:11434",
		}
		host, err := hostPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("ollama host: %w", err)
		}
		cfg.LLM.OllamaHost = host
	}

	// 3. HTTP port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port for specsprite server",
		Default: strconv.Itoa(DefaultPort),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 4. Persona directory.
	personaPrompt := promptui.Prompt{
		Label:   "Directory with persona Markdown files",
		Default: cfg.Personas.Dir,
	}
	dir, err := personaPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("persona dir: %w", err)
	}
	cfg.Personas.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(fallback); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before using the %s transport.\n", envVar, fallback)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
