package config

// Config is the top-level specsprite configuration, corresponding to .specsprite.yml.
type Config struct {
	Server       ServerConfig       `yaml:"server" koanf:"server"`
	LLM          LLMConfig          `yaml:"llm" koanf:"llm"`
	Conversation ConversationConfig `yaml:"conversation" koanf:"conversation"`
	Personas     PersonasConfig     `yaml:"personas" koanf:"personas"`
	Audit        AuditConfig        `yaml:"audit" koanf:"audit"`
}

// ServerConfig holds settings shared by the MCP and HTTP front ends.
type ServerConfig struct {
	Name            string `yaml:"name" koanf:"name"`
	Port            int    `yaml:"port" koanf:"port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// LLMConfig selects and tunes the completion transports.
type LLMConfig struct {
	// Transports is the probe order. The first available transport that
	// succeeds answers the request.
	Transports     []string          `yaml:"transports" koanf:"transports"`
	Models         map[string]string `yaml:"models,omitempty" koanf:"models"`
	BaseURL        string            `yaml:"base_url,omitempty" koanf:"base_url"`
	OllamaHost     string            `yaml:"ollama_host,omitempty" koanf:"ollama_host"`
	TimeoutSeconds int               `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	RateLimitRPM   int               `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
}

// ConversationConfig bounds sessions and the document gate.
type ConversationConfig struct {
	SessionTimeoutMinutes int `yaml:"session_timeout_minutes" koanf:"session_timeout_minutes"`
	MaxTurns              int `yaml:"max_turns" koanf:"max_turns"`
	SweepIntervalMinutes  int `yaml:"sweep_interval_minutes" koanf:"sweep_interval_minutes"`
	// MinConfidence is the completeness a ready session needs before the
	// document is assembled.
	MinConfidence int `yaml:"min_confidence" koanf:"min_confidence"`
}

// PersonasConfig locates the persona Markdown files.
type PersonasConfig struct {
	Dir string `yaml:"dir" koanf:"dir"`
}

// AuditConfig controls the audit log. An empty Path keeps it in memory.
type AuditConfig struct {
	Path string `yaml:"path,omitempty" koanf:"path"`
}
