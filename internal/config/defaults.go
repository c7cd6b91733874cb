package config

import (
	"time"

	"github.com/ziadkadry99/specsprite/internal/llm"
)

// DefaultPort is the HTTP port used when none is configured.
const DefaultPort = 8080

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "specsprite",
			Port: DefaultPort,
		},
		LLM: LLMConfig{
			Transports:     append([]string(nil), llm.DefaultTransports...),
			TimeoutSeconds: int(llm.DefaultAttemptTimeout / time.Second),
		},
		Conversation: ConversationConfig{
			SessionTimeoutMinutes: 30,
			MaxTurns:              50,
			SweepIntervalMinutes:  10,
			MinConfidence:         75,
		},
		Personas: PersonasConfig{
			Dir: "personas",
		},
	}
}

// SessionTimeout returns the idle timeout as a duration.
func (c ConversationConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

// SweepInterval returns the expiry sweep interval as a duration.
func (c ConversationConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// Timeout returns the per-attempt completion timeout as a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
