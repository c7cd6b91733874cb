package engine

import (
	"errors"

	"github.com/ziadkadry99/specsprite/internal/llm"
	"github.com/ziadkadry99/specsprite/internal/prd"
)

// MaxInputRunes bounds the trimmed user input.
const MaxInputRunes = 2000

var (
	// ErrInvalidInput is returned for empty or oversized user input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionNotFound is returned when no live session has the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoDocument is returned when a session has not produced a document yet.
	ErrNoDocument = errors.New("session has no document yet")
	// ErrCompletionFailed matches the error returned when every completion
	// transport failed. Use errors.As with *llm.CompletionError for the attempts.
	ErrCompletionFailed = llm.ErrCompletionFailed
)

// OutputType tells the caller how to present a response.
type OutputType string

const (
	TypeConversation  OutputType = "conversation"
	TypeClarification OutputType = "clarification"
	TypePRD           OutputType = "prd"
)

// Input is one user message.
type Input struct {
	UserInput string `json:"user_input"`
	// SessionID resumes a session. Empty, unknown or expired ids start a new one.
	SessionID string `json:"session_id,omitempty"`
}

// Output is the response to one Input.
type Output struct {
	Type      OutputType `json:"type"`
	SessionID string     `json:"session_id"`
	Content   Content    `json:"content"`
}

// Content is the body of an Output.
type Content struct {
	Message     string        `json:"message"`
	Questions   []string      `json:"questions"`
	Suggestions []string      `json:"suggestions"`
	PRD         *prd.Document `json:"prd,omitempty"`
	DebugInfo   *DebugInfo    `json:"debug_info,omitempty"`
}

// DebugInfo explains how a response was produced.
type DebugInfo struct {
	Persona    string `json:"persona"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
	Transport  string `json:"transport,omitempty"`
}
