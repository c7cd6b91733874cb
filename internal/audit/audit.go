// Package audit records what happened to each session: creation and
// expiry, classification, which completion transport answered, generated
// documents and failures.
package audit

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
	ActorModel  ActorType = "model"
)

// Action describes what was done.
type Action string

const (
	ActionSessionCreated         Action = "session_created"
	ActionSessionExpired         Action = "session_expired"
	ActionProjectClassified      Action = "project_classified"
	ActionClassificationFallback Action = "classification_fallback"
	ActionReplyGenerated         Action = "reply_generated"
	ActionCompletionFailed       Action = "completion_failed"
	ActionDocumentGenerated      Action = "document_generated"
	ActionValidationFailed       Action = "validation_failed"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorType ActorType `json:"actor_type"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	SessionID string    `json:"session_id,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	// Transport names the completion transport that served the request.
	Transport string `json:"transport,omitempty"`
	// Attempts lists every transport tried, as "name: status".
	Attempts      []string `json:"attempts,omitempty"`
	PreviousValue string   `json:"previous_value,omitempty"`
	NewValue      string   `json:"new_value,omitempty"`
}
