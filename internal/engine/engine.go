// Package engine runs one conversation step: it merges what the user said
// into the session, classifies the project, scores readiness and either
// continues the conversation or assembles the document.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ziadkadry99/specsprite/internal/audit"
	"github.com/ziadkadry99/specsprite/internal/clarify"
	"github.com/ziadkadry99/specsprite/internal/extract"
	"github.com/ziadkadry99/specsprite/internal/intent"
	"github.com/ziadkadry99/specsprite/internal/llm"
	"github.com/ziadkadry99/specsprite/internal/persona"
	"github.com/ziadkadry99/specsprite/internal/prd"
	"github.com/ziadkadry99/specsprite/internal/readiness"
	"github.com/ziadkadry99/specsprite/internal/session"
)

// DefaultMinConfidence is the completeness a ready session needs before a
// document is assembled.
const DefaultMinConfidence = 75

const (
	actorID         = "specsprite"
	documentMessage = "Your product requirements document is ready."
	cachedMessage   = "This session is complete. Here is the document it produced."
)

// Options configures an Engine.
type Options struct {
	Session session.Options
	// Provider answers classification and reply requests, usually an *llm.Chain.
	Provider llm.Provider
	// Personas defaults to the built-in personas.
	Personas *persona.Registry
	// SystemPrompt defaults to intent.MetaPrompt.
	SystemPrompt  string
	MinConfidence int
	// Audit is optional.
	Audit *audit.Store
}

// Engine is the conversation orchestrator. It is safe for concurrent use;
// requests for the same session are serialized on the session lock.
type Engine struct {
	store         *session.Store
	provider      llm.Provider
	personas      *persona.Registry
	systemPrompt  string
	minConfidence int
	audit         *audit.Store
	now           func() time.Time

	mu     sync.Mutex
	stop   context.CancelFunc
	closed bool
}

// New creates an Engine and its session store.
func New(opts Options) *Engine {
	e := &Engine{
		provider:      opts.Provider,
		personas:      opts.Personas,
		systemPrompt:  opts.SystemPrompt,
		minConfidence: opts.MinConfidence,
		audit:         opts.Audit,
		now:           opts.Session.Now,
	}
	if e.personas == nil {
		e.personas = persona.LoadRegistry(persona.NewLoader(""))
	}
	if e.systemPrompt == "" {
		e.systemPrompt = intent.MetaPrompt
	}
	if e.minConfidence <= 0 {
		e.minConfidence = DefaultMinConfidence
	}
	if e.now == nil {
		e.now = time.Now
	}

	onExpire := opts.Session.OnExpire
	opts.Session.OnExpire = func(id string) {
		e.record(context.Background(), audit.Entry{
			ActorType: audit.ActorSystem,
			ActorID:   actorID,
			Action:    audit.ActionSessionExpired,
			SessionID: id,
			Summary:   "Session expired after inactivity",
		})
		if onExpire != nil {
			onExpire(id)
		}
	}
	e.store = session.NewStore(opts.Session)
	return e
}

// Store returns the engine's session store.
func (e *Engine) Store() *session.Store {
	return e.store
}

// Start launches the expiry sweeper, replacing any sweeper a previous call
// started. It stops when ctx is cancelled or Close is called. Start after
// Close does nothing.
func (e *Engine) Start(ctx context.Context, interval time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.stop != nil {
		e.stop()
	}
	ctx, cancel := context.WithCancel(ctx)
	e.stop = cancel
	e.store.StartSweeper(ctx, interval)
}

// Close stops the sweeper. It is safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		e.stop()
		e.stop = nil
	}
	e.closed = true
}

// Process handles one user message. On error the session is left exactly
// as it was before the call.
func (e *Engine) Process(ctx context.Context, in Input) (*Output, error) {
	text := strings.TrimSpace(in.UserInput)
	if n := utf8.RuneCountInString(text); n == 0 || n > MaxInputRunes {
		return nil, fmt.Errorf("%w: user input must be 1 to %d characters, got %d", ErrInvalidInput, MaxInputRunes, n)
	}

	sess, created := e.store.GetOrCreate(in.SessionID)
	if created {
		e.record(ctx, audit.Entry{
			ActorType:     audit.ActorUser,
			ActorID:       "anonymous",
			Action:        audit.ActionSessionCreated,
			SessionID:     sess.ID,
			Summary:       "Session started",
			PreviousValue: in.SessionID,
		})
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.Status == session.StatusCompleted {
		return e.cached(sess)
	}

	snap := sess.Snapshot()
	out, err := e.step(ctx, sess, text)
	if err != nil {
		sess.Restore(snap)
		e.recordFailure(ctx, sess.ID, err)
		return nil, err
	}
	return out, nil
}

func (e *Engine) step(ctx context.Context, sess *session.Session, text string) (*Output, error) {
	found := extract.Extract(text)
	found.ApplyTo(&sess.Context)

	meta := &session.TurnMetadata{
		Features:   found.Features,
		Complexity: string(found.Complexity),
	}
	// The first classified type sticks so it cannot oscillate between turns.
	if !sess.Context.ProjectType.Known() || len(sess.Turns) == 0 {
		c := e.classify(ctx, sess, text)
		meta.Intent = string(c.ProjectType)
		meta.Confidence = c.Confidence
	}
	e.store.RecordTurn(sess, session.RoleUser, text, meta)

	sess.ReadinessScore = readiness.Score(sess)
	analysis := readiness.Analyze(sess)

	if analysis.Ready && analysis.Completeness >= e.minConfidence {
		return e.assemble(ctx, sess, analysis)
	}
	return e.converse(ctx, sess, text, analysis)
}

func (e *Engine) classify(ctx context.Context, sess *session.Session, text string) intent.Classification {
	c, resp, err := intent.Classify(ctx, e.provider, text)
	if err != nil {
		log.Printf("engine: classification failed for %s, using keyword fallback: %v", sess.ID, err)
		e.record(ctx, audit.Entry{
			ActorType: audit.ActorSystem,
			ActorID:   actorID,
			Action:    audit.ActionClassificationFallback,
			SessionID: sess.ID,
			Summary:   fmt.Sprintf("Keyword fallback classified the input as %s", c.ProjectType),
			Detail:    err.Error(),
			Attempts:  attemptsOf(err),
		})
	}

	previous := sess.Context.ProjectType
	if sess.Context.SetProjectType(c.ProjectType, c.Confidence) {
		entry := audit.Entry{
			ActorType:     audit.ActorModel,
			ActorID:       e.provider.Name(),
			Action:        audit.ActionProjectClassified,
			SessionID:     sess.ID,
			Summary:       fmt.Sprintf("Classified as %s (%d%%)", c.ProjectType, c.Confidence),
			Detail:        c.Reasoning,
			PreviousValue: string(previous),
			NewValue:      string(c.ProjectType),
		}
		if resp != nil {
			entry.Transport = resp.Transport
			entry.Attempts = formatAttempts(resp.Attempts)
		}
		e.record(ctx, entry)
	}
	return c
}

func (e *Engine) converse(ctx context.Context, sess *session.Session, text string, analysis readiness.Analysis) (*Output, error) {
	p := e.personas.For(sess.Context.ProjectType)
	sess.Persona = p.ID

	reply, resp, err := intent.Respond(ctx, e.provider, e.systemPrompt, p.Prompt(), text, sess.Turns, &sess.Context)
	if err != nil {
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	e.store.RecordTurn(sess, session.RoleAssistant, reply.Message, &session.TurnMetadata{
		Confidence: reply.Confidence,
		Persona:    p.ID,
		ReplyKind:  string(reply.Kind),
		Transport:  resp.Transport,
	})
	e.record(ctx, audit.Entry{
		ActorType: audit.ActorModel,
		ActorID:   e.provider.Name(),
		Action:    audit.ActionReplyGenerated,
		SessionID: sess.ID,
		Summary:   fmt.Sprintf("%s reply as %s", reply.Kind, p.ID),
		Detail:    resp.Usage(),
		Transport: resp.Transport,
		Attempts:  formatAttempts(resp.Attempts),
	})

	questions := reply.Questions
	if len(questions) == 0 {
		questions = analysis.Questions
	}
	if len(questions) == 0 {
		questions = clarify.Questions(&sess.Context)
	}

	typ := TypeClarification
	if reply.Kind == intent.KindCompletion {
		typ = TypeConversation
	}
	return &Output{
		Type:      typ,
		SessionID: sess.ID,
		Content: Content{
			Message:     reply.Message,
			Questions:   questions,
			Suggestions: []string{},
			DebugInfo: &DebugInfo{
				Persona:    p.ID,
				Confidence: analysis.Completeness,
				Reasoning:  fmt.Sprintf("completeness %d%%, type %s", analysis.Completeness, sess.Context.ProjectType.OrGeneric()),
				Transport:  resp.Transport,
			},
		},
	}, nil
}

func (e *Engine) assemble(ctx context.Context, sess *session.Session, analysis readiness.Analysis) (*Output, error) {
	doc := prd.Build(sess, e.now())
	if err := prd.Validate(doc).Err(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	p := e.personas.For(sess.Context.ProjectType)
	sess.Persona = p.ID
	sess.Document = raw
	sess.Status = session.StatusCompleted
	e.store.RecordTurn(sess, session.RoleAssistant, documentMessage, &session.TurnMetadata{
		Confidence: doc.Metadata.ConfidenceScore,
		Persona:    p.ID,
		ReplyKind:  string(intent.KindCompletion),
	})

	log.Printf("engine: session %s produced document %q", sess.ID, doc.Metadata.Name)
	e.record(ctx, audit.Entry{
		ActorType: audit.ActorSystem,
		ActorID:   actorID,
		Action:    audit.ActionDocumentGenerated,
		SessionID: sess.ID,
		Summary:   fmt.Sprintf("Generated document %q", doc.Metadata.Name),
		NewValue:  doc.Metadata.Name,
	})

	return &Output{
		Type:      TypePRD,
		SessionID: sess.ID,
		Content: Content{
			Message:     documentMessage,
			Questions:   []string{},
			Suggestions: doc.NextSteps,
			PRD:         doc,
			DebugInfo: &DebugInfo{
				Persona:    p.ID,
				Confidence: analysis.Completeness,
				Reasoning:  fmt.Sprintf("completeness %d%%, readiness score %d", analysis.Completeness, sess.ReadinessScore),
			},
		},
	}, nil
}

func (e *Engine) cached(sess *session.Session) (*Output, error) {
	doc, err := decodeDocument(sess.Document)
	if err != nil {
		return nil, err
	}
	return &Output{
		Type:      TypePRD,
		SessionID: sess.ID,
		Content: Content{
			Message:     cachedMessage,
			Questions:   []string{},
			Suggestions: doc.NextSteps,
			PRD:         doc,
		},
	}, nil
}

// SessionInfo returns a read-only summary of a live session.
func (e *Engine) SessionInfo(id string) (session.Summary, error) {
	s, ok := e.store.Summarize(id)
	if !ok {
		return session.Summary{}, ErrSessionNotFound
	}
	return s, nil
}

// Document returns the document produced by a completed session.
func (e *Engine) Document(id string) (*prd.Document, error) {
	sess, ok := e.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Lock()
	defer sess.Unlock()
	if sess.Status != session.StatusCompleted {
		return nil, ErrNoDocument
	}
	return decodeDocument(sess.Document)
}

func decodeDocument(raw json.RawMessage) (*prd.Document, error) {
	var doc prd.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding cached document: %w", err)
	}
	return &doc, nil
}

func (e *Engine) recordFailure(ctx context.Context, sessionID string, err error) {
	entry := audit.Entry{
		ActorType: audit.ActorSystem,
		ActorID:   actorID,
		SessionID: sessionID,
		Detail:    err.Error(),
	}
	var verr *prd.ValidationError
	switch {
	case errors.As(err, &verr):
		entry.Action = audit.ActionValidationFailed
		entry.Summary = "Document failed validation: missing " + strings.Join(verr.Missing, ", ")
	case errors.Is(err, ErrCompletionFailed):
		entry.Action = audit.ActionCompletionFailed
		entry.Summary = "Every completion transport failed"
		entry.Attempts = attemptsOf(err)
	default:
		entry.Action = audit.ActionCompletionFailed
		entry.Summary = "Request failed"
	}
	log.Printf("engine: session %s: %v", sessionID, err)
	e.record(ctx, entry)
}

// record writes an audit entry. Audit failures are logged, never returned.
func (e *Engine) record(ctx context.Context, entry audit.Entry) {
	if e.audit == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = e.now()
	}
	if err := e.audit.Log(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("engine: WARNING: audit entry %s not written: %v", entry.Action, err)
	}
}

func attemptsOf(err error) []string {
	var cerr *llm.CompletionError
	if errors.As(err, &cerr) {
		return formatAttempts(cerr.Attempts)
	}
	return nil
}

func formatAttempts(attempts []llm.Attempt) []string {
	if len(attempts) == 0 {
		return nil
	}
	out := make([]string, len(attempts))
	for i, a := range attempts {
		out[i] = a.String()
	}
	return out
}
