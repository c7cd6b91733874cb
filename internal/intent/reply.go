package intent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ziadkadry99/specsprite/internal/llm"
	"github.com/ziadkadry99/specsprite/internal/session"
)

// ReplyKind classifies a conversational reply.
type ReplyKind string

const (
	KindQuestion   ReplyKind = "question"
	KindSuggestion ReplyKind = "suggestion"
	KindCompletion ReplyKind = "completion"
)

const (
	// HistoryWindow is the number of most recent turns shown to the model.
	HistoryWindow = 5

	replyConfidence   = 70
	replyTemp         = 0.7
	replyMaxTokens    = 1000
	maxModelQuestions = 2
)

// MetaPrompt is the default system prompt for conversational replies.
const MetaPrompt = `You are SpecSprite, a requirements guide. Through conversation you help users turn vague project ideas into clear, structured product requirements documents.

Principles:
1. Be professional and friendly.
2. Give advice grounded in your expert role.
3. Ask clarifying questions to understand the requirements.
4. Move towards generating the document once enough is known.`

// Reply is a parsed conversational reply.
type Reply struct {
	Message    string    `json:"response"`
	Kind       ReplyKind `json:"type"`
	Confidence int       `json:"confidence"`
	// Questions holds follow-up questions the model asked for explicitly.
	Questions []string `json:"questions,omitempty"`
}

// ReplyPrompt builds the conversational prompt from the persona, the recent
// turns and the accumulated context.
func ReplyPrompt(userInput, persona string, history []session.Turn, c *session.Context) string {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	lines := make([]string, len(history))
	for i, t := range history {
		lines[i] = fmt.Sprintf("%s: %s", t.Role, t.Content)
	}

	return fmt.Sprintf(`%s

## Conversation history
%s

## Accumulated context
%s

## Current user input
%q

## Instructions
1. Answer as the expert described above.
2. If information is missing, ask one or two targeted clarifying questions.
3. If there is enough information, summarise and prepare to generate the document.
4. Keep the conversation natural.
5. Reply with JSON: {"response": "<reply>", "type": "question|suggestion|completion", "confidence": 85, "questions": ["<optional follow-up>"]}`,
		persona, strings.Join(lines, "\n"), ContextSummary(c), userInput)
}

// ContextSummary renders the accumulated context for a prompt.
func ContextSummary(c *session.Context) string {
	pt := string(c.ProjectType)
	if pt == "" {
		pt = "undetermined"
	}
	prefs := make([]string, 0, len(c.Preferences))
	for k, v := range c.Preferences {
		prefs = append(prefs, k+": "+v)
	}
	sort.Strings(prefs)

	return fmt.Sprintf(`Current understanding:
- Project type: %s
- Detected features: %s
- User preferences: %s
- Tech preferences: %s`, pt, orNone(c.Features), orNone(prefs), orNone(c.TechPreferences))
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

type rawReply struct {
	Response   string   `json:"response"`
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Questions  []string `json:"questions"`
}

// ParseReply reads the model's reply. Output that is not JSON is used
// verbatim as the message.
func ParseReply(content string) Reply {
	var raw rawReply
	if !decodeObject(content, &raw) {
		kind := KindSuggestion
		if strings.ContainsAny(content, "?？") {
			kind = KindQuestion
		}
		return Reply{Message: strings.TrimSpace(content), Kind: kind, Confidence: replyConfidence}
	}

	r := Reply{
		Message:    strings.TrimSpace(raw.Response),
		Kind:       ReplyKind(strings.ToLower(strings.TrimSpace(raw.Type))),
		Confidence: clampConfidence(raw.Confidence, replyConfidence),
	}
	if r.Message == "" {
		r.Message = strings.TrimSpace(content)
	}
	switch r.Kind {
	case KindQuestion, KindSuggestion, KindCompletion:
	default:
		r.Kind = KindSuggestion
	}
	for _, q := range raw.Questions {
		if q = strings.TrimSpace(q); q != "" && len(r.Questions) < maxModelQuestions {
			r.Questions = append(r.Questions, q)
		}
	}
	return r
}

// Respond asks the provider for a conversational reply.
func Respond(ctx context.Context, p llm.Provider, system, persona, userInput string, history []session.Turn, c *session.Context) (Reply, *llm.CompletionResponse, error) {
	req := llm.Prompt(ReplyPrompt(userInput, persona, history, c), replyTemp, replyMaxTokens)
	if system != "" {
		req.Messages = append([]llm.Message{{Role: llm.RoleSystem, Content: system}}, req.Messages...)
	}
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return Reply{}, nil, err
	}
	return ParseReply(resp.Content), resp, nil
}
