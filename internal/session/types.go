package session

import (
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ProjectType is the classified category of the described project.
// The zero value means the project has not been classified yet.
type ProjectType string

const (
	ProjectUnclassified ProjectType = ""
	ProjectBlog         ProjectType = "blog"
	ProjectEcommerce    ProjectType = "ecommerce"
	ProjectSaaS         ProjectType = "saas"
	ProjectPortfolio    ProjectType = "portfolio"
	ProjectLandingPage  ProjectType = "landing_page"
	ProjectGeneric      ProjectType = "generic"
)

// ProjectTypes lists every classifiable type, generic last.
var ProjectTypes = []ProjectType{
	ProjectSaaS,
	ProjectEcommerce,
	ProjectBlog,
	ProjectPortfolio,
	ProjectLandingPage,
	ProjectGeneric,
}

// ParseProjectType maps a label to a known project type.
func ParseProjectType(s string) (ProjectType, bool) {
	pt := ProjectType(s)
	if slices.Contains(ProjectTypes, pt) {
		return pt, true
	}
	return ProjectUnclassified, false
}

// Known reports whether the type is classified and more specific than generic.
func (p ProjectType) Known() bool {
	return p != ProjectUnclassified && p != ProjectGeneric
}

// OrGeneric returns the type, substituting generic when unclassified.
func (p ProjectType) OrGeneric() ProjectType {
	if p == ProjectUnclassified {
		return ProjectGeneric
	}
	return p
}

// TurnMetadata carries optional annotations attached to a turn.
type TurnMetadata struct {
	Intent     string   `json:"intent,omitempty"`
	Confidence int      `json:"confidence,omitempty"`
	Features   []string `json:"features,omitempty"`
	Complexity string   `json:"complexity,omitempty"`
	Persona    string   `json:"persona,omitempty"`
	ReplyKind  string   `json:"reply_kind,omitempty"`
	Transport  string   `json:"transport,omitempty"`
}

// Turn is one utterance within a session. Turns are never modified after
// they are appended.
type Turn struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Metadata  *TurnMetadata `json:"metadata,omitempty"`
}

// Constraints are the project limits mentioned by the user.
type Constraints struct {
	Budget               string `json:"budget,omitempty"`
	Timeline             string `json:"timeline,omitempty"`
	TeamSize             int    `json:"team_size,omitempty"`
	ComplexityPreference string `json:"complexity_preference,omitempty"`
}

// Count returns the number of constraint fields that are set.
func (c Constraints) Count() int {
	n := 0
	if c.Budget != "" {
		n++
	}
	if c.Timeline != "" {
		n++
	}
	if c.TeamSize > 0 {
		n++
	}
	if c.ComplexityPreference != "" {
		n++
	}
	return n
}

// Fill copies fields from o that are not yet set on c.
func (c *Constraints) Fill(o Constraints) {
	if c.Budget == "" {
		c.Budget = o.Budget
	}
	if c.Timeline == "" {
		c.Timeline = o.Timeline
	}
	if c.TeamSize == 0 {
		c.TeamSize = o.TeamSize
	}
	if c.ComplexityPreference == "" {
		c.ComplexityPreference = o.ComplexityPreference
	}
}

// Context is the running structured interpretation of a session's turns.
// Entries are only ever added; ProjectType is the one field that may be
// replaced, and only through SetProjectType.
type Context struct {
	ProjectType     ProjectType       `json:"project_type,omitempty"`
	Features        []string          `json:"detected_features"`
	Preferences     map[string]string `json:"user_preferences"`
	Clarifications  []string          `json:"clarifications_resolved"`
	TechPreferences []string          `json:"tech_preferences"`
	Constraints     Constraints       `json:"constraints"`
}

// ClassificationThreshold is the confidence a classification must exceed
// before it may set the project type.
const ClassificationThreshold = 70

// SetProjectType applies a classification result. It reports whether the
// type changed.
func (c *Context) SetProjectType(pt ProjectType, confidence int) bool {
	if confidence <= ClassificationThreshold || pt == ProjectGeneric || pt == ProjectUnclassified {
		return false
	}
	if c.ProjectType == pt {
		return false
	}
	c.ProjectType = pt
	return true
}

// AddFeatures appends feature tags not already present.
func (c *Context) AddFeatures(tags ...string) {
	c.Features = appendUnique(c.Features, tags...)
}

// AddTechPreferences appends technology labels not already present.
func (c *Context) AddTechPreferences(labels ...string) {
	c.TechPreferences = appendUnique(c.TechPreferences, labels...)
}

// AddClarifications appends resolved clarification labels.
func (c *Context) AddClarifications(labels ...string) {
	c.Clarifications = appendUnique(c.Clarifications, labels...)
}

// SetPreference records a user preference unless the key is already set.
func (c *Context) SetPreference(key, value string) bool {
	if value == "" {
		return false
	}
	if c.Preferences == nil {
		c.Preferences = make(map[string]string)
	}
	if _, ok := c.Preferences[key]; ok {
		return false
	}
	c.Preferences[key] = value
	return true
}

// Preference returns the value of a preference, or "".
func (c *Context) Preference(key string) string {
	return c.Preferences[key]
}

// HasFeature reports whether the tag has been detected.
func (c *Context) HasFeature(tag string) bool {
	return slices.Contains(c.Features, tag)
}

func (c Context) clone() Context {
	out := c
	out.Features = slices.Clone(c.Features)
	out.Clarifications = slices.Clone(c.Clarifications)
	out.TechPreferences = slices.Clone(c.TechPreferences)
	if c.Preferences != nil {
		out.Preferences = make(map[string]string, len(c.Preferences))
		for k, v := range c.Preferences {
			out.Preferences[k] = v
		}
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		if item == "" || slices.Contains(dst, item) {
			continue
		}
		dst = append(dst, item)
	}
	return dst
}

// Session is a bounded-lifetime conversation with one user.
//
// Fields other than the last-activity timestamp must only be read or
// written while the session lock is held.
type Session struct {
	mu sync.Mutex

	ID             string          `json:"id"`
	StartedAt      time.Time       `json:"started_at"`
	Turns          []Turn          `json:"conversation_history"`
	Context        Context         `json:"accumulated_context"`
	Persona        string          `json:"current_persona,omitempty"`
	Status         Status          `json:"status"`
	ReadinessScore int             `json:"readiness_score"`
	Document       json.RawMessage `json:"document,omitempty"`

	lastActivity atomic.Int64
}

// Lock acquires exclusive access to the session for one request.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// LastActivity returns when the session was last touched.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastActivity.Store(now.UnixNano())
}

// UserTurns returns the user-authored turns in order.
func (s *Session) UserTurns() []Turn {
	var out []Turn
	for _, t := range s.Turns {
		if t.Role == RoleUser {
			out = append(out, t)
		}
	}
	return out
}

// Snapshot is a deep copy of a session's mutable state.
type Snapshot struct {
	turns          []Turn
	context        Context
	persona        string
	status         Status
	readinessScore int
	document       json.RawMessage
	lastActivity   int64
}

// Snapshot captures the session state so a failed request can be rolled back.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		turns:          slices.Clone(s.Turns),
		context:        s.Context.clone(),
		persona:        s.Persona,
		status:         s.Status,
		readinessScore: s.ReadinessScore,
		document:       slices.Clone(s.Document),
		lastActivity:   s.lastActivity.Load(),
	}
}

// Restore puts the session back into a previously captured state.
func (s *Session) Restore(snap Snapshot) {
	s.Turns = snap.turns
	s.Context = snap.context
	s.Persona = snap.persona
	s.Status = snap.status
	s.ReadinessScore = snap.readinessScore
	s.Document = snap.document
	s.lastActivity.Store(snap.lastActivity)
}
