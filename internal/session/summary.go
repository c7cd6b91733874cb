package session

import (
	"fmt"
	"slices"
	"strings"
)

// Summary is a read-only snapshot of a session for diagnostics.
type Summary struct {
	ID              string   `json:"id"`
	ProjectType     string   `json:"project_type"`
	Features        []string `json:"detected_features"`
	TechPreferences []string `json:"tech_preferences"`
	Turns           int      `json:"turns"`
	ReadinessScore  int      `json:"readiness_score"`
	Status          Status   `json:"status"`
}

// String formats the summary as a short multi-line report.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session summary (%s):\n", s.ID)
	fmt.Fprintf(&b, "- Project type: %s\n", orNone(s.ProjectType, "undetermined"))
	fmt.Fprintf(&b, "- Detected features: %s\n", orNone(strings.Join(s.Features, ", "), "none"))
	fmt.Fprintf(&b, "- Tech preferences: %s\n", orNone(strings.Join(s.TechPreferences, ", "), "none"))
	fmt.Fprintf(&b, "- Turns: %d\n", s.Turns)
	fmt.Fprintf(&b, "- Readiness: %d%%\n", s.ReadinessScore)
	fmt.Fprintf(&b, "- Status: %s", s.Status)
	return b.String()
}

// Summarize returns a snapshot of the session with the given id, or false
// if no live session has that id.
func (st *Store) Summarize(id string) (Summary, bool) {
	sess, ok := st.Get(id)
	if !ok {
		return Summary{}, false
	}
	sess.Lock()
	defer sess.Unlock()
	return Summary{
		ID:              sess.ID,
		ProjectType:     string(sess.Context.ProjectType),
		Features:        slices.Clone(sess.Context.Features),
		TechPreferences: slices.Clone(sess.Context.TechPreferences),
		Turns:           len(sess.Turns),
		ReadinessScore:  sess.ReadinessScore,
		Status:          sess.Status,
	}, true
}

func orNone(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
