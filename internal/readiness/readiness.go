// Package readiness decides when a session holds enough information to
// assemble a document.
package readiness

import (
	"math"
	"unicode/utf8"

	"github.com/ziadkadry99/specsprite/internal/extract"
	"github.com/ziadkadry99/specsprite/internal/session"
)

// Gate thresholds.
const (
	MinCompleteness = 70
	MinScore        = 75
)

// Analysis is the derived readiness report for a session. It is never stored.
type Analysis struct {
	Ready          bool     `json:"ready_for_prd"`
	Confidence     int      `json:"confidence"`
	Missing        []string `json:"missing_information"`
	Questions      []string `json:"clarification_questions"`
	Completeness   int      `json:"current_completeness"`
	SatisfiedCount int      `json:"-"`
}

type gap struct {
	label    string
	question string
}

var (
	gapProjectType = gap{"project type", "What kind of project is this? (website, e-commerce store, SaaS platform, ...)"}
	gapFeatures    = gap{"core features", "Which core features does the project need?"}
	gapTech        = gap{"technology preferences", "Do you have any technology preferences? (e.g. React, Vue)"}
	gapAudience    = gap{"target audience", "Who are the main users of this project?"}
)

// Score computes the additive 0-100 readiness score.
func Score(s *session.Session) int {
	c := s.Context
	score := 0
	if c.ProjectType.Known() {
		score += 20
	}
	score += min(30, len(c.Features)*6)
	score += min(20, len(s.Turns)*3)
	score += min(15, len(c.TechPreferences)*5)
	score += min(10, c.Constraints.Count()*3)
	score += min(5, len(c.Preferences)*2)
	return min(100, score)
}

// Analyze evaluates the five readiness requirements. The result depends only
// on the session state, including the cached ReadinessScore.
func Analyze(s *session.Session) Analysis {
	c := s.Context

	hasType := c.ProjectType.Known()
	hasFeatures := len(c.Features) >= 3
	hasDepth := len(s.Turns) >= 4
	hasTech := len(c.TechPreferences) >= 2
	hasQuality := inputQuality(s.UserTurns())

	satisfied := 0
	for _, ok := range []bool{hasType, hasFeatures, hasDepth, hasTech, hasQuality} {
		if ok {
			satisfied++
		}
	}
	completeness := int(math.Round(float64(satisfied) / 5 * 100))

	a := Analysis{
		Ready:          completeness >= MinCompleteness && s.ReadinessScore >= MinScore,
		Confidence:     completeness,
		Completeness:   completeness,
		SatisfiedCount: satisfied,
		Missing:        []string{},
		Questions:      []string{},
	}

	add := func(g gap) {
		a.Missing = append(a.Missing, g.label)
		a.Questions = append(a.Questions, g.question)
	}
	if !hasType {
		add(gapProjectType)
	}
	if !hasFeatures {
		add(gapFeatures)
	}
	if !hasTech {
		add(gapTech)
	}
	if len(c.Features) > 0 && c.Preference(extract.PrefTargetAudience) == "" {
		add(gapAudience)
	}
	return a
}

// inputQuality requires an average user turn longer than 20 characters and
// at least one user turn longer than 50. Lengths count runes.
func inputQuality(turns []session.Turn) bool {
	if len(turns) == 0 {
		return false
	}
	total := 0
	detailed := false
	for _, t := range turns {
		n := utf8.RuneCountInString(t.Content)
		total += n
		if n > 50 {
			detailed = true
		}
	}
	return float64(total)/float64(len(turns)) > 20 && detailed
}
