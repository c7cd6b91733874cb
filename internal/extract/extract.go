// Package extract detects project hints in free text with literal keyword
// matching. It never calls a model and has no side effects.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ziadkadry99/specsprite/internal/session"
)

// Complexity is a coarse estimate of how ambitious the described project is.
type Complexity string

const (
	ComplexitySimpleLevel  Complexity = "simple"
	ComplexityMediumLevel  Complexity = "medium"
	ComplexityComplexLevel Complexity = "complex"
)

// Result holds everything detected in one input.
type Result struct {
	TechPreferences []string
	Constraints     session.Constraints
	Preferences     map[string]string
	Features        []string
	Complexity      Complexity
}

var teamSizePattern = regexp.MustCompile(`(?i)team of (\d+)|(\d+)[- ]person team|(\d+)\s*人(?:的)?团队|团队\s*(\d+)\s*人`)

// Extract scans text against the keyword tables.
func Extract(text string) Result {
	lower := strings.ToLower(text)

	res := Result{
		Preferences: make(map[string]string),
		Complexity:  estimateComplexity(lower),
	}

	for _, kw := range techKeywords {
		if strings.Contains(lower, kw.phrase) {
			res.TechPreferences = appendUnique(res.TechPreferences, kw.label)
		}
	}
	for _, kw := range bareTechNames {
		if containsName(text, kw.phrase) {
			res.TechPreferences = appendUnique(res.TechPreferences, kw.label)
		}
	}

	res.Constraints = extractConstraints(lower)

	if v := firstMatch(lower, audienceKeywords); v != "" {
		res.Preferences[PrefTargetAudience] = v
	}
	for _, table := range preferenceTables {
		if v := firstMatch(lower, table.entries); v != "" {
			res.Preferences[table.key] = v
		}
	}

	for _, tag := range FeatureTags {
		if containsAny(lower, featureTriggers[tag]) {
			res.Features = append(res.Features, tag)
		}
	}

	return res
}

// ApplyTo merges the result into a session context. Fields already present
// in the context are left untouched.
func (r Result) ApplyTo(c *session.Context) {
	c.AddTechPreferences(r.TechPreferences...)
	c.AddFeatures(r.Features...)
	c.Constraints.Fill(r.Constraints)
	// Preference keys are independent, so iteration order does not matter.
	for k, v := range r.Preferences {
		c.SetPreference(k, v)
	}
}

// Empty reports whether nothing was detected.
func (r Result) Empty() bool {
	return len(r.TechPreferences) == 0 && len(r.Features) == 0 &&
		len(r.Preferences) == 0 && r.Constraints.Count() == 0
}

func extractConstraints(lower string) session.Constraints {
	var c session.Constraints
	if containsAny(lower, budgetPhrases) {
		c.Budget = BudgetLow
	}
	if containsAny(lower, timelinePhrases) {
		c.Timeline = TimelineUrgent
	}
	if n := explicitTeamSize(lower); n > 0 {
		c.TeamSize = n
	} else if containsAny(lower, soloPhrases) {
		c.TeamSize = 1
	}
	if containsAny(lower, simplicityPhrases) {
		c.ComplexityPreference = ComplexitySimple
	}
	return c
}

func explicitTeamSize(lower string) int {
	m := teamSizePattern.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	for _, group := range m[1:] {
		if group == "" {
			continue
		}
		if n, err := strconv.Atoi(group); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func estimateComplexity(lower string) Complexity {
	switch {
	case containsAny(lower, complexPhrases):
		return ComplexityComplexLevel
	case containsAny(lower, simplePhrases):
		return ComplexitySimpleLevel
	default:
		return ComplexityMediumLevel
	}
}

func firstMatch(lower string, table []keyword) string {
	for _, kw := range table {
		if strings.Contains(lower, kw.phrase) {
			return kw.label
		}
	}
	return ""
}

// containsName reports whether name appears in text as a whole word that does
// not open a sentence.
func containsName(text, name string) bool {
	for from := 0; ; {
		i := strings.Index(text[from:], name)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(name)
		from = end
		if start > 0 && isWordByte(text[start-1]) {
			continue
		}
		if end < len(text) && isWordByte(text[end]) {
			continue
		}
		if opensSentence(text[:start]) {
			continue
		}
		return true
	}
}

func opensSentence(before string) bool {
	before = strings.TrimRightFunc(before, unicode.IsSpace)
	if before == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return strings.ContainsRune(".!?。！？", r)
}

func isWordByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	}
	return b == '_' || b == '-'
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, item string) []string {
	for _, v := range dst {
		if v == item {
			return dst
		}
	}
	return append(dst, item)
}
