// Package persona loads the project-type specific expert personas used to
// flavor conversational replies.
package persona

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/specsprite/internal/session"
)

// Flow is the conversation guidance a persona follows.
type Flow struct {
	OpeningQuestions       []string `json:"opening_questions"`
	CoreTopics             []string `json:"core_topics"`
	ClarificationTemplates []string `json:"clarification_templates"`
	CompletionCriteria     []string `json:"completion_criteria"`
}

// Knowledge is the domain knowledge a persona brings to a conversation.
type Knowledge struct {
	TechStack      []string `json:"recommended_tech_stack"`
	CommonFeatures []string `json:"common_features"`
	BestPractices  []string `json:"best_practices"`
	Pitfalls       []string `json:"pitfalls_to_avoid"`
}

// Persona is an expert role card for one project type.
type Persona struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	ProjectType session.ProjectType `json:"project_type"`
	Description string              `json:"description"`
	Flow        Flow                `json:"conversation_flow"`
	Knowledge   Knowledge           `json:"knowledge_base"`
}

// IDFor returns the persona identifier for a project type.
func IDFor(pt session.ProjectType) string {
	return fmt.Sprintf("expert_%s", pt.OrGeneric())
}

// fillDefaults replaces every empty field with the built-in value for the
// persona's type.
func (p *Persona) fillDefaults() {
	def := Default(p.ProjectType)
	if p.ID == "" {
		p.ID = def.ID
	}
	if p.Name == "" {
		p.Name = def.Name
	}
	if p.Description == "" {
		p.Description = def.Description
	}
	fill(&p.Flow.OpeningQuestions, def.Flow.OpeningQuestions)
	fill(&p.Flow.CoreTopics, def.Flow.CoreTopics)
	fill(&p.Flow.ClarificationTemplates, def.Flow.ClarificationTemplates)
	fill(&p.Flow.CompletionCriteria, def.Flow.CompletionCriteria)
	fill(&p.Knowledge.TechStack, def.Knowledge.TechStack)
	fill(&p.Knowledge.CommonFeatures, def.Knowledge.CommonFeatures)
	fill(&p.Knowledge.BestPractices, def.Knowledge.BestPractices)
	fill(&p.Knowledge.Pitfalls, def.Knowledge.Pitfalls)
}

func fill(dst *[]string, def []string) {
	if len(*dst) == 0 {
		*dst = append([]string(nil), def...)
	}
}

// Prompt renders the persona as the role section of a reply prompt.
func (p *Persona) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n%s\n", p.Name, p.Description)
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n### %s\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "- %s\n", it)
		}
	}
	section("Core topics", p.Flow.CoreTopics)
	section("Recommended tech stack", p.Knowledge.TechStack)
	section("Common features", p.Knowledge.CommonFeatures)
	section("Best practices", p.Knowledge.BestPractices)
	section("Pitfalls to avoid", p.Knowledge.Pitfalls)
	section("Ready to write the document when", p.Flow.CompletionCriteria)
	return strings.TrimRight(b.String(), "\n")
}
