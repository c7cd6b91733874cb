// Package clarify produces the follow-up questions asked while a session is
// not yet ready for assembly.
package clarify

import (
	"github.com/ziadkadry99/specsprite/internal/extract"
	"github.com/ziadkadry99/specsprite/internal/session"
)

// MaxQuestions caps how many questions are returned per turn.
const MaxQuestions = 2

type rule struct {
	applies  func(c *session.Context) bool
	question string
}

var typeRules = map[session.ProjectType][]rule{
	session.ProjectEcommerce: {
		{func(c *session.Context) bool { return !c.HasFeature(extract.FeaturePayment) }, "Which payment methods do you need to support?"},
		{func(c *session.Context) bool { return c.Preference(extract.PrefProductType) == "" }, "What kind of products will you mainly sell?"},
	},
	session.ProjectSaaS: {
		{func(c *session.Context) bool { return !c.HasFeature(extract.FeatureAuth) }, "Do you need team collaboration features?"},
		{func(c *session.Context) bool { return c.Preference(extract.PrefBillingModel) == "" }, "What subscription or billing model do you plan to use?"},
	},
	session.ProjectBlog: {
		{func(c *session.Context) bool { return c.Preference(extract.PrefContentManagement) == "" }, "How would you like to manage your content?"},
	},
}

var genericRules = []rule{
	{func(c *session.Context) bool { return len(c.TechPreferences) == 0 }, "Do you have any specific technology requirements?"},
	{func(c *session.Context) bool { return c.Constraints.Timeline == "" }, "What is the timeline for the project?"},
}

// Questions returns up to MaxQuestions questions, project-type specific gaps
// first and generic gaps after.
func Questions(c *session.Context) []string {
	out := []string{}
	for _, rules := range [][]rule{typeRules[c.ProjectType], genericRules} {
		for _, r := range rules {
			if len(out) == MaxQuestions {
				return out
			}
			if r.applies(c) {
				out = append(out, r.question)
			}
		}
	}
	return out
}
