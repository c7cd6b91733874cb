package clarify

import (
	"reflect"
	"testing"

	"github.com/ziadkadry99/specsprite/internal/session"
)

func TestQuestions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *session.Context)
		want  []string
	}{
		{
			name:  "ecommerce without payment or product type",
			setup: func(c *session.Context) { c.ProjectType = session.ProjectEcommerce },
			want: []string{
				"Which payment methods do you need to support?",
				"What kind of products will you mainly sell?",
			},
		},
		{
			name: "ecommerce with payment falls through to generic",
			setup: func(c *session.Context) {
				c.ProjectType = session.ProjectEcommerce
				c.AddFeatures("payment")
			},
			want: []string{
				"What kind of products will you mainly sell?",
				"Do you have any specific technology requirements?",
			},
		},
		{
			name: "saas with auth and billing model",
			setup: func(c *session.Context) {
				c.ProjectType = session.ProjectSaaS
				c.AddFeatures("auth")
				c.SetPreference("billing_model", "freemium")
				c.AddTechPreferences("React")
			},
			want: []string{"What is the timeline for the project?"},
		},
		{
			name:  "blog asks about content management first",
			setup: func(c *session.Context) { c.ProjectType = session.ProjectBlog },
			want: []string{
				"How would you like to manage your content?",
				"Do you have any specific technology requirements?",
			},
		},
		{
			name: "nothing missing",
			setup: func(c *session.Context) {
				c.ProjectType = session.ProjectPortfolio
				c.AddTechPreferences("Astro")
				c.Constraints.Timeline = "urgent"
			},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c session.Context
			tt.setup(&c)
			got := Questions(&c)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Questions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuestionsCapped(t *testing.T) {
	c := session.Context{ProjectType: session.ProjectSaaS}
	if got := Questions(&c); len(got) != MaxQuestions {
		t.Errorf("len(Questions) = %d, want %d", len(got), MaxQuestions)
	}
}
