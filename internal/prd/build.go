package prd

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ziadkadry99/specsprite/internal/extract"
	"github.com/ziadkadry99/specsprite/internal/session"
)

const (
	// DefaultName is used when no project name can be found in the turns.
	DefaultName = "MyProject"
	// DocumentVersion is stamped on every generated document.
	DocumentVersion = "1.0.0"

	maxDescriptionRunes = 200
	maxKeyFeatures      = 8
	minKeyFeatures      = 3
)

// Name patterns, tried in order against each user turn.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:项目|网站|系统|平台|应用)[\s"'《「]*([a-zA-Z0-9\p{Han}]+)`),
	regexp.MustCompile(`(?i)\b(?:project|site|website|system|platform|app)\s+(?:named|called)\s+["']?([A-Za-z0-9][\w-]*)`),
	regexp.MustCompile(`(?:叫做|命名为|名为)[\s"'《「]*([a-zA-Z0-9\p{Han}]+)`),
	regexp.MustCompile(`(?i)\b(?:called|named)\s+["']?([A-Za-z0-9][\w-]*)`),
	regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9\-_]*)`),
}

// leadingStopwords are ordinary sentence openers that the leading-token
// pattern must not mistake for a name.
var leadingStopwords = map[string]bool{
	"i": true, "we": true, "my": true, "our": true, "the": true, "a": true, "an": true,
	"build": true, "create": true, "make": true, "need": true, "want": true, "please": true,
	"hi": true, "hello": true, "hey": true, "let": true, "lets": true, "it": true, "this": true,
	"yes": true, "no": true, "also": true, "and": true, "users": true, "frontend": true, "backend": true,
}

var featurePhrases = map[string]string{
	extract.FeatureAuth:      "User registration and login",
	extract.FeaturePayment:   "Online payments",
	extract.FeatureAdmin:     "Admin dashboard",
	extract.FeatureSearch:    "Search",
	extract.FeatureUpload:    "File uploads",
	extract.FeatureRealtime:  "Real-time messaging",
	extract.FeatureAnalytics: "Data analytics",
	extract.FeatureEmail:     "Email notifications",
}

var typeDefaultFeature = map[session.ProjectType]string{
	session.ProjectEcommerce:   "Product catalog and shopping cart",
	session.ProjectBlog:        "Article publishing and management",
	session.ProjectSaaS:        "User dashboard",
	session.ProjectPortfolio:   "Project gallery",
	session.ProjectLandingPage: "Call-to-action signup form",
}

var fillerFeatures = []string{
	"Responsive user interface",
	"Data management",
	"Friendly user experience",
}

var typeAudience = map[session.ProjectType]string{
	session.ProjectBlog:        "Content readers and subscribers",
	session.ProjectEcommerce:   "Online shoppers",
	session.ProjectSaaS:        "Business users and teams",
	session.ProjectPortfolio:   "Potential clients and employers",
	session.ProjectLandingPage: "Target customers",
	session.ProjectGeneric:     "End users",
}

var audienceLabels = map[string]string{
	"individual":     "Individual users",
	"enterprise":     "Enterprise customers",
	"small_business": "Small businesses",
	"startup":        "Startups",
	"students":       "Students",
	"developers":     "Developers",
	"designers":      "Designers",
}

var (
	frameworkChoices = []string{"Next.js", "React", "Vue.js", "Angular", "Nuxt.js", "Svelte"}
	databaseChoices  = []string{"PostgreSQL", "MySQL", "MongoDB", "SQLite"}
	uiChoices        = []string{"Tailwind CSS", "Bootstrap", "Material UI", "Chakra UI"}
)

// Build assembles a document from the session state. It makes no external
// calls; two builds of the same state differ only in GeneratedAt.
func Build(s *session.Session, now time.Time) *Document {
	c := &s.Context
	pt := c.ProjectType.OrGeneric()
	flags := buildFlags(c)

	doc := &Document{
		Metadata: Metadata{
			Name:            projectName(s),
			Version:         DocumentVersion,
			GeneratedAt:     now.UTC(),
			ConfidenceScore: clamp(s.ReadinessScore+10, 60, 95),
			SessionID:       s.ID,
		},
		Project: Project{
			Type:              pt,
			Description:       description(s),
			TargetAudience:    targetAudience(c, pt),
			KeyFeatures:       keyFeatures(c, pt),
			BusinessModel:     c.Preference(extract.PrefBusinessModel),
			ScaleExpectations: scale(c),
		},
		TechStack:      techStack(c, pt),
		Features:       flags,
		Specifications: specifications(c, pt),
		Constraints:    c.Constraints,
		Environment:    environment(c, pt, flags),
		NextSteps:      nextSteps(c),
	}
	return doc
}

func projectName(s *session.Session) string {
	for _, turn := range s.UserTurns() {
		for _, re := range namePatterns {
			m := re.FindStringSubmatch(turn.Content)
			if m == nil {
				continue
			}
			name := strings.TrimSpace(m[1])
			if utf8.RuneCountInString(name) <= 1 || leadingStopwords[strings.ToLower(name)] {
				continue
			}
			return name
		}
	}
	return DefaultName
}

func description(s *session.Session) string {
	turns := s.UserTurns()
	if len(turns) == 0 {
		return "A modern web application project"
	}
	for _, t := range turns {
		if utf8.RuneCountInString(t.Content) > 20 {
			return truncate(t.Content, maxDescriptionRunes)
		}
	}
	return turns[0].Content
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func targetAudience(c *session.Context, pt session.ProjectType) string {
	if code := c.Preference(extract.PrefTargetAudience); code != "" {
		if label, ok := audienceLabels[code]; ok {
			return label
		}
		return code
	}
	return typeAudience[pt]
}

func keyFeatures(c *session.Context, pt session.ProjectType) []string {
	var out []string
	for _, tag := range c.Features {
		if phrase, ok := featurePhrases[tag]; ok {
			out = append(out, phrase)
		}
	}
	if def, ok := typeDefaultFeature[pt]; ok && !slices.Contains(out, def) {
		out = append(out, def)
	}
	for _, filler := range fillerFeatures {
		if len(out) >= minKeyFeatures {
			break
		}
		if !slices.Contains(out, filler) {
			out = append(out, filler)
		}
	}
	if len(out) > maxKeyFeatures {
		out = out[:maxKeyFeatures]
	}
	return out
}

func scale(c *session.Context) Scale {
	switch {
	case c.Constraints.TeamSize >= 5:
		return ScaleLarge
	case c.ProjectType == session.ProjectSaaS || len(c.Features) > 5:
		return ScaleMedium
	default:
		return ScaleSmall
	}
}

func techStack(c *session.Context, pt session.ProjectType) TechStack {
	return TechStack{
		Framework:          framework(c, pt),
		Database:           database(c, pt),
		UILibrary:          firstPreferred(c.TechPreferences, uiChoices, "Tailwind CSS"),
		DeploymentPlatform: deployment(c, pt),
		AdditionalTools:    tools(c),
	}
}

func framework(c *session.Context, pt session.ProjectType) string {
	var def string
	switch pt {
	case session.ProjectEcommerce, session.ProjectSaaS, session.ProjectPortfolio:
		def = "Next.js"
	case session.ProjectBlog:
		def = "Astro"
	default:
		def = "React"
	}
	return firstPreferred(c.TechPreferences, frameworkChoices, def)
}

func database(c *session.Context, pt session.ProjectType) string {
	var def string
	if pt == session.ProjectEcommerce || pt == session.ProjectSaaS ||
		c.HasFeature(extract.FeatureAuth) || c.HasFeature(extract.FeaturePayment) {
		def = "PostgreSQL"
	}
	return firstPreferred(c.TechPreferences, databaseChoices, def)
}

func deployment(c *session.Context, pt session.ProjectType) string {
	if c.Constraints.Budget == extract.BudgetLow {
		return "Vercel"
	}
	if pt == session.ProjectSaaS || pt == session.ProjectEcommerce {
		return "AWS"
	}
	return "Vercel"
}

func tools(c *session.Context) []string {
	var out []string
	if c.HasFeature(extract.FeatureAuth) {
		out = append(out, "NextAuth.js")
	}
	if c.HasFeature(extract.FeaturePayment) {
		out = append(out, "Stripe")
	}
	if c.HasFeature(extract.FeatureEmail) {
		out = append(out, "Resend")
	}
	if slices.Contains(c.TechPreferences, "TypeScript") {
		out = append(out, "TypeScript")
	}
	if slices.Contains(c.TechPreferences, "Prisma") {
		out = append(out, "Prisma ORM")
	}
	if !slices.Contains(out, "TypeScript") {
		out = append(out, "TypeScript")
	}
	return out
}

func firstPreferred(prefs, allowed []string, fallback string) string {
	for _, p := range prefs {
		if slices.Contains(allowed, p) {
			return p
		}
	}
	return fallback
}

func buildFlags(c *session.Context) FeatureFlags {
	pt := c.ProjectType
	return FeatureFlags{
		Auth:      c.HasFeature(extract.FeatureAuth) || pt == session.ProjectSaaS || pt == session.ProjectEcommerce,
		Payment:   c.HasFeature(extract.FeaturePayment),
		Admin:     c.HasFeature(extract.FeatureAdmin) || pt == session.ProjectEcommerce || pt == session.ProjectSaaS || pt == session.ProjectBlog,
		Search:    c.HasFeature(extract.FeatureSearch),
		Upload:    c.HasFeature(extract.FeatureUpload),
		Realtime:  c.HasFeature(extract.FeatureRealtime),
		Analytics: c.HasFeature(extract.FeatureAnalytics),
		Email:     c.HasFeature(extract.FeatureEmail),
	}
}

func specifications(c *session.Context, pt session.ProjectType) []Specification {
	var out []Specification
	for _, tag := range c.Features {
		if spec, ok := curatedSpecs[tag]; ok {
			out = append(out, spec)
			continue
		}
		if phrase, ok := featurePhrases[tag]; ok {
			out = append(out, genericSpec(phrase, pt))
		}
	}
	if len(out) == 0 {
		out = append(out, basicSpec(pt))
	}
	return out
}

func genericSpec(phrase string, pt session.ProjectType) Specification {
	return Specification{
		Name:        phrase,
		Description: fmt.Sprintf("%s for the %s project", phrase, pt),
		Requirements: []string{
			"Clear user flow for the feature",
			"Input validation and error states",
			"Automated tests covering the main paths",
		},
		Dependencies: []string{"Core data model"},
		ImplementationNotes: []string{
			"Keep the feature behind a well defined module boundary",
			"Document configuration and environment needs",
		},
	}
}

func basicSpec(pt session.ProjectType) Specification {
	return Specification{
		Name:        "Core functionality",
		Description: fmt.Sprintf("Core feature implementation for the %s project", pt),
		Requirements: []string{
			"Responsive user interface",
			"Basic data management",
			"Friendly interactions",
		},
		Dependencies: []string{"Frontend framework", "UI component library"},
		ImplementationNotes: []string{
			"Follow modern web development practices",
			"Ensure cross-browser compatibility",
			"Optimize page load performance",
		},
	}
}

var curatedSpecs = map[string]Specification{
	extract.FeatureAuth: {
		Name:        "User authentication",
		Description: "Registration, login and password reset for users",
		Requirements: []string{
			"Email or username login",
			"Password strength validation",
			"Email verification",
			"Persistent login sessions",
			"Secure password reset flow",
		},
		Dependencies: []string{"Database", "Email service"},
		ImplementationNotes: []string{
			"Use NextAuth.js or a similar authentication library",
			"Manage sessions with JWTs or server-side sessions",
			"Store passwords hashed",
			"Add CSRF protection",
		},
	},
	extract.FeaturePayment: {
		Name:        "Payments",
		Description: "Online payments supporting multiple payment methods",
		Requirements: []string{
			"Credit card payments",
			"Payment status tracking",
			"Refund handling",
			"Payment history",
			"Secure checkout flow",
		},
		Dependencies: []string{"Payment gateway API", "Database", "Email notifications"},
		ImplementationNotes: []string{
			"Integrate Stripe or another payment provider",
			"Handle provider webhooks",
			"Follow PCI DSS guidance",
			"Retry failed payments",
		},
	},
	extract.FeatureAdmin: {
		Name:        "Admin dashboard",
		Description: "Back office for managing content, users and settings",
		Requirements: []string{
			"Role-based access for administrators",
			"Content and user management screens",
			"Audit log of administrative actions",
		},
		Dependencies: []string{"User authentication", "Database"},
		ImplementationNotes: []string{
			"Restrict admin routes on the server",
			"Reuse the main UI component library",
		},
	},
	extract.FeatureSearch: {
		Name:        "Search",
		Description: "Full-text search across the main content",
		Requirements: []string{
			"Keyword search with relevance ranking",
			"Filters and sorting",
			"Pagination of results",
		},
		Dependencies: []string{"Database or search index"},
		ImplementationNotes: []string{
			"Start with database full-text search",
			"Debounce queries from the UI",
		},
	},
}

func environment(c *session.Context, pt session.ProjectType, flags FeatureFlags) Environment {
	env := Environment{
		Variables: map[string]string{
			"NODE_ENV": "development",
			"APP_URL":  "http://localhost:3000",
		},
		Secrets: []string{"SESSION_SECRET"},
	}
	if database(c, pt) != "" {
		env.Secrets = append(env.Secrets, "DATABASE_URL")
	}
	if flags.Auth {
		env.Secrets = append(env.Secrets, "NEXTAUTH_SECRET")
	}
	if flags.Payment {
		env.Secrets = append(env.Secrets, "STRIPE_SECRET_KEY")
		env.Variables["STRIPE_PUBLISHABLE_KEY"] = "pk_test_placeholder"
	}
	if flags.Email {
		env.Secrets = append(env.Secrets, "RESEND_API_KEY")
	}
	return env
}

func nextSteps(c *session.Context) []string {
	steps := []string{"Set up the project scaffold"}
	if c.HasFeature(extract.FeatureAuth) {
		steps = append(steps, "Implement user authentication")
	}
	if c.HasFeature(extract.FeaturePayment) {
		steps = append(steps, "Integrate payments")
	}
	return append(steps,
		"Build the core feature modules",
		"Design the user interface",
		"Write tests",
		"Deploy to production",
	)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
