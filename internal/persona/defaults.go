package persona

import "github.com/ziadkadry99/specsprite/internal/session"

var defaultNames = map[session.ProjectType]string{
	session.ProjectSaaS:        "SaaS Product Advisor",
	session.ProjectEcommerce:   "E-commerce Platform Expert",
	session.ProjectBlog:        "Blog Platform Advisor",
	session.ProjectPortfolio:   "Portfolio Site Expert",
	session.ProjectLandingPage: "Marketing Page Expert",
	session.ProjectGeneric:     "Project Advisor",
}

var defaultDescriptions = map[session.ProjectType]string{
	session.ProjectSaaS: "Hi! I advise on SaaS products. I specialise in multi-tenant architecture, " +
		"subscription billing and user permissions, and I will help you design a SaaS solution that scales.",
	session.ProjectEcommerce: "Hi! I am an e-commerce platform expert. I focus on online retail, payment " +
		"gateway integration, inventory and order management, and I will help you build a complete store.",
	session.ProjectBlog: "Hi! I advise on blog platforms. I specialise in content management, SEO and " +
		"community engagement, and I will help you build a great publishing platform.",
	session.ProjectPortfolio: "Hi! I am a portfolio site expert. I focus on visual presentation, loading " +
		"performance and conversion, and I will help you build a memorable personal brand site.",
	session.ProjectLandingPage: "Hi! I am a marketing page expert. I focus on conversion, A/B testing and " +
		"campaign performance, and I will help you create a high-converting landing page.",
	session.ProjectGeneric: "Hi! I am your project advisor. Based on your needs I will recommend the " +
		"technical approach and implementation path that fit best.",
}

var defaultOpeningQuestions = map[session.ProjectType][]string{
	session.ProjectSaaS: {
		"What core problem does your SaaS product solve?",
		"Are your target users individuals or businesses?",
		"What subscription model are you planning?",
	},
	session.ProjectEcommerce: {
		"What kind of products do you plan to sell?",
		"Which payment methods do you need to support?",
		"Do you need inventory management?",
	},
	session.ProjectBlog: {
		"What will the blog mainly be about?",
		"Do you want to support multiple authors?",
		"What kind of comments and interaction do you need?",
	},
	session.ProjectPortfolio: {
		"What kind of work will the portfolio show?",
		"What visual style are you aiming for?",
		"Which contact and interaction features do you need?",
	},
	session.ProjectLandingPage: {
		"What product or service does the page promote?",
		"What is the main conversion goal?",
		"What characterises your target audience?",
	},
	session.ProjectGeneric: {
		"Please describe your project idea in more detail.",
		"Who are the main users of this project?",
		"Which core features do you want?",
	},
}

var defaultCoreTopics = map[session.ProjectType][]string{
	session.ProjectSaaS:        {"Subscription model", "User permissions", "Multi-tenant architecture", "Billing", "User dashboard"},
	session.ProjectEcommerce:   {"Product management", "Shopping cart", "Checkout flow", "Order management", "Inventory"},
	session.ProjectBlog:        {"Content management", "Article editor", "Comments", "Categories and tags", "SEO"},
	session.ProjectPortfolio:   {"Work showcase", "Contact form", "Responsive design", "Load performance", "Visual effects"},
	session.ProjectLandingPage: {"Conversion optimisation", "Form design", "Behaviour tracking", "A/B testing", "Marketing integrations"},
	session.ProjectGeneric:     {"Functional requirements", "Technology choices", "User experience", "Performance"},
}

var defaultTechStacks = map[session.ProjectType][]string{
	session.ProjectSaaS:        {"Next.js", "TypeScript", "PostgreSQL", "Prisma", "Stripe", "NextAuth.js"},
	session.ProjectEcommerce:   {"Next.js", "TypeScript", "PostgreSQL", "Stripe", "Tailwind CSS"},
	session.ProjectBlog:        {"Astro", "Markdown", "TypeScript", "Tailwind CSS"},
	session.ProjectPortfolio:   {"Next.js", "TypeScript", "Tailwind CSS", "Framer Motion"},
	session.ProjectLandingPage: {"Next.js", "TypeScript", "Tailwind CSS", "Analytics"},
	session.ProjectGeneric:     {"React", "TypeScript", "Tailwind CSS", "Next.js"},
}

var defaultFeatures = map[session.ProjectType][]string{
	session.ProjectSaaS:        {"User authentication", "Subscription management", "User dashboard", "Team collaboration", "Analytics"},
	session.ProjectEcommerce:   {"Product listings", "Shopping cart", "Payment processing", "Order management", "Customer accounts"},
	session.ProjectBlog:        {"Article publishing", "Category management", "Comments", "Search", "RSS feed"},
	session.ProjectPortfolio:   {"Work showcase", "Project details", "Contact form", "Responsive design", "Performance tuning"},
	session.ProjectLandingPage: {"Product introduction", "Feature highlights", "Testimonials", "Behaviour tracking", "Conversion optimisation"},
	session.ProjectGeneric:     {"User interface", "Data management", "Core functionality"},
}

var (
	defaultClarificationTemplates = []string{
		"How would you like the {} feature to work?",
		"Do you have any special requirements for {}?",
		"Which approach do you prefer for {}?",
		"How important is {}? Is it a core or an optional feature?",
	}
	defaultCompletionCriteria = []string{
		"Project type and goals are clear",
		"Core feature requirements are clear",
		"Technology stack is decided",
		"Constraints are understood",
		"Target users are defined",
	}
	defaultBestPractices = []string{
		"SEO friendly URL structure",
		"Responsive design for a good mobile experience",
		"Performance optimisation and fast loading",
		"Security and data protection",
		"User experience and accessibility",
		"Maintainable code with test coverage",
	}
	defaultPitfalls = []string{
		"Over-engineering that adds complexity",
		"Ignoring performance and hurting the user experience",
		"Poor technology choices that raise development cost",
		"Missing tests that lead to quality problems",
		"Ignoring security and leaving vulnerabilities",
		"Not planning for growth",
	}
)

// Default returns the built-in persona for a project type. Unknown and
// unclassified types get the generic persona under their own id.
func Default(pt session.ProjectType) *Persona {
	key := pt.OrGeneric()
	if _, ok := defaultNames[key]; !ok {
		key = session.ProjectGeneric
	}
	return &Persona{
		ID:          IDFor(pt),
		Name:        defaultNames[key],
		ProjectType: pt.OrGeneric(),
		Description: defaultDescriptions[key],
		Flow: Flow{
			OpeningQuestions:       clone(defaultOpeningQuestions[key]),
			CoreTopics:             clone(defaultCoreTopics[key]),
			ClarificationTemplates: clone(defaultClarificationTemplates),
			CompletionCriteria:     clone(defaultCompletionCriteria),
		},
		Knowledge: Knowledge{
			TechStack:      clone(defaultTechStacks[key]),
			CommonFeatures: clone(defaultFeatures[key]),
			BestPractices:  clone(defaultBestPractices),
			Pitfalls:       clone(defaultPitfalls),
		},
	}
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
