package extract

// Keyword tables. Every table is an ordered slice: when several entries in
// the same category match one input, the first entry in declaration order
// wins for single-valued fields. Phrases are lower case; Chinese and English
// phrasings live side by side.

type keyword struct {
	phrase string
	label  string
}

// techKeywords maps technology mentions to canonical labels.
var techKeywords = []keyword{
	{"react", "React"},
	{"vue", "Vue.js"},
	{"angular", "Angular"},
	{"next.js", "Next.js"},
	{"nextjs", "Next.js"},
	{"nuxt", "Nuxt.js"},
	{"gatsby", "Gatsby"},
	{"astro", "Astro"},
	{"svelte", "Svelte"},
	{"typescript", "TypeScript"},
	{"javascript", "JavaScript"},
	{"tailwind", "Tailwind CSS"},
	{"bootstrap", "Bootstrap"},
	{"material ui", "Material UI"},
	{"material-ui", "Material UI"},
	{"material design", "Material UI"},
	{"chakra", "Chakra UI"},
	{"postgresql", "PostgreSQL"},
	{"postgres", "PostgreSQL"},
	{"mysql", "MySQL"},
	{"mongodb", "MongoDB"},
	{"sqlite", "SQLite"},
	{"prisma", "Prisma"},
	{"supabase", "Supabase"},
	{"firebase", "Firebase"},
}

// bareTechNames are framework names that are also ordinary English words.
// They match case-sensitively as whole words and never at the start of a
// sentence, so "Next, we need login" is not read as Next.js.
var bareTechNames = []keyword{
	{"Next", "Next.js"},
	{"Material", "Material UI"},
}

// Constraint values written by the constraint table.
const (
	BudgetLow        = "low"
	TimelineUrgent   = "urgent"
	ComplexitySimple = "simple"
)

var budgetPhrases = []string{"预算有限", "成本", "low budget", "limited budget", "tight budget", "cheap", "on a budget"}

var timelinePhrases = []string{"急需", "赶时间", "urgent", "asap", "as soon as possible", "tight deadline"}

var soloPhrases = []string{"一个人", "独立开发", "solo", "by myself", "on my own", "indie developer"}

var simplicityPhrases = []string{"简单", "入门", "simple", "basic", "minimal"}

// audienceKeywords maps audience mentions to a target_audience code.
var audienceKeywords = []keyword{
	{"个人用户", "individual"},
	{"individual users", "individual"},
	{"企业", "enterprise"},
	{"enterprise", "enterprise"},
	{"小公司", "small_business"},
	{"small business", "small_business"},
	{"创业", "startup"},
	{"startup", "startup"},
	{"学生", "students"},
	{"student", "students"},
	{"开发者", "developers"},
	{"developer", "developers"},
	{"设计师", "designers"},
	{"designer", "designers"},
}

// Feature tags.
const (
	FeatureAuth      = "auth"
	FeaturePayment   = "payment"
	FeatureAdmin     = "admin"
	FeatureSearch    = "search"
	FeatureUpload    = "upload"
	FeatureRealtime  = "realtime"
	FeatureAnalytics = "analytics"
	FeatureEmail     = "email"
)

// FeatureTags lists every feature tag in detection order.
var FeatureTags = []string{
	FeatureAuth,
	FeaturePayment,
	FeatureAdmin,
	FeatureSearch,
	FeatureUpload,
	FeatureRealtime,
	FeatureAnalytics,
	FeatureEmail,
}

var featureTriggers = map[string][]string{
	FeatureAuth:      {"登录", "注册", "用户", "认证", "权限", "login", "log in", "sign in", "sign up", "signup", "register", "user account", "authentication", "permission"},
	FeaturePayment:   {"支付", "付费", "购买", "订阅", "收费", "payment", "checkout", "purchase", "subscription", "billing", "paid"},
	FeatureAdmin:     {"管理", "后台", "控制台", "管理员", "admin", "dashboard", "back office", "backoffice", "console"},
	FeatureSearch:    {"搜索", "查找", "检索", "search", "lookup"},
	FeatureUpload:    {"上传", "文件", "图片", "附件", "upload", "attachment", "image", "photo", "files"},
	FeatureRealtime:  {"实时", "聊天", "消息", "通知", "real-time", "realtime", "chat", "messaging", "notification"},
	FeatureAnalytics: {"统计", "分析", "数据", "报表", "analytics", "statistics", "report", "metrics"},
	FeatureEmail:     {"邮件", "邮箱", "通知", "email", "e-mail", "newsletter", "mailing"},
}

var complexPhrases = []string{"复杂", "企业级", "大型", "高级", "多租户", "微服务", "complex", "enterprise-grade", "enterprise grade", "large-scale", "large scale", "advanced", "multi-tenant", "multitenant", "microservice"}

var simplePhrases = []string{"简单", "基础", "入门", "快速", "simple", "basic", "beginner", "quick", "minimal"}

// Preference keys written by the extractor.
const (
	PrefTargetAudience    = "target_audience"
	PrefBillingModel      = "billing_model"
	PrefBusinessModel     = "business_model"
	PrefProductType       = "product_type"
	PrefContentManagement = "content_management"
)

type preferenceTable struct {
	key     string
	entries []keyword
}

// preferenceTables feed the project-type specific clarification rules.
var preferenceTables = []preferenceTable{
	{PrefBillingModel, []keyword{
		{"按月", "monthly_subscription"},
		{"monthly", "monthly_subscription"},
		{"年费", "annual_subscription"},
		{"annual", "annual_subscription"},
		{"免费增值", "freemium"},
		{"freemium", "freemium"},
		{"按量", "usage_based"},
		{"usage-based", "usage_based"},
		{"pay as you go", "usage_based"},
	}},
	{PrefBusinessModel, []keyword{
		{"广告", "advertising"},
		{"advertising", "advertising"},
		{"佣金", "commission"},
		{"commission", "commission"},
		{"订阅", "subscription"},
		{"subscription", "subscription"},
		{"一次性", "one_time"},
		{"one-time", "one_time"},
	}},
	{PrefProductType, []keyword{
		{"服装", "apparel"},
		{"clothing", "apparel"},
		{"apparel", "apparel"},
		{"电子产品", "electronics"},
		{"electronics", "electronics"},
		{"食品", "food"},
		{"groceries", "food"},
		{"图书", "books"},
		{"books", "books"},
		{"数字产品", "digital_goods"},
		{"digital products", "digital_goods"},
		{"手工", "handmade"},
		{"handmade", "handmade"},
	}},
	{PrefContentManagement, []keyword{
		{"markdown", "markdown"},
		{"内容管理系统", "cms"},
		{"headless cms", "cms"},
		{"cms", "cms"},
		{"富文本", "rich_text"},
		{"rich text", "rich_text"},
		{"wysiwyg", "rich_text"},
		{"notion", "notion"},
	}},
}
