package prd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Markdown renders the document as a Markdown report.
func Markdown(doc *Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Metadata.Name)
	fmt.Fprintf(&b, "_Version %s, generated %s, confidence %d%%_\n\n",
		doc.Metadata.Version, doc.Metadata.GeneratedAt.Format("2006-01-02 15:04 MST"), doc.Metadata.ConfidenceScore)

	b.WriteString("## Project\n\n")
	fmt.Fprintf(&b, "- **Type:** %s\n", doc.Project.Type)
	fmt.Fprintf(&b, "- **Target audience:** %s\n", doc.Project.TargetAudience)
	fmt.Fprintf(&b, "- **Scale:** %s\n", doc.Project.ScaleExpectations)
	if doc.Project.BusinessModel != "" {
		fmt.Fprintf(&b, "- **Business model:** %s\n", doc.Project.BusinessModel)
	}
	fmt.Fprintf(&b, "\n%s\n\n", doc.Project.Description)

	b.WriteString("### Key features\n\n")
	writeList(&b, doc.Project.KeyFeatures)

	b.WriteString("## Tech stack\n\n")
	b.WriteString("| Layer | Choice |\n|---|---|\n")
	fmt.Fprintf(&b, "| Framework | %s |\n", cell(doc.TechStack.Framework))
	fmt.Fprintf(&b, "| Database | %s |\n", cell(orDash(doc.TechStack.Database)))
	fmt.Fprintf(&b, "| UI library | %s |\n", cell(doc.TechStack.UILibrary))
	fmt.Fprintf(&b, "| Deployment | %s |\n", cell(doc.TechStack.DeploymentPlatform))
	fmt.Fprintf(&b, "| Tools | %s |\n\n", cell(strings.Join(doc.TechStack.AdditionalTools, ", ")))

	b.WriteString("## Architecture\n\n```mermaid\n")
	b.WriteString(Architecture(doc))
	b.WriteString("```\n\n")

	b.WriteString("## Feature flags\n\n")
	for _, f := range doc.Features.list() {
		mark := " "
		if f.on {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, f.name)
	}
	b.WriteString("\n")

	b.WriteString("## Specifications\n\n")
	for _, spec := range doc.Specifications {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", spec.Name, spec.Description)
		b.WriteString("**Requirements**\n\n")
		writeList(&b, spec.Requirements)
		b.WriteString("**Dependencies**\n\n")
		writeList(&b, spec.Dependencies)
		b.WriteString("**Implementation notes**\n\n")
		writeList(&b, spec.ImplementationNotes)
	}

	if doc.Constraints.Count() > 0 {
		b.WriteString("## Constraints\n\n")
		if doc.Constraints.Budget != "" {
			fmt.Fprintf(&b, "- Budget: %s\n", doc.Constraints.Budget)
		}
		if doc.Constraints.Timeline != "" {
			fmt.Fprintf(&b, "- Timeline: %s\n", doc.Constraints.Timeline)
		}
		if doc.Constraints.TeamSize > 0 {
			fmt.Fprintf(&b, "- Team size: %d\n", doc.Constraints.TeamSize)
		}
		if doc.Constraints.ComplexityPreference != "" {
			fmt.Fprintf(&b, "- Complexity: %s\n", doc.Constraints.ComplexityPreference)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Environment\n\n")
	keys := make([]string, 0, len(doc.Environment.Variables))
	for k := range doc.Environment.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- `%s=%s`\n", k, doc.Environment.Variables[k])
	}
	for _, s := range doc.Environment.Secrets {
		fmt.Fprintf(&b, "- `%s` (secret)\n", s)
	}
	b.WriteString("\n")

	b.WriteString("## Next steps\n\n")
	for i, step := range doc.NextSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	return b.String()
}

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

var pageTemplate = template.Must(template.New("prd").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; }
table { border-collapse: collapse; }
th, td { border: 1px solid #d0d7de; padding: 4px 10px; }
pre { padding: 12px; overflow-x: auto; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders the document as a standalone HTML page, with the raw JSON
// appended as a highlighted code block.
func HTML(doc *Document) ([]byte, error) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}

	src := Markdown(doc) + "\n## Raw document\n\n```json\n" + string(raw) + "\n```\n"

	var body bytes.Buffer
	if err := markdown.Convert([]byte(src), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	err = pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: doc.Metadata.Name,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return page.Bytes(), nil
}

type flag struct {
	name string
	on   bool
}

func (f FeatureFlags) list() []flag {
	return []flag{
		{"Authentication", f.Auth},
		{"Payments", f.Payment},
		{"Admin", f.Admin},
		{"Search", f.Search},
		{"Uploads", f.Upload},
		{"Real-time", f.Realtime},
		{"Analytics", f.Analytics},
		{"Email", f.Email},
	}
}

func writeList(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
