package persona

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/specsprite/internal/session"
)

type section int

const (
	sectionNone section = iota
	sectionDescription
	sectionClarification
	sectionOpening
	sectionFeatures
	sectionCore
	sectionCompletion
	sectionTech
	sectionPractices
	sectionPitfalls
)

// sectionMarkers maps "##" heading text to sections. The first entry with a
// marker contained in the lowercased heading wins.
var sectionMarkers = []struct {
	section section
	markers []string
}{
	{sectionClarification, []string{"clarification", "澄清"}},
	{sectionOpening, []string{"opening", "question", "开场", "问题"}},
	{sectionFeatures, []string{"feature", "功能"}},
	{sectionCore, []string{"core", "topic", "核心", "主题"}},
	{sectionCompletion, []string{"completion", "criteria", "完成", "标准"}},
	{sectionTech, []string{"tech", "stack", "技术", "栈"}},
	{sectionPractices, []string{"practice", "实践"}},
	{sectionPitfalls, []string{"pitfall", "avoid", "避免", "陷阱"}},
	{sectionDescription, []string{"description", "expertise", "about", "专长", "描述"}},
}

func sectionFor(heading string) section {
	h := strings.ToLower(heading)
	for _, sm := range sectionMarkers {
		for _, m := range sm.markers {
			if strings.Contains(h, m) {
				return sm.section
			}
		}
	}
	return sectionNone
}

// field returns the list a section's items are written to.
func (p *Persona) field(s section) *[]string {
	switch s {
	case sectionClarification:
		return &p.Flow.ClarificationTemplates
	case sectionOpening:
		return &p.Flow.OpeningQuestions
	case sectionFeatures:
		return &p.Knowledge.CommonFeatures
	case sectionCore:
		return &p.Flow.CoreTopics
	case sectionCompletion:
		return &p.Flow.CompletionCriteria
	case sectionTech:
		return &p.Knowledge.TechStack
	case sectionPractices:
		return &p.Knowledge.BestPractices
	case sectionPitfalls:
		return &p.Knowledge.Pitfalls
	}
	return nil
}

type frontMatter struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	ProjectType string `yaml:"project_type"`
	Description string `yaml:"description"`
}

var markdown = goldmark.New()

// Parse reads a persona file for the given project type. Sections missing
// from the file are filled from the built-in persona for that type.
func Parse(data []byte, pt session.ProjectType) (*Persona, error) {
	fmText, body, hasFM, err := splitFrontMatter(string(data))
	if err != nil {
		return nil, err
	}

	p := &Persona{ProjectType: pt.OrGeneric()}
	if hasFM {
		var fm frontMatter
		if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
			return nil, fmt.Errorf("invalid front matter: %w", err)
		}
		if fm.ProjectType != "" && fm.ProjectType != string(p.ProjectType) {
			return nil, fmt.Errorf("persona declares project type %q, want %q", fm.ProjectType, p.ProjectType)
		}
		p.ID = strings.TrimSpace(fm.ID)
		p.Name = strings.TrimSpace(fm.Name)
		p.Description = strings.TrimSpace(fm.Description)
	}

	src := []byte(body)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var desc []string
	current := sectionNone
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := plainText(node, src)
			switch node.Level {
			case 1:
				if p.Name == "" {
					p.Name = title
				}
				current = sectionNone
			case 2:
				current = sectionFor(title)
			}
		case *ast.Paragraph:
			if current == sectionDescription {
				desc = append(desc, plainText(node, src))
			}
		case *ast.List:
			if current == sectionDescription {
				for item := node.FirstChild(); item != nil; item = item.NextSibling() {
					desc = append(desc, plainText(item, src))
				}
				continue
			}
			dst := p.field(current)
			if dst == nil {
				continue
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if t := plainText(item, src); t != "" {
					*dst = append(*dst, t)
				}
			}
		}
	}
	if p.Description == "" {
		p.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	}

	p.fillDefaults()
	return p, nil
}

// plainText flattens the inline text of a node, skipping nested lists.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.List:
			if c != n {
				return ast.WalkSkipChildren, nil
			}
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// splitFrontMatter separates a leading "---" delimited YAML block from the body.
func splitFrontMatter(s string) (fm, body string, has bool, err error) {
	br := bufio.NewReader(strings.NewReader(s))

	first, ferr := br.ReadString('\n')
	if ferr != nil && !errors.Is(ferr, io.EOF) {
		return "", "", false, fmt.Errorf("read first line: %w", ferr)
	}
	if strings.TrimSpace(first) != "---" {
		return "", s, false, nil
	}

	var lines []string
	closed := false
	for {
		line, lerr := br.ReadString('\n')
		if lerr != nil && !errors.Is(lerr, io.EOF) {
			return "", "", false, fmt.Errorf("read front matter: %w", lerr)
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(trimmed) == "---" {
			closed = true
			break
		}
		lines = append(lines, trimmed)
		if errors.Is(lerr, io.EOF) {
			break
		}
	}
	if !closed {
		return "", "", false, errors.New("unterminated front matter (missing closing ---)")
	}

	rest, err := io.ReadAll(br)
	if err != nil {
		return "", "", false, fmt.Errorf("read body: %w", err)
	}
	return strings.Join(lines, "\n"), string(rest), true, nil
}
