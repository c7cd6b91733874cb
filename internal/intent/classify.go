// Package intent asks the completion chain to classify projects and to
// produce conversational replies, and parses what comes back. Malformed
// model output is recovered here and never reaches callers as an error.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ziadkadry99/specsprite/internal/llm"
	"github.com/ziadkadry99/specsprite/internal/session"
)

// Confidence values used when the model output cannot be trusted.
const (
	DefaultConfidence  = 50
	KeywordConfidence  = 60
	UnknownConfidence  = 30
	classifyTemp       = 0.3
	classifyMaxTokens  = 500
	defaultReasoning   = "analysis complete"
	keywordReasoning   = "keyword match"
	unmatchedReasoning = "could not determine the project type"
)

// Classification is the outcome of classifying one user input.
type Classification struct {
	ProjectType session.ProjectType `json:"project_type"`
	Confidence  int                 `json:"confidence"`
	Reasoning   string              `json:"reasoning"`
	// Fallback is set when the keyword tables produced the result.
	Fallback bool `json:"fallback,omitempty"`
}

// ClassificationPrompt builds the prompt sent to the model.
func ClassificationPrompt(userInput string) string {
	return fmt.Sprintf(`# Intent classifier

You are a precise project type classifier. Analyse the user input and pick the best matching project type.

## Project types
- blog: blogs, content sites, news platforms
- ecommerce: online stores, shopping sites
- saas: SaaS products, subscription services, B2B platforms
- portfolio: portfolios, personal sites, showcase sites
- landing_page: marketing pages, product pages, campaign pages
- generic: anything else or unclear

## User input
%q

## Requirements
1. Consider keywords, use cases and target users.
2. Reply with JSON only: {"project_type": "<type>", "confidence": 85, "reasoning": "<why>"}
3. confidence is between 0 and 100.
4. If unsure, choose generic.`, userInput)
}

// classificationKeywords are checked in order against the text.
var classificationKeywords = []struct {
	pt      session.ProjectType
	phrases []string
}{
	{session.ProjectEcommerce, []string{"电商", "商店"}},
	{session.ProjectBlog, []string{"博客", "文章"}},
	{session.ProjectPortfolio, []string{"作品", "展示"}},
	{session.ProjectSaaS, []string{"saas", "订阅"}},
}

// KeywordClassification classifies text using the keyword tables alone.
// Its confidence never exceeds the threshold for setting a project type.
func KeywordClassification(text string) Classification {
	lower := strings.ToLower(text)
	for _, kw := range classificationKeywords {
		for _, p := range kw.phrases {
			if strings.Contains(lower, p) {
				return Classification{ProjectType: kw.pt, Confidence: KeywordConfidence, Reasoning: keywordReasoning, Fallback: true}
			}
		}
	}
	return Classification{ProjectType: session.ProjectGeneric, Confidence: UnknownConfidence, Reasoning: unmatchedReasoning, Fallback: true}
}

type rawClassification struct {
	ProjectType string  `json:"project_type"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// ParseClassification reads the model's classification. Output without a
// parseable JSON object falls back to the keyword tables.
func ParseClassification(content string) Classification {
	var raw rawClassification
	if !decodeObject(content, &raw) {
		return KeywordClassification(content)
	}

	pt, ok := session.ParseProjectType(strings.ToLower(strings.TrimSpace(raw.ProjectType)))
	if !ok {
		pt = session.ProjectGeneric
	}
	c := Classification{
		ProjectType: pt,
		Confidence:  clampConfidence(raw.Confidence, DefaultConfidence),
		Reasoning:   raw.Reasoning,
	}
	if c.Reasoning == "" {
		c.Reasoning = defaultReasoning
	}
	return c
}

// Classify asks the provider to classify the input. On a transport failure
// it returns the keyword classification of the input together with the error,
// so callers may log the failure and carry on.
func Classify(ctx context.Context, p llm.Provider, userInput string) (Classification, *llm.CompletionResponse, error) {
	req := llm.Prompt(ClassificationPrompt(userInput), classifyTemp, classifyMaxTokens)
	req.JSONMode = true
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return KeywordClassification(userInput), nil, err
	}
	return ParseClassification(resp.Content), resp, nil
}

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	flatObject = regexp.MustCompile(`\{[^}]*\}`)
)

// decodeObject finds the first JSON object in model output and decodes it.
// It tries a fenced block, the outermost braces, then the first flat object.
func decodeObject(content string, v any) bool {
	var candidates []string
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		candidates = append(candidates, m[1])
	}
	if i, j := strings.Index(content, "{"), strings.LastIndex(content, "}"); i >= 0 && j > i {
		candidates = append(candidates, content[i:j+1])
	}
	if m := flatObject.FindString(content); m != "" {
		candidates = append(candidates, m)
	}
	for _, c := range candidates {
		if !json.Valid([]byte(c)) {
			continue
		}
		if err := json.Unmarshal([]byte(c), v); err == nil {
			return true
		}
	}
	return false
}

func clampConfidence(v float64, def int) int {
	if v <= 0 {
		return def
	}
	return min(100, int(v+0.5))
}
