package prd

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of validating a document.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	// Missing names the document fields behind each error.
	Missing []string `json:"missing,omitempty"`
}

// ValidationError is returned when an assembled document fails the hard checks.
type ValidationError struct {
	Missing []string
	Errors  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document validation failed: missing %s", strings.Join(e.Missing, ", "))
}

// Err returns a *ValidationError when the result is invalid, nil otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Missing: r.Missing, Errors: r.Errors}
}

// Validate checks a document without modifying it.
func Validate(doc *Document) Result {
	r := Result{Errors: []string{}, Warnings: []string{}}
	fail := func(field, msg string) {
		r.Missing = append(r.Missing, field)
		r.Errors = append(r.Errors, msg)
	}

	if doc.Metadata.Name == "" {
		fail("metadata.name", "project name is missing")
	}
	if doc.Project.Type == "" {
		fail("project.type", "project type is missing")
	}
	if utf8.RuneCountInString(doc.Project.Description) < 10 {
		fail("project.description", "project description is missing or too short")
	}
	if len(doc.Project.KeyFeatures) == 0 {
		fail("project.key_features", "key features are missing")
	}
	if doc.TechStack.Framework == "" {
		fail("tech_stack.framework", "framework is missing")
	}
	if len(doc.NextSteps) == 0 {
		fail("next_steps", "next steps are missing")
	}

	if doc.Metadata.ConfidenceScore < 70 {
		r.Warnings = append(r.Warnings, "confidence is low; consider clarifying the requirements further")
	}
	if len(doc.Project.KeyFeatures) < 3 {
		r.Warnings = append(r.Warnings, "fewer than three key features")
	}
	if len(doc.Specifications) == 0 {
		r.Warnings = append(r.Warnings, "no detailed feature specifications")
	}

	r.Valid = len(r.Errors) == 0
	return r
}
