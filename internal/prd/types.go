// Package prd assembles, validates and renders the product requirements
// document produced at the end of a session.
package prd

import (
	"time"

	"github.com/ziadkadry99/specsprite/internal/session"
)

// Document is the final structured output of a completed session.
type Document struct {
	Metadata       Metadata            `json:"metadata"`
	Project        Project             `json:"project"`
	TechStack      TechStack           `json:"tech_stack"`
	Features       FeatureFlags        `json:"features"`
	Specifications []Specification     `json:"specifications"`
	Constraints    session.Constraints `json:"constraints"`
	Environment    Environment         `json:"environment"`
	NextSteps      []string            `json:"next_steps"`
}

// Metadata identifies the document and where it came from.
type Metadata struct {
	Name            string    `json:"name"`
	Version         string    `json:"version"`
	GeneratedAt     time.Time `json:"generated_at"`
	ConfidenceScore int       `json:"confidence_score"`
	SessionID       string    `json:"session_id"`
}

// Scale is the expected size of the project.
type Scale string

const (
	ScaleSmall  Scale = "small"
	ScaleMedium Scale = "medium"
	ScaleLarge  Scale = "large"
)

// Project describes what is being built and for whom.
type Project struct {
	Type              session.ProjectType `json:"type"`
	Description       string              `json:"description"`
	TargetAudience    string              `json:"target_audience"`
	KeyFeatures       []string            `json:"key_features"`
	BusinessModel     string              `json:"business_model,omitempty"`
	ScaleExpectations Scale               `json:"scale_expectations"`
}

// TechStack is the recommended technology selection.
type TechStack struct {
	Framework          string   `json:"framework"`
	Database           string   `json:"database,omitempty"`
	UILibrary          string   `json:"ui_library"`
	DeploymentPlatform string   `json:"deployment_platform"`
	AdditionalTools    []string `json:"additional_tools"`
}

// FeatureFlags records which capabilities the project needs.
type FeatureFlags struct {
	Auth      bool `json:"auth"`
	Payment   bool `json:"payment"`
	Admin     bool `json:"admin"`
	Search    bool `json:"search"`
	Upload    bool `json:"upload"`
	Realtime  bool `json:"realtime"`
	Analytics bool `json:"analytics"`
	Email     bool `json:"email"`
}

// Specification details the requirements of one feature.
type Specification struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Requirements        []string `json:"requirements"`
	Dependencies        []string `json:"dependencies"`
	ImplementationNotes []string `json:"implementation_notes"`
}

// Environment lists placeholder configuration for the generated project.
type Environment struct {
	Variables map[string]string `json:"variables"`
	Secrets   []string          `json:"secrets"`
}
