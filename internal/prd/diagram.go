package prd

import (
	"github.com/ziadkadry99/specsprite/internal/diagrams"
)

// Architecture renders a Mermaid flowchart of the recommended stack and the
// external services the enabled features need.
func Architecture(doc *Document) string {
	app := doc.TechStack.Framework
	if app == "" {
		app = "Application"
	}
	nodes := []diagrams.Node{
		{Name: "Users", Description: doc.Project.TargetAudience},
		{Name: app, Description: doc.TechStack.UILibrary},
	}
	edges := []diagrams.Edge{{From: "Users", To: app, Label: "HTTPS"}}

	add := func(name, label string) {
		nodes = append(nodes, diagrams.Node{Name: name})
		edges = append(edges, diagrams.Edge{From: app, To: name, Label: label})
	}
	if doc.TechStack.Database != "" {
		add(doc.TechStack.Database, "stores data")
	}
	if doc.Features.Payment {
		add("Payment provider", "charges")
	}
	if doc.Features.Email {
		add("Email service", "sends mail")
	}
	if doc.Features.Upload {
		add("File storage", "uploads")
	}
	if doc.Features.Search {
		add("Search index", "queries")
	}
	if doc.Features.Analytics {
		add("Analytics", "tracks events")
	}
	if p := doc.TechStack.DeploymentPlatform; p != "" {
		nodes = append(nodes, diagrams.Node{Name: p})
		edges = append(edges, diagrams.Edge{From: p, To: app, Label: "hosts"})
	}

	return diagrams.Flowchart(nodes, edges)
}
