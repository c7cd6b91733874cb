// Package diagrams renders Mermaid diagrams for generated documents.
package diagrams

import (
	"fmt"
	"strings"
	"unicode"
)

// Node is a box in a flowchart.
type Node struct {
	Name        string
	Description string
}

// Edge connects two nodes by name.
type Edge struct {
	From  string
	To    string
	Label string
}

// Flowchart renders a top-down Mermaid flowchart. Edges whose endpoints are
// not among nodes are dropped.
func Flowchart(nodes []Node, edges []Edge) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.Name == "" || known[n.Name] {
			continue
		}
		known[n.Name] = true
		label := escapeMermaid(n.Name)
		if n.Description != "" {
			label += "<br/>" + escapeMermaid(n.Description)
		}
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", nodeID(n.Name), label)
	}

	for _, e := range edges {
		if !known[e.From] || !known[e.To] {
			continue
		}
		if e.Label != "" {
			fmt.Fprintf(&b, "    %s -->|%s| %s\n", nodeID(e.From), escapeMermaid(e.Label), nodeID(e.To))
		} else {
			fmt.Fprintf(&b, "    %s --> %s\n", nodeID(e.From), nodeID(e.To))
		}
	}

	return b.String()
}

// nodeID turns a name into a Mermaid identifier.
func nodeID(name string) string {
	id := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '_'
	}, name)
	return "n_" + id
}

// escapeMermaid escapes characters that have special meaning in mermaid labels.
func escapeMermaid(s string) string {
	return strings.NewReplacer(
		"\"", "#quot;",
		"(", "#lpar;",
		")", "#rpar;",
		"[", "#lsqb;",
		"]", "#rsqb;",
		"{", "#lbrace;",
		"}", "#rbrace;",
		"<", "#lt;",
		">", "#gt;",
		"|", "#124;",
	).Replace(s)
}
