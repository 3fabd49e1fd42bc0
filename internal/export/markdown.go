// Package export renders flows for people who do not read YAML.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/graph"
)

// Markdown renders flow as a readable runbook.
func Markdown(flow *flowspec.Flow) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", flow.Title)
	fmt.Fprintf(&b, "> **ID:** `%s`  \n> **Owner:** %s\n", flow.ID, flow.Owner)
	if flow.Policy != nil && flow.Policy.Enforcement != "" {
		fmt.Fprintf(&b, "> **Enforcement:** %s\n", flow.Policy.Enforcement)
	}
	b.WriteString("\n")

	if flow.Context != nil && flow.Context.Brief != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(flow.Context.Brief))
	}

	// Parameters
	if flow.Parameters.Len() > 0 {
		b.WriteString("## Parameters\n\n")
		b.WriteString("| Name | Type | Required | Default |\n")
		b.WriteString("|------|------|----------|---------|\n")
		flow.Parameters.Range(func(name string, p flowspec.Parameter) bool {
			req := "No"
			if p.Required != nil && *p.Required {
				req = "Yes"
			}
			def := p.DefaultValue
			if def == "" {
				def = "-"
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", name, or(p.Type, "-"), req, def)
			return true
		})
		b.WriteString("\n")
	}

	// Steps
	if len(flow.Steps) > 0 {
		b.WriteString("## Steps\n\n")
		for i := range flow.Steps {
			writeStep(&b, i, &flow.Steps[i])
		}
	}

	// Flow
	data := graph.Build(flow)
	if len(data.Edges) > 0 {
		b.WriteString("## Flow\n\n```mermaid\nflowchart TD\n")
		for _, e := range data.Edges {
			if e.Implicit {
				fmt.Fprintf(&b, "    %s --> %s\n", e.Source, e.Target)
			} else {
				fmt.Fprintf(&b, "    %s -->|%s| %s\n", e.Source, e.Label, e.Target)
			}
		}
		b.WriteString("```\n")
	}

	return b.String()
}

func writeStep(b *strings.Builder, i int, s *flowspec.Step) {
	title := s.Title
	if title == "" {
		title = s.ID
	}
	fmt.Fprintf(b, "### %d. %s\n\n", i+1, title)
	fmt.Fprintf(b, "- Step: `%s`\n- Role: %s\n", s.ID, or(s.Role, "-"))
	if s.Token != nil {
		b.WriteString("- Token: required\n")
	}
	if s.TimeoutMs != nil {
		fmt.Fprintf(b, "- Timeout: %d ms\n", *s.TimeoutMs)
	}
	if s.MaxAttempts != nil {
		fmt.Fprintf(b, "- Max attempts: %d\n", *s.MaxAttempts)
	}
	b.WriteString("\n")

	if s.Desc != "" {
		fmt.Fprintf(b, "%s\n\n", strings.TrimSpace(s.Desc))
	}
	if len(s.Instructions) > 0 {
		b.WriteString("**Instructions**\n\n")
		for n, ins := range s.Instructions {
			fmt.Fprintf(b, "%d. %s\n", n+1, ins)
		}
		b.WriteString("\n")
	}
	if s.Acceptance != nil && len(s.Acceptance.Checks) > 0 {
		b.WriteString("**Acceptance**\n\n")
		for _, c := range s.Acceptance.Checks {
			fmt.Fprintf(b, "- [ ] %s\n", or(c.Description, c.Kind))
		}
		b.WriteString("\n")
	}
	if len(s.Next) > 0 {
		b.WriteString("**Next**\n\n")
		for _, e := range s.Next {
			fmt.Fprintf(b, "- when `%s` → `%s`\n", e.When, e.To)
		}
		b.WriteString("\n")
	}
}

// WriteMarkdown renders flow to path, creating parent directories.
func WriteMarkdown(flow *flowspec.Flow, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, []byte(Markdown(flow)), 0644)
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
