// Package templates provides ready-made starting points for new steps.
package templates

import (
	"fmt"
	"slices"

	"github.com/mur-run/flowspec/internal/flowspec"
)

// Kind selects a step template.
type Kind int

const (
	Blank Kind = iota
	HumanReview
	AIAnalysis
	SystemCheck
)

// Option describes a template for pickers.
type Option struct {
	Kind        Kind
	Value       string
	Label       string
	Description string
}

var options = []Option{
	{Blank, "blank", "Blank Step", "Start with a minimal step template"},
	{HumanReview, "human_review", "Human Review", "Review and decision-making step"},
	{AIAnalysis, "ai_analysis", "AI Analysis", "Automated analysis and insight generation"},
	{SystemCheck, "system_check", "System Check", "Automated validation and system checks"},
}

// All returns every template in display order.
func All() []Option {
	return slices.Clone(options)
}

// String returns the template's key, e.g. "human_review".
func (k Kind) String() string {
	for _, o := range options {
		if o.Kind == k {
			return o.Value
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a template key to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, o := range options {
		if o.Value == s {
			return o.Kind, nil
		}
	}
	return Blank, fmt.Errorf("unknown step template %q", s)
}

// NewStep builds a step from template k. The step has no next edges: the
// caller connects it once it is placed.
func NewStep(k Kind, id string) flowspec.Step {
	switch k {
	case HumanReview:
		return flowspec.Step{
			ID:    id,
			Title: "Human Review",
			Role:  flowspec.RoleHuman,
			Instructions: flowspec.Strings{
				"Review the provided content thoroughly",
				"Evaluate against the acceptance criteria",
				"Make a decision based on the review",
			},
			Acceptance: checks(
				"Content has been reviewed completely",
				"Decision has been made and documented",
				"Feedback has been provided if needed",
			),
		}
	case AIAnalysis:
		return flowspec.Step{
			ID:    id,
			Title: "AI Analysis",
			Role:  flowspec.RoleAI,
			Token: scope("repositories", "write", "issues", "write"),
			Instructions: flowspec.Strings{
				"Analyze the input data comprehensively",
				"Generate insights and recommendations",
				"Document findings clearly",
			},
			Acceptance: checks(
				"Analysis is complete and thorough",
				"Insights are documented clearly",
				"Recommendations are actionable",
			),
		}
	case SystemCheck:
		return flowspec.Step{
			ID:    id,
			Title: "System Check",
			Role:  flowspec.RoleSystem,
			Token: scope("deployments", "write", "environments", "staging"),
			Instructions: flowspec.Strings{
				"Validate system state and prerequisites",
				"Run automated checks and tests",
				"Verify all dependencies are available",
			},
			Acceptance: checks(
				"All system checks passed",
				"Prerequisites are met",
				"Dependencies are available",
			),
		}
	default:
		return flowspec.Step{
			ID:           id,
			Title:        "New Step",
			Role:         flowspec.RoleHuman,
			Instructions: flowspec.Strings{"Add your instructions here"},
			Acceptance:   checks("Add your acceptance criteria here"),
		}
	}
}

// GenerateStepID returns the first "<prefix>_<n>", n >= 1, not in existing.
func GenerateStepID(prefix string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, id := range existing {
		taken[id] = true
	}
	for n := 1; ; n++ {
		id := fmt.Sprintf("%s_%d", prefix, n)
		if !taken[id] {
			return id
		}
	}
}

func checks(descriptions ...string) *flowspec.Acceptance {
	a := &flowspec.Acceptance{Checks: make(flowspec.Checks, 0, len(descriptions))}
	for _, d := range descriptions {
		a.Checks = append(a.Checks, flowspec.Check{Description: d})
	}
	return a
}

func scope(kv ...string) *flowspec.Token {
	t := &flowspec.Token{Scope: flowspec.NewMap[any]()}
	for i := 0; i+1 < len(kv); i += 2 {
		t.Scope.Set(kv[i], kv[i+1])
	}
	return t
}
