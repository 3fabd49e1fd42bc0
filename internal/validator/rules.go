package validator

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/parser"
)

// absent reports whether a value counts as missing: no node, null, empty
// string, false or zero.
func absent(n *yaml.Node) bool {
	n = parser.Resolve(n)
	if n == nil {
		return true
	}
	if n.Kind != yaml.ScalarNode {
		return false
	}
	switch n.Tag {
	case "!!null":
		return true
	case "!!bool":
		return n.Value == "false"
	case "!!int", "!!float":
		return n.Value == "0" || n.Value == "0.0"
	}
	return n.Value == ""
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!str"
}

func (v *run) root(n *yaml.Node) {
	n = parser.Resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		v.error(n, "", "Workflow must be an object")
		return
	}

	schema := parser.Lookup(n, "schema")
	if absent(schema) {
		v.error(n, "schema", `Field "schema" is required`)
	} else if !isString(schema) || schema.Value != flowspec.SchemaVersion {
		v.error(schema, "schema", fmt.Sprintf("Schema must be %q, got %q", flowspec.SchemaVersion, schema.Value))
	}

	id := parser.Lookup(n, "id")
	if absent(id) {
		v.error(n, "id", `Field "id" is required`)
	} else if !isString(id) || !flowspec.ValidFlowID(id.Value) {
		v.error(id, "id", "ID must match pattern: <domain>.<name>.v<major>")
	}

	if absent(parser.Lookup(n, "title")) {
		v.error(n, "title", `Field "title" is required`)
	}

	owner := parser.Lookup(n, "owner")
	if absent(owner) {
		v.error(n, "owner", `Field "owner" is required`)
	} else if !isString(owner) || !flowspec.ValidEmail(owner.Value) {
		v.error(owner, "owner", "Owner must be a valid email address")
	}

	policy := parser.Lookup(n, "policy")
	if absent(policy) {
		v.error(n, "policy", `Field "policy" is required`)
	} else {
		v.policy(policy)
	}

	steps := parser.Lookup(n, "steps")
	switch {
	case absent(steps):
		v.error(n, "steps", `Field "steps" is required`)
	case steps.Kind != yaml.SequenceNode:
		v.error(steps, "steps", "Steps must be an array")
	case len(steps.Content) == 0:
		v.error(steps, "steps", "At least one step is required")
	default:
		v.steps(steps)
	}
}

func (v *run) policy(n *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		v.error(n, "policy", "Policy must be an object")
		return
	}
	enforcement := parser.Lookup(n, "enforcement")
	if absent(enforcement) {
		v.error(n, "policy.enforcement", "Enforcement level is required")
		return
	}
	if !isString(enforcement) || !flowspec.ValidEnforcement(enforcement.Value) {
		levels := make([]string, len(flowspec.Enforcements))
		for i, e := range flowspec.Enforcements {
			levels[i] = string(e)
		}
		v.error(enforcement, "policy.enforcement", "Enforcement must be one of: "+strings.Join(levels, ", "))
	}
}

func (v *run) steps(seq *yaml.Node) {
	seen := make(map[string]bool, len(seq.Content))
	known := make(map[string]bool, len(seq.Content))
	for _, s := range seq.Content {
		if id := parser.Lookup(s, "id"); id != nil && isString(id) {
			known[id.Value] = true
		}
	}

	for i, s := range seq.Content {
		s = parser.Resolve(s)
		path := fmt.Sprintf("steps[%d]", i)
		if s.Kind != yaml.MappingNode {
			v.error(s, path, "Step must be an object")
			continue
		}

		id := parser.Lookup(s, "id")
		switch {
		case absent(id):
			v.error(s, path+".id", "Step ID is required")
		case !isString(id):
			v.error(id, path+".id", "Step ID must be a string")
		case !flowspec.ValidStepID(id.Value, v.opts.StepIDs):
			v.error(id, path+".id", stepIDMessage(v.opts.StepIDs))
		case seen[id.Value]:
			v.error(id, path+".id", "Duplicate step ID: "+id.Value)
		default:
			seen[id.Value] = true
		}

		if absent(parser.Lookup(s, "role")) {
			v.error(s, path+".role", "Step role is required")
		}

		instructions := parser.Lookup(s, "instructions")
		switch {
		case absent(instructions):
			v.error(s, path+".instructions", "Step instructions are required")
		case instructions.Kind != yaml.SequenceNode:
			v.error(instructions, path+".instructions", "Instructions must be an array")
		case len(instructions.Content) == 0:
			v.warning(instructions, path+".instructions", "At least one instruction is required")
		}

		acceptance := parser.Lookup(s, "acceptance")
		if absent(acceptance) {
			v.error(s, path+".acceptance", "Step acceptance criteria are required")
		} else {
			v.acceptance(acceptance, path+".acceptance")
		}

		if next := parser.Lookup(s, "next"); next != nil && next.Kind == yaml.SequenceNode {
			v.edges(next, path+".next", known)
		}
	}
}

func (v *run) acceptance(n *yaml.Node, path string) {
	if n.Kind != yaml.MappingNode {
		v.error(n, path, "Acceptance must be an object")
		return
	}
	checks := parser.Lookup(n, "checks")
	switch {
	case absent(checks):
		v.error(n, path+".checks", "Acceptance checks are required")
	case checks.Kind != yaml.SequenceNode:
		v.error(checks, path+".checks", "Checks must be an array")
	case len(checks.Content) == 0:
		v.warning(checks, path+".checks", "At least one check is required")
	}
}

// edges reports transitions that point nowhere or reuse a condition label.
// These are warnings: the editing operations never produce them, but a
// hand-edited file may.
func (v *run) edges(seq *yaml.Node, path string, known map[string]bool) {
	conditions := make(map[string]bool, len(seq.Content))
	for j, e := range seq.Content {
		e = parser.Resolve(e)
		epath := fmt.Sprintf("%s[%d]", path, j)
		if e.Kind != yaml.MappingNode {
			v.warning(e, epath, "Transition must be an object")
			continue
		}
		if to := parser.Lookup(e, "to"); !absent(to) && !known[to.Value] {
			v.warning(to, epath+".to", fmt.Sprintf("Target step %q not found", to.Value))
		}
		if when := parser.Lookup(e, "when"); !absent(when) {
			if conditions[when.Value] {
				v.warning(when, epath+".when", fmt.Sprintf("Condition %q is used by another transition", when.Value))
			}
			conditions[when.Value] = true
		}
	}
}

func stepIDMessage(mode flowspec.StepIDMode) string {
	if mode == flowspec.StepIDLenient {
		return "Step ID must be snake_case (lowercase letters, digits and underscores)"
	}
	return "Step ID must be snake_case, starting with a lowercase letter"
}
