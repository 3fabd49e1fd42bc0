package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/mutation"
	"github.com/mur-run/flowspec/internal/parser"
	"github.com/mur-run/flowspec/internal/validator"
)

const validDoc = `schema: flowspec.v1
id: test.workflow.v1
title: Test Workflow
owner: test@example.com
labels: []
policy:
  enforcement: guard
  tokensRequired: false
parameters:
  repo:
    type: string
    required: true
  branch:
    type: string
    defaultValue: main
steps:
  - id: step1
    title: First Step
    role: human
    token:
      scope:
        fsRead: true
        net: none
    instructions:
      - Do something with a fairly long instruction line that would be wrapped by a serializer with a narrow line width setting
    acceptance:
      checks:
        - kind: manual
          expr: completed
          reviewer: alice
    metrics:
      zeta: z
      alpha: a
    next:
      - to: step2
        when: done
    custom_hint: keep me
  - id: step2
    role: ai
    instructions:
      - Do more
    acceptance:
      checks: []
    timeoutMs: 60000
`

func TestLoad_Valid(t *testing.T) {
	flow, warnings, err := Load(validDoc, Options{})
	require.NoError(t, err)
	assert.Equal(t, "test.workflow.v1", flow.ID)
	assert.Equal(t, []string{"step1", "step2"}, flow.StepIDs())

	require.Len(t, warnings, 1)
	assert.Equal(t, "steps[1].acceptance.checks", warnings[0].Path)
}

func TestLoad_StrictPromotesWarnings(t *testing.T) {
	_, _, err := Load(validDoc, Options{Strict: true})
	require.Error(t, err)

	var verr *ValidationFailedError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "Validation failed")
	assert.Contains(t, err.Error(), "steps[1].acceptance.checks: At least one check is required")
}

func TestLoad_Empty(t *testing.T) {
	for _, text := range []string{"", "\n\n", "null"} {
		_, _, err := Load(text, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid workflow structure")

		var serr *StructureError
		assert.ErrorAs(t, err, &serr)
		assert.ErrorIs(t, err, parser.ErrEmpty)
	}
}

func TestLoad_Malformed(t *testing.T) {
	_, _, err := Load("schema: [unclosed\n", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid workflow structure")
	assert.ErrorIs(t, err, parser.ErrSyntax)
}

func TestLoad_WrongShape(t *testing.T) {
	_, _, err := Load("schema: flowspec.v1\nid: a.b.v1\ntitle: T\n", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShape)
	assert.Contains(t, err.Error(), "Invalid workflow structure")
	assert.Contains(t, err.Error(), "missing steps")

	_, _, err = Load("- just\n- a list\n", Options{})
	assert.ErrorIs(t, err, ErrShape)
}

func TestLoad_ValidationFailure(t *testing.T) {
	text := strings.Replace(validDoc, "owner: test@example.com", "owner: nobody", 1)
	text = strings.Replace(text, "    role: ai\n", "", 1)

	_, _, err := Load(text, Options{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Validation failed:\n"))
	assert.Contains(t, err.Error(), "owner: Owner must be a valid email address")
	assert.Contains(t, err.Error(), "steps[1].role: Step role is required")
	assert.NotContains(t, err.Error(), "At least one check", "warnings are not listed in non-strict mode")
}

func TestSave_Format(t *testing.T) {
	flow, _, err := Load(validDoc, Options{})
	require.NoError(t, err)

	out, err := Save(flow)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "schema: flowspec.v1", lines[0])
	assert.Equal(t, "id: test.workflow.v1", lines[1])
	assert.Equal(t, "title: Test Workflow", lines[2])
	assert.Contains(t, out, "\n  enforcement: guard\n")
	assert.Contains(t, out, "labels: []\n")
	assert.Contains(t, out, "checks: []\n")
	assert.Contains(t, out, "tokensRequired: false\n")
	assert.Contains(t, out, "custom_hint: keep me\n")
	assert.Contains(t, out, "reviewer: alice\n")
	assert.Contains(t, out, "that would be wrapped by a serializer with a narrow line width setting\n")
	assert.NotContains(t, out, "context:")
	assert.NotContains(t, out, "&")

	assert.Less(t, strings.Index(out, "repo:"), strings.Index(out, "branch:"))
	assert.Less(t, strings.Index(out, "zeta:"), strings.Index(out, "alpha:"))
	assert.Less(t, strings.Index(out, "fsRead:"), strings.Index(out, "net:"))
}

func TestSave_RoundTrip(t *testing.T) {
	flow, _, err := Load(validDoc, Options{})
	require.NoError(t, err)
	flow, err = mutation.AddEdge(flow, "step2", "step2", "retry")
	require.NoError(t, err)

	first, err := Save(flow)
	require.NoError(t, err)
	again, _, err := Load(first, Options{})
	require.NoError(t, err)
	second, err := Save(again)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, flow.StepIDs(), again.StepIDs())
	assert.Equal(t, flow.Steps[0].Next, again.Steps[0].Next)
	assert.Equal(t, flow.Steps[1].Next, again.Steps[1].Next)
	assert.Equal(t, int64(60000), *again.Steps[1].TimeoutMs)
}

const reorderedDoc = `id: test.workflow.v1
schema: flowspec.v1
owner: test@example.com
title: Test Workflow
x-notes: keep here
policy:
  enforcement: guard
steps:
  - zeta: 1
    alpha: 2
    role: human
    id: step1
    instructions:
      - Do it
    acceptance:
      checks:
        - reviewer: alice
          description: Done
`

func TestSave_KeepsKeyOrder(t *testing.T) {
	flow, _, err := Load(reorderedDoc, Options{})
	require.NoError(t, err)

	out, err := Save(flow)
	require.NoError(t, err)
	assert.Equal(t, reorderedDoc, out)

	// A field set by an edit lands after the key that precedes it in field order.
	title := "First"
	flow, err = mutation.UpdateStep(flow, "step1", mutation.StepPatch{Title: &title})
	require.NoError(t, err)
	out, err = Save(flow)
	require.NoError(t, err)
	assert.Contains(t, out, "  - zeta: 1\n    alpha: 2\n    role: human\n    id: step1\n    title: First\n    instructions:\n")
	assert.True(t, strings.HasPrefix(out, "id: test.workflow.v1\nschema: flowspec.v1\n"))
	assert.Less(t, strings.Index(out, "x-notes:"), strings.Index(out, "steps:"))
}

func TestLoad_Aliases(t *testing.T) {
	text := `schema: flowspec.v1
id: test.workflow.v1
title: Test Workflow
owner: test@example.com
policy:
  enforcement: guard
steps:
  - id: step1
    role: human
    instructions: &ins [go]
    acceptance: &acc
      checks:
        - description: Done
  - id: step2
    role: ai
    instructions: *ins
    acceptance: *acc
`
	flow, _, err := Load(text, Options{})
	require.NoError(t, err)
	assert.Equal(t, flowspec.Strings{"go"}, flow.Steps[1].Instructions)
	assert.Equal(t, "Done", flow.Steps[1].Acceptance.Checks[0].Description)

	out, err := Save(flow)
	require.NoError(t, err)
	assert.NotContains(t, out, "*ins")
	assert.Equal(t, 2, strings.Count(out, "description: Done"))
}

func TestSave_RefusesInvalid(t *testing.T) {
	flow, _, err := Load(validDoc, Options{})
	require.NoError(t, err)
	flow.ID = "INVALID ID"

	_, err = Save(flow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid workflow")
	assert.Contains(t, err.Error(), "id: ID must match pattern")

	var verr *ValidationFailedError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 1)
}

func TestValidate(t *testing.T) {
	flow, _, err := Load(validDoc, Options{})
	require.NoError(t, err)

	errs := Validate(flow, Options{})
	assert.Len(t, errs, 1)
	assert.False(t, validator.HasErrors(errs))
	assert.True(t, validator.HasErrors(Validate(flow, Options{Strict: true})))
}

func TestCreate(t *testing.T) {
	flow, err := Create("test.workflow.v1", "Test Workflow", "test@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, flowspec.SchemaVersion, flow.Schema)
	assert.Equal(t, "test@example.com", flow.Owner)
	assert.Equal(t, flowspec.EnforcementNone, flow.Policy.Enforcement)
	assert.NotNil(t, flow.Steps)
	assert.Empty(t, flow.Steps)

	policy := &flowspec.Policy{Enforcement: flowspec.EnforcementGuard}
	flow, err = Create("test.workflow.v1", "Test", "test@example.com", policy)
	require.NoError(t, err)
	assert.Equal(t, flowspec.EnforcementGuard, flow.Policy.Enforcement)
	assert.NotSame(t, policy, flow.Policy)
}

func TestCreate_Rejects(t *testing.T) {
	tests := []struct {
		name, id, title, owner string
		policy                 *flowspec.Policy
		want                   string
	}{
		{"bad id", "INVALID", "Test", "test@example.com", nil, "pattern"},
		{"bad email", "test.flow.v1", "Test", "invalid-email", nil, "email"},
		{"missing id", "", "Test", "test@example.com", nil, "required fields: id"},
		{"missing title", "a.b.v1", "", "test@example.com", nil, "required fields: title"},
		{"bad enforcement", "a.b.v1", "T", "a@b.co", &flowspec.Policy{Enforcement: "maximum"}, "enforcement"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(tt.id, tt.title, tt.owner, tt.policy)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid workflow")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCreateFromTemplate(t *testing.T) {
	flow, err := CreateFromTemplate("template.test.v1", "Template Test", "template@example.com")
	require.NoError(t, err)
	require.Len(t, flow.Steps, 1)
	assert.Equal(t, "step_1", flow.Steps[0].ID)

	out, err := Save(flow)
	require.NoError(t, err)
	assert.Contains(t, out, "- id: step_1")

	_, err = CreateFromTemplate("Invalid_ID", "Test", "test@example.com")
	assert.ErrorContains(t, err, "pattern")
}

func TestCreate_EmptyFlowCannotBeSaved(t *testing.T) {
	flow, err := Create("test.workflow.v1", "Test", "test@example.com", nil)
	require.NoError(t, err)

	_, err = Save(flow)
	assert.ErrorContains(t, err, "steps: At least one step is required")
}
