package flowspec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleFlow() *Flow {
	advisory := true
	timeout := int64(30000)
	scope := NewMap[any]()
	scope.Set("repositories", "write")
	scope.Set("issues", "read")
	metrics := NewMap[string]()
	metrics.Set("latency", "p95")

	return &Flow{
		Schema: SchemaVersion,
		ID:     "ops.deploy.v1",
		Title:  "Deploy",
		Owner:  "ops@example.com",
		Labels: Strings{"prod"},
		Policy: &Policy{Enforcement: EnforcementGuard},
		Steps: Steps{
			{
				ID:           "build",
				Role:         RoleAutomation,
				Token:        &Token{Advisory: &advisory, Scope: scope},
				Instructions: Strings{"compile"},
				Acceptance:   &Acceptance{Checks: Checks{{Kind: "exit", Keys: Strings{"code"}}}},
				Metrics:      metrics,
				Next:         []NextStep{{To: "ship", When: "ok"}},
				TimeoutMs:    &timeout,
				Extra:        map[string]any{"x-notes": map[string]any{"a": []any{1, 2}}},
			},
			{
				ID:           "ship",
				Role:         RoleHuman,
				Instructions: Strings{},
				Acceptance:   &Acceptance{Checks: Checks{}},
			},
		},
	}
}

func TestClone_IsIndependent(t *testing.T) {
	orig := sampleFlow()
	cp := orig.Clone()

	cp.Title = "changed"
	cp.Labels[0] = "dev"
	cp.Policy.Enforcement = EnforcementHard
	cp.Steps[0].Instructions[0] = "changed"
	cp.Steps[0].Next[0].When = "changed"
	cp.Steps[0].Acceptance.Checks[0].Keys[0] = "changed"
	*cp.Steps[0].TimeoutMs = 1
	*cp.Steps[0].Token.Advisory = false
	cp.Steps[0].Token.Scope.Set("issues", "admin")
	cp.Steps[0].Metrics.Set("errors", "count")
	cp.Steps[0].Extra["x-notes"].(map[string]any)["a"].([]any)[0] = 99

	assert.Equal(t, "Deploy", orig.Title)
	assert.Equal(t, "prod", orig.Labels[0])
	assert.Equal(t, EnforcementGuard, orig.Policy.Enforcement)
	assert.Equal(t, "compile", orig.Steps[0].Instructions[0])
	assert.Equal(t, "ok", orig.Steps[0].Next[0].When)
	assert.Equal(t, "code", orig.Steps[0].Acceptance.Checks[0].Keys[0])
	assert.Equal(t, int64(30000), *orig.Steps[0].TimeoutMs)
	assert.True(t, *orig.Steps[0].Token.Advisory)
	v, _ := orig.Steps[0].Token.Scope.Get("issues")
	assert.Equal(t, "read", v)
	assert.Equal(t, 1, orig.Steps[0].Metrics.Len())
	assert.Equal(t, 1, orig.Steps[0].Extra["x-notes"].(map[string]any)["a"].([]any)[0])
}

func TestClone_PreservesNilAndEmpty(t *testing.T) {
	cp := sampleFlow().Clone()

	assert.Nil(t, cp.Steps[1].Next)
	assert.NotNil(t, cp.Steps[1].Instructions)
	assert.Empty(t, cp.Steps[1].Instructions)
	assert.NotNil(t, cp.Steps[1].Acceptance.Checks)
	assert.Nil(t, cp.Context)
}

func TestClone_Nil(t *testing.T) {
	var f *Flow
	assert.Nil(t, f.Clone())
}

func TestMarshal_EmptyListKeptNilListOmitted(t *testing.T) {
	data, err := yaml.Marshal(sampleFlow())
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "instructions: []")
	assert.Contains(t, out, "checks: []")
	assert.NotContains(t, out, "context:")
	assert.Equal(t, 1, strings.Count(out, "next:"))
}

func TestMap_KeepsDocumentOrder(t *testing.T) {
	src := `
zeta: 1
alpha: 2
mid: 3
`
	var m Map[int]
	require.NoError(t, yaml.Unmarshal([]byte(src), &m))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())

	data, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1\nalpha: 2\nmid: 3\n", string(data))
}

func TestMap_ZeroValue(t *testing.T) {
	var m Map[string]
	assert.True(t, m.IsZero())
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get("missing")
	assert.False(t, ok)
	assert.False(t, m.Delete("missing"))

	m.Set("a", "1")
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Delete("a"))
	assert.True(t, m.IsZero())
}

func TestFlow_UnknownKeysSurvive(t *testing.T) {
	src := `schema: flowspec.v1
id: a.b.v1
x-team: platform
steps:
  - id: one
    role: ai
    x-cost: 3
`
	var f Flow
	require.NoError(t, yaml.Unmarshal([]byte(src), &f))
	assert.Equal(t, "platform", f.Extra["x-team"])
	assert.Equal(t, 3, f.Steps[0].Extra["x-cost"])

	data, err := yaml.Marshal(&f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "x-team: platform")
	assert.Contains(t, string(data), "x-cost: 3")
}

func TestFlow_KeepsReadOrder(t *testing.T) {
	src := `id: a.b.v1
x-team: platform
schema: flowspec.v1
policy:
  tokensRequired: true
  enforcement: guard
steps:
  - zeta: 1
    role: ai
    alpha: 2
    id: one
    acceptance:
      checks:
        - severity: high
          kind: manual
`
	var f Flow
	require.NoError(t, yaml.Unmarshal([]byte(src), &f))

	cp := f.Clone()
	cp.Steps[0].Title = "One"
	data, err := yaml.Marshal(cp)
	require.NoError(t, err)
	out := string(data)

	order := []string{"id: a.b.v1", "x-team:", "schema:", "tokensRequired:", "enforcement:", "zeta:", "role:", "alpha:", "id: one", "title: One", "acceptance:", "severity:", "kind:"}
	for i := 1; i < len(order); i++ {
		assert.Less(t, strings.Index(out, order[i-1]), strings.Index(out, order[i]), "%s before %s\n%s", order[i-1], order[i], out)
	}
}

func TestStepLookup(t *testing.T) {
	f := sampleFlow()

	assert.Equal(t, 1, f.StepIndex("ship"))
	assert.Equal(t, -1, f.StepIndex("nope"))
	assert.True(t, f.HasStep("build"))
	assert.Equal(t, []string{"build", "ship"}, f.StepIDs())

	s, ok := f.Step("build")
	require.True(t, ok)
	assert.Equal(t, RoleAutomation, s.Role)
}

func TestPatterns(t *testing.T) {
	assert.True(t, ValidFlowID("ops.deploy.v1"))
	assert.True(t, ValidFlowID("my-team.release_train.v12"))
	assert.False(t, ValidFlowID("test.v1"))
	assert.False(t, ValidFlowID("INVALID ID"))

	// Leading digits split the two step id modes.
	assert.False(t, ValidStepID("1st", StepIDStrict))
	assert.True(t, ValidStepID("1st", StepIDLenient))
	assert.True(t, ValidStepID("step_1", StepIDStrict))
	assert.False(t, ValidStepID("Step1", StepIDLenient))
	assert.False(t, ValidStepID("", StepIDLenient))

	assert.True(t, ValidCondition("approved"))
	assert.False(t, ValidCondition("Approved"))
	assert.False(t, ValidCondition("2fast"))

	assert.True(t, ValidEmail("a@b.io"))
	assert.False(t, ValidEmail("not-an-email"))

	assert.True(t, ValidEnforcement("guard"))
	assert.False(t, ValidEnforcement("strict"))
}

func TestParseStepIDMode(t *testing.T) {
	m, err := ParseStepIDMode("")
	require.NoError(t, err)
	assert.Equal(t, StepIDStrict, m)

	m, err = ParseStepIDMode("lenient")
	require.NoError(t, err)
	assert.Equal(t, StepIDLenient, m)

	_, err = ParseStepIDMode("loose")
	assert.Error(t, err)
}
