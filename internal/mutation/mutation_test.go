package mutation

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/graph"
)

func newStep(id string) flowspec.Step {
	return flowspec.Step{
		ID:           id,
		Role:         flowspec.RoleHuman,
		Instructions: flowspec.Strings{"Do " + id},
		Acceptance:   &flowspec.Acceptance{Checks: flowspec.Checks{{Description: id + " done"}}},
	}
}

func testFlow(ids ...string) *flowspec.Flow {
	f := &flowspec.Flow{
		Schema: flowspec.SchemaVersion,
		ID:     "test.workflow.v1",
		Title:  "Test Workflow",
		Owner:  "test@example.com",
		Policy: &flowspec.Policy{Enforcement: flowspec.EnforcementGuard},
		Steps:  flowspec.Steps{},
	}
	for _, id := range ids {
		f.Steps = append(f.Steps, newStep(id))
	}
	return f
}

func ptr[T any](v T) *T { return &v }

func assertOp(t *testing.T, err error, sentinel error, substr string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), substr)

	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.NotEmpty(t, merr.Code)
}

func TestAddStep_Appends(t *testing.T) {
	flow := testFlow("step1")
	s := flowspec.Step{
		ID:           "step3",
		Role:         flowspec.RoleAI,
		Instructions: flowspec.Strings{"x"},
		Acceptance:   &flowspec.Acceptance{Checks: flowspec.Checks{{}}},
	}

	out, err := AddStep(flow, s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"step1", "step3"}, out.StepIDs())
	assert.Equal(t, []string{"step1"}, flow.StepIDs(), "input must not change")
}

func TestAddStep_Position(t *testing.T) {
	flow := testFlow("a", "b")
	tests := []struct {
		position int
		want     []string
	}{
		{0, []string{"new_step", "a", "b"}},
		{1, []string{"a", "new_step", "b"}},
		{2, []string{"a", "b", "new_step"}},
		{99, []string{"a", "b", "new_step"}},
		{-3, []string{"new_step", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.position), func(t *testing.T) {
			out, err := AddStep(flow, newStep("new_step"), ptr(tt.position))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.StepIDs())
		})
	}
}

func TestAddStep_Rejects(t *testing.T) {
	flow := testFlow("existing_step")

	_, err := AddStep(flow, flowspec.Step{ID: "x"}, nil)
	assertOp(t, err, ErrMissingFields, "missing required fields")
	assert.Contains(t, err.Error(), "role")
	assert.Contains(t, err.Error(), "instructions")
	assert.Contains(t, err.Error(), "acceptance")

	_, err = AddStep(flow, newStep("Invalid-ID"), nil)
	assertOp(t, err, ErrInvalidStepID, "lowercase with underscores")

	_, err = AddStep(flow, newStep("1st"), nil)
	assertOp(t, err, ErrInvalidStepID, "lowercase with underscores")

	_, err = AddStep(flow, newStep("existing_step"), nil)
	assertOp(t, err, ErrStepExists, "already exists")
	assert.True(t, IsConflict(err))
}

func TestAddStep_EmptyListsAreNotMissing(t *testing.T) {
	s := newStep("s")
	s.Instructions = flowspec.Strings{}
	s.Acceptance = &flowspec.Acceptance{}

	_, err := AddStep(testFlow(), s, nil)
	assert.NoError(t, err)
}

func TestRemoveStep(t *testing.T) {
	flow := testFlow("step1", "step2", "step3")
	flow.Steps[0].Next = []flowspec.NextStep{{To: "step2", When: "a"}, {To: "step3", When: "b"}}
	flow.Steps[2].Next = []flowspec.NextStep{{To: "step2", When: "back"}}

	out, err := RemoveStep(flow, "step2")
	require.NoError(t, err)
	assert.Equal(t, []string{"step1", "step3"}, out.StepIDs())
	assert.Equal(t, []flowspec.NextStep{{To: "step3", When: "b"}}, out.Steps[0].Next)
	assert.Nil(t, out.Steps[1].Next)

	assert.Len(t, flow.Steps, 3)
	assert.Len(t, flow.Steps[0].Next, 2)
}

func TestRemoveStep_Rejects(t *testing.T) {
	_, err := RemoveStep(testFlow(), "x")
	assertOp(t, err, ErrNoSteps, "no steps")

	_, err = RemoveStep(testFlow("a"), "x")
	assertOp(t, err, ErrStepNotFound, "not found")
	assert.True(t, IsNotFound(err))
}

func TestUpdateStep(t *testing.T) {
	flow := testFlow("step1", "step2")

	out, err := UpdateStep(flow, "step2", StepPatch{
		ID:           ptr("hijacked"),
		Title:        ptr("Review"),
		Role:         ptr(flowspec.RoleAI),
		Instructions: &flowspec.Strings{"one", "two"},
		MaxAttempts:  ptr(3),
	})
	require.NoError(t, err)

	s := out.Steps[1]
	assert.Equal(t, "step2", s.ID)
	assert.Equal(t, "Review", s.Title)
	assert.Equal(t, flowspec.RoleAI, s.Role)
	assert.Equal(t, flowspec.Strings{"one", "two"}, s.Instructions)
	assert.Equal(t, 3, *s.MaxAttempts)
	assert.Equal(t, "step2 done", s.Acceptance.Checks[0].Description, "unpatched fields are kept")

	assert.Empty(t, flow.Steps[1].Title)

	_, err = UpdateStep(flow, "missing", StepPatch{})
	assertOp(t, err, ErrStepNotFound, "not found")
}

func TestDuplicateStep(t *testing.T) {
	flow := testFlow("step1", "step2")
	flow.Steps[0].Next = []flowspec.NextStep{{To: "step2", When: "done"}}

	out, err := DuplicateStep(flow, "step1", "step1_copy")
	require.NoError(t, err)
	assert.Equal(t, []string{"step1", "step1_copy", "step2"}, out.StepIDs())

	dup := out.Steps[1]
	assert.Equal(t, "step1 (Copy)", dup.Title)
	assert.Nil(t, dup.Next)
	assert.Equal(t, flow.Steps[0].Instructions, dup.Instructions)

	dup.Instructions[0] = "changed"
	assert.Equal(t, "Do step1", out.Steps[0].Instructions[0], "copy must be deep")

	flow.Steps[1].Title = "Original Step"
	out, err = DuplicateStep(flow, "step2", "step2_copy")
	require.NoError(t, err)
	assert.Equal(t, "Original Step (Copy)", out.Steps[2].Title)
}

func TestDuplicateStep_Rejects(t *testing.T) {
	flow := testFlow("a", "b")

	_, err := DuplicateStep(flow, "zzz", "c")
	assertOp(t, err, ErrStepNotFound, "not found")

	_, err = DuplicateStep(flow, "a", "Bad")
	assertOp(t, err, ErrInvalidStepID, "lowercase with underscores")

	_, err = DuplicateStep(flow, "a", "b")
	assertOp(t, err, ErrStepExists, "already exists")
}

func TestAddEdge(t *testing.T) {
	flow := testFlow("step1", "step2", "step3")

	out, err := AddEdge(flow, "step1", "step2", "success")
	require.NoError(t, err)
	out, err = AddEdge(out, "step1", "step3", "failure")
	require.NoError(t, err)

	assert.Equal(t, []flowspec.NextStep{{To: "step2", When: "success"}, {To: "step3", When: "failure"}}, out.Steps[0].Next)
	assert.Nil(t, flow.Steps[0].Next)
}

func TestAddEdge_Cycle(t *testing.T) {
	flow := testFlow("step1", "step2")

	flow2, err := AddEdge(flow, "step1", "step2", "success")
	require.NoError(t, err)

	_, err = AddEdge(flow2, "step2", "step1", "loop")
	assertOp(t, err, ErrCircular, "circular dependency")
}

func TestAddEdge_SelfLoop(t *testing.T) {
	out, err := AddEdge(testFlow("step1"), "step1", "step1", "retry")
	require.NoError(t, err)
	assert.Equal(t, "step1", out.Steps[0].Next[0].To)
	assert.Equal(t, "retry", out.Steps[0].Next[0].When)
}

func TestAddEdge_Rejects(t *testing.T) {
	flow, err := AddEdge(testFlow("step1", "step2"), "step1", "step2", "approved")
	require.NoError(t, err)

	_, err = AddEdge(flow, "non_existent", "step2", "x")
	assertOp(t, err, ErrStepNotFound, `Source step "non_existent" not found`)

	_, err = AddEdge(flow, "step1", "non_existent", "x")
	assertOp(t, err, ErrStepNotFound, `Target step "non_existent" not found`)

	_, err = AddEdge(flow, "step1", "step2", "Approved!")
	assertOp(t, err, ErrInvalidCondition, "lowercase with underscores")

	_, err = AddEdge(flow, "step1", "step2", "approved")
	assertOp(t, err, ErrConditionExists, "already exists")
}

func TestUpdateEdge(t *testing.T) {
	flow := testFlow("step1", "step2", "step3")
	flow.Steps[0].Next = []flowspec.NextStep{{To: "step2", When: "approved"}, {To: "step3", When: "rejected"}}

	out, err := UpdateEdge(flow, "step1", 0, "completed", "")
	require.NoError(t, err)
	assert.Equal(t, flowspec.NextStep{To: "step2", When: "completed"}, out.Steps[0].Next[0])

	out, err = UpdateEdge(flow, "step1", 1, "rejected", "step2")
	require.NoError(t, err)
	assert.Equal(t, flowspec.NextStep{To: "step2", When: "rejected"}, out.Steps[0].Next[1])

	_, err = UpdateEdge(flow, "step1", 0, "approved", "")
	assert.NoError(t, err, "an edge may keep its own condition")

	assert.Equal(t, "approved", flow.Steps[0].Next[0].When)
}

func TestUpdateEdge_Rejects(t *testing.T) {
	flow := testFlow("step1", "step2", "step3")
	flow.Steps[0].Next = []flowspec.NextStep{{To: "step2", When: "approved"}, {To: "step3", When: "rejected"}}
	flow.Steps[1].Next = []flowspec.NextStep{{To: "step3", When: "done"}}

	_, err := UpdateEdge(flow, "nope", 0, "x", "")
	assertOp(t, err, ErrStepNotFound, "not found")

	_, err = UpdateEdge(flow, "step3", 0, "x", "")
	assertOp(t, err, ErrNoEdges, "has no edges")

	_, err = UpdateEdge(flow, "step1", 5, "x", "")
	assertOp(t, err, ErrEdgeOutOfBounds, "Edge index 5 out of bounds")

	_, err = UpdateEdge(flow, "step1", -1, "x", "")
	assertOp(t, err, ErrEdgeOutOfBounds, "out of bounds")

	_, err = UpdateEdge(flow, "step1", 0, "BAD", "")
	assertOp(t, err, ErrInvalidCondition, "lowercase with underscores")

	_, err = UpdateEdge(flow, "step1", 0, "rejected", "")
	assertOp(t, err, ErrConditionExists, "already exists")

	_, err = UpdateEdge(flow, "step1", 0, "approved", "ghost")
	assertOp(t, err, ErrStepNotFound, `Target step "ghost" not found`)

	_, err = UpdateEdge(flow, "step2", 0, "done", "step1")
	assertOp(t, err, ErrCircular, "circular dependency")
}

func TestRemoveEdge(t *testing.T) {
	flow := testFlow("step1", "step2", "step3")
	flow.Steps[0].Next = []flowspec.NextStep{{To: "step2", When: "a"}, {To: "step3", When: "b"}}

	out, err := RemoveEdge(flow, "step1", 0)
	require.NoError(t, err)
	assert.Equal(t, []flowspec.NextStep{{To: "step3", When: "b"}}, out.Steps[0].Next)

	out, err = RemoveEdge(out, "step1", 0)
	require.NoError(t, err)
	assert.Nil(t, out.Steps[0].Next, "the next key is dropped with its last edge")

	assert.Len(t, flow.Steps[0].Next, 2)

	_, err = RemoveEdge(out, "step1", 0)
	assertOp(t, err, ErrNoEdges, "has no edges")

	_, err = RemoveEdge(flow, "step1", 2)
	assertOp(t, err, ErrEdgeOutOfBounds, "out of bounds")

	_, err = RemoveEdge(flow, "ghost", 0)
	assertOp(t, err, ErrStepNotFound, "not found")
}

func TestError(t *testing.T) {
	err := &Error{Op: "add edge", Err: ErrCircular}
	assert.Equal(t, "add edge: circular dependency", err.Error())
	assert.True(t, errors.Is(err, ErrCircular))
	assert.False(t, errors.Is(err, ErrNoEdges))
}

// Random edit sequences must keep step ids unique, conditions unique per
// step, edges pointing at real steps and the explicit graph acyclic.
func TestRandomEditsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d", "e", "f"}
	conds := []string{"ok", "fail", "retry"}
	pick := func(xs []string) string { return xs[rng.Intn(len(xs))] }

	flow := testFlow("a", "b")
	for i := 0; i < 2000; i++ {
		var next *flowspec.Flow
		var err error
		switch rng.Intn(6) {
		case 0:
			next, err = AddStep(flow, newStep(pick(ids)), ptr(rng.Intn(4)))
		case 1:
			next, err = RemoveStep(flow, pick(ids))
		case 2:
			next, err = DuplicateStep(flow, pick(ids), pick(ids))
		case 3, 4:
			next, err = AddEdge(flow, pick(ids), pick(ids), pick(conds))
		case 5:
			next, err = UpdateEdge(flow, pick(ids), rng.Intn(3), pick(conds), pick(ids))
		}
		if err != nil {
			var merr *Error
			require.ErrorAs(t, err, &merr)
			continue
		}
		flow = next
		checkInvariants(t, flow)
	}
}

func checkInvariants(t *testing.T, flow *flowspec.Flow) {
	t.Helper()
	seen := map[string]bool{}
	for _, s := range flow.Steps {
		require.False(t, seen[s.ID], "duplicate step id %q", s.ID)
		seen[s.ID] = true
	}
	for _, s := range flow.Steps {
		whens := map[string]bool{}
		for _, e := range s.Next {
			require.False(t, whens[e.When], "duplicate condition %q on %q", e.When, s.ID)
			whens[e.When] = true
			require.True(t, seen[e.To], "dangling edge %s->%s", s.ID, e.To)
		}
	}
	require.False(t, graph.FromFlow(flow).HasCycle())
}
