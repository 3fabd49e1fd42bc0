package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mur-run/flowspec/internal/flowspec"
)

func flowWith(steps ...flowspec.Step) *flowspec.Flow {
	return &flowspec.Flow{Schema: flowspec.SchemaVersion, ID: "test.flow.v1", Title: "Test", Steps: steps}
}

func step(id string, next ...string) flowspec.Step {
	s := flowspec.Step{ID: id, Role: flowspec.RoleHuman, Instructions: flowspec.Strings{"do"}}
	for i, to := range next {
		s.Next = append(s.Next, flowspec.NextStep{To: to, When: string(rune('a' + i))})
	}
	return s
}

func TestReachable(t *testing.T) {
	adj := FromFlow(flowWith(step("a", "b"), step("b", "c"), step("c"), step("d", "a")))

	assert.True(t, adj.Reachable("a", "c"))
	assert.True(t, adj.Reachable("d", "c"))
	assert.True(t, adj.Reachable("b", "b"))
	assert.False(t, adj.Reachable("c", "a"))
	assert.False(t, adj.Reachable("a", "d"))
	assert.False(t, adj.Reachable("missing", "a"))
}

func TestReachable_TerminatesOnCycle(t *testing.T) {
	adj := Adjacency{"a": {"b"}, "b": {"a", "b"}}
	assert.False(t, adj.Reachable("a", "z"))
}

func TestWouldCycle(t *testing.T) {
	adj := FromFlow(flowWith(step("step1", "step2"), step("step2"), step("step3")))

	assert.True(t, adj.WouldCycle("step2", "step1"))
	assert.False(t, adj.WouldCycle("step1", "step3"))
	assert.False(t, adj.WouldCycle("step3", "step1"))
	assert.False(t, adj.WouldCycle("step1", "step1"), "self-loops are allowed")
}

func TestHasCycle(t *testing.T) {
	tests := []struct {
		name string
		adj  Adjacency
		want bool
	}{
		{"empty", Adjacency{}, false},
		{"chain", Adjacency{"a": {"b"}, "b": {"c"}, "c": nil}, false},
		{"self loop only", Adjacency{"a": {"a", "b"}, "b": nil}, false},
		{"diamond", Adjacency{"a": {"b", "c"}, "b": {"d"}, "c": {"d"}, "d": nil}, false},
		{"two cycle", Adjacency{"a": {"b"}, "b": {"a"}}, true},
		{"long cycle", Adjacency{"a": {"b"}, "b": {"c"}, "c": {"d"}, "d": {"b"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.adj.HasCycle())
		})
	}
}

func TestBuild_ImplicitEdges(t *testing.T) {
	data := Build(flowWith(step("step_one"), step("step_two")))

	require.Len(t, data.Nodes, 2)
	assert.Equal(t, "step_one", data.Nodes[0].ID)
	assert.Equal(t, "step_two", data.Nodes[1].ID)

	require.Len(t, data.Edges, 1)
	assert.Equal(t, "step_one->step_two", data.Edges[0].ID)
	assert.True(t, data.Edges[0].Implicit)
	assert.Empty(t, data.Edges[0].Label)
}

func TestBuild_ExplicitEdges(t *testing.T) {
	data := Build(flowWith(step("step_one", "step_three"), step("step_two"), step("step_three")))

	require.Len(t, data.Edges, 2)
	assert.Equal(t, Edge{ID: "step_one->step_three-0", Source: "step_one", Target: "step_three", Label: "a", Type: EdgeType}, data.Edges[0])
	assert.Equal(t, "step_two->step_three", data.Edges[1].ID)
}

func TestBuild_Empty(t *testing.T) {
	data := Build(flowWith())
	assert.Empty(t, data.Nodes)
	assert.Empty(t, data.Edges)
	assert.NotNil(t, Build(nil).Nodes)
}

func TestBuild_NodeData(t *testing.T) {
	s := step("s", "s")
	s.Instructions = flowspec.Strings{"one", "two"}
	s.Token = &flowspec.Token{}
	s.Acceptance = &flowspec.Acceptance{Checks: flowspec.Checks{{Kind: "file_exists"}, {Kind: "regex"}, {}}}

	data := Build(flowWith(step("a"), step("b"), step("c"), s))
	require.Len(t, data.Nodes, 4)

	n := data.Nodes[3]
	assert.True(t, n.Data.HasToken)
	assert.Equal(t, 2, n.Data.InstructionCount)
	assert.Equal(t, 3, n.Data.CheckCount)
	assert.Equal(t, Position{X: 0, Y: NodeHeight + SpacingY}, n.Position)
	assert.Equal(t, Position{X: 2 * (NodeWidth + SpacingX), Y: 0}, data.Nodes[2].Position)
	assert.False(t, data.Nodes[0].Data.HasToken)
}

func TestBuild_PlaceholderIDs(t *testing.T) {
	data := Build(flowWith(flowspec.Step{}, flowspec.Step{}))
	assert.Equal(t, "step_0", data.Nodes[0].ID)
	assert.Equal(t, "step_0->step_1", data.Edges[0].ID)
}
