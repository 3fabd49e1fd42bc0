package mutation

import (
	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/graph"
)

// AddEdge appends a transition sourceID -> targetID labelled condition.
// Self-loops are allowed; any other edge that closes a cycle is refused.
func AddEdge(flow *flowspec.Flow, sourceID, targetID, condition string) (*flowspec.Flow, error) {
	const op = "add edge"

	src := flow.StepIndex(sourceID)
	if src < 0 {
		return nil, newError(op, ErrStepNotFound, "Source step %q not found", sourceID)
	}
	if !flow.HasStep(targetID) {
		return nil, newError(op, ErrStepNotFound, "Target step %q not found", targetID)
	}
	if !flowspec.ValidCondition(condition) {
		return nil, invalidCondition(op, condition)
	}
	for _, e := range flow.Steps[src].Next {
		if e.When == condition {
			return nil, conditionExists(op, condition, sourceID)
		}
	}
	if graph.FromFlow(flow).WouldCycle(sourceID, targetID) {
		return nil, circular(op, sourceID, targetID)
	}

	out := flow.Clone()
	s := &out.Steps[src]
	s.Next = append(s.Next, flowspec.NextStep{To: targetID, When: condition})
	return out, nil
}

// UpdateEdge replaces the condition of edge index on sourceID and, when
// newTargetID is not empty, its target.
func UpdateEdge(flow *flowspec.Flow, sourceID string, index int, newCondition, newTargetID string) (*flowspec.Flow, error) {
	const op = "update edge"

	src, err := edgeSource(op, flow, sourceID, index)
	if err != nil {
		return nil, err
	}
	if !flowspec.ValidCondition(newCondition) {
		return nil, invalidCondition(op, newCondition)
	}
	for i, e := range flow.Steps[src].Next {
		if i != index && e.When == newCondition {
			return nil, conditionExists(op, newCondition, sourceID)
		}
	}

	target := flow.Steps[src].Next[index].To
	if newTargetID != "" && newTargetID != target {
		if !flow.HasStep(newTargetID) {
			return nil, newError(op, ErrStepNotFound, "Target step %q not found", newTargetID)
		}
		if graph.FromFlow(flow).WouldCycle(sourceID, newTargetID) {
			return nil, circular(op, sourceID, newTargetID)
		}
		target = newTargetID
	}

	out := flow.Clone()
	out.Steps[src].Next[index] = flowspec.NextStep{To: target, When: newCondition}
	return out, nil
}

// RemoveEdge deletes edge index from sourceID. Removing the last edge drops
// the next key.
func RemoveEdge(flow *flowspec.Flow, sourceID string, index int) (*flowspec.Flow, error) {
	const op = "remove edge"

	src, err := edgeSource(op, flow, sourceID, index)
	if err != nil {
		return nil, err
	}

	out := flow.Clone()
	s := &out.Steps[src]
	s.Next = append(s.Next[:index], s.Next[index+1:]...)
	if len(s.Next) == 0 {
		s.Next = nil
	}
	return out, nil
}

func edgeSource(op string, flow *flowspec.Flow, sourceID string, index int) (int, error) {
	src := flow.StepIndex(sourceID)
	if src < 0 {
		return -1, newError(op, ErrStepNotFound, "Source step %q not found", sourceID)
	}
	next := flow.Steps[src].Next
	if len(next) == 0 {
		return -1, newError(op, ErrNoEdges, "Step %q has no edges", sourceID)
	}
	if index < 0 || index >= len(next) {
		return -1, newError(op, ErrEdgeOutOfBounds, "Edge index %d out of bounds (step %q has %d edges)", index, sourceID, len(next))
	}
	return src, nil
}

func invalidCondition(op, condition string) *Error {
	return newError(op, ErrInvalidCondition,
		"Condition %q must be lowercase with underscores, starting with a letter (e.g. approved)", condition)
}

func conditionExists(op, condition, sourceID string) *Error {
	return newError(op, ErrConditionExists, "Condition %q already exists on step %q", condition, sourceID)
}

func circular(op, sourceID, targetID string) *Error {
	return newError(op, ErrCircular, "Edge from %q to %q would create a circular dependency", sourceID, targetID)
}
