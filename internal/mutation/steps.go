// Package mutation implements the editing operations on a Flow. Every
// operation leaves its input untouched and returns a modified deep copy, or
// a *Error explaining why the edit was refused.
package mutation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mur-run/flowspec/internal/flowspec"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// StepPatch is a partial Step. Non-nil fields replace the step's values.
// ID is accepted but never applied: a step id is fixed once set.
type StepPatch struct {
	ID           *string
	Title        *string
	Desc         *string
	Role         *string
	When         *string
	Token        *flowspec.Token
	Instructions *flowspec.Strings
	Prompts      *flowspec.Prompts
	Acceptance   *flowspec.Acceptance
	EmitEvents   *flowspec.Strings
	Metrics      *flowspec.Map[string]
	Next         *[]flowspec.NextStep
	TimeoutMs    *int64
	MaxAttempts  *int
}

// AddStep inserts step at position, clamped to [0, len(steps)]. A nil
// position appends.
func AddStep(flow *flowspec.Flow, step flowspec.Step, position *int) (*flowspec.Flow, error) {
	const op = "add step"

	if err := validate.Struct(step); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, &Error{Op: op, Code: codes[ErrMissingFields], Message: err.Error(), Err: ErrMissingFields}
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return nil, newError(op, ErrMissingFields, "Step is missing required fields: %s", strings.Join(fields, ", "))
	}
	if !flowspec.ValidStepID(step.ID, flowspec.StepIDStrict) {
		return nil, invalidStepID(op, step.ID)
	}
	if flow.HasStep(step.ID) {
		return nil, newError(op, ErrStepExists, "Step with ID %q already exists", step.ID)
	}

	out := flow.Clone()
	at := len(out.Steps)
	if position != nil {
		at = min(max(*position, 0), len(out.Steps))
	}
	out.Steps = insert(out.Steps, at, step.Clone())
	return out, nil
}

// RemoveStep deletes a step and every edge that pointed at it. A step left
// with no edges loses its next key.
func RemoveStep(flow *flowspec.Flow, stepID string) (*flowspec.Flow, error) {
	const op = "remove step"

	if len(flow.Steps) == 0 {
		return nil, newError(op, ErrNoSteps, "Workflow has no steps")
	}
	idx := flow.StepIndex(stepID)
	if idx < 0 {
		return nil, stepNotFound(op, stepID)
	}

	out := flow.Clone()
	out.Steps = append(out.Steps[:idx], out.Steps[idx+1:]...)
	for i := range out.Steps {
		s := &out.Steps[i]
		if s.Next == nil {
			continue
		}
		kept := s.Next[:0]
		for _, e := range s.Next {
			if e.To != stepID {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		s.Next = kept
	}
	return out, nil
}

// UpdateStep merges patch onto the step with the given id.
func UpdateStep(flow *flowspec.Flow, stepID string, patch StepPatch) (*flowspec.Flow, error) {
	const op = "update step"

	idx := flow.StepIndex(stepID)
	if idx < 0 {
		return nil, stepNotFound(op, stepID)
	}

	out := flow.Clone()
	s := &out.Steps[idx]
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Desc != nil {
		s.Desc = *patch.Desc
	}
	if patch.Role != nil {
		s.Role = *patch.Role
	}
	if patch.When != nil {
		s.When = *patch.When
	}
	if patch.Token != nil {
		s.Token = patch.Token.Clone()
	}
	if patch.Instructions != nil {
		s.Instructions = patch.Instructions.Clone()
	}
	if patch.Prompts != nil {
		s.Prompts = patch.Prompts.Clone()
	}
	if patch.Acceptance != nil {
		s.Acceptance = patch.Acceptance.Clone()
	}
	if patch.EmitEvents != nil {
		s.EmitEvents = patch.EmitEvents.Clone()
	}
	if patch.Metrics != nil {
		s.Metrics = patch.Metrics.Clone(func(v string) string { return v })
	}
	if patch.Next != nil {
		s.Next = append([]flowspec.NextStep(nil), (*patch.Next)...)
	}
	if patch.TimeoutMs != nil {
		v := *patch.TimeoutMs
		s.TimeoutMs = &v
	}
	if patch.MaxAttempts != nil {
		v := *patch.MaxAttempts
		s.MaxAttempts = &v
	}
	return out, nil
}

// DuplicateStep copies a step under newID and places the copy right after
// the original. The copy is titled "<title or id> (Copy)" and has no edges.
func DuplicateStep(flow *flowspec.Flow, stepID, newID string) (*flowspec.Flow, error) {
	const op = "duplicate step"

	idx := flow.StepIndex(stepID)
	if idx < 0 {
		return nil, stepNotFound(op, stepID)
	}
	if !flowspec.ValidStepID(newID, flowspec.StepIDStrict) {
		return nil, invalidStepID(op, newID)
	}
	if flow.HasStep(newID) {
		return nil, newError(op, ErrStepExists, "Step with ID %q already exists", newID)
	}

	out := flow.Clone()
	dup := flow.Steps[idx].Clone()
	name := dup.Title
	if name == "" {
		name = dup.ID
	}
	dup.ID = newID
	dup.Title = name + " (Copy)"
	dup.Next = nil
	out.Steps = insert(out.Steps, idx+1, dup)
	return out, nil
}

func insert(steps flowspec.Steps, at int, s flowspec.Step) flowspec.Steps {
	steps = append(steps, flowspec.Step{})
	copy(steps[at+1:], steps[at:])
	steps[at] = s
	return steps
}

func stepNotFound(op, id string) *Error {
	return newError(op, ErrStepNotFound, "Step %q not found", id)
}

func invalidStepID(op, id string) *Error {
	return newError(op, ErrInvalidStepID,
		"Step ID %q must be lowercase with underscores, starting with a letter (e.g. review_code)", id)
}
