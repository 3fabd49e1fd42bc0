package mutation

import (
	"errors"
	"fmt"
)

// Precondition failures. Every *Error returned by this package wraps one.
var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidStepID    = errors.New("invalid step id")
	ErrStepExists       = errors.New("step already exists")
	ErrStepNotFound     = errors.New("step not found")
	ErrNoSteps          = errors.New("workflow has no steps")
	ErrInvalidCondition = errors.New("invalid condition")
	ErrConditionExists  = errors.New("condition already exists")
	ErrCircular         = errors.New("circular dependency")
	ErrNoEdges          = errors.New("step has no edges")
	ErrEdgeOutOfBounds  = errors.New("edge index out of bounds")
)

// Error is a rejected edit. Message is suitable for direct display.
type Error struct {
	Op      string // Operation name
	Code    string // Stable machine-readable code
	Message string // Human-readable message
	Err     error  // Underlying sentinel
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsNotFound reports whether err names a step that does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound) || errors.Is(err, ErrNoSteps)
}

// IsConflict reports whether err rejects an edit that clashes with the
// current graph: duplicate ids or conditions, or a cycle.
func IsConflict(err error) bool {
	return errors.Is(err, ErrStepExists) ||
		errors.Is(err, ErrConditionExists) ||
		errors.Is(err, ErrCircular)
}

func newError(op string, sentinel error, format string, args ...any) *Error {
	return &Error{
		Op:      op,
		Code:    codes[sentinel],
		Message: fmt.Sprintf(format, args...),
		Err:     sentinel,
	}
}

var codes = map[error]string{
	ErrMissingFields:    "missing_fields",
	ErrInvalidStepID:    "invalid_step_id",
	ErrStepExists:       "step_exists",
	ErrStepNotFound:     "step_not_found",
	ErrNoSteps:          "no_steps",
	ErrInvalidCondition: "invalid_condition",
	ErrConditionExists:  "condition_exists",
	ErrCircular:         "circular_dependency",
	ErrNoEdges:          "no_edges",
	ErrEdgeOutOfBounds:  "edge_out_of_bounds",
}
