package history

// Action names a kind of edit for history descriptions.
type Action string

const (
	ActionAddStep       Action = "add_step"
	ActionRemoveStep    Action = "remove_step"
	ActionUpdateStep    Action = "update_step"
	ActionDuplicateStep Action = "duplicate_step"
	ActionAddEdge       Action = "add_edge"
	ActionRemoveEdge    Action = "remove_edge"
	ActionUpdateEdge    Action = "update_edge"
	ActionUpdateField   Action = "update_field"
	ActionLoad          Action = "load"
	ActionReset         Action = "reset"
)

// Details fills in the blanks of a description.
type Details struct {
	StepID    string
	Condition string
	Field     string
}

// Describe returns a short label such as "Add step review" for an edit.
// Unknown actions describe themselves.
func Describe(action Action, d Details) string {
	switch action {
	case ActionAddStep:
		return "Add step " + or(d.StepID, "new")
	case ActionRemoveStep:
		return "Remove step " + d.StepID
	case ActionUpdateStep:
		return "Update step " + d.StepID
	case ActionDuplicateStep:
		return "Duplicate step " + d.StepID
	case ActionAddEdge:
		return "Add edge " + d.Condition
	case ActionRemoveEdge:
		return "Remove edge " + d.Condition
	case ActionUpdateEdge:
		return "Update edge " + d.Condition
	case ActionUpdateField:
		return "Update " + or(d.Field, "field")
	case ActionLoad:
		return "Load workflow"
	case ActionReset:
		return "Reset changes"
	}
	return string(action)
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
