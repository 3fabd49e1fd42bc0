package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/templates"
)

type newFlow struct {
	ID          string `validate:"required,flowid"`
	Title       string `validate:"required"`
	Owner       string `validate:"required,email"`
	Enforcement string `validate:"enforcement"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("flowid", func(fl validator.FieldLevel) bool {
		return flowspec.ValidFlowID(fl.Field().String())
	})
	_ = v.RegisterValidation("enforcement", func(fl validator.FieldLevel) bool {
		return flowspec.ValidEnforcement(fl.Field().String())
	})
	return v
}

// Create builds a Flow with no steps. A nil policy means enforcement "none".
func Create(id, title, owner string, policy *flowspec.Policy) (*flowspec.Flow, error) {
	p := policy.Clone()
	if p == nil {
		p = &flowspec.Policy{}
	}
	if p.Enforcement == "" {
		p.Enforcement = flowspec.EnforcementNone
	}

	req := newFlow{ID: id, Title: title, Owner: owner, Enforcement: string(p.Enforcement)}
	if err := validate.Struct(req); err != nil {
		return nil, createError(req, err)
	}

	return &flowspec.Flow{
		Schema: flowspec.SchemaVersion,
		ID:     id,
		Title:  title,
		Owner:  owner,
		Policy: p,
		Steps:  flowspec.Steps{},
	}, nil
}

// CreateFromTemplate builds a Flow holding one blank step, so the result is
// valid and can be saved right away.
func CreateFromTemplate(id, title, owner string) (*flowspec.Flow, error) {
	flow, err := Create(id, title, owner, nil)
	if err != nil {
		return nil, err
	}
	flow.Steps = append(flow.Steps, templates.NewStep(templates.Blank, templates.GenerateStepID("step", nil)))
	return flow, nil
}

func createError(req newFlow, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid workflow: %w", err)
	}

	var missing, problems []string
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			missing = append(missing, name)
		case "flowid":
			problems = append(problems, fmt.Sprintf("id %q must match pattern <domain>.<name>.v<major>", req.ID))
		case "email":
			problems = append(problems, fmt.Sprintf("owner %q is not a valid email address", req.Owner))
		case "enforcement":
			problems = append(problems, fmt.Sprintf("enforcement %q must be one of none, advice, guard, hard", req.Enforcement))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s", name, fe.Tag()))
		}
	}
	if len(missing) > 0 {
		problems = append([]string{"missing required fields: " + strings.Join(missing, ", ")}, problems...)
	}
	return fmt.Errorf("invalid workflow: %s", strings.Join(problems, "; "))
}
