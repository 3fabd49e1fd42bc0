// Package flowspec defines the flowspec.v1 workflow document: a Flow made of
// ordered Steps connected by labelled NextStep transitions.
package flowspec

// SchemaVersion is the only document schema this package understands.
const SchemaVersion = "flowspec.v1"

// Enforcement is the policy enforcement level of a Flow.
type Enforcement string

const (
	EnforcementNone   Enforcement = "none"
	EnforcementAdvice Enforcement = "advice"
	EnforcementGuard  Enforcement = "guard"
	EnforcementHard   Enforcement = "hard"
)

// Enforcements lists the accepted enforcement levels in ascending strictness.
var Enforcements = []Enforcement{EnforcementNone, EnforcementAdvice, EnforcementGuard, EnforcementHard}

// ValidEnforcement reports whether s names a known enforcement level.
func ValidEnforcement(s string) bool {
	for _, e := range Enforcements {
		if string(e) == s {
			return true
		}
	}
	return false
}

// Step roles.
const (
	RoleHuman      = "human"
	RoleHumanAI    = "human_ai"
	RoleAI         = "ai"
	RoleAutomation = "automation"
	RoleSystem     = "system"
)

// Roles lists the step roles known to the schema.
var Roles = []string{RoleHuman, RoleHumanAI, RoleAI, RoleAutomation, RoleSystem}

// Flow is a workflow document. Keys are written back in the order they were
// read; a document built in code is written in field order.
type Flow struct {
	Schema     string         `yaml:"schema,omitempty"`
	ID         string         `yaml:"id,omitempty"`
	Title      string         `yaml:"title,omitempty"`
	Owner      string         `yaml:"owner,omitempty"`
	Labels     Strings        `yaml:"labels,omitempty"`
	Policy     *Policy        `yaml:"policy,omitempty"`
	Context    *Context       `yaml:"context,omitempty"`
	Parameters Map[Parameter] `yaml:"parameters,omitempty"`
	Roles      []Role         `yaml:"roles,omitempty"`
	Artifacts  *Artifacts     `yaml:"artifacts,omitempty"`
	Events     *Events        `yaml:"events,omitempty"`
	Steps      Steps          `yaml:"steps,omitempty"`
	Extra      map[string]any `yaml:",inline"`

	keys []string
}

// Policy controls how strictly a Flow is enforced at run time.
type Policy struct {
	Enforcement    Enforcement `yaml:"enforcement,omitempty"`
	TokensRequired *bool       `yaml:"tokensRequired,omitempty"`
	EventsRequired *bool       `yaml:"eventsRequired,omitempty"`

	keys []string
}

// Context is free-form background for the people and agents running a Flow.
type Context struct {
	Domain string  `yaml:"domain,omitempty"`
	Brief  string  `yaml:"brief,omitempty"`
	Links  Strings `yaml:"links,omitempty"`

	keys []string
}

// Parameter describes one named input of a Flow.
type Parameter struct {
	Type         string  `yaml:"type,omitempty"`
	Required     *bool   `yaml:"required,omitempty"`
	DefaultValue string  `yaml:"defaultValue,omitempty"`
	EnumValues   Strings `yaml:"enumValues,omitempty"`
	Example      string  `yaml:"example,omitempty"`
}

// Role is a participant declared by a Flow.
type Role struct {
	ID   string `yaml:"id,omitempty"`
	Kind string `yaml:"kind,omitempty"`
	UID  string `yaml:"uid,omitempty"`
	Desc string `yaml:"desc,omitempty"`
}

// Artifacts lists the files a Flow consumes and produces.
type Artifacts struct {
	Inputs  Strings `yaml:"inputs,omitempty"`
	Outputs Strings `yaml:"outputs,omitempty"`
	Scratch Strings `yaml:"scratch,omitempty"`

	keys []string
}

// Events configures the event stream a Flow emits to.
type Events struct {
	Stream string  `yaml:"stream,omitempty"`
	Types  Strings `yaml:"types,omitempty"`

	keys []string
}

// Step is one node of the workflow graph.
type Step struct {
	ID           string         `yaml:"id,omitempty"           validate:"required"`
	Title        string         `yaml:"title,omitempty"`
	Desc         string         `yaml:"desc,omitempty"`
	Role         string         `yaml:"role,omitempty"         validate:"required"`
	When         string         `yaml:"when,omitempty"`
	Token        *Token         `yaml:"token,omitempty"`
	Instructions Strings        `yaml:"instructions,omitempty" validate:"required"`
	Prompts      *Prompts       `yaml:"prompts,omitempty"`
	Acceptance   *Acceptance    `yaml:"acceptance,omitempty"   validate:"required"`
	EmitEvents   Strings        `yaml:"emitEvents,omitempty"`
	Metrics      Map[string]    `yaml:"metrics,omitempty"`
	Next         []NextStep     `yaml:"next,omitempty"`
	TimeoutMs    *int64         `yaml:"timeoutMs,omitempty"`
	MaxAttempts  *int           `yaml:"maxAttempts,omitempty"`
	Extra        map[string]any `yaml:",inline"`

	keys []string
}

// Token is the capability scope a step runs with. It is carried, not interpreted.
type Token struct {
	Advisory *bool        `yaml:"advisory,omitempty"`
	Scope    Map[any]     `yaml:"scope,omitempty"`
	Claims   *TokenClaims `yaml:"claims,omitempty"`

	keys []string
}

// TokenClaims are the identity claims bound to a step token.
type TokenClaims struct {
	Aud   string `yaml:"aud,omitempty"`
	Sub   string `yaml:"sub,omitempty"`
	Nonce string `yaml:"nonce,omitempty"`
}

// Prompts holds prompt text for AI-driven steps.
type Prompts struct {
	System string `yaml:"system,omitempty"`
	User   string `yaml:"user,omitempty"`
	Notes  string `yaml:"notes,omitempty"`

	keys []string
}

// Acceptance groups the checks that decide whether a step is complete.
type Acceptance struct {
	Checks Checks `yaml:"checks,omitempty"`

	keys []string
}

// Check is a loosely structured acceptance rule.
type Check struct {
	Description string         `yaml:"description,omitempty"`
	Kind        string         `yaml:"kind,omitempty"`
	Path        string         `yaml:"path,omitempty"`
	File        string         `yaml:"file,omitempty"`
	Keys        Strings        `yaml:"keys,omitempty"`
	Allowed     Strings        `yaml:"allowed,omitempty"`
	Min         *float64       `yaml:"min,omitempty"`
	Expr        string         `yaml:"expr,omitempty"`
	Schema      string         `yaml:"schema,omitempty"`
	OnFail      string         `yaml:"onFail,omitempty"`
	Severity    string         `yaml:"severity,omitempty"`
	Extra       map[string]any `yaml:",inline"`

	keys []string
}

// NextStep is a labelled edge from the owning step to step To.
type NextStep struct {
	To   string `yaml:"to"`
	When string `yaml:"when"`
}

// Strings is a string list that is omitted from output only when nil.
// An empty, non-nil list is written as [].
type Strings []string

// IsZero implements yaml.IsZeroer.
func (s Strings) IsZero() bool { return s == nil }

// Checks is a Check list that is omitted from output only when nil.
type Checks []Check

// IsZero implements yaml.IsZeroer.
func (c Checks) IsZero() bool { return c == nil }

// Steps is a Step list that is omitted from output only when nil.
type Steps []Step

// IsZero implements yaml.IsZeroer.
func (s Steps) IsZero() bool { return s == nil }

// StepIndex returns the position of the step with the given id, or -1.
func (f *Flow) StepIndex(id string) int {
	for i := range f.Steps {
		if f.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// Step returns the step with the given id.
func (f *Flow) Step(id string) (*Step, bool) {
	i := f.StepIndex(id)
	if i < 0 {
		return nil, false
	}
	return &f.Steps[i], true
}

// HasStep reports whether a step with the given id exists.
func (f *Flow) HasStep(id string) bool {
	return f.StepIndex(id) >= 0
}

// StepIDs returns the step ids in document order.
func (f *Flow) StepIDs() []string {
	ids := make([]string, 0, len(f.Steps))
	for _, s := range f.Steps {
		ids = append(ids, s.ID)
	}
	return ids
}
