package flowspec

// Clone returns a deep copy of f. Nil stays nil and empty stays empty, so a
// cloned document serializes exactly like its source.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	out := &Flow{
		Schema:     f.Schema,
		ID:         f.ID,
		Title:      f.Title,
		Owner:      f.Owner,
		Labels:     f.Labels.Clone(),
		Policy:     f.Policy.Clone(),
		Context:    f.Context.Clone(),
		Parameters: f.Parameters.Clone(func(p Parameter) Parameter { return p.Clone() }),
		Artifacts:  f.Artifacts.Clone(),
		Events:     f.Events.Clone(),
		Steps:      f.Steps.Clone(),
		Extra:      cloneExtra(f.Extra),
		keys:       f.keys,
	}
	if f.Roles != nil {
		out.Roles = make([]Role, len(f.Roles))
		copy(out.Roles, f.Roles)
	}
	return out
}

func (s Strings) Clone() Strings {
	if s == nil {
		return nil
	}
	out := make(Strings, len(s))
	copy(out, s)
	return out
}

func (s Steps) Clone() Steps {
	if s == nil {
		return nil
	}
	out := make(Steps, len(s))
	for i := range s {
		out[i] = s[i].Clone()
	}
	return out
}

func (c Checks) Clone() Checks {
	if c == nil {
		return nil
	}
	out := make(Checks, len(c))
	for i := range c {
		out[i] = c[i].Clone()
	}
	return out
}

func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}
	return &Policy{
		Enforcement:    p.Enforcement,
		TokensRequired: clonePtr(p.TokensRequired),
		EventsRequired: clonePtr(p.EventsRequired),
		keys:           p.keys,
	}
}

func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	return &Context{Domain: c.Domain, Brief: c.Brief, Links: c.Links.Clone(), keys: c.keys}
}

func (p Parameter) Clone() Parameter {
	p.Required = clonePtr(p.Required)
	p.EnumValues = p.EnumValues.Clone()
	return p
}

func (a *Artifacts) Clone() *Artifacts {
	if a == nil {
		return nil
	}
	return &Artifacts{
		Inputs:  a.Inputs.Clone(),
		Outputs: a.Outputs.Clone(),
		Scratch: a.Scratch.Clone(),
		keys:    a.keys,
	}
}

func (e *Events) Clone() *Events {
	if e == nil {
		return nil
	}
	return &Events{Stream: e.Stream, Types: e.Types.Clone(), keys: e.keys}
}

// Clone returns a deep copy of s.
func (s Step) Clone() Step {
	out := s
	out.Token = s.Token.Clone()
	out.Instructions = s.Instructions.Clone()
	out.Prompts = s.Prompts.Clone()
	out.Acceptance = s.Acceptance.Clone()
	out.EmitEvents = s.EmitEvents.Clone()
	out.Metrics = s.Metrics.Clone(func(v string) string { return v })
	out.Next = cloneEdges(s.Next)
	out.TimeoutMs = clonePtr(s.TimeoutMs)
	out.MaxAttempts = clonePtr(s.MaxAttempts)
	out.Extra = cloneExtra(s.Extra)
	return out
}

func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	out := &Token{
		Advisory: clonePtr(t.Advisory),
		Scope:    t.Scope.Clone(cloneValue),
		keys:     t.keys,
	}
	if t.Claims != nil {
		claims := *t.Claims
		out.Claims = &claims
	}
	return out
}

func (p *Prompts) Clone() *Prompts {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

func (a *Acceptance) Clone() *Acceptance {
	if a == nil {
		return nil
	}
	return &Acceptance{Checks: a.Checks.Clone(), keys: a.keys}
}

func (c Check) Clone() Check {
	out := c
	out.Keys = c.Keys.Clone()
	out.Allowed = c.Allowed.Clone()
	out.Min = clonePtr(c.Min)
	out.Extra = cloneExtra(c.Extra)
	return out
}

func cloneEdges(next []NextStep) []NextStep {
	if next == nil {
		return nil
	}
	out := make([]NextStep, len(next))
	copy(out, next)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneExtra(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the generic values yaml.v3 produces when decoding into any.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneExtra(t)
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
