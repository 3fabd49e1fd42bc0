package flowspec

import (
	"slices"

	"gopkg.in/yaml.v3"
)

// Mapping types remember the key order they were read with and write their
// keys back in that order. Keys that were not in the source, such as a field
// set by an edit, follow the key that precedes them in field order.

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func keyOrder(n *yaml.Node) []string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys
}

func decodeMapping(n *yaml.Node, v any) ([]string, error) {
	if err := n.Decode(v); err != nil {
		return nil, err
	}
	return keyOrder(n), nil
}

func encodeMapping(v any, order []string) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	reorder(&n, order)
	return &n, nil
}

type keyValue struct {
	key, value *yaml.Node
}

// reorder sorts the pairs of mapping n by order.
func reorder(n *yaml.Node, order []string) {
	if len(order) == 0 || n.Kind != yaml.MappingNode {
		return
	}
	rank := make(map[string]int, len(order))
	for i, k := range order {
		if _, ok := rank[k]; !ok {
			rank[k] = i
		}
	}

	pairs := make([]keyValue, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, keyValue{n.Content[i], n.Content[i+1]})
	}

	out := make([]keyValue, 0, len(pairs))
	for _, p := range pairs {
		if _, ok := rank[p.key.Value]; ok {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b keyValue) int {
		return rank[a.key.Value] - rank[b.key.Value]
	})

	prev := -1
	for _, p := range pairs {
		if _, ok := rank[p.key.Value]; ok {
			prev = slices.IndexFunc(out, func(q keyValue) bool { return q.key == p.key })
			continue
		}
		prev++
		out = slices.Insert(out, prev, p)
	}

	content := make([]*yaml.Node, 0, len(n.Content))
	for _, p := range out {
		content = append(content, p.key, p.value)
	}
	n.Content = content
}

func (f *Flow) UnmarshalYAML(n *yaml.Node) error {
	type plain Flow
	keys, err := decodeMapping(n, (*plain)(f))
	f.keys = keys
	return err
}

func (f Flow) MarshalYAML() (any, error) {
	type plain Flow
	return encodeMapping((*plain)(&f), f.keys)
}

func (p *Policy) UnmarshalYAML(n *yaml.Node) error {
	type plain Policy
	keys, err := decodeMapping(n, (*plain)(p))
	p.keys = keys
	return err
}

func (p Policy) MarshalYAML() (any, error) {
	type plain Policy
	return encodeMapping((*plain)(&p), p.keys)
}

func (c *Context) UnmarshalYAML(n *yaml.Node) error {
	type plain Context
	keys, err := decodeMapping(n, (*plain)(c))
	c.keys = keys
	return err
}

func (c Context) MarshalYAML() (any, error) {
	type plain Context
	return encodeMapping((*plain)(&c), c.keys)
}

func (a *Artifacts) UnmarshalYAML(n *yaml.Node) error {
	type plain Artifacts
	keys, err := decodeMapping(n, (*plain)(a))
	a.keys = keys
	return err
}

func (a Artifacts) MarshalYAML() (any, error) {
	type plain Artifacts
	return encodeMapping((*plain)(&a), a.keys)
}

func (e *Events) UnmarshalYAML(n *yaml.Node) error {
	type plain Events
	keys, err := decodeMapping(n, (*plain)(e))
	e.keys = keys
	return err
}

func (e Events) MarshalYAML() (any, error) {
	type plain Events
	return encodeMapping((*plain)(&e), e.keys)
}

func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	type plain Step
	keys, err := decodeMapping(n, (*plain)(s))
	s.keys = keys
	return err
}

func (s Step) MarshalYAML() (any, error) {
	type plain Step
	return encodeMapping((*plain)(&s), s.keys)
}

func (t *Token) UnmarshalYAML(n *yaml.Node) error {
	type plain Token
	keys, err := decodeMapping(n, (*plain)(t))
	t.keys = keys
	return err
}

func (t Token) MarshalYAML() (any, error) {
	type plain Token
	return encodeMapping((*plain)(&t), t.keys)
}

func (p *Prompts) UnmarshalYAML(n *yaml.Node) error {
	type plain Prompts
	keys, err := decodeMapping(n, (*plain)(p))
	p.keys = keys
	return err
}

func (p Prompts) MarshalYAML() (any, error) {
	type plain Prompts
	return encodeMapping((*plain)(&p), p.keys)
}

func (a *Acceptance) UnmarshalYAML(n *yaml.Node) error {
	type plain Acceptance
	keys, err := decodeMapping(n, (*plain)(a))
	a.keys = keys
	return err
}

func (a Acceptance) MarshalYAML() (any, error) {
	type plain Acceptance
	return encodeMapping((*plain)(&a), a.keys)
}

func (c *Check) UnmarshalYAML(n *yaml.Node) error {
	type plain Check
	keys, err := decodeMapping(n, (*plain)(c))
	c.keys = keys
	return err
}

func (c Check) MarshalYAML() (any, error) {
	type plain Check
	return encodeMapping((*plain)(&c), c.keys)
}
