package flowspec

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Map is a string-keyed map that remembers insertion order, so a document
// written back to disk lists keys in the order they were read.
// The zero value is an empty map ready to use.
type Map[V any] struct {
	om *orderedmap.OrderedMap[string, V]
}

// NewMap returns an empty Map.
func NewMap[V any]() Map[V] {
	return Map[V]{om: orderedmap.New[string, V]()}
}

func (m *Map[V]) init() {
	if m.om == nil {
		m.om = orderedmap.New[string, V]()
	}
}

// Set stores value under key. New keys are appended; existing keys keep their position.
func (m *Map[V]) Set(key string, value V) {
	m.init()
	m.om.Set(key, value)
}

// Get returns the value stored under key.
func (m Map[V]) Get(key string) (V, bool) {
	if m.om == nil {
		var zero V
		return zero, false
	}
	return m.om.Get(key)
}

// Delete removes key and reports whether it was present.
func (m *Map[V]) Delete(key string) bool {
	if m.om == nil {
		return false
	}
	_, ok := m.om.Delete(key)
	return ok
}

// Len returns the number of entries.
func (m Map[V]) Len() int {
	if m.om == nil {
		return 0
	}
	return m.om.Len()
}

// Keys returns the keys in insertion order.
func (m Map[V]) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Range(func(k string, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Range calls fn for each entry in order until fn returns false.
func (m Map[V]) Range(fn func(key string, value V) bool) {
	if m.om == nil {
		return
	}
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// IsZero implements yaml.IsZeroer: an empty map is omitted from output.
func (m Map[V]) IsZero() bool {
	return m.Len() == 0
}

// MarshalYAML writes the entries as a mapping node in insertion order.
func (m Map[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	var err error
	m.Range(func(k string, v V) bool {
		var valueNode yaml.Node
		if err = valueNode.Encode(v); err != nil {
			err = fmt.Errorf("encode %q: %w", k, err)
			return false
		}
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		node.Content = append(node.Content, keyNode, &valueNode)
		return true
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// UnmarshalYAML reads a mapping node, keeping the document's key order.
func (m *Map[V]) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		m.om = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", value.Line)
	}
	m.om = orderedmap.New[string, V]()
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		var v V
		if err := value.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		m.om.Set(key, v)
	}
	return nil
}

// Clone returns a copy of m, passing every value through copyValue.
func (m Map[V]) Clone(copyValue func(V) V) Map[V] {
	if m.om == nil {
		return Map[V]{}
	}
	out := NewMap[V]()
	m.Range(func(k string, v V) bool {
		out.om.Set(k, copyValue(v))
		return true
	})
	return out
}
