// Package parser turns raw flowspec YAML into a candidate document and
// applies the cheap shape gate that runs before full validation.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mur-run/flowspec/internal/flowspec"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrSyntax indicates text that is not well-formed YAML.
	ErrSyntax = errors.New("YAML parsing error")

	// ErrEmpty indicates text that holds no document, or only null.
	ErrEmpty = errors.New("document is empty")
)

// ParseError reports why text could not be turned into a candidate.
type ParseError struct {
	Msg string
	Err error // ErrSyntax or ErrEmpty
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RequiredKeys are the top-level keys a plausible document must carry.
var RequiredKeys = []string{"schema", "id", "title", "steps"}

// ParseText parses YAML text and returns the root content node of the
// first document.
func ParseText(text string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Msg: strings.TrimPrefix(err.Error(), "yaml: "), Err: ErrSyntax}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &ParseError{Err: ErrEmpty}
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, &ParseError{Err: ErrEmpty}
	}
	return root, nil
}

// IsPlausibleDocument reports whether node is a mapping carrying every key
// in RequiredKeys. It says nothing about the values.
func IsPlausibleDocument(node *yaml.Node) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for _, key := range RequiredKeys {
		if Lookup(node, key) == nil {
			return false
		}
	}
	return true
}

// MissingKeys returns the RequiredKeys absent from node, in order.
func MissingKeys(node *yaml.Node) []string {
	var missing []string
	for _, key := range RequiredKeys {
		if node == nil || node.Kind != yaml.MappingNode || Lookup(node, key) == nil {
			missing = append(missing, key)
		}
	}
	return missing
}

// Resolve follows alias nodes to the node they refer to.
func Resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// Lookup returns the value node stored under key in a mapping node, with
// aliases resolved.
func Lookup(node *yaml.Node, key string) *yaml.Node {
	node = Resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return Resolve(node.Content[i+1])
		}
	}
	return nil
}

// Decode converts a candidate node into a typed Flow.
func Decode(node *yaml.Node) (*flowspec.Flow, error) {
	var flow flowspec.Flow
	if err := node.Decode(&flow); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	return &flow, nil
}

// ToValue converts a candidate node into plain maps, slices and scalars.
func ToValue(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return v, nil
}

// Encode converts a typed Flow into a node tree. Nil lists stay absent and
// empty lists stay empty, so the result validates like the source text.
func Encode(flow *flowspec.Flow) (*yaml.Node, error) {
	var node yaml.Node
	if err := node.Encode(flow); err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	return &node, nil
}
