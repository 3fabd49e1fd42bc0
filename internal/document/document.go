// Package document is the text boundary of the engine: it loads flowspec
// YAML into a validated Flow, writes a Flow back out, and creates new ones.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/parser"
	"github.com/mur-run/flowspec/internal/validator"
)

// Options is the validation configuration used by Load and Validate.
type Options = validator.Options

// StructureError reports text that is not a workflow document at all.
type StructureError struct {
	Err error
}

func (e *StructureError) Error() string {
	return "Invalid workflow structure: " + e.Err.Error()
}

func (e *StructureError) Unwrap() error { return e.Err }

// ValidationFailedError carries the blocking findings that refused a load
// or save.
type ValidationFailedError struct {
	Op     string
	Errors []validator.ValidationError
}

func (e *ValidationFailedError) Error() string {
	head := "Validation failed"
	if e.Op == "save" {
		head = "Cannot save invalid workflow"
	}
	return head + ":\n" + validator.Format(e.Errors)
}

// ErrShape marks a mapping that lacks one of the keys every document has.
var ErrShape = errors.New("not a flowspec document")

// Load parses and validates text. On success it returns the Flow and any
// non-blocking warnings. Parse failures and documents missing a top-level
// key come back as *StructureError; blocking findings come back as
// *ValidationFailedError.
func Load(text string, opts Options) (*flowspec.Flow, []validator.ValidationError, error) {
	node, err := parser.ParseText(text)
	if err != nil {
		return nil, nil, &StructureError{Err: err}
	}
	if !parser.IsPlausibleDocument(node) {
		if node.Kind != yaml.MappingNode {
			return nil, nil, &StructureError{Err: fmt.Errorf("%w: expected a mapping at the top level", ErrShape)}
		}
		return nil, nil, &StructureError{
			Err: fmt.Errorf("%w: missing %s", ErrShape, strings.Join(parser.MissingKeys(node), ", ")),
		}
	}

	errs := validator.Validate(node, opts)
	if validator.HasErrors(errs) {
		return nil, nil, &ValidationFailedError{Op: "load", Errors: validator.Blocking(errs)}
	}

	flow, err := parser.Decode(node)
	if err != nil {
		return nil, nil, &StructureError{Err: err}
	}
	return flow, errs, nil
}

// Save validates flow and serializes it with two-space indentation, keys in
// the order they were read and no line wrapping. Warnings do not block a save.
func Save(flow *flowspec.Flow) (string, error) {
	errs := validator.ValidateFlow(flow, Options{})
	if validator.HasErrors(errs) {
		return "", &ValidationFailedError{Op: "save", Errors: validator.Blocking(errs)}
	}
	return Marshal(flow)
}

// Marshal serializes flow without validating it.
func Marshal(flow *flowspec.Flow) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(flow); err != nil {
		return "", fmt.Errorf("encode workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode workflow: %w", err)
	}
	return buf.String(), nil
}

// Validate reports every finding for flow.
func Validate(flow *flowspec.Flow, opts Options) []validator.ValidationError {
	return validator.ValidateFlow(flow, opts)
}
