// Package validator checks candidate flowspec documents and reports every
// problem it finds as a path-addressed ValidationError.
package validator

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/parser"
)

// Severity classifies a ValidationError.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is one problem found in a document.
type ValidationError struct {
	Path     string   `json:"path"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
}

// String renders the error as "path: message".
func (e ValidationError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Options tunes a validation run.
type Options struct {
	// Strict promotes every warning to an error.
	Strict bool
	// StepIDs selects the step id pattern. Empty means strict.
	StepIDs flowspec.StepIDMode
	// Schema adds JSON Schema conformance findings as warnings.
	Schema bool
}

// ValidateFlow validates a typed Flow.
func ValidateFlow(flow *flowspec.Flow, opts Options) []ValidationError {
	if flow == nil {
		return Validate(nil, opts)
	}
	node, err := parser.Encode(flow)
	if err != nil {
		return []ValidationError{{Message: err.Error(), Severity: SeverityError}}
	}
	return Validate(node, opts)
}

// Validate checks a candidate document node. It never fails; a nil or empty
// result means the document is valid.
func Validate(node *yaml.Node, opts Options) []ValidationError {
	v := &run{opts: opts}
	v.root(node)
	if opts.Schema && node != nil && node.Kind == yaml.MappingNode {
		v.errs = append(v.errs, Conformance(node)...)
	}
	if opts.Strict {
		for i := range v.errs {
			v.errs[i].Severity = SeverityError
		}
	}
	return v.errs
}

// HasErrors reports whether any entry has error severity.
func HasErrors(errs []ValidationError) bool {
	return len(Blocking(errs)) > 0
}

// Blocking returns the entries with error severity.
func Blocking(errs []ValidationError) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if e.Severity == SeverityError {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns the entries with warning severity.
func Warnings(errs []ValidationError) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

// Format joins the entries as "path: message" lines.
func Format(errs []ValidationError) string {
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n")
}

type run struct {
	opts Options
	errs []ValidationError
}

func (v *run) add(n *yaml.Node, path, msg string, sev Severity) {
	e := ValidationError{Path: path, Message: msg, Severity: sev}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	v.errs = append(v.errs, e)
}

func (v *run) error(n *yaml.Node, path, msg string)   { v.add(n, path, msg, SeverityError) }
func (v *run) warning(n *yaml.Node, path, msg string) { v.add(n, path, msg, SeverityWarning) }
