package validator

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/mur-run/flowspec/internal/parser"
)

//go:embed flowspec.v1.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Conformance checks node against the embedded flowspec.v1 JSON Schema and
// returns every finding as a warning. It covers field types and enumerations
// the core rules leave alone, such as step roles and numeric limits.
func Conformance(node *yaml.Node) []ValidationError {
	s, err := compiledSchema()
	if err != nil {
		return []ValidationError{{Message: fmt.Sprintf("schema check unavailable: %v", err), Severity: SeverityWarning}}
	}

	doc, err := parser.ToValue(node)
	if err != nil {
		return []ValidationError{{Message: fmt.Sprintf("schema check skipped: %v", err), Severity: SeverityWarning}}
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return []ValidationError{{Message: fmt.Sprintf("schema check skipped: %v", err), Severity: SeverityWarning}}
	}

	var out []ValidationError
	for _, re := range result.Errors() {
		out = append(out, ValidationError{
			Path:     schemaPath(re.Field(), doc),
			Message:  re.Description(),
			Severity: SeverityWarning,
		})
	}
	return out
}

// schemaPath turns "steps.0.next.1.when" into "steps[0].next[1].when". A
// numeric segment is an index only where doc holds a list there, so a map
// key such as "10ms" is left alone.
func schemaPath(field string, doc any) string {
	if field == gojsonschema.STRING_CONTEXT_ROOT {
		return ""
	}
	field = strings.TrimPrefix(field, gojsonschema.STRING_CONTEXT_ROOT+".")

	var b strings.Builder
	cur := doc
	for _, seg := range strings.Split(field, ".") {
		if list, ok := cur.([]any); ok {
			if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(list) {
				fmt.Fprintf(&b, "[%d]", i)
				cur = list[i]
				continue
			}
		}
		if m, ok := cur.(map[string]any); ok {
			cur = m[seg]
		} else {
			cur = nil
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}
