// Package form implements declarative validation of untrusted form input.
//
// A Schema is an ordered list of Fields. Each Field carries the rules that
// apply to its value; rules are evaluated independently and every violation
// is reported, so a single field may produce several issues.
package form

import (
	"fmt"
	"strings"
)

// Issue codes, one per rule kind plus the type check.
const (
	CodeInvalidType = "invalid_type"
	CodeRequired    = "required"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
	CodePattern     = "invalid_string"
	CodeEnum        = "invalid_enum_value"
	CodeEmail       = "invalid_email"
)

// Issue is a single violated constraint. Path[0] is the field name.
type Issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

// Field returns the name of the field the issue belongs to.
func (i Issue) Field() string {
	if len(i.Path) == 0 {
		return ""
	}
	return i.Path[0]
}

// ValidationError is returned by Schema.Validate when one or more
// constraints are violated.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(is.Path, "."), is.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasField reports whether at least one issue targets the named field.
func (e *ValidationError) HasField(name string) bool {
	for _, is := range e.Issues {
		if is.Field() == name {
			return true
		}
	}
	return false
}

// Values is the normalized output of a successful validation: every declared
// field is present, optional fields carry their default when absent.
type Values map[string]string

// Get returns the value of a field, or "" when it was not declared.
func (v Values) Get(name string) string {
	return v[name]
}

// Schema is the ordered set of fields accepted by one form.
type Schema struct {
	fields []*Field
}

// NewSchema builds a schema. Issues are reported in the order fields are
// passed here.
func NewSchema(fields ...*Field) *Schema {
	return &Schema{fields: fields}
}

// Fields returns the declared field names in order.
func (s *Schema) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.name)
	}
	return names
}

// Validate checks input against every field. Keys not declared in the
// schema are dropped. On failure the returned error is a *ValidationError
// and the Values are nil.
func (s *Schema) Validate(input map[string]any) (Values, error) {
	out := make(Values, len(s.fields))
	var issues []Issue

	for _, f := range s.fields {
		raw, present := input[f.name]
		if present && raw == nil && f.nullable {
			present = false
		}

		if !present || raw == nil {
			if f.optional {
				out[f.name] = f.def
				continue
			}
			issues = append(issues, f.issue(CodeInvalidType, f.missingMessage()))
			continue
		}

		str, ok := raw.(string)
		if !ok {
			issues = append(issues, f.issue(CodeInvalidType,
				fmt.Sprintf("Expected string, received %s", kindOf(raw))))
			continue
		}

		failed := false
		for _, r := range f.rules {
			if msg, bad := r.check(str); bad {
				issues = append(issues, f.issue(r.code(), msg))
				failed = true
			}
		}
		if !failed {
			out[f.name] = str
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return out, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
