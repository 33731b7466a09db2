// Package validation declares per-field constraints and evaluates drafts
// against them. Each field is checked independently so one field's failure
// never produces errors on another.
package validation

import "sort"

// Code classifies a field error.
type Code string

const (
	CodeRequired    Code = "required"
	CodeInvalidType Code = "invalid_type"
	CodeTooSmall    Code = "too_small"
	CodeTooBig      Code = "too_big"
	CodeInvalid     Code = "invalid_string"
	CodeCustom      Code = "custom"
	CodeRemote      Code = "remote"
)

// FieldError describes why a single field was rejected.
type FieldError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Result captures the outcome of validating a draft.
type Result struct {
	Valid  bool                  `json:"valid"`
	Errors map[string]FieldError `json:"errors,omitempty"`
}

// Fields returns the names of the rejected fields in sorted order.
func (r Result) Fields() []string {
	out := make([]string, 0, len(r.Errors))
	for name := range r.Errors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validator is satisfied by both Schema and Presence.
type Validator interface {
	Validate(values map[string]any) Result
}

// Rule checks one value. It returns false together with the error when the
// value is rejected.
type Rule func(value any) (FieldError, bool)

// FieldSpec binds a field name to its ordered rules.
type FieldSpec struct {
	Name  string
	Rules []Rule
}

// Field declares the rules for name. Rules run in order and the first
// failure is the one reported.
func Field(name string, rules ...Rule) FieldSpec {
	return FieldSpec{Name: name, Rules: rules}
}

// Schema is an ordered list of field specs.
type Schema struct {
	fields []FieldSpec
}

// New builds a schema. Later specs for an already declared name replace the
// earlier ones.
func New(fields ...FieldSpec) *Schema {
	s := &Schema{}
	for _, spec := range fields {
		s.set(spec)
	}
	return s
}

func (s *Schema) set(spec FieldSpec) {
	for i := range s.fields {
		if s.fields[i].Name == spec.Name {
			s.fields[i] = spec
			return
		}
	}
	s.fields = append(s.fields, spec)
}

// Fields lists the declared field names in declaration order.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.fields))
	for _, spec := range s.fields {
		out = append(out, spec.Name)
	}
	return out
}

// Spec returns the rules declared for name.
func (s *Schema) Spec(name string) (FieldSpec, bool) {
	if s == nil {
		return FieldSpec{}, false
	}
	for _, spec := range s.fields {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Pick derives a schema restricted to names. Unknown names are ignored.
func (s *Schema) Pick(names ...string) *Schema {
	out := &Schema{}
	for _, name := range names {
		if spec, ok := s.Spec(name); ok {
			out.fields = append(out.fields, spec)
		}
	}
	return out
}

// Extend returns a copy of the schema with extra specs applied on top.
func (s *Schema) Extend(fields ...FieldSpec) *Schema {
	out := &Schema{}
	if s != nil {
		out.fields = append(out.fields, s.fields...)
	}
	for _, spec := range fields {
		out.set(spec)
	}
	return out
}

// Validate checks values against every declared field. It never mutates
// values and always returns the same result for the same input.
func (s *Schema) Validate(values map[string]any) Result {
	result := Result{Valid: true}
	if s == nil {
		return result
	}
	for _, spec := range s.fields {
		value := values[spec.Name]
		for _, rule := range spec.Rules {
			if rule == nil {
				continue
			}
			if fe, ok := rule(value); !ok {
				if result.Errors == nil {
					result.Errors = make(map[string]FieldError)
				}
				result.Errors[spec.Name] = fe
				break
			}
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}
