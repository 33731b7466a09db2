package validation_test

import (
	"math"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-forms/pkg/model"
	"github.com/goliatone/go-cms-forms/pkg/validation"
)

var slugRe = regexp.MustCompile(`^[a-z-]+$`)

func testSchema() *validation.Schema {
	return validation.New(
		validation.Field("title", validation.String(), validation.MinLen(1), validation.MaxLen(5)),
		validation.Field("slug", validation.String(), validation.Matches(slugRe, "solo minúsculas")),
		validation.Field("year", validation.Number(), validation.Gt(1900), validation.Lt(2023)),
		validation.Field("tags", validation.Items(), validation.MinItems(1)),
		validation.Field("rating", validation.Ref()),
		validation.Field("note", validation.Optional(validation.String(), validation.MaxLen(3))),
	)
}

func validValues() map[string]any {
	return map[string]any{
		"title":  "Alien",
		"slug":   "alien",
		"year":   1979,
		"tags":   model.NewSelection(model.Option{ID: 1, Label: "Terror"}),
		"rating": model.Option{ID: 3, Label: "+16"},
	}
}

func TestSchema_ValidDraftHasNoErrors(t *testing.T) {
	result := testSchema().Validate(validValues())
	if !result.Valid {
		t.Fatalf("expected valid result, got %#v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected empty error map, got %#v", result.Errors)
	}
}

func TestSchema_MissingFieldReportsOnlyThatField(t *testing.T) {
	for _, name := range []string{"title", "slug", "year", "tags", "rating"} {
		t.Run(name, func(t *testing.T) {
			values := validValues()
			delete(values, name)

			result := testSchema().Validate(values)
			if result.Valid {
				t.Fatalf("expected invalid result")
			}
			if diff := cmp.Diff([]string{name}, result.Fields()); diff != "" {
				t.Fatalf("error fields mismatch (-want +got):\n%s", diff)
			}
			if got := result.Errors[name].Code; got != validation.CodeRequired {
				t.Fatalf("expected required code, got %q", got)
			}
		})
	}
}

func TestSchema_RuleMessages(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value any
		want  validation.FieldError
	}{
		{"empty string", "title", "", validation.FieldError{Code: validation.CodeTooSmall, Message: "String must contain at least 1 character(s)"}},
		{"long string", "title", "Alien 3", validation.FieldError{Code: validation.CodeTooBig, Message: "String must contain at most 5 character(s)"}},
		{"pattern", "slug", "Alien", validation.FieldError{Code: validation.CodeInvalid, Message: "solo minúsculas"}},
		{"nan", "year", math.NaN(), validation.FieldError{Code: validation.CodeInvalidType, Message: "Expected number, received nan"}},
		{"lower bound", "year", 1900, validation.FieldError{Code: validation.CodeTooSmall, Message: "Number must be greater than 1900"}},
		{"upper bound", "year", 2023.0, validation.FieldError{Code: validation.CodeTooBig, Message: "Number must be less than 2023"}},
		{"empty collection", "tags", model.Selection{}, validation.FieldError{Code: validation.CodeTooSmall, Message: "min 1 item"}},
		{"zero option", "rating", model.Option{}, validation.FieldError{Code: validation.CodeRequired, Message: "Required"}},
		{"wrong type", "title", 12, validation.FieldError{Code: validation.CodeInvalidType, Message: "Expected string, received int"}},
		{"optional too long", "note", "abcd", validation.FieldError{Code: validation.CodeTooBig, Message: "String must contain at most 3 character(s)"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := validValues()
			values[tc.field] = tc.value

			result := testSchema().Validate(values)
			want := map[string]validation.FieldError{tc.field: tc.want}
			if diff := cmp.Diff(want, result.Errors); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchema_IsDeterministicAndDoesNotMutate(t *testing.T) {
	values := validValues()
	values["title"] = ""
	schema := testSchema()

	first := schema.Validate(values)
	second := schema.Validate(values)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results differ between runs (-first +second):\n%s", diff)
	}
	if values["title"] != "" {
		t.Fatalf("validate mutated the draft")
	}
}

func TestSchema_PickKeepsOnlyNamedFields(t *testing.T) {
	sub := testSchema().Pick("year", "tags", "missing")
	if diff := cmp.Diff([]string{"year", "tags"}, sub.Fields()); diff != "" {
		t.Fatalf("picked fields mismatch (-want +got):\n%s", diff)
	}

	result := sub.Validate(map[string]any{"year": 1999})
	if diff := cmp.Diff([]string{"tags"}, result.Fields()); diff != "" {
		t.Fatalf("picked schema validated foreign fields (-want +got):\n%s", diff)
	}
}

func TestPresence_ReportsBlankFields(t *testing.T) {
	check := validation.Required("nombre", "apellido", "email")
	result := check.Validate(map[string]any{
		"nombre":   "Linus",
		"apellido": "   ",
	})
	if result.Valid {
		t.Fatalf("expected presence failure")
	}
	if diff := cmp.Diff([]string{"apellido", "email"}, result.Fields()); diff != "" {
		t.Fatalf("presence fields mismatch (-want +got):\n%s", diff)
	}
}
