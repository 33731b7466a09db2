package validation

import (
	"strings"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

// Presence is the imperative variant used by simple forms: it only checks
// that each listed field holds a non-empty value. Callers typically block
// submission with a single notice instead of per-field helper text.
type Presence struct {
	fields []string
}

// Required builds a presence check over names.
func Required(names ...string) Presence {
	return Presence{fields: append([]string(nil), names...)}
}

// Validate reports every listed field that is missing or blank.
func (p Presence) Validate(values map[string]any) Result {
	result := Result{Valid: true}
	for _, name := range p.fields {
		if present(values[name]) {
			continue
		}
		if result.Errors == nil {
			result.Errors = make(map[string]FieldError)
		}
		result.Errors[name] = requiredError
	}
	result.Valid = len(result.Errors) == 0
	return result
}

func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case model.Selection:
		return v.Len() > 0
	case []model.Option:
		return len(v) > 0
	case model.Option:
		return !v.IsZero()
	case *model.Option:
		return v != nil && !v.IsZero()
	default:
		return true
	}
}
