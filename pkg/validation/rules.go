package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

var requiredError = FieldError{Code: CodeRequired, Message: "Required"}

// String accepts string values.
func String() Rule {
	return func(value any) (FieldError, bool) {
		switch value.(type) {
		case nil:
			return requiredError, false
		case string:
			return FieldError{}, true
		default:
			return typeError("string", value), false
		}
	}
}

// MinLen rejects strings shorter than n characters.
func MinLen(n int) Rule {
	return func(value any) (FieldError, bool) {
		s, _ := value.(string)
		if utf8.RuneCountInString(s) < n {
			return FieldError{
				Code:    CodeTooSmall,
				Message: fmt.Sprintf("String must contain at least %d character(s)", n),
			}, false
		}
		return FieldError{}, true
	}
}

// MaxLen rejects strings longer than n characters.
func MaxLen(n int) Rule {
	return func(value any) (FieldError, bool) {
		s, _ := value.(string)
		if utf8.RuneCountInString(s) > n {
			return FieldError{
				Code:    CodeTooBig,
				Message: fmt.Sprintf("String must contain at most %d character(s)", n),
			}, false
		}
		return FieldError{}, true
	}
}

// Matches rejects strings that do not match re, reporting message.
func Matches(re *regexp.Regexp, message string) Rule {
	return func(value any) (FieldError, bool) {
		s, _ := value.(string)
		if re == nil || re.MatchString(s) {
			return FieldError{}, true
		}
		if strings.TrimSpace(message) == "" {
			message = "Invalid"
		}
		return FieldError{Code: CodeInvalid, Message: message}, false
	}
}

// Number accepts finite numeric values.
func Number() Rule {
	return func(value any) (FieldError, bool) {
		if value == nil {
			return requiredError, false
		}
		f, ok := AsFloat(value)
		if !ok {
			return typeError("number", value), false
		}
		if math.IsNaN(f) {
			return FieldError{Code: CodeInvalidType, Message: "Expected number, received nan"}, false
		}
		return FieldError{}, true
	}
}

// Gt rejects numbers less than or equal to limit.
func Gt(limit float64) Rule {
	return numberBound(func(f float64) bool { return f > limit }, CodeTooSmall,
		fmt.Sprintf("Number must be greater than %s", formatNumber(limit)))
}

// Gte rejects numbers less than limit.
func Gte(limit float64) Rule {
	return numberBound(func(f float64) bool { return f >= limit }, CodeTooSmall,
		fmt.Sprintf("Number must be greater than or equal to %s", formatNumber(limit)))
}

// Lt rejects numbers greater than or equal to limit.
func Lt(limit float64) Rule {
	return numberBound(func(f float64) bool { return f < limit }, CodeTooBig,
		fmt.Sprintf("Number must be less than %s", formatNumber(limit)))
}

// Lte rejects numbers greater than limit.
func Lte(limit float64) Rule {
	return numberBound(func(f float64) bool { return f <= limit }, CodeTooBig,
		fmt.Sprintf("Number must be less than or equal to %s", formatNumber(limit)))
}

func numberBound(ok func(float64) bool, code Code, message string) Rule {
	return func(value any) (FieldError, bool) {
		f, _ := AsFloat(value)
		if ok(f) {
			return FieldError{}, true
		}
		return FieldError{Code: code, Message: message}, false
	}
}

// Items accepts option collections (model.Selection or []model.Option).
func Items() Rule {
	return func(value any) (FieldError, bool) {
		if value == nil {
			return requiredError, false
		}
		if _, ok := itemCount(value); !ok {
			return typeError("array", value), false
		}
		return FieldError{}, true
	}
}

// MinItems rejects collections holding fewer than n options.
func MinItems(n int) Rule {
	return func(value any) (FieldError, bool) {
		count, _ := itemCount(value)
		if count >= n {
			return FieldError{}, true
		}
		unit := "items"
		if n == 1 {
			unit = "item"
		}
		return FieldError{Code: CodeTooSmall, Message: fmt.Sprintf("min %d %s", n, unit)}, false
	}
}

// Ref accepts a single selected option (model.Option or *model.Option) with
// a non-zero identifier.
func Ref() Rule {
	return func(value any) (FieldError, bool) {
		switch v := value.(type) {
		case nil:
			return requiredError, false
		case model.Option:
			if v.IsZero() {
				return requiredError, false
			}
			return FieldError{}, true
		case *model.Option:
			if v == nil || v.IsZero() {
				return requiredError, false
			}
			return FieldError{}, true
		default:
			return typeError("object", value), false
		}
	}
}

// Optional lets nil values through and applies rules otherwise.
func Optional(rules ...Rule) Rule {
	return func(value any) (FieldError, bool) {
		if isNil(value) {
			return FieldError{}, true
		}
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if fe, ok := rule(value); !ok {
				return fe, false
			}
		}
		return FieldError{}, true
	}
}

// Custom rejects values for which pred returns false.
func Custom(pred func(any) bool, message string) Rule {
	return func(value any) (FieldError, bool) {
		if pred == nil || pred(value) {
			return FieldError{}, true
		}
		return FieldError{Code: CodeCustom, Message: message}, false
	}
}

// AsFloat converts the numeric kinds a draft may hold into float64.
func AsFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func itemCount(value any) (int, bool) {
	switch v := value.(type) {
	case model.Selection:
		return v.Len(), true
	case *model.Selection:
		if v == nil {
			return 0, true
		}
		return v.Len(), true
	case []model.Option:
		return len(v), true
	case []any:
		return len(v), true
	default:
		return 0, false
	}
}

func isNil(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case *model.Option:
		return v == nil
	default:
		return false
	}
}

func typeError(expected string, value any) FieldError {
	return FieldError{
		Code:    CodeInvalidType,
		Message: fmt.Sprintf("Expected %s, received %T", expected, value),
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
