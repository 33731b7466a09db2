package form

import (
	"sort"
	"strconv"
	"strings"
)

// ErrorMapping splits a remote error payload into per-field and form-level
// messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeMessages concatenates message lists, trimming blanks and dropping
// duplicates while keeping the first occurrence order.
func MergeMessages(existing []string, extras ...string) []string {
	all := make([]string, 0, len(existing)+len(extras))
	all = append(all, existing...)
	all = append(all, extras...)
	return cleanMessages(all)
}

// MapRemoteErrors assigns each payload key to one of the known field names.
// Keys may be plain names, JSON pointers ("/body/title"), dotted paths with
// request wrappers ("payload.genres[0]") or form-level markers. Keys that do
// not resolve to a known field end up in Form so no message is lost.
func MapRemoteErrors(fields []string, payload map[string][]string) ErrorMapping {
	return MapRemoteErrorsWithAliases(fields, nil, payload)
}

// MapRemoteErrorsWithAliases is MapRemoteErrors for payloads whose keys use
// wire names. aliases maps a wire name ("maturity_rating_id") to the field it
// was projected from; an alias only applies when its target is known.
func MapRemoteErrorsWithAliases(fields []string, aliases map[string]string, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	if len(payload) == 0 {
		return mapping
	}

	known := make(map[string]struct{}, len(fields))
	for _, name := range fields {
		if name = strings.TrimSpace(name); name != "" {
			known[name] = struct{}{}
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages := cleanMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		field := resolveField(key, known, aliases)
		if field == "" {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[field] = append(mapping.Fields[field], messages...)
	}
	mapping.Form = cleanMessages(mapping.Form)
	return mapping
}

func resolveField(key string, known map[string]struct{}, aliases map[string]string) string {
	key = strings.TrimSpace(key)
	switch strings.ToLower(key) {
	case "", ".", "/", "#", "$", "form", "base", "message", "__all__", "non_field_errors", "non-field-errors":
		return ""
	}

	segments := splitPath(key)
	for len(segments) > 0 && isWrapper(segments[0]) {
		segments = segments[1:]
	}
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		if field, ok := lookupField(segment, known, aliases); ok {
			return field
		}
		// Only the leading named segment can identify a flat field.
		break
	}
	if field, ok := lookupField(key, known, aliases); ok {
		return field
	}
	return ""
}

func lookupField(name string, known map[string]struct{}, aliases map[string]string) (string, bool) {
	if _, ok := known[name]; ok {
		return name, true
	}
	if target, ok := aliases[name]; ok {
		if _, ok := known[target]; ok {
			return target, true
		}
	}
	return "", false
}

func splitPath(path string) []string {
	clean := strings.TrimLeft(path, "#$/. ")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := parts[:0]
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

func isWrapper(segment string) bool {
	switch strings.ToLower(segment) {
	case "body", "request", "payload", "data", "attributes", "errors", "fields":
		return true
	}
	return false
}

func cleanMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
