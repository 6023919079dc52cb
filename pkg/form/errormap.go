package form

import (
	"sort"
	"strconv"
	"strings"
)

// ErrorMapping splits a server error payload into per-field and form-level
// messages. Field keys are registered field names.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string

	order []string
}

// MapErrorPayload maps payload paths (JSON pointers, dotted or bracketed
// paths, optionally wrapped in body/data/attributes) onto names. Paths that
// match no name become form-level messages so nothing is dropped.
func MapErrorPayload(names []string, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{order: append([]string(nil), names...)}
	if len(payload) == 0 {
		return mapping
	}

	known := make(map[string]struct{}, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			known[trimmed] = struct{}{}
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(map[string][]string)
	for _, raw := range keys {
		messages := normalizeMessages(payload[raw])
		if len(messages) == 0 {
			continue
		}
		name, ok := matchErrorPath(raw, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		fields[name] = append(fields[name], messages...)
	}

	if len(fields) > 0 {
		mapping.Fields = make(map[string][]string, len(fields))
		for name, messages := range fields {
			mapping.Fields[name] = normalizeMessages(messages)
		}
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// List flattens the mapping into an ErrorList in field registration order,
// followed by form-level entries with an empty Field.
func (m ErrorMapping) List() ErrorList {
	var list ErrorList
	for _, name := range m.order {
		for _, message := range m.Fields[name] {
			list = append(list, RuleFailure{Field: name, Message: message, Rule: "server"})
		}
	}
	for _, message := range m.Form {
		list = append(list, RuleFailure{Message: message, Rule: "server"})
	}
	return list
}

func normalizeMessages(messages []string) []string {
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
		if _, exists := seen[trimmed]; exists {
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

func matchErrorPath(raw string, known map[string]struct{}) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	segments := pathSegments(raw)
	if len(segments) == 0 {
		return "", false
	}

	best, depth := "", 0
	for _, variant := range segmentVariants(segments) {
		for end := len(variant); end > depth; end-- {
			candidate := strings.Join(variant[:end], ".")
			if _, ok := known[candidate]; ok {
				best, depth = candidate, end
				break
			}
		}
	}
	return best, best != ""
}

func pathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for _, prefix := range []string{"#/", "$/", "$."} {
		clean = strings.TrimPrefix(clean, prefix)
	}
	clean = strings.TrimLeft(clean, "#/.$")
	clean = strings.NewReplacer("[", ".", "]", "", "//", "/").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func segmentVariants(segments []string) [][]string {
	unwrapped := dropWrappers(segments)
	candidates := [][]string{
		segments,
		unwrapped,
		dropNumeric(segments),
		dropNumeric(unwrapped),
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([][]string, 0, len(candidates))
	for _, candidate := range candidates {
		if len(candidate) == 0 {
			continue
		}
		key := strings.Join(candidate, ".")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, candidate)
	}
	return out
}

func dropWrappers(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data", "attributes":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func dropNumeric(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
