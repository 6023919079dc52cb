package definition

import (
	"fmt"
	"strconv"
	"strings"
)

// Coerce converts raw text input (a terminal answer, an HTML form value)
// into the Go value a field of this type stores. Empty input yields nil for
// scalar numeric types so optional fields stay empty.
func (f Field) Coerce(raws ...string) (any, error) {
	switch f.Type {
	case TypeMultiSelect:
		out := make([]any, 0, len(raws))
		for _, raw := range raws {
			for _, part := range strings.Split(raw, ",") {
				if trimmed := strings.TrimSpace(part); trimmed != "" {
					out = append(out, trimmed)
				}
			}
		}
		return out, nil
	case TypeBoolean:
		if len(raws) == 0 {
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(raws[len(raws)-1])) {
		case "", "false", "off", "no", "0":
			return false, nil
		case "true", "on", "yes", "1":
			return true, nil
		}
		return nil, fmt.Errorf("definition: field %q: %q is not a boolean", f.Name, raws[len(raws)-1])
	}

	raw := ""
	if len(raws) > 0 {
		raw = raws[len(raws)-1]
	}
	switch f.Type {
	case TypeNumber:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("definition: field %q: %q is not a number", f.Name, raw)
		}
		return n, nil
	case TypeInteger:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, fmt.Errorf("definition: field %q: %q is not an integer", f.Name, raw)
		}
		return n, nil
	default:
		return raw, nil
	}
}

// Format renders a stored value back to text for prompts and inputs.
func (f Field) Format(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(typed, ", ")
	default:
		return fmt.Sprint(typed)
	}
}
