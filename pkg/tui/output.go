package tui

import (
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
)

func serialize(format OutputFormat, def definition.Form, values form.Values) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		return []byte(encodeForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(def, values)), nil
	default:
		return encodeJSON(values)
	}
}

// encodeJSON keeps field order unless a name is dotted, in which case the
// values are nested into objects.
func encodeJSON(values form.Values) ([]byte, error) {
	dotted := false
	for _, name := range values.Names() {
		if strings.Contains(name, ".") {
			dotted = true
			break
		}
	}
	if !dotted {
		return json.MarshalIndent(values, "", "  ")
	}
	nested := map[string]any{}
	values.Range(func(name string, value any) bool {
		setPath(nested, strings.Split(name, "."), value)
		return true
	})
	return json.MarshalIndent(nested, "", "  ")
}

func setPath(root map[string]any, segments []string, value any) {
	node := root
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[segment] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
}

func encodeForm(values form.Values) string {
	out := url.Values{}
	values.Range(func(name string, value any) bool {
		switch typed := value.(type) {
		case nil:
		case []any:
			for _, item := range typed {
				out.Add(name+"[]", fmt.Sprint(item))
			}
		default:
			out.Set(name, fmt.Sprint(typed))
		}
		return true
	})
	return out.Encode()
}

func prettyPrint(def definition.Form, values form.Values) string {
	var b strings.Builder
	values.Range(func(name string, value any) bool {
		label := name
		field, ok := def.Field(name)
		if ok {
			label = displayLabel(field)
		}
		text := fmt.Sprint(value)
		if ok {
			text = field.Format(value)
		}
		fmt.Fprintf(&b, "%s: %s\n", label, text)
		return true
	})
	return b.String()
}
