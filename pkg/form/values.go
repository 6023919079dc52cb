package form

import (
	"bytes"

	json "github.com/goccy/go-json"
	"github.com/mohae/deepcopy"
)

// Values is an immutable, ordered snapshot of field values. Order follows
// field registration. Container values (maps, slices, pointers) are deep copied on
// the way in and on the way out so callers cannot reach registry storage.
type Values struct {
	names  []string
	values map[string]any
}

// NewValues builds a snapshot from an ordered name list and a value map.
// Names missing from values map to nil.
func NewValues(names []string, values map[string]any) Values {
	out := Values{
		names:  make([]string, 0, len(names)),
		values: make(map[string]any, len(names)),
	}
	for _, name := range names {
		if _, seen := out.values[name]; seen {
			continue
		}
		out.names = append(out.names, name)
		out.values[name] = deepCopy(values[name])
	}
	return out
}

// Len reports the number of entries.
func (v Values) Len() int { return len(v.names) }

// Names returns the field names in registration order.
func (v Values) Names() []string {
	return append([]string(nil), v.names...)
}

// Get returns a copy of the value stored for name.
func (v Values) Get(name string) (any, bool) {
	value, ok := v.values[name]
	if !ok {
		return nil, false
	}
	return deepCopy(value), true
}

// Has reports whether name is present.
func (v Values) Has(name string) bool {
	_, ok := v.values[name]
	return ok
}

// Range calls fn for each entry in order until fn returns false.
func (v Values) Range(fn func(name string, value any) bool) {
	for _, name := range v.names {
		if !fn(name, deepCopy(v.values[name])) {
			return
		}
	}
}

// Map returns a detached map copy.
func (v Values) Map() map[string]any {
	out := make(map[string]any, len(v.names))
	for _, name := range v.names {
		out[name] = deepCopy(v.values[name])
	}
	return out
}

// MarshalJSON encodes the snapshot as an object preserving field order.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range v.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(v.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// deepCopy detaches value from the caller, recursing through maps, slices,
// pointers and structs of any element type.
func deepCopy(value any) any {
	if value == nil {
		return nil
	}
	return deepcopy.Copy(value)
}
