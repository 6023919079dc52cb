package definition

import (
	"sort"

	"github.com/goliatone/go-formstate/pkg/rules"
)

// Field types understood by Coerce and the bundled renderers.
const (
	TypeText        = "text"
	TypeEmail       = "email"
	TypePassword    = "password"
	TypeTextarea    = "textarea"
	TypeNumber      = "number"
	TypeInteger     = "integer"
	TypeBoolean     = "boolean"
	TypeSelect      = "select"
	TypeMultiSelect = "multiselect"
)

// Form is one declarative form.
type Form struct {
	ID              string  `json:"id" yaml:"id"`
	Title           string  `json:"title,omitempty" yaml:"title,omitempty"`
	Description     string  `json:"description,omitempty" yaml:"description,omitempty"`
	Colon           bool    `json:"colon,omitempty" yaml:"colon,omitempty"`
	LabelAlign      string  `json:"labelAlign,omitempty" yaml:"labelAlign,omitempty"`
	ControlAlign    string  `json:"controlAlign,omitempty" yaml:"controlAlign,omitempty"`
	ValidateTrigger string  `json:"validateTrigger,omitempty" yaml:"validateTrigger,omitempty"`
	Disabled        bool    `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Action          string  `json:"action,omitempty" yaml:"action,omitempty"`
	Fields          []Field `json:"fields" yaml:"fields"`

	// Source is the file the form was loaded from.
	Source string `json:"-" yaml:"-"`
}

// Field is one declarative field. Fields keep file order, which becomes the
// registration order of the built form.
type Field struct {
	Name        string       `json:"name" yaml:"name"`
	Label       string       `json:"label,omitempty" yaml:"label,omitempty"`
	Type        string       `json:"type,omitempty" yaml:"type,omitempty"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Help        string       `json:"help,omitempty" yaml:"help,omitempty"`
	Default     any          `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Required    bool         `json:"required,omitempty" yaml:"required,omitempty"`
	Disabled    *bool        `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Trigger     string       `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Align       string       `json:"align,omitempty" yaml:"align,omitempty"`
	Rules       []rules.Spec `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Field returns the field called name.
func (f Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Names returns field names in declaration order.
func (f Form) Names() []string {
	out := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		out = append(out, field.Name)
	}
	return out
}

// Store holds loaded forms keyed by ID.
type Store struct {
	forms map[string]Form
}

// Form returns the definition registered under id.
func (s *Store) Form(id string) (Form, bool) {
	if s == nil {
		return Form{}, false
	}
	def, ok := s.forms[id]
	return def, ok
}

// IDs returns the form IDs, sorted.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports how many forms are loaded.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.forms)
}

// Empty reports whether the store holds no forms.
func (s *Store) Empty() bool { return s.Len() == 0 }
