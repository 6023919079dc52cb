package render

import (
	"strings"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
)

// View is the template data for one form. JSON keys are the names templates
// see.
type View struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Action      string        `json:"action,omitempty"`
	Method      string        `json:"method"`
	Colon       bool          `json:"colon"`
	LabelAlign  string        `json:"labelAlign,omitempty"`
	Disabled    bool          `json:"disabled"`
	State       string        `json:"state"`
	Errors      []string      `json:"errors,omitempty"`
	Hidden      []HiddenField `json:"hidden,omitempty"`
	Fields      []FieldView   `json:"fields"`
	Theme       *ThemeView    `json:"theme,omitempty"`
}

// FieldView is one rendered control.
type FieldView struct {
	Name        string       `json:"name"`
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Type        string       `json:"type"`
	Placeholder string       `json:"placeholder,omitempty"`
	Help        string       `json:"help,omitempty"`
	Text        string       `json:"text"`
	Checked     bool         `json:"checked"`
	Options     []OptionView `json:"options,omitempty"`
	Required    bool         `json:"required"`
	Disabled    bool         `json:"disabled"`
	Status      string       `json:"status"`
	Message     string       `json:"message,omitempty"`
	ClassName   string       `json:"className"`
}

// OptionView is one choice of a select control.
type OptionView struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// ViewOf snapshots inst for rendering. Options override displayed values and
// messages without touching the controller.
func ViewOf(inst *definition.Instance, options RenderOptions) View {
	def := inst.Definition
	method, action := splitAction(def.Action)
	if options.Method != "" {
		method = strings.ToUpper(strings.TrimSpace(options.Method))
	}
	cfg := inst.Form.Config()

	view := View{
		ID:          def.ID,
		Name:        cfg.Name,
		Title:       def.Title,
		Description: def.Description,
		Action:      action,
		Method:      method,
		Colon:       cfg.Colon,
		LabelAlign:  string(cfg.LabelAlign),
		Disabled:    cfg.Disabled,
		State:       inst.Form.Controller().State().String(),
		Hidden:      normalizeHidden(options.Hidden),
	}

	for _, failure := range inst.Form.Controller().Errors() {
		if failure.Field == "" {
			view.Errors = append(view.Errors, failure.Message)
		}
	}
	view.Errors = append(view.Errors, options.Errors[""]...)

	for _, field := range def.Fields {
		ctl, ok := inst.Control(field.Name)
		if !ok {
			continue
		}
		view.Fields = append(view.Fields, fieldView(field, ctl.State(), options))
	}
	return view
}

func fieldView(field definition.Field, state form.ControlState, options RenderOptions) FieldView {
	value := state.Value
	if override, ok := options.Values[field.Name]; ok {
		value = override
	}
	status := state.ValidateStatus
	message := state.Message
	if messages := options.Errors[field.Name]; len(messages) > 0 {
		status = form.StatusInvalid
		message = strings.Join(messages, "; ")
	}

	view := FieldView{
		Name:        field.Name,
		ID:          "field-" + strings.ReplaceAll(field.Name, ".", "-"),
		Label:       field.Label,
		Type:        field.Type,
		Placeholder: field.Placeholder,
		Help:        field.Help,
		Text:        field.Format(value),
		Required:    field.Required,
		Disabled:    state.Disabled,
		Status:      string(status),
		Message:     message,
		ClassName:   state.ClassName(),
	}
	if checked, ok := value.(bool); ok {
		view.Checked = checked
	}
	if len(field.Options) > 0 {
		selected := selectedSet(value)
		for _, option := range field.Options {
			_, on := selected[option]
			view.Options = append(view.Options, OptionView{Value: option, Selected: on})
		}
	}
	return view
}

func selectedSet(value any) map[string]struct{} {
	out := map[string]struct{}{}
	switch typed := value.(type) {
	case string:
		out[typed] = struct{}{}
	case []string:
		for _, item := range typed {
			out[item] = struct{}{}
		}
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out[s] = struct{}{}
			}
		}
	}
	return out
}

// splitAction parses "METHOD /path" or a bare path. Browsers only submit GET
// and POST, so other verbs fall back to POST.
func splitAction(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	method := "POST"
	if head, rest, ok := strings.Cut(raw, " "); ok && !strings.HasPrefix(head, "/") {
		method = strings.ToUpper(head)
		raw = strings.TrimSpace(rest)
	}
	if method != "GET" {
		method = "POST"
	}
	return method, raw
}
