package definition

import (
	"fmt"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/rules"
)

// Instance is a live form built from a definition.
type Instance struct {
	Definition Form
	Form       *form.Form
	controls   []*form.Control
}

// Controls returns the mounted controls in field order.
func (i *Instance) Controls() []*form.Control {
	return append([]*form.Control(nil), i.controls...)
}

// Control returns the control bound to name.
func (i *Instance) Control(name string) (*form.Control, bool) {
	for _, ctl := range i.controls {
		if ctl.Name() == name {
			return ctl, true
		}
	}
	return nil, false
}

// Close unmounts every control.
func (i *Instance) Close() {
	for _, ctl := range i.controls {
		ctl.Unmount()
	}
	i.controls = nil
}

// Build mounts def onto a new form. Field defaults become controller
// defaults; Required prepends a required rule. A nil registry uses
// rules.Default(). Extra options are applied after the definition's own.
func Build(def Form, registry *rules.Registry, opts ...form.Option) (*Instance, error) {
	if registry == nil {
		registry = rules.Default()
	}

	labelAlign, err := form.ParseAlign(def.LabelAlign)
	if err != nil {
		return nil, fmt.Errorf("definition: form %q: %w", def.ID, err)
	}
	controlAlign, err := form.ParseAlign(def.ControlAlign)
	if err != nil {
		return nil, fmt.Errorf("definition: form %q: %w", def.ID, err)
	}
	trigger, err := form.ParseTrigger(def.ValidateTrigger)
	if err != nil {
		return nil, fmt.Errorf("definition: form %q: %w", def.ID, err)
	}
	if trigger == "" {
		trigger = form.TriggerOnBlur
	}

	defaults := make(map[string]any, len(def.Fields))
	for _, field := range def.Fields {
		if field.Default != nil {
			defaults[field.Name] = field.Default
		}
	}

	base := []form.Option{
		form.WithName(def.ID),
		form.WithColon(def.Colon),
		form.WithLabelAlign(labelAlign),
		form.WithControlAlign(controlAlign),
		form.WithValidateTrigger(trigger),
		form.WithDisabled(def.Disabled),
		form.WithControllerOptions(form.WithDefaultValues(defaults)),
	}
	f := form.New(append(base, opts...)...)

	inst := &Instance{Definition: def, Form: f}
	for _, field := range def.Fields {
		fieldRules, err := fieldRules(field, registry)
		if err != nil {
			inst.Close()
			return nil, fmt.Errorf("definition: form %q: %w", def.ID, err)
		}
		fieldTrigger, err := form.ParseTrigger(field.Trigger)
		if err != nil {
			inst.Close()
			return nil, fmt.Errorf("definition: form %q field %q: %w", def.ID, field.Name, err)
		}
		align, err := form.ParseAlign(field.Align)
		if err != nil {
			inst.Close()
			return nil, fmt.Errorf("definition: form %q field %q: %w", def.ID, field.Name, err)
		}

		ctl, err := f.Control(form.ControlProps{
			Name:     field.Name,
			Disabled: field.Disabled,
			Align:    align,
			Trigger:  fieldTrigger,
			Rules:    fieldRules,
		})
		if err != nil {
			inst.Close()
			return nil, fmt.Errorf("definition: form %q: %w", def.ID, err)
		}
		inst.controls = append(inst.controls, ctl)
	}
	return inst, nil
}

func fieldRules(field Field, registry *rules.Registry) ([]form.Rule, error) {
	specs := field.Rules
	if field.Required && !hasKind(specs, rules.KindRequired) {
		specs = append([]rules.Spec{{Kind: rules.KindRequired}}, specs...)
	}
	if field.Type == TypeEmail && !hasKind(specs, rules.KindEmail) {
		specs = append(append([]rules.Spec(nil), specs...), rules.Spec{Kind: rules.KindEmail})
	}
	built, err := registry.BuildAll(specs)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", field.Name, err)
	}
	// Options are matched verbatim; they may contain commas or padding.
	if len(field.Options) > 0 && (field.Type == TypeSelect || field.Type == TypeMultiSelect) && !hasKind(specs, rules.KindOneOf) {
		built = append(built, rules.OneOf(field.Options, ""))
	}
	return built, nil
}

func hasKind(specs []rules.Spec, kind string) bool {
	for _, spec := range specs {
		if spec.Kind == kind {
			return true
		}
	}
	return false
}
