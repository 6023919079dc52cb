// Package tui fills form instances interactively on a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/render"
)

// Name is the registry name of the terminal renderer.
const Name = "tui"

// Renderer prompts for every field of an instance, feeds the answers through
// the form controls and serializes the values once the form validates.
type Renderer struct {
	driver    PromptDriver
	format    OutputFormat
	theme     Theme
	maxRounds int
}

var _ render.Renderer = (*Renderer)(nil)

// New builds the renderer. Without WithPromptDriver it uses the survey driver.
func New(options ...Option) *Renderer {
	r := &Renderer{
		format:    OutputFormatJSON,
		theme:     Theme{InfoPrefix: "", ErrorPrefix: "✗ "},
		maxRounds: 3,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = SurveyDriver()
	}
	return r
}

func (r *Renderer) Name() string { return Name }

func (r *Renderer) ContentType() string {
	switch r.format {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render runs the session. Options values prefill answers and options errors
// are shown before the matching prompt. After a failed validation only the
// invalid fields are asked again, up to the configured number of rounds.
func (r *Renderer) Render(ctx context.Context, inst *definition.Instance, opts render.RenderOptions) ([]byte, error) {
	if inst == nil || inst.Form == nil {
		return nil, errors.New("tui: form instance is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values, err := r.Run(ctx, inst, opts)
	if err != nil {
		return nil, err
	}
	return serialize(r.format, inst.Definition, values)
}

// Run prompts and validates, returning the validated values.
func (r *Renderer) Run(ctx context.Context, inst *definition.Instance, opts render.RenderOptions) (form.Values, error) {
	ctrl := inst.Form.Controller()
	if len(opts.Values) > 0 {
		prefill := make(map[string]any, len(opts.Values))
		for name, value := range opts.Values {
			if ctrl.Registry().Has(name) {
				prefill[name] = value
			}
		}
		if err := ctrl.SetValues(ctx, prefill); err != nil {
			return form.Values{}, err
		}
	}

	if def := inst.Definition; def.Title != "" {
		if err := r.driver.Info(ctx, r.theme.InfoPrefix+def.Title); err != nil {
			return form.Values{}, err
		}
	}

	pending := inst.Definition.Fields
	for round := 0; ; round++ {
		for _, field := range pending {
			messages := opts.Errors[field.Name]
			if round > 0 {
				messages = messagesFor(ctrl.Errors(), field.Name)
			}
			for _, message := range messages {
				if err := r.driver.Info(ctx, r.theme.ErrorPrefix+displayLabel(field)+": "+message); err != nil {
					return form.Values{}, err
				}
			}
			if err := r.promptField(ctx, inst, field); err != nil {
				return form.Values{}, err
			}
		}

		values, err := ctrl.Validate(ctx)
		if err == nil {
			return values, nil
		}
		list, ok := form.AsErrorList(err)
		if !ok {
			return form.Values{}, err
		}
		if round >= r.maxRounds {
			invalid := fmt.Errorf("%w: %s", ErrInvalid, list.Error())
			for _, failure := range list {
				if err := r.driver.Info(ctx, r.theme.ErrorPrefix+failure.Error()); err != nil {
					return form.Values{}, errors.Join(invalid, err)
				}
			}
			return form.Values{}, invalid
		}
		pending = invalidFields(inst.Definition, list)
		if len(pending) == 0 {
			return form.Values{}, fmt.Errorf("%w: %s", ErrInvalid, list.Error())
		}
	}
}

// promptField asks one question, stores the answer through the field's
// control and blurs it so the form's trigger policy applies.
func (r *Renderer) promptField(ctx context.Context, inst *definition.Instance, field definition.Field) error {
	ctl, ok := inst.Control(field.Name)
	if !ok {
		return nil
	}
	state := ctl.State()
	if state.Disabled {
		return nil
	}

	value, err := r.ask(ctx, field, state.Value)
	if err != nil {
		return err
	}
	if err := ctl.Change(ctx, value); err != nil {
		return err
	}
	return ctl.Blur(ctx)
}

func (r *Renderer) ask(ctx context.Context, field definition.Field, current any) (any, error) {
	message := displayLabel(field)
	switch field.Type {
	case definition.TypeBoolean:
		def, _ := current.(bool)
		return r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: field.Help})

	case definition.TypeSelect:
		if len(field.Options) == 0 {
			break
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      field.Options,
			DefaultIndex: indexOf(field.Options, field.Format(current)),
			Help:         field.Help,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return nil, nil
		}
		return field.Options[idx], nil

	case definition.TypeMultiSelect:
		if len(field.Options) == 0 {
			break
		}
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  field.Options,
			Defaults: indicesOf(field.Options, splitList(field.Format(current))),
			Help:     field.Help,
		})
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(indices))
		for _, option := range optionsAt(field.Options, indices) {
			out = append(out, option)
		}
		return out, nil

	case definition.TypeTextarea:
		raw, err := r.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: field.Format(current), Help: field.Help})
		if err != nil {
			return nil, err
		}
		return emptyToNil(field, raw)

	case definition.TypePassword:
		raw, err := r.driver.Password(ctx, InputConfig{Message: message, Help: field.Help, Validator: typeValidator(field)})
		if err != nil {
			return nil, err
		}
		return emptyToNil(field, raw)
	}

	raw, err := r.driver.Input(ctx, InputConfig{
		Message:   message,
		Default:   field.Format(current),
		Help:      field.Help,
		Validator: typeValidator(field),
	})
	if err != nil {
		return nil, err
	}
	return emptyToNil(field, raw)
}

// typeValidator rejects answers that cannot be coerced to the field type so
// the driver can re-ask in place.
func typeValidator(field definition.Field) func(string) error {
	return func(raw string) error {
		_, err := field.Coerce(raw)
		return err
	}
}

func emptyToNil(field definition.Field, raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return field.Coerce(raw)
}

func invalidFields(def definition.Form, list form.ErrorList) []definition.Field {
	var out []definition.Field
	for _, name := range list.Fields() {
		if field, ok := def.Field(name); ok {
			out = append(out, field)
		}
	}
	return out
}

func messagesFor(list form.ErrorList, name string) []string {
	var out []string
	for _, failure := range list.For(name) {
		out = append(out, failure.Message)
	}
	return out
}

func displayLabel(field definition.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
