package form_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formstate/pkg/form"
)

type label struct{ text string }

func (label) Slot() form.Slot { return form.SlotTitle }

type rawControl struct{}

func (rawControl) Slot() form.Slot { return form.SlotControl }

type custom struct {
	summary string
}

func (custom) Slot() form.Slot { return form.SlotOther }

var ignoreCallbacks = cmpopts.IgnoreFields(form.ControlState{}, "OnChange", "OnBlur")

func TestControlBindsDefaultInput(t *testing.T) {
	f := form.New(form.WithName("login"), form.WithControlAlign(form.AlignRight))
	ctl, err := f.Control(form.ControlProps{Name: "user", Value: "ada", ClassName: "wide"})
	if err != nil {
		t.Fatalf("control: %v", err)
	}

	input, ok := ctl.Build().(form.Input)
	if !ok {
		t.Fatalf("expected bound Input, got %T", ctl.Build())
	}
	want := form.ControlState{
		Name:           "user",
		Value:          "ada",
		ValidateStatus: form.StatusUnvalidated,
		Align:          form.AlignRight,
		ClassNames:     []string{"formstate-form-control", "formstate-form-control--right", "wide"},
	}
	if diff := cmp.Diff(want, input.State, ignoreCallbacks); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	if got := input.State.ClassName(); got != "formstate-form-control formstate-form-control--right wide" {
		t.Fatalf("unexpected class name %q", got)
	}
}

func TestControlPassesThroughUnrecognisedChildren(t *testing.T) {
	f := form.New()
	for _, child := range []form.Element{label{text: "Name"}, rawControl{}} {
		ctl, err := f.Control(form.ControlProps{Name: "name", Child: child})
		if err != nil {
			t.Fatalf("control: %v", err)
		}
		if got := ctl.Build(); got != child {
			t.Fatalf("expected passthrough of %T, got %#v", child, got)
		}
	}
}

func TestControlRenderProp(t *testing.T) {
	f := form.New()
	ctl, _ := f.Control(form.ControlProps{
		Name:  "bio",
		Value: "hi",
		Render: func(state form.ControlState) form.Element {
			return custom{summary: state.Name + "=" + state.Value.(string)}
		},
	})
	if diff := cmp.Diff(custom{summary: "bio=hi"}, ctl.Build(), cmp.AllowUnexported(custom{})); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestControlChangeAndBlurFollowTrigger(t *testing.T) {
	ctx := context.Background()
	f := form.New(form.WithValidateTrigger(form.TriggerOnBlur))
	onBlur, _ := f.Control(form.ControlProps{Name: "email", Value: "", Rules: []form.Rule{isEmail()}})
	onChange, _ := f.Control(form.ControlProps{
		Name:    "name",
		Value:   "x",
		Trigger: form.TriggerOnChange,
		Rules:   []form.Rule{required()},
	})

	if err := onBlur.Change(ctx, "bad"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if onBlur.State().ValidateStatus != form.StatusUnvalidated {
		t.Fatalf("change must not validate an onBlur field")
	}
	if err := onBlur.Blur(ctx); err != nil {
		t.Fatalf("blur: %v", err)
	}
	if state := onBlur.State(); state.ValidateStatus != form.StatusInvalid || state.Message != "must be a valid email" {
		t.Fatalf("unexpected blur state %+v", state)
	}

	if err := onChange.Change(ctx, ""); err != nil {
		t.Fatalf("change: %v", err)
	}
	if onChange.State().ValidateStatus != form.StatusInvalid {
		t.Fatalf("expected onChange field validated on change")
	}
	if err := onChange.Change(ctx, "Ada"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if onChange.State().ValidateStatus != form.StatusValid {
		t.Fatalf("expected onChange field valid after fix")
	}
}

func TestControlDisabledInheritance(t *testing.T) {
	f := form.New(form.WithDisabled(true))
	enabled := false
	inherit, _ := f.Control(form.ControlProps{Name: "a"})
	override, _ := f.Control(form.ControlProps{Name: "b", Disabled: &enabled})

	if !inherit.State().Disabled {
		t.Fatalf("expected inherited disabled flag")
	}
	if override.State().Disabled {
		t.Fatalf("expected override to enable control")
	}
}

func TestControlUnboundAndUnmount(t *testing.T) {
	unbound, err := form.NewControl(nil, form.Config{}, form.ControlProps{Name: "x", Value: "v"})
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	if err := unbound.Change(context.Background(), "y"); err != nil {
		t.Fatalf("unbound change: %v", err)
	}
	if unbound.State().Value != nil {
		t.Fatalf("unbound control must not expose a value")
	}

	f := form.New()
	ctl, _ := f.Control(form.ControlProps{Name: "x"})
	if !f.Controller().Registry().Has("x") {
		t.Fatalf("expected field registered on mount")
	}
	if !ctl.Unmount() {
		t.Fatalf("expected unmount to unregister")
	}
	if f.Controller().Registry().Has("x") {
		t.Fatalf("expected field removed after unmount")
	}
}
