package form_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
)

func TestFormGeneratesName(t *testing.T) {
	a := form.New()
	b := form.New()
	if !strings.HasPrefix(a.Name(), "t_") {
		t.Fatalf("expected generated name prefix, got %q", a.Name())
	}
	if a.Name() == b.Name() {
		t.Fatalf("expected unique generated names, got %q twice", a.Name())
	}
	if got := form.New(form.WithName("checkout")).Config().Name; got != "checkout" {
		t.Fatalf("expected explicit name, got %q", got)
	}
	if got := a.Config().ValidateTrigger; got != form.TriggerOnBlur {
		t.Fatalf("expected onBlur default trigger, got %q", got)
	}
}

func TestFormSubmitSuccess(t *testing.T) {
	var submitted []form.SubmitEvent
	f := form.New(
		form.WithName("signup"),
		form.WithControllerOptions(form.WithDefaultValues(map[string]any{"email": "a@b.io", "age": 30})),
		form.OnSubmit(func(evt form.SubmitEvent) { submitted = append(submitted, evt) }),
		form.OnValidate(func(list form.ErrorList) { t.Fatalf("unexpected validation failure %v", list) }),
	)
	f.Control(form.ControlProps{Name: "email", Rules: []form.Rule{isEmail()}})
	f.Control(form.ControlProps{Name: "age"})

	f.HandleSubmit(context.Background(), form.SubmitEvent{Detail: form.SubmitDetail{Extra: map[string]any{"button": "save"}}})

	if len(submitted) != 1 {
		t.Fatalf("expected one submit, got %d", len(submitted))
	}
	evt := submitted[0]
	if evt.Type != "submit" || evt.Detail.FormID != "signup" {
		t.Fatalf("unexpected event header %+v", evt)
	}
	if diff := cmp.Diff(map[string]any{"email": "a@b.io", "age": 30}, evt.Detail.Value.Map()); diff != "" {
		t.Fatalf("submitted values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"button": "save"}, evt.Detail.Extra); diff != "" {
		t.Fatalf("extra mismatch (-want +got):\n%s", diff)
	}
	if f.Controller().State() != form.StateIdle {
		t.Fatalf("expected idle after submit, got %s", f.Controller().State())
	}
}

func TestFormSubmitFailureGoesToOnValidate(t *testing.T) {
	var failures []form.ErrorList
	f := form.New(
		form.WithControllerOptions(form.WithDefaultValues(map[string]any{"email": "bad", "age": 30})),
		form.OnSubmit(func(form.SubmitEvent) { t.Fatalf("unexpected submit") }),
		form.OnValidate(func(list form.ErrorList) { failures = append(failures, list) }),
	)
	f.Control(form.ControlProps{Name: "email", Rules: []form.Rule{isEmail()}})
	f.Control(form.ControlProps{Name: "age"})

	f.Handle().Submit(context.Background())

	want := []form.ErrorList{{{Field: "email", Message: "must be a valid email", Rule: "email"}}}
	if diff := cmp.Diff(want, failures); diff != "" {
		t.Fatalf("failures mismatch (-want +got):\n%s", diff)
	}
}

func TestFormSubmitCanceledContextIsDelivered(t *testing.T) {
	var failures form.ErrorList
	f := form.New(form.OnValidate(func(list form.ErrorList) { failures = list }))
	f.Control(form.ControlProps{Name: "x", Rules: []form.Rule{required()}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.HandleSubmit(ctx, form.SubmitEvent{})

	if len(failures) != 1 || failures[0].Field != "" || failures[0].Rule != "canceled" {
		t.Fatalf("expected one form-level canceled failure, got %+v", failures)
	}
}

func TestFormResetAfterBlurRunsAfterValidation(t *testing.T) {
	ctx := context.Background()
	f := form.New(form.WithControllerOptions(form.WithDefaultValues(map[string]any{"email": "ada@example.com"})))
	ctl, _ := f.Control(form.ControlProps{Name: "email", Rules: []form.Rule{isEmail()}})

	if err := ctl.Change(ctx, "typo"); err != nil {
		t.Fatalf("change: %v", err)
	}

	var trace []string
	f.Controller().AddEventListener(form.EventReset, func(form.Event) {
		trace = append(trace, "reset")
	})

	f.HandleReset()
	if err := ctl.Blur(ctx); err != nil {
		t.Fatalf("blur: %v", err)
	}
	trace = append(trace, "blur:"+string(ctl.State().ValidateStatus))

	if got, _ := f.Controller().Value("email"); got != "typo" {
		t.Fatalf("reset must not run before the batch is flushed, value is %v", got)
	}
	if ran := f.Flush(); ran != 1 {
		t.Fatalf("expected one deferred task, got %d", ran)
	}

	if diff := cmp.Diff([]string{"blur:invalid", "reset"}, trace); diff != "" {
		t.Fatalf("ordering mismatch (-want +got):\n%s", diff)
	}
	state := ctl.State()
	if state.Value != "ada@example.com" || state.ValidateStatus != form.StatusUnvalidated {
		t.Fatalf("expected field restored to default, got %+v", state)
	}
	if len(f.Controller().Errors()) != 0 {
		t.Fatalf("expected errors cleared after reset")
	}
}

func TestFormHandleResetWaitsForBlurValidation(t *testing.T) {
	ctx := context.Background()
	f := form.New(form.WithControllerOptions(form.WithDefaultValues(map[string]any{"email": "d"})))
	ctl, _ := f.Control(form.ControlProps{Name: "email", Rules: []form.Rule{isEmail()}})

	if err := ctl.Change(ctx, "typed"); err != nil {
		t.Fatalf("change: %v", err)
	}

	var trace []string
	f.Controller().AddEventListener(form.EventReset, func(form.Event) {
		trace = append(trace, "reset")
	})

	f.Handle().Reset()
	if got, _ := f.Controller().Value("email"); got != "typed" {
		t.Fatalf("handle reset ran before the batch was flushed, value is %v", got)
	}
	if err := ctl.Blur(ctx); err != nil {
		t.Fatalf("blur: %v", err)
	}
	trace = append(trace, "blur:"+string(ctl.State().ValidateStatus))

	if ran := f.Flush(); ran != 1 {
		t.Fatalf("expected one deferred task, got %d", ran)
	}
	if diff := cmp.Diff([]string{"blur:invalid", "reset"}, trace); diff != "" {
		t.Fatalf("ordering mismatch (-want +got):\n%s", diff)
	}
	if got, _ := f.Controller().Value("email"); got != "d" {
		t.Fatalf("expected default restored, got %v", got)
	}
}

func TestFormHandleOperations(t *testing.T) {
	ctx := context.Background()
	f := form.New(form.WithScheduler(form.Immediate))
	f.Control(form.ControlProps{Name: "a", Value: "1"})
	f.Control(form.ControlProps{Name: "b", Value: "2"})
	h := f.Handle()

	if err := h.SetValues(ctx, map[string]any{"b": "3"}); err != nil {
		t.Fatalf("set values: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": "1", "b": "3"}, h.GetFieldsValue().Map()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	h.SetErrors(form.ErrorList{{Field: "a", Message: "server says no"}})
	if diff := cmp.Diff([]string{"a"}, h.Errors().Fields()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	h.Reset()
	if f.Flush() != 0 {
		t.Fatalf("immediate scheduler should leave nothing to flush")
	}
	if diff := cmp.Diff(map[string]any{"a": "1", "b": "2"}, h.Values().Map()); diff != "" {
		t.Fatalf("values after reset mismatch (-want +got):\n%s", diff)
	}
	if _, err := h.Validate(ctx); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
