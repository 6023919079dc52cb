package form_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
)

func required() form.Check {
	return form.Check{
		Name:    "required",
		Message: "is required",
		Validator: func(_ context.Context, value any) (bool, error) {
			s, ok := value.(string)
			return !ok || s != "", nil
		},
	}
}

func TestControllerValidateEmailAgeExample(t *testing.T) {
	ctrl := form.NewController("signup", form.WithDefaultValues(map[string]any{
		"email": "bad",
		"age":   30,
	}))
	ctrl.Register("email", []form.Rule{isEmail()})
	ctrl.Register("age", nil)

	_, err := ctrl.Validate(context.Background())
	list, ok := form.AsErrorList(err)
	if !ok {
		t.Fatalf("expected ErrorList, got %v", err)
	}
	want := form.ErrorList{{Field: "email", Message: "must be a valid email", Rule: "email"}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if ctrl.State() != form.StateInvalid {
		t.Fatalf("expected invalid state, got %s", ctrl.State())
	}
	if diff := cmp.Diff(want, ctrl.Errors()); diff != "" {
		t.Fatalf("stored errors mismatch (-want +got):\n%s", diff)
	}
}

func TestControllerValidateSuccessReturnsValues(t *testing.T) {
	ctrl := form.NewController("signup", form.WithDefaultValues(map[string]any{"email": "a@b.io"}))
	ctrl.Register("email", []form.Rule{isEmail()})

	values, err := ctrl.ValidateFields(context.Background())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"email": "a@b.io"}, values.Map()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if ctrl.State() != form.StateValid {
		t.Fatalf("expected valid state, got %s", ctrl.State())
	}
}

func TestControllerResetRestoresDefaults(t *testing.T) {
	ctx := context.Background()
	ctrl := form.NewController("profile",
		form.WithDefaultValues(map[string]any{"name": "Ada", "email": "ada@example.com"}),
		form.WithValues(map[string]any{"name": "Grace"}),
	)
	ctrl.Register("name", []form.Rule{required()})
	ctrl.Register("email", []form.Rule{isEmail()})

	if got, _ := ctrl.Value("name"); got != "Grace" {
		t.Fatalf("expected controlled value to win, got %v", got)
	}
	if err := ctrl.SetValues(ctx, map[string]any{"name": "", "email": "nope"}); err != nil {
		t.Fatalf("set values: %v", err)
	}
	if _, err := ctrl.Validate(ctx); err == nil {
		t.Fatalf("expected validation failure before reset")
	}

	resets := 0
	ctrl.AddEventListener(form.EventReset, func(evt form.Event) {
		resets++
		if got, _ := ctrl.Value("email"); got != "ada@example.com" {
			t.Errorf("reset listener saw %v before registry was restored", got)
		}
	})
	ctrl.Reset()

	if resets != 1 {
		t.Fatalf("expected one reset event, got %d", resets)
	}
	if ctrl.State() != form.StateIdle {
		t.Fatalf("expected idle state, got %s", ctrl.State())
	}
	if len(ctrl.Errors()) != 0 {
		t.Fatalf("expected errors cleared, got %v", ctrl.Errors())
	}
	want := map[string]any{"name": "Ada", "email": "ada@example.com"}
	if diff := cmp.Diff(want, ctrl.Values().Map()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if _, err := ctrl.Validate(ctx); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestControllerChangeListenersRunInOrderWithSameSnapshot(t *testing.T) {
	ctrl := form.NewController("f", form.WithDefaultValues(map[string]any{"a": 1, "b": 2}))
	ctrl.Register("a", nil)
	ctrl.Register("b", nil)

	var trace []string
	var seen []form.Event
	ctrl.AddEventListener(form.EventChange, func(evt form.Event) {
		trace = append(trace, "A:start", "A:end")
		seen = append(seen, evt)
	})
	ctrl.AddEventListener(form.EventChange, func(evt form.Event) {
		trace = append(trace, "B:start", "B:end")
		seen = append(seen, evt)
	})

	if err := ctrl.SetValue(context.Background(), "a", 5); err != nil {
		t.Fatalf("set value: %v", err)
	}

	if diff := cmp.Diff([]string{"A:start", "A:end", "B:start", "B:end"}, trace); diff != "" {
		t.Fatalf("listener order mismatch (-want +got):\n%s", diff)
	}
	if len(seen) != 2 {
		t.Fatalf("expected two deliveries, got %d", len(seen))
	}
	for _, evt := range seen {
		if diff := cmp.Diff(map[string]any{"a": 5}, evt.Changed.Map()); diff != "" {
			t.Fatalf("changed mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(map[string]any{"a": 5, "b": 2}, evt.All.Map()); diff != "" {
			t.Fatalf("all mismatch (-want +got):\n%s", diff)
		}
		if evt.Form != "f" || evt.Kind != form.EventChange {
			t.Fatalf("unexpected event header %+v", evt)
		}
	}
}

func TestControllerRemoveDuringDispatchKeepsCurrentPass(t *testing.T) {
	ctrl := form.NewController("f")
	ctrl.Register("a", nil, form.WithInitialValue(1))

	var calls []string
	var idB form.ListenerID
	ctrl.AddEventListener(form.EventChange, func(form.Event) {
		calls = append(calls, "A")
		ctrl.RemoveEventListener(form.EventChange, idB)
	})
	idB = ctrl.AddEventListener(form.EventChange, func(form.Event) {
		calls = append(calls, "B")
	})

	ctrl.SetValue(context.Background(), "a", 2)
	ctrl.SetValue(context.Background(), "a", 3)

	if diff := cmp.Diff([]string{"A", "B", "A"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestControllerSetValuesValidatesOnChangeTrigger(t *testing.T) {
	ctx := context.Background()
	ctrl := form.NewController("f", form.WithTrigger(form.TriggerOnChange))
	ctrl.Register("name", []form.Rule{required()})
	ctrl.Register("note", nil)
	ctrl.Register("blurred", []form.Rule{required()}, form.WithFieldTrigger(form.TriggerOnBlur))

	if err := ctrl.SetValues(ctx, map[string]any{"name": "", "note": "", "blurred": ""}); err != nil {
		t.Fatalf("set values: %v", err)
	}

	fields := map[string]form.ValidateStatus{}
	for _, field := range ctrl.Registry().Fields() {
		fields[field.Name] = field.Status
	}
	want := map[string]form.ValidateStatus{
		"name":    form.StatusInvalid,
		"note":    form.StatusUnvalidated,
		"blurred": form.StatusUnvalidated,
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name"}, ctrl.Errors().Fields()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	if err := ctrl.SetValue(ctx, "name", "ok"); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if len(ctrl.Errors()) != 0 {
		t.Fatalf("expected error cleared, got %v", ctrl.Errors())
	}
}

func TestControllerSetValuesReportsUnknownFields(t *testing.T) {
	ctrl := form.NewController("f")
	ctrl.Register("a", nil)

	err := ctrl.SetFieldsValue(context.Background(), map[string]any{"a": 1, "zz": 2, "b": 3})
	if !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if got := err.Error(); got != "form: unknown field: b, zz" {
		t.Fatalf("unexpected error text %q", got)
	}
	if got, _ := ctrl.Value("a"); got != 1 {
		t.Fatalf("expected known key applied, got %v", got)
	}
}

func TestControllerSetErrorsMarksFields(t *testing.T) {
	ctrl := form.NewController("f")
	ctrl.Register("email", nil)
	ctrl.Register("name", nil)

	ctrl.SetErrors(form.ErrorList{
		{Field: "email", Message: "taken"},
		{Message: "try again later"},
	})
	email, _ := ctrl.Registry().Field("email")
	if email.Status != form.StatusInvalid || email.Message != "taken" {
		t.Fatalf("unexpected email state %+v", email)
	}

	ctrl.SetErrors(form.ErrorList{{Field: "name", Message: "short"}})
	email, _ = ctrl.Registry().Field("email")
	if email.Status != form.StatusUnvalidated {
		t.Fatalf("expected stale invalid mark cleared, got %s", email.Status)
	}
	if diff := cmp.Diff(map[string][]string{"name": {"short"}}, ctrl.Errors().Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestControllerValidateFieldKeepsErrorOrder(t *testing.T) {
	ctx := context.Background()
	ctrl := form.NewController("f")
	for _, name := range []string{"a", "b", "c"} {
		ctrl.Register(name, []form.Rule{required()}, form.WithInitialValue(""))
	}

	for _, name := range []string{"c", "a", "b"} {
		if _, err := ctrl.ValidateField(ctx, name); err != nil {
			t.Fatalf("validate %s: %v", name, err)
		}
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ctrl.Errors().Fields()); diff != "" {
		t.Fatalf("error order mismatch (-want +got):\n%s", diff)
	}

	ctrl.Unregister("b")
	if diff := cmp.Diff([]string{"a", "c"}, ctrl.Errors().Fields()); diff != "" {
		t.Fatalf("error order after unregister mismatch (-want +got):\n%s", diff)
	}
}
