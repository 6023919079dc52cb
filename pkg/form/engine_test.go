package form_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
)

func isEmail() form.Check {
	return form.Check{
		Name:    "email",
		Message: "must be a valid email",
		Validator: func(_ context.Context, value any) (bool, error) {
			s, _ := value.(string)
			at := strings.Index(s, "@")
			return at > 0 && strings.Contains(s[at:], "."), nil
		},
	}
}

func TestEngineValidateAllReportsOnlyFailingFields(t *testing.T) {
	reg := form.NewRegistry()
	reg.Register("email", "bad", []form.Rule{isEmail()})
	reg.Register("age", 30, nil)

	result, err := form.NewEngine(reg).ValidateAll(context.Background())
	if err != nil {
		t.Fatalf("validate all: %v", err)
	}
	want := form.ErrorList{{Field: "email", Message: "must be a valid email", Rule: "email"}}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if result.Valid() {
		t.Fatalf("expected invalid result")
	}

	age, _ := reg.Field("age")
	if age.Status != form.StatusValid {
		t.Fatalf("expected zero-rule field to be valid, got %s", age.Status)
	}
}

func TestEngineValidateAllPreservesRegistrationOrder(t *testing.T) {
	reg := form.NewRegistry()
	names := []string{"f1", "f2", "f3", "f4", "f5", "f6"}
	for _, name := range names {
		reg.Register(name, "", []form.Rule{form.Predicate("required", func(v any) bool { return v != "" })})
	}

	result, err := form.NewEngine(reg, form.WithConcurrency(2)).ValidateAll(context.Background())
	if err != nil {
		t.Fatalf("validate all: %v", err)
	}
	if diff := cmp.Diff(names, result.Errors.Fields()); diff != "" {
		t.Fatalf("error order mismatch (-want +got):\n%s", diff)
	}
}

func TestEngineZeroRuleFieldNeverInvokesRules(t *testing.T) {
	reg := form.NewRegistry()
	var calls atomic.Int32
	reg.Register("email", "a@b.io", []form.Rule{form.RuleFunc(func(context.Context, any) error {
		calls.Add(1)
		return nil
	})})
	reg.Register("age", 30, nil)

	failure, err := form.NewEngine(reg).ValidateField(context.Background(), "age")
	if err != nil {
		t.Fatalf("validate field: %v", err)
	}
	if failure != nil {
		t.Fatalf("expected no failure, got %+v", failure)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no rule invocations, got %d", calls.Load())
	}
	state, _ := reg.Field("age")
	if state.Status != form.StatusValid {
		t.Fatalf("expected valid status, got %s", state.Status)
	}
}

func TestEngineShortCircuitsOnFirstFailure(t *testing.T) {
	reg := form.NewRegistry()
	var order []string
	rule := func(label string, fail bool) form.Rule {
		return form.Check{Name: label, Message: label + " failed", Validator: func(context.Context, any) (bool, error) {
			order = append(order, label)
			return !fail, nil
		}}
	}
	reg.Register("name", "", []form.Rule{rule("first", false), rule("second", true), rule("third", true)})

	failure, err := form.NewEngine(reg).ValidateField(context.Background(), "name")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff(&form.RuleFailure{Field: "name", Message: "second failed", Rule: "second"}, failure); diff != "" {
		t.Fatalf("failure mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"first", "second"}, order); diff != "" {
		t.Fatalf("rule order mismatch (-want +got):\n%s", diff)
	}
}

func TestEngineRecoversPanickingRule(t *testing.T) {
	reg := form.NewRegistry()
	reg.Register("x", nil, []form.Rule{form.RuleFunc(func(context.Context, any) error {
		panic("boom")
	})})

	failure, err := form.NewEngine(reg).ValidateField(context.Background(), "x")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if failure == nil || !strings.Contains(failure.Message, "boom") {
		t.Fatalf("expected recovered panic failure, got %+v", failure)
	}
	if failure.Rule != "rule[0]" {
		t.Fatalf("expected positional rule name, got %q", failure.Rule)
	}
}

func TestEngineSkipsDisabledFields(t *testing.T) {
	reg := form.NewRegistry()
	fail := form.Predicate("nope", func(any) bool { return false })
	reg.Register("on", nil, []form.Rule{fail}, form.WithFieldDisabled(false))
	reg.Register("inherit", nil, []form.Rule{fail})
	reg.Register("off", nil, []form.Rule{fail}, form.WithFieldDisabled(true))

	engine := form.NewEngine(reg, form.WithDisabledFunc(func() bool { return true }))
	result, err := engine.ValidateAll(context.Background())
	if err != nil {
		t.Fatalf("validate all: %v", err)
	}
	if diff := cmp.Diff([]string{"on"}, result.Errors.Fields()); diff != "" {
		t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
	}
}

func TestEngineReturnsContextErrors(t *testing.T) {
	reg := form.NewRegistry()
	reg.Register("slow", nil, []form.Rule{form.RuleFunc(func(ctx context.Context, _ any) error {
		<-ctx.Done()
		return ctx.Err()
	})})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := form.NewEngine(reg).ValidateAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	state, _ := reg.Field("slow")
	if state.Status != form.StatusUnvalidated {
		t.Fatalf("expected status untouched, got %s", state.Status)
	}
}
