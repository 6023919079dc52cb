package form

import (
	"context"
	"errors"
	"fmt"
)

// Rule validates a single field value. A nil return means the value passed;
// any other error fails the rule and its message becomes the failure message.
type Rule interface {
	Validate(ctx context.Context, value any) error
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(ctx context.Context, value any) error

// Validate calls f.
func (f RuleFunc) Validate(ctx context.Context, value any) error {
	return f(ctx, value)
}

// Check is a predicate plus message, the shape rule objects take in
// declarative form definitions. Validator may block (for example on a remote
// uniqueness lookup) and should honour ctx.
type Check struct {
	Name      string
	Message   string
	Validator func(ctx context.Context, value any) (bool, error)
}

// Predicate builds a Check from a synchronous predicate.
func Predicate(message string, fn func(value any) bool) Check {
	return Check{
		Message: message,
		Validator: func(_ context.Context, value any) (bool, error) {
			return fn(value), nil
		},
	}
}

// Validate runs the predicate. Validator errors fail the check; the check's
// own message wins over the error text when both exist.
func (c Check) Validate(ctx context.Context, value any) error {
	if c.Validator == nil {
		return nil
	}
	ok, err := c.Validator(ctx, value)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		if c.Message != "" {
			return errors.New(c.Message)
		}
		return err
	}
	if ok {
		return nil
	}
	if c.Message == "" {
		return errors.New("is invalid")
	}
	return errors.New(c.Message)
}

// RuleName reports the check name used in RuleFailure.Rule.
func (c Check) RuleName() string { return c.Name }

// NamedRule is implemented by rules that report a stable identifier.
type NamedRule interface {
	RuleName() string
}

func ruleName(rule Rule, index int) string {
	if named, ok := rule.(NamedRule); ok {
		if name := named.RuleName(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("rule[%d]", index)
}

// evaluate runs a rule, converting panics into failures so a broken rule
// cannot take the host down.
func evaluate(ctx context.Context, rule Rule, value any) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("validator panicked: %v", recovered)
		}
	}()
	if rule == nil {
		return nil
	}
	return rule.Validate(ctx, value)
}
