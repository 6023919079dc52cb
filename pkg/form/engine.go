package form

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of a whole-form validation. Values is always the
// snapshot validated; Errors is empty when every field passed.
type Result struct {
	Values Values
	Errors ErrorList
}

// Valid reports whether no field failed.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Err returns the ErrorList as an error, or nil when valid.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConcurrency bounds how many fields are validated at once. Zero or a
// negative value leaves it unbounded.
func WithConcurrency(limit int) EngineOption {
	return func(e *Engine) {
		e.limit = limit
	}
}

// WithDisabledFunc reports the form-wide disabled flag at validation time.
func WithDisabledFunc(fn func() bool) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.formDisabled = fn
		}
	}
}

// Engine evaluates field rules against a Registry and records the resulting
// statuses back on it.
type Engine struct {
	registry     *Registry
	limit        int
	formDisabled func() bool
}

// NewEngine binds an engine to registry.
func NewEngine(registry *Registry, opts ...EngineOption) *Engine {
	engine := &Engine{
		registry:     registry,
		formDisabled: func() bool { return false },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}
	return engine
}

// ValidateField runs the rules of one field in declaration order and stops at
// the first failure. It returns a nil failure when the field is valid.
func (e *Engine) ValidateField(ctx context.Context, name string) (*RuleFailure, error) {
	snap, ok := e.registry.snapshot(name)
	if !ok {
		return nil, ErrUnknownField
	}
	failure, err := e.run(ctx, snap)
	if err != nil {
		return nil, err
	}
	e.record(snap.name, failure)
	return failure, nil
}

// ValidateAll validates every registered field. Fields are evaluated
// concurrently; failures are reported in registration order. The returned
// error is reserved for context cancellation.
func (e *Engine) ValidateAll(ctx context.Context) (Result, error) {
	snaps := e.registry.snapshots()
	failures := make([]*RuleFailure, len(snaps))

	group, groupCtx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		group.SetLimit(e.limit)
	}
	for i, snap := range snaps {
		group.Go(func() error {
			failure, err := e.run(groupCtx, snap)
			if err != nil {
				return err
			}
			failures[i] = failure
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	var list ErrorList
	for i, snap := range snaps {
		e.record(snap.name, failures[i])
		if failures[i] != nil {
			list = append(list, *failures[i])
		}
	}
	return Result{Values: e.registry.Values(), Errors: list}, nil
}

func (e *Engine) run(ctx context.Context, snap fieldSnapshot) (*RuleFailure, error) {
	if snap.disabled != nil && *snap.disabled {
		return nil, nil
	}
	if snap.disabled == nil && e.formDisabled() {
		return nil, nil
	}
	for i, rule := range snap.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := evaluate(ctx, rule, snap.value)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return &RuleFailure{
			Field:   snap.name,
			Message: err.Error(),
			Rule:    ruleName(rule, i),
		}, nil
	}
	return nil, nil
}

func (e *Engine) record(name string, failure *RuleFailure) {
	if failure == nil {
		e.registry.setStatus(name, StatusValid, "")
		return
	}
	e.registry.setStatus(name, StatusInvalid, failure.Message)
}
