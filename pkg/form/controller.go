package form

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/capitan"
)

// ControllerOption configures a Controller.
type ControllerOption func(*controllerConfig)

type controllerConfig struct {
	defaults    map[string]any
	controlled  map[string]any
	trigger     Trigger
	disabled    bool
	logger      zerolog.Logger
	observer    Observer
	concurrency int
}

// WithDefaultValues seeds the values fields start with and return to on reset.
func WithDefaultValues(values map[string]any) ControllerOption {
	return func(cfg *controllerConfig) {
		cfg.defaults = cloneMap(values)
	}
}

// WithValues seeds controlled values. They take precedence over defaults when
// a field registers but Reset still restores the defaults.
func WithValues(values map[string]any) ControllerOption {
	return func(cfg *controllerConfig) {
		cfg.controlled = cloneMap(values)
	}
}

// WithTrigger sets the form-wide validate trigger (onBlur when unset).
func WithTrigger(trigger Trigger) ControllerOption {
	return func(cfg *controllerConfig) {
		cfg.trigger = trigger
	}
}

// WithFormDisabled marks every field without an override as disabled.
func WithFormDisabled(disabled bool) ControllerOption {
	return func(cfg *controllerConfig) {
		cfg.disabled = disabled
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(cfg *controllerConfig) {
		cfg.logger = logger
	}
}

// WithObserver attaches a lifecycle observer (metrics, tracing).
func WithObserver(observer Observer) ControllerOption {
	return func(cfg *controllerConfig) {
		if observer != nil {
			cfg.observer = observer
		}
	}
}

// WithValidationConcurrency bounds concurrent field validation.
func WithValidationConcurrency(limit int) ControllerOption {
	return func(cfg *controllerConfig) {
		cfg.concurrency = limit
	}
}

// Controller orchestrates the Registry and Engine of one form instance and
// exposes the imperative operations and event subscriptions.
type Controller struct {
	name     string
	registry *Registry
	engine   *Engine
	events   *listeners
	logger   zerolog.Logger
	observer Observer

	defaults   map[string]any
	controlled map[string]any
	trigger    Trigger
	disabled   bool

	mu     sync.RWMutex
	state  State
	errors ErrorList
}

// NewController creates the controller for the form called name.
func NewController(name string, opts ...ControllerOption) *Controller {
	cfg := controllerConfig{
		logger:   zerolog.Nop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	c := &Controller{
		name:       name,
		registry:   NewRegistry(),
		events:     newListeners(),
		logger:     cfg.logger.With().Str("form", name).Logger(),
		observer:   cfg.observer,
		defaults:   cfg.defaults,
		controlled: cfg.controlled,
		trigger:    cfg.trigger,
		disabled:   cfg.disabled,
	}
	c.engine = NewEngine(c.registry,
		WithConcurrency(cfg.concurrency),
		WithDisabledFunc(func() bool { return c.disabled }),
	)
	c.registry.OnChange(func(changed, all Values) {
		c.events.dispatch(Event{Kind: EventChange, Form: c.name, Changed: changed, All: all})
	})
	return c
}

// Name returns the form instance name.
func (c *Controller) Name() string { return c.name }

// Registry exposes the underlying registry for read access.
func (c *Controller) Registry() *Registry { return c.registry }

// State returns the current state machine position.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Register adds a field seeded from controlled values, then defaults.
// Registering an existing name silently replaces its rules and overrides.
func (c *Controller) Register(name string, rules []Rule, opts ...FieldOption) (*FieldHandle, error) {
	initial, hasInitial := c.controlled[name]
	def, hasDefault := c.defaults[name]
	if !hasInitial {
		initial = def
	}

	base := make([]FieldOption, 0, len(opts)+1)
	if hasDefault {
		base = append(base, WithDefault(def))
	}
	base = append(base, opts...)

	if c.registry.Has(name) {
		c.logger.Debug().Str("field", name).Msg("field re-registered, replacing rules")
	}
	handle, err := c.registry.Register(name, initial, rules, base...)
	if err != nil {
		return nil, fmt.Errorf("form: register %q: %w", name, err)
	}
	return handle, nil
}

// Unregister removes a field and drops its recorded errors.
func (c *Controller) Unregister(name string) bool {
	if !c.registry.Unregister(name) {
		return false
	}
	c.mu.Lock()
	c.errors = withoutField(c.errors, name)
	c.mu.Unlock()
	return true
}

// Values returns a snapshot of every registered value.
func (c *Controller) Values() Values { return c.registry.Values() }

// Value returns one field value.
func (c *Controller) Value(name string) (any, bool) { return c.registry.Value(name) }

// Errors returns the current error list.
func (c *Controller) Errors() ErrorList {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errors.clone()
}

// SetErrors replaces the error list, for example with server-side results.
// Listed fields become invalid; other fields lose stale invalid marks.
func (c *Controller) SetErrors(list ErrorList) {
	c.registry.applyFailures(list)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = list.clone()
	if len(list) > 0 {
		c.state = StateInvalid
	}
}

// SetValue writes one field and, when the field's effective trigger is
// onChange and it has rules, validates it.
func (c *Controller) SetValue(ctx context.Context, name string, value any) error {
	if err := c.registry.SetValue(name, value); err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}
	return c.validateOnChange(ctx, name)
}

// SetValues merges partial into the registry, one SetValue per key in
// registration order. Unknown names are skipped and reported together.
func (c *Controller) SetValues(ctx context.Context, partial map[string]any) error {
	for _, name := range c.registry.Names() {
		value, ok := partial[name]
		if !ok {
			continue
		}
		if err := c.SetValue(ctx, name, value); err != nil {
			return err
		}
	}

	var unknown []string
	for name := range partial {
		if !c.registry.Has(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(unknown, ", "))
	}
	return nil
}

func (c *Controller) validateOnChange(ctx context.Context, name string) error {
	field, ok := c.registry.Field(name)
	if !ok || field.Rules == 0 {
		return nil
	}
	if c.effectiveTrigger(field.Trigger) != TriggerOnChange {
		return nil
	}
	_, err := c.ValidateField(ctx, name)
	return err
}

// EffectiveTrigger resolves the trigger policy that applies to name.
func (c *Controller) EffectiveTrigger(name string) Trigger {
	field, _ := c.registry.Field(name)
	return c.effectiveTrigger(field.Trigger)
}

func (c *Controller) effectiveTrigger(override Trigger) Trigger {
	return Config{ValidateTrigger: c.trigger}.Trigger(override)
}

// ValidateField validates one field, records its status and keeps the error
// list in sync. A nil failure means the field is valid.
func (c *Controller) ValidateField(ctx context.Context, name string) (*RuleFailure, error) {
	start := time.Now()
	failure, err := c.engine.ValidateField(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.errors = mergeFieldFailure(c.errors, c.registry.Names(), name, failure)
	c.mu.Unlock()

	failures := 0
	if failure != nil {
		failures = 1
	}
	c.observer.ObserveValidation(c.name, ScopeField, time.Since(start), failures)
	return failure, nil
}

// Validate validates every field. On success it returns the value snapshot;
// on failure the error is the ErrorList (see AsErrorList). Concurrent calls
// are not de-duplicated and settle independently.
func (c *Controller) Validate(ctx context.Context) (Values, error) {
	c.mu.Lock()
	c.state = StateValidating
	c.mu.Unlock()

	start := time.Now()
	result, err := c.engine.ValidateAll(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		c.logger.Debug().Err(err).Msg("validation aborted")
		return Values{}, err
	}

	c.mu.Lock()
	c.errors = result.Errors.clone()
	if result.Valid() {
		c.state = StateValid
	} else {
		c.state = StateInvalid
	}
	c.mu.Unlock()

	c.observer.ObserveValidation(c.name, ScopeForm, time.Since(start), len(result.Errors))
	if !result.Valid() {
		capitan.Emit(ctx, FormValidationFailed,
			KeyForm.Field(c.name),
			KeyFailures.Field(len(result.Errors)),
		)
		c.logger.Debug().Int("failures", len(result.Errors)).Msg("validation failed")
		return result.Values, result.Errors
	}
	capitan.Emit(ctx, FormValidated,
		KeyForm.Field(c.name),
		KeyFields.Field(result.Values.Len()),
	)
	return result.Values, nil
}

// Reset restores every field to its default, clears all errors, notifies
// reset listeners and returns the controller to Idle.
func (c *Controller) Reset() {
	c.registry.reset()

	c.mu.Lock()
	c.errors = nil
	c.state = StateIdle
	c.mu.Unlock()

	c.observer.ObserveReset(c.name)
	capitan.Emit(context.Background(), FormReset, KeyForm.Field(c.name))
	c.events.dispatch(Event{Kind: EventReset, Form: c.name})
}

// AddEventListener subscribes fn to kind. Listeners run in subscription order.
func (c *Controller) AddEventListener(kind EventKind, fn Listener) ListenerID {
	if fn == nil {
		return 0
	}
	return c.events.add(kind, fn)
}

// RemoveEventListener cancels a subscription. A dispatch already in progress
// still reaches the removed listener.
func (c *Controller) RemoveEventListener(kind EventKind, id ListenerID) bool {
	return c.events.remove(kind, id)
}

// SetFieldsValue is an alias of SetValues.
//
// Deprecated: use SetValues.
func (c *Controller) SetFieldsValue(ctx context.Context, partial map[string]any) error {
	return c.SetValues(ctx, partial)
}

// GetFieldsValue is an alias of Values.
//
// Deprecated: use Values.
func (c *Controller) GetFieldsValue() Values { return c.Values() }

// ValidateFields is an alias of Validate.
//
// Deprecated: use Validate.
func (c *Controller) ValidateFields(ctx context.Context) (Values, error) {
	return c.Validate(ctx)
}

func (c *Controller) settle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateValidating {
		c.state = StateIdle
	}
}

func withoutField(list ErrorList, name string) ErrorList {
	if len(list) == 0 {
		return nil
	}
	out := make(ErrorList, 0, len(list))
	for _, failure := range list {
		if failure.Field != name {
			out = append(out, failure)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mergeFieldFailure replaces name's failures with failure, keeping the list
// ordered by registration. Unknown (form-level) entries stay at the end.
func mergeFieldFailure(list ErrorList, order []string, name string, failure *RuleFailure) ErrorList {
	list = withoutField(list, name)
	if failure == nil {
		return list
	}

	rank := make(map[string]int, len(order))
	for i, field := range order {
		rank[field] = i
	}
	position := func(field string) int {
		if i, ok := rank[field]; ok {
			return i
		}
		return len(order)
	}

	target := position(name)
	out := make(ErrorList, 0, len(list)+1)
	inserted := false
	for _, existing := range list {
		if !inserted && position(existing.Field) > target {
			out = append(out, *failure)
			inserted = true
		}
		out = append(out, existing)
	}
	if !inserted {
		out = append(out, *failure)
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = deepCopy(value)
	}
	return out
}
