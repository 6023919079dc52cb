package form

import (
	"strings"
	"sync"
)

// ChangeHook receives the changed entries and the full snapshot after a
// SetValue call. It runs synchronously on the caller's goroutine, outside the
// registry lock.
type ChangeHook func(changed, all Values)

// FieldOption tunes a single registration.
type FieldOption func(*fieldConfig)

type fieldConfig struct {
	initial    any
	def        any
	hasDefault bool
	override   bool
	disabled   *bool
	trigger    Trigger
}

// WithOverride replaces the stored value (and default) when the name is
// already registered. Without it, re-registration preserves the value.
func WithOverride() FieldOption {
	return func(cfg *fieldConfig) {
		cfg.override = true
	}
}

// WithInitialValue sets the value a new field starts with.
func WithInitialValue(value any) FieldOption {
	return func(cfg *fieldConfig) {
		cfg.initial = value
	}
}

// WithDefault sets the value Reset restores. Defaults to the initial value.
func WithDefault(value any) FieldOption {
	return func(cfg *fieldConfig) {
		cfg.def = value
		cfg.hasDefault = true
	}
}

// WithFieldDisabled overrides the form-wide disabled flag for one field.
func WithFieldDisabled(disabled bool) FieldOption {
	return func(cfg *fieldConfig) {
		cfg.disabled = &disabled
	}
}

// WithFieldTrigger overrides the form-wide validate trigger for one field.
func WithFieldTrigger(trigger Trigger) FieldOption {
	return func(cfg *fieldConfig) {
		cfg.trigger = trigger
	}
}

// FieldState is a read-only view of one registered field.
type FieldState struct {
	Name     string
	Value    any
	Default  any
	Status   ValidateStatus
	Message  string
	Disabled *bool
	Trigger  Trigger
	Rules    int
}

type fieldEntry struct {
	name     string
	value    any
	def      any
	status   ValidateStatus
	message  string
	disabled *bool
	trigger  Trigger
	rules    []Rule
}

func (e *fieldEntry) state() FieldState {
	return FieldState{
		Name:     e.name,
		Value:    deepCopy(e.value),
		Default:  deepCopy(e.def),
		Status:   e.status,
		Message:  e.message,
		Disabled: e.disabled,
		Trigger:  e.trigger,
		Rules:    len(e.rules),
	}
}

// Registry maps field names to their value, status and rules for one form
// instance. Registration order is retained and drives value and error order.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	fields map[string]*fieldEntry
	hook   ChangeHook
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fields: make(map[string]*fieldEntry),
	}
}

// OnChange installs the hook notified after every SetValue.
func (r *Registry) OnChange(hook ChangeHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = hook
}

// Register adds a field or replaces an existing registration. Replacing keeps
// the current value and default unless WithOverride is supplied; rules and
// the disabled/trigger overrides always take the latest registration.
func (r *Registry) Register(name string, initial any, rules []Rule, opts ...FieldOption) (*FieldHandle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	cfg := fieldConfig{initial: initial}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	def := cfg.initial
	if cfg.hasDefault {
		def = cfg.def
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.fields[name]
	if !exists {
		entry = &fieldEntry{
			name:   name,
			value:  deepCopy(cfg.initial),
			def:    deepCopy(def),
			status: StatusUnvalidated,
		}
		r.fields[name] = entry
		r.order = append(r.order, name)
	} else if cfg.override {
		entry.value = deepCopy(cfg.initial)
		entry.def = deepCopy(def)
		entry.status = StatusUnvalidated
		entry.message = ""
	}
	entry.rules = append([]Rule(nil), rules...)
	entry.disabled = cfg.disabled
	entry.trigger = cfg.trigger

	return &FieldHandle{registry: r, name: name}, nil
}

// Unregister removes a field; later reads and validations ignore it.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fields[name]; !ok {
		return false
	}
	delete(r.fields, name)
	for i, existing := range r.order {
		if existing == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.fields[name]
	return ok
}

// Len reports the number of registered fields.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// SetValue stores value for name and notifies the change hook.
func (r *Registry) SetValue(name string, value any) error {
	r.mu.Lock()
	entry, ok := r.fields[name]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownField
	}
	entry.value = deepCopy(value)
	changed := NewValues([]string{name}, map[string]any{name: entry.value})
	all := r.valuesLocked()
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		hook(changed, all)
	}
	return nil
}

// Value returns a copy of the current value for name.
func (r *Registry) Value(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.fields[name]
	if !ok {
		return nil, false
	}
	return deepCopy(entry.value), true
}

// Values returns an immutable snapshot of every registered field.
func (r *Registry) Values() Values {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.valuesLocked()
}

// Field returns the read-only state of name.
func (r *Registry) Field(name string) (FieldState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.fields[name]
	if !ok {
		return FieldState{}, false
	}
	return entry.state(), true
}

// Fields returns every field state in registration order.
func (r *Registry) Fields() []FieldState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FieldState, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.fields[name].state())
	}
	return out
}

func (r *Registry) valuesLocked() Values {
	values := make(map[string]any, len(r.order))
	for _, name := range r.order {
		values[name] = r.fields[name].value
	}
	return NewValues(r.order, values)
}

type fieldSnapshot struct {
	index    int
	name     string
	value    any
	disabled *bool
	trigger  Trigger
	rules    []Rule
}

func (r *Registry) snapshot(name string) (fieldSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.fields[name]
	if !ok {
		return fieldSnapshot{}, false
	}
	index := 0
	for i, existing := range r.order {
		if existing == name {
			index = i
			break
		}
	}
	return snapshotOf(index, entry), true
}

func (r *Registry) snapshots() []fieldSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]fieldSnapshot, 0, len(r.order))
	for i, name := range r.order {
		out = append(out, snapshotOf(i, r.fields[name]))
	}
	return out
}

func snapshotOf(index int, entry *fieldEntry) fieldSnapshot {
	return fieldSnapshot{
		index:    index,
		name:     entry.name,
		value:    deepCopy(entry.value),
		disabled: entry.disabled,
		trigger:  entry.trigger,
		rules:    entry.rules,
	}
}

func (r *Registry) setStatus(name string, status ValidateStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.fields[name]; ok {
		entry.status = status
		entry.message = message
	}
}

// applyFailures marks listed fields invalid and clears stale invalid marks on
// the rest.
func (r *Registry) applyFailures(list ErrorList) {
	first := make(map[string]string, len(list))
	for _, failure := range list {
		if _, ok := first[failure.Field]; !ok {
			first[failure.Field] = failure.Message
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		entry := r.fields[name]
		if message, ok := first[name]; ok {
			entry.status = StatusInvalid
			entry.message = message
			continue
		}
		if entry.status == StatusInvalid {
			entry.status = StatusUnvalidated
			entry.message = ""
		}
	}
}

// reset restores every field to its default and clears statuses.
func (r *Registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.fields {
		entry.value = deepCopy(entry.def)
		entry.status = StatusUnvalidated
		entry.message = ""
	}
}

// FieldHandle is returned by Register and addresses one field.
type FieldHandle struct {
	registry *Registry
	name     string
}

// Name returns the field name.
func (h *FieldHandle) Name() string { return h.name }

// Value returns the field's current value.
func (h *FieldHandle) Value() (any, bool) { return h.registry.Value(h.name) }

// State returns the field's read-only state.
func (h *FieldHandle) State() (FieldState, bool) { return h.registry.Field(h.name) }

// Unregister removes the field from its registry.
func (h *FieldHandle) Unregister() bool { return h.registry.Unregister(h.name) }
