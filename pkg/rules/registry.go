package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Canonical rule kinds. Numeric bounds and lengths read Params["value"],
// pattern reads Params["pattern"] and oneOf reads a comma separated
// Params["values"]. Params["exclusive"]="true" makes min/max strict.
const (
	KindRequired  = "required"
	KindEmail     = "email"
	KindMin       = "min"
	KindMax       = "max"
	KindMinLength = "minLength"
	KindMaxLength = "maxLength"
	KindPattern   = "pattern"
	KindOneOf     = "oneOf"
	KindPlainText = "plainText"
)

// Spec is the declarative form of a rule.
type Spec struct {
	Kind    string            `json:"kind" yaml:"kind"`
	Message string            `json:"message,omitempty" yaml:"message,omitempty"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Factory builds a rule from its Spec.
type Factory func(spec Spec) (form.Rule, error)

// Registry stores rule factories by kind.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry preloaded with the built-in kinds.
func Default() *Registry {
	reg := NewRegistry()
	reg.MustRegister(KindRequired, func(spec Spec) (form.Rule, error) {
		return Required(spec.Message), nil
	})
	reg.MustRegister(KindEmail, func(spec Spec) (form.Rule, error) {
		return Email(spec.Message), nil
	})
	reg.MustRegister(KindPlainText, func(spec Spec) (form.Rule, error) {
		return PlainText(spec.Message), nil
	})
	reg.MustRegister(KindMinLength, func(spec Spec) (form.Rule, error) {
		n, err := intParam(spec, "value")
		if err != nil {
			return nil, err
		}
		return MinLength(n, spec.Message), nil
	})
	reg.MustRegister(KindMaxLength, func(spec Spec) (form.Rule, error) {
		n, err := intParam(spec, "value")
		if err != nil {
			return nil, err
		}
		return MaxLength(n, spec.Message), nil
	})
	reg.MustRegister(KindMin, func(spec Spec) (form.Rule, error) {
		bound, err := floatParam(spec, "value")
		if err != nil {
			return nil, err
		}
		return Min(bound, spec.Params["exclusive"] == "true", spec.Message), nil
	})
	reg.MustRegister(KindMax, func(spec Spec) (form.Rule, error) {
		bound, err := floatParam(spec, "value")
		if err != nil {
			return nil, err
		}
		return Max(bound, spec.Params["exclusive"] == "true", spec.Message), nil
	})
	reg.MustRegister(KindPattern, func(spec Spec) (form.Rule, error) {
		expr := spec.Params["pattern"]
		if expr == "" {
			return nil, fmt.Errorf("rules: %s: pattern param is required", spec.Kind)
		}
		return Pattern(expr, spec.Message)
	})
	reg.MustRegister(KindOneOf, func(spec Spec) (form.Rule, error) {
		var values []string
		for _, raw := range strings.Split(spec.Params["values"], ",") {
			if trimmed := strings.TrimSpace(raw); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("rules: %s: values param is required", spec.Kind)
		}
		return OneOf(values, spec.Message), nil
	})
	return reg
}

// Register adds a factory. Duplicate kinds return an error.
func (r *Registry) Register(kind string, factory Factory) error {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return fmt.Errorf("rules: kind is required")
	}
	if factory == nil {
		return fmt.Errorf("rules: factory for %q is required", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("rules: kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(kind string, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err)
	}
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// List returns the registered kinds, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Build turns one spec into a rule.
func (r *Registry) Build(spec Spec) (form.Rule, error) {
	r.mu.RLock()
	factory, ok := r.factories[spec.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rules: kind %q not found", spec.Kind)
	}
	return factory(spec)
}

// BuildAll builds specs in order, stopping at the first error.
func (r *Registry) BuildAll(specs []Spec) ([]form.Rule, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]form.Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := r.Build(spec)
		if err != nil {
			return nil, fmt.Errorf("rules: spec %d: %w", i, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func intParam(spec Spec, key string) (int, error) {
	raw := strings.TrimSpace(spec.Params[key])
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("rules: %s: param %q must be an integer, got %q", spec.Kind, key, raw)
	}
	return n, nil
}

func floatParam(spec Spec, key string) (float64, error) {
	raw := strings.TrimSpace(spec.Params[key])
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("rules: %s: param %q must be a number, got %q", spec.Kind, key, raw)
	}
	return n, nil
}
