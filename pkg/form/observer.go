package form

import "time"

// ValidationScope distinguishes field and whole-form validations.
type ValidationScope string

const (
	ScopeField ValidationScope = "field"
	ScopeForm  ValidationScope = "form"
)

// Observer receives lifecycle measurements. Implementations must be cheap and
// must not call back into the controller.
type Observer interface {
	ObserveValidation(form string, scope ValidationScope, duration time.Duration, failures int)
	ObserveSubmit(form string, ok bool)
	ObserveReset(form string)
}

type nopObserver struct{}

func (nopObserver) ObserveValidation(string, ValidationScope, time.Duration, int) {}
func (nopObserver) ObserveSubmit(string, bool)                                   {}
func (nopObserver) ObserveReset(string)                                          {}
