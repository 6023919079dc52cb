package form

import (
	"fmt"
	"strings"
)

// Trigger controls when a field is validated automatically.
type Trigger string

const (
	// TriggerOnChange validates a field after every value change.
	TriggerOnChange Trigger = "onChange"
	// TriggerOnBlur validates a field when its control loses focus.
	TriggerOnBlur Trigger = "onBlur"
	// TriggerOnSubmit validates only on explicit Validate/Submit calls.
	TriggerOnSubmit Trigger = "onSubmit"
)

// ParseTrigger normalises a trigger name. Empty input yields "" so callers can
// fall back to an inherited policy.
func ParseTrigger(raw string) (Trigger, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "onchange", "change":
		return TriggerOnChange, nil
	case "onblur", "blur":
		return TriggerOnBlur, nil
	case "onsubmit", "submit":
		return TriggerOnSubmit, nil
	default:
		return "", fmt.Errorf("form: unknown validate trigger %q", raw)
	}
}

// ValidateStatus is the validation state of a single field.
type ValidateStatus string

const (
	StatusUnvalidated ValidateStatus = "unvalidated"
	StatusValid       ValidateStatus = "valid"
	StatusInvalid     ValidateStatus = "invalid"
)

// Align positions labels and controls inside a form item.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// ParseAlign normalises an alignment name; empty input yields "".
func ParseAlign(raw string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "left":
		return AlignLeft, nil
	case "center":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	default:
		return "", fmt.Errorf("form: unknown alignment %q", raw)
	}
}

// State is the controller state machine position.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "idle"
	}
}
