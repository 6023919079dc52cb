package form

// Config is the read-only policy a Form shares with its controls. It is
// recreated whenever the form options change and never carries mutable state;
// the Registry owned by the Controller is the only shared mutable store.
type Config struct {
	Name            string
	Colon           bool
	LabelAlign      Align
	ControlAlign    Align
	ValidateTrigger Trigger
	Disabled        bool
}

// Trigger returns the effective trigger for a field override.
func (c Config) Trigger(override Trigger) Trigger {
	if override != "" {
		return override
	}
	if c.ValidateTrigger != "" {
		return c.ValidateTrigger
	}
	return TriggerOnBlur
}

// Align returns the effective control alignment for an override.
func (c Config) Align(override Align) Align {
	if override != "" {
		return override
	}
	return c.ControlAlign
}

// IsDisabled resolves a per-field disabled override against the form flag.
func (c Config) IsDisabled(override *bool) bool {
	if override != nil {
		return *override
	}
	return c.Disabled
}
