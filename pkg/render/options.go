package render

// RenderOptions carry per-request data layered over the live form state.
type RenderOptions struct {
	// Method overrides the method parsed from the form action.
	Method string
	// Values replace the controller values for display only.
	Values map[string]any
	// Errors replace field messages; keys are field names, "" is form-level.
	Errors map[string][]string
	// Hidden inputs emitted before the visible fields.
	Hidden []HiddenField
}
