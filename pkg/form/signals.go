package form

import "github.com/zoobzio/capitan"

// Form lifecycle signals.
var (
	// FormValidated is emitted when a whole-form validation passes.
	FormValidated = capitan.NewSignal(
		"formstate.form.validated",
		"Form validation passed",
	)

	// FormValidationFailed is emitted when a whole-form validation fails.
	FormValidationFailed = capitan.NewSignal(
		"formstate.form.validation.failed",
		"Form validation failed",
	)

	// FormReset is emitted after a form is restored to its defaults.
	FormReset = capitan.NewSignal(
		"formstate.form.reset",
		"Form reset to defaults",
	)

	// FormSubmitted is emitted after a submit delivered values to the host.
	FormSubmitted = capitan.NewSignal(
		"formstate.form.submitted",
		"Form submitted",
	)
)

// Field keys for form signals.
var (
	// KeyForm is the form instance name.
	KeyForm = capitan.NewStringKey("form")

	// KeyFailures is the number of failing fields.
	KeyFailures = capitan.NewIntKey("failures")

	// KeyFields is the number of registered fields.
	KeyFields = capitan.NewIntKey("fields")
)
