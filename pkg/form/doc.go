// Package form implements the state and validation layer shared by every form
// host in this module. A Form owns a Controller; the Controller owns the field
// Registry and the validation Engine; Controls bind input-like elements to
// the Controller using the read-only Config threaded down from the Form.
//
// Data flows one way: Control → Controller (writes) → Registry (storage) →
// Engine (reads on validate) → Controller (aggregates errors) → Form
// (submit/validate callbacks) → host application.
//
// Everything that changes registry state runs on the caller's goroutine. The
// Engine may evaluate rules of different fields on separate goroutines, but
// statuses are written back only after every rule has settled.
package form
