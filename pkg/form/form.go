package form

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zoobzio/capitan"
)

// SubmitEvent is the host's native submit event. HandleSubmit fills
// Detail.Value with the validated snapshot before forwarding it.
type SubmitEvent struct {
	Type   string
	Detail SubmitDetail
}

// SubmitDetail carries the submitted values and any host extras.
type SubmitDetail struct {
	FormID string
	Value  Values
	Extra  map[string]any
}

// Handle is the imperative interface a host holds for a form instance. Reset
// goes through the form's scheduler like a native reset event.
type Handle interface {
	Submit(ctx context.Context)
	Reset()
	Validate(ctx context.Context) (Values, error)
	Values() Values
	SetValues(ctx context.Context, partial map[string]any) error
	Errors() ErrorList
	SetErrors(list ErrorList)

	// Deprecated: use SetValues.
	SetFieldsValue(ctx context.Context, partial map[string]any) error
	// Deprecated: use Values.
	GetFieldsValue() Values
	// Deprecated: use Validate.
	ValidateFields(ctx context.Context) (Values, error)
}

// Option configures a Form.
type Option func(*options)

type options struct {
	config     Config
	controller []ControllerOption
	scheduler  Scheduler
	logger     zerolog.Logger
	observer   Observer
	onSubmit   func(SubmitEvent)
	onValidate func(ErrorList)
}

// WithName sets the instance name. Names must be unique among forms sharing
// a host; a "t_<uuid>" name is generated when none is given.
func WithName(name string) Option {
	return func(o *options) {
		o.config.Name = name
	}
}

// WithColon toggles the label colon flag passed to controls.
func WithColon(colon bool) Option {
	return func(o *options) {
		o.config.Colon = colon
	}
}

// WithLabelAlign sets the inherited label alignment.
func WithLabelAlign(align Align) Option {
	return func(o *options) {
		o.config.LabelAlign = align
	}
}

// WithControlAlign sets the inherited control alignment.
func WithControlAlign(align Align) Option {
	return func(o *options) {
		o.config.ControlAlign = align
	}
}

// WithValidateTrigger sets the form-wide trigger policy.
func WithValidateTrigger(trigger Trigger) Option {
	return func(o *options) {
		o.config.ValidateTrigger = trigger
	}
}

// WithDisabled disables every control without its own override.
func WithDisabled(disabled bool) Option {
	return func(o *options) {
		o.config.Disabled = disabled
	}
}

// WithControllerOptions forwards options to the underlying Controller.
func WithControllerOptions(opts ...ControllerOption) Option {
	return func(o *options) {
		o.controller = append(o.controller, opts...)
	}
}

// WithScheduler replaces the Queue used to defer native resets.
func WithScheduler(scheduler Scheduler) Option {
	return func(o *options) {
		if scheduler != nil {
			o.scheduler = scheduler
		}
	}
}

// WithFormLogger sets the logger shared by the form and its controller.
func WithFormLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFormObserver sets the observer shared by the form and its controller.
func WithFormObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// OnSubmit sets the handler receiving successful submits.
func OnSubmit(fn func(SubmitEvent)) Option {
	return func(o *options) {
		o.onSubmit = fn
	}
}

// OnValidate sets the handler receiving failed submits.
func OnValidate(fn func(ErrorList)) Option {
	return func(o *options) {
		o.onValidate = fn
	}
}

// Immediate runs deferred work inline.
var Immediate Scheduler = immediate{}

// Form is the root of a form instance: it owns the Controller, shares Config
// with its controls and wires native submit and reset events.
type Form struct {
	config     Config
	ctrl       *Controller
	scheduler  Scheduler
	logger     zerolog.Logger
	observer   Observer
	onSubmit   func(SubmitEvent)
	onValidate func(ErrorList)
}

// New builds a Form.
func New(opts ...Option) *Form {
	o := options{
		config:   Config{ValidateTrigger: TriggerOnBlur},
		logger:   zerolog.Nop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.config.Name == "" {
		o.config.Name = "t_" + uuid.NewString()
	}
	if o.scheduler == nil {
		o.scheduler = NewQueue()
	}

	ctrlOpts := []ControllerOption{
		WithTrigger(o.config.ValidateTrigger),
		WithFormDisabled(o.config.Disabled),
		WithLogger(o.logger),
		WithObserver(o.observer),
	}
	ctrlOpts = append(ctrlOpts, o.controller...)

	return &Form{
		config:     o.config,
		ctrl:       NewController(o.config.Name, ctrlOpts...),
		scheduler:  o.scheduler,
		logger:     o.logger.With().Str("form", o.config.Name).Logger(),
		observer:   o.observer,
		onSubmit:   o.onSubmit,
		onValidate: o.onValidate,
	}
}

// Name returns the instance name.
func (f *Form) Name() string { return f.config.Name }

// Config returns the read-only policy shared with controls.
func (f *Form) Config() Config { return f.config }

// Controller returns the form controller.
func (f *Form) Controller() *Controller { return f.ctrl }

// Control mounts a control bound to this form.
func (f *Form) Control(props ControlProps) (*Control, error) {
	return NewControl(f.ctrl, f.config, props)
}

// HandleSubmit validates the form and delivers the outcome to OnSubmit or
// OnValidate. Failures, including context cancellation, always arrive
// through OnValidate.
func (f *Form) HandleSubmit(ctx context.Context, evt SubmitEvent) {
	defer f.ctrl.settle()

	values, err := f.ctrl.Validate(ctx)
	if err != nil {
		list, ok := AsErrorList(err)
		if !ok {
			f.logger.Warn().Err(err).Msg("submit validation aborted")
			list = ErrorList{{Message: err.Error(), Rule: ruleForError(err)}}
		}
		f.observer.ObserveSubmit(f.config.Name, false)
		if f.onValidate != nil {
			f.onValidate(list)
		}
		return
	}

	if evt.Type == "" {
		evt.Type = "submit"
	}
	if evt.Detail.FormID == "" {
		evt.Detail.FormID = f.config.Name
	}
	evt.Detail.Value = values

	f.observer.ObserveSubmit(f.config.Name, true)
	capitan.Emit(ctx, FormSubmitted,
		KeyForm.Field(f.config.Name),
		KeyFields.Field(values.Len()),
	)
	f.logger.Debug().Int("fields", values.Len()).Msg("form submitted")
	if f.onSubmit != nil {
		f.onSubmit(evt)
	}
}

// HandleReset schedules a reset behind work already queued in the current
// batch, so a blur validation issued alongside it completes first.
func (f *Form) HandleReset() {
	f.scheduler.Defer(f.ctrl.Reset)
}

// Flush drains the form's Queue. It is a no-op for other schedulers.
func (f *Form) Flush() int {
	if queue, ok := f.scheduler.(*Queue); ok {
		return queue.Flush()
	}
	return 0
}

// Handle returns the imperative handle bound to this form.
func (f *Form) Handle() Handle { return formHandle{form: f} }

func ruleForError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	default:
		return "error"
	}
}

type formHandle struct {
	form *Form
}

func (h formHandle) Submit(ctx context.Context) {
	h.form.HandleSubmit(ctx, SubmitEvent{Type: "submit"})
}

func (h formHandle) Reset() { h.form.HandleReset() }

func (h formHandle) Validate(ctx context.Context) (Values, error) {
	return h.form.ctrl.Validate(ctx)
}

func (h formHandle) Values() Values { return h.form.ctrl.Values() }

func (h formHandle) SetValues(ctx context.Context, partial map[string]any) error {
	return h.form.ctrl.SetValues(ctx, partial)
}

func (h formHandle) Errors() ErrorList { return h.form.ctrl.Errors() }

func (h formHandle) SetErrors(list ErrorList) { h.form.ctrl.SetErrors(list) }

func (h formHandle) SetFieldsValue(ctx context.Context, partial map[string]any) error {
	return h.form.ctrl.SetValues(ctx, partial)
}

func (h formHandle) GetFieldsValue() Values { return h.form.ctrl.Values() }

func (h formHandle) ValidateFields(ctx context.Context) (Values, error) {
	return h.form.ctrl.Validate(ctx)
}
