package form

import (
	"context"
	"strings"
)

// ClassPrefix prefixes the class names composed for form controls.
const ClassPrefix = "formstate"

// Slot tags the role an element plays inside a form item.
type Slot int

const (
	SlotOther Slot = iota
	SlotControl
	SlotTitle
	SlotItem
)

// Element is a host view node. Only SlotControl elements that also implement
// Binder are bound to a field; everything else is passed through untouched.
type Element interface {
	Slot() Slot
}

// Binder is implemented by control-capable elements.
type Binder interface {
	Element
	Bind(state ControlState) Element
}

// ControlState is what a bound control sees of its field.
type ControlState struct {
	Name           string
	Value          any
	ValidateStatus ValidateStatus
	Message        string
	Disabled       bool
	Align          Align
	ClassNames     []string
	OnChange       func(ctx context.Context, value any) error
	OnBlur         func(ctx context.Context) error
}

// ClassName joins ClassNames with spaces.
func (s ControlState) ClassName() string {
	return strings.Join(s.ClassNames, " ")
}

// ControlProps configures a Control.
type ControlProps struct {
	Name      string
	Value     any
	Disabled  *bool
	Align     Align
	Trigger   Trigger
	Rules     []Rule
	ClassName string
	// Child is bound when it is control-capable. Defaults to Input{}.
	Child Element
	// Render replaces Child binding with a custom builder.
	Render func(state ControlState) Element
}

// Input is the default control element.
type Input struct {
	State ControlState
}

func (Input) Slot() Slot { return SlotControl }

// Bind returns a copy of the input carrying state.
func (in Input) Bind(state ControlState) Element {
	in.State = state
	return in
}

// Control binds one child element to a field of a Controller. A Control
// without a controller or a name is unbound: it renders but never writes.
type Control struct {
	ctrl   *Controller
	config Config
	props  ControlProps
	handle *FieldHandle
}

// NewControl mounts a control, registering its field on ctrl when the
// control is bound.
func NewControl(ctrl *Controller, config Config, props ControlProps) (*Control, error) {
	if props.Child == nil {
		props.Child = Input{}
	}
	c := &Control{ctrl: ctrl, config: config, props: props}
	if !c.bound() {
		return c, nil
	}

	opts := []FieldOption{WithFieldTrigger(props.Trigger)}
	if props.Disabled != nil {
		opts = append(opts, WithFieldDisabled(*props.Disabled))
	}
	if props.Value != nil {
		opts = append(opts, WithInitialValue(props.Value))
	}
	handle, err := ctrl.Register(props.Name, props.Rules, opts...)
	if err != nil {
		return nil, err
	}
	c.handle = handle
	return c, nil
}

func (c *Control) bound() bool {
	return c.ctrl != nil && strings.TrimSpace(c.props.Name) != ""
}

// Name returns the bound field name.
func (c *Control) Name() string { return c.props.Name }

// Unmount removes the field from the registry.
func (c *Control) Unmount() bool {
	if c.handle == nil {
		return false
	}
	ok := c.ctrl.Unregister(c.handle.Name())
	c.handle = nil
	return ok
}

// Change writes value through the controller. The controller validates the
// field when its effective trigger is onChange.
func (c *Control) Change(ctx context.Context, value any) error {
	if c.handle == nil {
		return nil
	}
	return c.ctrl.SetValue(ctx, c.handle.Name(), value)
}

// Blur validates the field when its effective trigger is onBlur.
func (c *Control) Blur(ctx context.Context) error {
	if c.handle == nil {
		return nil
	}
	name := c.handle.Name()
	if c.ctrl.EffectiveTrigger(name) != TriggerOnBlur {
		return nil
	}
	field, ok := c.ctrl.Registry().Field(name)
	if !ok || field.Rules == 0 {
		return nil
	}
	_, err := c.ctrl.ValidateField(ctx, name)
	return err
}

// State reports the current field view. Unbound controls expose no value.
func (c *Control) State() ControlState {
	state := ControlState{
		Name:           c.props.Name,
		ValidateStatus: StatusUnvalidated,
		Disabled:       c.config.IsDisabled(c.props.Disabled),
		Align:          c.config.Align(c.props.Align),
		OnChange:       c.Change,
		OnBlur:         c.Blur,
	}
	state.ClassNames = c.Classes()
	if c.handle == nil {
		return state
	}
	if field, ok := c.handle.State(); ok {
		state.Value = field.Value
		state.ValidateStatus = field.Status
		state.Message = field.Message
	}
	return state
}

// Classes composes the control class list for the effective alignment.
func (c *Control) Classes() []string {
	classes := []string{ClassPrefix + "-form-control"}
	if align := c.config.Align(c.props.Align); align != "" {
		classes = append(classes, ClassPrefix+"-form-control--"+string(align))
	}
	if extra := strings.TrimSpace(c.props.ClassName); extra != "" {
		classes = append(classes, strings.Fields(extra)...)
	}
	return classes
}

// Build produces the child element: the render-prop result when Render is
// set, the bound child when it is control-capable, or the child unchanged.
func (c *Control) Build() Element {
	state := c.State()
	if c.props.Render != nil {
		return c.props.Render(state)
	}
	child := c.props.Child
	if child.Slot() != SlotControl {
		return child
	}
	binder, ok := child.(Binder)
	if !ok {
		return child
	}
	return binder.Bind(state)
}
