// Package bind wires live, direction-aware links between model state
// keys and the properties and signals of external objects, driven by a
// compact grammar string:
//
//	[~]?[property[:signal]]:@ref.key[formatter]
//
// Four levels:
//
//	@vm.volume                     level 1: target's default property and signal
//	text:@vm.username              level 2: one-way model → target
//	text:textChanged:@vm.username  level 3: two-way
//	~text:textChanged:@vm.username level 4: one-way target → model
//
// A trailing formatter ("%", "%.round", "%.round 'Total: %v'") selects
// an optional value filter and a single-placeholder template applied on
// the forward leg.
package bind

import (
	"fmt"
	"sort"
)

// Bindable is the contract an external object must satisfy: a generic
// get/set-property entry point, a declared default bindable property
// and signal for level-1 bindings, and named signals carrying zero or
// one payload value.
type Bindable interface {
	// Property returns the named property's current value.
	Property(name string) (any, error)

	// SetProperty writes the named property. This is the only path the
	// forward leg uses; no type-specific setters are involved.
	SetProperty(name string, value any) error

	// BindableProperty is the property a level-1 binding targets.
	// Empty means the object declares none.
	BindableProperty() string

	// BindableSignal is the signal a level-1 binding listens to.
	// Empty means the object declares none.
	BindableSignal() string

	// Signal returns the named update signal, or an error when the
	// object does not expose it.
	Signal(name string) (*Signal, error)
}

// Signal is a named update channel on a bindable object: a list of
// connected handlers invoked, in connection order, with zero or one
// payload value.
type Signal struct {
	handlers map[int]func(args ...any)
	nextID   int
}

// NewSignal creates an unconnected signal.
func NewSignal() *Signal {
	return &Signal{handlers: make(map[int]func(args ...any))}
}

// Connect adds a handler and returns its connection id.
func (s *Signal) Connect(fn func(args ...any)) int {
	id := s.nextID
	s.nextID++
	s.handlers[id] = fn
	return id
}

// Disconnect removes the handler with the given connection id.
func (s *Signal) Disconnect(id int) {
	delete(s.handlers, id)
}

// DisconnectAll removes every connected handler.
func (s *Signal) DisconnectAll() {
	clear(s.handlers)
}

// Emit invokes every connected handler with the given payload.
func (s *Signal) Emit(args ...any) {
	ids := make([]int, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := s.handlers[id]; ok {
			fn(args...)
		}
	}
}

// Object is a plain in-memory Bindable, used by tests and demos and as
// a base for adapters around real widget toolkits.
type Object struct {
	props         map[string]any
	signals       map[string]*Signal
	defaultProp   string
	defaultSignal string
}

// NewObject creates an Object with the given level-1 defaults; either
// may be empty.
func NewObject(defaultProp, defaultSignal string) *Object {
	o := &Object{
		props:         make(map[string]any),
		signals:       make(map[string]*Signal),
		defaultProp:   defaultProp,
		defaultSignal: defaultSignal,
	}
	if defaultSignal != "" {
		o.DeclareSignal(defaultSignal)
	}
	return o
}

// DeclareSignal adds a named signal to the object, returning it.
// Declaring an existing name returns the existing signal.
func (o *Object) DeclareSignal(name string) *Signal {
	if s, ok := o.signals[name]; ok {
		return s
	}
	s := NewSignal()
	o.signals[name] = s
	return s
}

// Property returns the named property's value (nil when never set).
func (o *Object) Property(name string) (any, error) {
	return o.props[name], nil
}

// SetProperty stores the named property. Programmatic writes do not
// fire signals; only Emit on a declared signal does.
func (o *Object) SetProperty(name string, value any) error {
	o.props[name] = value
	return nil
}

// BindableProperty returns the declared default property.
func (o *Object) BindableProperty() string { return o.defaultProp }

// BindableSignal returns the declared default signal.
func (o *Object) BindableSignal() string { return o.defaultSignal }

// Signal returns the named declared signal.
func (o *Object) Signal(name string) (*Signal, error) {
	s, ok := o.signals[name]
	if !ok {
		return nil, &TargetError{Detail: fmt.Sprintf("object has no signal %q", name)}
	}
	return s, nil
}
