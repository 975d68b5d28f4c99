// Package descriptor describes how a JSON object maps onto a target type:
// constructor parameters, fields, setters, wrapper methods and the aliases
// each of them accepts.
package descriptor

import (
	"fmt"
	"reflect"

	jherrors "github.com/viant/jsonhash/errors"
	"github.com/viant/jsonhash/value"
)

// Category identifies where a decoded value goes.
type Category int

const (
	Parameter Category = iota
	Field
	Setter
	WrapperParameter
)

func (c Category) String() string {
	switch c {
	case Parameter:
		return "parameter"
	case Field:
		return "field"
	case Setter:
		return "setter"
	case WrapperParameter:
		return "wrapper parameter"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Binding is a single target slot fed by one or more JSON keys.
type Binding struct {
	Name     string
	Category Category
	Aliases  []string
	Type     reflect.Type
	// Default is used when the slot is staged and no key targets it.
	Default interface{}
	// Reuse hands the current slot value to the value decoder as merge target.
	Reuse      bool
	TimeLayout string
	Decoder    value.Func
	// Assign writes a decoded value into target (fields and setters).
	Assign func(target interface{}, value interface{}) error
	// Current reads the slot value of target (fields and setters with Reuse).
	Current func(target interface{}) interface{}
}

// Zero returns the binding default or the zero value of its type.
func (b *Binding) Zero() interface{} {
	if b.Default != nil {
		return b.Default
	}
	return value.Zero(b.Type)
}

// Member reports whether the binding writes into an existing instance.
func (b *Binding) Member() bool {
	return b.Category == Field || b.Category == Setter
}

// Mode selects how an instance is created.
type Mode int

const (
	ModeConstructor Mode = iota
	ModeProducer
	ModeFactory
)

// Factory creates instances of a type from positional arguments.
type Factory interface {
	Create(rType reflect.Type, args []interface{}) (interface{}, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(rType reflect.Type, args []interface{}) (interface{}, error)

func (f FactoryFunc) Create(rType reflect.Type, args []interface{}) (interface{}, error) {
	return f(rType, args)
}

// ConstructorDescriptor describes instance creation.
type ConstructorDescriptor struct {
	Mode       Mode
	Parameters []*Binding
	New        func(args []interface{}) (interface{}, error)
	Factory    Factory
}

// Construct creates an instance of rType from args in parameter order.
func (c *ConstructorDescriptor) Construct(rType reflect.Type, args []interface{}) (interface{}, error) {
	if len(args) != len(c.Parameters) {
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", jherrors.ErrArity, len(c.Parameters), len(args))
	}
	if c.Mode == ModeFactory {
		return c.Factory.Create(rType, args)
	}
	return c.New(args)
}

// WrapperBinding is a method invoked after construction with its own decoded parameters.
type WrapperBinding struct {
	Name       string
	Parameters []*Binding
	Invoke     func(target interface{}, args []interface{}) error
}

// ClassDescriptor describes a decode target.
type ClassDescriptor struct {
	Type     reflect.Type
	Name     string
	Ctor     ConstructorDescriptor
	Fields   []*Binding
	Setters  []*Binding
	Wrappers []*WrapperBinding
	// Presence, when set, records decoded members on the instance.
	Presence *Presence

	bindings []*Binding
}

// Bindings returns constructor parameters, fields, setters and wrapper
// parameters, in that order. A binding's position is its slot index.
func (d *ClassDescriptor) Bindings() []*Binding {
	if d.bindings != nil {
		return d.bindings
	}
	var result []*Binding
	result = append(result, d.Ctor.Parameters...)
	result = append(result, d.Fields...)
	result = append(result, d.Setters...)
	for _, wrapper := range d.Wrappers {
		result = append(result, wrapper.Parameters...)
	}
	return result
}

// Live reports whether instances can be created before the first key is read.
func (d *ClassDescriptor) Live() bool {
	return len(d.Ctor.Parameters) == 0
}

// Seal freezes the binding order; descriptors are immutable afterwards.
func (d *ClassDescriptor) Seal() {
	d.bindings = nil
	d.bindings = d.Bindings()
}

func (d *ClassDescriptor) String() string {
	if d.Name != "" {
		return d.Name
	}
	if d.Type != nil {
		return d.Type.String()
	}
	return "<anonymous>"
}
