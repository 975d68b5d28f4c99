package descriptor

import (
	"fmt"
	"reflect"

	jherrors "github.com/viant/jsonhash/errors"
	"github.com/viant/jsonhash/value"
)

// BindingOption customises a binding.
type BindingOption func(b *Binding)

// WithAliases replaces the default alias (the binding name).
func WithAliases(aliases ...string) BindingOption {
	return func(b *Binding) { b.Aliases = append([]string{}, aliases...) }
}

// WithExtraAliases keeps the binding name and accepts aliases too.
func WithExtraAliases(aliases ...string) BindingOption {
	return func(b *Binding) { b.Aliases = append(b.Aliases, aliases...) }
}

// WithDefault sets the staged default value.
func WithDefault(v interface{}) BindingOption {
	return func(b *Binding) { b.Default = v }
}

// WithReuse hands the value returned by current to the value decoder.
func WithReuse(current func(target interface{}) interface{}) BindingOption {
	return func(b *Binding) {
		b.Reuse = true
		b.Current = current
	}
}

// WithDecoder sets an explicit value decoder.
func WithDecoder(fn value.Func) BindingOption {
	return func(b *Binding) { b.Decoder = fn }
}

// WithTimeLayout sets the time layout used by the default decoder.
func WithTimeLayout(layout string) BindingOption {
	return func(b *Binding) { b.TimeLayout = layout }
}

// NewBinding creates a binding accepting its own name unless aliases are given.
func NewBinding(name string, category Category, rType reflect.Type, opts ...BindingOption) *Binding {
	b := &Binding{Name: name, Category: category, Type: rType, Aliases: []string{name}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Builder assembles a ClassDescriptor by hand.
//
//	desc, err := descriptor.NewBuilder(reflect.TypeOf(Point{})).
//		Constructor(func(args []interface{}) (interface{}, error) { return &Point{}, nil }).
//		Field("x", reflect.TypeOf(0), assignX).
//		Build()
type Builder struct {
	desc *ClassDescriptor
	err  error
}

// NewBuilder starts a descriptor for rType.
func NewBuilder(rType reflect.Type) *Builder {
	return &Builder{desc: &ClassDescriptor{Type: rType}}
}

// Name overrides the descriptor name used in errors.
func (b *Builder) Name(name string) *Builder {
	b.desc.Name = name
	return b
}

// Constructor sets a constructor called with the parameter values.
func (b *Builder) Constructor(fn func(args []interface{}) (interface{}, error)) *Builder {
	b.desc.Ctor.Mode = ModeConstructor
	b.desc.Ctor.New = fn
	return b
}

// Producer sets a static producer function called with the parameter values.
func (b *Builder) Producer(fn func(args []interface{}) (interface{}, error)) *Builder {
	b.desc.Ctor.Mode = ModeProducer
	b.desc.Ctor.New = fn
	return b
}

// Factory delegates instance creation to factory.
func (b *Builder) Factory(factory Factory) *Builder {
	b.desc.Ctor.Mode = ModeFactory
	b.desc.Ctor.Factory = factory
	return b
}

// Parameter adds a constructor parameter.
func (b *Builder) Parameter(name string, rType reflect.Type, opts ...BindingOption) *Builder {
	b.desc.Ctor.Parameters = append(b.desc.Ctor.Parameters, NewBinding(name, Parameter, rType, opts...))
	return b
}

// Field adds a field binding.
func (b *Builder) Field(name string, rType reflect.Type, assign func(target, value interface{}) error, opts ...BindingOption) *Builder {
	binding := NewBinding(name, Field, rType, opts...)
	binding.Assign = assign
	b.desc.Fields = append(b.desc.Fields, binding)
	return b
}

// Setter adds a setter binding.
func (b *Builder) Setter(name string, rType reflect.Type, assign func(target, value interface{}) error, opts ...BindingOption) *Builder {
	binding := NewBinding(name, Setter, rType, opts...)
	binding.Assign = assign
	b.desc.Setters = append(b.desc.Setters, binding)
	return b
}

// Wrapper adds a wrapper method; params must be created with Param.
func (b *Builder) Wrapper(name string, invoke func(target interface{}, args []interface{}) error, params ...*Binding) *Builder {
	for _, param := range params {
		if param.Category != WrapperParameter {
			b.fail(fmt.Errorf("%w: wrapper %v parameter %v is a %v", jherrors.ErrInvalidDescriptor, name, param.Name, param.Category))
		}
	}
	b.desc.Wrappers = append(b.desc.Wrappers, &WrapperBinding{Name: name, Parameters: params, Invoke: invoke})
	return b
}

// Param creates a wrapper parameter binding.
func Param(name string, rType reflect.Type, opts ...BindingOption) *Binding {
	return NewBinding(name, WrapperParameter, rType, opts...)
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates and returns the descriptor.
func (b *Builder) Build() (*ClassDescriptor, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := Validate(b.desc); err != nil {
		return nil, err
	}
	b.desc.Seal()
	return b.desc, nil
}
