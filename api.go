// Package jsonhash decodes JSON objects into Go values through per-type plans
// that dispatch object keys by their FNV-1a hash.
//
// A plan is generated once per type and cached in a Registry. When two aliases
// of a type share a hash, or an alias hashes to zero, the type falls back to a
// plan comparing key text. Hash plans do not verify key text: an unknown key
// whose hash equals an alias hash is decoded as that alias.
package jsonhash

import (
	"context"
	"fmt"
	"reflect"

	"github.com/viant/jsonhash/plan"
	"github.com/viant/jsonhash/reader"
)

// Unmarshal decodes data into dest, a non-nil *T or **T for a struct type T.
// JSON null leaves a *T destination untouched and sets a **T destination to nil.
func Unmarshal(data []byte, dest interface{}, opts ...Option) error {
	options := resolveOptions(nil, opts)
	return unmarshal(&options, data, dest)
}

// UnmarshalContext is Unmarshal honoring ctx cancellation before decoding.
func UnmarshalContext(ctx context.Context, data []byte, dest interface{}, opts ...Option) error {
	options := resolveOptions(ctx, opts)
	if err := options.Ctx.Err(); err != nil {
		return err
	}
	return unmarshal(&options, data, dest)
}

func unmarshal(options *Options, data []byte, dest interface{}) error {
	if dest == nil {
		return ErrNilDestination
	}
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		return fmt.Errorf("%w: %T", ErrNotPointer, dest)
	}
	if destValue.IsNil() {
		return fmt.Errorf("%w: %T", ErrNilDestination, dest)
	}
	target := destValue.Elem()
	planType := target.Type()
	existing := dest
	if target.Kind() == reflect.Ptr {
		planType = planType.Elem()
		existing = nil
		if !target.IsNil() {
			existing = target.Interface()
		}
	}
	p, err := options.registry().lookup(planType, options.PlanListener)
	if err != nil {
		return err
	}
	r := options.newReader(data)
	if options.Reuse {
		r.SetExisting(existing)
	}
	v, err := decode(p, r)
	if err != nil {
		return err
	}
	return assign(target, v)
}

func decode(p plan.Plan, r *reader.Reader) (interface{}, error) {
	v, err := p.Decode(r)
	if err != nil {
		return nil, err
	}
	if err = r.End(); err != nil {
		return nil, err
	}
	return v, nil
}

// assign stores a decoded *T into target, which is a T or a *T.
func assign(target reflect.Value, v interface{}) error {
	if target.Kind() == reflect.Ptr {
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		source := reflect.ValueOf(v)
		if !source.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, target.Type())
		}
		target.Set(source)
		return nil
	}
	if v == nil {
		return nil
	}
	source := reflect.ValueOf(v)
	if source.Kind() == reflect.Ptr {
		if source.Pointer() == target.Addr().Pointer() {
			return nil
		}
		source = source.Elem()
	}
	if !source.Type().AssignableTo(target.Type()) {
		return fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, target.Type())
	}
	target.Set(source)
	return nil
}

// Decode decodes data into a new *T; JSON null yields nil.
func Decode[T any](data []byte, opts ...Option) (*T, error) {
	options := resolveOptions(nil, opts)
	p, err := options.registry().lookup(reflect.TypeOf((*T)(nil)).Elem(), options.PlanListener)
	if err != nil {
		return nil, err
	}
	v, err := decode(p, options.newReader(data))
	if err != nil {
		return nil, err
	}
	return typed[T](v)
}

func typed[T any](v interface{}) (*T, error) {
	switch actual := v.(type) {
	case nil:
		return nil, nil
	case *T:
		return actual, nil
	}
	return nil, fmt.Errorf("%w: %T is not %T", ErrTypeMismatch, v, (*T)(nil))
}

// Decoder decodes a stream of documents of one type.
// With WithReuse each decode merges into the previous non-nil result.
// A Decoder is not safe for concurrent use.
type Decoder[T any] struct {
	plan   plan.Plan
	reader *reader.Reader
	reuse  bool
	last   *T
}

// NewDecoder generates (or loads) the plan of T.
func NewDecoder[T any](opts ...Option) (*Decoder[T], error) {
	options := resolveOptions(nil, opts)
	p, err := options.registry().lookup(reflect.TypeOf((*T)(nil)).Elem(), options.PlanListener)
	if err != nil {
		return nil, err
	}
	return &Decoder[T]{plan: p, reader: options.newReader(nil), reuse: options.Reuse}, nil
}

// Plan returns the decode plan.
func (d *Decoder[T]) Plan() plan.Plan { return d.plan }

// Decode decodes one document.
func (d *Decoder[T]) Decode(data []byte) (*T, error) {
	d.reader.Reset(data)
	d.reader.ResetExisting()
	if d.reuse && d.last != nil {
		d.reader.SetExisting(d.last)
	}
	v, err := decode(d.plan, d.reader)
	if err != nil {
		return nil, err
	}
	result, err := typed[T](v)
	if err != nil {
		return nil, err
	}
	if result != nil {
		d.last = result
	}
	return result, nil
}
