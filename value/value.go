// Package value builds slot decoders: functions reading one JSON value of a given Go type.
package value

import (
	"encoding"
	"encoding/base64"
	stdjson "encoding/json"
	"fmt"
	"reflect"
	"time"

	jherrors "github.com/viant/jsonhash/errors"
	"github.com/viant/jsonhash/reader"
)

// Func reads one value from r and returns it as the Go type it was built for.
type Func func(r *reader.Reader) (interface{}, error)

// NestedResolver returns a decoder producing *T (or nil on null) for struct type T.
type NestedResolver func(rType reflect.Type) (Func, error)

// NumberPolicy controls numeric coercion behavior.
type NumberPolicy int

const (
	CoerceNumbers NumberPolicy = iota
	ExactNumbers
)

// Options controls decoder construction.
type Options struct {
	NumberPolicy NumberPolicy
	TimeLayout   string
	Nested       NestedResolver
}

var (
	timeType            = reflect.TypeOf(time.Time{})
	jsonUnmarshalerType = reflect.TypeOf((*stdjson.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Zero returns the zero value of rType as an interface.
func Zero(rType reflect.Type) interface{} {
	if rType == nil {
		return nil
	}
	return reflect.Zero(rType).Interface()
}

// For returns a decoder for rType.
func For(rType reflect.Type, options *Options) (Func, error) {
	if rType == nil {
		return nil, fmt.Errorf("%w: nil type", jherrors.ErrUnsupportedType)
	}
	if options == nil {
		options = &Options{}
	}
	fn, err := build(rType, options)
	if err != nil {
		return nil, err
	}
	if rType.Kind() == reflect.Ptr && isNested(rType.Elem()) {
		// nested plans handle null themselves
		return fn, nil
	}
	return nullable(Zero(rType), fn), nil
}

func nullable(zero interface{}, fn Func) Func {
	return func(r *reader.Reader) (interface{}, error) {
		if r.ReadNull() {
			r.ResetExisting()
			return zero, nil
		}
		return fn(r)
	}
}

func isNested(rType reflect.Type) bool {
	return rType.Kind() == reflect.Struct && rType != timeType && !hasCustomUnmarshal(rType)
}

func hasCustomUnmarshal(rType reflect.Type) bool {
	if rType == timeType {
		return false
	}
	prt := reflect.PointerTo(rType)
	return prt.Implements(jsonUnmarshalerType) || prt.Implements(textUnmarshalerType)
}

func build(rType reflect.Type, options *Options) (Func, error) {
	if rType.Kind() != reflect.Ptr && rType.Kind() != reflect.Interface && hasCustomUnmarshal(rType) {
		return customDecoder(rType), nil
	}
	switch rType.Kind() {
	case reflect.Bool:
		return convert(rType, func(r *reader.Reader) (interface{}, error) { return r.ReadBool() }), nil
	case reflect.String:
		return convert(rType, func(r *reader.Reader) (interface{}, error) { return r.ReadString() }), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intDecoder(rType, options.NumberPolicy), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintDecoder(rType, options.NumberPolicy), nil
	case reflect.Float32, reflect.Float64:
		return floatDecoder(rType), nil
	case reflect.Interface:
		if rType.NumMethod() != 0 {
			return nil, fmt.Errorf("%w: %s", jherrors.ErrUnsupportedType, rType.String())
		}
		return func(r *reader.Reader) (interface{}, error) { return r.ReadValue() }, nil
	case reflect.Struct:
		if rType == timeType {
			return Time(options.TimeLayout), nil
		}
		return structDecoder(rType, options)
	case reflect.Ptr:
		return pointerDecoder(rType, options)
	case reflect.Slice:
		if rType.Elem().Kind() == reflect.Uint8 {
			return bytesDecoder(rType), nil
		}
		return sliceDecoder(rType, options)
	case reflect.Array:
		return arrayDecoder(rType, options)
	case reflect.Map:
		return mapDecoder(rType, options)
	}
	return nil, fmt.Errorf("%w: %s", jherrors.ErrUnsupportedType, rType.String())
}

// convert adapts a builtin-typed decoder to a named type with the same kind.
func convert(rType reflect.Type, fn Func) Func {
	if rType.PkgPath() == "" {
		return fn
	}
	return func(r *reader.Reader) (interface{}, error) {
		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(v).Convert(rType).Interface(), nil
	}
}

// Time returns a time.Time decoder; empty layout means RFC3339.
func Time(layout string) Func {
	if layout == "" {
		layout = time.RFC3339
	}
	return nullable(time.Time{}, func(r *reader.Reader) (interface{}, error) {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return time.Parse(layout, s)
	})
}

func customDecoder(rType reflect.Type) Func {
	return func(r *reader.Reader) (interface{}, error) {
		raw, err := r.ReadRaw()
		if err != nil {
			return nil, err
		}
		holder := reflect.New(rType)
		switch actual := holder.Interface().(type) {
		case stdjson.Unmarshaler:
			if err = actual.UnmarshalJSON(raw); err != nil {
				return nil, err
			}
		case encoding.TextUnmarshaler:
			var s string
			if err = stdjson.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("expected string for TextUnmarshaler: %w", err)
			}
			if err = actual.UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
		}
		return holder.Elem().Interface(), nil
	}
}

func structDecoder(rType reflect.Type, options *Options) (Func, error) {
	if options.Nested == nil {
		return nil, fmt.Errorf("%w: nested struct %s requires a resolver", jherrors.ErrUnsupportedType, rType.String())
	}
	nested, err := options.Nested(rType)
	if err != nil {
		return nil, err
	}
	zero := Zero(rType)
	return func(r *reader.Reader) (interface{}, error) {
		v, err := nested(r)
		if err != nil || v == nil {
			return zero, err
		}
		ptr := reflect.ValueOf(v)
		if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
			return zero, nil
		}
		return ptr.Elem().Interface(), nil
	}, nil
}

func pointerDecoder(rType reflect.Type, options *Options) (Func, error) {
	elem := rType.Elem()
	if isNested(elem) {
		if options.Nested == nil {
			return nil, fmt.Errorf("%w: nested struct %s requires a resolver", jherrors.ErrUnsupportedType, elem.String())
		}
		nested, err := options.Nested(elem)
		if err != nil {
			return nil, err
		}
		zero := Zero(rType)
		return func(r *reader.Reader) (interface{}, error) {
			v, err := nested(r)
			if err != nil || v == nil {
				return zero, err
			}
			return v, nil
		}, nil
	}
	elemFn, err := For(elem, options)
	if err != nil {
		return nil, err
	}
	return func(r *reader.Reader) (interface{}, error) {
		v, err := elemFn(r)
		if err != nil {
			return nil, err
		}
		ptr := reflect.New(elem)
		if v != nil {
			ptr.Elem().Set(reflect.ValueOf(v))
		}
		return ptr.Interface(), nil
	}, nil
}

func bytesDecoder(rType reflect.Type) Func {
	return func(r *reader.Reader) (interface{}, error) {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(data).Convert(rType).Interface(), nil
	}
}

func sliceDecoder(rType reflect.Type, options *Options) (Func, error) {
	elem := rType.Elem()
	elemFn, err := For(elem, options)
	if err != nil {
		return nil, err
	}
	return func(r *reader.Reader) (interface{}, error) {
		slice := reflect.MakeSlice(rType, 0, 4)
		err := r.ReadArray(func() error {
			v, err := elemFn(r)
			if err != nil {
				return err
			}
			slice = reflect.Append(slice, valueOf(v, elem))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return slice.Interface(), nil
	}, nil
}

func arrayDecoder(rType reflect.Type, options *Options) (Func, error) {
	elem := rType.Elem()
	elemFn, err := For(elem, options)
	if err != nil {
		return nil, err
	}
	return func(r *reader.Reader) (interface{}, error) {
		array := reflect.New(rType).Elem()
		i := 0
		err := r.ReadArray(func() error {
			if i >= array.Len() {
				i++
				return r.Skip()
			}
			v, err := elemFn(r)
			if err != nil {
				return err
			}
			array.Index(i).Set(valueOf(v, elem))
			i++
			return nil
		})
		if err != nil {
			return nil, err
		}
		return array.Interface(), nil
	}, nil
}

func mapDecoder(rType reflect.Type, options *Options) (Func, error) {
	if rType.Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: map key kind %s", jherrors.ErrUnsupportedType, rType.Key().Kind())
	}
	elem := rType.Elem()
	elemFn, err := For(elem, options)
	if err != nil {
		return nil, err
	}
	keyType := rType.Key()
	return func(r *reader.Reader) (interface{}, error) {
		m := reflect.MakeMap(rType)
		err := r.ReadObject(func(key string) error {
			v, err := elemFn(r)
			if err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(key).Convert(keyType), valueOf(v, elem))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return m.Interface(), nil
	}, nil
}

// ValueOf returns v as a reflect.Value assignable to rType; nil maps to the zero value.
func ValueOf(v interface{}, rType reflect.Type) reflect.Value {
	return valueOf(v, rType)
}

func valueOf(v interface{}, rType reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(rType)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != rType && rv.Type().ConvertibleTo(rType) && rType.Kind() != reflect.Interface {
		return rv.Convert(rType)
	}
	return rv
}
