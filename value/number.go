package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/viant/jsonhash/reader"
)

func intDecoder(rType reflect.Type, policy NumberPolicy) Func {
	bits := rType.Bits()
	return func(r *reader.Reader) (interface{}, error) {
		raw, err := r.ReadNumber()
		if err != nil {
			return nil, err
		}
		literal := string(raw)
		v, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			if policy == ExactNumbers {
				return nil, fmt.Errorf("invalid integer %q for %s: %w", literal, rType.String(), err)
			}
			f, ferr := strconv.ParseFloat(literal, 64)
			if ferr != nil {
				return nil, fmt.Errorf("invalid number %q: %w", literal, ferr)
			}
			if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return nil, fmt.Errorf("number %s overflows %s", literal, rType.String())
			}
			v = int64(f)
		}
		if bits < 64 {
			limit := int64(1) << (bits - 1)
			if v < -limit || v >= limit {
				return nil, fmt.Errorf("number %s overflows %s", literal, rType.String())
			}
		}
		return reflect.ValueOf(v).Convert(rType).Interface(), nil
	}
}

func uintDecoder(rType reflect.Type, policy NumberPolicy) Func {
	bits := rType.Bits()
	return func(r *reader.Reader) (interface{}, error) {
		raw, err := r.ReadNumber()
		if err != nil {
			return nil, err
		}
		literal := string(raw)
		v, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			if policy == ExactNumbers {
				return nil, fmt.Errorf("invalid unsigned integer %q for %s: %w", literal, rType.String(), err)
			}
			f, ferr := strconv.ParseFloat(literal, 64)
			if ferr != nil {
				return nil, fmt.Errorf("invalid number %q: %w", literal, ferr)
			}
			if f < 0 {
				f = 0
			}
			if math.IsNaN(f) || f >= math.MaxUint64 {
				return nil, fmt.Errorf("number %s overflows %s", literal, rType.String())
			}
			v = uint64(f)
		}
		if bits < 64 && v > (uint64(1)<<bits)-1 {
			return nil, fmt.Errorf("number %s overflows %s", literal, rType.String())
		}
		return reflect.ValueOf(v).Convert(rType).Interface(), nil
	}
}

func floatDecoder(rType reflect.Type) Func {
	return func(r *reader.Reader) (interface{}, error) {
		v, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		if rType.Kind() == reflect.Float32 && math.Abs(v) > math.MaxFloat32 && !math.IsInf(v, 0) {
			return nil, fmt.Errorf("number %v overflows %s", v, rType.String())
		}
		return reflect.ValueOf(v).Convert(rType).Interface(), nil
	}
}
