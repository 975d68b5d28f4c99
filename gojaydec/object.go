// Package gojaydec drives a hash decode plan from a gojay decoder.
package gojaydec

import (
	"reflect"
	"strings"

	"github.com/francoispqt/gojay"
	"github.com/viant/jsonhash/hash"
	"github.com/viant/jsonhash/plan"
	"github.com/viant/jsonhash/reader"
)

var (
	stringType  = reflect.TypeOf("")
	intType     = reflect.TypeOf(0)
	int64Type   = reflect.TypeOf(int64(0))
	uint64Type  = reflect.TypeOf(uint64(0))
	float64Type = reflect.TypeOf(float64(0))
	boolType    = reflect.TypeOf(false)
)

// Object implements gojay.UnmarshalerJSONObject over a hash plan.
// Builtin scalar bindings are read by gojay; other values are captured as
// embedded JSON and decoded by the binding's value decoder.
type Object struct {
	plan    *plan.Hash
	state   *plan.State
	scratch *reader.Reader
	keys    int
}

// New starts an object decode; existing is offered for reuse.
func New(p *plan.Hash, existing interface{}) (*Object, error) {
	scratch := reader.New(nil)
	scratch.SetExisting(existing)
	state, err := p.Begin(scratch)
	if err != nil {
		return nil, err
	}
	return &Object{plan: p, state: state, scratch: scratch}, nil
}

// UnmarshalJSONObject implements gojay.UnmarshalerJSONObject.
func (o *Object) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	o.keys++
	slot, ok := o.plan.Lookup(hash.String(key))
	if !ok {
		return nil
	}
	binding := o.plan.Binding(slot)
	if binding.Decoder == nil {
		switch binding.Type {
		case stringType:
			var v string
			if err := dec.String(&v); err != nil {
				return err
			}
			// gojay strings alias the decoder buffer
			return o.state.Set(slot, strings.Clone(v))
		case intType:
			var v int
			if err := dec.Int(&v); err != nil {
				return err
			}
			return o.state.Set(slot, v)
		case int64Type:
			var v int64
			if err := dec.Int64(&v); err != nil {
				return err
			}
			return o.state.Set(slot, v)
		case uint64Type:
			var v uint64
			if err := dec.Uint64(&v); err != nil {
				return err
			}
			return o.state.Set(slot, v)
		case float64Type:
			var v float64
			if err := dec.Float64(&v); err != nil {
				return err
			}
			return o.state.Set(slot, v)
		case boolType:
			var v bool
			if err := dec.Bool(&v); err != nil {
				return err
			}
			return o.state.Set(slot, v)
		}
	}
	var embedded gojay.EmbeddedJSON
	if err := dec.EmbeddedJSON(&embedded); err != nil {
		return err
	}
	o.scratch.Reset(embedded)
	return o.state.Decode(slot, o.scratch)
}

// NKeys implements gojay.UnmarshalerJSONObject; zero reads every key.
func (o *Object) NKeys() int { return 0 }

// Result finishes the decode and returns the instance.
func (o *Object) Result() (interface{}, error) {
	if o.keys == 0 {
		return o.state.FinishEmpty()
	}
	return o.state.Finish()
}

// Unmarshal decodes data with gojay; null yields nil.
func Unmarshal(data []byte, p *plan.Hash, existing interface{}) (interface{}, error) {
	if reader.New(data).ReadNull() {
		return nil, nil
	}
	obj, err := New(p, existing)
	if err != nil {
		return nil, err
	}
	if err = gojay.UnmarshalJSONObject(data, obj); err != nil {
		return nil, err
	}
	return obj.Result()
}
