package plan

import (
	"fmt"
	"reflect"

	"github.com/viant/jsonhash/descriptor"
	"github.com/viant/jsonhash/dispatch"
	jherrors "github.com/viant/jsonhash/errors"
	"github.com/viant/jsonhash/reader"
	"github.com/viant/jsonhash/value"
)

// matcher maps the next object key to a binding slot.
type matcher interface {
	match(r *reader.Reader) (int, bool, error)
}

type wrapperSlots struct {
	wrapper *descriptor.WrapperBinding
	slots   []int
}

// program is the strategy-independent part of a plan.
type program struct {
	desc        *descriptor.ClassDescriptor
	bindings    []*descriptor.Binding
	decoders    []value.Func
	live        bool
	params      int
	members     []int
	wrappers    []wrapperSlots
	unknown     UnknownFieldPolicy
	fingerprint uint64
	strategy    Strategy
}

func newProgram(desc *descriptor.ClassDescriptor, report *dispatch.Report, options *Options) (*program, error) {
	bindings := desc.Bindings()
	p := &program{
		desc:     desc,
		bindings: bindings,
		decoders: make([]value.Func, len(bindings)),
		live:     desc.Live(),
		params:   len(desc.Ctor.Parameters),
		unknown:  options.UnknownFieldPolicy,
		strategy: StrategyHash,
	}
	if !report.Clean() {
		p.strategy = StrategyStrict
	}
	for i, binding := range bindings {
		fn := binding.Decoder
		if fn == nil {
			var err error
			if fn, err = options.Resolver(binding); err != nil {
				return nil, fmt.Errorf("%v %v %s: %w", desc, binding.Category, binding.Name, err)
			}
		}
		p.decoders[i] = fn
		if binding.Member() {
			p.members = append(p.members, i)
		}
	}
	slot := len(bindings)
	for _, wrapper := range desc.Wrappers {
		slot -= len(wrapper.Parameters)
	}
	for _, wrapper := range desc.Wrappers {
		ws := wrapperSlots{wrapper: wrapper}
		for range wrapper.Parameters {
			ws.slots = append(ws.slots, slot)
			slot++
		}
		p.wrappers = append(p.wrappers, ws)
	}
	p.fingerprint = fingerprint(p.strategy, bindings, report.Aliases)
	return p, nil
}

func (p *program) Descriptor() *descriptor.ClassDescriptor { return p.desc }

func (p *program) Strategy() Strategy { return p.strategy }

func (p *program) Fingerprint() uint64 { return p.fingerprint }

// Binding returns the binding of slot.
func (p *program) Binding(slot int) *descriptor.Binding { return p.bindings[slot] }

// Decoder returns the value decoder of slot.
func (p *program) Decoder(slot int) value.Func { return p.decoders[slot] }

func (p *program) decode(m matcher, r *reader.Reader) (interface{}, error) {
	if r.ReadNull() {
		r.ResetExisting()
		return nil, nil
	}
	hasMembers, err := r.ReadObjectStart()
	if err != nil {
		return nil, err
	}
	state, err := p.Begin(r)
	if err != nil {
		return nil, err
	}
	if !hasMembers {
		return state.finish(false)
	}
	for {
		slot, ok, err := m.match(r)
		if err != nil {
			return nil, err
		}
		switch {
		case ok:
			err = state.Decode(slot, r)
		case p.unknown == ErrorOnUnknown:
			err = fmt.Errorf("%w: %q in %v at %d", jherrors.ErrUnknownField, r.LastField(), p.desc, r.Pos())
		default:
			err = r.Skip()
		}
		if err != nil {
			return nil, err
		}
		token, err := r.NextToken()
		if err != nil {
			return nil, err
		}
		if token == '}' {
			return state.Finish()
		}
	}
}

// Begin starts decoding one object. The reusable instance of r is taken in
// live mode and released otherwise.
func (p *program) Begin(r *reader.Reader) (*State, error) {
	existing := r.TakeExisting()
	s := &State{p: p}
	if p.live {
		s.kind = liveStorage
		if instance, ok := p.reuse(existing); ok {
			s.instance = instance
		} else {
			instance, err := p.construct(nil)
			if err != nil {
				return nil, err
			}
			s.instance = instance
			if err = p.assignDefaults(instance); err != nil {
				return nil, err
			}
		}
		if len(p.wrappers) > 0 {
			s.slots = p.defaults()
		}
		return s, nil
	}
	s.kind = stagedStorage
	s.slots = p.defaults()
	s.present = make([]bool, len(p.bindings))
	return s, nil
}

// reuse accepts an existing *T, or a T copied into a new *T.
func (p *program) reuse(existing interface{}) (interface{}, bool) {
	if existing == nil {
		return nil, false
	}
	rValue := reflect.ValueOf(existing)
	switch rValue.Type() {
	case reflect.PointerTo(p.desc.Type):
		if rValue.IsNil() {
			return nil, false
		}
		return existing, true
	case p.desc.Type:
		if p.desc.Type.Kind() == reflect.Ptr {
			if rValue.IsNil() {
				return nil, false
			}
			return existing, true
		}
		ptr := reflect.New(p.desc.Type)
		ptr.Elem().Set(rValue)
		return ptr.Interface(), true
	}
	return nil, false
}

func (p *program) defaults() []interface{} {
	slots := make([]interface{}, len(p.bindings))
	for i, binding := range p.bindings {
		slots[i] = binding.Zero()
	}
	return slots
}

func (p *program) construct(args []interface{}) (interface{}, error) {
	instance, err := p.desc.Ctor.Construct(p.desc.Type, args)
	if err != nil {
		return nil, fmt.Errorf("%v: construct: %w", p.desc, err)
	}
	return instance, nil
}

// assignDefaults writes explicit member defaults into a fresh instance.
func (p *program) assignDefaults(instance interface{}) error {
	for _, slot := range p.members {
		binding := p.bindings[slot]
		if binding.Default == nil {
			continue
		}
		if err := binding.Assign(instance, binding.Default); err != nil {
			return fmt.Errorf("%v %v %s: %w", p.desc, binding.Category, binding.Name, err)
		}
	}
	return nil
}

type storageKind int

const (
	liveStorage storageKind = iota
	stagedStorage
)

// State holds one in-progress object decode.
//
// In live storage the instance exists from the start and members are written
// as their keys are read. In staged storage every value lands in a slot and
// the instance is created once the object closes.
type State struct {
	p        *program
	kind     storageKind
	instance interface{}
	slots    []interface{}
	present  []bool
}

// Decode reads the value of slot from r.
func (s *State) Decode(slot int, r *reader.Reader) error {
	binding := s.p.bindings[slot]
	fn := s.p.decoders[slot]
	if s.kind == liveStorage && binding.Member() {
		if binding.Reuse {
			r.SetExisting(binding.Current(s.instance))
		}
		v, err := fn(r)
		if binding.Reuse {
			r.ResetExisting()
		}
		if err != nil {
			return s.wrap(binding, err)
		}
		if err = binding.Assign(s.instance, v); err != nil {
			return s.wrap(binding, err)
		}
		s.mark(binding)
		return nil
	}
	v, err := fn(r)
	if err != nil {
		return s.wrap(binding, err)
	}
	s.store(slot, v)
	return nil
}

// Set stores an already decoded value of slot.
func (s *State) Set(slot int, v interface{}) error {
	binding := s.p.bindings[slot]
	if s.kind == liveStorage && binding.Member() {
		if err := binding.Assign(s.instance, v); err != nil {
			return s.wrap(binding, err)
		}
		s.mark(binding)
		return nil
	}
	s.store(slot, v)
	return nil
}

func (s *State) mark(binding *descriptor.Binding) {
	if presence := s.p.desc.Presence; presence != nil {
		presence.Mark(s.instance, binding.Name)
	}
}

func (s *State) store(slot int, v interface{}) {
	s.slots[slot] = v
	if s.present != nil {
		s.present[slot] = true
	}
}

func (s *State) wrap(binding *descriptor.Binding, err error) error {
	return fmt.Errorf("%v %s: %w", binding.Category, binding.Name, err)
}

// Finish creates the instance if staged, then invokes wrappers.
func (s *State) Finish() (interface{}, error) {
	return s.finish(true)
}

// FinishEmpty completes an object without members; wrappers are not invoked.
func (s *State) FinishEmpty() (interface{}, error) {
	return s.finish(false)
}

func (s *State) finish(wrappers bool) (interface{}, error) {
	p := s.p
	if s.kind == stagedStorage {
		instance, err := p.construct(s.slots[:p.params])
		if err != nil {
			return nil, err
		}
		// absent members carry their default or zero slot value
		for _, slot := range p.members {
			binding := p.bindings[slot]
			if err = binding.Assign(instance, s.slots[slot]); err != nil {
				return nil, s.wrap(binding, err)
			}
		}
		s.instance = instance
		for _, slot := range p.members {
			if s.present[slot] {
				s.mark(p.bindings[slot])
			}
		}
	}
	if !wrappers {
		return s.instance, nil
	}
	for _, ws := range p.wrappers {
		args := make([]interface{}, len(ws.slots))
		for i, slot := range ws.slots {
			args[i] = s.slots[slot]
		}
		if err := ws.wrapper.Invoke(s.instance, args); err != nil {
			return nil, fmt.Errorf("%v: wrapper %s: %w", p.desc, ws.wrapper.Name, err)
		}
	}
	return s.instance, nil
}
