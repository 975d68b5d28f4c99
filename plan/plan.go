// Package plan builds immutable decode plans from class descriptors.
//
// A plan reads one JSON object from a reader.Reader and produces an instance
// of the described type. When every alias of the descriptor has a distinct,
// nonzero hash the plan dispatches keys through a hash table; otherwise it
// falls back to comparing key text against every alias.
package plan

import (
	"fmt"

	"github.com/viant/jsonhash/descriptor"
	"github.com/viant/jsonhash/dispatch"
	"github.com/viant/jsonhash/reader"
	"github.com/viant/jsonhash/value"
)

// Strategy identifies how keys are matched to bindings.
type Strategy int

const (
	StrategyHash Strategy = iota
	StrategyStrict
)

func (s Strategy) String() string {
	switch s {
	case StrategyHash:
		return "hash"
	case StrategyStrict:
		return "strict"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// UnknownFieldPolicy controls handling of keys no binding accepts.
type UnknownFieldPolicy int

const (
	IgnoreUnknown UnknownFieldPolicy = iota
	ErrorOnUnknown
)

// Resolver returns the value decoder of a binding without an explicit one.
type Resolver func(binding *descriptor.Binding) (value.Func, error)

// Options controls plan generation.
type Options struct {
	UnknownFieldPolicy UnknownFieldPolicy
	Resolver           Resolver
}

// Option configures Build.
type Option func(o *Options)

// WithUnknownFieldPolicy sets the unknown key policy.
func WithUnknownFieldPolicy(policy UnknownFieldPolicy) Option {
	return func(o *Options) { o.UnknownFieldPolicy = policy }
}

// WithResolver sets the value decoder resolver.
func WithResolver(resolver Resolver) Option {
	return func(o *Options) { o.Resolver = resolver }
}

// DefaultResolver resolves decoders from binding types; nested structs are not supported.
func DefaultResolver(binding *descriptor.Binding) (value.Func, error) {
	return value.For(binding.Type, &value.Options{TimeLayout: binding.TimeLayout})
}

// Plan decodes JSON objects into instances of one descriptor.
// Plans are immutable and safe for concurrent use with distinct readers.
type Plan interface {
	// Decode reads null or one object; null yields nil and releases the reuse slot.
	Decode(r *reader.Reader) (interface{}, error)
	Strategy() Strategy
	Descriptor() *descriptor.ClassDescriptor
	// Cases returns the hash dispatch table, nil for strict plans.
	Cases() []dispatch.Case
	// Collision returns why hash dispatch was rejected, nil for hash plans.
	Collision() *dispatch.Collision
	// Fingerprint identifies the alias layout independently of declaration order.
	Fingerprint() uint64
}

// Build validates desc and returns a hash plan, or a strict plan when alias
// hashes are ambiguous. No plan is returned on error.
func Build(desc *descriptor.ClassDescriptor, opts ...Option) (Plan, error) {
	options := &Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	if options.Resolver == nil {
		options.Resolver = DefaultResolver
	}
	if err := descriptor.Validate(desc); err != nil {
		return nil, err
	}
	report, err := dispatch.Detect(desc)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", desc, err)
	}
	prog, err := newProgram(desc, report, options)
	if err != nil {
		return nil, err
	}
	if report.Clean() {
		return &Hash{program: prog, table: report.Table}, nil
	}
	aliases, err := dispatch.Collect(desc)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", desc, err)
	}
	return &Strict{program: prog, aliases: aliases, collision: report.Collision}, nil
}
