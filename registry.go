package jsonhash

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"github.com/viant/jsonhash/descriptor"
	"github.com/viant/jsonhash/internal/lru"
	"github.com/viant/jsonhash/internal/syncmap"
	"github.com/viant/jsonhash/plan"
	"github.com/viant/jsonhash/reader"
	"github.com/viant/jsonhash/value"
	"github.com/viant/tagly/format/text"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// registryConfig holds the options a generated plan depends on.
type registryConfig struct {
	caseFormat text.CaseFormat
	timeLayout string
	numbers    NumberPolicy
	unknown    UnknownFieldPolicy
}

func configOf(options *Options) registryConfig {
	return registryConfig{
		caseFormat: options.CaseFormat,
		timeLayout: options.TimeLayout,
		numbers:    options.NumberPolicy,
		unknown:    options.UnknownFieldPolicy,
	}
}

// shared registries, one per plan-relevant option set
var registries = syncmap.New[registryConfig, *Registry]()

// Registry generates and caches one decode plan per Go type.
//
// Struct types are described with descriptor.FromStruct unless a descriptor
// was registered for them. Nested struct values are decoded with plans of the
// same registry, resolved on first use so recursive types work.
type Registry struct {
	config      registryConfig
	plans       *lru.Cache[reflect.Type, plan.Plan]
	descriptors *syncmap.Map[reflect.Type, *descriptor.ClassDescriptor]
	group       singleflight.Group
	listener    func(PlanInfo)
}

// NewRegistry creates a registry; case format, time layout, number and
// unknown field policies, the plan listener and the plan cache size are taken
// from opts. Plans are kept for the registry lifetime unless a cache size is
// set, in which case least recently used plans are evicted and regenerated.
func NewRegistry(opts ...Option) *Registry {
	options := resolveOptions(nil, opts)
	return newRegistry(configOf(&options), options.PlanListener, options.PlanCacheSize)
}

func newRegistry(config registryConfig, listener func(PlanInfo), cacheSize int) *Registry {
	return &Registry{
		config:      config,
		plans:       lru.New[reflect.Type, plan.Plan](cacheSize),
		descriptors: syncmap.New[reflect.Type, *descriptor.ClassDescriptor](),
		listener:    listener,
	}
}

func (o *Options) registry() *Registry {
	if o.Registry != nil {
		return o.Registry
	}
	config := configOf(o)
	return registries.GetOrCreate(config, func() *Registry {
		return newRegistry(config, nil, 0)
	})
}

// Register uses desc for desc.Type, dropping any plan generated before.
// A descriptor sharing one alias between two bindings is rejected.
func (r *Registry) Register(desc *descriptor.ClassDescriptor) error {
	if err := descriptor.Validate(desc); err != nil {
		return err
	}
	if err := descriptor.CheckAliases(desc); err != nil {
		return fmt.Errorf("register %v: %w", desc, err)
	}
	desc.Seal()
	r.descriptors.Put(desc.Type, desc)
	r.plans.Delete(desc.Type)
	return nil
}

// Plan returns the plan of rType (or its element type when rType is a pointer).
func (r *Registry) Plan(rType reflect.Type) (plan.Plan, error) {
	return r.lookup(rType, nil)
}

// Len returns the number of cached plans.
func (r *Registry) Len() int {
	return r.plans.Len()
}

// Prepare generates plans of types concurrently.
func (r *Registry) Prepare(ctx context.Context, types ...reflect.Type) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for _, rType := range types {
		rType := rType
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := r.Plan(rType)
			return err
		})
	}
	return group.Wait()
}

func (r *Registry) lookup(rType reflect.Type, listener func(PlanInfo)) (plan.Plan, error) {
	if rType == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInvalidDescriptor)
	}
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	if p, ok := r.plans.Get(rType); ok {
		return p, nil
	}
	result, err, _ := r.group.Do(fmt.Sprintf("%p", rType), func() (interface{}, error) {
		if p, ok := r.plans.Get(rType); ok {
			return p, nil
		}
		p, err := r.build(rType)
		if err != nil {
			return nil, err
		}
		r.plans.Set(rType, p)
		info := newPlanInfo(rType, p)
		if r.listener != nil {
			r.listener(info)
		}
		if listener != nil {
			listener(info)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(plan.Plan), nil
}

func (r *Registry) build(rType reflect.Type) (plan.Plan, error) {
	desc, ok := r.descriptors.Get(rType)
	if !ok {
		var err error
		desc, err = descriptor.FromStruct(rType,
			descriptor.WithCaseFormat(r.config.caseFormat),
			descriptor.WithStructTimeLayout(r.config.timeLayout))
		if err != nil {
			return nil, err
		}
	}
	return plan.Build(desc, plan.WithUnknownFieldPolicy(r.config.unknown), plan.WithResolver(r.resolve))
}

func (r *Registry) resolve(binding *descriptor.Binding) (value.Func, error) {
	layout := binding.TimeLayout
	if layout == "" {
		layout = r.config.timeLayout
	}
	return value.For(binding.Type, &value.Options{
		NumberPolicy: r.config.numbers,
		TimeLayout:   layout,
		Nested:       r.nested,
	})
}

func (r *Registry) nested(rType reflect.Type) (value.Func, error) {
	return func(rd *reader.Reader) (interface{}, error) {
		p, err := r.Plan(rType)
		if err != nil {
			return nil, err
		}
		v, err := p.Decode(rd)
		if v == nil || err != nil {
			return nil, err
		}
		return v, nil
	}, nil
}
