package descriptor

import (
	"fmt"

	jherrors "github.com/viant/jsonhash/errors"
)

// Validate checks structural consistency of a descriptor.
// Alias uniqueness is checked by CheckAliases.
func Validate(desc *ClassDescriptor) error {
	if desc == nil {
		return fmt.Errorf("%w: nil descriptor", jherrors.ErrInvalidDescriptor)
	}
	if desc.Type == nil {
		return fmt.Errorf("%w: %v: missing type", jherrors.ErrInvalidDescriptor, desc)
	}
	ctor := &desc.Ctor
	switch ctor.Mode {
	case ModeConstructor, ModeProducer:
		if ctor.New == nil {
			return fmt.Errorf("%w: %v", jherrors.ErrNoConstructor, desc)
		}
	case ModeFactory:
		if ctor.Factory == nil {
			return fmt.Errorf("%w: %v: missing factory", jherrors.ErrNoConstructor, desc)
		}
	default:
		return fmt.Errorf("%w: %v: unknown constructor mode %d", jherrors.ErrInvalidDescriptor, desc, ctor.Mode)
	}
	for _, binding := range ctor.Parameters {
		if err := validateBinding(desc, binding, Parameter); err != nil {
			return err
		}
	}
	for _, binding := range desc.Fields {
		if err := validateBinding(desc, binding, Field); err != nil {
			return err
		}
	}
	for _, binding := range desc.Setters {
		if err := validateBinding(desc, binding, Setter); err != nil {
			return err
		}
	}
	for _, wrapper := range desc.Wrappers {
		if wrapper == nil || wrapper.Invoke == nil {
			return fmt.Errorf("%w: %v: wrapper without invoke", jherrors.ErrInvalidDescriptor, desc)
		}
		for _, binding := range wrapper.Parameters {
			if err := validateBinding(desc, binding, WrapperParameter); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateBinding(desc *ClassDescriptor, binding *Binding, category Category) error {
	if binding == nil {
		return fmt.Errorf("%w: %v: nil %v", jherrors.ErrInvalidDescriptor, desc, category)
	}
	if binding.Name == "" {
		return fmt.Errorf("%w: %v: unnamed %v", jherrors.ErrInvalidDescriptor, desc, category)
	}
	if binding.Category != category {
		return fmt.Errorf("%w: %v.%v: declared as %v, listed as %v", jherrors.ErrInvalidDescriptor, desc, binding.Name, binding.Category, category)
	}
	if len(binding.Aliases) == 0 {
		return fmt.Errorf("%w: %v.%v: no aliases", jherrors.ErrEmptyAlias, desc, binding.Name)
	}
	for _, alias := range binding.Aliases {
		if alias == "" {
			return fmt.Errorf("%w: %v.%v", jherrors.ErrEmptyAlias, desc, binding.Name)
		}
	}
	if binding.Type == nil && binding.Decoder == nil {
		return fmt.Errorf("%w: %v.%v: no type or decoder", jherrors.ErrInvalidDescriptor, desc, binding.Name)
	}
	if binding.Member() {
		if binding.Assign == nil {
			return fmt.Errorf("%w: %v.%v: no assign", jherrors.ErrInvalidDescriptor, desc, binding.Name)
		}
		if binding.Reuse && binding.Current == nil {
			return fmt.Errorf("%w: %v.%v: reuse requires current", jherrors.ErrInvalidDescriptor, desc, binding.Name)
		}
	}
	return nil
}

// CheckAliases reports an alias claimed by two different bindings.
func CheckAliases(desc *ClassDescriptor) error {
	bindings := desc.Bindings()
	owner := map[string]int{}
	for i, binding := range bindings {
		for _, name := range binding.Aliases {
			prev, ok := owner[name]
			if !ok {
				owner[name] = i
				continue
			}
			if prev != i {
				return fmt.Errorf("%w: %q on %v %v and %v %v", jherrors.ErrDuplicateAlias, name,
					bindings[prev].Category, bindings[prev].Name, binding.Category, binding.Name)
			}
		}
	}
	return nil
}
