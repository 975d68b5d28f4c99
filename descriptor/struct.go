package descriptor

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unsafe"

	jherrors "github.com/viant/jsonhash/errors"
	"github.com/viant/jsonhash/internal/tagutil"
	"github.com/viant/jsonhash/reader"
	"github.com/viant/jsonhash/value"
	"github.com/viant/tagly/format/text"
	"github.com/viant/xunsafe"
)

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	timeType  = reflect.TypeOf(time.Time{})
)

// StructOption customises struct extraction.
type StructOption func(o *structOptions)

type structOptions struct {
	caseFormat text.CaseFormat
	timeLayout string
	setters    bool
	ctor       *ctorOption
	wrappers   []wrapperOption
}

type ctorOption struct {
	mode    Mode
	fn      reflect.Value
	names   []string
	factory Factory
	params  []*Binding
}

type wrapperOption struct {
	method string
	names  []string
}

// WithCaseFormat adds the case-formatted name of each field without an explicit name as an alias.
func WithCaseFormat(caseFormat text.CaseFormat) StructOption {
	return func(o *structOptions) { o.caseFormat = caseFormat }
}

// WithStructTimeLayout sets the default time layout of time.Time fields.
func WithStructTimeLayout(layout string) StructOption {
	return func(o *structOptions) { o.timeLayout = layout }
}

// WithSetters toggles SetX method discovery; enabled by default.
func WithSetters(enabled bool) StructOption {
	return func(o *structOptions) { o.setters = enabled }
}

// WithConstructor creates instances with fn, a function whose parameters are
// decoded from the given names. fn returns T or *T, optionally with an error.
func WithConstructor(fn interface{}, names ...string) StructOption {
	return func(o *structOptions) {
		o.ctor = &ctorOption{mode: ModeConstructor, fn: reflect.ValueOf(fn), names: names}
	}
}

// WithProducer is WithConstructor for package-level producer functions.
func WithProducer(fn interface{}, names ...string) StructOption {
	return func(o *structOptions) {
		o.ctor = &ctorOption{mode: ModeProducer, fn: reflect.ValueOf(fn), names: names}
	}
}

// WithFactory delegates instance creation to factory with the given parameters.
func WithFactory(factory Factory, params ...*Binding) StructOption {
	return func(o *structOptions) {
		o.ctor = &ctorOption{mode: ModeFactory, factory: factory, params: params}
	}
}

// WithWrapper calls the pointer method named method after construction,
// passing values decoded from names.
func WithWrapper(method string, names ...string) StructOption {
	return func(o *structOptions) {
		o.wrappers = append(o.wrappers, wrapperOption{method: method, names: names})
	}
}

type fieldCandidate struct {
	binding *Binding
	depth   int
}

// FromStruct derives a descriptor from struct tags, setter methods and options.
// Instances are *T.
func FromStruct(rType reflect.Type, opts ...StructOption) (*ClassDescriptor, error) {
	if rType == nil {
		return nil, fmt.Errorf("%w: nil type", jherrors.ErrInvalidDescriptor)
	}
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	if rType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", jherrors.ErrUnsupportedType, rType.String())
	}
	options := &structOptions{setters: true}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	desc := &ClassDescriptor{Type: rType, Name: rType.String()}
	if err := buildCtor(desc, rType, options); err != nil {
		return nil, err
	}
	reserved := map[string]bool{}
	reserve(reserved, desc.Ctor.Parameters)
	for _, wrapper := range options.wrappers {
		w, err := buildWrapper(rType, wrapper)
		if err != nil {
			return nil, err
		}
		reserve(reserved, w.Parameters)
		desc.Wrappers = append(desc.Wrappers, w)
	}
	presence, err := NewPresence(rType)
	if err != nil {
		return nil, err
	}
	desc.Presence = presence
	fields, err := collectFields(rType, options)
	if err != nil {
		return nil, err
	}
	for _, field := range fields {
		if !claimed(reserved, field) {
			desc.Fields = append(desc.Fields, field)
		}
	}
	if options.setters {
		desc.Setters = collectSetters(rType, options, fields, reserved)
	}
	if err := Validate(desc); err != nil {
		return nil, err
	}
	if err := CheckAliases(desc); err != nil {
		return nil, err
	}
	desc.Seal()
	return desc, nil
}

// reserve records the names and aliases of parameters; a field claiming any
// of them is decoded through the parameter instead.
func reserve(reserved map[string]bool, params []*Binding) {
	for _, param := range params {
		reserved[param.Name] = true
		for _, alias := range param.Aliases {
			reserved[alias] = true
		}
	}
}

func claimed(reserved map[string]bool, field *Binding) bool {
	if reserved[field.Name] {
		return true
	}
	for _, alias := range field.Aliases {
		if reserved[alias] {
			return true
		}
	}
	return false
}

func buildCtor(desc *ClassDescriptor, rType reflect.Type, options *structOptions) error {
	ctor := options.ctor
	if ctor == nil {
		desc.Ctor = ConstructorDescriptor{Mode: ModeConstructor, New: func([]interface{}) (interface{}, error) {
			return reflect.New(rType).Interface(), nil
		}}
		return nil
	}
	if ctor.mode == ModeFactory {
		for _, param := range ctor.params {
			param.Category = Parameter
		}
		desc.Ctor = ConstructorDescriptor{Mode: ModeFactory, Factory: ctor.factory, Parameters: ctor.params}
		return nil
	}
	fn := ctor.fn
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return fmt.Errorf("%w: %v: constructor is not a function", jherrors.ErrNoConstructor, desc)
	}
	fnType := fn.Type()
	if fnType.NumIn() != len(ctor.names) {
		return fmt.Errorf("%w: %v: constructor takes %d parameters, %d names given", jherrors.ErrArity, desc, fnType.NumIn(), len(ctor.names))
	}
	result, err := resultConverter(rType, fnType)
	if err != nil {
		return fmt.Errorf("%v: %w", desc, err)
	}
	for i, name := range ctor.names {
		desc.Ctor.Parameters = append(desc.Ctor.Parameters, NewBinding(name, Parameter, fnType.In(i), WithTimeLayout(options.timeLayout)))
	}
	desc.Ctor.Mode = ctor.mode
	desc.Ctor.New = func(args []interface{}) (interface{}, error) {
		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			in[i] = value.ValueOf(arg, fnType.In(i))
		}
		return result(fn.Call(in))
	}
	return nil
}

// resultConverter maps constructor results (T or *T, optional error) to *T.
func resultConverter(rType reflect.Type, fnType reflect.Type) (func([]reflect.Value) (interface{}, error), error) {
	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 || (numOut == 2 && fnType.Out(1) != errorType) {
		return nil, fmt.Errorf("%w: constructor must return T or *T with an optional error", jherrors.ErrNoConstructor)
	}
	out := fnType.Out(0)
	if out != rType && out != reflect.PointerTo(rType) {
		return nil, fmt.Errorf("%w: constructor returns %s", jherrors.ErrNoConstructor, out.String())
	}
	return func(results []reflect.Value) (interface{}, error) {
		if numOut == 2 && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		if out == rType {
			ptr := reflect.New(rType)
			ptr.Elem().Set(results[0])
			return ptr.Interface(), nil
		}
		if results[0].IsNil() {
			return nil, fmt.Errorf("%w: constructor returned nil", jherrors.ErrNoConstructor)
		}
		return results[0].Interface(), nil
	}, nil
}

func buildWrapper(rType reflect.Type, option wrapperOption) (*WrapperBinding, error) {
	ptrType := reflect.PointerTo(rType)
	method, ok := ptrType.MethodByName(option.method)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no method %s", jherrors.ErrInvalidDescriptor, ptrType.String(), option.method)
	}
	mType := method.Type
	if mType.NumIn()-1 != len(option.names) {
		return nil, fmt.Errorf("%w: %s.%s takes %d parameters, %d names given", jherrors.ErrArity, rType.String(), option.method, mType.NumIn()-1, len(option.names))
	}
	if !returnsNothingOrError(mType) {
		return nil, fmt.Errorf("%w: %s.%s must return nothing or an error", jherrors.ErrInvalidDescriptor, rType.String(), option.method)
	}
	wrapper := &WrapperBinding{Name: option.method}
	for i, name := range option.names {
		wrapper.Parameters = append(wrapper.Parameters, Param(name, mType.In(i+1)))
	}
	fn := method.Func
	wrapper.Invoke = func(target interface{}, args []interface{}) error {
		in := make([]reflect.Value, len(args)+1)
		in[0] = reflect.ValueOf(target)
		for i, arg := range args {
			in[i+1] = value.ValueOf(arg, mType.In(i+1))
		}
		return callError(fn.Call(in))
	}
	return wrapper, nil
}

func collectFields(rType reflect.Type, options *structOptions) ([]*Binding, error) {
	var candidates []*fieldCandidate
	byAlias := map[string]*fieldCandidate{}
	var collect func(t reflect.Type, parent []*xunsafe.Field, depth int) error
	collect = func(t reflect.Type, parent []*xunsafe.Field, depth int) error {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous {
				continue
			}
			resolved, err := tagutil.ResolveFieldTag(sf)
			if err != nil {
				return fmt.Errorf("%w: %s.%s: %v", jherrors.ErrInvalidDescriptor, t.String(), sf.Name, err)
			}
			if resolved.Ignore || IsPresenceMarker(sf.Tag) {
				continue
			}
			xf := xunsafe.NewField(sf)
			chain := append(append([]*xunsafe.Field{}, parent...), xf)
			if resolved.Inline {
				inlineType := sf.Type
				if inlineType.Kind() == reflect.Ptr {
					inlineType = inlineType.Elem()
				}
				if inlineType.Kind() == reflect.Struct && !resolved.Explicit {
					if err = collect(inlineType, chain, depth+1); err != nil {
						return err
					}
					continue
				}
			}
			if sf.PkgPath != "" {
				continue
			}
			binding, err := fieldBinding(sf, resolved, chain, options)
			if err != nil {
				return fmt.Errorf("%w: %s.%s: %v", jherrors.ErrInvalidDescriptor, t.String(), sf.Name, err)
			}
			candidate := &fieldCandidate{binding: binding, depth: depth}
			// shallower fields shadow embedded ones sharing an alias;
			// two fields at one depth claiming an alias are ambiguous
			var kept []string
			for _, alias := range binding.Aliases {
				if prev, ok := byAlias[alias]; ok {
					if prev.depth == depth {
						return fmt.Errorf("%w: %q on %v %v and %v %v", jherrors.ErrDuplicateAlias, alias,
							Field, prev.binding.Name, Field, binding.Name)
					}
					if prev.depth < depth {
						continue
					}
					prev.binding.Aliases = removeAlias(prev.binding.Aliases, alias)
				}
				byAlias[alias] = candidate
				kept = append(kept, alias)
			}
			binding.Aliases = kept
			candidates = append(candidates, candidate)
		}
		return nil
	}
	if err := collect(rType, nil, 0); err != nil {
		return nil, err
	}
	var result []*Binding
	for _, candidate := range candidates {
		if len(candidate.binding.Aliases) > 0 {
			result = append(result, candidate.binding)
		}
	}
	return result, nil
}

func fieldBinding(sf reflect.StructField, resolved tagutil.ResolvedFieldTag, chain []*xunsafe.Field, options *structOptions) (*Binding, error) {
	binding := &Binding{Name: sf.Name, Category: Field, Type: sf.Type, Reuse: resolved.Alias.Reuse}
	if len(resolved.Alias.From) > 0 {
		binding.Aliases = uniqueAliases(resolved.Alias.From)
	} else {
		aliases := []string{resolved.Name}
		if !resolved.Explicit && options.caseFormat != "" {
			aliases = append(aliases, formatName(resolved.Name, options.caseFormat))
		}
		binding.Aliases = uniqueAliases(aliases)
	}
	binding.TimeLayout = resolved.Format.TimeLayout
	if binding.TimeLayout == "" {
		binding.TimeLayout = options.timeLayout
	}
	if resolved.Alias.HasDefault {
		v, err := parseDefault(sf.Type, resolved.Alias.Default, binding.TimeLayout)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		binding.Default = v
	}
	resolve := fieldResolver(chain)
	fieldType := sf.Type
	binding.Assign = func(target, v interface{}) error {
		rv := value.ValueOf(v, fieldType)
		if !rv.Type().AssignableTo(fieldType) {
			return fmt.Errorf("%w: %s into %s", jherrors.ErrTypeMismatch, rv.Type().String(), fieldType.String())
		}
		ptr := resolve(xunsafe.AsPointer(target))
		reflect.NewAt(fieldType, ptr).Elem().Set(rv)
		return nil
	}
	binding.Current = func(target interface{}) interface{} {
		ptr := resolve(xunsafe.AsPointer(target))
		return reflect.NewAt(fieldType, ptr).Elem().Interface()
	}
	return binding, nil
}

// parseDefault decodes a default tag value; strings are taken verbatim.
func parseDefault(rType reflect.Type, text string, layout string) (interface{}, error) {
	if rType.Kind() == reflect.String {
		return reflect.ValueOf(text).Convert(rType).Interface(), nil
	}
	raw := text
	if rType == timeType {
		raw = strconv.Quote(text)
	}
	fn, err := value.For(rType, &value.Options{TimeLayout: layout})
	if err != nil {
		return nil, err
	}
	r := reader.New([]byte(raw))
	v, err := fn(r)
	if err != nil {
		return nil, err
	}
	if err = r.End(); err != nil {
		return nil, err
	}
	return v, nil
}

// fieldResolver walks an embedded field chain, allocating nil embedded pointers.
func fieldResolver(chain []*xunsafe.Field) func(unsafe.Pointer) unsafe.Pointer {
	return func(root unsafe.Pointer) unsafe.Pointer {
		current := root
		for i, f := range chain {
			ptr := f.Pointer(current)
			if i == len(chain)-1 {
				return ptr
			}
			if f.Type.Kind() == reflect.Ptr {
				next := (*unsafe.Pointer)(ptr)
				if *next == nil {
					alloc := reflect.New(f.Type.Elem())
					*next = unsafe.Pointer(alloc.Pointer())
				}
				current = *next
			} else {
				current = ptr
			}
		}
		return current
	}
}

func collectSetters(rType reflect.Type, options *structOptions, fields []*Binding, reserved map[string]bool) []*Binding {
	taken := map[string]bool{}
	for _, field := range fields {
		taken[field.Name] = true
		for _, alias := range field.Aliases {
			taken[alias] = true
		}
	}
	for name := range reserved {
		taken[name] = true
	}
	ptrType := reflect.PointerTo(rType)
	var result []*Binding
	for i := 0; i < ptrType.NumMethod(); i++ {
		method := ptrType.Method(i)
		property, ok := strings.CutPrefix(method.Name, "Set")
		if !ok || property == "" {
			continue
		}
		mType := method.Type
		if mType.NumIn() != 2 || !returnsNothingOrError(mType) {
			continue
		}
		if _, isField := rType.FieldByName(property); isField || taken[property] {
			continue
		}
		aliases := []string{property}
		if options.caseFormat != "" {
			aliases = append(aliases, formatName(property, options.caseFormat))
		}
		var kept []string
		for _, alias := range uniqueAliases(aliases) {
			if !taken[alias] {
				kept = append(kept, alias)
			}
		}
		if len(kept) == 0 {
			continue
		}
		paramType := mType.In(1)
		fn := method.Func
		result = append(result, &Binding{
			Name:       property,
			Category:   Setter,
			Aliases:    kept,
			Type:       paramType,
			TimeLayout: options.timeLayout,
			Assign: func(target, v interface{}) error {
				return callError(fn.Call([]reflect.Value{reflect.ValueOf(target), value.ValueOf(v, paramType)}))
			},
		})
	}
	return result
}

func formatName(name string, caseFormat text.CaseFormat) string {
	if name == "ID" {
		switch caseFormat {
		case text.CaseFormatLower, text.CaseFormatLowerCamel, text.CaseFormatLowerUnderscore:
			return "id"
		}
	}
	src := text.DetectCaseFormat(name)
	if !src.IsDefined() {
		src = text.CaseFormatUpperCamel
	}
	return src.Format(name, caseFormat)
}

func returnsNothingOrError(mType reflect.Type) bool {
	switch mType.NumOut() {
	case 0:
		return true
	case 1:
		return mType.Out(0) == errorType
	}
	return false
}

func callError(results []reflect.Value) error {
	if len(results) == 1 && !results[0].IsNil() {
		return results[0].Interface().(error)
	}
	return nil
}

func uniqueAliases(aliases []string) []string {
	seen := make(map[string]bool, len(aliases))
	result := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		if alias == "" || seen[alias] {
			continue
		}
		seen[alias] = true
		result = append(result, alias)
	}
	return result
}

func removeAlias(aliases []string, alias string) []string {
	result := aliases[:0]
	for _, candidate := range aliases {
		if candidate != alias {
			result = append(result, candidate)
		}
	}
	return result
}
