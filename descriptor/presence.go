package descriptor

import (
	"fmt"
	"reflect"
	"unsafe"

	jherrors "github.com/viant/jsonhash/errors"
	"github.com/viant/xunsafe"
)

// PresenceTag marks a struct (or *struct) field of bool flags; a flag is set
// when the member with the same name is decoded.
const PresenceTag = "presenceMarker"

// IsPresenceMarker reports whether tag carries PresenceTag.
func IsPresenceMarker(tag reflect.StructTag) bool {
	_, ok := tag.Lookup(PresenceTag)
	return ok
}

// Presence writes member flags into a target's marker field.
type Presence struct {
	name   string
	holder *xunsafe.Field
	flags  map[string]*xunsafe.Field
}

// NewPresence returns the marker of struct type rType, or nil when it has none.
func NewPresence(rType reflect.Type) (*Presence, error) {
	for i := 0; i < rType.NumField(); i++ {
		sf := rType.Field(i)
		if !IsPresenceMarker(sf.Tag) {
			continue
		}
		holderType := sf.Type
		if holderType.Kind() == reflect.Ptr {
			holderType = holderType.Elem()
		}
		if holderType.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: %s.%s: presence marker is not a struct", jherrors.ErrInvalidDescriptor, rType.String(), sf.Name)
		}
		result := &Presence{name: sf.Name, holder: xunsafe.NewField(sf), flags: map[string]*xunsafe.Field{}}
		for j := 0; j < holderType.NumField(); j++ {
			flag := holderType.Field(j)
			if flag.Type.Kind() != reflect.Bool {
				continue
			}
			result.flags[flag.Name] = xunsafe.NewField(flag)
		}
		return result, nil
	}
	return nil, nil
}

// Holder returns the marker field name.
func (p *Presence) Holder() string { return p.name }

// Mark sets the flag of name on target (*T), allocating a nil marker.
func (p *Presence) Mark(target interface{}, name string) {
	flag, ok := p.flags[name]
	if !ok {
		return
	}
	holder := p.holderPointer(xunsafe.AsPointer(target), true)
	*(*bool)(flag.Pointer(holder)) = true
}

// IsSet reports whether name was marked on target.
func (p *Presence) IsSet(target interface{}, name string) bool {
	flag, ok := p.flags[name]
	if !ok {
		return false
	}
	holder := p.holderPointer(xunsafe.AsPointer(target), false)
	if holder == nil {
		return false
	}
	return *(*bool)(flag.Pointer(holder))
}

func (p *Presence) holderPointer(ptr unsafe.Pointer, alloc bool) unsafe.Pointer {
	fieldPtr := p.holder.Pointer(ptr)
	if p.holder.Type.Kind() != reflect.Ptr {
		return fieldPtr
	}
	next := (*unsafe.Pointer)(fieldPtr)
	if *next == nil && alloc {
		*next = reflect.New(p.holder.Type.Elem()).UnsafePointer()
	}
	return *next
}
