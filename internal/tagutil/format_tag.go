package tagutil

import (
	"reflect"
	"sync"

	"github.com/viant/tagly/format"
	ftime "github.com/viant/tagly/format/time"
)

// FormatFieldTag captures the `format` tag attributes used when describing a field.
type FormatFieldTag struct {
	Name          string
	HasNameOrCase bool
	Ignore        bool
	Inline        bool
	TimeLayout    string
}

// ResolvedFieldTag is the effective naming of a struct field.
type ResolvedFieldTag struct {
	Name     string
	Explicit bool
	Ignore   bool
	Inline   bool
	Format   FormatFieldTag
	Alias    AliasTag
}

var formatTagCache sync.Map // map[string]*format.Tag

// ParseFormatFieldTag parses the `format` tag of sf.
func ParseFormatFieldTag(sf reflect.StructField, baseName string) FormatFieldTag {
	ret := FormatFieldTag{}
	tag := loadFormatTag(string(sf.Tag))
	if tag == nil {
		return ret
	}
	ret.Ignore = tag.Ignore
	ret.Inline = tag.Inline
	if tag.TimeLayout != "" {
		ret.TimeLayout = tag.TimeLayout
	} else if tag.DateFormat != "" {
		ret.TimeLayout = ftime.DateFormatToTimeLayout(tag.DateFormat)
	}
	if tag.Name != "" || tag.CaseFormat != "" {
		named := &format.Tag{Name: tag.Name, CaseFormat: tag.CaseFormat}
		if named.Name == "" {
			named.Name = baseName
		}
		ret.Name = named.CaseFormatName("")
		ret.HasNameOrCase = ret.Name != ""
	}
	return ret
}

// ResolveFieldTag resolves precedence among json, format and jsonhash tags.
// Precedence:
// 1) json explicit name/transient wins over format name/case.
// 2) inline is enabled by anonymous or format:inline.
// 3) ignore is enabled by json:"-", internal:"true" or format:ignore.
// 4) jsonhash from= aliases replace the resolved name as accepted keys.
func ResolveFieldTag(sf reflect.StructField) (ResolvedFieldTag, error) {
	jTag := ParseJSONTag(sf.Name, sf.Tag.Get("json"))
	fTag := ParseFormatFieldTag(sf, jTag.Name)
	aTag, err := ParseAliasTag(sf.Tag.Get(AliasTagName))
	if err != nil {
		return ResolvedFieldTag{}, err
	}
	name := jTag.Name
	explicit := jTag.Explicit
	if !jTag.Explicit && fTag.HasNameOrCase {
		name = fTag.Name
		explicit = true
	}
	return ResolvedFieldTag{
		Name:     name,
		Explicit: explicit,
		Ignore:   jTag.Transient || sf.Tag.Get("internal") == "true" || fTag.Ignore || aTag.Ignore,
		Inline:   sf.Anonymous || fTag.Inline,
		Format:   fTag,
		Alias:    aTag,
	}, nil
}

func loadFormatTag(rawTag string) *format.Tag {
	if v, ok := formatTagCache.Load(rawTag); ok {
		return v.(*format.Tag)
	}
	tag, err := format.Parse(reflect.StructTag(rawTag))
	if err != nil {
		tag = nil
	}
	formatTagCache.Store(rawTag, tag)
	return tag
}
