package descriptor

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jherrors "github.com/viant/jsonhash/errors"
	"github.com/viant/tagly/format/text"
)

type Audit struct {
	CreatedBy string
	Version   int `json:"version"`
}

type account struct {
	ID       int
	UserName string
	Email    string   `json:"mail" jsonhash:"from=email|e_mail"`
	Secret   string   `json:"-"`
	Hidden   string   `internal:"true"`
	Tags     []string `jsonhash:"reuse"`
	Audit
	note     string
	nickname string
}

func (a *account) SetNickname(v string) { a.nickname = v }

func (a *account) SetNote(v string) error {
	if v == "" {
		return errors.New("empty note")
	}
	a.note = v
	return nil
}

func (a *account) Finish(suffix string) { a.UserName += suffix }

func aliasesOf(bindings []*Binding) map[string][]string {
	result := map[string][]string{}
	for _, binding := range bindings {
		result[binding.Name] = binding.Aliases
	}
	return result
}

func TestFromStruct(t *testing.T) {
	desc, err := FromStruct(reflect.TypeOf(account{}))
	require.NoError(t, err)
	assert.True(t, desc.Live())
	assert.Equal(t, map[string][]string{
		"ID":        {"ID"},
		"UserName":  {"UserName"},
		"Email":     {"email", "e_mail"},
		"Tags":      {"Tags"},
		"CreatedBy": {"CreatedBy"},
		"Version":   {"version"},
	}, aliasesOf(desc.Fields))
	assert.Equal(t, map[string][]string{
		"Nickname": {"Nickname"},
		"Note":     {"Note"},
	}, aliasesOf(desc.Setters))

	instance, err := desc.Ctor.Construct(desc.Type, nil)
	require.NoError(t, err)
	target, ok := instance.(*account)
	require.True(t, ok)
	for _, binding := range desc.Bindings() {
		switch binding.Name {
		case "UserName":
			require.NoError(t, binding.Assign(target, "bob"))
		case "Version":
			require.NoError(t, binding.Assign(target, 3))
			assert.Equal(t, 3, binding.Current(target))
		case "Tags":
			assert.True(t, binding.Reuse)
			require.NoError(t, binding.Assign(target, []string{"x"}))
		case "Nickname":
			require.NoError(t, binding.Assign(target, "bobby"))
		case "Note":
			assert.Error(t, binding.Assign(target, ""))
		case "ID":
			assert.ErrorIs(t, binding.Assign(target, "not an int"), jherrors.ErrTypeMismatch)
		}
	}
	assert.Equal(t, "bob", target.UserName)
	assert.Equal(t, 3, target.Version)
	assert.Equal(t, []string{"x"}, target.Tags)
	assert.Equal(t, "bobby", target.nickname)
}

func TestFromStruct_CaseFormat(t *testing.T) {
	desc, err := FromStruct(reflect.TypeOf(account{}), WithCaseFormat(text.CaseFormatLowerUnderscore), WithSetters(false))
	require.NoError(t, err)
	aliases := aliasesOf(desc.Fields)
	assert.Equal(t, []string{"ID", "id"}, aliases["ID"])
	assert.Equal(t, []string{"UserName", "user_name"}, aliases["UserName"])
	assert.Equal(t, []string{"version"}, aliases["Version"])
	assert.Empty(t, desc.Setters)
}

type point struct {
	X, Y  int
	Label string
	scale int
}

func newPoint(x, y int) (point, error) {
	if x < 0 {
		return point{}, errors.New("negative x")
	}
	return point{X: x, Y: y}, nil
}

func (p *point) Scale(factor int) { p.scale = factor }

func TestFromStruct_Constructor(t *testing.T) {
	desc, err := FromStruct(reflect.TypeOf(point{}), WithProducer(newPoint, "X", "Y"), WithWrapper("Scale", "factor"))
	require.NoError(t, err)
	assert.False(t, desc.Live())
	assert.Equal(t, ModeProducer, desc.Ctor.Mode)
	assert.Equal(t, map[string][]string{"Label": {"Label"}}, aliasesOf(desc.Fields))
	require.Len(t, desc.Wrappers, 1)
	assert.Equal(t, []string{"X", "Y", "Label", "factor"}, bindingNames(desc.Bindings()))

	instance, err := desc.Ctor.Construct(desc.Type, []interface{}{1, 2})
	require.NoError(t, err)
	assert.Equal(t, &point{X: 1, Y: 2}, instance)
	require.NoError(t, desc.Wrappers[0].Invoke(instance, []interface{}{4}))
	assert.Equal(t, 4, instance.(*point).scale)

	_, err = desc.Ctor.Construct(desc.Type, []interface{}{-1, 2})
	assert.EqualError(t, err, "negative x")
	_, err = desc.Ctor.Construct(desc.Type, []interface{}{1})
	assert.ErrorIs(t, err, jherrors.ErrArity)
}

type coord struct {
	X     int `json:"x"`
	Y     int `json:"lat" jsonhash:"from=y|lat"`
	Label string
}

func newCoord(x, y int) coord { return coord{X: x, Y: y} }

func TestFromStruct_ParametersClaimAliases(t *testing.T) {
	desc, err := FromStruct(reflect.TypeOf(coord{}), WithProducer(newCoord, "x", "y"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Label"}, bindingNames(desc.Fields))
	assert.Equal(t, []string{"x", "y", "Label"}, bindingNames(desc.Bindings()))
}

func TestFromStruct_Errors(t *testing.T) {
	var testCases = []struct {
		description string
		rType       reflect.Type
		options     []StructOption
		expect      error
	}{
		{description: "not a struct", rType: reflect.TypeOf(1), expect: jherrors.ErrUnsupportedType},
		{description: "constructor arity", rType: reflect.TypeOf(point{}), options: []StructOption{WithConstructor(newPoint, "X")}, expect: jherrors.ErrArity},
		{description: "constructor result", rType: reflect.TypeOf(point{}), options: []StructOption{WithConstructor(func() int { return 1 })}, expect: jherrors.ErrNoConstructor},
		{description: "missing wrapper", rType: reflect.TypeOf(point{}), options: []StructOption{WithWrapper("Missing")}, expect: jherrors.ErrInvalidDescriptor},
		{description: "wrapper arity", rType: reflect.TypeOf(point{}), options: []StructOption{WithWrapper("Scale")}, expect: jherrors.ErrArity},
		{description: "bad tag", rType: reflect.TypeOf(struct {
			A int `jsonhash:"bogus=1"`
		}{}), expect: jherrors.ErrInvalidDescriptor},
		{description: "same alias at one depth", rType: reflect.TypeOf(struct {
			A int `json:"x"`
			B int `json:"x"`
		}{}), expect: jherrors.ErrDuplicateAlias},
		{description: "wrapper reuses parameter name", rType: reflect.TypeOf(point{}), options: []StructOption{WithProducer(newPoint, "X", "Y"), WithWrapper("Scale", "X")}, expect: jherrors.ErrDuplicateAlias},
	}
	for _, testCase := range testCases {
		_, err := FromStruct(testCase.rType, testCase.options...)
		assert.ErrorIs(t, err, testCase.expect, testCase.description)
	}
}

type inner struct {
	Name string
	Kind string
}

type outer struct {
	*inner
	Name string
}

func TestFromStruct_EmbeddedShadowing(t *testing.T) {
	desc, err := FromStruct(reflect.TypeOf(outer{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Kind", "Name"}, bindingNames(desc.Fields))

	target := &outer{}
	for _, binding := range desc.Fields {
		require.NoError(t, binding.Assign(target, binding.Name+"!"))
	}
	require.NotNil(t, target.inner)
	assert.Equal(t, "Kind!", target.Kind)
	assert.Equal(t, "Name!", target.Name)
	assert.Equal(t, "", target.inner.Name)
}

func TestBuilder(t *testing.T) {
	type pair struct {
		A int
		B string
	}
	assignB := func(target, v interface{}) error {
		target.(*pair).B = v.(string)
		return nil
	}
	desc, err := NewBuilder(reflect.TypeOf(pair{})).
		Name("pair").
		Constructor(func(args []interface{}) (interface{}, error) { return &pair{A: args[0].(int)}, nil }).
		Parameter("a", reflect.TypeOf(0), WithAliases("a", "alpha"), WithDefault(7)).
		Field("b", reflect.TypeOf(""), assignB).
		Wrapper("check", func(target interface{}, args []interface{}) error { return nil }, Param("strict", reflect.TypeOf(false))).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "pair", desc.String())
	bindings := desc.Bindings()
	require.Len(t, bindings, 3)
	assert.Equal(t, []string{"a", "alpha"}, bindings[0].Aliases)
	assert.Equal(t, 7, bindings[0].Zero())
	assert.Equal(t, []string{"b"}, bindings[1].Aliases)
	assert.Equal(t, "", bindings[1].Zero())
	assert.Equal(t, WrapperParameter, bindings[2].Category)
	assert.Equal(t, false, bindings[2].Zero())
}

func TestValidate(t *testing.T) {
	ctor := func(args []interface{}) (interface{}, error) { return nil, nil }
	assign := func(target, v interface{}) error { return nil }
	var testCases = []struct {
		description string
		builder     *Builder
		expect      error
	}{
		{description: "no constructor", builder: NewBuilder(reflect.TypeOf(0)), expect: jherrors.ErrNoConstructor},
		{description: "no factory", builder: NewBuilder(reflect.TypeOf(0)).Factory(nil), expect: jherrors.ErrNoConstructor},
		{description: "empty alias", builder: NewBuilder(reflect.TypeOf(0)).Constructor(ctor).Field("a", reflect.TypeOf(0), assign, WithAliases("")), expect: jherrors.ErrEmptyAlias},
		{description: "no aliases", builder: NewBuilder(reflect.TypeOf(0)).Constructor(ctor).Field("a", reflect.TypeOf(0), assign, WithAliases()), expect: jherrors.ErrEmptyAlias},
		{description: "no assign", builder: NewBuilder(reflect.TypeOf(0)).Constructor(ctor).Field("a", reflect.TypeOf(0), nil), expect: jherrors.ErrInvalidDescriptor},
		{description: "no type", builder: NewBuilder(reflect.TypeOf(0)).Constructor(ctor).Parameter("a", nil), expect: jherrors.ErrInvalidDescriptor},
		{description: "wrong wrapper param", builder: NewBuilder(reflect.TypeOf(0)).Constructor(ctor).Wrapper("w", func(interface{}, []interface{}) error { return nil }, NewBinding("p", Field, reflect.TypeOf(0))), expect: jherrors.ErrInvalidDescriptor},
	}
	for _, testCase := range testCases {
		_, err := testCase.builder.Build()
		assert.ErrorIs(t, err, testCase.expect, testCase.description)
	}
	assert.ErrorIs(t, Validate(nil), jherrors.ErrInvalidDescriptor)
}

func bindingNames(bindings []*Binding) []string {
	var result []string
	for _, binding := range bindings {
		result = append(result, binding.Name)
	}
	return result
}

type profileHas struct {
	Name  bool
	Email bool
}

type profile struct {
	Name  string
	Email string
	Has   *profileHas `presenceMarker:"true"`
}

func TestNewPresence(t *testing.T) {
	desc, err := FromStruct(reflect.TypeOf(profile{}))
	require.NoError(t, err)
	require.NotNil(t, desc.Presence)
	assert.Equal(t, "Has", desc.Presence.Holder())
	assert.Len(t, desc.Fields, 2)

	target := &profile{}
	assert.False(t, desc.Presence.IsSet(target, "Email"))
	desc.Presence.Mark(target, "Email")
	desc.Presence.Mark(target, "Missing")
	require.NotNil(t, target.Has)
	assert.Equal(t, &profileHas{Email: true}, target.Has)
	assert.True(t, desc.Presence.IsSet(target, "Email"))
	assert.False(t, desc.Presence.IsSet(target, "Name"))

	type broken struct {
		Name string
		Has  int `presenceMarker:"true"`
	}
	_, err = FromStruct(reflect.TypeOf(broken{}))
	assert.True(t, errors.Is(err, jherrors.ErrInvalidDescriptor))

	presence, err := NewPresence(reflect.TypeOf(account{}))
	require.NoError(t, err)
	assert.Nil(t, presence)
}

func TestFromStruct_DefaultTag(t *testing.T) {
	type settings struct {
		Currency string    `jsonhash:"default=USD"`
		Limit    int       `jsonhash:"from=limit,default=10"`
		Ratio    float64   `jsonhash:"default=0.5"`
		Tags     []string  `jsonhash:"default='[\"a\",\"b\"]'"`
		Since    time.Time `jsonhash:"default=2020-01-02T00:00:00Z"`
		Plain    bool
	}
	desc, err := FromStruct(reflect.TypeOf(settings{}))
	require.NoError(t, err)
	defaults := map[string]interface{}{}
	for _, field := range desc.Fields {
		defaults[field.Name] = field.Default
	}
	assert.Equal(t, map[string]interface{}{
		"Currency": "USD",
		"Limit":    10,
		"Ratio":    0.5,
		"Tags":     []string{"a", "b"},
		"Since":    time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		"Plain":    nil,
	}, defaults)

	type invalid struct {
		Limit int `jsonhash:"default=ten"`
	}
	_, err = FromStruct(reflect.TypeOf(invalid{}))
	assert.True(t, errors.Is(err, jherrors.ErrInvalidDescriptor))
}
