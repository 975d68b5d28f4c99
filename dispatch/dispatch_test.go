package dispatch

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonhash/descriptor"
	jherrors "github.com/viant/jsonhash/errors"
	"github.com/viant/jsonhash/hash"
)

const (
	// zeroAlias hashes to the sentinel value.
	zeroAlias = "fxdsatwp"
	// collidingA and collidingB share hash 0xa1bc9a4f.
	collidingA = "glbvs"
	collidingB = "yacxa"
)

func newDescriptor(t *testing.T, fields map[string][]string, order ...string) *descriptor.ClassDescriptor {
	builder := descriptor.NewBuilder(reflect.TypeOf(struct{}{})).
		Constructor(func([]interface{}) (interface{}, error) { return &struct{}{}, nil })
	assign := func(target, v interface{}) error { return nil }
	for _, name := range order {
		builder.Field(name, reflect.TypeOf(0), assign, descriptor.WithAliases(fields[name]...))
	}
	desc, err := builder.Build()
	require.NoError(t, err)
	return desc
}

func TestDetect(t *testing.T) {
	require.Equal(t, hash.Sentinel, hash.String(zeroAlias))
	require.Equal(t, hash.String(collidingA), hash.String(collidingB))

	var testCases = []struct {
		description     string
		fields          map[string][]string
		order           []string
		expectKind      CollisionKind
		expectCases     int
		expectCollision []string
	}{
		{
			description: "distinct hashes",
			fields:      map[string][]string{"A": {"a", "alpha"}, "B": {"b"}},
			order:       []string{"A", "B"},
			expectCases: 3,
		},
		{
			description:     "sentinel hash",
			fields:          map[string][]string{"A": {"a"}, "B": {zeroAlias}},
			order:           []string{"A", "B"},
			expectKind:      SentinelHash,
			expectCollision: []string{zeroAlias},
		},
		{
			description:     "cross binding collision",
			fields:          map[string][]string{"A": {collidingA}, "B": {collidingB}},
			order:           []string{"A", "B"},
			expectKind:      HashCollision,
			expectCollision: []string{collidingA, collidingB},
		},
		{
			description: "same binding collision merges",
			fields:      map[string][]string{"A": {collidingB, collidingA}, "B": {"b"}},
			order:       []string{"A", "B"},
			expectCases: 2,
		},
		{
			description: "repeated alias on one binding",
			fields:      map[string][]string{"A": {"a", "a"}},
			order:       []string{"A"},
			expectCases: 1,
		},
	}

	for _, testCase := range testCases {
		report, err := Detect(newDescriptor(t, testCase.fields, testCase.order...))
		require.NoError(t, err, testCase.description)
		if testCase.expectKind != 0 {
			require.NotNil(t, report.Collision, testCase.description)
			assert.False(t, report.Clean(), testCase.description)
			assert.Nil(t, report.Table, testCase.description)
			assert.Equal(t, testCase.expectKind, report.Collision.Kind, testCase.description)
			assert.Equal(t, testCase.expectCollision, report.Collision.Aliases, testCase.description)
			continue
		}
		require.True(t, report.Clean(), testCase.description)
		assert.Equal(t, testCase.expectCases, report.Table.Len(), testCase.description)
		for _, alias := range report.Aliases {
			slot, ok := report.Table.Lookup(alias.Hash)
			assert.True(t, ok, testCase.description)
			assert.Equal(t, alias.Binding, slot, testCase.description)
		}
	}
}

func TestDetect_MergedCase(t *testing.T) {
	report, err := Detect(newDescriptor(t, map[string][]string{"A": {collidingB, collidingA}}, "A"))
	require.NoError(t, err)
	require.Equal(t, 1, report.Table.Len())
	assert.Equal(t, Case{Hash: hash.String(collidingA), Aliases: []string{collidingA, collidingB}, Binding: 0}, report.Table.Cases()[0])
}

func TestDetect_OneCasePerHash(t *testing.T) {
	fields := map[string][]string{"A": {collidingA, "a", collidingB}, "B": {"b", "beta"}}
	report, err := Detect(newDescriptor(t, fields, "A", "B"))
	require.NoError(t, err)
	require.True(t, report.Clean())

	hashes := map[uint32]bool{}
	for _, alias := range report.Aliases {
		hashes[alias.Hash] = true
	}
	assert.Len(t, report.Aliases, 5)
	assert.Equal(t, len(hashes), report.Table.Len())
	var listed int
	for _, c := range report.Table.Cases() {
		listed += len(c.Aliases)
	}
	assert.Equal(t, len(report.Aliases), listed)
}

func TestCheckAliases_SharedAcrossBindings(t *testing.T) {
	desc := newDescriptor(t, map[string][]string{"A": {"a", "x"}, "B": {"x"}}, "A", "B")
	err := descriptor.CheckAliases(desc)
	require.Error(t, err)
	assert.ErrorIs(t, err, jherrors.ErrDuplicateAlias)
	assert.Contains(t, err.Error(), `"x" on field A and field B`)
}

func TestDetect_Ordering(t *testing.T) {
	fields := map[string][]string{"A": {"a", "alpha"}, "B": {"b"}, "C": {"c", "gamma"}}
	first, err := Detect(newDescriptor(t, fields, "A", "B", "C"))
	require.NoError(t, err)
	for i := 1; i < len(first.Aliases); i++ {
		assert.Less(t, first.Aliases[i-1].Hash, first.Aliases[i].Hash)
	}
	cases := first.Table.Cases()
	for i := 1; i < len(cases); i++ {
		assert.Less(t, cases[i-1].Hash, cases[i].Hash)
	}
	_, ok := first.Table.Lookup(hash.String("missing"))
	assert.False(t, ok)
}

func TestCollect_DuplicateAlias(t *testing.T) {
	assign := func(target, v interface{}) error { return nil }
	desc, err := descriptor.NewBuilder(reflect.TypeOf(struct{}{})).
		Constructor(func([]interface{}) (interface{}, error) { return &struct{}{}, nil }).
		Parameter("p", reflect.TypeOf(0), descriptor.WithAliases("x")).
		Setter("s", reflect.TypeOf(0), assign, descriptor.WithAliases("x")).
		Build()
	require.NoError(t, err)
	_, err = Collect(desc)
	assert.ErrorIs(t, err, jherrors.ErrDuplicateAlias)
	_, err = Detect(desc)
	assert.ErrorIs(t, err, jherrors.ErrDuplicateAlias)
}

func TestCollision_String(t *testing.T) {
	c := &Collision{Kind: HashCollision, Hash: 0xa1bc9a4f, Aliases: []string{collidingA, collidingB}}
	assert.Equal(t, "hash collision 0xa1bc9a4f: glbvs, yacxa", c.String())
}
