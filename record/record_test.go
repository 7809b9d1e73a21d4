package record

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var (
	smallID  = regexp.MustCompile(`^small:[A-Za-z0-9]{20}$`)
	mediumID = regexp.MustCompile(`^medium:[A-Za-z0-9]{20}$`)
	largeID  = regexp.MustCompile(`^large:[A-Za-z0-9]{20}$`)
)

func TestGenerateSmall(t *testing.T) {
	g := NewGenerator(1)

	for i := 0; i < 100; i++ {
		s := g.Small()
		assert.Regexp(t, smallID, s.ID)
		assert.NotEmpty(t, s.String)
	}
}

func TestGenerateMedium(t *testing.T) {
	g := NewGenerator(2)

	for i := 0; i < 20; i++ {
		m := g.Medium()
		assert.Regexp(t, mediumID, m.ID)
		assert.Len(t, m.NestedSmalls, NestedSmalls)
		assert.Len(t, m.Array, MediumArrayLen)
		require.NotNil(t, m.OptVec)
		assert.Len(t, m.OptVec, MediumOptVecLen)
		require.NotNil(t, m.OptString)
		require.NotNil(t, m.OptInt)
		assert.Regexp(t, smallID, m.LinkedThing)

		for _, s := range m.NestedSmalls {
			assert.Regexp(t, smallID, s.ID)
		}
	}
}

func TestGenerateLarge(t *testing.T) {
	g := NewGenerator(3)

	for i := 0; i < 5; i++ {
		l := g.Large()
		assert.Regexp(t, largeID, l.ID)
		assert.Len(t, l.NestedMediums, NestedMediums)
		assert.True(t, len(l.OptObject) <= 255)
		assert.True(t, len(l.NestedArrayInObject) <= 255)
		for _, v := range l.NestedArrayInObject {
			assert.Len(t, v, NestedObjectVecLen)
		}
		require.Len(t, l.Strings(), LargeStrings)
		for _, s := range l.Strings() {
			assert.NotEmpty(t, s)
		}
		require.NotNil(t, l.OptInt)
		require.NotNil(t, l.OptString)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Content(NewGenerator(42).Large())
	require.NoError(t, err)
	b, err := Content(NewGenerator(42).Large())
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}

func TestGenerateUniqueIdentifiers(t *testing.T) {
	for _, kind := range AllKinds() {
		t.Run(kind.String(), func(t *testing.T) {
			g := NewGenerator(0)
			n := 200
			if kind == KindLarge {
				n = 20
			}

			seen := map[string]struct{}{}
			for i := 0; i < n; i++ {
				r, err := g.Generate(kind)
				require.NoError(t, err)
				id, err := IdentifierOf(r)
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(id, kind.Table()+":"))
				seen[id] = struct{}{}
			}
			assert.Len(t, seen, n)
		})
	}
}

func TestGenerateUnknownKind(t *testing.T) {
	_, err := NewGenerator(1).Generate(Kind(7))
	assert.Equal(t, ErrUnknownKind, errors.Cause(err))
}

func TestContentOmitsIdentifier(t *testing.T) {
	g := NewGenerator(5)

	b, err := Content(g.Small())
	require.NoError(t, err)
	res := gjson.ParseBytes(b)
	assert.False(t, res.Get("id").Exists())
	assert.False(t, res.Get("ID").Exists())
	assert.True(t, res.Get("int").Exists())
	assert.True(t, res.Get("string").Exists())

	b, err = Content(g.Medium())
	require.NoError(t, err)
	res = gjson.ParseBytes(b)
	assert.Equal(t, int64(NestedSmalls), res.Get("nested_smalls.#").Int())
	assert.False(t, res.Get("nested_smalls.0.ID").Exists())
	assert.True(t, strings.HasPrefix(res.Get("linked_thing").String(), "small:"))

	b, err = Content(g.Large())
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &fields))
	// 3 containers, 6 integers, opt_int, 20 strings, opt_string
	assert.Len(t, fields, 31)
}

func TestIdentifierOf(t *testing.T) {
	_, err := IdentifierOf(&Small{})
	assert.Equal(t, ErrMissingIdentifier, err)

	_, err = IdentifierOf(nil)
	assert.Equal(t, ErrMissingIdentifier, err)

	id, err := IdentifierOf(&Medium{ID: "medium:abc"})
	require.NoError(t, err)
	assert.Equal(t, "medium:abc", id)
}

func TestParseThing(t *testing.T) {
	th, err := ParseThing("small:abc:def")
	require.NoError(t, err)
	assert.Equal(t, Thing{Table: "small", Key: "abc:def"}, th)
	assert.Equal(t, "small:abc:def", th.String())

	for _, bad := range []string{"", "small", ":abc", "small:"} {
		_, err := ParseThing(bad)
		assert.Equal(t, ErrInvalidThing, errors.Cause(err), bad)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Medium ")
	require.NoError(t, err)
	assert.Equal(t, KindMedium, k)
	assert.Equal(t, "Medium", k.Title())

	_, err = ParseKind("huge")
	assert.Equal(t, ErrUnknownKind, errors.Cause(err))

	kinds, err := ParseKinds(nil)
	require.NoError(t, err)
	assert.Equal(t, AllKinds(), kinds)
}

func TestDefinitionStatements(t *testing.T) {
	for _, kind := range AllKinds() {
		first := DefinitionStatements(kind)
		second := DefinitionStatements(kind)
		require.Equal(t, first, second)
		require.NotEmpty(t, first)
		assert.Equal(t, "DEFINE TABLE "+kind.Table()+" SCHEMAFULL", first[0])

		// mutating a returned slice must not leak into later calls
		first[0] = "changed"
		assert.NotEqual(t, "changed", DefinitionStatements(kind)[0])
	}

	assert.Len(t, DefinitionStatements(KindSmall), 1+2)
	assert.Len(t, DefinitionStatements(KindMedium), 1+6)
	assert.Len(t, DefinitionStatements(KindLarge), 1+31)
	assert.Empty(t, DefinitionStatements(Kind(9)))
}
