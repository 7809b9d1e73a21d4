package store

import (
	"context"
	"path/filepath"
	"testing"

	engine "docbench/benchmark/engines/abstract"
	"docbench/record"
	"docbench/store/ddl"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func connect(t *testing.T, engineName string) *Store {
	t.Helper()
	location := filepath.Join(t.TempDir(), "storage")
	st, err := Connect(context.Background(), engineName, location, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Use("test", "test"))
	return st
}

// engines that need no server
var localEngines = []string{EngineMemory, EngineSqlite, EngineLevelDB, EngineAutomerge}

func TestConnectUnknownEngine(t *testing.T) {
	_, err := Connect(context.Background(), "surreal", "", nil)
	assert.Equal(t, ErrUnknownEngine, errors.Cause(err))
}

func TestRequiresUse(t *testing.T) {
	ctx := context.Background()
	st, err := Connect(ctx, EngineMemory, "", nil)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Update(ctx, "small", "a", []byte(`{}`))
	assert.Equal(t, ErrNoDatabase, errors.Cause(err))
	assert.Equal(t, ErrNoDatabase, errors.Cause(st.Query(ctx, "REMOVE TABLE small")))
	assert.Equal(t, ErrNoDatabase, errors.Cause(st.Use("", "db")))
}

// "a/b"+"c" and "a"+"b/c" would share the row prefix "a/b/c"
func TestRejectsSeparatorInNames(t *testing.T) {
	ctx := context.Background()
	st := connect(t, EngineMemory)

	assert.Equal(t, ErrInvalidName, errors.Cause(st.Use("a/b", "c")))
	assert.Equal(t, ErrInvalidName, errors.Cause(st.Use("a", "b/c")))
	assert.Equal(t, ErrInvalidName, errors.Cause(st.Use("a\x00", "c")))
	assert.Equal(t, "memory/test/test", st.String())

	_, err := st.Update(ctx, "x/y", "a", []byte(`{}`))
	assert.Equal(t, ErrInvalidName, errors.Cause(err))
	_, err = st.Select(ctx, "x/y")
	assert.Equal(t, ErrInvalidName, errors.Cause(err))
	assert.Equal(t, ErrInvalidName, errors.Cause(st.Query(ctx, "REMOVE TABLE x/y")))
	assert.Equal(t, ErrInvalidName, errors.Cause(st.Query(ctx, "DEFINE TABLE x/y SCHEMAFULL")))
	_, ok := st.Definition("x/y")
	assert.False(t, ok)
}

func TestUpdateUpserts(t *testing.T) {
	for _, name := range localEngines {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := connect(t, name)

			_, err := st.Update(ctx, "small", "a", []byte(`{"int":1,"string":"x"}`))
			require.NoError(t, err)
			stored, err := st.Update(ctx, "small", "a", []byte(`{"int":2,"string":"y"}`))
			require.NoError(t, err)
			assert.Equal(t, int64(2), gjson.GetBytes(stored, "int").Int())

			got, err := st.Get(ctx, "small", "a")
			require.NoError(t, err)
			assert.JSONEq(t, `{"int":2,"string":"y"}`, string(got))

			n, err := st.Count(ctx, "small")
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			_, err = st.Get(ctx, "small", "b")
			assert.Equal(t, engine.ErrNotFound, errors.Cause(err))
		})
	}
}

func TestSelectIsolatesTables(t *testing.T) {
	for _, name := range localEngines {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := connect(t, name)

			for _, key := range []string{"c", "a", "b"} {
				_, err := st.Update(ctx, "small", key, []byte(`{"int":1}`))
				require.NoError(t, err)
			}
			_, err := st.Update(ctx, "smaller", "z", []byte(`{"int":1}`))
			require.NoError(t, err)

			// same table in another database
			require.NoError(t, st.Use("test", "other"))
			_, err = st.Update(ctx, "small", "d", []byte(`{"int":1}`))
			require.NoError(t, err)
			require.NoError(t, st.Use("test", "test"))

			rows, err := st.Select(ctx, "small")
			require.NoError(t, err)
			ids := []string{}
			for _, r := range rows {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, []string{"a", "b", "c"}, ids)
		})
	}
}

func TestRemoveTable(t *testing.T) {
	for _, name := range localEngines {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := connect(t, name)

			_, err := st.Update(ctx, "small", "a", []byte(`{"int":1}`))
			require.NoError(t, err)
			_, err = st.Update(ctx, "medium", "a", []byte(`{"array":[]}`))
			require.NoError(t, err)

			require.NoError(t, st.Query(ctx, "REMOVE TABLE small; REMOVE TABLE large"))

			n, err := st.Count(ctx, "small")
			require.NoError(t, err)
			assert.Zero(t, n)
			n, err = st.Count(ctx, "medium")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestQueryStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	st := connect(t, EngineMemory)

	err := st.Query(ctx, "DEFINE TABLE a SCHEMAFULL; DEFINE FIELD x ON TABLE a TYPE money; DEFINE TABLE b SCHEMAFULL")
	assert.Equal(t, ddl.ErrUnknownType, errors.Cause(err))

	_, ok := st.Definition("a")
	assert.True(t, ok)
	_, ok = st.Definition("b")
	assert.False(t, ok)

	assert.Equal(t, ddl.ErrEmptyStatement, errors.Cause(st.Query(ctx, " ; ")))
}

func TestSchemafullDropsUndeclaredFields(t *testing.T) {
	ctx := context.Background()
	st := connect(t, EngineMemory)

	require.NoError(t, st.Query(ctx, "DEFINE TABLE small SCHEMAFULL; DEFINE FIELD int ON TABLE small TYPE int"))

	stored, err := st.Update(ctx, "small", "a", []byte(`{"int":7,"extra":"x"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"int":7}`, string(stored))

	_, err = st.Update(ctx, "small", "b", []byte(`{"int":"seven"}`))
	assert.Equal(t, ddl.ErrFieldType, errors.Cause(err))
}

// A single unconstrained Small update leaves exactly that row
func TestUnconstrainedSmallUpdate(t *testing.T) {
	ctx := context.Background()
	st := connect(t, EngineMemory)
	require.NoError(t, st.Query(ctx, "REMOVE TABLE small"))

	s := record.NewGenerator(10).Small()
	id, err := record.IdentifierOf(s)
	require.NoError(t, err)
	thing, err := record.ParseThing(id)
	require.NoError(t, err)
	content, err := record.Content(s)
	require.NoError(t, err)

	_, err = st.Update(ctx, thing.Table, thing.Key, content)
	require.NoError(t, err)

	rows, err := st.Select(ctx, "small")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, thing.Key, rows[0].ID)
	assert.Equal(t, int64(s.Int), gjson.GetBytes(rows[0].Content, "int").Int())
	assert.Equal(t, s.String, gjson.GetBytes(rows[0].Content, "string").String())
}

// A declared Medium schema rejects a malformed linked_thing
func TestConstrainedMediumRejectsMalformedLink(t *testing.T) {
	ctx := context.Background()
	st := connect(t, EngineMemory)

	for _, stmt := range record.DefinitionStatements(record.KindMedium) {
		require.NoError(t, st.Query(ctx, stmt))
	}

	g := record.NewGenerator(11)
	m := g.Medium()
	content, err := record.Content(m)
	require.NoError(t, err)
	thing, err := record.ParseThing(m.ID)
	require.NoError(t, err)

	_, err = st.Update(ctx, thing.Table, thing.Key, content)
	require.NoError(t, err)

	m = g.Medium()
	m.LinkedThing = "not a thing"
	content, err = record.Content(m)
	require.NoError(t, err)
	thing, err = record.ParseThing(m.ID)
	require.NoError(t, err)

	_, err = st.Update(ctx, thing.Table, thing.Key, content)
	require.Error(t, err)
	assert.Equal(t, ddl.ErrFieldType, errors.Cause(err))
	assert.Contains(t, err.Error(), "linked_thing")

	n, err := st.Count(ctx, "medium")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConfigs(t *testing.T) {
	st := connect(t, EngineLevelDB)
	configs := st.GetConfigs()
	assert.Equal(t, EngineLevelDB, configs["engine"])
	assert.NotEmpty(t, st.GetMetrics(context.Background())["size"])
	assert.Equal(t, "leveldb/test/test", st.String())
}
