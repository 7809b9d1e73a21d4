package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	engine "docbench/benchmark/engines/abstract"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, config string) (*Sqlite, error) {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "bench.db"), []byte(config))
	if err == nil {
		t.Cleanup(func() { s.Close() })
	}
	return s, err
}

func TestSynchronousDefault(t *testing.T) {
	s, err := open(t, "")
	require.NoError(t, err)
	assert.Equal(t, "NORMAL", s.GetConfigs()["synchronous"])
}

func TestSynchronousCaseInsensitive(t *testing.T) {
	s, err := open(t, "synchronous: full\n")
	require.NoError(t, err)
	assert.Equal(t, "FULL", s.Synchronous)
}

func TestSynchronousRejected(t *testing.T) {
	for _, mode := range []string{"NORMAL; DROP TABLE documents", "fast", "2"} {
		_, err := open(t, "synchronous: \""+mode+"\"\n")
		assert.Equal(t, ErrSynchronous, errors.Cause(err), mode)
	}
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s, err := open(t, "synchronous: OFF\n")
	require.NoError(t, err)
	table := engine.Table{Namespace: "test", Database: "test", Name: "small"}

	_, err = s.Get(ctx, table, "a")
	assert.Equal(t, engine.ErrNotFound, err)

	_, err = s.Put(ctx, table, "a", []byte(`{"int":1}`))
	require.NoError(t, err)
	_, err = s.Put(ctx, table, "a", []byte(`{"int":2}`))
	require.NoError(t, err)

	content, err := s.Get(ctx, table, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"int":2}`, string(content))

	require.NoError(t, s.RemoveTable(ctx, table))
	_, err = s.Get(ctx, table, "a")
	assert.Equal(t, engine.ErrNotFound, err)
}
