package riak_engine

import (
	"testing"

	engine "docbench/benchmark/engines/abstract"

	"github.com/basho/riak-go-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var table = engine.Table{Namespace: "bench", Database: "bench", Name: "small"}

func TestBucket(t *testing.T) {
	assert.Equal(t, "bench.bench.small", bucket(table))
}

// commands are built without a connection, so no riak node is needed
func TestBuildCommands(t *testing.T) {
	r := &Riak{BucketType: "default"}

	cmd, err := r.storeCommand(table, "a", []byte(`{"name":"a"}`))
	require.NoError(t, err)
	assert.IsType(t, &riak.StoreValueCommand{}, cmd)

	cmd, err = r.fetchCommand(table, "a")
	require.NoError(t, err)
	assert.IsType(t, &riak.FetchValueCommand{}, cmd)

	cmd, err = r.listKeysCommand(table)
	require.NoError(t, err)
	assert.IsType(t, &riak.ListKeysCommand{}, cmd)

	cmd, err = r.deleteCommand(table, "a")
	require.NoError(t, err)
	assert.IsType(t, &riak.DeleteValueCommand{}, cmd)
}

func TestBuildCommandsRequireKey(t *testing.T) {
	r := &Riak{}

	_, err := r.fetchCommand(table, "")
	assert.Equal(t, riak.ErrKeyRequired, err)

	_, err = r.deleteCommand(table, "")
	assert.Equal(t, riak.ErrKeyRequired, err)
}

func TestConfigs(t *testing.T) {
	r := &Riak{BucketType: "maps", addresses: []string{"a:8087", "b:8087"}}
	assert.Equal(t, map[string]string{
		"engine":     "riak",
		"bucketType": "maps",
		"sites":      "a:8087,b:8087",
	}, r.GetConfigs())
}
