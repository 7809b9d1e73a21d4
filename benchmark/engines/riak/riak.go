package riak_engine

import (
	"context"
	"strings"

	engine "docbench/benchmark/engines/abstract"

	"github.com/basho/riak-go-client"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Riak stores each table in its own bucket, named <ns>.<db>.<table>.
type Riak struct {
	BucketType string `yaml:"bucketType"`
	addresses  []string
	client     *riak.Client
}

// New connects to the comma separated list of riak nodes.
func New(connection string, configData []byte) (*Riak, error) {
	r := &Riak{BucketType: "default"}
	if err := yaml.Unmarshal(configData, r); err != nil {
		return nil, errors.Wrap(err, "could not parse riak configuration")
	}

	for _, a := range strings.Split(connection, ",") {
		if a = strings.TrimSpace(a); a != "" {
			r.addresses = append(r.addresses, a)
		}
	}

	client, err := riak.NewClient(&riak.NewClientOptions{RemoteAddresses: r.addresses})
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to riak %v", r.addresses)
	}
	r.client = client
	return r, nil
}

func bucket(t engine.Table) string {
	return t.Namespace + "." + t.Database + "." + t.Name
}

func (r *Riak) storeCommand(t engine.Table, id string, content []byte) (riak.Command, error) {
	obj := &riak.Object{
		ContentType: "application/json",
		Value:       content,
	}
	return riak.NewStoreValueCommandBuilder().
		WithBucketType(r.BucketType).
		WithBucket(bucket(t)).
		WithKey(id).
		WithContent(obj).
		Build()
}

func (r *Riak) fetchCommand(t engine.Table, id string) (riak.Command, error) {
	return riak.NewFetchValueCommandBuilder().
		WithBucketType(r.BucketType).
		WithBucket(bucket(t)).
		WithKey(id).
		Build()
}

func (r *Riak) listKeysCommand(t engine.Table) (riak.Command, error) {
	return riak.NewListKeysCommandBuilder().
		WithBucketType(r.BucketType).
		WithBucket(bucket(t)).
		Build()
}

func (r *Riak) deleteCommand(t engine.Table, id string) (riak.Command, error) {
	return riak.NewDeleteValueCommandBuilder().
		WithBucketType(r.BucketType).
		WithBucket(bucket(t)).
		WithKey(id).
		Build()
}

func (r *Riak) Put(_ context.Context, t engine.Table, id string, content []byte) ([]byte, error) {
	cmd, err := r.storeCommand(t, id, content)
	if err != nil {
		return nil, errors.Wrapf(err, "riak store %s:%s", t.Name, id)
	}
	if err := r.client.Execute(cmd); err != nil {
		return nil, errors.Wrapf(err, "riak store %s:%s", t.Name, id)
	}
	return content, nil
}

func (r *Riak) Get(_ context.Context, t engine.Table, id string) ([]byte, error) {
	cmd, err := r.fetchCommand(t, id)
	if err != nil {
		return nil, errors.Wrapf(err, "riak fetch %s:%s", t.Name, id)
	}
	if err := r.client.Execute(cmd); err != nil {
		return nil, errors.Wrapf(err, "riak fetch %s:%s", t.Name, id)
	}

	result := cmd.(*riak.FetchValueCommand).Response
	if result == nil || result.IsNotFound || len(result.Values) == 0 {
		return nil, engine.ErrNotFound
	}
	return result.Values[0].Value, nil
}

func (r *Riak) keys(t engine.Table) ([]string, error) {
	cmd, err := r.listKeysCommand(t)
	if err != nil {
		return nil, errors.Wrapf(err, "riak list keys %s", t)
	}
	if err := r.client.Execute(cmd); err != nil {
		return nil, errors.Wrapf(err, "riak list keys %s", t)
	}
	return cmd.(*riak.ListKeysCommand).Response.Keys, nil
}

// Scan lists the keys of the bucket, which riak only recommends outside of
// production traffic. It is only used to inspect results.
func (r *Riak) Scan(ctx context.Context, t engine.Table, fn func(engine.Row) bool) error {
	keys, err := r.keys(t)
	if err != nil {
		return err
	}

	for _, k := range keys {
		content, err := r.Get(ctx, t, k)
		if errors.Cause(err) == engine.ErrNotFound {
			continue
		}
		if err != nil {
			return err
		}
		if !fn(engine.Row{ID: k, Content: content}) {
			break
		}
	}
	return nil
}

func (r *Riak) RemoveTable(_ context.Context, t engine.Table) error {
	keys, err := r.keys(t)
	if err != nil {
		return err
	}

	for _, k := range keys {
		cmd, err := r.deleteCommand(t, k)
		if err != nil {
			return errors.Wrapf(err, "riak delete %s:%s", t.Name, k)
		}
		if err := r.client.Execute(cmd); err != nil {
			return errors.Wrapf(err, "riak delete %s:%s", t.Name, k)
		}
	}
	return nil
}

func (r *Riak) GetConfigs() map[string]string {
	return map[string]string{
		"engine":     "riak",
		"bucketType": r.BucketType,
		"sites":      strings.Join(r.addresses, ","),
	}
}

func (r *Riak) GetMetrics(context.Context) map[string]string {
	return map[string]string{}
}

func (r *Riak) Close() error {
	return r.client.Stop()
}
