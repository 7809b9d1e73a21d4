package leveldb

import (
	"context"
	"strconv"

	engine "docbench/benchmark/engines/abstract"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"gopkg.in/yaml.v3"
)

// LevelDB stores each record under <ns>/<db>/<table>\x00<id>.
type LevelDB struct {
	Sync        bool `yaml:"sync"`
	path        string
	db          *leveldb.DB
	writeOption *opt.WriteOptions
}

func New(path string, configData []byte) (*LevelDB, error) {
	l := &LevelDB{path: path}
	if err := yaml.Unmarshal(configData, l); err != nil {
		return nil, errors.Wrap(err, "could not parse leveldb configuration")
	}

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open leveldb database %s", path)
	}
	l.db = db
	l.writeOption = &opt.WriteOptions{Sync: l.Sync}
	return l, nil
}

func prefix(t engine.Table) []byte {
	return []byte(t.String() + "\x00")
}

func key(t engine.Table, id string) []byte {
	return append(prefix(t), id...)
}

func (l *LevelDB) Put(_ context.Context, t engine.Table, id string, content []byte) ([]byte, error) {
	if err := l.db.Put(key(t, id), content, l.writeOption); err != nil {
		return nil, errors.Wrapf(err, "leveldb put %s:%s", t.Name, id)
	}
	return content, nil
}

func (l *LevelDB) Get(_ context.Context, t engine.Table, id string) ([]byte, error) {
	v, err := l.db.Get(key(t, id), nil)
	if err == leveldb.ErrNotFound {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "leveldb get %s:%s", t.Name, id)
	}
	return v, nil
}

func (l *LevelDB) Scan(_ context.Context, t engine.Table, fn func(engine.Row) bool) error {
	p := prefix(t)
	iter := l.db.NewIterator(util.BytesPrefix(p), nil)
	defer iter.Release()

	for iter.Next() {
		// the iterator reuses its buffers
		content := append([]byte(nil), iter.Value()...)
		if !fn(engine.Row{ID: string(iter.Key()[len(p):]), Content: content}) {
			break
		}
	}
	return errors.Wrapf(iter.Error(), "leveldb scan %s", t)
}

func (l *LevelDB) RemoveTable(_ context.Context, t engine.Table) error {
	iter := l.db.NewIterator(util.BytesPrefix(prefix(t)), nil)
	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return errors.Wrapf(err, "leveldb remove %s", t)
	}

	return errors.Wrapf(l.db.Write(batch, l.writeOption), "leveldb remove %s", t)
}

func (l *LevelDB) GetConfigs() map[string]string {
	return map[string]string{
		"engine": "leveldb",
		"path":   l.path,
		"sync":   strconv.FormatBool(l.Sync),
	}
}

func (l *LevelDB) GetMetrics(context.Context) map[string]string {
	sizes, err := l.db.SizeOf([]util.Range{{Start: []byte{}, Limit: []byte{0xff, 0xff, 0xff, 0xff}}})
	if err != nil {
		return map[string]string{"size": "n/a"}
	}
	return map[string]string{"size": strconv.FormatInt(sizes.Sum(), 10)}
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
