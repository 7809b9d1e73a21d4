package automerge_engine

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	engine "docbench/benchmark/engines/abstract"
	"docbench/util"

	"github.com/automerge/automerge-go"
	"github.com/pkg/errors"
)

// Automerge keeps each record as an automerge document in memory. Every top
// level field of a record is a key of the document's root map, holding the
// field's json encoding.
type Automerge struct {
	lock   sync.RWMutex
	tables map[string]map[string]*automerge.Doc
}

func New() *Automerge {
	return &Automerge{tables: map[string]map[string]*automerge.Doc{}}
}

// Applies content to doc, removing the fields the new content no longer has
func apply(doc *automerge.Doc, content []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(content, &fields); err != nil {
		return errors.Wrap(err, "automerge documents must be json objects")
	}

	root := doc.RootMap()
	keys, err := root.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			if err := root.Delete(k); err != nil {
				return err
			}
		}
	}

	for k, v := range fields {
		if err := root.Set(k, string(v)); err != nil {
			return errors.Wrapf(err, "automerge set %s", k)
		}
	}
	return nil
}

func render(doc *automerge.Doc) ([]byte, error) {
	root := doc.RootMap()
	keys, err := root.Keys()
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		v, err := automerge.As[string](root.Get(k))
		if err != nil {
			return nil, errors.Wrapf(err, "automerge get %s", k)
		}
		fields[k] = json.RawMessage(v)
	}
	return json.Marshal(fields)
}

func (a *Automerge) Put(_ context.Context, t engine.Table, id string, content []byte) ([]byte, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	docs := a.tables[t.String()]
	if docs == nil {
		docs = map[string]*automerge.Doc{}
		a.tables[t.String()] = docs
	}

	doc := docs[id]
	if doc == nil {
		doc = automerge.New()
	}
	if err := apply(doc, content); err != nil {
		return nil, errors.Wrapf(err, "automerge put %s:%s", t.Name, id)
	}
	docs[id] = doc

	return render(doc)
}

func (a *Automerge) Get(_ context.Context, t engine.Table, id string) ([]byte, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	doc := a.tables[t.String()][id]
	if doc == nil {
		return nil, engine.ErrNotFound
	}
	return render(doc)
}

func (a *Automerge) Scan(_ context.Context, t engine.Table, fn func(engine.Row) bool) error {
	a.lock.RLock()
	defer a.lock.RUnlock()

	docs := a.tables[t.String()]
	for _, id := range util.SortedKeys(docs) {
		content, err := render(docs[id])
		if err != nil {
			return errors.Wrapf(err, "automerge scan %s", t)
		}
		if !fn(engine.Row{ID: id, Content: content}) {
			break
		}
	}
	return nil
}

func (a *Automerge) RemoveTable(_ context.Context, t engine.Table) error {
	a.lock.Lock()
	delete(a.tables, t.String())
	a.lock.Unlock()
	return nil
}

func (a *Automerge) GetConfigs() map[string]string {
	return map[string]string{"engine": "automerge"}
}

// Reports the number of documents and the size of their saved (compacted) form
func (a *Automerge) GetMetrics(context.Context) map[string]string {
	a.lock.RLock()
	defer a.lock.RUnlock()

	docs, size := 0, 0
	for _, table := range a.tables {
		for _, doc := range table {
			docs++
			size += len(doc.Save())
		}
	}
	return map[string]string{
		"rows": strconv.Itoa(docs),
		"size": strconv.Itoa(size),
	}
}

func (a *Automerge) Close() error {
	return nil
}
