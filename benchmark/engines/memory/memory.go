package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"

	engine "docbench/benchmark/engines/abstract"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/btree"
)

const defaultShards = 16

type row struct {
	key     string // <ns>/<db>/<table>\x00<id>
	content []byte
}

func byKey(a, b interface{}) bool {
	return a.(*row).key < b.(*row).key
}

type shard struct {
	mu   sync.RWMutex
	rows *btree.BTree
}

// Memory keeps every table in ordered in-process indexes. Tables are spread
// over shards by the hash of their name.
type Memory struct {
	shards []*shard
}

func New() *Memory {
	m := &Memory{shards: make([]*shard, defaultShards)}
	for i := range m.shards {
		m.shards[i] = &shard{rows: btree.NewNonConcurrent(byKey)}
	}
	return m
}

func tablePrefix(t engine.Table) string {
	return t.String() + "\x00"
}

func (m *Memory) getShard(t engine.Table) *shard {
	return m.shards[xxhash.Sum64String(t.String())%uint64(len(m.shards))]
}

func (m *Memory) Put(_ context.Context, table engine.Table, id string, content []byte) ([]byte, error) {
	s := m.getShard(table)
	stored := append([]byte(nil), content...)

	s.mu.Lock()
	s.rows.Set(&row{key: tablePrefix(table) + id, content: stored})
	s.mu.Unlock()

	return stored, nil
}

func (m *Memory) Get(_ context.Context, table engine.Table, id string) ([]byte, error) {
	s := m.getShard(table)

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.rows.Get(&row{key: tablePrefix(table) + id})
	if found == nil {
		return nil, engine.ErrNotFound
	}
	return found.(*row).content, nil
}

func (m *Memory) Scan(_ context.Context, table engine.Table, fn func(engine.Row) bool) error {
	s := m.getShard(table)
	prefix := tablePrefix(table)

	s.mu.RLock()
	defer s.mu.RUnlock()

	s.rows.Ascend(&row{key: prefix}, func(i interface{}) bool {
		r := i.(*row)
		if !strings.HasPrefix(r.key, prefix) {
			return false
		}
		return fn(engine.Row{ID: r.key[len(prefix):], Content: r.content})
	})
	return nil
}

func (m *Memory) RemoveTable(_ context.Context, table engine.Table) error {
	s := m.getShard(table)
	prefix := tablePrefix(table)

	s.mu.Lock()
	defer s.mu.Unlock()

	var doomed []interface{}
	s.rows.Ascend(&row{key: prefix}, func(i interface{}) bool {
		if !strings.HasPrefix(i.(*row).key, prefix) {
			return false
		}
		doomed = append(doomed, i)
		return true
	})
	for _, r := range doomed {
		s.rows.Delete(r)
	}
	return nil
}

func (m *Memory) GetConfigs() map[string]string {
	return map[string]string{
		"engine": "memory",
		"shards": strconv.Itoa(len(m.shards)),
	}
}

func (m *Memory) GetMetrics(context.Context) map[string]string {
	total := 0
	for _, s := range m.shards {
		s.mu.RLock()
		total += s.rows.Len()
		s.mu.RUnlock()
	}
	return map[string]string{"rows": strconv.Itoa(total)}
}

func (m *Memory) Close() error {
	return nil
}
