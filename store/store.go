// Package store is the client of the document store the benchmarks run
// against. Records are addressed by table and key inside the namespace and
// database selected with Use, schema statements go through Query and
// persistence is delegated to one of the engines.
package store

import (
	"context"
	"strings"
	"sync"

	engine "docbench/benchmark/engines/abstract"
	automerge_engine "docbench/benchmark/engines/automerge"
	"docbench/benchmark/engines/leveldb"
	"docbench/benchmark/engines/memory"
	"docbench/benchmark/engines/postgres"
	riak_engine "docbench/benchmark/engines/riak"
	"docbench/benchmark/engines/sqlite"
	"docbench/store/ddl"

	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
)

const (
	EngineMemory    = "memory"
	EngineSqlite    = "sqlite"
	EnginePostgres  = "postgres"
	EngineLevelDB   = "leveldb"
	EngineRiak      = "riak"
	EngineAutomerge = "automerge"
)

var (
	ErrNoDatabase    = errors.New("no namespace or database selected")
	ErrUnknownEngine = errors.New("unknown engine")
	ErrInvalidName   = errors.New("names must not contain '/' or NUL")
)

// Engines key rows by "ns/db/table" followed by a NUL, which is only
// unambiguous while no part contains either separator.
func checkName(name string) error {
	if strings.ContainsAny(name, "/\x00") {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

// Store is safe for concurrent use.
type Store struct {
	engineName string
	engine     engine.Engine
	catalog    *ddl.Catalog

	lock sync.RWMutex
	ns   string
	db   string
}

// Connect opens the engine with the given name. The meaning of location
// depends on the engine: a file or directory path for sqlite and leveldb, a
// connection string for postgres, a comma separated list of nodes for riak.
// configData is the raw benchmark configuration, from which each engine reads
// its own options.
func Connect(ctx context.Context, engineName string, location string, configData []byte) (*Store, error) {
	var e engine.Engine
	var err error

	switch engineName {
	case EngineMemory:
		e = memory.New()
	case EngineSqlite:
		e, err = sqlite.New(location, configData)
	case EnginePostgres:
		e, err = postgres.New(ctx, location, configData)
	case EngineLevelDB:
		e, err = leveldb.New(location, configData)
	case EngineRiak:
		e, err = riak_engine.New(location, configData)
	case EngineAutomerge:
		e = automerge_engine.New()
	default:
		return nil, errors.Wrapf(ErrUnknownEngine, "%q", engineName)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s at %q", engineName, location)
	}

	zlog.Debug().Str("engine", engineName).Str("location", location).Msg("Connected")
	return New(engineName, e), nil
}

// New wraps an already opened engine.
func New(engineName string, e engine.Engine) *Store {
	return &Store{
		engineName: engineName,
		engine:     e,
		catalog:    ddl.NewCatalog(),
	}
}

// Use selects the namespace and database of the following calls.
func (s *Store) Use(ns, db string) error {
	if ns == "" || db == "" {
		return errors.Wrapf(ErrNoDatabase, "namespace %q, database %q", ns, db)
	}
	for _, name := range []string{ns, db} {
		if err := checkName(name); err != nil {
			return err
		}
	}
	s.lock.Lock()
	s.ns, s.db = ns, db
	s.lock.Unlock()
	return nil
}

func (s *Store) selected() (string, string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.ns == "" || s.db == "" {
		return "", "", ErrNoDatabase
	}
	return s.ns, s.db, nil
}

func (s *Store) table(name string) (engine.Table, error) {
	ns, db, err := s.selected()
	if err != nil {
		return engine.Table{}, err
	}
	if err := checkName(name); err != nil {
		return engine.Table{}, err
	}
	return engine.Table{Namespace: ns, Database: db, Name: name}, nil
}

// Query executes a batch of ';' separated schema statements in order,
// stopping at the first one that fails.
func (s *Store) Query(ctx context.Context, text string) error {
	ns, db, err := s.selected()
	if err != nil {
		return err
	}

	statements := ddl.Split(text)
	if len(statements) == 0 {
		return errors.Wrapf(ddl.ErrEmptyStatement, "query %q", text)
	}

	for _, text := range statements {
		stmt, err := ddl.Parse(text)
		if err != nil {
			return err
		}
		if err := checkName(stmt.Table); err != nil {
			return err
		}

		if stmt.Action == ddl.RemoveTable {
			t := engine.Table{Namespace: ns, Database: db, Name: stmt.Table}
			if err := s.engine.RemoveTable(ctx, t); err != nil {
				return errors.Wrapf(err, "%q", text)
			}
		}
		s.catalog.Apply(ns, db, stmt)
	}
	return nil
}

// Update creates or replaces the record table:key with content, a json object,
// and returns the content as stored.
func (s *Store) Update(ctx context.Context, table, key string, content []byte) ([]byte, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}

	content, err = s.catalog.Validate(t.Namespace, t.Database, table, key, content)
	if err != nil {
		return nil, err
	}
	return s.engine.Put(ctx, t, key, content)
}

// Get returns the content of table:key, engine.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, table, key string) ([]byte, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	return s.engine.Get(ctx, t, key)
}

// Select returns every record of a table, ordered by key when the engine
// keeps an order.
func (s *Store) Select(ctx context.Context, table string) ([]engine.Row, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}

	var rows []engine.Row
	err = s.engine.Scan(ctx, t, func(r engine.Row) bool {
		rows = append(rows, r)
		return true
	})
	return rows, err
}

func (s *Store) Count(ctx context.Context, table string) (int, error) {
	t, err := s.table(table)
	if err != nil {
		return 0, err
	}

	n := 0
	err = s.engine.Scan(ctx, t, func(engine.Row) bool {
		n++
		return true
	})
	return n, err
}

// Definition returns the current definition of a table, if any.
func (s *Store) Definition(table string) (ddl.TableDef, bool) {
	ns, db, err := s.selected()
	if err != nil {
		return ddl.TableDef{}, false
	}
	return s.catalog.Table(ns, db, table)
}

// Returns the engine configurations
func (s *Store) GetConfigs() map[string]string {
	configs := map[string]string{}
	for k, v := range s.engine.GetConfigs() {
		configs[k] = v
	}
	configs["engine"] = s.engineName
	return configs
}

// Returns the engine metrics
func (s *Store) GetMetrics(ctx context.Context) map[string]string {
	return s.engine.GetMetrics(ctx)
}

func (s *Store) String() string {
	ns, db, _ := s.selected()
	return strings.Join([]string{s.engineName, ns, db}, "/")
}

func (s *Store) Close() error {
	return s.engine.Close()
}
