package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	engine "docbench/benchmark/engines/abstract"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrSynchronous is returned for a synchronous mode sqlite does not know.
var ErrSynchronous = errors.New("synchronous must be one of OFF, NORMAL, FULL or EXTRA")

// Sqlite stores records as json text in a single file database.
type Sqlite struct {
	Synchronous string `yaml:"synchronous"`
	path        string
	db          *sql.DB
	getStmt     *sql.Stmt
	updStmt     *sql.Stmt
	scanStmt    *sql.Stmt
	removeStmt  *sql.Stmt
}

// New opens (or creates) the database file at path. configData is the raw
// benchmark configuration; the engine reads its own options from it.
func New(path string, configData []byte) (*Sqlite, error) {
	s := &Sqlite{Synchronous: "NORMAL", path: path}
	if err := yaml.Unmarshal(configData, s); err != nil {
		return nil, errors.Wrap(err, "could not parse sqlite configuration")
	}
	// the mode is spliced into a pragma, which takes no bind parameters
	s.Synchronous = strings.ToUpper(strings.TrimSpace(s.Synchronous))
	switch s.Synchronous {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return nil, errors.Wrapf(ErrSynchronous, "got %q", s.Synchronous)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, errors.Wrapf(err, "could not create %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open sqlite database %s", path)
	}
	// sqlite allows a single writer; one connection avoids busy errors
	db.SetMaxOpenConns(1)
	s.db = db

	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sqlite) init() error {
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA main.synchronous=" + s.Synchronous,
		"PRAGMA busy_timeout=5000",
		`create table if not exists documents (
			ns varchar, db varchar, tb varchar, id varchar, content text,
			primary key (ns, db, tb, id)
		)`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "sqlite init: %s", stmt)
		}
	}

	var err error
	prepare := func(query string) *sql.Stmt {
		if err != nil {
			return nil
		}
		var stmt *sql.Stmt
		stmt, err = s.db.Prepare(query)
		return stmt
	}

	s.getStmt = prepare("select content from documents where ns = ? and db = ? and tb = ? and id = ?")
	s.updStmt = prepare(`
		insert into documents
		values (?, ?, ?, ?, ?)
		on conflict (ns, db, tb, id) do update set content = excluded.content
	`)
	s.scanStmt = prepare("select id, content from documents where ns = ? and db = ? and tb = ? order by id")
	s.removeStmt = prepare("delete from documents where ns = ? and db = ? and tb = ?")

	return errors.Wrap(err, "sqlite prepare")
}

func (s *Sqlite) Put(ctx context.Context, t engine.Table, id string, content []byte) ([]byte, error) {
	if _, err := s.updStmt.ExecContext(ctx, t.Namespace, t.Database, t.Name, id, string(content)); err != nil {
		return nil, errors.Wrapf(err, "sqlite upsert %s:%s", t.Name, id)
	}
	return content, nil
}

func (s *Sqlite) Get(ctx context.Context, t engine.Table, id string) ([]byte, error) {
	var content string
	err := s.getStmt.QueryRowContext(ctx, t.Namespace, t.Database, t.Name, id).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite get %s:%s", t.Name, id)
	}
	return []byte(content), nil
}

func (s *Sqlite) Scan(ctx context.Context, t engine.Table, fn func(engine.Row) bool) error {
	rs, err := s.scanStmt.QueryContext(ctx, t.Namespace, t.Database, t.Name)
	if err != nil {
		return errors.Wrapf(err, "sqlite scan %s", t)
	}
	defer rs.Close()

	for rs.Next() {
		var id, content string
		if err := rs.Scan(&id, &content); err != nil {
			return errors.Wrapf(err, "sqlite scan %s", t)
		}
		if !fn(engine.Row{ID: id, Content: []byte(content)}) {
			break
		}
	}
	return rs.Err()
}

func (s *Sqlite) RemoveTable(ctx context.Context, t engine.Table) error {
	_, err := s.removeStmt.ExecContext(ctx, t.Namespace, t.Database, t.Name)
	return errors.Wrapf(err, "sqlite remove %s", t)
}

func (s *Sqlite) GetConfigs() map[string]string {
	return map[string]string{
		"engine":      "sqlite",
		"path":        s.path,
		"synchronous": s.Synchronous,
	}
}

func (s *Sqlite) GetMetrics(context.Context) map[string]string {
	size := int64(0)
	for _, suffix := range []string{"", "-wal"} {
		if info, err := os.Stat(s.path + suffix); err == nil {
			size += info.Size()
		}
	}
	return map[string]string{"size": strconv.FormatInt(size, 10)}
}

func (s *Sqlite) Close() error {
	return s.db.Close()
}
