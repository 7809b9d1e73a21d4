package postgres

import (
	"context"
	"database/sql"
	"strconv"

	engine "docbench/benchmark/engines/abstract"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Postgres stores records in a jsonb column of a single table.
type Postgres struct {
	VacuumFull   bool `yaml:"vacuumFull"`
	MaxOpenConns int  `yaml:"maxOpenConns"`
	db           *sql.DB
	getStmt      *sql.Stmt
	updStmt      *sql.Stmt
	scanStmt     *sql.Stmt
	removeStmt   *sql.Stmt
}

// New connects to the postgres server described by the connection string.
func New(ctx context.Context, connection string, configData []byte) (*Postgres, error) {
	p := &Postgres{MaxOpenConns: 100}
	if err := yaml.Unmarshal(configData, p); err != nil {
		return nil, errors.Wrap(err, "could not parse postgres configuration")
	}

	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, errors.Wrap(err, "could not open postgres connection")
	}
	db.SetMaxOpenConns(p.MaxOpenConns)
	// the number of idle connections should be the same as the number of open connections,
	// otherwise connections are constantly created and destroyed when there are fewer workers
	db.SetMaxIdleConns(p.MaxOpenConns)
	p.db = db

	if err := p.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) init(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "postgres ping")
	}

	if _, err := p.db.ExecContext(ctx, `
		create table if not exists documents (
			ns varchar, db varchar, tb varchar, id varchar, content jsonb,
			primary key (ns, db, tb, id)
		)
	`); err != nil {
		return errors.Wrap(err, "could not create the documents table")
	}

	var err error
	prepare := func(query string) *sql.Stmt {
		if err != nil {
			return nil
		}
		var stmt *sql.Stmt
		stmt, err = p.db.PrepareContext(ctx, query)
		return stmt
	}

	p.getStmt = prepare("select content from documents where ns = $1 and db = $2 and tb = $3 and id = $4")
	p.updStmt = prepare(`
		insert into documents
		values ($1, $2, $3, $4, $5)
		on conflict (ns, db, tb, id) do update set content = excluded.content
		returning content
	`)
	p.scanStmt = prepare("select id, content from documents where ns = $1 and db = $2 and tb = $3 order by id")
	p.removeStmt = prepare("delete from documents where ns = $1 and db = $2 and tb = $3")

	return errors.Wrap(err, "postgres prepare")
}

func (p *Postgres) Put(ctx context.Context, t engine.Table, id string, content []byte) ([]byte, error) {
	var stored []byte
	err := p.updStmt.QueryRowContext(ctx, t.Namespace, t.Database, t.Name, id, string(content)).Scan(&stored)
	if err != nil {
		return nil, errors.Wrapf(err, "postgres upsert %s:%s", t.Name, id)
	}
	return stored, nil
}

func (p *Postgres) Get(ctx context.Context, t engine.Table, id string) ([]byte, error) {
	var content []byte
	err := p.getStmt.QueryRowContext(ctx, t.Namespace, t.Database, t.Name, id).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "postgres get %s:%s", t.Name, id)
	}
	return content, nil
}

func (p *Postgres) Scan(ctx context.Context, t engine.Table, fn func(engine.Row) bool) error {
	rs, err := p.scanStmt.QueryContext(ctx, t.Namespace, t.Database, t.Name)
	if err != nil {
		return errors.Wrapf(err, "postgres scan %s", t)
	}
	defer rs.Close()

	for rs.Next() {
		var id string
		var content []byte
		if err := rs.Scan(&id, &content); err != nil {
			return errors.Wrapf(err, "postgres scan %s", t)
		}
		if !fn(engine.Row{ID: id, Content: content}) {
			break
		}
	}
	return rs.Err()
}

func (p *Postgres) RemoveTable(ctx context.Context, t engine.Table) error {
	_, err := p.removeStmt.ExecContext(ctx, t.Namespace, t.Database, t.Name)
	return errors.Wrapf(err, "postgres remove %s", t)
}

func (p *Postgres) GetConfigs() map[string]string {
	return map[string]string{
		"engine":       "postgres",
		"maxOpenConns": strconv.Itoa(p.MaxOpenConns),
	}
}

func (p *Postgres) dbSize(ctx context.Context) (int64, error) {
	vacuum := "vacuum analyze documents"
	if p.VacuumFull {
		vacuum = "vacuum full analyze documents"
	}
	if _, err := p.db.ExecContext(ctx, vacuum); err != nil {
		return 0, err
	}

	var s int64
	err := p.db.QueryRowContext(ctx, "select pg_total_relation_size('documents')").Scan(&s)
	return s, err
}

func (p *Postgres) GetMetrics(ctx context.Context) map[string]string {
	size, err := p.dbSize(ctx)
	if err != nil {
		return map[string]string{"size": "n/a"}
	}
	return map[string]string{"size": strconv.FormatInt(size, 10)}
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
