package dbutils

import (
	"context"

	"docbench/record"
	"docbench/store"

	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
)

// Selects the namespace and database and clears the given tables. Removing a
// table that does not exist is not an error, so this can be called repeatedly.
func InitDb(ctx context.Context, st *store.Store, ns string, db string, tables []string) error {
	if err := st.Use(ns, db); err != nil {
		return err
	}

	for _, t := range tables {
		if err := st.Query(ctx, "REMOVE TABLE "+t); err != nil {
			return errors.Wrapf(err, "could not clear table %s", t)
		}
	}
	zlog.Debug().Str("ns", ns).Str("db", db).Strs("tables", tables).Msg("Database initialized")
	return nil
}

// Tables returns the table names of the kinds
func Tables(kinds []record.Kind) []string {
	tables := make([]string, len(kinds))
	for i, k := range kinds {
		tables[i] = k.Table()
	}
	return tables
}

// Issues the definition statements of every kind, in order. The first
// rejected statement aborts the declaration.
func DeclareSchemas(ctx context.Context, st *store.Store, kinds []record.Kind) error {
	for _, k := range kinds {
		for _, stmt := range record.DefinitionStatements(k) {
			if err := st.Query(ctx, stmt); err != nil {
				return errors.Wrapf(err, "could not declare the %s schema", k)
			}
		}
		zlog.Debug().Str("table", k.Table()).Msg("Schema declared")
	}
	return nil
}

// Returns the number of rows in each table, keyed by table name
func CountRows(ctx context.Context, st *store.Store, tables []string) (map[string]int, error) {
	counts := make(map[string]int, len(tables))
	for _, t := range tables {
		n, err := st.Count(ctx, t)
		if err != nil {
			return nil, errors.Wrapf(err, "could not count the rows of %s", t)
		}
		counts[t] = n
	}
	return counts, nil
}
