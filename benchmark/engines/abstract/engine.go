package engine

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("record not found")

// Table addresses a table inside a namespace and database.
type Table struct {
	Namespace string
	Database  string
	Name      string
}

func (t Table) String() string {
	return t.Namespace + "/" + t.Database + "/" + t.Name
}

// Row is a stored record.
type Row struct {
	ID      string
	Content []byte
}

type Engine interface {
	// Upserts the content of a record, returning the stored content
	Put(ctx context.Context, table Table, id string, content []byte) ([]byte, error)
	// Retrieves the content of a record, ErrNotFound if missing
	Get(ctx context.Context, table Table, id string) ([]byte, error)
	// Calls fn for each record of a table until fn returns false; fn must not call the engine
	Scan(ctx context.Context, table Table, fn func(row Row) bool) error
	// Removes every record of a table; removing an empty table is not an error
	RemoveTable(ctx context.Context, table Table) error
	// Returns the engine-specific configurations
	GetConfigs() map[string]string
	// Returns the engine-specific metrics
	GetMetrics(ctx context.Context) map[string]string
	// Releases the underlying storage
	Close() error
}
